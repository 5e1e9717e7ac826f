// Package rewardpool は宝箱から排出されるアイテム定義ID（itemdefid）の候補集合を提供する。
//
// 環境変数 DROP_KEYS の文字列をパースし、重複を除いた昇順のID列として保持する。
// プールは起動時に一度だけ構築され、以降は変更されないため並行に読み取ってよい。
package rewardpool
