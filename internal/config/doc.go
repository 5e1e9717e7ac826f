// Package config はプロセス全体の設定を環境変数から読み込む。
//
// 設定は起動時に一度だけ構築され、以降は変更しない。各コンポーネントには
// グローバル参照ではなく Config を明示的に渡す。
package config
