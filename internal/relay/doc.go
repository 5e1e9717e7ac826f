// Package relay はゲームクライアント向けのリレーサービスの内部実装を提供する。
//
// クライアントが提示したSteamセッションチケットを検証し、報酬プールから
// 一様ランダムに選んだアイテムをSteamインベントリに付与する。状態は持たず、
// 設定と報酬プールは起動時に構築されたものを読み取るだけである。
//
// 同一ユーザーからの並行した宝箱開封は重複排除しない。付与履歴も保持しないため、
// 同じユーザーが同じアイテムを複数回受け取ることがある。
package relay
