// Package steam はSteam Web API（パートナー向け）のクライアントを提供する。
//
// ISteamUserAuth によるセッションチケットの検証と、IInventoryService による
// アイテム付与の2つの呼び出しだけを扱う。いずれもパブリッシャーキーを必要とし、
// 上流のレスポンスボディは診断用にそのまま呼び出し元へ返す。
package steam
