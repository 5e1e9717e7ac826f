// Package httpclient は外部サービス（Steam Web API）へのHTTP通信を行うクライアントを提供する。
//
// 本人確認（チケット検証）とインベントリ付与の両方がこのクライアントを経由する。
// タイムアウト、非2xxレスポンスのエラー化、レスポンスボディのデコードといった
// 通信パターンを統一する。
package httpclient
