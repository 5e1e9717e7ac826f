// Package middleware はリレーサービスのGin HTTP APIで使用する共通ミドルウェアを提供する。
//
// パニックリカバリ、リクエストIDの付与、CORS設定、
// オペレーター向けJWT認証を含む。
package middleware
