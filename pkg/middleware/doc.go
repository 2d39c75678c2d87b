// Package middleware は中継サーバーで使用するGinミドルウェアを提供する。
//
// CORS設定、パニックリカバリ、リクエストID付与、
// 運用者向けエンドポイントのJWT検証を含む。
package middleware
