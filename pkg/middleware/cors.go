package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// AllowAnyOrigin は全オリジンを許可する指定。
const AllowAnyOrigin = "*"

// CORSConfig はCORSミドルウェアの設定。
type CORSConfig struct {
	// AllowedOrigins は許可するオリジンの一覧。"*" を含む場合は全オリジンを許可する。
	AllowedOrigins []string
	// AllowedMethods は許可するHTTPメソッド。
	AllowedMethods []string
	// AllowedHeaders は許可するリクエストヘッダー。
	AllowedHeaders []string
	// ExposedHeaders はブラウザに公開するレスポンスヘッダー。
	ExposedHeaders []string
	// AllowCredentials がtrueの場合、認証情報付きリクエストを許可する。
	AllowCredentials bool
	// PreflightStatus はプリフライトリクエストに返すステータスコード。
	PreflightStatus int
}

// DefaultCORSConfig はクライアントアプリ向けの寛容なCORS設定を返す。
// 一部の古いブラウザが204を扱えないため、プリフライトには200を返す。
func DefaultCORSConfig() CORSConfig {
	return CORSConfig{
		AllowedOrigins:   []string{AllowAnyOrigin},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS", "PATCH"},
		AllowedHeaders:   []string{"Content-Type", "Accept", "Authorization", "X-Requested-With", "X-Request-ID"},
		ExposedHeaders:   []string{"Content-Type", "Authorization", "X-Request-ID"},
		AllowCredentials: true,
		PreflightStatus:  http.StatusOK,
	}
}

// CORS はクロスオリジンリクエストを許可するGinミドルウェアを返す。
// 認証情報付きリクエストに対応するため、"*" ではなく要求元のOriginをそのまま返す。
func CORS(cfg CORSConfig) gin.HandlerFunc {
	allowAll := false
	originsSet := make(map[string]struct{}, len(cfg.AllowedOrigins))
	for _, o := range cfg.AllowedOrigins {
		if o == AllowAnyOrigin {
			allowAll = true
			continue
		}
		originsSet[o] = struct{}{}
	}

	methods := strings.Join(cfg.AllowedMethods, ", ")
	headers := strings.Join(cfg.AllowedHeaders, ", ")
	exposed := strings.Join(cfg.ExposedHeaders, ", ")
	preflightStatus := cfg.PreflightStatus
	if preflightStatus == 0 {
		preflightStatus = http.StatusNoContent
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		_, listed := originsSet[origin]
		if origin != "" && (allowAll || listed) {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Vary", "Origin")
			c.Header("Access-Control-Allow-Methods", methods)
			c.Header("Access-Control-Allow-Headers", headers)
			if exposed != "" {
				c.Header("Access-Control-Expose-Headers", exposed)
			}
			if cfg.AllowCredentials {
				c.Header("Access-Control-Allow-Credentials", "true")
			}
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(preflightStatus)
			return
		}

		c.Next()
	}
}
