package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// wildcardOrigin はすべてのオリジンを許可する指定。
const wildcardOrigin = "*"

const (
	corsAllowMethods = "GET, POST, OPTIONS"
	corsAllowHeaders = "Authorization, Content-Type, X-Request-ID"
	corsMaxAge       = "86400"
)

// originPolicy は許可するオリジンの集合。
type originPolicy struct {
	// anyOrigin は "*" が指定されているかどうか。
	anyOrigin bool
	// origins は完全一致で許可するオリジン。
	origins map[string]struct{}
}

func newOriginPolicy(allowed []string) originPolicy {
	p := originPolicy{origins: make(map[string]struct{}, len(allowed))}
	for _, o := range allowed {
		if o == wildcardOrigin {
			p.anyOrigin = true
			continue
		}
		p.origins[o] = struct{}{}
	}
	return p
}

// allowOrigin は Access-Control-Allow-Origin に返す値を返す。許可しない場合は空文字列。
func (p originPolicy) allowOrigin(origin string) string {
	if origin == "" {
		return ""
	}
	if p.anyOrigin {
		return wildcardOrigin
	}
	if _, ok := p.origins[origin]; ok {
		return origin
	}
	return ""
}

// isPreflight はCORSのプリフライトリクエストかどうかを返す。
func isPreflight(r *http.Request) bool {
	return r.Method == http.MethodOptions &&
		r.Header.Get("Origin") != "" &&
		r.Header.Get("Access-Control-Request-Method") != ""
}

// CORS は許可されたオリジンからのクロスオリジンリクエストを許可するGinミドルウェアを返す。
// allowedOrigins に "*" を含めるとすべてのオリジンを許可する。
// 許可されたオリジンからのプリフライトには204を返し、それ以外のOPTIONSは通常のルーティングに任せる。
func CORS(allowedOrigins []string) gin.HandlerFunc {
	policy := newOriginPolicy(allowedOrigins)

	return func(c *gin.Context) {
		allowed := policy.allowOrigin(c.GetHeader("Origin"))
		if allowed == "" {
			c.Next()
			return
		}

		c.Header("Access-Control-Allow-Origin", allowed)
		if allowed != wildcardOrigin {
			c.Header("Vary", "Origin")
		}

		if isPreflight(c.Request) {
			c.Header("Access-Control-Allow-Methods", corsAllowMethods)
			c.Header("Access-Control-Allow-Headers", corsAllowHeaders)
			c.Header("Access-Control-Max-Age", corsMaxAge)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}
