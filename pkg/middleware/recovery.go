package middleware

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時にログを出力し、server_error として500を返す。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %s %s request_id=%s: %v", c.Request.Method, c.Request.URL.Path, GetRequestID(c), r)
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{
					"ok":     false,
					"error":  "server_error",
					"detail": "内部サーバーエラーが発生しました",
				})
			}
		}()
		c.Next()
	}
}
