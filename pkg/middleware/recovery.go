package middleware

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Recovery はパニックからの回復を行うGinミドルウェアを返す。
// パニック発生時はログに出力し、中継レスポンスと同じ形式のエンベロープを返す。
// HTTPステータスは200とし、エンベロープのstatusを500とする。
func Recovery() gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("[PANIC] %s %s: %v", c.Request.Method, c.Request.URL.Path, r)
				c.AbortWithStatusJSON(http.StatusOK, gin.H{
					"success":   false,
					"status":    http.StatusInternalServerError,
					"error":     panicMessage(r),
					"data":      nil,
					"requestId": GetRequestID(c),
				})
			}
		}()
		c.Next()
	}
}

// panicMessage はパニック値を呼び出し元に返すメッセージに変換する。
func panicMessage(r any) string {
	switch v := r.(type) {
	case error:
		return v.Error()
	case string:
		if v != "" {
			return v
		}
	case fmt.Stringer:
		return v.String()
	}
	return "Payment processing failed"
}
