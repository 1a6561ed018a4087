package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"gatepass/backend/pkg/response"
)

// BodyLimit 请求体上限
// 申请、登记表与签到备注都是小体积 JSON；声明长度超限直接 413，
// 未声明长度的请求在读取时由 MaxBytesReader 截断，绑定失败返回 10001
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Error(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			c.Abort()
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
