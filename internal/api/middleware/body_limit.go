package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"face-attendance/pkg/response"
)

// BodyLimit 请求体大小限制中间件
// 声明了 Content-Length 的超限请求直接拒绝；未声明长度的请求在读取时截断，
// 超限部分会让 JSON 绑定失败并返回 400
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			response.Abort(c, http.StatusRequestEntityTooLarge, 10005, "请求体过大")
			return
		}
		if c.Request.Body != nil {
			c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		}

		c.Next()
	}
}
