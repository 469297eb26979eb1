package middleware

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

// IntakeBodyLimit 入站表单请求体的默认上限。
// 留言正文本身不超过 2000 字符，64KB 足够容纳整个 JSON 载荷。
const IntakeBodyLimit = 64 * 1024

// BodySizeLimit 限制请求体大小的中间件
func BodySizeLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{
				"error": "Request body too large",
			})
			c.Abort()
			return
		}

		// Content-Length 可能缺失或撒谎，读取侧同样设限
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Header("X-Max-Body-Size", strconv.FormatInt(maxBytes, 10))

		c.Next()
	}
}
