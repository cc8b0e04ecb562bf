package middleware

import (
	"bytes"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"quiz-session-backend/utilities"
)

// RequestDumpMiddleware logs every request at debug level. The Authorization
// header is redacted and login bodies are never written out.
func RequestDumpMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		var bodyBytes []byte
		if c.Request.Body != nil {
			bodyBytes, _ = io.ReadAll(c.Request.Body)
		}
		c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))

		headers := c.Request.Header.Clone()
		if headers.Get("Authorization") != "" {
			headers.Set("Authorization", "[redacted]")
		}
		body := string(bodyBytes)
		if c.Request.Method == http.MethodPost && c.FullPath() == "/auth/login" {
			body = "[redacted]"
		}

		utilities.Debug(
			"[Request]\n"+
				"\tMethod: %s\n"+
				"\tURL: %s\n"+
				"\tHeaders: %v\n"+
				"\tParams: %v\n"+
				"\tBody: %s",
			c.Request.Method,
			c.Request.URL.String(),
			headers,
			c.Params,
			body,
		)

		c.Next()
	}
}
