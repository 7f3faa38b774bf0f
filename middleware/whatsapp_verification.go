package middleware

import (
	"bytes"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const signatureHeader = "X-Hub-Signature-256"

// VerifyWhatsAppSignature rejects webhook deliveries whose body was not
// signed with appSecret.
func VerifyWhatsAppSignature(appSecret string) gin.HandlerFunc {
	return func(c *gin.Context) {
		signature := c.GetHeader(signatureHeader)
		if !strings.HasPrefix(signature, "sha256=") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Missing signature"})
			return
		}

		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "Failed to read body"})
			return
		}
		// Restore the body for subsequent handlers
		c.Request.Body = io.NopCloser(bytes.NewReader(body))

		if !hmac.Equal([]byte(signature), []byte("sha256="+SignPayload(body, appSecret))) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid signature"})
			return
		}

		c.Next()
	}
}

// SignPayload returns the hex HMAC-SHA256 of data, as Meta computes it.
func SignPayload(data []byte, secret string) string {
	h := hmac.New(sha256.New, []byte(secret))
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}
