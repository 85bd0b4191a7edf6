package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"studydesk/internal/transport/http/response"
)

// HeaderAuthToken carries the opaque session token on every protected call.
const HeaderAuthToken = "X-Auth-Token"

// TokenValidator reports whether a session token is currently stored.
type TokenValidator interface {
	Validate(token string) (bool, error)
}

// RequireSession gates a route group on a stored session token. Requests
// rejected here cause no side effects downstream.
func RequireSession(validator TokenValidator) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := strings.TrimSpace(c.GetHeader(HeaderAuthToken))
		if token == "" {
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		ok, err := validator.Validate(token)
		if err != nil || !ok {
			response.Error(c, http.StatusUnauthorized, "Unauthorized")
			c.Abort()
			return
		}

		c.Next()
	}
}
