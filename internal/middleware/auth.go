package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/auth"
	"github.com/zubairashfaque/FuturNod-Agents/pkg/domain"
)

const (
	userIDKey     = "userID"
	userClaimsKey = "userClaims"
)

var errAuthFormat = errors.New("invalid Authorization format")

// AuthMiddleware resolves the caller identity. The validator decides whether
// a request without credentials is acceptable.
func AuthMiddleware(validator auth.Validator) gin.HandlerFunc {
	return func(c *gin.Context) {
		if validator == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "identity validator not configured"})
			return
		}
		token, err := bearerToken(c.GetHeader("Authorization"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": err.Error()})
			return
		}
		claims, err := validator.Validate(token)
		if err != nil {
			Logger(c).Debug("token rejected", "err", err)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		if claims.UserID() == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "token has no subject"})
			return
		}
		c.Set(userClaimsKey, claims)
		c.Set(userIDKey, claims.UserID())
		c.Next()
	}
}

// UserID returns the authenticated user id, or the anonymous user.
func UserID(c *gin.Context) string {
	if id := c.GetString(userIDKey); id != "" {
		return id
	}
	return domain.AnonymousUser
}

func Claims(c *gin.Context) *auth.Claims {
	v, _ := c.Get(userClaimsKey)
	claims, _ := v.(*auth.Claims)
	return claims
}

// bearerToken returns "" for a missing header and an error for any scheme
// other than Bearer.
func bearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", nil
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return "", errAuthFormat
	}
	return strings.TrimSpace(parts[1]), nil
}
