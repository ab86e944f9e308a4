package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/apex/log"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"

	"github.com/jengzang/urban-twin-go/pkg/response"
)

const (
	// OwnerKey is the gin context key holding the session owner
	OwnerKey = "owner"
	// AnonymousOwner owns the session of unauthenticated requests
	AnonymousOwner = "anonymous"
)

// Auth verifies an optional HS256 bearer token and stores its subject as
// the session owner. With required set, requests without a valid token are
// rejected; otherwise they run as AnonymousOwner. An empty secret disables
// verification.
func Auth(secret string, required bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		if secret == "" {
			c.Set(OwnerKey, AnonymousOwner)
			c.Next()
			return
		}

		tokenString := extractToken(c.GetHeader("Authorization"))
		if tokenString == "" {
			// browsers cannot set headers on websocket upgrades
			tokenString = c.Query("access_token")
		}
		if tokenString == "" {
			if required {
				response.Error(c, http.StatusUnauthorized, "missing bearer token")
				c.Abort()
				return
			}
			c.Set(OwnerKey, AnonymousOwner)
			c.Next()
			return
		}

		subject, err := ValidateToken(tokenString, secret)
		if err != nil {
			log.WithError(err).WithField("ip", c.ClientIP()).Warn("rejected bearer token")
			response.Error(c, http.StatusUnauthorized, "invalid or expired token")
			c.Abort()
			return
		}

		c.Set(OwnerKey, subject)
		c.Next()
	}
}

// ValidateToken checks an HS256 token and returns its subject
func ValidateToken(tokenString, secret string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}

	subject, err := token.Claims.GetSubject()
	if err != nil {
		return "", err
	}
	if subject == "" {
		return "", errors.New("token has no subject")
	}
	return subject, nil
}

// Owner returns the session owner set by Auth
func Owner(c *gin.Context) string {
	if v := c.GetString(OwnerKey); v != "" {
		return v
	}
	return AnonymousOwner
}

func extractToken(authHeader string) string {
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}
