package middleware

import (
	stderrors "errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/internal/errors"
	"github.com/ikkim/udonggeum-basket/pkg/util"
)

// SessionIDKey is the gin context key holding the authenticated session id.
const SessionIDKey = "session_id"

type SessionMiddleware struct {
	secret string
}

func NewSessionMiddleware(secret string) *SessionMiddleware {
	return &SessionMiddleware{
		secret: secret,
	}
}

// Authenticate requires a valid session token, taken from the Authorization
// header or, for websocket upgrades, the token query parameter.
func (m *SessionMiddleware) Authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := GetLoggerFromContext(c)

		var token string
		if authHeader := c.GetHeader("Authorization"); authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				log.Warn("Invalid authorization header format", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.RespondWithError(c, http.StatusUnauthorized, errors.SessionTokenInvalid, "malformed authorization header")
				c.Abort()
				return
			}
			token = parts[1]
		} else {
			token = c.Query("token")
			if token == "" {
				log.Warn("Missing session token", map[string]interface{}{
					"path": c.Request.URL.Path,
				})
				errors.Unauthorized(c, "")
				c.Abort()
				return
			}
		}

		claims, err := util.ValidateToken(token, m.secret)
		if err != nil {
			log.Warn("Session token validation failed", map[string]interface{}{
				"path":  c.Request.URL.Path,
				"error": err.Error(),
			})
			if stderrors.Is(err, util.ErrExpiredToken) {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.SessionTokenExpired, "session has expired")
			} else {
				errors.RespondWithError(c, http.StatusUnauthorized, errors.SessionTokenInvalid, "invalid session token")
			}
			c.Abort()
			return
		}

		c.Set(SessionIDKey, claims.SessionID)
		log.Debug("Session authenticated", map[string]interface{}{
			"session_id": claims.SessionID,
		})

		c.Next()
	}
}

// GetSessionID extracts the session id from context
func GetSessionID(c *gin.Context) (string, bool) {
	sessionID, exists := c.Get(SessionIDKey)
	if !exists {
		return "", false
	}
	return sessionID.(string), true
}
