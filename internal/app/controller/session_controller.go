package controller

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/internal/errors"
	"github.com/ikkim/udonggeum-basket/internal/middleware"
	"github.com/ikkim/udonggeum-basket/pkg/util"
)

type SessionController struct {
	secret string
	expiry time.Duration
}

func NewSessionController(secret string, expiry time.Duration) *SessionController {
	return &SessionController{
		secret: secret,
		expiry: expiry,
	}
}

// CreateSession issues a session token for a UI shell
// POST /api/v1/session
func (ctrl *SessionController) CreateSession(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	token, sessionID, err := util.GenerateSessionToken(ctrl.secret, ctrl.expiry)
	if err != nil {
		log.Error("Failed to issue session token", err)
		errors.InternalError(c, "")
		return
	}

	log.Info("Session created", map[string]interface{}{
		"session_id": sessionID,
	})
	c.JSON(http.StatusCreated, gin.H{
		"token":      token,
		"session_id": sessionID,
		"expires_in": int64(ctrl.expiry.Seconds()),
	})
}
