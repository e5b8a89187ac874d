package controller

import (
	stderrors "errors"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/internal/app/orderparams"
	"github.com/ikkim/udonggeum-basket/internal/confirm"
	"github.com/ikkim/udonggeum-basket/internal/errors"
	"github.com/ikkim/udonggeum-basket/internal/middleware"
)

// GateResolver resolves shown confirmation gates by id. The response given
// to Confirm reaches only the confirmed gate.
type GateResolver interface {
	Confirm(id string, response interface{}) error
	Dismiss(id string) error
}

type GateController struct {
	gates GateResolver
}

func NewGateController(gates GateResolver) *GateController {
	return &GateController{
		gates: gates,
	}
}

// Confirm resolves a gate as confirmed. An order-params form may be sent as
// the body and is handed to that gate's continuation.
// POST /api/v1/gates/:id/confirm
func (ctrl *GateController) Confirm(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)
	gateID := c.Param("id")

	var form orderparams.Form
	if err := c.ShouldBindJSON(&form); err != nil && !stderrors.Is(err, io.EOF) {
		log.Warn("Invalid order params form", map[string]interface{}{
			"gate_id": gateID,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "invalid order params form")
		return
	}
	ctrl.resolve(c, gateID, "confirmed", func(id string) error {
		return ctrl.gates.Confirm(id, form)
	})
}

// Dismiss resolves a gate as dismissed
// POST /api/v1/gates/:id/dismiss
func (ctrl *GateController) Dismiss(c *gin.Context) {
	ctrl.resolve(c, c.Param("id"), "dismissed", ctrl.gates.Dismiss)
}

func (ctrl *GateController) resolve(c *gin.Context, gateID, outcome string, fn func(string) error) {
	log := middleware.GetLoggerFromContext(c)

	if err := fn(gateID); err != nil {
		switch {
		case stderrors.Is(err, confirm.ErrGateNotFound):
			errors.NotFound(c, errors.GateNotFound, "gate not found")
		case stderrors.Is(err, confirm.ErrAlreadyResolved):
			errors.Conflict(c, errors.GateAlreadyResolved, "gate already resolved")
		default:
			log.Error("Failed to resolve gate", err, map[string]interface{}{
				"gate_id": gateID,
			})
			errors.InternalError(c, "")
		}
		return
	}

	log.Info("Gate resolved", map[string]interface{}{
		"gate_id": gateID,
		"outcome": outcome,
	})
	c.JSON(http.StatusOK, gin.H{
		"gate_id": gateID,
		"outcome": outcome,
	})
}
