package errors

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
)

// ErrorResponse is the body of every error response.
type ErrorResponse struct {
	Error   string                   `json:"error"` // code from codes.go
	Message string                   `json:"message"`
	Entries []checkoutapi.ErrorEntry `json:"entries,omitempty"`
}

// RespondWithError writes an error response with the given status and code.
func RespondWithError(c *gin.Context, statusCode int, errorCode string, message string) {
	c.JSON(statusCode, ErrorResponse{
		Error:   errorCode,
		Message: message,
	})
}

func Unauthorized(c *gin.Context, message string) {
	if message == "" {
		message = "a session token is required"
	}
	RespondWithError(c, http.StatusUnauthorized, SessionUnauthorized, message)
}

func BadRequest(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusBadRequest, errorCode, message)
}

func NotFound(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusNotFound, errorCode, message)
}

func Conflict(c *gin.Context, errorCode string, message string) {
	RespondWithError(c, http.StatusConflict, errorCode, message)
}

func InternalError(c *gin.Context, message string) {
	if message == "" {
		message = "internal server error"
	}
	RespondWithError(c, http.StatusInternalServerError, InternalServerError, message)
}

// CheckoutFailure reports a failed checkout API call together with the
// error entries that were shown to the user. Rejections with an error stack
// map to 422, anything else to 502.
func CheckoutFailure(c *gin.Context, message string, entries []checkoutapi.ErrorEntry, structured bool) {
	status, code := http.StatusBadGateway, BasketCheckoutUnreached
	if structured {
		status, code = http.StatusUnprocessableEntity, BasketCheckoutRejected
	}
	c.JSON(status, ErrorResponse{
		Error:   code,
		Message: message,
		Entries: entries,
	})
}
