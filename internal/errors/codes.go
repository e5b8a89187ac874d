package errors

// Error codes returned in the "error" field of bridge responses.
// Format: CATEGORY_SPECIFIC_DETAIL

const (
	// ==================== Session (SESSION_) ====================
	SessionUnauthorized = "SESSION_UNAUTHORIZED" // missing session token
	SessionTokenExpired = "SESSION_TOKEN_EXPIRED"
	SessionTokenInvalid = "SESSION_TOKEN_INVALID"

	// ==================== Validation (VALIDATION_) ====================
	ValidationInvalidInput = "VALIDATION_INVALID_INPUT"
	ValidationInvalidID    = "VALIDATION_INVALID_ID"
	ValidationRequired     = "VALIDATION_REQUIRED"

	// ==================== Basket (BASKET_) ====================
	BasketEmptyMutation     = "BASKET_EMPTY_MUTATION"
	BasketCheckoutRejected  = "BASKET_CHECKOUT_REJECTED" // checkout API returned an error stack
	BasketCheckoutUnreached = "BASKET_CHECKOUT_UNREACHABLE"

	// ==================== Gate (GATE_) ====================
	GateNotFound        = "GATE_NOT_FOUND"
	GateAlreadyResolved = "GATE_ALREADY_RESOLVED"

	// ==================== Server (SERVER_) ====================
	InternalServerError = "SERVER_INTERNAL_ERROR"
)
