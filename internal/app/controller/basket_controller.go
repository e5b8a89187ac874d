package controller

import (
	stderrors "errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/internal/app/service"
	"github.com/ikkim/udonggeum-basket/internal/errors"
	"github.com/ikkim/udonggeum-basket/internal/middleware"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
)

type BasketController struct {
	basketService service.BasketService
}

func NewBasketController(basketService service.BasketService) *BasketController {
	return &BasketController{
		basketService: basketService,
	}
}

type BasketItemRequest struct {
	ItemID   int `json:"item_id" binding:"required,gt=0"`
	Quantity int `json:"quantity" binding:"required,gt=0"`
}

// AddItemRequest carries the canonical item first, followed by its variant
// expansions.
type AddItemRequest struct {
	Items []BasketItemRequest `json:"items" binding:"required,min=1,dive"`
}

type UpdateQuantityRequest struct {
	Quantity *int `json:"quantity" binding:"required"`
}

type AddCouponRequest struct {
	Code string `json:"code" binding:"required"`
}

type ResultResponse struct {
	Outcome       service.Outcome      `json:"outcome"`
	WorkflowID    string               `json:"workflow_id,omitempty"`
	WorkflowState service.AddState     `json:"workflow_state,omitempty"`
	GateID        string               `json:"gate_id,omitempty"`
	Basket        model.BasketSnapshot `json:"basket"`
}

// GetBasket returns the cached snapshot and its preview
// GET /api/v1/basket
func (ctrl *BasketController) GetBasket(c *gin.Context) {
	snap := ctrl.basketService.Checkout()
	c.JSON(http.StatusOK, gin.H{
		"basket":  snap,
		"preview": model.PreviewOf(snap),
	})
}

// AddItem adds an item with its expansions
// POST /api/v1/basket/items
func (ctrl *BasketController) AddItem(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddItemRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid add item request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "invalid request data")
		return
	}

	mutation := make(model.PendingBasketMutation, 0, len(req.Items))
	for _, item := range req.Items {
		mutation = append(mutation, model.BasketItem{
			ItemReferenceID: item.ItemID,
			Quantity:        item.Quantity,
		})
	}

	res, err := ctrl.basketService.AddItem(c.Request.Context(), mutation, false)
	ctrl.respond(c, "add item", res, err)
}

// UpdateQuantity sets an item's quantity. Zero or less asks for removal.
// PUT /api/v1/basket/items/:id
func (ctrl *BasketController) UpdateQuantity(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	itemID, ok := ctrl.itemID(c)
	if !ok {
		return
	}

	var req UpdateQuantityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid quantity request", map[string]interface{}{
			"item_id": itemID,
			"error":   err.Error(),
		})
		errors.BadRequest(c, errors.ValidationInvalidInput, "invalid request data")
		return
	}

	res, err := ctrl.basketService.SetItemQuantity(c.Request.Context(), itemID, *req.Quantity)
	ctrl.respond(c, "update quantity", res, err)
}

// RemoveItem removes an item, asking for confirmation unless force=true
// DELETE /api/v1/basket/items/:id
func (ctrl *BasketController) RemoveItem(c *gin.Context) {
	itemID, ok := ctrl.itemID(c)
	if !ok {
		return
	}
	force, _ := strconv.ParseBool(c.DefaultQuery("force", "false"))

	res, err := ctrl.basketService.RemoveItem(c.Request.Context(), itemID, force)
	ctrl.respond(c, "remove item", res, err)
}

// AddCoupon applies a coupon code
// POST /api/v1/basket/coupon
func (ctrl *BasketController) AddCoupon(c *gin.Context) {
	log := middleware.GetLoggerFromContext(c)

	var req AddCouponRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		log.Warn("Invalid coupon request", map[string]interface{}{
			"error": err.Error(),
		})
		errors.BadRequest(c, errors.ValidationRequired, "coupon code is required")
		return
	}

	res, err := ctrl.basketService.AddCoupon(c.Request.Context(), service.CouponInput(req.Code))
	ctrl.respond(c, "add coupon", res, err)
}

// RemoveCoupon removes the active coupon
// DELETE /api/v1/basket/coupon
func (ctrl *BasketController) RemoveCoupon(c *gin.Context) {
	res, err := ctrl.basketService.RemoveCoupon(c.Request.Context())
	ctrl.respond(c, "remove coupon", res, err)
}

// itemID parses the :id parameter. Items missing from the snapshot are left
// to the engine, which treats them as a no-op.
func (ctrl *BasketController) itemID(c *gin.Context) (int, bool) {
	log := middleware.GetLoggerFromContext(c)

	idStr := c.Param("id")
	id, err := strconv.Atoi(idStr)
	if err != nil || id <= 0 {
		log.Warn("Invalid basket item ID format", map[string]interface{}{
			"item_id": idStr,
		})
		errors.BadRequest(c, errors.ValidationInvalidID, "invalid basket item ID")
		return 0, false
	}
	return id, true
}

func (ctrl *BasketController) respond(c *gin.Context, op string, res service.Result, err error) {
	log := middleware.GetLoggerFromContext(c)

	if err != nil {
		var tf *service.TransportFailure
		switch {
		case stderrors.As(err, &tf):
			_, structured := checkoutapi.AsStructured(tf.Err)
			log.Warn("Basket operation rejected", map[string]interface{}{
				"op":      op,
				"entries": len(tf.Entries),
			})
			errors.CheckoutFailure(c, op+" failed", tf.Entries, structured)
		case stderrors.Is(err, service.ErrEmptyMutation):
			errors.BadRequest(c, errors.BasketEmptyMutation, "no items to add")
		default:
			log.Error("Basket operation failed", err, map[string]interface{}{
				"op": op,
			})
			errors.InternalError(c, "")
		}
		return
	}

	resp := ResultResponse{
		Outcome: res.Outcome,
		Basket:  ctrl.basketService.Checkout(),
	}
	if res.Workflow != nil {
		resp.WorkflowID = res.Workflow.ID()
		resp.WorkflowState = res.Workflow.State()
	}
	if res.Gate != nil {
		resp.GateID = res.Gate.ID()
	}

	status := http.StatusOK
	if res.Outcome == service.OutcomeAwaitingInput {
		status = http.StatusAccepted
	}

	log.Info("Basket operation completed", map[string]interface{}{
		"op":      op,
		"outcome": res.Outcome,
	})
	c.JSON(status, resp)
}
