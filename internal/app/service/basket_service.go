package service

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/ikkim/udonggeum-basket/config"
	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/internal/app/orderparams"
	"github.com/ikkim/udonggeum-basket/internal/confirm"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
	"golang.org/x/sync/errgroup"
)

const (
	removeTitle   = "Please confirm"
	removeContent = `<p>Do you really want to remove "%s" from the basket?</p>`
	removeLabel   = "Delete"
)

type Outcome string

const (
	OutcomeSucceeded     Outcome = "succeeded"
	OutcomeAwaitingInput Outcome = "awaiting_input"
	OutcomeFailed        Outcome = "failed"
	OutcomeNoop          Outcome = "noop"
)

// Result describes how far an operation got before returning. Operations
// that open a gate return OutcomeAwaitingInput and continue when the gate
// is resolved.
type Result struct {
	Outcome  Outcome
	Workflow *AddWorkflow
	Gate     *confirm.Gate
}

type BasketService interface {
	AddItem(ctx context.Context, mutation model.PendingBasketMutation, isRetryWithParams bool) (Result, error)
	RemoveItem(ctx context.Context, itemID int, forceDelete bool) (Result, error)
	SetItemQuantity(ctx context.Context, itemID, newQuantity int) (Result, error)
	AddCoupon(ctx context.Context, input Input) (Result, error)
	RemoveCoupon(ctx context.Context) (Result, error)
	Checkout() model.BasketSnapshot
}

// basketService does not serialize operations. Overlapping calls are allowed
// and the last snapshot reload to complete wins; callers disable their
// controls while the wait indicator is shown.
type basketService struct {
	transport Transport
	checkout  CheckoutState
	overlay   Overlay
	ui        UI
	renderer  confirm.Renderer
	views     config.ViewsConfig
}

func NewBasketService(
	transport Transport,
	checkout CheckoutState,
	overlay Overlay,
	ui UI,
	renderer confirm.Renderer,
	views config.ViewsConfig,
) BasketService {
	return &basketService{
		transport: transport,
		checkout:  checkout,
		overlay:   overlay,
		ui:        ui,
		renderer:  renderer,
		views:     views,
	}
}

func (s *basketService) Checkout() model.BasketSnapshot {
	return s.checkout.GetCheckout()
}

// AddItem upserts mutation. When the first attempt is rejected for missing
// order parameters, the parameter form is shown and a confirmed form is
// merged and submitted once more with isRetryWithParams set.
func (s *basketService) AddItem(ctx context.Context, mutation model.PendingBasketMutation, isRetryWithParams bool) (Result, error) {
	if len(mutation) == 0 {
		logger.Warn("Add basket item skipped: empty mutation", nil)
		return Result{Outcome: OutcomeNoop}, ErrEmptyMutation
	}

	wf := newAddWorkflow()
	if err := wf.transition(AddSubmitting); err != nil {
		return Result{Outcome: OutcomeFailed, Workflow: wf}, err
	}
	return s.submitAdd(ctx, wf, mutation, isRetryWithParams)
}

func (s *basketService) submitAdd(ctx context.Context, wf *AddWorkflow, mutation model.PendingBasketMutation, isRetryWithParams bool) (Result, error) {
	logger.Info("Adding basket item", map[string]interface{}{
		"workflow_id":       wf.ID(),
		"item_reference_id": mutation[0].ItemReferenceID,
		"quantity":          mutation[0].Quantity,
		"entries":           len(mutation),
		"retry_with_params": isRetryWithParams,
	})

	s.ui.ShowWaitIndicator()
	err := s.transport.Post(ctx, checkoutapi.PathBasketItems, mutation, true)
	if err == nil {
		return s.completeAdd(ctx, wf, mutation)
	}

	failure := classify("add basket item", err, isRetryWithParams)
	var paramErr *RecoverableParamError
	if errors.As(failure, &paramErr) {
		return s.requestOrderParams(ctx, wf, mutation, paramErr)
	}

	var tf *TransportFailure
	errors.As(failure, &tf)
	s.ui.HideWaitIndicator()
	return s.failAdd(wf, tf)
}

func (s *basketService) completeAdd(ctx context.Context, wf *AddWorkflow, mutation model.PendingBasketMutation) (Result, error) {
	if err := s.checkout.LoadCheckout(ctx); err != nil {
		logger.Error("Failed to reload checkout after add", err, map[string]interface{}{
			"workflow_id": wf.ID(),
		})
	}
	s.refreshBasketPreview(ctx)

	query := fmt.Sprintf("?ArticleID=%d", mutation[0].ItemReferenceID)
	tpl, err := s.overlay.GetContainer(ctx, s.views.AddedOverlay, query)
	s.ui.HideWaitIndicator()

	if terr := wf.transition(AddSuccess); terr != nil {
		return Result{Outcome: OutcomeFailed, Workflow: wf}, terr
	}

	logger.Info("Basket item added successfully", map[string]interface{}{
		"workflow_id":       wf.ID(),
		"item_reference_id": mutation[0].ItemReferenceID,
	})

	if err != nil {
		logger.Warn("Added-item overlay unavailable", map[string]interface{}{
			"workflow_id": wf.ID(),
			"error":       err.Error(),
		})
		return Result{Outcome: OutcomeSucceeded, Workflow: wf}, nil
	}

	gate := confirm.Prepare(s.renderer).
		SetTemplate(tpl).
		SetTimeout(s.views.AddedOverlayTimeout)
	if err := gate.Show(ctx); err != nil {
		logger.Warn("Failed to show added-item overlay", map[string]interface{}{
			"workflow_id": wf.ID(),
			"error":       err.Error(),
		})
		return Result{Outcome: OutcomeSucceeded, Workflow: wf}, nil
	}
	return Result{Outcome: OutcomeSucceeded, Workflow: wf, Gate: gate}, nil
}

func (s *basketService) requestOrderParams(ctx context.Context, wf *AddWorkflow, mutation model.PendingBasketMutation, paramErr *RecoverableParamError) (Result, error) {
	if err := wf.transition(AddNeedsParams); err != nil {
		s.ui.HideWaitIndicator()
		return Result{Outcome: OutcomeFailed, Workflow: wf}, err
	}

	head := mutation[0]
	query := fmt.Sprintf("?itemID=%d&quantity=%d", head.ItemReferenceID, head.Quantity)
	tpl, err := s.overlay.GetContainer(ctx, s.views.OrderParamsOverlay, query)
	s.ui.HideWaitIndicator()
	if err != nil {
		return s.failAdd(wf, &TransportFailure{
			Op:      "load order params form",
			Entries: checkoutapi.Entries(paramErr.Err),
			Err:     err,
		})
	}

	cont := context.WithoutCancel(ctx)
	var gate *confirm.Gate
	gate = confirm.Prepare(s.renderer).
		SetTemplate(tpl).
		OnConfirm(func() {
			form, _ := gate.Response().(orderparams.Form)
			s.resumeWithParams(cont, wf, mutation, form)
		}).
		OnDismiss(func() {
			if err := wf.transition(AddAbandoned); err != nil {
				logger.Error("Failed to abandon add workflow", err)
				return
			}
			logger.Warn("Order params dialog dismissed", map[string]interface{}{
				"workflow_id":       wf.ID(),
				"item_reference_id": head.ItemReferenceID,
			})
		})

	if err := wf.transition(AddAwaitingUserInput); err != nil {
		return Result{Outcome: OutcomeFailed, Workflow: wf}, err
	}
	if err := gate.Show(ctx); err != nil {
		return s.failAdd(wf, &TransportFailure{
			Op:      "show order params form",
			Entries: checkoutapi.Entries(paramErr.Err),
			Err:     err,
		})
	}

	logger.Info("Order params requested", map[string]interface{}{
		"workflow_id":       wf.ID(),
		"item_reference_id": head.ItemReferenceID,
		"gate_id":           gate.ID(),
	})
	return Result{Outcome: OutcomeAwaitingInput, Workflow: wf, Gate: gate}, nil
}

// resumeWithParams merges the form submitted with this workflow's gate and
// submits the result as the single retry.
func (s *basketService) resumeWithParams(ctx context.Context, wf *AddWorkflow, mutation model.PendingBasketMutation, form orderparams.Form) {
	merged, err := orderparams.Save(mutation, form)
	if err != nil {
		logger.Error("Failed to merge order params", err, map[string]interface{}{
			"workflow_id": wf.ID(),
		})
		s.ui.PrintErrors([]checkoutapi.ErrorEntry{{Message: err.Error()}})
		if terr := wf.finish(AddFailed, err); terr != nil {
			logger.Error("Failed to fail add workflow", terr)
		}
		return
	}

	if err := wf.transition(AddResubmitting); err != nil {
		logger.Error("Failed to resubmit add workflow", err)
		return
	}
	if _, err := s.submitAdd(ctx, wf, merged, true); err != nil {
		logger.Warn("Add with order params failed", map[string]interface{}{
			"workflow_id": wf.ID(),
			"error":       err.Error(),
		})
	}
}

func (s *basketService) failAdd(wf *AddWorkflow, tf *TransportFailure) (Result, error) {
	s.ui.PrintErrors(tf.Entries)
	if err := wf.finish(AddFailed, tf); err != nil {
		logger.Error("Failed to fail add workflow", err)
	}
	logger.Error("Failed to add basket item", tf, map[string]interface{}{
		"workflow_id": wf.ID(),
	})
	return Result{Outcome: OutcomeFailed, Workflow: wf}, tf
}

// RemoveItem deletes a basket item, asking for confirmation first unless
// forceDelete is set. Dismissing the prompt restores the displayed quantity.
func (s *basketService) RemoveItem(ctx context.Context, itemID int, forceDelete bool) (Result, error) {
	item, idx := s.checkout.GetCheckout().FindItem(itemID)
	if idx < 0 {
		logger.Warn("Basket item not found in snapshot", map[string]interface{}{
			"item_id": itemID,
		})
		return Result{Outcome: OutcomeNoop}, nil
	}

	if forceDelete {
		return s.deleteItem(ctx, itemID)
	}

	originalQuantity := item.Quantity
	cont := context.WithoutCancel(ctx)
	gate := confirm.Prepare(s.renderer).
		SetTitle(removeTitle).
		SetContent(fmt.Sprintf(removeContent, html.EscapeString(item.DisplayName()))).
		SetLabelConfirm(removeLabel).
		OnDismiss(func() {
			s.ui.SetQuantityDisplay(itemID, originalQuantity)
			logger.Info("Basket item removal cancelled", map[string]interface{}{
				"item_id": itemID,
			})
		}).
		OnConfirm(func() {
			if _, err := s.deleteItem(cont, itemID); err != nil {
				logger.Warn("Confirmed basket item removal failed", map[string]interface{}{
					"item_id": itemID,
					"error":   err.Error(),
				})
			}
		})

	if err := gate.Show(ctx); err != nil {
		logger.Error("Failed to show removal prompt", err, map[string]interface{}{
			"item_id": itemID,
		})
		return Result{Outcome: OutcomeFailed}, fmt.Errorf("failed to show removal prompt: %w", err)
	}
	return Result{Outcome: OutcomeAwaitingInput, Gate: gate}, nil
}

func (s *basketService) deleteItem(ctx context.Context, itemID int) (Result, error) {
	logger.Info("Removing basket item", map[string]interface{}{
		"item_id": itemID,
	})

	s.ui.ShowWaitIndicator()
	path := fmt.Sprintf("%s?basketItemIdsList[0]=%d", checkoutapi.PathBasketItems, itemID)
	if err := s.transport.Delete(ctx, path, nil); err != nil {
		return s.fail("remove basket item", err)
	}

	if err := s.checkout.LoadCheckout(ctx); err != nil {
		logger.Error("Failed to reload checkout after removal", err, map[string]interface{}{
			"item_id": itemID,
		})
	}
	s.ui.RemoveItemRow(itemID)

	if len(s.checkout.GetCheckout().Items) == 0 {
		if err := s.checkout.ReloadCatContent(ctx, s.views.BasketCategoryID); err != nil {
			logger.Warn("Failed to reload empty basket view", map[string]interface{}{
				"category_id": s.views.BasketCategoryID,
			})
		}
	} else if err := s.checkout.ReloadContainer(ctx, s.views.TotalsContainer); err != nil {
		logger.Warn("Failed to reload totals view", map[string]interface{}{
			"container": s.views.TotalsContainer,
		})
	}

	s.refreshBasketPreview(ctx)
	s.ui.HideWaitIndicator()

	logger.Info("Basket item removed", map[string]interface{}{
		"item_id": itemID,
	})
	return Result{Outcome: OutcomeSucceeded}, nil
}

// SetItemQuantity writes the new quantity into the snapshot before the
// server confirms it and sends the whole item list. Quantities of zero or
// less go through RemoveItem instead. Two quick edits of the same item may
// be applied by the server in either order.
func (s *basketService) SetItemQuantity(ctx context.Context, itemID, newQuantity int) (Result, error) {
	if newQuantity <= 0 {
		return s.RemoveItem(ctx, itemID, false)
	}

	item, idx := s.checkout.GetCheckout().FindItem(itemID)
	if idx < 0 {
		logger.Warn("Basket item not found in snapshot", map[string]interface{}{
			"item_id": itemID,
		})
		return Result{Outcome: OutcomeNoop}, nil
	}
	if item.Quantity == newQuantity {
		return Result{Outcome: OutcomeNoop}, nil
	}

	logger.Info("Updating basket item quantity", map[string]interface{}{
		"item_id": itemID,
		"old_qty": item.Quantity,
		"new_qty": newQuantity,
	})

	previous, _ := s.checkout.SetItemQuantity(itemID, newQuantity)
	items := s.checkout.GetCheckout().Items

	s.ui.ShowWaitIndicator()
	if err := s.transport.Post(ctx, checkoutapi.PathBasketItems, items, false); err != nil {
		s.revertQuantity(itemID, newQuantity, previous)
		return s.fail("set basket item quantity", err)
	}

	if err := s.checkout.SetCheckout(ctx); err != nil {
		logger.Error("Failed to sync checkout after quantity change", err, map[string]interface{}{
			"item_id": itemID,
		})
	}
	if err := s.checkout.ReloadContainer(ctx, s.views.TotalsContainer); err != nil {
		logger.Warn("Failed to reload totals view", map[string]interface{}{
			"container": s.views.TotalsContainer,
		})
	}

	var priceTotal float64
	if updated, idx := s.checkout.GetCheckout().FindItem(itemID); idx >= 0 {
		priceTotal = updated.PriceTotal
	}
	s.ui.SetPriceTotalDisplay(itemID, priceTotal)

	s.refreshBasketPreview(ctx)
	s.ui.HideWaitIndicator()

	logger.Info("Basket item quantity updated", map[string]interface{}{
		"item_id":     itemID,
		"price_total": priceTotal,
	})
	return Result{Outcome: OutcomeSucceeded}, nil
}

// revertQuantity undoes an optimistic write unless a later edit replaced it.
func (s *basketService) revertQuantity(itemID, optimistic, previous int) {
	current, idx := s.checkout.GetCheckout().FindItem(itemID)
	if idx < 0 || current.Quantity != optimistic {
		return
	}
	s.checkout.SetItemQuantity(itemID, previous)
	s.ui.SetQuantityDisplay(itemID, previous)
}

// AddCoupon applies the coupon code read from input.
func (s *basketService) AddCoupon(ctx context.Context, input Input) (Result, error) {
	code := strings.TrimSpace(input.CouponCode())
	logger.Info("Adding coupon", map[string]interface{}{
		"coupon_code": code,
	})

	s.ui.ShowWaitIndicator()
	if err := s.transport.Post(ctx, checkoutapi.PathCoupon, model.CouponRequest{Code: code}, false); err != nil {
		return s.fail("add coupon", err)
	}

	if err := s.checkout.SetCheckout(ctx); err != nil {
		logger.Error("Failed to sync checkout after adding coupon", err)
	}
	s.reloadCouponViews(ctx)
	s.refreshBasketPreview(ctx)
	s.ui.HideWaitIndicator()

	logger.Info("Coupon added", map[string]interface{}{
		"coupon_code": code,
	})
	return Result{Outcome: OutcomeSucceeded}, nil
}

// RemoveCoupon removes the active coupon. Without one it does nothing.
func (s *basketService) RemoveCoupon(ctx context.Context) (Result, error) {
	code := s.checkout.GetCheckout().ActiveCouponCode()
	if code == "" {
		logger.Debug("No active coupon to remove", nil)
		return Result{Outcome: OutcomeNoop}, nil
	}

	logger.Info("Removing coupon", map[string]interface{}{
		"coupon_code": code,
	})

	s.ui.ShowWaitIndicator()
	if err := s.transport.Delete(ctx, checkoutapi.PathCoupon, model.CouponRequest{Code: code}); err != nil {
		return s.fail("remove coupon", err)
	}

	if err := s.checkout.SetCheckout(ctx); err != nil {
		logger.Error("Failed to sync checkout after removing coupon", err)
	}
	s.checkout.ClearCoupon()
	s.reloadCouponViews(ctx)
	s.refreshBasketPreview(ctx)
	s.ui.HideWaitIndicator()

	logger.Info("Coupon removed", map[string]interface{}{
		"coupon_code": code,
	})
	return Result{Outcome: OutcomeSucceeded}, nil
}

// reloadCouponViews refreshes the coupon container and the confirmation
// category together and returns once both are done.
func (s *basketService) reloadCouponViews(ctx context.Context) {
	var g errgroup.Group
	g.Go(func() error {
		return s.checkout.ReloadContainer(ctx, s.views.CouponContainer)
	})
	g.Go(func() error {
		return s.checkout.ReloadCatContent(ctx, s.views.CheckoutConfirmCategoryID)
	})
	if err := g.Wait(); err != nil {
		logger.Warn("Failed to reload coupon views", map[string]interface{}{
			"error": err.Error(),
		})
	}
}

// refreshBasketPreview is the UI refresh signal fired after every
// state-changing operation.
func (s *basketService) refreshBasketPreview(ctx context.Context) {
	if err := s.checkout.ReloadItemContainer(ctx, s.views.PreviewContainer); err != nil {
		logger.Warn("Failed to reload basket preview", map[string]interface{}{
			"container": s.views.PreviewContainer,
		})
	}
	s.ui.UpdateBasketPreview(model.PreviewOf(s.checkout.GetCheckout()))
}

func (s *basketService) fail(op string, err error) (Result, error) {
	tf := &TransportFailure{Op: op, Entries: checkoutapi.Entries(err), Err: err}
	s.ui.HideWaitIndicator()
	s.ui.PrintErrors(tf.Entries)
	logger.Error("Checkout API call failed", tf, map[string]interface{}{
		"op": op,
	})
	return Result{Outcome: OutcomeFailed}, tf
}
