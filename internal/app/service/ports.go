package service

import (
	"context"

	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
)

// Transport sends basket mutations to the checkout API. Failures carrying an
// error stack are returned as *checkoutapi.StructuredError.
type Transport interface {
	Post(ctx context.Context, path string, body interface{}, isMultipart bool) error
	Delete(ctx context.Context, path string, body interface{}) error
}

// CheckoutState is the snapshot cache the engine reads and refreshes.
type CheckoutState interface {
	GetCheckout() model.BasketSnapshot
	LoadCheckout(ctx context.Context) error
	SetCheckout(ctx context.Context) error
	SetItemQuantity(itemID, quantity int) (int, bool)
	ClearCoupon()
	ReloadContainer(ctx context.Context, name string) error
	ReloadItemContainer(ctx context.Context, name string) error
	ReloadCatContent(ctx context.Context, categoryID int) error
}

// Overlay fetches rendered overlay templates.
type Overlay interface {
	GetContainer(ctx context.Context, name, query string) (string, error)
}

// UI receives notifications about in-flight work and display updates.
type UI interface {
	ShowWaitIndicator()
	HideWaitIndicator()
	PrintErrors(entries []checkoutapi.ErrorEntry)
	SetQuantityDisplay(itemID, quantity int)
	SetPriceTotalDisplay(itemID int, priceTotal float64)
	RemoveItemRow(itemID int)
	UpdateBasketPreview(preview model.BasketPreview)
}

// Input supplies the coupon code the user typed into the UI. It is scoped to
// one call so concurrent requests never read each other's input.
type Input interface {
	CouponCode() string
}

// CouponInput is the coupon code submitted with a single request.
type CouponInput string

func (c CouponInput) CouponCode() string { return string(c) }
