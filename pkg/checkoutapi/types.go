package checkoutapi

import "github.com/ikkim/udonggeum-basket/internal/app/model"

const (
	// PathBasketItems is the upsert and delete endpoint for basket items
	PathBasketItems = "/basketitemslist/"

	// PathCoupon is the coupon endpoint
	PathCoupon = "/coupon/"

	// PathCheckout is the checkout document itself
	PathCheckout = "/"
)

// CodeMissingOrderParams is the first-entry code returned by the add-item
// endpoint when the item needs order parameters.
const CodeMissingOrderParams = 100

// ContainerResponse is the body returned by the CMS container endpoints.
type ContainerResponse struct {
	Data []string `json:"data"`
}

// CheckoutResponse wraps the checkout document.
type CheckoutResponse struct {
	Data model.BasketSnapshot `json:"data"`
}

// CheckoutUpdate is the body pushed by PutCheckout.
type CheckoutUpdate struct {
	Items []model.BasketItem `json:"BasketItemsList"`
}
