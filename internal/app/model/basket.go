package model

// OrderParamValue is one variant selection attached to a basket item.
// ParamGroupID is local bookkeeping and is not sent to the checkout API.
type OrderParamValue struct {
	ParamGroupID string `json:"-"`
	ParamID      string `json:"BasketItemOrderParamID"`
	Value        string `json:"BasketItemOrderParamValue"`
}

// BasketItem is one line of the basket. ID is zero until the checkout API
// has persisted the item.
type BasketItem struct {
	ID              int               `json:"BasketItemID,omitempty"`
	ItemReferenceID int               `json:"BasketItemItemID"`
	Quantity        int               `json:"BasketItemQuantity"`
	OrderParams     []OrderParamValue `json:"BasketItemOrderParamsList,omitempty"`
	PriceTotal      float64           `json:"BasketItemPriceTotal,omitempty"`
	NameMap         map[string]string `json:"BasketItemNameMap,omitempty"`
}

// DisplayName returns the primary item name used in prompts.
func (i BasketItem) DisplayName() string {
	if name, ok := i.NameMap["1"]; ok {
		return name
	}
	for _, name := range i.NameMap {
		return name
	}
	return ""
}

// Clone returns a deep copy of the item.
func (i BasketItem) Clone() BasketItem {
	out := i
	if i.OrderParams != nil {
		out.OrderParams = make([]OrderParamValue, len(i.OrderParams))
		copy(out.OrderParams, i.OrderParams)
	}
	if i.NameMap != nil {
		out.NameMap = make(map[string]string, len(i.NameMap))
		for k, v := range i.NameMap {
			out.NameMap[k] = v
		}
	}
	return out
}

// PendingBasketMutation is the payload of one add call. Entry 0 is the
// canonical item and every later entry is a variant expansion of it.
type PendingBasketMutation []BasketItem

// Clone returns a deep copy of the mutation.
func (m PendingBasketMutation) Clone() PendingBasketMutation {
	if m == nil {
		return nil
	}
	out := make(PendingBasketMutation, len(m))
	for i, item := range m {
		out[i] = item.Clone()
	}
	return out
}

type Totals struct {
	ItemSum float64 `json:"TotalsItemSum"`
}

type Coupon struct {
	Code string `json:"CouponActiveCouponCode"`
}

// BasketSnapshot is the last basket state fetched from the checkout API.
type BasketSnapshot struct {
	Items  []BasketItem `json:"BasketItemsList"`
	Totals Totals       `json:"Totals"`
	Coupon *Coupon      `json:"Coupon,omitempty"`
}

// FindItem returns the position of the item with the given id, or -1.
func (s BasketSnapshot) FindItem(itemID int) (BasketItem, int) {
	for i, item := range s.Items {
		if item.ID == itemID {
			return item, i
		}
	}
	return BasketItem{}, -1
}

// ActiveCouponCode returns the applied coupon code or "".
func (s BasketSnapshot) ActiveCouponCode() string {
	if s.Coupon == nil {
		return ""
	}
	return s.Coupon.Code
}

func (s BasketSnapshot) Clone() BasketSnapshot {
	out := BasketSnapshot{Totals: s.Totals}
	if s.Items != nil {
		out.Items = make([]BasketItem, len(s.Items))
		for i, item := range s.Items {
			out.Items[i] = item.Clone()
		}
	}
	if s.Coupon != nil {
		c := *s.Coupon
		out.Coupon = &c
	}
	return out
}

// BasketPreview is the summary shown by the basket preview widget.
type BasketPreview struct {
	ItemQuantityTotal int     `json:"item_quantity_total"`
	TotalsItemSum     float64 `json:"totals_item_sum"`
	Empty             bool    `json:"empty"`
}

func PreviewOf(s BasketSnapshot) BasketPreview {
	preview := BasketPreview{
		TotalsItemSum: s.Totals.ItemSum,
		Empty:         len(s.Items) == 0,
	}
	for _, item := range s.Items {
		preview.ItemQuantityTotal += item.Quantity
	}
	return preview
}

// CouponRequest is the body of the coupon endpoints.
type CouponRequest struct {
	Code string `json:"CouponActiveCouponCode"`
}
