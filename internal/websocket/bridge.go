package websocket

import (
	"context"

	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/internal/confirm"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

const (
	EventWaitIndicator = "wait_indicator"
	EventErrors        = "errors"
	EventQuantity      = "item_quantity"
	EventPriceTotal    = "item_price_total"
	EventItemRemoved   = "item_removed"
	EventBasketPreview = "basket_preview"
	EventGate          = "gate"
	EventContainer     = "container"
	EventItemContainer = "item_container"
	EventCategory      = "category"
)

// Publisher delivers events to UI sessions.
type Publisher interface {
	Broadcast(event Event) error
}

// GatePayload is the rendered form of a confirmation gate.
type GatePayload struct {
	ID           string `json:"id"`
	Title        string `json:"title,omitempty"`
	Content      string `json:"content,omitempty"`
	Template     string `json:"template,omitempty"`
	LabelConfirm string `json:"label_confirm,omitempty"`
	TimeoutMS    int64  `json:"timeout_ms,omitempty"`
}

// Bridge turns engine notifications into UI events.
type Bridge struct {
	pub Publisher
}

func NewBridge(pub Publisher) *Bridge {
	return &Bridge{pub: pub}
}

func (b *Bridge) publish(eventType string, payload interface{}) {
	if err := b.pub.Broadcast(Event{Type: eventType, Payload: payload}); err != nil {
		logger.Warn("Failed to publish UI event", map[string]interface{}{
			"type":  eventType,
			"error": err.Error(),
		})
	}
}

func (b *Bridge) ShowWaitIndicator() {
	b.publish(EventWaitIndicator, map[string]bool{"visible": true})
}

func (b *Bridge) HideWaitIndicator() {
	b.publish(EventWaitIndicator, map[string]bool{"visible": false})
}

func (b *Bridge) PrintErrors(entries []checkoutapi.ErrorEntry) {
	b.publish(EventErrors, entries)
}

func (b *Bridge) SetQuantityDisplay(itemID, quantity int) {
	b.publish(EventQuantity, map[string]int{"item_id": itemID, "quantity": quantity})
}

func (b *Bridge) SetPriceTotalDisplay(itemID int, priceTotal float64) {
	b.publish(EventPriceTotal, map[string]interface{}{"item_id": itemID, "price_total": priceTotal})
}

func (b *Bridge) RemoveItemRow(itemID int) {
	b.publish(EventItemRemoved, map[string]int{"item_id": itemID})
}

func (b *Bridge) UpdateBasketPreview(preview model.BasketPreview) {
	b.publish(EventBasketPreview, preview)
}

// Render publishes the gate. The UI answers through the gate endpoints or a
// gate_confirm/gate_dismiss socket message.
func (b *Bridge) Render(_ context.Context, g *confirm.Gate) error {
	return b.pub.Broadcast(Event{Type: EventGate, Payload: GatePayload{
		ID:           g.ID(),
		Title:        g.Title(),
		Content:      g.Content(),
		Template:     g.Template(),
		LabelConfirm: g.LabelConfirm(),
		TimeoutMS:    g.Timeout().Milliseconds(),
	}})
}

func (b *Bridge) ReplaceContainer(name, html string) {
	b.publish(EventContainer, map[string]string{"name": name, "html": html})
}

func (b *Bridge) ReplaceItemContainer(name, html string) {
	b.publish(EventItemContainer, map[string]string{"name": name, "html": html})
}

func (b *Bridge) ReplaceCategoryContent(categoryID int, html string) {
	b.publish(EventCategory, map[string]interface{}{"category_id": categoryID, "html": html})
}
