// Package checkout owns the cached basket snapshot and the named view
// reloads that follow a state change.
package checkout

import (
	"context"
	"fmt"
	"sync"

	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/pkg/logger"
)

// Source is the authoritative checkout document.
type Source interface {
	GetCheckout(ctx context.Context) (*model.BasketSnapshot, error)
	PutCheckout(ctx context.Context, items []model.BasketItem) error
}

// ContentSource renders named containers and categories.
type ContentSource interface {
	GetContainer(ctx context.Context, name, query string) (string, error)
	GetCategoryContent(ctx context.Context, categoryID int) (string, error)
}

// ViewSink receives freshly rendered view content.
type ViewSink interface {
	ReplaceContainer(name, html string)
	ReplaceItemContainer(name, html string)
	ReplaceCategoryContent(categoryID int, html string)
}

// Cache holds the last basket snapshot. Every reload overwrites it, so when
// reloads overlap the last response to arrive wins.
type Cache struct {
	source  Source
	content ContentSource
	views   ViewSink
	store   SnapshotStore

	mu       sync.RWMutex
	snapshot model.BasketSnapshot
}

func NewCache(source Source, content ContentSource, views ViewSink, store SnapshotStore) *Cache {
	if store == nil {
		store = NewMemorySnapshotStore()
	}
	return &Cache{
		source:  source,
		content: content,
		views:   views,
		store:   store,
	}
}

// GetCheckout returns a copy of the current snapshot.
func (c *Cache) GetCheckout() model.BasketSnapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot.Clone()
}

// LoadCheckout replaces the snapshot with the authoritative one.
func (c *Cache) LoadCheckout(ctx context.Context) error {
	snap, err := c.source.GetCheckout(ctx)
	if err != nil {
		logger.Error("Failed to load checkout", err)
		return err
	}

	c.replace(*snap)

	if err := c.store.Save(ctx, *snap); err != nil {
		logger.Warn("Failed to mirror checkout snapshot", map[string]interface{}{
			"error": err.Error(),
		})
	}

	logger.Debug("Checkout loaded", map[string]interface{}{
		"items":    len(snap.Items),
		"item_sum": snap.Totals.ItemSum,
	})
	return nil
}

// SetCheckout pushes the local item list and then reloads.
func (c *Cache) SetCheckout(ctx context.Context) error {
	items := c.GetCheckout().Items
	if err := c.source.PutCheckout(ctx, items); err != nil {
		logger.Error("Failed to push checkout", err, map[string]interface{}{
			"items": len(items),
		})
		return err
	}
	return c.LoadCheckout(ctx)
}

// Warm seeds the snapshot from the store, if it holds one.
func (c *Cache) Warm(ctx context.Context) error {
	snap, ok, err := c.store.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to warm checkout cache: %w", err)
	}
	if !ok {
		return nil
	}
	c.replace(snap)
	logger.Info("Checkout cache warmed from store", map[string]interface{}{
		"items": len(snap.Items),
	})
	return nil
}

// SetItemQuantity writes quantity into the cached item ahead of server
// confirmation. It returns the previous quantity, or false if the item is
// not in the snapshot.
func (c *Cache) SetItemQuantity(itemID, quantity int) (int, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.snapshot.Items {
		if c.snapshot.Items[i].ID == itemID {
			prev := c.snapshot.Items[i].Quantity
			c.snapshot.Items[i].Quantity = quantity
			return prev, true
		}
	}
	return 0, false
}

// ClearCoupon drops the coupon from the cached snapshot.
func (c *Cache) ClearCoupon() {
	c.mu.Lock()
	c.snapshot.Coupon = nil
	c.mu.Unlock()
}

func (c *Cache) ReloadContainer(ctx context.Context, name string) error {
	html, err := c.content.GetContainer(ctx, name, "")
	if err != nil {
		logger.Error("Failed to reload container", err, map[string]interface{}{
			"container": name,
		})
		return err
	}
	c.views.ReplaceContainer(name, html)
	return nil
}

func (c *Cache) ReloadItemContainer(ctx context.Context, name string) error {
	html, err := c.content.GetContainer(ctx, name, "")
	if err != nil {
		logger.Error("Failed to reload item container", err, map[string]interface{}{
			"container": name,
		})
		return err
	}
	c.views.ReplaceItemContainer(name, html)
	return nil
}

func (c *Cache) ReloadCatContent(ctx context.Context, categoryID int) error {
	html, err := c.content.GetCategoryContent(ctx, categoryID)
	if err != nil {
		logger.Error("Failed to reload category content", err, map[string]interface{}{
			"category_id": categoryID,
		})
		return err
	}
	c.views.ReplaceCategoryContent(categoryID, html)
	return nil
}

func (c *Cache) replace(snap model.BasketSnapshot) {
	c.mu.Lock()
	c.snapshot = snap.Clone()
	c.mu.Unlock()
}
