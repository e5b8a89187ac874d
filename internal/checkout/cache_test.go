package checkout

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeSource struct {
	snap   model.BasketSnapshot
	getErr error
	putErr error
	puts   [][]model.BasketItem
	gets   int
}

func (f *fakeSource) GetCheckout(context.Context) (*model.BasketSnapshot, error) {
	f.gets++
	if f.getErr != nil {
		return nil, f.getErr
	}
	s := f.snap.Clone()
	return &s, nil
}

func (f *fakeSource) PutCheckout(_ context.Context, items []model.BasketItem) error {
	f.puts = append(f.puts, items)
	return f.putErr
}

type fakeContent struct {
	err error
}

func (f *fakeContent) GetContainer(_ context.Context, name, _ string) (string, error) {
	return "<div>" + name + "</div>", f.err
}

func (f *fakeContent) GetCategoryContent(context.Context, int) (string, error) {
	return "<main>category</main>", f.err
}

type fakeViews struct {
	replaced []string
}

func (f *fakeViews) ReplaceContainer(name, _ string) {
	f.replaced = append(f.replaced, "container:"+name)
}
func (f *fakeViews) ReplaceItemContainer(name, _ string) {
	f.replaced = append(f.replaced, "item:"+name)
}
func (f *fakeViews) ReplaceCategoryContent(int, string) { f.replaced = append(f.replaced, "category") }

func basketSnapshot() model.BasketSnapshot {
	return model.BasketSnapshot{
		Items:  []model.BasketItem{{ID: 5, ItemReferenceID: 42, Quantity: 2, PriceTotal: 20}},
		Totals: model.Totals{ItemSum: 20},
		Coupon: &model.Coupon{Code: "SPRING"},
	}
}

func TestCache_LoadCheckoutReplacesAndMirrors(t *testing.T) {
	source := &fakeSource{snap: basketSnapshot()}
	store := NewMemorySnapshotStore()
	cache := NewCache(source, &fakeContent{}, &fakeViews{}, store)

	require.NoError(t, cache.LoadCheckout(context.Background()))

	snap := cache.GetCheckout()
	require.Len(t, snap.Items, 1)
	assert.Equal(t, "SPRING", snap.ActiveCouponCode())

	mirrored, ok, err := store.Load(context.Background())
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, snap, mirrored)
}

func TestCache_LoadCheckoutFailureKeepsSnapshot(t *testing.T) {
	source := &fakeSource{snap: basketSnapshot()}
	cache := NewCache(source, &fakeContent{}, &fakeViews{}, nil)
	require.NoError(t, cache.LoadCheckout(context.Background()))

	source.getErr = errors.New("boom")
	assert.Error(t, cache.LoadCheckout(context.Background()))
	assert.Len(t, cache.GetCheckout().Items, 1)
}

func TestCache_GetCheckoutReturnsCopy(t *testing.T) {
	cache := NewCache(&fakeSource{snap: basketSnapshot()}, &fakeContent{}, &fakeViews{}, nil)
	require.NoError(t, cache.LoadCheckout(context.Background()))

	snap := cache.GetCheckout()
	snap.Items[0].Quantity = 99
	snap.Coupon.Code = "OTHER"

	fresh := cache.GetCheckout()
	assert.Equal(t, 2, fresh.Items[0].Quantity)
	assert.Equal(t, "SPRING", fresh.ActiveCouponCode())
}

func TestCache_SetItemQuantityAndClearCoupon(t *testing.T) {
	cache := NewCache(&fakeSource{snap: basketSnapshot()}, &fakeContent{}, &fakeViews{}, nil)
	require.NoError(t, cache.LoadCheckout(context.Background()))

	prev, ok := cache.SetItemQuantity(5, 4)
	assert.True(t, ok)
	assert.Equal(t, 2, prev)
	assert.Equal(t, 4, cache.GetCheckout().Items[0].Quantity)

	_, ok = cache.SetItemQuantity(99, 1)
	assert.False(t, ok)

	cache.ClearCoupon()
	assert.Nil(t, cache.GetCheckout().Coupon)
}

func TestCache_SetCheckoutPushesThenReloads(t *testing.T) {
	source := &fakeSource{snap: basketSnapshot()}
	cache := NewCache(source, &fakeContent{}, &fakeViews{}, nil)
	require.NoError(t, cache.LoadCheckout(context.Background()))
	cache.SetItemQuantity(5, 3)

	source.snap.Items[0].Quantity = 3
	source.snap.Items[0].PriceTotal = 30
	require.NoError(t, cache.SetCheckout(context.Background()))

	require.Len(t, source.puts, 1)
	assert.Equal(t, 3, source.puts[0][0].Quantity)
	assert.Equal(t, 2, source.gets)
	assert.Equal(t, float64(30), cache.GetCheckout().Items[0].PriceTotal)
}

func TestCache_SetCheckoutPushFailureSkipsReload(t *testing.T) {
	source := &fakeSource{snap: basketSnapshot(), putErr: errors.New("rejected")}
	cache := NewCache(source, &fakeContent{}, &fakeViews{}, nil)

	assert.Error(t, cache.SetCheckout(context.Background()))
	assert.Equal(t, 0, source.gets)
}

func TestCache_Reloads(t *testing.T) {
	views := &fakeViews{}
	cache := NewCache(&fakeSource{}, &fakeContent{}, views, nil)
	ctx := context.Background()

	require.NoError(t, cache.ReloadContainer(ctx, "Totals"))
	require.NoError(t, cache.ReloadItemContainer(ctx, "BasketPreviewList"))
	require.NoError(t, cache.ReloadCatContent(ctx, 12))

	assert.Equal(t, []string{"container:Totals", "item:BasketPreviewList", "category"}, views.replaced)
}

func TestCache_ReloadFailureLeavesViews(t *testing.T) {
	views := &fakeViews{}
	cache := NewCache(&fakeSource{}, &fakeContent{err: errors.New("cms down")}, views, nil)

	assert.Error(t, cache.ReloadContainer(context.Background(), "Totals"))
	assert.Empty(t, views.replaced)
}

func TestCache_Warm(t *testing.T) {
	store := NewMemorySnapshotStore()
	cache := NewCache(&fakeSource{}, &fakeContent{}, &fakeViews{}, store)

	require.NoError(t, cache.Warm(context.Background()))
	assert.Empty(t, cache.GetCheckout().Items)

	require.NoError(t, store.Save(context.Background(), basketSnapshot()))
	require.NoError(t, cache.Warm(context.Background()))
	assert.Len(t, cache.GetCheckout().Items, 1)
}

func TestRedisSnapshotStore_RoundTrip(t *testing.T) {
	addr := os.Getenv("REDIS_TEST_ADDR")
	if addr == "" {
		t.Skip("REDIS_TEST_ADDR not set")
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	t.Cleanup(func() { client.Close() })

	ctx := context.Background()
	key := "basket:snapshot:test"
	t.Cleanup(func() { client.Del(ctx, key) })

	store := NewRedisSnapshotStore(client, key, time.Minute)

	_, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Save(ctx, basketSnapshot()))
	snap, ok, err := store.Load(ctx)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "SPRING", snap.ActiveCouponCode())
}
