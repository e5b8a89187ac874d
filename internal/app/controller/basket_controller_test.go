package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/internal/app/model"
	"github.com/ikkim/udonggeum-basket/internal/app/service"
	"github.com/ikkim/udonggeum-basket/internal/errors"
	"github.com/ikkim/udonggeum-basket/pkg/checkoutapi"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBasketService struct {
	snap model.BasketSnapshot
	res  service.Result
	err  error

	added    model.PendingBasketMutation
	quantity map[int]int
	removed  map[int]bool
	coupons  int
	code     string
}

func newFakeBasketService() *fakeBasketService {
	return &fakeBasketService{
		snap:     model.BasketSnapshot{Items: []model.BasketItem{{ID: 5, ItemReferenceID: 42, Quantity: 2}}},
		res:      service.Result{Outcome: service.OutcomeSucceeded},
		quantity: map[int]int{},
		removed:  map[int]bool{},
	}
}

func (f *fakeBasketService) AddItem(_ context.Context, m model.PendingBasketMutation, _ bool) (service.Result, error) {
	f.added = m
	return f.res, f.err
}

func (f *fakeBasketService) RemoveItem(_ context.Context, id int, force bool) (service.Result, error) {
	f.removed[id] = force
	return f.res, f.err
}

func (f *fakeBasketService) SetItemQuantity(_ context.Context, id, q int) (service.Result, error) {
	f.quantity[id] = q
	return f.res, f.err
}

func (f *fakeBasketService) AddCoupon(_ context.Context, input service.Input) (service.Result, error) {
	f.coupons++
	f.code = input.CouponCode()
	return f.res, f.err
}

func (f *fakeBasketService) RemoveCoupon(context.Context) (service.Result, error) {
	f.coupons--
	return f.res, f.err
}

func (f *fakeBasketService) Checkout() model.BasketSnapshot { return f.snap.Clone() }

func setupBasketControllerTest() (*fakeBasketService, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	svc := newFakeBasketService()
	ctrl := NewBasketController(svc)

	router := gin.New()
	router.GET("/basket", ctrl.GetBasket)
	router.POST("/basket/items", ctrl.AddItem)
	router.PUT("/basket/items/:id", ctrl.UpdateQuantity)
	router.DELETE("/basket/items/:id", ctrl.RemoveItem)
	router.POST("/basket/coupon", ctrl.AddCoupon)
	router.DELETE("/basket/coupon", ctrl.RemoveCoupon)
	return svc, router
}

func doJSON(router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func TestBasketController_GetBasket(t *testing.T) {
	_, router := setupBasketControllerTest()

	w := doJSON(router, http.MethodGet, "/basket", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Basket  model.BasketSnapshot `json:"basket"`
		Preview model.BasketPreview  `json:"preview"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Basket.Items, 1)
	assert.Equal(t, 2, resp.Preview.ItemQuantityTotal)
}

func TestBasketController_AddItem(t *testing.T) {
	svc, router := setupBasketControllerTest()

	w := doJSON(router, http.MethodPost, "/basket/items", AddItemRequest{Items: []BasketItemRequest{
		{ItemID: 42, Quantity: 2},
		{ItemID: 42, Quantity: 1},
	}})
	require.Equal(t, http.StatusOK, w.Code)

	require.Len(t, svc.added, 2)
	assert.Equal(t, 42, svc.added[0].ItemReferenceID)
	assert.Equal(t, 2, svc.added[0].Quantity)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.OutcomeSucceeded, resp.Outcome)
}

func TestBasketController_AddItem_InvalidRequest(t *testing.T) {
	svc, router := setupBasketControllerTest()

	w := doJSON(router, http.MethodPost, "/basket/items", AddItemRequest{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Nil(t, svc.added)

	w = doJSON(router, http.MethodPost, "/basket/items", AddItemRequest{Items: []BasketItemRequest{{ItemID: 42}}})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBasketController_AddItem_Rejected(t *testing.T) {
	svc, router := setupBasketControllerTest()
	stack := &checkoutapi.StructuredError{StatusCode: 400, Stack: []checkoutapi.ErrorEntry{{Code: 5, Message: "out of stock"}}}
	svc.res = service.Result{Outcome: service.OutcomeFailed}
	svc.err = &service.TransportFailure{Op: "add basket item", Entries: stack.Stack, Err: stack}

	w := doJSON(router, http.MethodPost, "/basket/items", AddItemRequest{Items: []BasketItemRequest{{ItemID: 42, Quantity: 1}}})
	require.Equal(t, http.StatusUnprocessableEntity, w.Code)

	var resp errors.ErrorResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, errors.BasketCheckoutRejected, resp.Error)
	require.Len(t, resp.Entries, 1)
	assert.Equal(t, "out of stock", resp.Entries[0].Message)
}

func TestBasketController_AddItem_Unreachable(t *testing.T) {
	svc, router := setupBasketControllerTest()
	svc.err = &service.TransportFailure{Op: "add basket item", Err: checkoutapi.ErrNetworkError}

	w := doJSON(router, http.MethodPost, "/basket/items", AddItemRequest{Items: []BasketItemRequest{{ItemID: 42, Quantity: 1}}})
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestBasketController_UpdateQuantity(t *testing.T) {
	svc, router := setupBasketControllerTest()

	w := doJSON(router, http.MethodPut, "/basket/items/5", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.quantity[5])

	w = doJSON(router, http.MethodPut, "/basket/items/5", map[string]int{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBasketController_MissingItemIsLeftToEngine(t *testing.T) {
	svc, router := setupBasketControllerTest()
	svc.res = service.Result{Outcome: service.OutcomeNoop}

	w := doJSON(router, http.MethodDelete, "/basket/items/99", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, svc.removed, 99)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.OutcomeNoop, resp.Outcome)

	w = doJSON(router, http.MethodPut, "/basket/items/99", map[string]int{"quantity": 0})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, svc.quantity, 99)

	w = doJSON(router, http.MethodDelete, "/basket/items/abc", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestBasketController_RemoveItem_AwaitingConfirmation(t *testing.T) {
	svc, router := setupBasketControllerTest()
	svc.res = service.Result{Outcome: service.OutcomeAwaitingInput}

	w := doJSON(router, http.MethodDelete, "/basket/items/5", nil)
	assert.Equal(t, http.StatusAccepted, w.Code)
	assert.False(t, svc.removed[5])

	svc.res = service.Result{Outcome: service.OutcomeSucceeded}
	w = doJSON(router, http.MethodDelete, "/basket/items/5?force=true", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.True(t, svc.removed[5])
}

func TestBasketController_Coupon(t *testing.T) {
	svc, router := setupBasketControllerTest()

	w := doJSON(router, http.MethodPost, "/basket/coupon", AddCouponRequest{Code: "SPRING"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "SPRING", svc.code)
	assert.Equal(t, 1, svc.coupons)

	w = doJSON(router, http.MethodPost, "/basket/coupon", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, 1, svc.coupons)

	svc.res = service.Result{Outcome: service.OutcomeNoop}
	w = doJSON(router, http.MethodDelete, "/basket/coupon", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, 0, svc.coupons)

	var resp ResultResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, service.OutcomeNoop, resp.Outcome)
}

// blockingCouponService holds every AddCoupon call until release is closed,
// then reads the code it was given.
type blockingCouponService struct {
	service.BasketService
	arrived chan struct{}
	release chan struct{}

	mu    sync.Mutex
	codes []string
}

func (b *blockingCouponService) AddCoupon(_ context.Context, input service.Input) (service.Result, error) {
	b.arrived <- struct{}{}
	<-b.release
	b.mu.Lock()
	b.codes = append(b.codes, input.CouponCode())
	b.mu.Unlock()
	return service.Result{Outcome: service.OutcomeSucceeded}, nil
}

func (b *blockingCouponService) Checkout() model.BasketSnapshot { return model.BasketSnapshot{} }

func TestBasketController_ConcurrentCouponsKeepTheirCodes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	svc := &blockingCouponService{arrived: make(chan struct{}, 2), release: make(chan struct{})}
	router := gin.New()
	router.POST("/basket/coupon", NewBasketController(svc).AddCoupon)

	var wg sync.WaitGroup
	for _, code := range []string{"SPRING", "SUMMER"} {
		wg.Add(1)
		go func(code string) {
			defer wg.Done()
			w := doJSON(router, http.MethodPost, "/basket/coupon", AddCouponRequest{Code: code})
			assert.Equal(t, http.StatusOK, w.Code)
		}(code)
	}

	<-svc.arrived
	<-svc.arrived
	close(svc.release)
	wg.Wait()

	assert.ElementsMatch(t, []string{"SPRING", "SUMMER"}, svc.codes)
}
