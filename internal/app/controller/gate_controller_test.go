package controller

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ikkim/udonggeum-basket/internal/app/orderparams"
	"github.com/ikkim/udonggeum-basket/internal/confirm"
	ws "github.com/ikkim/udonggeum-basket/internal/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type nopRenderer struct{}

func (nopRenderer) Render(context.Context, *confirm.Gate) error { return nil }

func setupGateControllerTest(t *testing.T) (*confirm.Registry, *gin.Engine) {
	gin.SetMode(gin.TestMode)
	registry := confirm.NewRegistry(nopRenderer{}, time.Minute)
	ctrl := NewGateController(registry)

	router := gin.New()
	router.POST("/gates/:id/confirm", ctrl.Confirm)
	router.POST("/gates/:id/dismiss", ctrl.Dismiss)
	return registry, router
}

// formGate shows a gate that records the form it was confirmed with.
func formGate(t *testing.T, registry *confirm.Registry, seen *orderparams.Form) *confirm.Gate {
	t.Helper()
	var gate *confirm.Gate
	gate = confirm.Prepare(registry).OnConfirm(func() {
		*seen, _ = gate.Response().(orderparams.Form)
	})
	require.NoError(t, gate.Show(context.Background()))
	return gate
}

func waitGate(t *testing.T, gate *confirm.Gate) {
	t.Helper()
	select {
	case <-gate.Done():
	case <-time.After(2 * time.Second):
		t.Fatal("gate was not resolved")
	}
}

func TestGateController_ConfirmHandsFormToGate(t *testing.T) {
	registry, router := setupGateControllerTest(t)

	var seen orderparams.Form
	gate := formGate(t, registry, &seen)

	form := orderparams.Form{
		GroupFields: []orderparams.GroupField{{Position: 0, GroupID: "7", Value: "7"}},
	}
	w := doJSON(router, http.MethodPost, "/gates/"+gate.ID()+"/confirm", form)

	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, confirm.OutcomeConfirmed, gate.Outcome())
	assert.Equal(t, form, seen)
}

func TestGateController_ConfirmWithoutBody(t *testing.T) {
	registry, router := setupGateControllerTest(t)
	gate := confirm.Prepare(registry)
	require.NoError(t, gate.Show(context.Background()))

	w := doJSON(router, http.MethodPost, "/gates/"+gate.ID()+"/confirm", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, confirm.OutcomeConfirmed, gate.Outcome())
}

func TestGateController_Dismiss(t *testing.T) {
	registry, router := setupGateControllerTest(t)

	dismissed := false
	gate := confirm.Prepare(registry).OnDismiss(func() { dismissed = true })
	require.NoError(t, gate.Show(context.Background()))

	w := doJSON(router, http.MethodPost, "/gates/"+gate.ID()+"/dismiss", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.True(t, dismissed)

	w = doJSON(router, http.MethodPost, "/gates/"+gate.ID()+"/confirm", nil)
	assert.Contains(t, []int{http.StatusNotFound, http.StatusConflict}, w.Code)
}

func TestGateController_UnknownGate(t *testing.T) {
	_, router := setupGateControllerTest(t)

	w := doJSON(router, http.MethodPost, "/gates/missing/dismiss", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestWebSocketController_HandleMessageResolvesGate(t *testing.T) {
	registry := confirm.NewRegistry(nopRenderer{}, time.Minute)
	ctrl := NewWebSocketController(ws.NewHub(), registry, []string{"*"})

	gate := confirm.Prepare(registry)
	require.NoError(t, gate.Show(context.Background()))

	client := ws.NewClient(nil, nil, "session-1")
	ctrl.handleMessage(client, ws.ClientMessage{Type: msgGateDismiss, GateID: gate.ID()})

	waitGate(t, gate)
	assert.Equal(t, confirm.OutcomeDismissed, gate.Outcome())
}

func TestGateForms_DoNotLeakBetweenGates(t *testing.T) {
	registry, router := setupGateControllerTest(t)
	wsCtrl := NewWebSocketController(ws.NewHub(), registry, []string{"*"})

	var seenA, seenB, seenC orderparams.Form
	gateA := formGate(t, registry, &seenA)
	gateB := formGate(t, registry, &seenB)
	gateC := formGate(t, registry, &seenC)

	red := orderparams.Form{ValueFields: []orderparams.ValueField{{Position: 0, ParamID: "3", Value: "red", Kind: orderparams.ControlText}}}
	w := doJSON(router, http.MethodPost, "/gates/"+gateA.ID()+"/confirm", red)
	require.Equal(t, http.StatusOK, w.Code)

	client := ws.NewClient(nil, nil, "session-2")
	wsCtrl.handleMessage(client, ws.ClientMessage{Type: msgGateConfirm, GateID: gateB.ID()})
	waitGate(t, gateB)

	blue := orderparams.Form{ValueFields: []orderparams.ValueField{{Position: 0, ParamID: "3", Value: "blue", Kind: orderparams.ControlText}}}
	wsCtrl.handleMessage(client, ws.ClientMessage{Type: msgGateConfirm, GateID: gateC.ID(), Form: blue})
	waitGate(t, gateC)

	assert.Equal(t, red, seenA)
	assert.Empty(t, seenB.ValueFields)
	assert.Empty(t, seenB.GroupFields)
	assert.Equal(t, blue, seenC)
}
