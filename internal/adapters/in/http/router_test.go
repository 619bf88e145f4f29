package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	httpin "dispatch/internal/adapters/in/http"
	"dispatch/internal/adapters/out/catalog"
	"dispatch/internal/adapters/out/memory"
	"dispatch/internal/adapters/out/prommetrics"
	"dispatch/internal/core/application/usecases/commands"
	"dispatch/internal/core/application/usecases/queries"
	"dispatch/internal/core/domain/model/kernel"
	"dispatch/internal/core/domain/model/order"
	"dispatch/internal/core/ports"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var secret = []byte("test-secret")

type commandUoWs struct{ f ports.UnitOfWorkFactory }

func (w commandUoWs) Create() commands.UoW { return w.f.Create() }

type queryRepos struct{ f ports.UnitOfWorkFactory }

func (w queryRepos) Create() queries.Repositories { return w.f.Create() }

type nopScheduler struct{}

func (nopScheduler) Schedule(order.WindowTask) {}

func newAPI(t *testing.T) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	clock := ports.SystemClock{}

	events := memory.NewEventLog(logger)
	positions := memory.NewPositionStore()
	uows := memory.NewUnitOfWorkFactory(memory.NewStore(), events, logger)
	cmdUoWs, repos := commandUoWs{f: uows}, queryRepos{f: uows}

	fallback, err := kernel.NewLocation(2.333, 48.865)
	require.NoError(t, err)
	dispatcher := commands.NewAutoDispatcher(positions, catalog.NewStatic(fallback, nil))
	policy := order.DefaultWindowPolicy()

	server := httpin.NewServer(httpin.Handlers{
		CreateOrder:     commands.NewCreateOrderCommandHandler(cmdUoWs, clock),
		MarkReady:       commands.NewMarkReadyCommandHandler(cmdUoWs, nopScheduler{}, policy, clock),
		ExpressInterest: commands.NewExpressInterestCommandHandler(cmdUoWs, clock),
		ManagerAssign:   commands.NewManagerAssignCommandHandler(cmdUoWs, clock),
		ForceAutoAssign: commands.NewForceAutoAssignCommandHandler(cmdUoWs, dispatcher, clock),
		MarkDelivered:   commands.NewMarkDeliveredCommandHandler(cmdUoWs, clock),
		CancelOrder:     commands.NewCancelOrderCommandHandler(cmdUoWs, clock),
		RateDriver:      commands.NewRateDriverCommandHandler(cmdUoWs, clock),
		UpdatePosition:  commands.NewUpdatePositionCommandHandler(positions, events, clock),

		GetOrder:           queries.NewGetOrderQueryHandler(repos),
		ListOrders:         queries.NewListOrdersQueryHandler(repos),
		GetOrderCandidates: queries.NewGetOrderCandidatesQueryHandler(repos),
		GetTimerStatus:     queries.NewGetTimerStatusQueryHandler(repos, clock),
		GetAgentStats:      queries.NewGetAgentStatsQueryHandler(repos),
		GetAgentPosition:   queries.NewGetAgentPositionQueryHandler(positions),
		ListActiveTimers:   queries.NewListActiveTimersQueryHandler(repos, clock),
	}, events, clock, logger)

	registry := prometheus.NewRegistry()
	metrics, err := prommetrics.New(registry)
	require.NoError(t, err)

	e, err := httpin.NewRouter(context.Background(), server, httpin.RouterConfig{
		JWTSecret: secret,
		Metrics:   metrics,
		Gatherer:  registry,
	})
	require.NoError(t, err)
	return e
}

func token(t *testing.T, id string, role kernel.Role) string {
	t.Helper()
	raw, err := httpin.IssueToken(secret, id, role, time.Hour, time.Now())
	require.NoError(t, err)
	return raw
}

func call(t *testing.T, e *echo.Echo, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	if bearer != "" {
		req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func createOrder(t *testing.T, e *echo.Echo, client string) string {
	t.Helper()
	rec := call(t, e, http.MethodPost, "/api/v1/orders", client, map[string]any{
		"restaurant_id": "resto1",
		"items":         []map[string]any{{"item": "Pizza", "quantity": 2, "price": 11.5}},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decode(t, rec)["id"].(string)
}

func TestHealthAndMetrics(t *testing.T) {
	e := newAPI(t)

	rec := call(t, e, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = call(t, e, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "dispatch_http_request_duration_seconds")
}

func TestSwaggerDocument(t *testing.T) {
	e := newAPI(t)

	rec := call(t, e, http.MethodGet, "/swagger/doc.json", "", nil)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "/api/v1/orders")
}

func TestAuthentication(t *testing.T) {
	e := newAPI(t)

	rec := call(t, e, http.MethodGet, "/api/v1/orders?scope=mine", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = call(t, e, http.MethodGet, "/api/v1/orders?scope=mine", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := httpin.IssueToken([]byte("other-secret"), "client1", kernel.RoleClient, time.Hour, time.Now())
	require.NoError(t, err)
	rec = call(t, e, http.MethodGet, "/api/v1/orders?scope=mine", forged, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := httpin.IssueToken(secret, "client1", kernel.RoleClient, time.Minute, time.Now().Add(-time.Hour))
	require.NoError(t, err)
	rec = call(t, e, http.MethodGet, "/api/v1/orders?scope=mine", expired, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestOrderLifecycle(t *testing.T) {
	e := newAPI(t)
	client := token(t, "client1", kernel.RoleClient)
	restaurant := token(t, "resto1", kernel.RoleRestaurant)
	driver := token(t, "livreur1", kernel.RoleDriver)
	manager := token(t, "manager1", kernel.RoleManager)

	id := createOrder(t, e, client)
	base := "/api/v1/orders/" + id

	rec := call(t, e, http.MethodPost, base+"/ready", restaurant, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = call(t, e, http.MethodGet, base+"/timer", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	timer := decode(t, rec)
	assert.Equal(t, "active", timer["status"])
	assert.Equal(t, "acceptance_window", timer["type"])

	rec = call(t, e, http.MethodPost, base+"/interest", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, true, decode(t, rec)["added"])

	rec = call(t, e, http.MethodPost, base+"/interest", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, false, decode(t, rec)["added"])

	rec = call(t, e, http.MethodGet, base+"/candidates", manager, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	candidates := decode(t, rec)["candidates"].([]any)
	require.Len(t, candidates, 1)
	assert.Equal(t, "livreur1", candidates[0].(map[string]any)["driver_id"])

	rec = call(t, e, http.MethodGet, "/api/v1/orders?scope=interests", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), id)

	rec = call(t, e, http.MethodPost, base+"/assign", manager, map[string]any{"driver_id": "livreur1"})
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = call(t, e, http.MethodPost, base+"/interest", token(t, "livreur2", kernel.RoleDriver), nil)
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, e, http.MethodPost, base+"/delivered", driver, nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	rec = call(t, e, http.MethodPost, base+"/rating", client, map[string]any{"rating": 4})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	stats := decode(t, rec)
	assert.InDelta(t, 4.0, stats["avg_rating"], 1e-9)
	assert.InDelta(t, 1, stats["delivery_count"], 0)

	rec = call(t, e, http.MethodPost, base+"/rating", client, map[string]any{"rating": 5})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = call(t, e, http.MethodGet, "/api/v1/drivers/livreur1/stats", client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.InDelta(t, 4.0, decode(t, rec)["score"], 1e-9)

	rec = call(t, e, http.MethodGet, base, client, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decode(t, rec)
	assert.Equal(t, "delivered", view["status"])
	assert.Equal(t, "livreur1", view["assigned_driver"])
}

func TestConcurrentInterestFromManyDrivers(t *testing.T) {
	e := newAPI(t)
	client := token(t, "client1", kernel.RoleClient)
	id := createOrder(t, e, client)
	base := "/api/v1/orders/" + id

	rec := call(t, e, http.MethodPost, base+"/ready", token(t, "resto1", kernel.RoleRestaurant), nil)
	require.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

	const drivers = 10
	bearers := make([]string, drivers)
	for i := range bearers {
		bearers[i] = token(t, fmt.Sprintf("livreur%d", i+1), kernel.RoleDriver)
	}

	codes := make([]int, drivers)
	var wg sync.WaitGroup
	for i, bearer := range bearers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := httptest.NewRequest(http.MethodPost, base+"/interest", nil)
			req.Header.Set(echo.HeaderAuthorization, "Bearer "+bearer)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)
			codes[i] = rec.Code
		}()
	}
	wg.Wait()

	for i, code := range codes {
		assert.Equal(t, http.StatusOK, code, "driver %d", i+1)
	}
	rec = call(t, e, http.MethodGet, base+"/candidates", token(t, "manager1", kernel.RoleManager), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decode(t, rec)["candidates"].([]any), drivers)
}

func TestErrorMapping(t *testing.T) {
	e := newAPI(t)
	client := token(t, "client1", kernel.RoleClient)
	driver := token(t, "livreur1", kernel.RoleDriver)

	id := createOrder(t, e, client)

	tests := []struct {
		name   string
		method string
		path   string
		bearer string
		body   any
		want   int
	}{
		{"driver cannot mark ready", http.MethodPost, "/api/v1/orders/" + id + "/ready", driver, nil, http.StatusForbidden},
		{"interest before ready", http.MethodPost, "/api/v1/orders/" + id + "/interest", driver, nil, http.StatusConflict},
		{"unknown order", http.MethodGet, "/api/v1/orders/" + kernel.NewUUID().String(), client, nil, http.StatusNotFound},
		{"malformed order id", http.MethodGet, "/api/v1/orders/not-a-uuid", client, nil, http.StatusBadRequest},
		{"missing items", http.MethodPost, "/api/v1/orders", client, map[string]any{"restaurant_id": "resto1"}, http.StatusBadRequest},
		{"rating out of range", http.MethodPost, "/api/v1/orders/" + id + "/rating", client, map[string]any{"rating": 9}, http.StatusBadRequest},
		{"unknown scope", http.MethodGet, "/api/v1/orders?scope=everything", client, nil, http.StatusBadRequest},
		{"scope of another role", http.MethodGet, "/api/v1/orders?scope=all", client, nil, http.StatusForbidden},
		{"timers are for managers", http.MethodGet, "/api/v1/debug/timers", client, nil, http.StatusForbidden},
		{"force auto-assign on pending order", http.MethodPost, "/api/v1/orders/" + id + "/auto-assign",
			token(t, "manager1", kernel.RoleManager), nil, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := call(t, e, tt.method, tt.path, tt.bearer, tt.body)

			assert.Equal(t, tt.want, rec.Code, rec.Body.String())
			assert.InDelta(t, tt.want, decode(t, rec)["code"], 0)
		})
	}
}

func TestCancelOrder(t *testing.T) {
	e := newAPI(t)
	client := token(t, "client1", kernel.RoleClient)
	id := createOrder(t, e, client)

	rec := call(t, e, http.MethodPost, "/api/v1/orders/"+id+"/cancel", token(t, "client2", kernel.RoleClient), nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = call(t, e, http.MethodPost, "/api/v1/orders/"+id+"/cancel", client, nil)
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = call(t, e, http.MethodPost, "/api/v1/orders/"+id+"/cancel", client, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestDriverPosition(t *testing.T) {
	e := newAPI(t)
	driver := token(t, "livreur1", kernel.RoleDriver)

	rec := call(t, e, http.MethodGet, "/api/v1/drivers/me/position", driver, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = call(t, e, http.MethodPut, "/api/v1/drivers/me/position", driver, map[string]any{"longitude": 2.35})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = call(t, e, http.MethodPut, "/api/v1/drivers/me/position", driver, map[string]any{"longitude": 2.35, "latitude": 48.85})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = call(t, e, http.MethodGet, "/api/v1/drivers/me/position", driver, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	position := decode(t, rec)
	assert.InDelta(t, 2.35, position["longitude"], 1e-9)
	assert.InDelta(t, 48.85, position["latitude"], 1e-9)

	rec = call(t, e, http.MethodPut, "/api/v1/drivers/me/position", token(t, "client1", kernel.RoleClient),
		map[string]any{"longitude": 2.35, "latitude": 48.85})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestStreamEvents(t *testing.T) {
	e := newAPI(t)
	srv := httptest.NewServer(e)
	defer srv.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	client := token(t, "client1", kernel.RoleClient)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, srv.URL+"/api/v1/events?access_token="+client, nil)
	require.NoError(t, err)
	res, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "text/event-stream", res.Header.Get(echo.HeaderContentType))

	id := createOrder(t, e, client)

	reader := bufio.NewReader(res.Body)
	var eventLine, dataLine string
	for dataLine == "" {
		line, err := reader.ReadString('\n')
		require.NoError(t, err)
		switch {
		case strings.HasPrefix(line, "event: "):
			eventLine = strings.TrimSpace(strings.TrimPrefix(line, "event: "))
		case strings.HasPrefix(line, "data: "):
			dataLine = strings.TrimSpace(strings.TrimPrefix(line, "data: "))
		}
	}

	assert.Equal(t, "order_created", eventLine)
	assert.Contains(t, dataLine, id)
}
