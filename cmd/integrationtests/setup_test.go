package integrationtests

import (
	"bytes"
	"encoding/json"
	"net/http/httptest"
	"testing"
	"time"

	"voltbay/internal/auth"
	bidding "voltbay/internal/biddingService"
	"voltbay/internal/clock"
	"voltbay/internal/lock"
	model "voltbay/internal/models"
	"voltbay/internal/notify"
	"voltbay/internal/orders"
	"voltbay/internal/payment"
	"voltbay/internal/repository"
	"voltbay/internal/scheduler"
	"voltbay/internal/server"
	"voltbay/internal/settlement"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var testStart = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

// testEnv is the full HTTP stack over the in-memory store with a manual clock
type testEnv struct {
	router    *gin.Engine
	repo      *repository.MemoryRepo
	clock     *clock.Manual
	gateway   *payment.MockGateway
	issuer    *auth.Issuer
	scheduler *scheduler.Scheduler
}

// SetupTestEnv initializes the router with in-memory repository for integration testing.
func SetupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gin.SetMode(gin.TestMode)

	repo := repository.NewMemoryRepo()
	clk := clock.NewManual(testStart)
	gateway := payment.NewMockGateway(gomock.NewController(t))
	issuer := auth.NewIssuer("integration-secret")

	engine := settlement.NewEngine(repo, clk)
	sched := scheduler.New(repo, engine, lock.NewLocalLocker(clk), clk, scheduler.Config{Interval: time.Minute})
	paymentsSvc := payment.NewService(repo, gateway, clk, payment.Options{Currency: "usd", FeePercent: decimal.NewFromInt(10)})

	router := server.SetupRouter(server.Dependencies{
		Issuer:        issuer,
		Bidding:       bidding.NewBiddingService(repo, clk),
		Payments:      paymentsSvc,
		Settlement:    engine,
		Orders:        orders.NewService(repo, gateway, clk),
		Notifications: notify.NewService(repo),
		Scheduler:     sched,
	})

	return &testEnv{router: router, repo: repo, clock: clk, gateway: gateway, issuer: issuer, scheduler: sched}
}

// Token issues a bearer token valid for the test's lifetime
func (e *testEnv) Token(t *testing.T, userID string, role model.Role) string {
	t.Helper()
	token, err := e.issuer.GenerateToken(userID, role, 24*time.Hour)
	require.NoError(t, err)
	return token
}

// ExecuteRequestAndParse executes an HTTP request on the router and parses the response envelope
func (e *testEnv) ExecuteRequestAndParse(t *testing.T, method, url, token string, body any) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()

	var reqBody []byte
	switch v := body.(type) {
	case nil:
	case []byte:
		reqBody = v
	case string:
		reqBody = []byte(v)
	default:
		var err error
		reqBody, err = json.Marshal(v)
		require.NoError(t, err, "failed to marshal body")
	}

	req := httptest.NewRequest(method, url, bytes.NewReader(reqBody))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	if w.Body.Len() > 0 {
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), "failed to unmarshal response: %s", w.Body.String())
	}
	return resp, w
}

// SeedAuction lists an auction through the API and returns its id
func (e *testEnv) SeedAuction(t *testing.T, ownerID string, minimumBid float64, endsIn time.Duration) string {
	t.Helper()
	resp, w := e.ExecuteRequestAndParse(t, "POST", "/api/products", e.Token(t, ownerID, model.RoleUser), map[string]any{
		"title":            "Used 10kWh battery",
		"description":      "LFP pack, 800 cycles",
		"price":            minimumBid,
		"minimum_bid":      minimumBid,
		"auction_end_date": e.clock.Now().Add(endsIn).Format(time.RFC3339),
	})
	require.Equal(t, 201, w.Code, w.Body.String())
	return resp["data"].(map[string]any)["id"].(string)
}

func dataMap(t *testing.T, resp map[string]any) map[string]any {
	t.Helper()
	data, ok := resp["data"].(map[string]any)
	require.True(t, ok, "data should be an object, got %T", resp["data"])
	return data
}

func dataList(t *testing.T, resp map[string]any) []any {
	t.Helper()
	data, ok := resp["data"].([]any)
	require.True(t, ok, "data should be an array, got %T", resp["data"])
	return data
}

// ExecuteWebhook posts a provider payload with its signature header
func (e *testEnv) ExecuteWebhook(t *testing.T, payload []byte, signature string) (map[string]any, *httptest.ResponseRecorder) {
	t.Helper()
	req := httptest.NewRequest("POST", "/api/payments/webhook", bytes.NewReader(payload))
	req.Header.Set("Stripe-Signature", signature)
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	var resp map[string]any
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	return resp, w
}
