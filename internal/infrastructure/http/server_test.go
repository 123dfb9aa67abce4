package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/wallet-ledger/internal/adapter/handler/http"
	"github.com/wekeepgrowing/wallet-ledger/internal/config"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/entity"
	domainErrors "github.com/wekeepgrowing/wallet-ledger/internal/domain/errors"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"github.com/wekeepgrowing/wallet-ledger/internal/infrastructure/metrics"
)

const testSecret = "test-jwt-secret"

type stubWallet struct {
	handlers.WalletService
}

func (stubWallet) GetBalance(ctx context.Context, userID uuid.UUID) (decimal.Decimal, error) {
	return decimal.NewFromInt(1000), nil
}

type stubPayments struct {
	handlers.PaymentService
}

func (stubPayments) GetOrder(ctx context.Context, orderID string) (*entity.OrderView, error) {
	return &entity.OrderView{OrderID: orderID, Status: "created"}, nil
}

type stubMerchants struct {
	handlers.MerchantService
}

func (stubMerchants) MerchantForUser(ctx context.Context, userID uuid.UUID) (*model.MerchantAccount, error) {
	return nil, domainErrors.ErrAccountNotFound
}

type stubSettlements struct {
	runs int
}

func (s *stubSettlements) RunSettlement(ctx context.Context) (*entity.SettlementReport, error) {
	s.runs++
	return &entity.SettlementReport{Items: []entity.SettlementItem{}, Errors: []entity.SettlementError{}}, nil
}

type stubAPIKeys struct{}

func (stubAPIKeys) GetByKeyID(ctx context.Context, keyID string) (*model.APIKey, error) {
	return nil, nil
}

func (stubAPIKeys) TouchLastUsed(ctx context.Context, keyID string) error { return nil }

func newTestServer(t *testing.T) (*Server, *stubSettlements) {
	t.Helper()
	cfg := &config.Config{
		Service: config.ServiceConfig{Name: "wallet-ledger", Version: "test"},
		JWT:     config.JWTConfig{Secret: testSecret, AdminRole: "admin"},
	}
	settlements := &stubSettlements{}
	srv := NewServer(cfg, zap.NewNop(), Services{
		Wallet:      stubWallet{},
		Payments:    stubPayments{},
		Merchants:   stubMerchants{},
		Settlements: settlements,
	}, Dependencies{
		APIKeys: stubAPIKeys{},
		Metrics: metrics.New(),
		Ping:    func(context.Context) error { return nil },
	})
	return srv, settlements
}

func bearer(t *testing.T, role string) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"sub":  uuid.New().String(),
		"role": role,
		"exp":  time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return "Bearer " + signed
}

func serve(srv *Server, method, target, authorization string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader("{}"))
	req.Header.Set("Content-Type", "application/json")
	if authorization != "" {
		req.Header.Set("Authorization", authorization)
	}
	rec := httptest.NewRecorder()
	srv.Echo().ServeHTTP(rec, req)
	return rec
}

func TestServer_Routes(t *testing.T) {
	srv, settlements := newTestServer(t)

	tests := []struct {
		name          string
		method        string
		target        string
		authorization string
		status        int
	}{
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"public order lookup", http.MethodGet, "/api/v1/orders/ord_abc", "", http.StatusOK},
		{"wallet requires a token", http.MethodGet, "/api/v1/wallet/balance", "", http.StatusUnauthorized},
		{"wallet with token", http.MethodGet, "/api/v1/wallet/balance", bearer(t, "user"), http.StatusOK},
		{"orders require an api key", http.MethodPost, "/api/v1/orders", "", http.StatusUnauthorized},
		{"unknown api key", http.MethodPost, "/api/v1/refunds", "Basic a2V5OnNlY3JldA==", http.StatusUnauthorized},
		{"merchant routes require a merchant account", http.MethodGet, "/api/v1/merchants/balance", bearer(t, "user"), http.StatusForbidden},
		{"settle requires the admin role", http.MethodPost, "/api/v1/merchants/settle", bearer(t, "user"), http.StatusForbidden},
		{"settle as admin", http.MethodPost, "/api/v1/merchants/settle", bearer(t, "admin"), http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(srv, tt.method, tt.target, tt.authorization)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}

	assert.Equal(t, 1, settlements.runs)
}

func TestServer_Metrics(t *testing.T) {
	srv, _ := newTestServer(t)

	serve(srv, http.MethodGet, "/health", "")
	rec := serve(srv, http.MethodGet, "/metrics", "")

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `ledger_http_requests_total{method="GET",route="/health",status="200"} 1`)
}
