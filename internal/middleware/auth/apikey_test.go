package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"github.com/wekeepgrowing/wallet-ledger/internal/domain/model"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// MockAPIKeyRepository is a mock implementation of APIKeyRepository
type MockAPIKeyRepository struct {
	mock.Mock
}

func (m *MockAPIKeyRepository) GetByKeyID(ctx context.Context, keyID string) (*model.APIKey, error) {
	args := m.Called(ctx, keyID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.APIKey), args.Error(1)
}

func (m *MockAPIKeyRepository) TouchLastUsed(ctx context.Context, keyID string) error {
	args := m.Called(ctx, keyID)
	return args.Error(0)
}

func TestAPIKeyMiddleware(t *testing.T) {
	merchantID := uuid.New()
	hash, err := bcrypt.GenerateFromPassword([]byte("sk_live_secret"), bcrypt.MinCost)
	require.NoError(t, err)

	activeKey := &model.APIKey{KeyID: "key_live_1", SecretHash: string(hash), MerchantID: merchantID, IsActive: true}
	inactiveKey := &model.APIKey{KeyID: "key_live_2", SecretHash: string(hash), MerchantID: merchantID, IsActive: false}

	run := func(repo *MockAPIKeyRepository, user, pass string, setAuth bool) (*httptest.ResponseRecorder, *uuid.UUID) {
		e := echo.New()
		var seen *uuid.UUID
		handler := APIKeyMiddleware(APIKeyConfig{Keys: repo, Logger: zap.NewNop()})(func(c echo.Context) error {
			id, ok := MerchantFromContext(c)
			if ok {
				seen = &id
			}
			return c.NoContent(http.StatusCreated)
		})

		req := httptest.NewRequest(http.MethodPost, "/api/v1/orders", nil)
		if setAuth {
			req.SetBasicAuth(user, pass)
		}
		rec := httptest.NewRecorder()
		assert.NoError(t, handler(e.NewContext(req, rec)))
		return rec, seen
	}

	t.Run("valid credentials", func(t *testing.T) {
		repo := new(MockAPIKeyRepository)
		touched := make(chan struct{})
		repo.On("GetByKeyID", mock.Anything, "key_live_1").Return(activeKey, nil)
		repo.On("TouchLastUsed", mock.Anything, "key_live_1").Run(func(mock.Arguments) { close(touched) }).Return(nil)

		rec, seen := run(repo, "key_live_1", "sk_live_secret", true)

		assert.Equal(t, http.StatusCreated, rec.Code)
		require.NotNil(t, seen)
		assert.Equal(t, merchantID, *seen)
		select {
		case <-touched:
		case <-time.After(time.Second):
			t.Fatal("last used timestamp was not updated")
		}
	})

	t.Run("missing credentials", func(t *testing.T) {
		rec, seen := run(new(MockAPIKeyRepository), "", "", false)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Nil(t, seen)
	})

	t.Run("wrong secret", func(t *testing.T) {
		repo := new(MockAPIKeyRepository)
		repo.On("GetByKeyID", mock.Anything, "key_live_1").Return(activeKey, nil)

		rec, _ := run(repo, "key_live_1", "guess", true)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Contains(t, rec.Body.String(), "INVALID_API_KEY")
		repo.AssertNotCalled(t, "TouchLastUsed", mock.Anything, mock.Anything)
	})

	t.Run("inactive key", func(t *testing.T) {
		repo := new(MockAPIKeyRepository)
		repo.On("GetByKeyID", mock.Anything, "key_live_2").Return(inactiveKey, nil)

		rec, _ := run(repo, "key_live_2", "sk_live_secret", true)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("unknown key", func(t *testing.T) {
		repo := new(MockAPIKeyRepository)
		repo.On("GetByKeyID", mock.Anything, "nope").Return(nil, nil)

		rec, _ := run(repo, "nope", "sk_live_secret", true)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("store unavailable", func(t *testing.T) {
		repo := new(MockAPIKeyRepository)
		repo.On("GetByKeyID", mock.Anything, "key_live_1").Return(nil, errors.New("connection refused"))

		rec, _ := run(repo, "key_live_1", "sk_live_secret", true)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}
