package client

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"

	"github.com/studyswap/studyswap-go/internal/config"
	"github.com/studyswap/studyswap-go/internal/tokens"
)

// Общие помощники тестов клиента: фейковый бэкенд поднимается на httptest
// с chi-роутером, пары токенов живут в MemStore.

// bearerToken выпускает подписанный access-токен с заданным сроком жизни.
// Отрицательный ttl даёт уже истёкший токен.
func bearerToken(t *testing.T, ttl time.Duration) string {
	t.Helper()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		// Уникальный jti: NumericDate усечён до секунд, и без него два
		// токена, выпущенные в одну секунду, байтово совпадают.
		ID:        uuid.NewString(),
		Subject:   "42",
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
	})
	signed, err := token.SignedString([]byte("unit-test-secret"))
	require.NoError(t, err)

	return signed
}

// testConfig — конфигурация клиента для тестов: короткая settle-пауза,
// обычный пятиминутный запас срока действия.
func testConfig(baseURL string) config.APIConfig {
	return config.APIConfig{
		BaseURL:           baseURL,
		UserAgent:         "studyswap-go/test",
		RequestTimeout:    5 * time.Second,
		UploadTimeout:     5 * time.Second,
		TokenSafetyMargin: 300 * time.Second,
		SettleDelay:       5 * time.Millisecond,
	}
}

// newTestClient поднимает клиент поверх MemStore, при необходимости
// засеивая стартовую пару токенов.
func newTestClient(t *testing.T, baseURL string, creds *tokens.Credentials) (*Client, *tokens.MemStore) {
	t.Helper()

	store := tokens.NewMemStore()
	if creds != nil {
		require.NoError(t, store.SaveCredentials(context.Background(), creds))
	}

	c, err := New(testConfig(baseURL), store)
	require.NoError(t, err)

	return c, store
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, v any) {
	t.Helper()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	require.NoError(t, json.NewEncoder(w).Encode(v))
}

func readJSON(t *testing.T, r *http.Request, v any) {
	t.Helper()
	require.NoError(t, json.NewDecoder(r.Body).Decode(v))
}

// bearerOf извлекает токен из заголовка Authorization.
func bearerOf(r *http.Request) string {
	const prefix = "Bearer "

	h := r.Header.Get("Authorization")
	if len(h) <= len(prefix) {
		return ""
	}

	return h[len(prefix):]
}

func TestNew_Validation(t *testing.T) {
	t.Parallel()

	_, err := New(testConfig(""), tokens.NewMemStore())
	require.Error(t, err)

	_, err = New(testConfig("http://localhost:8080"), nil)
	require.Error(t, err)
}

func TestNew_TrimsBaseURL(t *testing.T) {
	t.Parallel()

	c, err := New(testConfig("http://localhost:8080/"), tokens.NewMemStore())
	require.NoError(t, err)
	require.Equal(t, "http://localhost:8080", c.baseURL)
}
