package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/m04kA/SMC-ParkingService/pkg/logger"
)

const testSecret = "test-secret"

func sign(t *testing.T, method jwt.SigningMethod, key interface{}, claims jwt.RegisteredClaims) string {
	t.Helper()
	token, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return token
}

func validClaims(sub string) jwt.RegisteredClaims {
	return jwt.RegisteredClaims{
		Subject:   sub,
		Issuer:    "auth.example",
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
	}
}

// echoUser отвечает ID пользователя из контекста
func echoUser(w http.ResponseWriter, r *http.Request) {
	userID, ok := GetUserID(r.Context())
	if !ok {
		userID = "anonymous"
	}
	_, _ = w.Write([]byte(userID))
}

func serve(h http.Handler, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestAuth_Middleware(t *testing.T) {
	auth := NewAuth(testSecret, "auth.example", logger.Nop{})
	h := auth.Middleware(http.HandlerFunc(echoUser))

	expired := validClaims("uid-1")
	expired.ExpiresAt = jwt.NewNumericDate(time.Now().Add(-time.Minute))

	wrongIssuer := validClaims("uid-1")
	wrongIssuer.Issuer = "someone-else"

	noExpiry := validClaims("uid-1")
	noExpiry.ExpiresAt = nil

	tests := []struct {
		name   string
		token  string
		status int
		body   string
	}{
		{"valid", sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("uid-1")), http.StatusOK, "uid-1"},
		{"missing header", "", http.StatusUnauthorized, ""},
		{"garbage", "not-a-jwt", http.StatusUnauthorized, ""},
		{"wrong secret", sign(t, jwt.SigningMethodHS256, []byte("other"), validClaims("uid-1")), http.StatusUnauthorized, ""},
		{"wrong algorithm", sign(t, jwt.SigningMethodHS512, []byte(testSecret), validClaims("uid-1")), http.StatusUnauthorized, ""},
		{"expired", sign(t, jwt.SigningMethodHS256, []byte(testSecret), expired), http.StatusUnauthorized, ""},
		{"no expiry", sign(t, jwt.SigningMethodHS256, []byte(testSecret), noExpiry), http.StatusUnauthorized, ""},
		{"wrong issuer", sign(t, jwt.SigningMethodHS256, []byte(testSecret), wrongIssuer), http.StatusUnauthorized, ""},
		{"no subject", sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("")), http.StatusUnauthorized, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := serve(h, tt.token)
			assert.Equal(t, tt.status, rec.Code)
			if tt.body != "" {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestAuth_Optional(t *testing.T) {
	auth := NewAuth(testSecret, "", logger.Nop{})
	h := auth.Optional(http.HandlerFunc(echoUser))

	rec := serve(h, "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "anonymous", rec.Body.String())

	rec = serve(h, sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("uid-2")))
	assert.Equal(t, "uid-2", rec.Body.String())

	rec = serve(h, "broken")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSelfOnly(t *testing.T) {
	auth := NewAuth(testSecret, "", logger.Nop{})

	r := mux.NewRouter()
	users := r.PathPrefix("/users/{userId}").Subrouter()
	users.Use(auth.Middleware, SelfOnly("userId", logger.Nop{}))
	users.HandleFunc("/bookings", echoUser).Methods(http.MethodGet)

	token := sign(t, jwt.SigningMethodHS256, []byte(testSecret), validClaims("uid-1"))

	call := func(path string) int {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+token)
		rec := httptest.NewRecorder()
		r.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, call("/users/uid-1/bookings"))
	assert.Equal(t, http.StatusForbidden, call("/users/uid-2/bookings"))
}
