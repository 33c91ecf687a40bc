package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
)

const (
	msgMissingToken = "отсутствует токен авторизации"
	msgInvalidToken = "недействительный токен авторизации"
	msgTokenExpired = "срок действия токена истек"
)

// Logger интерфейс для логирования
type Logger interface {
	Info(format string, v ...interface{})
	Warn(format string, v ...interface{})
	Error(format string, v ...interface{})
}

// Auth проверяет Bearer JWT (HS256), выпущенный провайдером аутентификации
// Токены сервис не выпускает, только проверяет подпись, срок и издателя
type Auth struct {
	secret []byte
	issuer string
	logger Logger
}

// NewAuth создает middleware; пустой issuer отключает проверку издателя
func NewAuth(secret, issuer string, logger Logger) *Auth {
	return &Auth{
		secret: []byte(secret),
		issuer: issuer,
		logger: logger,
	}
}

// Middleware кладет claim sub в контекст запроса
func (a *Auth) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		tokenString, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || strings.TrimSpace(tokenString) == "" {
			a.logger.Warn("Auth: missing bearer token: %s %s", r.Method, r.URL.Path)
			handlers.RespondUnauthorized(w, msgMissingToken)
			return
		}

		userID, err := a.parse(strings.TrimSpace(tokenString))
		if err != nil {
			a.logger.Warn("Auth: rejected token: %s %s: %v", r.Method, r.URL.Path, err)
			if errors.Is(err, jwt.ErrTokenExpired) {
				handlers.RespondUnauthorized(w, msgTokenExpired)
				return
			}
			handlers.RespondUnauthorized(w, msgInvalidToken)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
	})
}

func (a *Auth) parse(tokenString string) (string, error) {
	opts := []jwt.ParserOption{
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
	}
	if a.issuer != "" {
		opts = append(opts, jwt.WithIssuer(a.issuer))
	}

	claims := &jwt.RegisteredClaims{}
	if _, err := jwt.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, opts...); err != nil {
		return "", err
	}

	if claims.Subject == "" {
		return "", errors.New("token has no subject")
	}
	return claims.Subject, nil
}

// Optional для публичных маршрутов: без заголовка запрос проходит анонимно,
// с заголовком токен проверяется так же, как в Middleware
func (a *Auth) Optional(next http.Handler) http.Handler {
	strict := a.Middleware(next)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") == "" {
			next.ServeHTTP(w, r)
			return
		}
		strict.ServeHTTP(w, r)
	})
}
