package middleware

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/m04kA/SMC-ParkingService/internal/api/handlers"
)

const msgForbidden = "доступ запрещен"

// SelfOnly пропускает запрос, только если {param} в пути совпадает с пользователем из токена
// Должен стоять после Auth
func SelfOnly(param string, logger Logger) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			callerID, ok := GetUserID(r.Context())
			if !ok {
				handlers.RespondUnauthorized(w, msgMissingToken)
				return
			}

			if target := mux.Vars(r)[param]; target != callerID {
				logger.Warn("SelfOnly: access denied: %s %s, caller=%s", r.Method, r.URL.Path, callerID)
				handlers.RespondForbidden(w, msgForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
