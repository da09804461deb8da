package middleware

import (
	"net/http"
	"strings"

	"github.com/mvavassori/picostats/config"
	"github.com/mvavassori/picostats/utils"
)

// DashboardAuth guards the stats surface with a bearer token. When no JWT
// secret or password hash is configured the guard is a pass-through, so
// single-operator deployments behind a trusted proxy keep working without a
// login step.
func DashboardAuth(cfg *config.Config) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if cfg.JWTSecret == "" || cfg.DashboardPasswordHash == "" {
				next.ServeHTTP(w, r)
				return
			}

			tokenString := r.Header.Get("Authorization")
			if tokenString == "" {
				http.Error(w, "Authorization header required", http.StatusUnauthorized)
				return
			}

			parts := strings.Split(tokenString, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				http.Error(w, "Invalid Authorization header", http.StatusUnauthorized)
				return
			}

			token, err := utils.ValidateToken(cfg.JWTSecret, parts[1])
			if err != nil || !token.Valid {
				http.Error(w, "Invalid token", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
