package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/dcode-github/property_listing_search/controllers"
	"github.com/dcode-github/property_listing_search/logger"
	"github.com/dcode-github/property_listing_search/utils"
	"go.uber.org/zap"
)

// AuthMiddleware accepts "Authorization: Bearer <jwt>" and puts the token's
// user ID in the request context under controllers.UserIDKey.
func AuthMiddleware(validator *utils.TokenValidator, log *logger.Logger) func(http.Handler) http.Handler {
	log = log.Named("auth")
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenHeader := r.Header.Get("Authorization")
			if tokenHeader == "" {
				log.Debug("missing Authorization header", zap.String("method", r.Method), zap.String("path", r.URL.Path))
				http.Error(w, "Missing Authorization header", http.StatusUnauthorized)
				return
			}

			tokenParts := strings.Split(tokenHeader, " ")
			if len(tokenParts) != 2 || tokenParts[0] != "Bearer" {
				log.Debug("invalid Authorization header format", zap.String("method", r.Method), zap.String("path", r.URL.Path))
				http.Error(w, "Invalid Authorization header format", http.StatusUnauthorized)
				return
			}

			claims, err := validator.ValidateJWT(tokenParts[1])
			if err != nil {
				log.Info("rejected token", zap.Error(err))
				http.Error(w, "Invalid or expired token", http.StatusUnauthorized)
				return
			}

			ctx := context.WithValue(r.Context(), controllers.UserIDKey, claims.UserID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
