package middleware

import (
	"context"
	"crypto/subtle"
	"net/http"

	"go.uber.org/zap"
)

const APIKeyHeader = "X-API-Key"

// APIKeyValidator decides whether an API key may call the service.
type APIKeyValidator interface {
	IsValid(ctx context.Context, key string) (bool, error)
}

// StaticAPIKeys validates against a fixed set of keys.
type StaticAPIKeys struct {
	keys [][]byte
}

// NewStaticAPIKeys returns a validator accepting exactly keys. Empty keys are ignored.
func NewStaticAPIKeys(keys []string) *StaticAPIKeys {
	s := &StaticAPIKeys{}
	for _, k := range keys {
		if k != "" {
			s.keys = append(s.keys, []byte(k))
		}
	}
	return s
}

func (s *StaticAPIKeys) IsValid(_ context.Context, key string) (bool, error) {
	candidate := []byte(key)
	valid := false
	for _, k := range s.keys {
		if subtle.ConstantTimeCompare(k, candidate) == 1 {
			valid = true
		}
	}
	return valid, nil
}

// Auth is a middleware factory that returns a new authentication middleware.
// It checks for a valid API key in the X-API-Key header.
func Auth(validator APIKeyValidator, logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			apiKey := r.Header.Get(APIKeyHeader)
			if apiKey == "" {
				logger.Warn("API key missing from request", zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Unauthorized: API key required", http.StatusUnauthorized)
				return
			}

			isValid, err := validator.IsValid(r.Context(), apiKey)
			if err != nil {
				logger.Error("failed to validate API key", zap.Error(err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			if !isValid {
				logger.Warn("invalid API key provided", zap.String("remote_addr", r.RemoteAddr))
				http.Error(w, "Unauthorized: Invalid API key", http.StatusUnauthorized)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
