package utils

import (
	"log/slog"
	"net/http"
	"os"
	"runtime/debug"
	"strconv"
)

// PanicRecoveryMiddleware is an HTTP middleware that recovers from panics
// It logs the error and stack trace, then returns a 500 Internal Server Error
func PanicRecoveryMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		defer func() {
			if err := recover(); err != nil {
				slog.Error("handler panic recovered", "error", err, "stack", string(debug.Stack()))
				RespondWithError(w, http.StatusInternalServerError, "Internal server error")
			}
		}()
		next.ServeHTTP(w, r)
	})
}

// CORSMiddleware creates a CORS middleware
func CORSMiddleware() func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With, Accept, Origin")
			w.Header().Set("Access-Control-Max-Age", getCORSMaxAge())

			// Handle preflight (OPTIONS) requests
			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}

// getCORSMaxAge gets the CORS max age from environment variable or returns default
func getCORSMaxAge() string {
	if value := os.Getenv("CORS_MAX_AGE"); value != "" {
		if _, err := strconv.Atoi(value); err == nil {
			return value
		}
	}
	return "86400" // Default: 24 hours
}
