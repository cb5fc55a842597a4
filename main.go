package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/enrollhub/enrollment-backend/monitoring"
	"github.com/enrollhub/enrollment-backend/shared/utils"
	v1 "github.com/enrollhub/enrollment-backend/v1"
	v1handlers "github.com/enrollhub/enrollment-backend/v1/handlers"
	v1models "github.com/enrollhub/enrollment-backend/v1/models"
)

func main() {
	// Load .env file if it exists (optional - fails silently if not found)
	_ = godotenv.Load()

	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{AddSource: true}))
	slog.SetDefault(logger)

	slog.Info("Starting Enrollment Backend initialization")

	// Initialize GORM database connection
	dbConfig := v1.NewDatabaseConfig()
	gormDB, err := v1.ConnectGormDB(dbConfig)
	if err != nil {
		slog.Error("Failed to connect to GORM database", "error", err)
		os.Exit(1)
	}

	if err := gormDB.AutoMigrate(&v1models.Member{}, &v1models.PlanPrice{}, &v1models.SuccessStory{}); err != nil {
		slog.Error("Failed to run database migrations", "error", err)
		os.Exit(1)
	}

	appConfig, err := v1.NewAppConfig()
	if err != nil {
		slog.Error("Invalid application configuration", "error", err)
		os.Exit(1)
	}

	if err := monitoring.Initialize("enrollment-backend"); err != nil {
		slog.Error("Failed to initialize metrics", "error", err)
		os.Exit(1)
	}

	// Initialize V1 handlers
	v1Handler := v1handlers.NewV1Handler(gormDB, appConfig)

	// Create a mux for API routes
	apiMux := http.NewServeMux()
	v1Handler.SetupRoutes(apiMux)

	// Apply middleware chain (CORS -> metrics) to the API mux
	corsMiddleware := utils.CORSMiddleware()
	apiHandler := corsMiddleware(monitoring.HTTPMetricsMiddleware(apiMux))

	// Create the MAIN (top-level) mux for all incoming traffic
	topLevelMux := http.NewServeMux()

	topLevelMux.Handle("/health", utils.PanicRecoveryMiddleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		type DBHealth struct {
			Status   string `json:"status"`
			Error    string `json:"error,omitempty"`
			Database string `json:"database,omitempty"`
		}
		type HealthStatus struct {
			Status    string              `json:"status"`
			Service   string              `json:"service"`
			Databases map[string]DBHealth `json:"databases"`
		}

		status := HealthStatus{
			Status:  "healthy",
			Service: "enrollment-backend",
			Databases: map[string]DBHealth{
				"v1": {Status: "unknown"},
			},
		}

		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if gormDB == nil {
			status.Databases["v1"] = DBHealth{Status: "unhealthy", Error: "GORM connection is nil"}
			status.Status = "unhealthy"
		} else {
			sqlDB, err := gormDB.DB()
			if err != nil {
				status.Databases["v1"] = DBHealth{Status: "unhealthy", Error: fmt.Sprintf("failed to get sql.DB: %v", err)}
				status.Status = "unhealthy"
			} else if err := sqlDB.PingContext(ctx); err != nil {
				status.Databases["v1"] = DBHealth{Status: "unhealthy", Error: err.Error()}
				status.Status = "unhealthy"
			} else {
				status.Databases["v1"] = DBHealth{Status: "healthy", Database: dbConfig.Database}
			}
		}

		statusCode := http.StatusOK
		if status.Status != "healthy" {
			statusCode = http.StatusServiceUnavailable
		}

		utils.RespondWithJSON(w, statusCode, status)
	})))

	topLevelMux.Handle("/metrics", monitoring.Handler())

	// All remaining traffic goes through the middleware chain
	topLevelMux.Handle("/", apiHandler)

	// Start server
	serverConfig := utils.DefaultServerConfig()
	server := utils.CreateServer(serverConfig, topLevelMux)

	// Start server in a goroutine
	go func() {
		slog.Info("Enrollment Backend starting", "port", serverConfig.Port, "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("Failed to start Enrollment Backend", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal to gracefully shutdown the server
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	slog.Info("Shutting down Enrollment Backend...")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		slog.Error("Server forced to shutdown", "error", err)
		os.Exit(1)
	}

	// Gracefully close database connection
	if gormDB != nil {
		if sqlDB, err := gormDB.DB(); err == nil {
			if err := sqlDB.Close(); err != nil {
				slog.Error("Failed to close database connection", "error", err)
			}
		}
	}

	slog.Info("Enrollment Backend exited")
}
