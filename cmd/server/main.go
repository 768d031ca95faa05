// @title           Genpire Backend API
// @version         1.0.0
// @description     Backend API for AI-assisted product design: progressive multi-view image generation with a front-view approval gate, per-view revision history, versioned 3D model generation, and print-ready artwork packaging.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"context"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"genpire-backend/internal/clients/cloudconvert"
	"genpire-backend/internal/clients/gemini"
	"genpire-backend/internal/clients/meshy"
	"genpire-backend/internal/clients/openai"
	"genpire-backend/internal/config"
	"genpire-backend/internal/database"
	"genpire-backend/internal/handlers"
	"genpire-backend/internal/logger"
	"genpire-backend/internal/middleware"
	"genpire-backend/internal/services"
	"genpire-backend/internal/supabase"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLog, err := logger.New(cfg.Environment, logger.FlushMode(cfg.LogFlushMode))
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer appLog.Sync()

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	// External AI clients
	openaiClient := openai.NewClient(cfg.OpenAIAPIKey, cfg.OpenAIModel)
	geminiClient, err := gemini.NewClient(context.Background(), cfg.GeminiAPIKey, cfg.GeminiModel)
	if err != nil {
		appLog.Fatal("failed to initialize gemini client", "error", err)
	}
	meshyClient := meshy.NewClient(cfg.MeshyAPIBaseURL, cfg.MeshyAPIKey)
	convertClient := cloudconvert.NewClient(cfg.CloudConvertBaseURL, cfg.CloudConvertAPIKey)

	// Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		appLog.Fatal("failed to initialize supabase client", "error", err)
	}
	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		appLog.Fatal("failed to initialize storage client", "error", err)
	}
	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Database
	if cfg.DatabaseURL == "" {
		appLog.Fatal("DATABASE_URL is required")
	}
	migrator, err := database.NewMigrator(cfg.DatabaseURL, appLog)
	if err != nil {
		appLog.Fatal("failed to initialize migrator", "error", err)
	}
	if err := migrator.Run(); err != nil {
		appLog.Fatal("migration failed", "error", err)
	}
	migrator.Close()

	store, err := database.NewStore(cfg.DatabaseURL)
	if err != nil {
		appLog.Fatal("failed to connect to database", "error", err)
	}
	defer store.Close()

	// Services
	viewService := services.NewViewService(store, store, geminiClient, openaiClient, storageClient, realtimeClient, appLog)
	revisionService := services.NewRevisionService(store, viewService, realtimeClient, appLog)
	model3DService := services.NewModel3DService(store, meshyClient, realtimeClient, appLog)
	printPackService := services.NewPrintPackService(geminiClient, openaiClient, convertClient, storageClient, realtimeClient, appLog)
	pdfScanService := services.NewPDFScanService(storageClient, appLog)

	// Handlers
	viewHandler := handlers.NewViewHandler(viewService)
	revisionHandler := handlers.NewRevisionHandler(revisionService)
	model3DHandler := handlers.NewModel3DHandler(model3DService)
	printPackHandler := handlers.NewPrintPackHandler(printPackService)
	pdfScannerHandler := handlers.NewPDFScannerHandler(pdfScanService)
	webhookHandler := handlers.NewWebhookHandler(cfg, model3DService)

	router := gin.Default()
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthCheck)

	// Webhook (no auth, token-verified in the handler)
	router.POST("/webhooks/meshy", webhookHandler.HandleMeshy)

	// Legacy-path endpoints, same auth as /api/v1
	legacy := router.Group("/api")
	legacy.Use(middleware.AuthMiddleware(cfg))
	legacy.POST("/generate-3d-model", model3DHandler.Generate)
	legacy.GET("/generate-3d-model", model3DHandler.Status)
	legacy.POST("/pdf-scanner", pdfScannerHandler.Scan)
	legacy.GET("/pdf-scanner", pdfScannerHandler.MethodNotAllowed)

	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Progressive view generation
	api.POST("/products/:product_id/views/front", viewHandler.GenerateFront)
	api.POST("/approvals/:approval_id/decision", viewHandler.Decide)
	api.POST("/products/:product_id/views/fan-out", viewHandler.FanOut)

	// Revision history
	api.GET("/products/:product_id/revisions", revisionHandler.List)
	api.POST("/products/:product_id/revisions/edit", revisionHandler.ApplyEdit)
	api.POST("/products/:product_id/revisions/initial", revisionHandler.SaveInitial)
	api.POST("/products/:product_id/revisions/:revision_id/activate", revisionHandler.Activate)

	// 3D model versions
	api.GET("/3d-models/:source_type/:source_id", model3DHandler.ListVersions)
	api.POST("/3d-models/versions/:model_id/activate", model3DHandler.Activate)
	api.DELETE("/3d-models/versions/:model_id", model3DHandler.Delete)

	// Print artwork
	api.POST("/products/:product_id/print-pack", printPackHandler.Build)

	appLog.Info("server starting", "port", cfg.Port, "environment", cfg.Environment)
	if err := http.ListenAndServe(":"+cfg.Port, router); err != nil {
		appLog.Fatal("server exited", "error", err)
	}
}
