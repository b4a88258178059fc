// @title           Poster Generation Backend API
// @version         1.0.0
// @description     Backend API for generating promotional poster images for small businesses. Handles daily generation quotas, quota-gated image generation through an external provider, re-hosting of results in Supabase Storage, and per-user generation records.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey Bearer
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and JWT token.

package main

import (
	"log"
	"net/http"

	"poster-gen-backend/internal/config"
	"poster-gen-backend/internal/database"
	"poster-gen-backend/internal/generation"
	"poster-gen-backend/internal/handlers"
	"poster-gen-backend/internal/imagegen"
	"poster-gen-backend/internal/middleware"
	"poster-gen-backend/internal/quota"
	"poster-gen-backend/internal/services"
	"poster-gen-backend/internal/supabase"

	"github.com/gin-gonic/gin"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	// Set Gin mode
	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	dbURL := cfg.DatabaseURL
	if dbURL == "" {
		log.Println("Warning: DATABASE_URL not set. Running with in-memory dosage and state stores.")
		log.Println("Please set DATABASE_URL environment variable with your Supabase PostgreSQL connection string")
	}

	// Initialize image provider client
	providerClient := imagegen.NewClient(cfg.ImageAPIBaseURL, cfg.ImageAPIKey, cfg.ImageAPIModel)

	// Initialize Supabase clients
	supabaseClient, err := supabase.NewClient(cfg)
	if err != nil {
		log.Fatalf("Failed to initialize Supabase client: %v", err)
	}

	storageClient, err := supabase.NewStorageClient(cfg.SupabaseURL, cfg.SupabasePublishableKey, cfg.SupabaseStorageBucket)
	if err != nil {
		log.Fatalf("Failed to initialize storage client: %v", err)
	}

	realtimeClient := supabase.NewRealtimeClient(supabaseClient.Supabase)

	// Create database client for direct queries; fall back to in-memory
	// stores when the database is unavailable.
	var dbClient *supabase.DatabaseClient
	var dosageStore quota.Store
	var stateStore generation.StateStore
	if dbURL != "" {
		dbClient, err = supabase.NewDatabaseClient(dbURL)
		if err != nil {
			log.Printf("Warning: Failed to initialize database client: %v", err)
			log.Println("Generation records will not be persisted. Please configure DATABASE_URL properly.")
		} else {
			defer dbClient.Close()

			// Run migrations
			migrator, err := database.NewMigrator(dbURL)
			if err != nil {
				log.Printf("Warning: Failed to initialize migrator: %v", err)
			} else {
				defer migrator.Close()
				if err := migrator.Run(); err != nil {
					log.Printf("Warning: Migration failed: %v", err)
				} else {
					log.Println("Migrations completed successfully")
				}
			}
		}
	}

	if dbClient != nil {
		dosageStore = supabase.NewDosageStore(dbClient, cfg.DailyDosage)
		stateStore = supabase.NewStateStore(dbClient)
	} else {
		dosageStore = quota.NewMemoryStore(cfg.DailyDosage)
		stateStore = generation.NewMemoryStore()
	}

	// Orchestrator wiring; record persistence degrades to a no-op warning
	// path when the database is missing.
	reconciler := services.NewReconciler(storageClient)
	var recordStore services.RecordStore = dbClient
	if dbClient == nil {
		recordStore = services.NoopRecordStore{}
	}
	orchestrator := services.NewOrchestrator(providerClient, dosageStore, stateStore, recordStore, reconciler, realtimeClient)

	// Initialize handlers
	dosageHandler := handlers.NewDosageHandler(dosageStore)
	authHandler := handlers.NewAuthHandler(dosageStore)
	generateHandler := handlers.NewGenerateHandler(orchestrator, stateStore)
	generationsHandler := handlers.NewGenerationsHandler(dbClient)
	uploadHandler := handlers.NewUploadHandler(storageClient, cfg.PlaceholderImageURL)

	// Setup router
	router := gin.Default()

	// Middleware
	router.Use(gin.Logger())
	router.Use(gin.Recovery())

	// Health check (no auth)
	router.GET("/health", handlers.HealthHandler)

	// API routes
	api := router.Group("/api/v1")
	api.Use(middleware.AuthMiddleware(cfg))

	// Login bootstrap
	api.POST("/auth/verify", authHandler.Verify)

	// Dosage
	api.POST("/dosage/check", dosageHandler.Check)
	api.POST("/dosage/consume", dosageHandler.Consume)
	api.POST("/dosage/reset", dosageHandler.Reset)

	// Generation
	api.POST("/generate", generateHandler.Generate)
	api.GET("/generate/state", generateHandler.GetState)
	api.DELETE("/generate/state", generateHandler.ClearState)

	// Generation records
	api.POST("/user-generations/with-result", generationsHandler.CreateWithResult)
	api.GET("/user-generations", generationsHandler.List)
	api.PUT("/user-generations/update-download", generationsHandler.UpdateDownload)
	api.DELETE("/user-generations/:uid", generationsHandler.DeleteByUID)
	api.DELETE("/user-generations", generationsHandler.ClearAll)

	// File upload
	api.POST("/file-upload", uploadHandler.Upload)

	// Start server
	port := cfg.Port
	if port == "" {
		port = "8080"
	}

	log.Printf("Server starting on port %s", port)
	if err := http.ListenAndServe(":"+port, router); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
