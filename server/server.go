package server

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lissants/berkaraoke/config"
	"github.com/lissants/berkaraoke/core/auth"
	"github.com/lissants/berkaraoke/core/pipeline"
	"github.com/lissants/berkaraoke/db"
	"github.com/lissants/berkaraoke/logger"
	"github.com/lissants/berkaraoke/repository"
	"github.com/lissants/berkaraoke/storage"

	"github.com/gorilla/mux"
)

// Start initializes collaborators, wires the pipeline, and runs the HTTP
// server until interrupted.
func Start() {
	cfg := config.Load()

	logger.InitLogger(logger.Config{
		Level:      logger.LogLevel(cfg.LogLevel),
		OutputPath: cfg.LogOutput,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	})

	auth.SetSecret(cfg.JWTSecret)

	server := &http.Server{
		Addr:         cfg.ListenAddr,
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	if err := storage.InitMinio(cfg); err != nil {
		logger.Fatal("Failed to initialize MinIO", logger.ErrorField(err))
	}

	if err := db.ConnectDB(cfg); err != nil {
		logger.Fatal("Failed to connect to database", logger.ErrorField(err))
	}
	defer db.DB.Close()

	if err := db.ConnectRedis(cfg); err != nil {
		logger.Fatal("Failed to connect to Redis", logger.ErrorField(err))
	}
	defer db.CloseRedis()

	if err := db.InitDB(); err != nil {
		logger.Fatal("Failed to initialize database", logger.ErrorField(err))
	}

	userRepo := repository.NewMySQLUserRepository(db.DB)
	trackRepo := repository.NewMySQLTrackRepository(db.DB)
	recordingRepo := repository.NewMySQLRecordingRepository(db.DB)

	store := storage.NewMinioStore(cfg)
	analysis := pipeline.NewAnalysisClient(cfg.AnalysisServiceURL)
	identity := &contextIdentity{users: userRepo}

	pl := pipeline.New(
		pipeline.NewFFmpegCapture(cfg),
		pipeline.NewFFplayEngine(cfg),
		store,
		recordingRepo,
		trackRepo,
		analysis,
		identity,
		cfg.RequiredSongIDs,
	)

	apiHandler := NewAPIHandler(cfg, pl, userRepo, trackRepo, recordingRepo, store)

	router := mux.NewRouter()

	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Access-Control-Allow-Origin", "*")
			w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

			if r.Method == http.MethodOptions {
				w.WriteHeader(http.StatusOK)
				return
			}

			next.ServeHTTP(w, r)
		})
	})

	// Auth
	router.HandleFunc("/api/auth/login", apiHandler.LoginHandler).Methods(http.MethodPost)
	router.HandleFunc("/api/auth/register", apiHandler.RegisterHandler).Methods(http.MethodPost)

	// Catalog
	router.HandleFunc("/api/tracks", apiHandler.GetTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/tracks/designated", apiHandler.GetDesignatedTracksHandler).Methods(http.MethodGet)
	router.HandleFunc("/api/filters/options", apiHandler.FilterOptionsHandler).Methods(http.MethodGet)

	// Recorder and preview
	router.HandleFunc("/api/recorder/start", apiHandler.AuthMiddleware(apiHandler.StartRecordingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recorder/stop", apiHandler.AuthMiddleware(apiHandler.StopRecordingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recorder/discard", apiHandler.AuthMiddleware(apiHandler.DiscardRecordingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/preview/play", apiHandler.AuthMiddleware(apiHandler.PlayPreviewHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/preview/stop", apiHandler.AuthMiddleware(apiHandler.StopPreviewHandler)).Methods(http.MethodPost)

	// Submission pipeline
	router.HandleFunc("/api/recordings/{song_id}/save", apiHandler.AuthMiddleware(apiHandler.SaveRecordingHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recordings/submit", apiHandler.AuthMiddleware(apiHandler.SubmitBatchHandler)).Methods(http.MethodPost)
	router.HandleFunc("/api/recordings/status", apiHandler.AuthMiddleware(apiHandler.SubmissionStatusHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/recordings", apiHandler.AuthMiddleware(apiHandler.ListRecordingsHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/storage/objects", apiHandler.AuthMiddleware(apiHandler.ListStorageObjectsHandler)).Methods(http.MethodGet)

	// Filter selection
	router.HandleFunc("/api/filters", apiHandler.AuthMiddleware(apiHandler.GetFiltersHandler)).Methods(http.MethodGet)
	router.HandleFunc("/api/filters", apiHandler.AuthMiddleware(apiHandler.SetFiltersHandler)).Methods(http.MethodPut)

	// Recorder event stream
	router.HandleFunc("/ws/recorder", apiHandler.RecorderEventsHandler)

	server.Handler = router

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)

	go func() {
		logger.Info("Server starting", logger.String("addr", cfg.ListenAddr))
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("Failed to start server", logger.ErrorField(err))
		}
	}()

	<-stop
	logger.Info("Shutting down server")

	// A live capture or preview must not outlive the process.
	pl.Discard()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		logger.Fatal("Server forced to shutdown", logger.ErrorField(err))
	}

	logger.Info("Server stopped")
}
