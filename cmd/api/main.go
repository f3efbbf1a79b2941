package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/pomo1231/solbombs2/internal/config"
	"github.com/pomo1231/solbombs2/internal/handlers"
	"github.com/pomo1231/solbombs2/internal/middleware"
	"github.com/pomo1231/solbombs2/internal/recorder"
	"github.com/pomo1231/solbombs2/internal/scheduler"
	"github.com/pomo1231/solbombs2/internal/services"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("Failed to load config")
	}
	setupLogger(cfg)

	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid config")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	programID, err := cfg.ProgramAddress()
	if err != nil {
		log.Fatal().Err(err).Msg("Invalid program id")
	}

	var (
		host         services.Host
		redisService *services.RedisService
	)
	switch cfg.Store {
	case config.StoreRedis:
		redisService, err = services.NewRedisService(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("Failed to connect to Redis")
		}
		defer redisService.Close()
		host = redisService
	default:
		host = services.NewMemoryHost()
	}

	var rec recorder.Recorder = recorder.NewNoopRecorder()
	if cfg.SQLitePath != "" {
		sqliteRec, err := recorder.NewSQLiteRecorder(cfg.SQLitePath)
		if err != nil {
			log.Fatal().Err(err).Str("path", cfg.SQLitePath).Msg("Failed to open settlement history")
		}
		rec = sqliteRec
	}
	defer rec.Close()

	gameEngine := services.NewGameEngine(host, services.NewSeedDeriver(programID),
		services.WithDeposit(services.StorageDeposit(cfg.StorageRate)),
		services.WithRecorder(rec),
	)
	wsHandler := handlers.NewWebSocketHandler(gameEngine)
	gameEngine.SetBroadcaster(wsHandler)

	if cfg.TreasurySeed > 0 {
		if _, err := gameEngine.SeedTreasury(ctx, cfg.TreasurySeed); err != nil {
			log.Fatal().Err(err).Msg("Failed to seed treasury")
		}
	}

	sched := scheduler.NewScheduler(ctx, gameEngine)
	if err := sched.RegisterAll(cfg.SnapshotCron); err != nil {
		log.Fatal().Err(err).Msg("Failed to register scheduled jobs")
	}
	sched.Start()
	defer sched.Stop()

	jwtService := services.NewJWTService(cfg)
	authHandler := handlers.NewAuthHandler(jwtService)
	gameHandler := handlers.NewGameHandler(gameEngine)

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.Default()

	router.Use(cors.New(cors.Config{
		AllowAllOrigins: true,
		AllowMethods:    []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:    []string{"Content-Type", "Authorization"},
		MaxAge:          12 * time.Hour,
	}))

	router.POST("/auth/token", authHandler.IssueToken)
	router.GET("/api/treasury", gameHandler.GetTreasury)

	if !cfg.IsProduction() {
		router.POST("/dev/fund", gameHandler.Fund)
	}

	protected := router.Group("/api")
	protected.Use(middleware.AuthMiddleware(jwtService))
	if redisService != nil {
		protected.Use(middleware.RateLimitMiddleware(redisService))
	}
	{
		protected.GET("/ws", wsHandler.HandleWebSocket)
		protected.GET("/balance", gameHandler.GetBalance)
		protected.GET("/history", gameHandler.GetHistory)
		protected.GET("/stats", gameHandler.GetStats)

		solo := protected.Group("/solo")
		{
			solo.POST("/start", gameHandler.StartSolo)
			solo.POST("/reveal", gameHandler.RevealSafe)
			solo.POST("/cashout", gameHandler.CashOut)
			solo.POST("/loss", gameHandler.ResolveLoss)
			solo.GET("/:owner/:nonce", gameHandler.GetSolo)
		}

		pvp := protected.Group("/pvp")
		{
			pvp.POST("/start", gameHandler.StartPvp)
			pvp.POST("/robot", gameHandler.ConvertToRobot)
			pvp.POST("/join", gameHandler.JoinPvp)
			pvp.POST("/resolve", gameHandler.ResolvePvp)
			pvp.GET("/:creator/:nonce", gameHandler.GetPvp)
		}
	}

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().
			Str("port", cfg.Port).
			Str("store", cfg.Store).
			Str("treasury", gameEngine.Treasury().String()).
			Msg("Server starting")
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal().Err(err).Msg("Failed to start server")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("Server shutdown failed")
	}
}

func setupLogger(cfg *config.Config) {
	zerolog.LevelFieldName = "severity"
	zerolog.TimestampFieldName = "time"
	zerolog.TimeFieldFormat = time.RFC3339Nano

	if cfg.IsProduction() {
		zerolog.SetGlobalLevel(zerolog.InfoLevel)
		return
	}
	zerolog.SetGlobalLevel(zerolog.DebugLevel)
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339})
}
