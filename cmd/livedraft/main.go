package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/Jaykim98z/jandibat-live-draft/config"
	"github.com/Jaykim98z/jandibat-live-draft/internal/coordinator"
	"github.com/Jaykim98z/jandibat-live-draft/internal/handlers"
	"github.com/Jaykim98z/jandibat-live-draft/internal/models"
	"github.com/Jaykim98z/jandibat-live-draft/internal/profile"
	"github.com/Jaykim98z/jandibat-live-draft/internal/store"
	"github.com/Jaykim98z/jandibat-live-draft/internal/token"
)

func main() {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	zerolog.SetGlobalLevel(zerolog.InfoLevel)

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load config")
	}

	st, err := openStore(ctx, cfg)
	if err != nil {
		log.Fatal().Err(err).Str("backend", cfg.Store).Msg("failed to open store")
	}
	defer st.Close()
	log.Info().Str("backend", cfg.Store).Msg("store ready")

	tokens := token.NewIssuer(cfg.TokenSecret, models.RoomTTL)
	hub := handlers.NewHub()
	coord := coordinator.New(st, hub, coordinator.NewRegistry())

	roomHandler := handlers.NewRoomHandler(st, tokens)
	profileHandler := handlers.NewProfileHandler(profile.NewClient(cfg.Profile.BaseURL))
	wsHandler := handlers.NewWSHandler(coord, tokens)

	if cfg.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.Default()
	router.Use(handlers.OriginFilter(cfg.AllowedOrigins))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := router.Group("/api")
	{
		api.POST("/rooms", roomHandler.Create)
		api.GET("/rooms", roomHandler.List)
		api.GET("/rooms/:code", roomHandler.Get)
		api.POST("/rooms/:code/join", roomHandler.Join)

		api.GET("/profiles/:handle", profileHandler.Get)
		api.GET("/profiles/:handle/validate", profileHandler.Validate)
	}

	router.GET("/ws", wsHandler.Handle)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	go func() {
		log.Info().Str("addr", srv.Addr).Msg("live draft server started")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("server error")
		}
	}()

	<-ctx.Done()
	log.Info().Msg("shutting down")
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
	}
	log.Info().Msg("server exited")
}

func openStore(ctx context.Context, cfg *config.Config) (store.Store, error) {
	if cfg.Store == "buntdb" {
		return store.NewBunt(cfg.BuntDB.Path)
	}
	return store.NewRedis(ctx, cfg.Redis)
}
