package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/clipnest/backend/auth"
	"github.com/clipnest/backend/config"
	"github.com/clipnest/backend/content"
	"github.com/clipnest/backend/controllers"
	"github.com/clipnest/backend/database"
	"github.com/clipnest/backend/events"
	"github.com/clipnest/backend/interaction"
	"github.com/clipnest/backend/logging"
	"github.com/clipnest/backend/media"
	"github.com/clipnest/backend/metrics"
	"github.com/clipnest/backend/middleware"
	"github.com/clipnest/backend/subscription"
	"github.com/clipnest/backend/utils"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func main() {
	if err := run(); err != nil {
		slog.Error("server stopped", "error", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	logger := logging.Init(logging.Config{Level: cfg.LogLevel, Format: cfg.LogFormat})

	ctx := context.Background()
	client, err := database.Connect(ctx, cfg.MongoURI)
	if err != nil {
		return fmt.Errorf("database connection failed: %w", err)
	}
	defer func() {
		if err := client.Disconnect(context.Background()); err != nil {
			logger.Warn("database disconnect failed", "error", err)
		}
	}()
	db := client.Database(cfg.DatabaseName)
	if err := database.EnsureIndexes(ctx, db); err != nil {
		return fmt.Errorf("ensure indexes failed: %w", err)
	}
	repos := database.NewMongoRepositories(db)

	m := metrics.New(nil)
	blobs, closeBlobs, err := newBlobStore(ctx, cfg)
	if err != nil {
		return fmt.Errorf("blob store setup failed: %w", err)
	}
	defer closeBlobs()
	blobs = m.InstrumentStore(blobs)

	publisher := events.Connect(cfg.NATSURL, logger)
	defer publisher.Close()

	cleanup := media.Cleanup(blobs, logger)
	tokens := auth.NewService(repos.Users, auth.Options{
		AccessSecret:  cfg.AccessTokenSecret,
		AccessTTL:     cfg.AccessTokenTTL,
		RefreshSecret: cfg.RefreshTokenSecret,
		RefreshTTL:    cfg.RefreshTokenTTL,
		StoreTimeout:  cfg.StoreTimeout,
	})
	resolver := interaction.NewResolver(repos, cfg.StoreTimeout)
	likes := interaction.NewLikeEngine(repos, resolver, interaction.LikeEngineOptions{
		Events: publisher, Logger: logger, Timeout: cfg.StoreTimeout,
	})
	comments := interaction.NewCommentManager(repos, resolver, interaction.CommentManagerOptions{
		Events: publisher, Cleanup: cleanup, Logger: logger, Timeout: cfg.StoreTimeout,
	})
	graph := subscription.NewGraph(repos, subscription.Options{
		Events: publisher, Logger: logger, Timeout: cfg.StoreTimeout,
	})
	videosAndPosts := content.NewService(repos, comments, likes, content.Options{
		Cleanup: cleanup, Logger: logger, Timeout: cfg.StoreTimeout,
	})

	h := controllers.New(controllers.Deps{
		Users:     repos.Users,
		Tokens:    tokens,
		Likes:     likes,
		Comments:  comments,
		Graph:     graph,
		Content:   videosAndPosts,
		Media:     blobs,
		Validator: media.NewValidator(cfg.AllowedFileExtensions, cfg.AllowedMimeTypes, cfg.MaxUploadBytes()),
		Cleanup:   cleanup,
		Cookies:   utils.CookieOptions{Secure: cfg.CookieSecure, Domain: cfg.CookieDomain},
		Limits:    utils.QueryLimits{Default: cfg.DefaultReadQueryLimit, Max: cfg.ReadQueryMaxLimit},
		Timeout:   cfg.StoreTimeout,
		Logger:    logger,
	})

	r, err := newEngine(cfg, logger, m)
	if err != nil {
		return err
	}
	session := middleware.NewSession(tokens, repos.Users, cfg.StoreTimeout)
	authLimit := middleware.RateLimit(middleware.NewIPRateLimiter(cfg.AuthRateLimit, time.Minute, cfg.AuthRateBurst, 10*time.Minute))
	h.Mount(r.Group("/api/v1"), session, authLimit)

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}
	serveErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err, failed := <-serveErr:
		if failed {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	case <-quit:
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown failed: %w", err)
	}
	return nil
}

// newEngine builds the router with the global middleware and the ping and
// metrics routes. Forwarding headers are only honoured from TrustedProxies.
func newEngine(cfg config.Config, logger *slog.Logger, m *metrics.Metrics) (*gin.Engine, error) {
	r := gin.New()
	var proxies []string
	if len(cfg.TrustedProxies) > 0 {
		proxies = cfg.TrustedProxies
	}
	if err := r.SetTrustedProxies(proxies); err != nil {
		return nil, fmt.Errorf("invalid TRUSTED_PROXIES: %w", err)
	}
	r.MaxMultipartMemory = cfg.MaxUploadBytes()

	allowedOrigins := map[string]bool{}
	for _, origin := range cfg.AllowedOrigins {
		allowedOrigins[origin] = true
	}
	logger.Info("cors configured", "origins", cfg.AllowedOrigins, "trusted_proxies", proxies)
	r.Use(cors.New(cors.Config{
		AllowOriginFunc:  func(origin string) bool { return allowedOrigins[origin] },
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	r.Use(middleware.RequestLogger(logger))
	r.Use(gin.Recovery())
	r.Use(m.Middleware())

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	r.GET("/metrics", m.Handler())
	return r, nil
}

// newBlobStore builds the store selected by BLOB_PROVIDER. Without a provider
// uploads are rejected.
func newBlobStore(ctx context.Context, cfg config.Config) (media.Store, func(), error) {
	switch cfg.BlobProvider {
	case config.ProviderGCS:
		store, err := media.NewGCSStore(ctx, cfg.GCSBucket, cfg.GCSCredentialsFile)
		if err != nil {
			return nil, nil, err
		}
		return store, func() { _ = store.Close() }, nil
	case config.ProviderR2:
		store, err := media.NewR2Store(ctx, media.R2Config{
			Bucket:          cfg.R2Bucket,
			Endpoint:        cfg.R2Endpoint,
			AccessKeyID:     cfg.R2AccessKeyID,
			SecretAccessKey: cfg.R2SecretAccessKey,
			PublicDomain:    cfg.R2PublicDomain,
		})
		if err != nil {
			return nil, nil, err
		}
		return store, func() {}, nil
	default:
		return media.Noop(), func() {}, nil
	}
}
