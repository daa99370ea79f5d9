package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/shopease/storefront/internal/catalog"
	"github.com/shopease/storefront/internal/handlers"
	"github.com/shopease/storefront/internal/platform/auth"
	"github.com/shopease/storefront/internal/platform/config"
	"github.com/shopease/storefront/internal/platform/observability"
	"github.com/shopease/storefront/internal/services"
	"github.com/shopease/storefront/internal/storage"
)

func main() {
	startedAt := time.Now().UTC()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	baseLogger, err := observability.NewLogger(cfg.Logging.Level)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("storefront")

	index, err := loadCatalog(cfg.Catalog)
	if err != nil {
		logger.Fatal("failed to load catalog", zap.Error(err))
	}
	logger.Info("catalog loaded", zap.Int("products", index.Len()))

	// One shared origin with a single browsing context: the server process
	// plays the part of one open tab. Additional contexts would model more
	// tabs against the same stored wishlist.
	origin := storage.NewOrigin()
	tab := origin.OpenContext()
	defer tab.Close()

	notificationCenter := services.NewNotificationCenter(services.NotificationCenterDeps{
		Duration: cfg.Notifications.Duration,
		Logger:   logger.Named("notifications"),
	})
	defer notificationCenter.Close()

	cartService := services.NewCartService(services.CartServiceDeps{
		Notifier: notificationCenter,
		Logger:   logger.Named("cart"),
	})

	wishlistService, err := services.NewWishlistService(services.WishlistServiceDeps{
		Storage:  tab,
		Key:      cfg.Wishlist.StorageKey,
		Notifier: notificationCenter,
		Logger:   logger.Named("wishlist"),
	})
	if err != nil {
		logger.Fatal("failed to initialise wishlist service", zap.Error(err))
	}

	syncBridge, err := services.NewWishlistSyncBridge(services.WishlistSyncBridgeDeps{
		Storage:  tab,
		Wishlist: wishlistService,
		Key:      cfg.Wishlist.StorageKey,
		Logger:   logger.Named("wishlist_sync"),
	})
	if err != nil {
		logger.Fatal("failed to initialise wishlist sync bridge", zap.Error(err))
	}
	defer syncBridge.Close()

	badgeLogger := logger.Named("wishlist_badge")
	cancelBadge := syncBridge.Subscribe(func(snapshot services.WishlistSnapshot) {
		badgeLogger.Info("wishlist badge updated", zap.Int("count", snapshot.Count))
	})
	defer cancelBadge()

	sessionProvider := auth.NewSessionProvider(auth.SessionProviderDeps{
		CookieName:    cfg.Session.CookieName,
		SigningSecret: cfg.Session.SigningSecret,
		Logger:        logger.Named("auth"),
	})

	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(),
		sessionProvider.Middleware(),
	}

	router := handlers.NewRouter(
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(handlers.NewHealthHandlers(handlers.WithHealthStartedAt(startedAt))),
		handlers.WithCatalogRoutes(handlers.NewCatalogHandlers(index, cfg.Catalog.FeaturedCount).Routes),
		handlers.WithCartRoutes(handlers.NewCartHandlers(cartService, index).Routes),
		handlers.WithWishlistRoutes(handlers.NewWishlistHandlers(wishlistService).Routes),
		handlers.WithNotificationRoutes(handlers.NewNotificationHandlers(notificationCenter).Routes),
		handlers.WithMeRoutes(handlers.NewMeHandlers().Routes),
	)

	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("shopease storefront listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func loadCatalog(cfg config.CatalogConfig) (*catalog.Index, error) {
	if cfg.Path != "" {
		return catalog.LoadFile(cfg.Path)
	}
	return catalog.LoadDefault()
}
