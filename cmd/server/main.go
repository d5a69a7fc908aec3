package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/nirmalhandloom/storefront/internal/apiclient"
	"github.com/nirmalhandloom/storefront/internal/catalog"
	"github.com/nirmalhandloom/storefront/internal/checkout"
	"github.com/nirmalhandloom/storefront/internal/config"
	"github.com/nirmalhandloom/storefront/internal/db"
	"github.com/nirmalhandloom/storefront/internal/events"
	"github.com/nirmalhandloom/storefront/internal/gateway"
	"github.com/nirmalhandloom/storefront/internal/httpserver"
	"github.com/nirmalhandloom/storefront/internal/logging"
	loggingmw "github.com/nirmalhandloom/storefront/internal/middleware/logging"
	"github.com/nirmalhandloom/storefront/internal/search"
	"github.com/nirmalhandloom/storefront/internal/session"
	"github.com/nirmalhandloom/storefront/internal/storage"
	"github.com/nirmalhandloom/storefront/internal/store"
)

func main() {
	cfg := config.Load()
	config.MustBaseURL(cfg.APIURL, "API_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)

	initCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	gdb, err := db.Open(initCtx, cfg.StorageDSN)
	if err != nil {
		cancel()
		log.Fatalf("storage init error: %v", err)
	}
	kv, err := storage.NewGormKV(gdb)
	if err != nil {
		cancel()
		log.Fatalf("storage migrate error: %v", err)
	}
	sqlDB, err := gdb.DB()
	if err != nil {
		cancel()
		log.Fatalf("db() error: %v", err)
	}

	var producer *events.Producer
	if len(cfg.KafkaBrokers) > 0 {
		producer = events.NewProducer(cfg.KafkaBrokers)
	}
	relay := events.NewRelay(producer, 256, logger)

	sess := session.New(initCtx, kv, session.WithLogger(logger))
	client := apiclient.NewClient(cfg.APIURL, cfg.HTTPTimeout, sess)

	st := store.New(initCtx, kv, store.WithLogger(logger))
	st.Subscribe(relay.StoreListener("storefront"))

	catalogOpts := []catalog.Option{catalog.WithLogger(logger)}
	if cfg.ESURL != "" {
		sc, err := search.NewClient(initCtx, search.Config{
			URL:      cfg.ESURL,
			User:     cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		}, logger)
		if err != nil {
			logger.Warn("search_disabled", "error", err)
		} else {
			catalogOpts = append(catalogOpts, catalog.WithSearcher(sc))
		}
	}
	cancel()

	cat, err := catalog.New(client, catalogOpts...)
	if err != nil {
		log.Fatalf("catalog init error: %v", err)
	}

	orch := checkout.New(checkout.Config{
		KeyID:       cfg.RazorpayKeyID,
		StoreName:   cfg.StoreName,
		Description: cfg.StoreTagline,
		Image:       cfg.StoreLogo,
		ThemeColor:  cfg.ThemeColor,
		IdleTTL:     cfg.CheckoutIdleTTL,
	}, checkout.Deps{
		Cart:      st,
		Addresses: client,
		Orders:    client,
		Gateway:   gateway.NewWidget(cfg.RazorpayScriptURL, cfg.HTTPTimeout),
		Users:     sess,
		Notifier:  relay,
		Logger:    logger,
	})

	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go orch.Run(sweepCtx, time.Minute)

	e := echo.New()
	e.HideBanner = true
	e.Server.ReadTimeout = 10 * time.Second
	e.Server.WriteTimeout = 15 * time.Second
	e.Server.ReadHeaderTimeout = 3 * time.Second
	e.Pre(middleware.RemoveTrailingSlash())
	e.Use(
		middleware.Recover(),
		middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}),
		loggingmw.RequestLogger(logger),
	)

	httpserver.Register(e, &httpserver.Deps{
		Storage:  sqlDB,
		Session:  sess,
		CSRF:     cfg.CSRFEnabled,
		Catalog:  &httpserver.CatalogHTTP{Catalog: cat},
		Cart:     &httpserver.CartHTTP{Store: st},
		Auth:     &httpserver.AuthHTTP{Auth: &session.Auth{Session: sess, Backend: client}},
		Account:  &httpserver.AccountHTTP{Client: client},
		Checkout: &httpserver.CheckoutHTTP{Orch: orch},
		Admin:    &httpserver.AdminHTTP{Client: client},
	})

	go func() {
		addr := fmt.Sprintf(":%d", cfg.ServerPort)
		logger.Info("server_start", "addr", addr)
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("echo start: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	logger.Info("shutting_down")
	stopSweep()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := e.Shutdown(shutdownCtx); err != nil {
		logger.Error("echo_shutdown", "error", err)
	}
	if err := st.Close(shutdownCtx); err != nil {
		logger.Error("store_close", "error", err)
	}
	if err := relay.Close(shutdownCtx); err != nil {
		logger.Error("relay_close", "error", err)
	}
	if err := sqlDB.Close(); err != nil {
		logger.Error("db_close", "error", err)
	}

	logger.Info("shutdown_complete")
}
