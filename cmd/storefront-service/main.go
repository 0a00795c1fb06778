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

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/auth"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cache"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/cart"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/catalog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/config"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/db"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/eventlog"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/events"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/forms"
	httpserver "github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/http"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/logging"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/notify"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/order"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/payment"
	"github.com/andreasstove999/ecommerce-system/storefront-service-go/internal/validate"
)

// probe adapts a check func to httpserver.HealthProbe.
type probe struct {
	name  string
	check func(ctx context.Context) error
}

func (p probe) Name() string {
	return p.name
}

func (p probe) Check(ctx context.Context) error {
	return p.check(ctx)
}

func main() {
	config.LoadDotEnv()
	cfg, err := config.Load()
	if err != nil {
		panic(err)
	}

	logger, err := logging.New(cfg.LogLevel)
	if err != nil {
		panic(err)
	}

	// money is rendered as JSON numbers
	decimal.MarshalJSONWithoutQuotes = true

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)

	err = run(ctx, cfg, logger)
	stop()
	if err != nil {
		logger.Error("storefront-service stopped", zap.Error(err))
		_ = logger.Sync()
		os.Exit(1)
	}
	_ = logger.Sync()
}

// run owns every connection it opens; returning releases them through the
// deferred closes.
func run(ctx context.Context, cfg config.Config, logger *zap.Logger) error {
	if cfg.RunMigrations {
		if _, err := db.RunMigrations(cfg.DatabaseDSN, logger); err != nil {
			return fmt.Errorf("run migrations: %w", err)
		}
	}

	pool, err := db.NewPool(ctx, cfg.DatabaseDSN)
	if err != nil {
		return fmt.Errorf("connect to postgres: %w", err)
	}
	defer pool.Close()

	var catalogCache cache.Cache = cache.Nop{ServiceName: events.ServiceName}
	if cfg.RedisAddr != "" {
		redisCache, closeCache := cache.NewRedisCache(cfg.RedisAddr, events.ServiceName)
		defer func() { _ = closeCache() }()
		catalogCache = redisCache
	}

	rabbitConn, err := events.Dial(cfg.RabbitMQURL)
	if err != nil {
		return err
	}
	defer rabbitConn.Close()

	publisher, err := events.NewPublisher(rabbitConn, eventlog.NewSequencer(pool), events.PublisherOptions{
		PublishEnveloped: cfg.PublishEnveloped,
	})
	if err != nil {
		return fmt.Errorf("create publisher: %w", err)
	}
	defer func() {
		if err := publisher.Close(); err != nil {
			logger.Warn("publisher close error", zap.Error(err))
		}
	}()

	httpClient := &http.Client{Timeout: 10 * time.Second}

	authRepo := auth.NewPostgresRepository(pool)
	authSvc := auth.NewService(authRepo, auth.NewTokenIssuer(cfg.JWTSecret, cfg.JWTTTL), logger)

	catalogSvc := catalog.NewService(catalog.NewPostgresRepository(pool), catalogCache, cfg.CatalogCacheTTL, logger)

	cartRepo := cart.NewPostgresRepository(pool, validate.MaxQuantity)
	cartSvc := cart.NewService(cartRepo, catalogSvc, logger)

	orderRepo := order.NewPostgresRepository(pool)
	orderSvc := order.NewService(orderRepo, cartRepo, publisher, logger)

	sms, err := notify.NewTwilioSender(cfg.Twilio.BaseURL, cfg.Twilio.AccountSID, cfg.Twilio.AuthToken, cfg.Twilio.From, httpClient)
	if err != nil {
		return fmt.Errorf("create sms sender: %w", err)
	}
	dispatcher := notify.NewDispatcher(
		notify.NewSMTPSender(cfg.SMTP.Addr, cfg.SMTP.Username, cfg.SMTP.Password, cfg.SMTP.From),
		sms,
		notify.NewFileRenderer(cfg.InvoiceDir),
		logger,
	)
	notifySvc := notify.NewService(orderRepo, authRepo, notify.NewPostgresRepository(pool), dispatcher, logger)

	gateway, err := payment.NewRazorpayClient(cfg.Razorpay.BaseURL, cfg.Razorpay.KeyID, cfg.Razorpay.KeySecret, httpClient)
	if err != nil {
		return fmt.Errorf("create razorpay client: %w", err)
	}
	paymentSvc := payment.NewService(pool, orderRepo, authRepo, payment.NewPostgresRepository(pool), gateway, publisher,
		payment.Keys{
			KeyID:         cfg.Razorpay.KeyID,
			KeySecret:     cfg.Razorpay.KeySecret,
			WebhookSecret: cfg.Razorpay.WebhookSecret,
		}, logger)

	uploads, err := forms.NewDiskStore(cfg.UploadDir)
	if err != nil {
		return fmt.Errorf("prepare upload dir: %w", err)
	}
	formsSvc := forms.NewService(forms.NewPostgresRepository(pool), uploads, logger)

	consumer, err := events.StartConsumer(ctx, rabbitConn, events.ConsumerOptions{
		Service:    events.ServiceName,
		RoutingKey: events.PaymentSucceededRoutingKey,
		Prefetch:   10,
	}, events.PaymentSucceededHandler(pool, eventlog.NewCheckpoints(pool, events.PaymentSucceededConsumerName), notifySvc, logger), logger)
	if err != nil {
		return fmt.Errorf("start payment succeeded consumer: %w", err)
	}
	defer func() {
		if err := consumer.Close(); err != nil {
			logger.Warn("consumer close error", zap.Error(err))
		}
	}()

	router := httpserver.NewRouter(httpserver.Deps{
		Logger:           logger,
		CORSAllowOrigins: cfg.CORSAllowOrigins,
		Auth:             authSvc,
		Catalog:          catalogSvc,
		Cart:             cartSvc,
		Orders:           orderSvc,
		Payments:         paymentSvc,
		Notifications:    notifySvc,
		Forms:            formsSvc,
		HealthProbes: []httpserver.HealthProbe{
			probe{name: "postgres", check: pool.Ping},
			probe{name: "rabbitmq", check: func(context.Context) error { return rabbitStatus(rabbitConn) }},
		},
	})

	srv := &http.Server{
		Addr:         cfg.HTTPAddr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront-service listening", zap.String("addr", cfg.HTTPAddr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	var runErr error
	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case <-consumer.Done():
		runErr = errors.New("payment succeeded consumer stopped")
	case err := <-errCh:
		runErr = fmt.Errorf("http server: %w", err)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	return runErr
}

func rabbitStatus(conn *amqp.Connection) error {
	if conn.IsClosed() {
		return amqp.ErrClosed
	}
	return nil
}
