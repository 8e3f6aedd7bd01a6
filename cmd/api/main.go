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

	"github.com/redis/go-redis/v9"

	"github.com/diagnosis/spa-intake/internal/domain"
	"github.com/diagnosis/spa-intake/internal/export"
	"github.com/diagnosis/spa-intake/internal/http/handlers"
	"github.com/diagnosis/spa-intake/internal/http/middleware"
	"github.com/diagnosis/spa-intake/internal/http/router"
	"github.com/diagnosis/spa-intake/internal/http/site"
	"github.com/diagnosis/spa-intake/internal/notify"
	"github.com/diagnosis/spa-intake/internal/platform/mailer"
	"github.com/diagnosis/spa-intake/internal/platform/whatsapp"
	"github.com/diagnosis/spa-intake/internal/table"
	tablepg "github.com/diagnosis/spa-intake/internal/table/postgres"
	"github.com/diagnosis/spa-intake/internal/table/sheets"
	"github.com/diagnosis/spa-intake/pkg/auth"
	"github.com/diagnosis/spa-intake/pkg/config"
	"github.com/diagnosis/spa-intake/pkg/database"
	"github.com/diagnosis/spa-intake/pkg/events"
	"github.com/diagnosis/spa-intake/pkg/logger"
	mw "github.com/diagnosis/spa-intake/pkg/middleware"
)

const idempotencyTTL = 24 * time.Hour

func main() {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		logger.Error("Invalid configuration", "error", err)
		os.Exit(1)
	}
	if cfg.Auth.JWTSecret == "" {
		secret, err := auth.GenerateSecret()
		if err != nil {
			logger.Error("Failed to generate JWT secret", "error", err)
			os.Exit(1)
		}
		cfg.Auth.JWTSecret = secret
		logger.Warn("JWT_SECRET not set, admin tokens are signed with an ephemeral secret")
	}
	ctx := context.Background()

	backend, closeBackend, err := openBackend(ctx, cfg)
	if err != nil {
		logger.Error("Failed to open table backend", "backend", cfg.Tables.Backend, "error", err)
		os.Exit(1)
	}
	defer closeBackend()

	tables := table.NewClient(backend)
	if cfg.Tables.InitHeaders {
		ensureHeaders(ctx, tables, cfg)
	}

	// Connect to event bus
	var publisher events.Publisher
	if cfg.NATS.URL != "" {
		p, err := events.NewNATSPublisher(cfg.NATS.URL)
		if err != nil {
			logger.Warn("NATS unavailable, booking events disabled", "error", err)
		} else {
			publisher = p
			defer p.Close()
		}
	}

	var rdb *redis.Client
	if cfg.Redis.URL != "" {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			logger.Error("Invalid REDIS_URL", "error", err)
			os.Exit(1)
		}
		rdb = redis.NewClient(opts)
		defer rdb.Close()
	}

	wa := whatsapp.NewClient(whatsapp.Config{
		Token:         cfg.WhatsApp.Token,
		PhoneNumberID: cfg.WhatsApp.PhoneNumberID,
		APIVersion:    cfg.WhatsApp.APIVersion,
		BaseURL:       cfg.WhatsApp.BaseURL,
		Language:      cfg.WhatsApp.Language,
	}, nil)
	if !wa.Enabled() {
		logger.Warn("WhatsApp credentials missing, alerts will fail")
	}

	notifier := notify.New(newMailer(cfg), wa, publisher, notify.Config{
		SiteName:          cfg.Server.SiteName,
		AdminEmail:        cfg.Email.AdminEmail,
		WhatsAppRecipient: cfg.WhatsApp.Recipient,
		WhatsAppTemplate:  cfg.WhatsApp.Template,
	})

	passwords := auth.NewPasswordChecker(cfg.Auth.AdminPassword, cfg.Auth.AdminPasswordHash)
	if !passwords.Configured() {
		logger.Warn("No admin password configured, admin login is disabled")
	}

	reports := export.NewFormatter(cfg.Server.SiteName)
	h := router.Handlers{
		Bookings: handlers.NewBookingsHandler(tables, notifier, reports, handlers.BookingsConfig{
			SiteName: cfg.Server.SiteName,
			TableID:  cfg.Tables.PublicID,
			Policy:   domain.Policy{RequireTime: cfg.Policy.RequireTime},
			DevMode:  cfg.DevMode(),
		}),
		Admin: handlers.NewAdminHandler(tables, notifier, reports, handlers.AdminConfig{
			TableID: cfg.Tables.AdminID,
			DevMode: cfg.DevMode(),
		}),
		Auth:   handlers.NewAuthHandler(passwords, cfg.Auth.JWTSecret, cfg.Auth.AdminTokenTTL),
		Health: handlers.NewHealthHandler(cfg.Tables.PublicID, cfg.Email.AdminEmail),
		Site:   site.New(site.Config{Dir: cfg.Server.StaticDir, Paid: cfg.Server.Paid}),
	}

	r := router.New(h, router.Options{
		SiteName:            cfg.Server.SiteName,
		JWTSecret:           cfg.Auth.JWTSecret,
		ExportRequiresAdmin: cfg.Policy.ExportRequiresAdmin,
		Submit:              submitMiddleware(cfg, rdb),
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      r,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Graceful shutdown
	done := make(chan struct{})
	go func() {
		defer close(done)
		sigChan := make(chan os.Signal, 1)
		signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
		sig := <-sigChan

		logger.Info("Shutdown signal received, shutting down gracefully", "signal", sig.String())

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", "error", err)
		}
	}()

	logger.Info("Starting spa intake service",
		"port", cfg.Server.Port,
		"site", cfg.Server.SiteName,
		"backend", cfg.Tables.Backend,
		"paid", cfg.Server.Paid,
		"export_requires_admin", cfg.Policy.ExportRequiresAdmin,
	)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", "error", err)
		os.Exit(1)
	}
	<-done
	logger.Info("Server stopped")
}

func openBackend(ctx context.Context, cfg *config.Config) (table.Backend, func(), error) {
	switch cfg.Tables.Backend {
	case "sheets":
		b, err := sheets.New(ctx, sheets.Config{
			CredentialsJSON: cfg.Tables.CredentialsJSON,
			SheetName:       cfg.Tables.SheetName,
			Columns: map[string]int{
				cfg.Tables.PublicID: len(domain.PublicHeader),
				cfg.Tables.AdminID:  len(domain.AdminHeader),
			},
		})
		return b, func() {}, err
	case "postgres":
		pool, err := database.Connect(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		b := tablepg.New(pool)
		if err := b.Migrate(ctx); err != nil {
			pool.Close()
			return nil, nil, err
		}
		return b, pool.Close, nil
	case "memory":
		logger.Warn("Using in-memory tables, bookings are lost on restart")
		return table.NewMemoryBackend(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown TABLE_BACKEND %q", cfg.Tables.Backend)
	}
}

// ensureHeaders is best effort; a store that is down at boot is reported again on first use.
func ensureHeaders(ctx context.Context, tables *table.Client, cfg *config.Config) {
	for id, header := range map[string][]string{
		cfg.Tables.PublicID: domain.PublicHeader,
		cfg.Tables.AdminID:  domain.AdminHeader,
	} {
		if id == "" {
			continue
		}
		if _, err := tables.EnsureHeader(ctx, id, header); err != nil {
			logger.Warn("Failed to initialize table header", "table", id, "error", err)
		}
	}
}

func newMailer(cfg *config.Config) mailer.Service {
	switch cfg.Email.Provider {
	case "mailersend":
		return mailer.NewMailerSend(cfg.Email.MailerSendKey, cfg.Email.FromName, cfg.Email.From)
	case "dev":
		return mailer.NewDevMailer()
	default:
		return mailer.NewSMTPMailer(
			cfg.Email.SMTPHost,
			cfg.Email.SMTPPort,
			cfg.Email.From,
			cfg.Email.FromName,
			cfg.Email.From,
			cfg.Email.Password,
			cfg.Email.SMTPUseTLS,
		)
	}
}

// submitMiddleware shares state through redis when configured, otherwise keeps it in process.
func submitMiddleware(cfg *config.Config, rdb *redis.Client) []func(http.Handler) http.Handler {
	var (
		limiter middleware.Limiter
		store   mw.IdempotencyStore
	)
	if rdb != nil {
		limiter = middleware.NewRedisLimiter(rdb, cfg.RateLimit.SubmitRequests, cfg.RateLimit.SubmitWindow, "rl:"+cfg.Server.SiteName+":submit")
		store = mw.NewRedisIdempotencyStore(rdb)
	} else {
		limiter = middleware.NewMemoryLimiter(cfg.RateLimit.SubmitRequests, cfg.RateLimit.SubmitWindow)
		store = mw.NewMemoryIdempotencyStore()
	}
	return []func(http.Handler) http.Handler{
		middleware.NewRateLimiter(limiter, middleware.RateLimitConfig{TrustProxy: cfg.RateLimit.TrustProxy}).Middleware(),
		mw.IdempotencyMiddleware(store, idempotencyTTL),
	}
}
