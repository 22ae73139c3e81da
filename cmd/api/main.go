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

	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/nexustechhub/nexus-api/internal/ai"
	"github.com/nexustechhub/nexus-api/internal/auth"
	"github.com/nexustechhub/nexus-api/internal/catalog"
	"github.com/nexustechhub/nexus-api/internal/config"
	"github.com/nexustechhub/nexus-api/internal/database"
	"github.com/nexustechhub/nexus-api/internal/email"
	"github.com/nexustechhub/nexus-api/internal/handlers"
	"github.com/nexustechhub/nexus-api/internal/logger"
	"github.com/nexustechhub/nexus-api/internal/middleware"
	"github.com/nexustechhub/nexus-api/internal/outreach"
	"github.com/nexustechhub/nexus-api/internal/routes"
	"github.com/nexustechhub/nexus-api/internal/search"
	"github.com/nexustechhub/nexus-api/internal/tax"
	"github.com/nexustechhub/nexus-api/internal/webhook"
)

func main() {
	root := &cobra.Command{
		Use:           "api",
		Short:         "Nexus Tech Hub storefront API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE:          runServe,
	}
	root.AddCommand(
		&cobra.Command{Use: "serve", Short: "Run the HTTP server", RunE: runServe},
		&cobra.Command{Use: "reindex", Short: "Push all products to the search index", RunE: runReindex},
		vatCommand(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// app is everything the commands share.
type app struct {
	cfg        *config.Config
	log        *zap.Logger
	db         *sqlx.DB
	dbReadOnly *sqlx.DB
	catalog    *catalog.Repository
}

func bootstrap(ctx context.Context) (*app, error) {
	// 0. --- Load Environment ---
	cfg := config.Load()
	log, err := logger.New(cfg.IsProduction())
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	// 1. --- Main Database Connection (Read/Write) ---
	db, err := database.OpenDB(ctx, cfg.DBDriver, cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect primary database: %w", err)
	}

	// 2. --- Read-Only Connection ---
	dbReadOnly := db
	if cfg.DatabaseURLReadOnly != "" {
		dbReadOnly, err = database.OpenDB(ctx, cfg.DBDriver, cfg.ReadOnlyURL())
		if err != nil {
			db.Close()
			return nil, fmt.Errorf("connect read-only database: %w", err)
		}
	}

	return &app{
		cfg:        cfg,
		log:        log,
		db:         db,
		dbReadOnly: dbReadOnly,
		catalog:    catalog.NewRepository(dbReadOnly),
	}, nil
}

func (a *app) close() {
	if a.dbReadOnly != a.db {
		a.dbReadOnly.Close()
	}
	a.db.Close()
	_ = a.log.Sync()
}

func runServe(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()
	cfg, log := a.cfg, a.log

	// 3. --- Optional Providers ---
	var mailer email.Mailer = email.NewLogMailer(log)
	if cfg.SendGridAPIKey != "" {
		mailer = email.NewSendGridMailer(cfg.SendGridAPIKey, cfg.EmailFrom)
	} else {
		log.Warn("SENDGRID_API_KEY not set, emails are only logged")
	}

	var taxProvider tax.Provider
	if cfg.StripeSecretKey != "" {
		taxProvider = tax.NewStripeProvider(cfg.StripeSecretKey)
	}

	var searchBackend search.Backend
	if cfg.AlgoliaAppID != "" && cfg.AlgoliaAPIKey != "" {
		searchBackend = search.NewAlgoliaBackend(cfg.AlgoliaAppID, cfg.AlgoliaAPIKey, cfg.AlgoliaIndex)
	}

	var personalizer ai.Personalizer
	if cfg.GeminiAPIKey != "" {
		aiService, err := ai.NewAIService(ctx, cfg.GeminiAPIKey, cfg.GeminiModel, log)
		if err != nil {
			log.Warn("AI personalization disabled", zap.Error(err))
		} else {
			defer aiService.Close()
			personalizer = aiService
		}
	}

	relay := webhook.NewHTTPRelay(cfg.ZapierWebhookURL)
	if !relay.Configured() {
		log.Warn("ZAPIER_WEBHOOK_URL not set, automation events are dropped")
	}

	// 4. --- Auth ---
	tokens := auth.NewTokens(cfg.JWTSecret, auth.DefaultTokenTTL)
	customers := auth.NewCustomers(a.db)
	var provider auth.Provider = auth.NewLocalProvider(customers, tokens)
	if cfg.SupabaseURL != "" && cfg.SupabaseAnonKey != "" {
		provider = auth.NewSupabaseProvider(cfg.SupabaseURL, cfg.SupabaseAnonKey)
	}
	log.Info("auth provider", zap.String("name", provider.Name()))

	// --- Application Setup ---
	outreachSvc := outreach.NewService(outreach.NewRepository(a.db), mailer, relay, personalizer, log)
	h := &handlers.Handlers{
		DB:                    a.db,
		DBReadOnly:            a.dbReadOnly,
		Log:                   log,
		Catalog:               a.catalog,
		Recommender:           catalog.NewRecommender(a.catalog, log),
		Search:                search.NewService(searchBackend, a.catalog, log),
		Tax:                   tax.NewCalculator(taxProvider, cfg.VATRate, cfg.Currency, log),
		Outreach:              outreachSvc,
		Mailer:                mailer,
		Relay:                 relay,
		Auth:                  provider,
		Customers:             customers,
		ContactEmail:          cfg.EmailTo,
		FreeShippingThreshold: cfg.FreeShippingThreshold,
	}

	// 5. --- Background Workers ---
	// The scheduler starts due campaigns and closes expired ones. Deferred
	// after a.close so it stops before the database is closed.
	stopScheduler := outreach.NewScheduler(outreachSvc, cfg.SchedulerInterval, log).Start(ctx)
	defer stopScheduler()

	// --- Router Setup ---
	router := routes.SetupRouter(h, routes.Options{
		Tokens:         tokens,
		CORSOrigins:    cfg.CORSOrigins,
		TrustedProxies: cfg.TrustedProxies,
		ContactLimiter: middleware.NewIPLimiter(cfg.ContactRatePerMinute),
		Log:            log,
	})

	// --- Start Server ---
	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	errCh := make(chan error, 1)
	go func() {
		log.Info("starting Nexus API server", zap.String("port", cfg.Port), zap.String("env", cfg.AppEnv))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func runReindex(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	a, err := bootstrap(ctx)
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.AlgoliaAppID == "" || a.cfg.AlgoliaAPIKey == "" {
		return errors.New("ALGOLIA_APP_ID and ALGOLIA_API_KEY must be set")
	}
	backend := search.NewAlgoliaBackend(a.cfg.AlgoliaAppID, a.cfg.AlgoliaAPIKey, a.cfg.AlgoliaIndex)
	n, err := search.NewService(backend, a.catalog, a.log).Reindex(ctx)
	if err != nil {
		return fmt.Errorf("reindex: %w", err)
	}
	a.log.Info("search index rebuilt", zap.Int("products", n), zap.String("index", a.cfg.AlgoliaIndex))
	return nil
}

// vatCommand prices a cart offline with the manual VAT rule.
func vatCommand() *cobra.Command {
	var subtotal, shipping int64
	cmd := &cobra.Command{
		Use:   "vat",
		Short: "Compute VAT for a subtotal and shipping amount (minor units)",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			calc := tax.NewCalculator(nil, cfg.VATRate, cfg.Currency, zap.NewNop())
			res, err := calc.Calculate(cmd.Context(), tax.Request{
				Items:    []tax.LineItem{{Amount: subtotal, Quantity: 1}},
				Shipping: shipping,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "subtotal=%d shipping=%d vat=%d total=%d currency=%s rate=%s\n",
				res.Subtotal, res.Shipping, res.VAT, res.Total, res.Currency, calc.Rate().String())
			return nil
		},
	}
	cmd.Flags().Int64Var(&subtotal, "subtotal", 0, "cart subtotal in minor units")
	cmd.Flags().Int64Var(&shipping, "shipping", 0, "shipping cost in minor units")
	_ = cmd.MarkFlagRequired("subtotal")
	return cmd
}
