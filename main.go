package main

import (
	"context"
	"database/sql"
	"fmt"
	"log"
	"net/http"
	"os"
	"strconv"
	"time"

	"fulfillment-billing/internal/audit"
	"fulfillment-billing/internal/auth"
	billingapp "fulfillment-billing/internal/billing/application"
	billingpg "fulfillment-billing/internal/billing/infrastructure/postgres"
	billinginterfaces "fulfillment-billing/internal/billing/interfaces"
	"fulfillment-billing/internal/catalog"
	companyapp "fulfillment-billing/internal/company/application"
	companypg "fulfillment-billing/internal/company/infrastructure/postgres"
	companyinterfaces "fulfillment-billing/internal/company/interfaces"
	identityapp "fulfillment-billing/internal/identity/application"
	identitypg "fulfillment-billing/internal/identity/infrastructure/postgres"
	identityinterfaces "fulfillment-billing/internal/identity/interfaces"
	"fulfillment-billing/internal/observability/metrics"
	"fulfillment-billing/internal/wbclient"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func main() {
	cfg := loadConfig()
	logger := log.New(os.Stdout, "", log.LstdFlags)

	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		logger.Fatalf("db open error: %v", err)
	}
	defer db.Close()

	if err := db.Ping(); err != nil {
		logger.Fatalf("db ping error: %v", err)
	}

	metrics.Init(db, logger)
	auditRepo := audit.NewRepository(db)

	userRepo := identitypg.NewUserRepository(db)
	identityService, err := identityapp.NewIdentityService(userRepo, []byte(cfg.JWTSecret), nil)
	if err != nil {
		logger.Fatalf("identity service error: %v", err)
	}
	authHandler, err := identityinterfaces.NewAuthHandler(identityService)
	if err != nil {
		logger.Fatalf("auth handler error: %v", err)
	}

	companyRepo := companypg.NewCompanyRepository(db)
	keyValidator := buildKeyValidator(cfg)
	companyService, err := companyapp.NewCompanyService(companyRepo, keyValidator, nil)
	if err != nil {
		logger.Fatalf("company service error: %v", err)
	}
	companyHandler, err := companyinterfaces.NewCompanyHandler(companyService, auditRepo)
	if err != nil {
		logger.Fatalf("company handler error: %v", err)
	}

	catalogServices, err := catalog.Load(cfg.CatalogPath)
	if err != nil {
		logger.Fatalf("catalog error: %v", err)
	}

	billingRepo := billingpg.NewBillingRepository(db)
	configRepo := billingpg.NewConfigRepository(db)
	fetcherFor := buildFetcherFor(cfg, logger)

	billingService, err := billingapp.NewBillingService(billingRepo, configRepo, companyRepo, fetcherFor, nil)
	if err != nil {
		logger.Fatalf("billing service error: %v", err)
	}
	configService, err := billingapp.NewConfigService(configRepo, companyRepo, catalogServices, nil)
	if err != nil {
		logger.Fatalf("config service error: %v", err)
	}
	billingHandler, err := billinginterfaces.NewBillingHandler(billingService, companyRepo, auditRepo)
	if err != nil {
		logger.Fatalf("billing handler error: %v", err)
	}
	configHandler, err := billinginterfaces.NewConfigHandler(configService, auditRepo)
	if err != nil {
		logger.Fatalf("config handler error: %v", err)
	}
	auditHandler, err := audit.NewHandler(auditRepo)
	if err != nil {
		logger.Fatalf("audit handler error: %v", err)
	}

	policy := auth.NewDefaultPolicy(auth.DefaultExemptPaths(), nil)
	authMiddleware := auth.NewMiddleware([]byte(cfg.JWTSecret), policy)

	mux := http.NewServeMux()
	mux.Handle("/api/v1/auth/register", authHandler)
	mux.Handle("/api/v1/auth/login", authHandler)
	mux.Handle("/api/v1/auth/me", authHandler)
	mux.Handle("/api/v1/companies", companyHandler)
	mux.Handle("/api/v1/companies/", companyHandler)
	mux.Handle("/api/v1/billings", billingHandler)
	mux.Handle("/api/v1/billings/", billingHandler)
	mux.Handle("/api/v1/billing-configs", configHandler)
	mux.Handle("/api/v1/billing-configs/", configHandler)
	mux.Handle("/api/v1/audit", auditHandler)
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	server := &http.Server{Addr: cfg.HTTPAddr, Handler: loggingMiddleware(authMiddleware.Wrap(mux), logger)}
	logger.Printf("http listening on %s", cfg.HTTPAddr)
	logger.Fatal(server.ListenAndServe())
}

type config struct {
	DatabaseURL string
	HTTPAddr    string
	JWTSecret   string
	WBBaseURL   string
	WBSandbox   bool
	CatalogPath string
}

func loadConfig() config {
	cfg := config{
		DatabaseURL: getenvDefault("DATABASE_URL", getenvDefault("PG_DSN", "")),
		HTTPAddr:    getenvDefault("HTTP_ADDR", ":8080"),
		JWTSecret:   getenvDefault("AUTH_JWT_SECRET", getenvDefault("JWT_SECRET", "")),
		WBBaseURL:   getenvDefault("WB_API_BASE_URL", ""),
		WBSandbox:   getenvBoolDefault("WB_SANDBOX", false),
		CatalogPath: getenvDefault("BILLING_CATALOG", ""),
	}
	if cfg.DatabaseURL == "" {
		log.Fatal("DATABASE_URL or PG_DSN is required")
	}
	if cfg.JWTSecret == "" {
		log.Fatal("AUTH_JWT_SECRET is required")
	}
	return cfg
}

// buildFetcherFor resolves the marketplace source per company key. A
// missing key falls back to the sandbox dataset when WB_SANDBOX is set,
// otherwise generation fails with a missing-key error.
func buildFetcherFor(cfg config, logger *log.Logger) billingapp.FetcherFor {
	return func(apiKey string) billingapp.MarketplaceFetcher {
		if apiKey == "" {
			if cfg.WBSandbox {
				return wbclient.NewSandbox()
			}
			return nil
		}
		client, err := wbclient.NewClient(cfg.WBBaseURL, apiKey)
		if err != nil {
			logger.Printf("wb client error: %v", err)
			return nil
		}
		return client
	}
}

func buildKeyValidator(cfg config) companyapp.KeyValidator {
	return func(ctx context.Context, apiKey string) (bool, error) {
		if apiKey == "" {
			if cfg.WBSandbox {
				return wbclient.NewSandbox().ValidateKey(ctx)
			}
			return false, nil
		}
		client, err := wbclient.NewClient(cfg.WBBaseURL, apiKey)
		if err != nil {
			return false, err
		}
		return client.ValidateKey(ctx)
	}
}

func getenvDefault(key, fallback string) string {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	return value
}

func getenvBoolDefault(key string, fallback bool) bool {
	value := os.Getenv(key)
	if value == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(value)
	if err != nil {
		return fallback
	}
	return parsed
}

func loggingMiddleware(next http.Handler, logger *log.Logger) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		resp := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(resp, r)
		duration := time.Since(start)
		metrics.ObserveHTTP(r.Method, fmt.Sprintf("%dxx", resp.status/100), duration)
		logger.Printf("http %s %s %d %s", r.Method, r.URL.Path, resp.status, duration)
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(status int) {
	w.status = status
	w.ResponseWriter.WriteHeader(status)
}
