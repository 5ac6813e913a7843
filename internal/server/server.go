package server

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"investment-ledger/internal/auth"
	"investment-ledger/internal/config"
	"investment-ledger/internal/domain"
	"investment-ledger/internal/events"
	"investment-ledger/internal/handler"
	"investment-ledger/internal/logger"
	"investment-ledger/internal/middleware"
	"investment-ledger/internal/repository"
	"investment-ledger/internal/repository/memory"
	"investment-ledger/internal/service"
)

// Server represents the HTTP server
type Server struct {
	handler http.Handler
	server  *http.Server
	store   domain.Store
	redis   *redis.Client
	logger  *zap.Logger
	port    string
}

// Dependencies are the collaborators the router is built from.
type Dependencies struct {
	Config *config.Config
	Store  domain.Store
	// Redis is optional; without it events are dropped and settings are
	// read from the store on every request.
	Redis  *redis.Client
	Plans  *domain.PlanTable
	Logger *zap.Logger
}

// NewServer connects the configured store and Redis and builds the router.
func NewServer(cfg *config.Config, logger *zap.Logger) (*Server, error) {
	ctx := context.Background()

	plans, err := config.LoadPlans(cfg.PlansFile)
	if err != nil {
		return nil, err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}

	var rdb *redis.Client
	if cfg.RedisEnabled() {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			store.Close()
			rdb.Close()
			return nil, fmt.Errorf("connect to redis: %w", err)
		}
		logger.Info("Connected to Redis", zap.String("addr", cfg.RedisAddr))
	}

	h := NewHandler(Dependencies{
		Config: cfg,
		Store:  store,
		Redis:  rdb,
		Plans:  plans,
		Logger: logger,
	})

	return &Server{
		handler: h,
		store:   store,
		redis:   rdb,
		logger:  logger,
	}, nil
}

func openStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (domain.Store, error) {
	switch cfg.StoreDriver {
	case "memory":
		logger.Warn("Using in-memory store; data is lost on restart")
		return memory.NewStore(cfg.TxMaxRetries, logger), nil
	case "postgres", "":
		db, err := repository.Open(ctx, cfg)
		if err != nil {
			return nil, err
		}
		logger.Info("Successfully connected to database")

		if cfg.AutoMigrate {
			if err := repository.Migrate(ctx, db, logger); err != nil {
				db.Close()
				return nil, err
			}
		}
		return repository.NewStore(db, cfg.TxMaxRetries, logger), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}

// NewHandler wires services, handlers and middleware into the HTTP handler.
func NewHandler(deps Dependencies) http.Handler {
	cfg, logger := deps.Config, deps.Logger

	var publisher events.Publisher = events.NopPublisher{}
	if deps.Redis != nil {
		publisher = events.NewRedisPublisher(deps.Redis, cfg.EventsChannel, logger)
	}

	// Initialize services
	settingsService := service.NewSettingsService(deps.Store, redisClient(deps.Redis), cfg.SettingsTTL, logger)
	ledgerService := service.NewLedgerService(deps.Store, deps.Plans, publisher, logger)
	accountService := service.NewAccountService(deps.Store, logger)
	requestService := service.NewRequestService(deps.Store, settingsService, logger)
	planService := service.NewPlanService(deps.Plans)
	statsService := service.NewStatsService(deps.Store, logger)

	// Initialize handlers
	accountHandler := handler.NewAccountHandler(accountService)
	requestHandler := handler.NewRequestHandler(requestService, ledgerService)
	investmentHandler := handler.NewInvestmentHandler(ledgerService, requestService, planService)
	adminHandler := handler.NewAdminHandler(settingsService, statsService)

	authenticate := middleware.Authentication(auth.NewVerifier(cfg.JWTSecret), logger)
	requireAdmin := middleware.RequireAdmin(accountService, logger)

	router := mux.NewRouter()
	router.Use(middleware.Recover(logger))
	router.Use(middleware.RequestLogging(logger))
	router.Use(middleware.SecurityHeaders())

	router.HandleFunc("/health", healthHandler(deps.Store)).Methods("GET")
	router.Handle("/metrics", promhttp.Handler()).Methods("GET")

	api := router.PathPrefix("/api/v1").Subrouter()
	if cfg.RateLimitRPS > 0 {
		api.Use(middleware.NewRateLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst).Middleware())
	}

	// Public routes
	api.HandleFunc("/plans", investmentHandler.ListPlans).Methods("GET")
	api.HandleFunc("/settings", adminHandler.GetSettings).Methods("GET")

	// Admin routes
	admin := api.PathPrefix("/admin").Subrouter()
	admin.Use(authenticate, requireAdmin)
	admin.HandleFunc("/stats", adminHandler.Stats).Methods("GET")
	admin.HandleFunc("/accounts", accountHandler.ListAccounts).Methods("GET")
	admin.HandleFunc("/accounts/{id}/status", accountHandler.SetStatus).Methods("PATCH")
	admin.HandleFunc("/deposits", requestHandler.ListDeposits).Methods("GET")
	admin.HandleFunc("/deposits/{id}/status", requestHandler.ProcessDeposit).Methods("POST")
	admin.HandleFunc("/withdrawals", requestHandler.ListWithdrawals).Methods("GET")
	admin.HandleFunc("/withdrawals/{id}/status", requestHandler.ProcessWithdrawal).Methods("POST")
	admin.HandleFunc("/investments", investmentHandler.ListInvestments).Methods("GET")
	admin.HandleFunc("/settings", adminHandler.UpdateSettings).Methods("PUT")

	// User routes
	user := api.NewRoute().Subrouter()
	user.Use(authenticate)
	user.HandleFunc("/accounts", accountHandler.Register).Methods("POST")
	user.HandleFunc("/accounts/me", accountHandler.GetMe).Methods("GET")
	user.HandleFunc("/accounts/me/history", accountHandler.History).Methods("GET")
	user.HandleFunc("/accounts/me/referrals", accountHandler.Referrals).Methods("GET")
	user.HandleFunc("/deposits", requestHandler.CreateDeposit).Methods("POST")
	user.HandleFunc("/withdrawals", requestHandler.CreateWithdrawal).Methods("POST")
	user.HandleFunc("/investments", investmentHandler.PlaceInvestment).Methods("POST")

	return middleware.CORS(cfg.CORSAllowedOrigins)(router)
}

// redisClient maps a nil client to a nil interface.
func redisClient(rdb *redis.Client) redis.UniversalClient {
	if rdb == nil {
		return nil
	}
	return rdb
}

func healthHandler(store domain.Store) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := store.Ping(ctx); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			json.NewEncoder(w).Encode(map[string]string{"status": "unhealthy", "error": "store unavailable"})
			return
		}

		json.NewEncoder(w).Encode(map[string]string{
			"status":    "healthy",
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		})
	}
}

// Start starts the HTTP server on the specified port
func (s *Server) Start(port string) (string, error) {
	// Create listener first to get actual port
	listener, err := net.Listen("tcp", ":"+port)
	if err != nil {
		return "", err
	}

	addr := listener.Addr().(*net.TCPAddr)
	s.port = strconv.Itoa(addr.Port)

	s.server = &http.Server{
		Handler:      s.handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	s.logger.Info("Starting server", zap.String("port", s.port))

	go func() {
		if err := s.server.Serve(listener); err != nil && err != http.ErrServerClosed {
			s.logger.Error("Server failed", zap.Error(err))
		}
	}()

	return s.port, nil
}

// Stop gracefully shuts down the server and releases the store and Redis.
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Shutting down server")

	var err error
	if s.server != nil {
		err = s.server.Shutdown(ctx)
	}
	if s.redis != nil {
		s.redis.Close()
	}
	if s.store != nil {
		s.store.Close()
	}
	return err
}

// GetPort returns the port the server is listening on
func (s *Server) GetPort() string {
	return s.port
}

// GetBaseURL returns the base URL for the server
func (s *Server) GetBaseURL() string {
	return "http://localhost:" + s.port
}

// StartServer starts the server with the given configuration
func StartServer(cfg *config.Config) (*Server, string, error) {
	var log *zap.Logger
	if cfg.ServerPort == "0" {
		// Test environment
		log = zap.NewNop()
	} else {
		var err error
		log, err = logger.New(cfg.LogLevel, cfg.LogFormat)
		if err != nil {
			return nil, "", err
		}
	}

	server, err := NewServer(cfg, log)
	if err != nil {
		return nil, "", err
	}

	port, err := server.Start(cfg.ServerPort)
	if err != nil {
		server.Stop(context.Background())
		return nil, "", err
	}

	return server, port, nil
}
