package http

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/cache"
	"fintrack/internal/clock"
	"fintrack/internal/core"
	"fintrack/internal/log"
	"fintrack/internal/middleware/ratelimit"
	"fintrack/internal/middleware/security"
	"fintrack/internal/middleware/trace"
	"fintrack/internal/ports"
	"fintrack/internal/rates"
	"fintrack/internal/services"
)

const knownUserTTL = time.Minute

// RateQuoter answers exchange rate questions.
type RateQuoter interface {
	Rate(ctx context.Context, currency string) (rates.Quote, error)
	Convert(ctx context.Context, amount decimal.Decimal, currency string) (rates.Quote, error)
}

// Deps are the services behind the API. Rates and Ready may be nil.
type Deps struct {
	Users        ports.UserStore
	Registration *services.Registration
	Transactions *services.TransactionService
	Categories   *services.CategoryService
	Budgets      *services.BudgetService
	Savings      *services.SavingsService
	Recurring    *services.RecurrenceEngine
	Stats        *services.StatsService
	Admin        *services.AdminService
	Rates        RateQuoter
	Clock        clock.Clock
	// Ready reports whether the backing store can serve requests.
	Ready func(ctx context.Context) error
}

type Options struct {
	RateLimitPerMinute int
	TrustedProxies     []string
	Logger             *log.Logger
	// Caches receives the server's caches so one sweeper cleans them all.
	// When nil the server owns a manager of its own.
	Caches *cache.Manager
}

type Server struct {
	http.Server

	deps   Deps
	logger *log.Logger

	rateLimiter      *ratelimit.Limiter
	securityDetector *security.Detector
	traceMiddleware  *trace.Middleware
	knownUsers       *cache.LRUCache[bool]
	caches           *cache.Manager
	ownsCaches       bool

	appMetrics   *appMetrics
	shutdownOnce sync.Once
}

type appMetrics struct {
	uptime              time.Time
	transactionsCreated int64
	reportsExported     int64
	recurringProcessed  int64
}

// NewServer wires the routes and the middleware chain. The caller runs
// ListenAndServe and Shutdown.
func NewServer(addr string, deps Deps, opts Options) *Server {
	if deps.Clock == nil {
		deps.Clock = clock.System{}
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Config{Component: log.ComponentHTTP})
	}

	s := &Server{
		deps:             deps,
		logger:           logger,
		rateLimiter:      ratelimit.NewLimiter(ratelimit.Config{RequestsPerMinute: opts.RateLimitPerMinute}),
		securityDetector: security.NewDetector(),
		knownUsers:       cache.NewLRUCache[bool](1024, knownUserTTL),
		caches:           opts.Caches,
		appMetrics:       &appMetrics{uptime: time.Now()},
	}
	for _, cidr := range opts.TrustedProxies {
		if err := s.securityDetector.AddTrustedProxy(cidr); err != nil {
			logger.Warn("Ignoring trusted proxy", "cidr", cidr, log.FieldError, err)
		}
	}
	s.traceMiddleware = trace.NewMiddleware(s.securityDetector.ExtractClientIP)
	if s.caches == nil {
		s.caches = cache.NewManager()
		s.caches.StartCleanup(5 * time.Minute)
		s.ownsCaches = true
	}
	s.caches.Register(s.knownUsers)

	mux := http.NewServeMux()
	s.routes(mux)

	var handler http.Handler = mux
	handler = s.rateLimiter.Middleware(s.securityDetector.ExtractClientIP, s.handleRateLimited)(handler)
	handler = s.securityDetector.Middleware(handler)
	handler = security.NewHeadersMiddleware(security.DefaultHeadersConfig()).Middleware(handler)
	handler = log.Middleware(logger, trace.GetRequestID)(handler)
	handler = s.traceMiddleware.Middleware(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      60 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	return s
}

func (s *Server) routes(mux *http.ServeMux) {
	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)
	mux.HandleFunc("GET /metrics", s.handleMetrics)

	mux.HandleFunc("POST /api/users", s.handleRegister)

	mux.HandleFunc("GET /api/transactions", s.user(s.handleListTransactions))
	mux.HandleFunc("POST /api/transactions", s.user(s.handleCreateTransaction))
	mux.HandleFunc("GET /api/transactions/stats", s.user(s.handleTransactionStats))
	mux.HandleFunc("GET /api/transactions/{id}", s.user(s.handleGetTransaction))
	mux.HandleFunc("PUT /api/transactions/{id}", s.user(s.handleUpdateTransaction))
	mux.HandleFunc("DELETE /api/transactions/{id}", s.user(s.handleDeleteTransaction))

	mux.HandleFunc("GET /api/categories", s.user(s.handleListCategories))
	mux.HandleFunc("POST /api/categories", s.user(s.handleCreateCategory))
	mux.HandleFunc("PUT /api/categories/{id}", s.user(s.handleUpdateCategory))
	mux.HandleFunc("DELETE /api/categories/{id}", s.user(s.handleDeleteCategory))

	mux.HandleFunc("GET /api/tags", s.user(s.handleListTags))
	mux.HandleFunc("POST /api/tags", s.user(s.handleCreateTag))
	mux.HandleFunc("PUT /api/tags/{id}", s.user(s.handleUpdateTag))
	mux.HandleFunc("DELETE /api/tags/{id}", s.user(s.handleDeleteTag))

	mux.HandleFunc("GET /api/budgets", s.user(s.handleListBudgets))
	mux.HandleFunc("POST /api/budgets", s.user(s.handleCreateBudget))
	mux.HandleFunc("GET /api/budgets/current", s.user(s.handleCurrentBudgets))
	mux.HandleFunc("GET /api/budgets/{id}", s.user(s.handleGetBudget))
	mux.HandleFunc("PUT /api/budgets/{id}", s.user(s.handleUpdateBudget))
	mux.HandleFunc("DELETE /api/budgets/{id}", s.user(s.handleDeleteBudget))

	mux.HandleFunc("GET /api/savings-goals", s.user(s.handleListGoals))
	mux.HandleFunc("POST /api/savings-goals", s.user(s.handleCreateGoal))
	mux.HandleFunc("GET /api/savings-goals/active", s.user(s.handleActiveGoals))
	mux.HandleFunc("GET /api/savings-goals/{id}", s.user(s.handleGetGoal))
	mux.HandleFunc("PUT /api/savings-goals/{id}", s.user(s.handleUpdateGoal))
	mux.HandleFunc("DELETE /api/savings-goals/{id}", s.user(s.handleDeleteGoal))
	mux.HandleFunc("POST /api/savings-goals/{id}/contributions", s.user(s.handleContribute))

	mux.HandleFunc("GET /api/recurring", s.user(s.handleListRecurring))
	mux.HandleFunc("POST /api/recurring", s.user(s.handleCreateRecurring))
	mux.HandleFunc("GET /api/recurring/{id}", s.user(s.handleGetRecurring))
	mux.HandleFunc("PUT /api/recurring/{id}", s.user(s.handleUpdateRecurring))
	mux.HandleFunc("DELETE /api/recurring/{id}", s.user(s.handleDeleteRecurring))
	mux.HandleFunc("POST /api/recurring/{id}/process", s.user(s.handleProcessRecurring))
	mux.HandleFunc("POST /api/recurring/{id}/toggle", s.user(s.handleToggleRecurring))

	mux.HandleFunc("GET /api/stats", s.user(s.handleStats))
	mux.HandleFunc("GET /api/export/{format}", s.user(s.handleExport))
	mux.HandleFunc("GET /api/rates/{currency}", s.handleRate)

	mux.HandleFunc("GET /api/admin/users", s.user(s.handleAdminUsers))
	mux.HandleFunc("POST /api/admin/recurring/run", s.user(s.handleAdminRunRecurring))
}

// userHandler serves a request on behalf of an existing user.
type userHandler func(w http.ResponseWriter, r *http.Request, userID int64) error

// user resolves the acting user and turns a returned error into its JSON
// response.
func (s *Server) user(h userHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := s.resolveUser(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		ctx := log.NewContext(r.Context(), log.FromContext(r.Context()).With(log.FieldUserID, userID))
		r = r.WithContext(ctx)
		if err := h(w, r, userID); err != nil {
			writeError(w, r, err)
		}
	}
}

func (s *Server) resolveUser(r *http.Request) (int64, error) {
	userID, err := actingUser(r)
	if err != nil {
		return 0, err
	}
	key := strconv.FormatInt(userID, 10)
	if _, ok := s.knownUsers.Get(key); ok {
		return userID, nil
	}
	if _, err := s.deps.Users.GetUser(r.Context(), userID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return 0, errUnauthenticated
		}
		return 0, err
	}
	s.knownUsers.Set(key, true)
	return userID, nil
}

func (s *Server) handleRateLimited(w http.ResponseWriter, r *http.Request) {
	body := ErrorBody{Error: ErrorDetail{
		Code:      "rate_limited",
		Message:   "rate limit exceeded, retry later",
		RequestID: requestID(r),
	}}
	writeJSON(w, http.StatusTooManyRequests, body)
}

func requestID(r *http.Request) string {
	return trace.GetRequestID(r.Context())
}

// Shutdown stops background work and drains in-flight requests.
func (s *Server) Shutdown(ctx context.Context) error {
	var err error
	s.shutdownOnce.Do(func() {
		s.rateLimiter.Stop()
		if s.ownsCaches {
			s.caches.Stop()
		}
		err = s.Server.Shutdown(ctx)
	})
	return err
}
