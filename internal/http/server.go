package http

import (
	"context"
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"moneta/internal/core"
	"moneta/internal/log"
	"moneta/internal/services"
)

// Narrow views over the service layer; all satisfied by internal/services.

type AuthService interface {
	Signup(ctx context.Context, email, password, name string) (core.User, error)
	VerifyEmail(ctx context.Context, token string) error
	Login(ctx context.Context, email, password string) (string, core.User, error)
	RequestPasswordReset(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, token, newPassword string) error
	Authenticate(ctx context.Context, token string) (core.User, error)
}

type TransactionService interface {
	Add(ctx context.Context, t core.Transaction) (core.Transaction, error)
	ListAll(ctx context.Context, userID string) ([]core.Transaction, error)
	ListByCategory(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) ([]core.Transaction, error)
	Search(ctx context.Context, userID, query string) ([]core.Transaction, error)
	Update(ctx context.Context, t core.Transaction) error
	Remove(ctx context.Context, id int64, userID string) error
	RemoveByCategory(ctx context.Context, userID string, txType core.TransactionType, categoryID int64) (int64, error)
}

type CategoryService interface {
	Add(ctx context.Context, c core.Category) (core.Category, error)
	List(ctx context.Context, kind core.TransactionType, userID string) ([]core.Category, error)
	Remove(ctx context.Context, kind core.TransactionType, id int64, userID string) error
}

type AnalysisService interface {
	Statistics(ctx context.Context, userID string, tf core.Timeframe) (core.Statistics, error)
	Totals(ctx context.Context, userID string) (core.Totals, error)
}

type EventService interface {
	Add(ctx context.Context, e core.Event) (core.Event, error)
	List(ctx context.Context, userID string) ([]core.Event, error)
	Update(ctx context.Context, e core.Event) error
	Remove(ctx context.Context, id int64, userID string) error
	Upcoming(ctx context.Context, userID string, from, until core.Date) ([]services.Occurrence, error)
}

type AdminService interface {
	Overview(ctx context.Context) (services.Overview, error)
	Users(ctx context.Context) ([]core.User, error)
	PruneVerifications(ctx context.Context) (int64, error)
}

type ChatService interface {
	Ask(ctx context.Context, question string, transactions []core.Transaction) (string, error)
}

type RecurringProcessor interface {
	ProcessDue(ctx context.Context) (int, error)
}

// Deps bundles everything the server routes over.
type Deps struct {
	Auth         AuthService
	Transactions TransactionService
	Categories   CategoryService
	Analysis     AnalysisService
	Events       EventService
	Admin        AdminService
	Chat         ChatService
	Recurring    RecurringProcessor

	// CronSecret guards the recurring-sweep trigger route.
	CronSecret string

	Logger *log.Logger
}

type Server struct {
	http.Server

	auth         AuthService
	transactions TransactionService
	categories   CategoryService
	analysis     AnalysisService
	events       EventService
	admin        AdminService
	chat         ChatService
	recurring    RecurringProcessor

	cronSecret  string
	rateLimiter *rateLimiter
	logger      *log.Logger
	httpLog     *log.HTTPLogger

	shutdownOnce sync.Once
}

// NewServer configures routes and middleware, returning a ready-to-run server.
func NewServer(addr string, deps Deps) *Server {
	logger := deps.Logger
	if logger == nil {
		logger = log.New(log.DefaultConfig())
	}
	logger = logger.WithComponent(log.ComponentHTTP)

	s := &Server{
		auth:         deps.Auth,
		transactions: deps.Transactions,
		categories:   deps.Categories,
		analysis:     deps.Analysis,
		events:       deps.Events,
		admin:        deps.Admin,
		chat:         deps.Chat,
		recurring:    deps.Recurring,
		cronSecret:   deps.CronSecret,
		rateLimiter:  newRateLimiter(60),
		logger:       logger,
		httpLog:      log.NewHTTPLogger(logger),
	}

	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/readyz", handleReady).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.Use(log.Middleware(logger))
	api.Use(log.RequestIDMiddleware(requestID))
	api.Use(s.withObservability)

	api.HandleFunc("/auth", s.handleAuth).Methods(http.MethodPost)

	// The cron trigger shares the /api/transactions path with the action
	// dispatch routes; the query match keeps it on its own handler.
	api.HandleFunc("/transactions", s.handleProcessRecurring).
		Methods(http.MethodGet).
		Queries("action", "processRecurring")
	api.HandleFunc("/transactions", s.handleTransactions).
		Methods(http.MethodPost, http.MethodPut, http.MethodDelete)

	api.HandleFunc("/categories", s.handleCategories).Methods(http.MethodPost, http.MethodDelete)
	api.HandleFunc("/analysis", s.handleAnalysis).Methods(http.MethodPost)
	api.HandleFunc("/events", s.handleEvents).Methods(http.MethodPost, http.MethodPut, http.MethodDelete)
	api.HandleFunc("/chat", s.handleChat).Methods(http.MethodPost)

	adminRouter := api.PathPrefix("/admin").Subrouter()
	adminRouter.Use(s.requireAdmin)
	adminRouter.HandleFunc("/overview", s.handleAdminOverview).Methods(http.MethodGet)
	adminRouter.HandleFunc("/users", s.handleAdminUsers).Methods(http.MethodGet)
	adminRouter.HandleFunc("/verifications", s.handleAdminPruneVerifications).Methods(http.MethodDelete)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	return s
}

// Shutdown stops the server and its background cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// withObservability adds security headers, rate limiting, and request logging.
func (s *Server) withObservability(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		clientIP := extractClientIP(r)
		ctx := r.Context()

		s.httpLog.LogStart(ctx, r, clientIP)

		if !s.rateLimiter.allow(clientIP) {
			s.logger.WarnContext(ctx, "Rate limit exceeded",
				log.FieldClientIP, clientIP, log.FieldMethod, r.Method, log.FieldPath, r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "too many requests")
			return
		}

		setSecurityHeaders(w)

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next.ServeHTTP(rw, r)

		s.httpLog.LogEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), clientIP)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code.
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// requestID generates a unique ID for request tracing.
func requestID(_ *http.Request) string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

// cronAuthorized checks the shared-secret bearer header of the sweep trigger
// in constant time.
func (s *Server) cronAuthorized(r *http.Request) bool {
	token := bearerToken(r)
	if token == "" || s.cronSecret == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(s.cronSecret)) == 1
}

func handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
