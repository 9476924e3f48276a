// Package http serves the tracker's JSON API: report aggregation,
// calendar grids, rates and entry recording.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"fintrack/internal/aggregate"
	"fintrack/internal/cache"
	"fintrack/internal/calendar"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/rates"
	"fintrack/internal/store"
)

// Recorder accepts new entries. Implemented by services.RecordService.
type Recorder interface {
	RecordTransaction(ctx context.Context, tx core.Transaction) (string, error)
	RecordRecurringExpense(ctx context.Context, def core.RecurringExpenseDefinition) (string, error)
}

// RateReader exposes the current rate set and the tier that produced it.
type RateReader interface {
	GetRates(ctx context.Context) rates.Set
	LastTier() rates.Tier
}

// Store is the read side the API needs.
type Store interface {
	store.TransactionLister
	store.RecurringExpenseLister
}

type Server struct {
	http.Server

	store    Store
	recorder Recorder
	rates    RateReader
	engine   *aggregate.Engine
	today    func() core.Date
	logger   *applog.StructuredLogger

	rateLimiter *rateLimiter

	// Derived views are cached per period/month key and purged on
	// every write, since any entry can shift any report.
	reportCache   *cache.LRUCache[aggregate.Report]
	calendarCache *cache.LRUCache[calendar.Month]
	cacheManager  *cache.Manager

	shutdownOnce sync.Once
}

// Options tunes server construction.
type Options struct {
	CacheTTL time.Duration
	Today    func() core.Date
	Logger   *applog.Logger
}

// NewServer configures routes and caches, returning a ready-to-run server.
func NewServer(addr string, st Store, recorder Recorder, rateReader RateReader, opts Options) *Server {
	if opts.CacheTTL <= 0 {
		opts.CacheTTL = 5 * time.Minute
	}
	if opts.Today == nil {
		opts.Today = func() core.Date { return core.Today(nil) }
	}
	if opts.Logger == nil {
		opts.Logger = applog.New(applog.DefaultConfig()).WithComponent(applog.ComponentHTTP)
	}

	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		store:         st,
		recorder:      recorder,
		rates:         rateReader,
		engine:        aggregate.NewEngine(opts.Today),
		today:         opts.Today,
		logger:        applog.NewStructuredLogger(opts.Logger),
		rateLimiter:   newRateLimiter(),
		reportCache:   cache.NewLRUCache[aggregate.Report](100, opts.CacheTTL),
		calendarCache: cache.NewLRUCache[calendar.Month](100, opts.CacheTTL),
		cacheManager:  cache.NewManager(),
	}

	s.cacheManager.Register(s.reportCache)
	s.cacheManager.Register(s.calendarCache)
	s.cacheManager.StartCleanup(10 * time.Minute)

	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/readyz", handleReady)
	mux.HandleFunc("/api/report", s.withRequestLogging(s.handleReport))
	mux.HandleFunc("/api/calendar", s.withRequestLogging(s.handleCalendar))
	mux.HandleFunc("/api/rates", s.withRequestLogging(s.handleRates))
	mux.HandleFunc("/api/transactions", s.withRequestLogging(s.handleTransactions))
	mux.HandleFunc("/api/recurring", s.withRequestLogging(s.handleRecurring))

	s.Server.Handler = applog.Middleware(opts.Logger)(mux)

	return s
}

// Shutdown gracefully shuts down the server and cleanup routines.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error

	s.shutdownOnce.Do(func() {
		s.cacheManager.Stop()
		if s.rateLimiter != nil {
			s.rateLimiter.stop()
		}
		shutdownErr = s.Server.Shutdown(ctx)
	})

	return shutdownErr
}

// invalidateDerived drops every cached report and calendar. Called on
// writes; a new entry can change any period's numbers.
func (s *Server) invalidateDerived() {
	s.reportCache.Purge()
	s.calendarCache.Purge()
}

// withRequestLogging adds security headers, rate limiting on writes,
// and request logging.
func (s *Server) withRequestLogging(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ip := clientIP(r)
		requestID := generateRequestID()

		ctx := context.WithValue(r.Context(), requestIDKey, requestID)
		r = r.WithContext(ctx)

		if r.Method == http.MethodPost && !s.rateLimiter.allow(ip) {
			slog.WarnContext(ctx, "Rate limit exceeded", "client_ip", ip, "url", r.URL.Path)
			w.Header().Set("Retry-After", "60")
			writeError(w, http.StatusTooManyRequests, "rate limit exceeded")
			return
		}

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		s.logger.LogHTTPEnd(ctx, r, rw.statusCode, time.Since(start).Milliseconds(), ip)
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// Simple in-memory rate limiter for write endpoints.
type rateLimiter struct {
	mu           sync.Mutex
	clients      map[string]*clientInfo
	stopCleanup  chan struct{}
	shutdownOnce sync.Once
}

type clientInfo struct {
	lastRequest time.Time
	requests    int
}

func newRateLimiter() *rateLimiter {
	rl := &rateLimiter{
		clients:     make(map[string]*clientInfo),
		stopCleanup: make(chan struct{}),
	}
	go rl.startCleanup()
	return rl
}

func (rl *rateLimiter) startCleanup() {
	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			rl.cleanupStaleEntries()
		case <-rl.stopCleanup:
			return
		}
	}
}

// cleanupStaleEntries removes client entries older than 10 minutes
func (rl *rateLimiter) cleanupStaleEntries() {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := time.Now().Add(-10 * time.Minute)
	for ip, client := range rl.clients {
		if client.lastRequest.Before(cutoff) {
			delete(rl.clients, ip)
		}
	}
}

func (rl *rateLimiter) stop() {
	rl.shutdownOnce.Do(func() {
		close(rl.stopCleanup)
	})
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	client, exists := rl.clients[ip]

	if !exists {
		rl.clients[ip] = &clientInfo{lastRequest: now, requests: 1}
		return true
	}

	if now.Sub(client.lastRequest) > time.Minute {
		client.requests = 1
		client.lastRequest = now
		return true
	}

	// Allow up to 60 writes per minute per client
	client.requests++
	client.lastRequest = now

	return client.requests <= 60
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func handleReady(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ready"))
}
