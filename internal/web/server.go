// Package web provides the HTTP server and handlers for the coverage dashboard
// and report API.
package web

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/JonMunkholm/coverage/internal/config"
	"github.com/JonMunkholm/coverage/internal/core"
	appmw "github.com/JonMunkholm/coverage/internal/web/middleware"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// Server is the HTTP server for the coverage application.
type Server struct {
	service *core.Service
	cfg     *config.Config
	router  *chi.Mux
	server  *http.Server
	limiter *rateLimiter
}

// NewServer creates a new Server instance.
func NewServer(service *core.Service, cfg *config.Config) *Server {
	s := &Server{
		service: service,
		cfg:     cfg,
		router:  chi.NewRouter(),
	}
	s.setupMiddleware()
	s.setupRoutes()
	return s
}

// setupMiddleware configures middleware for all routes.
func (s *Server) setupMiddleware() {
	s.router.Use(middleware.RequestID)
	s.router.Use(appmw.TrustedRealIP(s.cfg.Security.TrustedProxies))
	s.router.Use(appmw.Logger)
	s.router.Use(middleware.Recoverer)
	s.router.Use(middleware.Timeout(s.cfg.Server.RequestTimeout))

	// Security hardening
	s.router.Use(securityHeaders)

	if s.cfg.Rate.Enabled {
		s.limiter = newRateLimiter(s.cfg.Rate.RequestsPerMinute, time.Minute)
		s.router.Use(s.limiter.middleware)
	}
}

// setupRoutes configures all HTTP routes.
func (s *Server) setupRoutes() {
	// Pages
	s.router.Get("/", s.handleDashboard)
	s.router.Get("/workbook/{id}", s.handleWorkbookPage)
	s.router.Post("/upload", s.handleUploadForm)

	// API routes
	s.router.Route("/api", func(r chi.Router) {
		r.Use(appmw.APIKeyAuth(&s.cfg.Security))

		r.Get("/status", s.handleStatus)
		r.Get("/keywords", s.handleKeywords)

		// Workbook registry
		r.Get("/workbooks", s.handleListWorkbooks)
		r.Post("/workbooks", s.handleUploadWorkbook)

		r.Route("/workbooks/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetWorkbook)
			r.Get("/preview", s.handleWorkbookPreview)
			r.Delete("/", s.handleDeleteWorkbook)

			// One endpoint per metric; ?keyword= may repeat
			r.Get("/mentions", s.handleMentions)
			r.Get("/headline-mentions", s.handleHeadlineMentions)
			r.Get("/reach", s.handleReach)
			r.Get("/ave", s.handleAVE)
			r.Get("/sentiment", s.handleSentiment)
			r.Get("/trendline", s.handleTrendline)
			r.Get("/top-sources", s.handleTopSources)
			r.Get("/top-authors", s.handleTopAuthors)
			r.Get("/summary", s.handleSummary)
			r.Get("/sentiment-overview", s.handleSentimentOverview)
			r.Get("/prominence", s.handleProminence)

			// Full report
			r.Get("/report", s.handleReport)
			r.Get("/report.xlsx", s.handleReportXLSX)

			r.Post("/snapshots", s.handleSaveSnapshot)
		})

		// Snapshots
		r.Get("/snapshots", s.handleListSnapshots)
		r.Get("/snapshots/{snapshotID}", s.handleGetSnapshot)
	})
}

// Start begins listening for HTTP requests on the configured address.
func (s *Server) Start() error {
	s.server = &http.Server{
		Addr:         s.cfg.Server.Addr(),
		Handler:      s.router,
		ReadTimeout:  s.cfg.Server.ReadTimeout,
		WriteTimeout: s.cfg.Server.WriteTimeout,
		IdleTimeout:  s.cfg.Server.IdleTimeout,
	}

	slog.Info("starting server", "addr", s.server.Addr)
	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// Shutdown gracefully stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.limiter != nil {
		s.limiter.stop()
	}
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

// Router returns the underlying chi router for testing.
func (s *Server) Router() *chi.Mux {
	return s.router
}

// securityHeaders adds security headers to all responses.
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("X-XSS-Protection", "1; mode=block")

		// Pages inline their styles and SVG charts
		w.Header().Set("Content-Security-Policy", "default-src 'self'; style-src 'self' 'unsafe-inline'; img-src 'self' data:")

		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		next.ServeHTTP(w, r)
	})
}

// rateLimiter implements a simple token bucket rate limiter per IP.
type rateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	rate     int           // requests per window
	window   time.Duration // time window

	done     chan struct{}
	stopOnce sync.Once
}

type visitor struct {
	tokens    int
	lastReset time.Time
}

// newRateLimiter creates a rate limiter with the specified rate per window.
func newRateLimiter(rate int, window time.Duration) *rateLimiter {
	rl := &rateLimiter{
		visitors: make(map[string]*visitor),
		rate:     rate,
		window:   window,
		done:     make(chan struct{}),
	}
	go rl.cleanup()
	return rl
}

// cleanup removes stale visitor entries every window until stopped.
func (rl *rateLimiter) cleanup() {
	ticker := time.NewTicker(rl.window)
	defer ticker.Stop()

	for {
		select {
		case <-rl.done:
			return
		case <-ticker.C:
		}

		rl.mu.Lock()
		for ip, v := range rl.visitors {
			if time.Since(v.lastReset) > rl.window*2 {
				delete(rl.visitors, ip)
			}
		}
		rl.mu.Unlock()
	}
}

func (rl *rateLimiter) stop() {
	rl.stopOnce.Do(func() { close(rl.done) })
}

// allow checks if the request should be allowed and consumes a token if so.
func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	v, exists := rl.visitors[ip]
	if !exists {
		rl.visitors[ip] = &visitor{
			tokens:    rl.rate - 1,
			lastReset: time.Now(),
		}
		return true
	}

	if time.Since(v.lastReset) > rl.window {
		v.tokens = rl.rate - 1
		v.lastReset = time.Now()
		return true
	}

	if v.tokens <= 0 {
		return false
	}

	v.tokens--
	return true
}

// middleware returns an HTTP middleware that rate limits by client IP.
// RemoteAddr has already been rewritten by TrustedRealIP.
func (rl *rateLimiter) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !rl.allow(clientIP(r)) {
			w.Header().Set("Retry-After", "60")
			respondErrorJSON(w, core.MapError(errRateLimited), http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}
