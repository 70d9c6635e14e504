package http

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	applog "voicebook/internal/log"
	"voicebook/internal/middleware/ratelimit"
	"voicebook/internal/middleware/security"
	"voicebook/internal/middleware/trace"
	"voicebook/internal/services"
)

// Options tunes the middleware stack.
type Options struct {
	// RateLimitPerMin caps mutating requests per client IP; <= 0 uses the
	// limiter default.
	RateLimitPerMin int
	TrustedProxies  []string
	// Logger is attached to every request context; nil uses the slog
	// default.
	Logger *applog.Logger
}

type Server struct {
	http.Server
	svc      *services.LedgerService
	limiter  *ratelimit.Limiter
	tracer   *trace.Middleware
	detector *security.Detector

	shutdownOnce sync.Once
}

// NewServer registers the JSON routes and wraps them in the middleware
// chain, returning a ready-to-run http.Server.
func NewServer(addr string, svc *services.LedgerService, opts Options) *Server {
	detector := security.NewDetector()
	for _, cidr := range opts.TrustedProxies {
		if err := detector.AddTrustedProxy(cidr); err != nil {
			slog.Warn("Ignoring trusted proxy",
				applog.FieldComponent, applog.ComponentSecurity,
				applog.FieldError, err)
		}
	}

	s := &Server{
		svc:      svc,
		detector: detector,
		tracer:   trace.NewMiddleware(detector.ExtractClientIP),
		limiter: ratelimit.NewLimiter(ratelimit.Config{
			RequestsPerMinute: opts.RateLimitPerMin,
		}),
	}

	mux := http.NewServeMux()
	mux.HandleFunc("GET /healthz", handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	mux.HandleFunc("GET /records", s.handleListRecords)
	mux.HandleFunc("POST /records", s.handleCreateRecord)
	mux.HandleFunc("DELETE /records", s.handleClearRecords)
	mux.HandleFunc("POST /records/transcript", s.handleCreateFromTranscript)
	mux.HandleFunc("POST /records/parse", s.handleParseTranscript)
	mux.HandleFunc("PUT /records/{id}", s.handleEditRecord)
	mux.HandleFunc("DELETE /records/{id}", s.handleDeleteRecord)

	mux.HandleFunc("GET /summary", s.handleSummary)
	mux.HandleFunc("GET /share", s.handleShare)
	mux.HandleFunc("GET /export.csv", s.handleExport)
	mux.HandleFunc("POST /import", s.handleImport)

	headers := security.NewHeadersMiddleware(security.DefaultHeadersConfig())
	limit := s.limiter.WriteMiddleware(detector.ExtractClientIP, func(w http.ResponseWriter, _ *http.Request) {
		ErrorResponse(http.StatusTooManyRequests, "rate limit exceeded").Write(w)
	})

	logger := opts.Logger
	if logger == nil {
		logger = applog.New(applog.Config{Handler: slog.Default().Handler()})
	}
	logger = logger.WithComponent(applog.ComponentHTTP)

	var handler http.Handler = mux
	handler = limit(handler)
	handler = detector.Middleware(handler)
	handler = headers.Middleware(handler)
	handler = applog.RequestIDMiddleware(func(r *http.Request) string {
		return trace.GetRequestID(r.Context())
	})(handler)
	handler = s.tracer.Middleware(handler)
	handler = applog.Middleware(logger)(handler)

	s.Server = http.Server{
		Addr:              addr,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Shutdown gracefully shuts down the server and the limiter's cleanup loop.
func (s *Server) Shutdown(ctx context.Context) error {
	var shutdownErr error
	s.shutdownOnce.Do(func() {
		s.limiter.Stop()
		shutdownErr = s.Server.Shutdown(ctx)
	})
	return shutdownErr
}

// Metrics reports request counters from the middleware stack.
type Metrics struct {
	Trace     trace.Metrics
	RateLimit ratelimit.Metrics
	Security  security.DetectionMetrics
}

func (s *Server) Metrics() Metrics {
	return Metrics{
		Trace:     s.tracer.GetMetrics(),
		RateLimit: s.limiter.GetMetrics(),
		Security:  s.detector.GetMetrics(),
	}
}
