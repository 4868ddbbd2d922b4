package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger"

	"github.com/swapcrate/swapcrate/internal/database"
	"github.com/swapcrate/swapcrate/internal/dispute"
	"github.com/swapcrate/swapcrate/internal/handler"
	"github.com/swapcrate/swapcrate/internal/logger"
	"github.com/swapcrate/swapcrate/internal/metrics"
	"github.com/swapcrate/swapcrate/internal/reputation"
	"github.com/swapcrate/swapcrate/internal/repository"
	"github.com/swapcrate/swapcrate/internal/trade"
)

type Server struct {
	httpServer        *http.Server
	dbPool            database.Pool
	tradeService      trade.Service
	disputeService    dispute.Service
	reputationService reputation.Service
}

// NewServer creates a new Server instance
func NewServer(port int, apiKey string, trustedProxies []string, dbPool database.Pool, tradeService trade.Service, disputeService dispute.Service, reputationService reputation.Service, users repository.User, ratings repository.Rating) *Server {
	r := chi.NewRouter()

	// Middleware stack
	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey, trustedProxies, detector))
	r.Use(SecurityLoggingMiddleware(trustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	r.MethodNotAllowed(handler.HandleMethodNotAllowed())

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		// Trade lifecycle routes
		r.Route("/trade", func(r chi.Router) {
			r.Post("/propose", handler.HandleProposeTrade(tradeService))

			r.Route("/{tradeID}", func(r chi.Router) {
				r.Get("/", handler.HandleGetTrade(tradeService))
				r.Get("/chain", handler.HandleGetTradeChain(tradeService))
				r.Post("/respond", handler.HandleRespondToTrade(tradeService))
				r.Post("/fund", handler.HandleFundEscrow(tradeService))
				r.Post("/tracking", handler.HandleSubmitTracking(tradeService))
				r.Post("/confirm", handler.HandleConfirmSatisfaction(tradeService))
				r.Post("/rate", handler.HandleSubmitRating(tradeService))
				r.Post("/dispute", handler.HandleOpenDispute(disputeService))
			})
		})

		// Dispute routes
		r.Route("/dispute/{ticketID}", func(r chi.Router) {
			r.Get("/", handler.HandleGetDispute(disputeService))
			r.Post("/respond", handler.HandleRespondToDispute(disputeService))
			r.Post("/escalate", handler.HandleEscalateDispute(disputeService))
			r.Post("/resolve", handler.HandleResolveDispute(disputeService))
		})

		// User routes
		r.Route("/user/{userID}", func(r chi.Router) {
			r.Get("/reputation", handler.HandleGetReputation(reputationService))
			r.Get("/ratings", handler.HandleGetUserRatings(users, ratings))

			r.Route("/wishlist", func(r chi.Router) {
				r.Get("/", handler.HandleGetWishlist(users))
				r.Post("/", handler.HandleAddWishlistItem(users))
				r.Delete("/", handler.HandleRemoveWishlistItem(users))
			})
		})
	})

	// Swagger documentation
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool:            dbPool,
		tradeService:      tradeService,
		disputeService:    disputeService,
		reputationService: reputationService,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)

		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, HeaderAuthorization) {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		rw := newResponseWriter(w)

		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
