// Package api отдаёт сервисы планирования по HTTP.
package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/julienschmidt/httprouter"
	"github.com/rs/cors"
	"go.uber.org/zap"

	"github.com/Liam-Lillieroth/MetaTask/internal/service"
)

// Services - сценарии, которые обслуживает API
type Services struct {
	Resources *service.ResourceService
	Bookings  *service.BookingService
	Sync      *service.SyncService
	Suggest   *service.SuggestionService
	Reports   *service.ReportService
}

type Options struct {
	Addr           string
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

type Server struct {
	svc     Services
	opts    Options
	limiter *RateLimiter
	logger  *zap.Logger
}

func NewServer(svc Services, opts Options, logger *zap.Logger) *Server {
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = 20
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = 40
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}
	return &Server{
		svc:     svc,
		opts:    opts,
		limiter: NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		logger:  logger,
	}
}

func (s *Server) health(w http.ResponseWriter, _ *http.Request, _ httprouter.Params) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Router строит таблицу маршрутов. Все маршруты API ограничены по IP клиента.
func (s *Server) Router() *httprouter.Router {
	router := httprouter.New()
	lim := s.limiter.Limit

	router.GET("/health", s.health)

	router.GET("/api/resources", lim(s.listResources))
	router.POST("/api/resources", lim(s.createResource))
	router.GET("/api/resources/:id", lim(s.getResource))
	router.PUT("/api/resources/:id", lim(s.updateResource))
	router.DELETE("/api/resources/:id", lim(s.deactivateResource))
	router.PUT("/api/resources/:id/working-hours", lim(s.setWorkingHours))
	router.POST("/api/resources/:id/blackouts", lim(s.addBlackout))
	router.GET("/api/resources/:id/rules", lim(s.listRules))
	router.POST("/api/resources/:id/rules", lim(s.addRule))
	router.GET("/api/resources/:id/availability", lim(s.resourceAvailability))
	router.GET("/api/resources/:id/schedule", lim(s.resourceSchedule))
	router.GET("/api/resources/:id/utilization", lim(s.resourceUtilization))
	router.POST("/api/resources/:id/suggest", lim(s.resourceSuggest))
	router.GET("/api/rules/:id", lim(s.getRule))
	router.PUT("/api/rules/:id", lim(s.updateRule))
	router.DELETE("/api/rules/:id", lim(s.deleteRule))

	router.GET("/api/bookings", lim(s.listBookings))
	router.POST("/api/bookings", lim(s.submitBooking))
	router.GET("/api/bookings/:id", lim(s.getBooking))
	router.GET("/api/bookings/:id/history", lim(s.bookingHistory))
	router.POST("/api/bookings/:id/confirm", lim(s.confirmBooking))
	router.POST("/api/bookings/:id/start", lim(s.startBooking))
	router.POST("/api/bookings/:id/complete", lim(s.completeBooking))
	router.POST("/api/bookings/:id/cancel", lim(s.cancelBooking))
	router.POST("/api/bookings/:id/reject", lim(s.rejectBooking))

	router.POST("/api/integrations/:system/bookings", lim(s.syncBooking))
	router.POST("/api/integrations/:system/bookings/batch", lim(s.syncBatch))
	router.GET("/api/integrations/:system/bookings/:ref", lim(s.linkedBooking))
	router.POST("/api/integrations/:system/teams", lim(s.seedTeams))
	router.GET("/api/integrations/:system/entities/:name/schedule", lim(s.entitySchedule))
	router.GET("/api/integrations/:system/entities/:name/availability", lim(s.entityAvailability))
	router.POST("/api/integrations/:system/entities/:name/suggest", lim(s.entitySuggest))
	router.POST("/api/integrations/:system/origins/:ref/complete", lim(s.completeOrigin))
	router.POST("/api/integrations/:system/origins/:ref/cancel", lim(s.cancelOrigin))

	router.PanicHandler = func(w http.ResponseWriter, r *http.Request, v any) {
		s.logger.Error("Handler panic", zap.String("path", r.URL.Path), zap.Any("panic", v))
		respondJSON(w, http.StatusInternalServerError, errorBody{Error: "internal error", Code: "internal_error"})
	}
	return router
}

// Handler оборачивает router: CORS, затем заголовки безопасности, затем access log
func (s *Server) Handler() http.Handler {
	corsHandler := cors.New(cors.Options{
		AllowedOrigins: s.opts.AllowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization", "X-Actor"},
	}).Handler(s.Router())

	return s.accessLog(securityHeaders(corsHandler))
}

// Run обслуживает запросы до отмены ctx, затем плавно останавливается
func (s *Server) Run(ctx context.Context) error {
	server := &http.Server{
		Addr:              s.opts.Addr,
		Handler:           s.Handler(),
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
		ReadHeaderTimeout: 2 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("HTTP server listening", zap.String("addr", s.opts.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("listen %s: %w", s.opts.Addr, err)
		}
		return nil
	case <-ctx.Done():
	}

	s.logger.Info("Shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutdown http server: %w", err)
	}
	return nil
}

// securityHeaders ставит обычные заголовки ответа API
func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Referrer-Policy", "no-referrer")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) accessLog(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.logger.Info("HTTP request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", rec.status),
			zap.String("remote", clientIP(r)),
			zap.Duration("duration", time.Since(start)),
		)
	})
}
