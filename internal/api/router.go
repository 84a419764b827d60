package api

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	_ "lending-service/docs"
	"lending-service/internal/api/handler"
	mw "lending-service/internal/api/middleware"
	"lending-service/internal/config"
	"lending-service/internal/domain/customer"
	"lending-service/internal/domain/loan"
	"lending-service/internal/domain/payment"
	"lending-service/internal/pkg/apperrors"
	"lending-service/internal/pkg/pagination"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/traceid"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	httpSwagger "github.com/swaggo/http-swagger/v2"
)

const healthTimeout = 2 * time.Second

type Services struct {
	Customers customer.CustomerService
	Loans     loan.LoanService
	Payments  payment.PaymentService
}

// HealthCheck reports whether the backing datastore is reachable.
type HealthCheck func(ctx context.Context) error

type healthResponse struct {
	Status string `json:"status"`
}

// SetupRouter builds the HTTP handler. Background work started here stops
// when ctx is cancelled.
func SetupRouter(ctx context.Context, svc Services, health HealthCheck, cfg *config.Config, logger *slog.Logger) *chi.Mux {
	router := chi.NewRouter()

	setupMiddleware(ctx, router, cfg, logger)
	setupMetricsEndpoint(router, cfg, logger)
	setupHealthEndpoint(router, health, logger)
	setupSwaggerEndpoint(router, logger)

	limits := pagination.Limits{
		DefaultPageSize: cfg.Pagination.DefaultPageSize,
		MaxPageSize:     cfg.Pagination.MaxPageSize,
	}.Normalize()

	prefix := cfg.Server.APIPrefix
	if prefix == "" {
		prefix = "/v1"
	}
	router.Route(prefix, func(r chi.Router) {
		setupCustomerRoutes(r, svc.Customers, limits, logger)
		setupLoanRoutes(r, svc.Loans, limits, logger)
		setupPaymentRoutes(r, svc.Payments, limits, logger)
	})

	router.NotFound(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondCode(w, http.StatusNotFound, apperrors.CodeNotFound, "Route not found")
	})
	router.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		handler.RespondCode(w, http.StatusMethodNotAllowed, apperrors.CodeMethodNotAllowed, "Method not allowed")
	})

	return router
}

func setupMiddleware(ctx context.Context, router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	timeout := cfg.Server.RequestTimeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	limiter := mw.NewRateLimiterMiddleware(cfg.Server.RateLimit, logger)
	if cfg.Server.RateLimit.Enabled {
		go limiter.RunCleanup(ctx.Done())
	}

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(traceid.Middleware)
	router.Use(mw.StructuredLogger(logger))
	router.Use(middleware.Recoverer)
	router.Use(middleware.Compress(5))
	router.Use(middleware.Timeout(timeout))
	router.Use(limiter.Middleware)
	router.Use(mw.MetricsMiddleware())
}

func setupMetricsEndpoint(router *chi.Mux, cfg *config.Config, logger *slog.Logger) {
	metricsPath := cfg.Metrics.Path
	if metricsPath == "" {
		metricsPath = "/metrics"
	}
	logger.Info("Setting up Prometheus metrics endpoint", "path", metricsPath)
	router.Handle(metricsPath, promhttp.Handler())
}

func setupHealthEndpoint(router *chi.Mux, health HealthCheck, logger *slog.Logger) {
	router.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		if health != nil {
			ctx, cancel := context.WithTimeout(r.Context(), healthTimeout)
			defer cancel()
			if err := health(ctx); err != nil {
				logger.ErrorContext(r.Context(), "Health check failed", slog.Any("error", err))
				handler.RespondCode(w, http.StatusServiceUnavailable, apperrors.CodeUnavailable, "Database unreachable")
				return
			}
		}
		handler.RespondBody(w, http.StatusOK, healthResponse{Status: "ok"})
	})
}

func setupSwaggerEndpoint(router *chi.Mux, logger *slog.Logger) {
	logger.Info("Setting up Swagger UI endpoint", "path", "/swagger/")
	router.Get("/swagger/*", httpSwagger.WrapHandler)
	router.Get("/swagger", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, "/swagger/index.html", http.StatusMovedPermanently)
	})
}

func setupCustomerRoutes(r chi.Router, svc customer.CustomerService, limits pagination.Limits, logger *slog.Logger) {
	h := handler.NewCustomerHandler(svc, limits, logger)

	r.Route("/customers", func(r chi.Router) {
		r.Get("/retrieve/{id}", h.GetCustomer)
		r.Get("/list", h.ListCustomers)
		r.Post("/create", h.CreateCustomer)
		r.Put("/update", h.UpdateCustomer)
		r.Delete("/delete/{id}", h.DeleteCustomer)
		r.Delete("/disable/{id}", h.DisableCustomer)
		r.Patch("/enable/{id}", h.EnableCustomer)
	})
}

func setupLoanRoutes(r chi.Router, svc loan.LoanService, limits pagination.Limits, logger *slog.Logger) {
	h := handler.NewLoanHandler(svc, limits, logger)

	r.Route("/loans", func(r chi.Router) {
		r.Get("/retrieve/{id}", h.GetLoan)
		r.Get("/list", h.ListLoans)
		r.Post("/create", h.CreateLoan)
		r.Delete("/delete/{id}", h.DeleteLoan)
		r.Delete("/disable/{id}", h.DisableLoan)
		r.Patch("/enable/{id}", h.EnableLoan)
	})
}

func setupPaymentRoutes(r chi.Router, svc payment.PaymentService, limits pagination.Limits, logger *slog.Logger) {
	h := handler.NewPaymentHandler(svc, limits, logger)

	r.Route("/payments", func(r chi.Router) {
		r.Get("/retrieve/{id}", h.GetPayment)
		r.Get("/list", h.ListPayments)
		r.Post("/create", h.CreatePayment)
		r.Delete("/delete/{id}", h.DeletePayment)
		r.Delete("/disable/{id}", h.DisablePayment)
		r.Patch("/enable/{id}", h.EnablePayment)
	})
}
