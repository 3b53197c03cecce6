package http

import (
	"context"
	"net/http"
	"time"

	"github.com/DRSN-tech/catalog-backend/internal/usecase"
	"github.com/DRSN-tech/catalog-backend/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

// HealthChecker проверяет доступность хранилища для /healthz.
type HealthChecker func(ctx context.Context) error

type Router struct {
	router *chi.Mux
	logger logger.Logger
}

func NewRouter(router *chi.Mux, logger logger.Logger) *Router {
	return &Router{router: router, logger: logger}
}

func (r *Router) Init(catUC usecase.CategoryUC, prUC usecase.ProductUC, health HealthChecker) {
	r.router.Use(middleware.RequestID)
	r.router.Use(middleware.Recoverer)
	r.router.Use(requestLogger(r.logger))
	r.router.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "HEAD", "PUT", "PATCH", "POST", "DELETE"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
		MaxAge:         300,
	}))

	r.router.Get("/healthz", healthHandler(health))

	catHandler := NewCategoryHandler(catUC, r.logger)
	prHandler := NewProductHandler(prUC, r.logger)

	registerRoutes(r.router, catHandler, prHandler)
	r.router.Route("/api/v1", func(v1 chi.Router) {
		registerRoutes(v1, catHandler, prHandler)
	})
}

func registerRoutes(router chi.Router, catHandler *CategoryHandler, prHandler *ProductHandler) {
	router.Route("/category", func(cat chi.Router) {
		cat.Get("/", catHandler.listCategories)
		cat.Post("/", catHandler.createCategory)
	})

	router.Route("/products", func(pr chi.Router) {
		pr.Get("/", prHandler.listProducts)
		pr.Post("/", prHandler.createProduct)
		pr.Put("/{id}", prHandler.updateProduct)
		pr.Patch("/{id}", prHandler.updateProduct)
		pr.Delete("/{id}", prHandler.deleteProduct)
	})
}

func healthHandler(health HealthChecker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		if err := health(ctx); err != nil {
			WriteSuccess(w, http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
			return
		}

		WriteSuccess(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// requestLogger пишет в лог метод, путь, статус и длительность каждого запроса.
func requestLogger(log logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

			next.ServeHTTP(ww, r)

			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}

			reqLog := log.With(
				"request_id", middleware.GetReqID(r.Context()),
				"method", r.Method,
				"path", r.URL.Path,
				"status", status,
				"duration", time.Since(start).String(),
			)
			if status >= http.StatusInternalServerError {
				reqLog.Warnf("http request failed")
				return
			}
			reqLog.Infof("http request")
		})
	}
}
