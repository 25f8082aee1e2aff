package router

import (
	"fmt"
	"net"
	"net/http"
	"net/http/httputil"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"go.uber.org/zap"

	"github.com/myosher1/sales-delivery/internal/gateway/config"
	"github.com/myosher1/sales-delivery/internal/gateway/idempotency"
)

func NewRouter(cfg *config.Config, store idempotency.Store, l *zap.Logger) (http.Handler, error) {
	salesURL, err := url.Parse(cfg.SalesServiceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Sales Service URL (%s): %w", cfg.SalesServiceURL, err)
	}
	inventoryURL, err := url.Parse(cfg.InventoryServiceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Inventory Service URL (%s): %w", cfg.InventoryServiceURL, err)
	}
	deliveryURL, err := url.Parse(cfg.DeliveryServiceURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Delivery Service URL (%s): %w", cfg.DeliveryServiceURL, err)
	}

	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"http://localhost:5173"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-CSRF-Token", idempotency.HeaderKey},
		ExposedHeaders:   []string{"Link", idempotency.HeaderReplay},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	salesProxy := createProxy(salesURL, l)
	inventoryProxy := createProxy(inventoryURL, l)
	deliveryProxy := createProxy(deliveryURL, l)

	idempotent := idempotency.Middleware(store, l)

	r.Route("/orders", func(r chi.Router) {
		r.With(idempotent).Post("/", salesProxy.ServeHTTP)
		r.Get("/", salesProxy.ServeHTTP)
		r.Get("/{id}", salesProxy.ServeHTTP)
		r.With(idempotent).Patch("/{id}/status", salesProxy.ServeHTTP)
	})

	r.Post("/check-availability", inventoryProxy.ServeHTTP)

	r.Route("/deliveries", func(r chi.Router) {
		r.Get("/", deliveryProxy.ServeHTTP)
		r.Get("/{id}", deliveryProxy.ServeHTTP)
		r.With(idempotent).Patch("/{id}/status", deliveryProxy.ServeHTTP)
	})

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("Gateway is up"))
	})

	return r, nil
}

func createProxy(target *url.URL, l *zap.Logger) http.Handler {
	proxy := httputil.NewSingleHostReverseProxy(target)

	proxy.Director = func(req *http.Request) {
		req.URL.Host = target.Host
		req.URL.Scheme = target.Scheme
		req.RequestURI = req.URL.RequestURI()

		if clientIP, _, err := net.SplitHostPort(req.RemoteAddr); err == nil {
			if prior, ok := req.Header["X-Forwarded-For"]; ok {
				clientIP = strings.Join(prior, ", ") + ", " + clientIP
			}
			req.Header.Set("X-Forwarded-For", clientIP)
		}
	}

	proxy.ErrorHandler = func(w http.ResponseWriter, r *http.Request, err error) {
		l.Error("Proxy error",
			zap.String("path", r.URL.Path),
			zap.String("target", target.String()),
			zap.Error(err))

		if os.IsTimeout(err) {
			renderJSONError(w, "Gateway Timeout", http.StatusGatewayTimeout)
		} else if _, ok := err.(net.Error); ok {
			renderJSONError(w, "Service Unavailable", http.StatusServiceUnavailable)
		} else {
			renderJSONError(w, "Internal Server Error", http.StatusInternalServerError)
		}
	}

	return proxy
}

func renderJSONError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	fmt.Fprintf(w, `{"error": "%s", "code": %d}`, message, statusCode)
}
