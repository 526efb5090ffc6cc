package api

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/codectx/codectx/internal/api/routes"
	"github.com/codectx/codectx/internal/app"
	"github.com/codectx/codectx/internal/db"
)

func init() {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))
}

const (
	colorReset  = "\033[0m"
	colorRed    = "\033[31m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorCyan   = "\033[36m"
	colorDim    = "\033[2m"
)

func statusColor(code int) string {
	switch {
	case code >= 500:
		return colorRed
	case code >= 400:
		return colorYellow
	case code >= 300:
		return colorCyan
	default:
		return colorGreen
	}
}

func methodColor(method string) string {
	switch method {
	case "GET":
		return colorGreen
	case "POST":
		return colorCyan
	case "PUT", "PATCH":
		return colorYellow
	case "DELETE":
		return colorRed
	default:
		return colorReset
	}
}

func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		status := ww.Status()
		duration := time.Since(start)

		fmt.Fprintf(os.Stdout, "%s%-7s%s %s %s%d%s %s%s%s\n",
			methodColor(r.Method), r.Method, colorReset,
			r.URL.Path,
			statusColor(status), status, colorReset,
			colorDim, duration, colorReset,
		)
	})
}

// NewServer builds the chi router exposing the graph, resolve, context, and
// pipeline endpoints over a single App instance.
func NewServer(a *app.App, port string) *http.Server {
	r := chi.NewRouter()

	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(corsMiddleware)
	r.Use(middleware.SetHeader("Content-Type", "application/json"))

	r.Get("/health", healthHandler(a))

	r.Mount("/graph", routes.GraphRoutes(a))
	r.Post("/resolve", routes.ResolveHandler(a))
	r.Post("/context", routes.ContextHandler(a))
	r.Mount("/pipeline", routes.PipelineRoutes(a))

	return &http.Server{
		Addr:    ":" + port,
		Handler: r,
	}
}

// Run starts the HTTP server and blocks until SIGINT/SIGTERM.
func Run(a *app.App, port string) error {
	srv := NewServer(a, port)

	done := make(chan os.Signal, 1)
	signal.Notify(done, os.Interrupt, syscall.SIGTERM)

	go func() {
		slog.Info("server started", "port", port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
			os.Exit(1)
		}
	}()

	<-done
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}

	slog.Info("server stopped")
	return nil
}

// healthHandler reports "ok" when there is no Postgres pool to check (the
// in-memory store needs nothing beyond the process being up), and runs
// db.HealthCheck against the pool otherwise, reporting 503 on failure.
func healthHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		pool := a.Pool()
		if pool == nil {
			w.Write([]byte(`{"status":"ok"}`))
			return
		}
		if err := db.HealthCheck(r.Context(), pool); err != nil {
			w.WriteHeader(http.StatusServiceUnavailable)
			w.Write([]byte(fmt.Sprintf(`{"status":"error","error":%q}`, err.Error())))
			return
		}
		w.Write([]byte(`{"status":"ok"}`))
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
