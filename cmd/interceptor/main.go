package main

import (
	"encoding/json"
	"flag"
	"log/slog"
	"net/http"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/G1D0/Http-Interceptor/internal/config"
	"github.com/G1D0/Http-Interceptor/internal/middleware"
	"github.com/G1D0/Http-Interceptor/internal/observe"
	"github.com/G1D0/Http-Interceptor/internal/server"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file (optional)")
	flag.Parse()

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.Load(*configPath)
		if err != nil {
			slog.Error("invalid configuration", "error", err)
			os.Exit(1)
		}
		cfg = loaded
	}

	logger := observe.NewLogger(observe.LogConfig{
		Level:  observe.ParseLevel(cfg.LogLevel),
		Format: observe.ParseFormat(cfg.LogFormat),
	})
	slog.SetDefault(logger)

	exclude, err := middleware.NewExclusionSet(cfg.ExcludePaths)
	if err != nil {
		logger.Error("invalid exclusion patterns", "error", err)
		os.Exit(1)
	}

	metrics := observe.NewMetrics(prometheus.DefaultRegisterer)

	interceptor := middleware.NewInterceptor(middleware.InterceptorConfig{
		Logger:   observe.NewSlogEventLogger(logger),
		Exclude:  exclude,
		Facility: cfg.Facility,
		Metrics:  metrics,
	})

	mux := http.NewServeMux()
	mux.HandleFunc("GET /users/{id}", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]string{"id": r.PathValue("id")})
	})
	mux.HandleFunc("POST /users", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(map[string]string{"status": "created"})
	})
	for _, probe := range []string{"/live", "/ready", "/healthcheck"} {
		mux.HandleFunc("GET "+probe, func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("ok"))
		})
	}
	mux.Handle("GET /metrics", observe.Handler())

	handler := middleware.Chain(
		middleware.RequestID(),
		interceptor.Middleware(),
	)(mux)

	srv := server.New(server.Config{
		Addr:         cfg.Addr,
		Handler:      handler,
		DrainTimeout: cfg.DrainTimeout(),
		Logger:       logger,
	})

	if err := srv.ListenAndServe(); err != nil {
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}
