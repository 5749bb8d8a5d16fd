package main

import (
	"context"
	"embed"
	"errors"
	"io/fs"
	"mime"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"memgame/internal/config"
	"memgame/internal/game"
	"memgame/internal/handlers"
	"memgame/internal/logger"
	"memgame/internal/metrics"
	"memgame/internal/pokeapi"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.Get().Error("invalid configuration", "err", err)
		os.Exit(1)
	}
	log := logger.Init(cfg.LogLevel, cfg.LogFormat)

	_ = mime.AddExtensionType(".js", "application/javascript")
	_ = mime.AddExtensionType(".css", "text/css")
	_ = mime.AddExtensionType(".svg", "image/svg+xml")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New(prometheus.DefaultRegisterer)
	client := pokeapi.NewClient(pokeapi.Options{
		BaseURL:      cfg.PokeAPIURL,
		CatalogLimit: cfg.CatalogLimit,
		Concurrency:  cfg.FetchConcurrency,
		Placeholder:  cfg.PlaceholderImage,
		HTTPClient:   &http.Client{Timeout: cfg.FetchTimeout},
		Metrics:      m,
	})
	store := game.NewStore(cfg.GameSettings(), client, game.WithMetrics(m))
	go store.RunJanitor(ctx, cfg.JanitorInterval, cfg.SessionTTL)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(unlessStream(middleware.Timeout(15 * time.Second)))

	staticFS, err := fs.Sub(embeddedStatic, "static")
	if err != nil {
		log.Error("static assets", "err", err)
		os.Exit(1)
	}

	r.Mount("/static", http.StripPrefix("/static", http.FileServer(http.FS(staticFS))))
	r.Handle("/metrics", promhttp.Handler())

	starter := handlers.NewStarter(ctx, cfg.FetchTimeout)
	homeHandler := handlers.NewHomeHandler(store, starter)
	gameHandler := handlers.NewGameHandler(store, starter)

	homeHandler.RegisterRoutes(r)
	gameHandler.RegisterRoutes(r)

	// No WriteTimeout: SSE responses stay open for the life of a session.
	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		IdleTimeout:       60 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			log.Error("shutdown", "err", err)
		}
	}()

	log.Info("listening", "url", "http://localhost"+cfg.Addr())
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "err", err)
		os.Exit(1)
	}
}

// unlessStream applies mw to every request except SSE streams.
func unlessStream(mw func(http.Handler) http.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		wrapped := mw(next)
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if strings.HasSuffix(r.URL.Path, "/stream") {
				next.ServeHTTP(w, r)
				return
			}
			wrapped.ServeHTTP(w, r)
		})
	}
}

//go:embed static/*
var embeddedStatic embed.FS
