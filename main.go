package main

import (
	"context"
	"errors"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"labelpro/auth"
	"labelpro/handlers/api/revisions"
	"labelpro/handlers/api/rows"
	"labelpro/handlers/api/templates"
	"labelpro/library"
	authMiddleware "labelpro/middleware"
	"labelpro/stores"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func setupRouter(store stores.Store) *chi.Mux {
	svc := library.NewService(store.TemplateStore, store.Revisions)

	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"https://*", "http://*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "Content-Length", "X-CSRF-Token", "Origin", "X-Requested-With"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300, // Maximum value not ignored by any of major browsers
	}))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		render.JSON(w, r, map[string]string{"status": "ok"})
	})

	r.Route("/api/v2", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(authMiddleware.AuthJWT)

			r.Post("/rows", rows.HandleParseRows())

			r.Route("/templates", func(r chi.Router) {
				r.Get("/", templates.HandleListTemplates(store))
				r.Get("/{id}", templates.HandleGetTemplate(store))
				r.Put("/{id}", templates.HandleSaveTemplate(svc))
				r.Delete("/{id}", templates.HandleDeleteTemplate(store))
				r.Post("/{id}/layout", templates.HandleLayout(svc))
				r.Get("/{id}/sample.xlsx", templates.HandleSampleSheet(svc))

				if store.Revisions != nil {
					r.Get("/{id}/revisions", revisions.HandleListRevisions(store.Revisions))
					r.Post("/{id}/revisions/{revisionId}/restore", revisions.HandleRestoreRevision(svc))
					r.Get("/{id}/revision-settings", revisions.HandleGetSettings(store, store.Revisions))
					r.Put("/{id}/revision-settings", revisions.HandleUpdateSettings(store, store.Revisions))
				}
			})

			if store.Revisions != nil {
				r.Get("/revisions/{revisionId}", revisions.HandleGetRevision(store.Revisions))
			}
		})
	})

	return r
}

func waitForShutdown(srv *http.Server) {
	signalC := make(chan os.Signal, 1)
	signal.Notify(signalC, os.Interrupt, syscall.SIGHUP, syscall.SIGTERM, syscall.SIGQUIT)
	s := <-signalC

	logrus.WithField("signal", s.String()).Info("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		logrus.WithField("error", err).Error("Server shutdown failed")
	}
}

func main() {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		logrus.Info("No .env file found")
	}

	listenAddress := flag.String("listen", ":3002", "The address to listen on.")
	logLevel := flag.String("loglevel", "info", "The log level (debug, info, warn, error).")
	flag.Parse()

	level, err := logrus.ParseLevel(*logLevel)
	if err != nil {
		logrus.Fatalf("Invalid log level: %v", err)
	}
	logrus.SetLevel(level)
	logrus.SetFormatter(&logrus.TextFormatter{
		FullTimestamp: true,
	})

	auth.Init()
	store := stores.GetStore()

	srv := &http.Server{
		Addr:              *listenAddress,
		Handler:           setupRouter(store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	logrus.WithField("addr", *listenAddress).Info("starting server")
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logrus.WithField("event", "start server").Fatal(err)
		}
	}()

	logrus.Debug("Server is running in the background")
	waitForShutdown(srv)
}
