// Entry point for the CP Assistant backend. Wires configuration, database,
// services, the HTTP router, and the websocket hub together, then runs the
// server with graceful shutdown.
//
// @title CP Assistant API
// @version 1.0
// @description Backend API for the CP Assistant competitive programming study tool.
// @BasePath /
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type 'Bearer YOUR_JWT_TOKEN' to authorize
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.uber.org/zap"

	"github.com/user/cpassist-go/ai"
	"github.com/user/cpassist-go/apperror"
	"github.com/user/cpassist-go/auth"
	"github.com/user/cpassist-go/codeforces"
	"github.com/user/cpassist-go/config"
	"github.com/user/cpassist-go/db"
	_ "github.com/user/cpassist-go/docs"
	"github.com/user/cpassist-go/logging"
	"github.com/user/cpassist-go/realtime"
	"github.com/user/cpassist-go/recommendations"
	"github.com/user/cpassist-go/resources"
	"github.com/user/cpassist-go/routines"
	"github.com/user/cpassist-go/users"
)

// app bundles the wired router and the long-lived realtime components so
// main can start and stop them in the right order.
type app struct {
	router    chi.Router
	hub       *realtime.Hub
	scheduler *realtime.Scheduler
	resources *resources.Service
}

func main() {
	// .env is a development convenience; production sets variables directly.
	godotenv.Load()

	log, err := logging.New(os.Getenv("APP_ENV"))
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	cfg, err := config.LoadConfig()
	if err != nil {
		log.Fatalw("failed to load config", "error", err)
	}

	pool, err := db.NewPool(cfg.DB)
	if err != nil {
		log.Fatalw("failed to create database pool", "error", err)
	}
	defer pool.Close()

	if err := db.RunMigrations(cfg.DB, "db/migrations"); err != nil {
		log.Fatalw("failed to run migrations", "error", err)
	}

	a := newApp(cfg, pool, log)

	seedCtx, seedCancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := a.resources.SeedDefaults(seedCtx); err != nil {
		log.Warnw("failed to seed learning resources", "error", err)
	}
	seedCancel()

	go a.hub.Run()

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	srv := &http.Server{
		Addr:         addr,
		Handler:      a.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Infow("server starting", "addr", addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalw("failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Infow("server shutting down")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		log.Fatalw("server shutdown failed", "error", err)
	}

	// Stop refresh loops before the hub so no broadcast lands after the hub
	// run loop has exited.
	a.scheduler.Close()
	a.hub.Stop()

	log.Infow("server stopped gracefully")
}

// newApp constructs every service and handler and assembles the router.
// Services and handlers are wired by hand.
func newApp(cfg *config.AppConfig, pool *pgxpool.Pool, log *zap.SugaredLogger) *app {
	authService := auth.NewService(pool, *cfg.Auth, log)
	authHandlers := auth.NewHandlers(authService)

	userService := users.NewService(pool)
	userHandlers := users.NewHandlers(userService)

	cfClient := codeforces.NewClient(cfg.Codeforces.BaseURL, log)
	cfService := codeforces.NewService(pool)
	cfHandlers := codeforces.NewHandlers(cfClient, cfService)

	aiClient := ai.NewClient(cfg.AI, log)
	aiService := ai.NewService(pool, aiClient, log)
	aiHandlers := ai.NewHandlers(aiService)

	recService := recommendations.NewService(pool, cfService, cfClient, log)
	recHandlers := recommendations.NewHandlers(recService)

	routineService := routines.NewService(pool, aiService, log)
	routineHandlers := routines.NewHandlers(routineService)

	resourceService := resources.NewService(pool, log)
	resourceHandlers := resources.NewHandlers(resourceService)

	// The hub and scheduler reference each other: the hub routes start/stop
	// requests to the scheduler, the scheduler broadcasts through the hub.
	hub := realtime.NewHub(aiService, log)
	scheduler := realtime.NewScheduler(cfClient, cfService, hub, cfg.Realtime.UpdateInterval, log)
	hub.SetTracker(scheduler)

	r := chi.NewRouter()

	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Timeout(60 * time.Second))

	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   []string{"*"},
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Fine-grained panic recovery that keeps error responses in the apperror
	// shape.
	r.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
			defer func() {
				if rvr := recover(); rvr != nil {
					log.Errorw("panic in handler", "panic", rvr)
					writeError(ww, apperror.NewInternalError("internal server error", nil))
				}
			}()
			next.ServeHTTP(ww, req)
		})
	})

	r.Get("/swagger/*", httpSwagger.Handler(
		httpSwagger.URL("/swagger/doc.json"),
	))

	r.Route("/auth", func(r chi.Router) {
		r.Post("/register", authHandlers.HandleRegister())
		r.Post("/login", authHandlers.HandleLogin())
		r.Post("/refresh", authHandlers.HandleRefreshToken())
	})

	r.Route("/users", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(cfg.Auth))
		r.Get("/me", userHandlers.HandleGetUserProfile())
		r.Put("/me", userHandlers.HandleUpdateUserProfile())
	})

	// The REST CRUD surface requires a valid access token. The websocket
	// endpoint below stays open; see the realtime package doc.
	r.Route("/api", func(r chi.Router) {
		r.Use(auth.JWTMiddleware(cfg.Auth))

		r.Route("/ai", func(r chi.Router) {
			r.Post("/debug", aiHandlers.HandleDebug())
			r.Post("/explain", aiHandlers.HandleExplain())
		})

		r.Get("/codeforces/search", cfHandlers.HandleSearch())
		r.Route("/codeforces-profiles", func(r chi.Router) {
			r.Post("/", cfHandlers.HandleCreate())
			r.Get("/user/{userId}", cfHandlers.HandleGetByUser())
		})

		r.Route("/problem-recommendations", func(r chi.Router) {
			r.Get("/user/{userId}", recHandlers.HandleListByUser())
			r.Post("/generate", recHandlers.HandleGenerate())
			r.Patch("/{id}", recHandlers.HandleUpdateStatus())
			r.Delete("/{id}", recHandlers.HandleDelete())
		})

		r.Route("/study-routines", func(r chi.Router) {
			r.Post("/", routineHandlers.HandleCreate())
			r.Get("/user/{userId}", routineHandlers.HandleListByUser())
			r.Get("/{id}", routineHandlers.HandleGet())
			r.Delete("/{id}", routineHandlers.HandleDelete())
		})

		r.Route("/learning-resources", func(r chi.Router) {
			r.Get("/", resourceHandlers.HandleList())
			r.Post("/", resourceHandlers.HandleCreate())
			r.Get("/{id}", resourceHandlers.HandleGet())
		})
	})

	r.Get("/ws", realtime.ServeWS(hub, log))

	return &app{
		router:    r,
		hub:       hub,
		scheduler: scheduler,
		resources: resourceService,
	}
}

// writeError is a local helper for the panic recovery middleware, kept here
// so the middleware does not depend on any feature package.
func writeError(w http.ResponseWriter, appErr *apperror.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(appErr.StatusCode())
	if err := json.NewEncoder(w).Encode(appErr.ToResponse()); err != nil {
		http.Error(w, `{"error":"Failed to encode error response"}`, http.StatusInternalServerError)
	}
}
