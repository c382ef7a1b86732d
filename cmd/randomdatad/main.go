package main

import (
	"context"
	"log"
	"net/http"
	"time"

	api "github.com/mind-engage/randomdata/internal/api/http"
	auth "github.com/mind-engage/randomdata/internal/auth/middleware"
	"github.com/mind-engage/randomdata/internal/config"
	"github.com/mind-engage/randomdata/internal/dataset"
	"github.com/mind-engage/randomdata/internal/db"
	"github.com/mind-engage/randomdata/internal/question"
	rbac "github.com/mind-engage/randomdata/internal/rbac"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
)

func main() {
	cfg := config.FromEnv()

	// --- DB ---
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
	if err != nil {
		log.Fatalf("db open failed: %v", err)
	}
	store := question.NewSQLStore(dbh, cfg.DBDriver)

	// --- Generation engine ---
	seed := cfg.RandSeed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	svc := question.NewService(store, dataset.NewGenerator(dataset.NewSampler(seed)))
	drafts := question.NewDrafts(30 * time.Minute)

	// --- Auth ---
	authSvc := auth.NewAuthService(cfg.HMACSecret)

	// --- Router ---
	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   cfg.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, cfg.AuthorUser, cfg.AuthorPassHash))

	// Protected API (JWT → role in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("formula:validate")).
			Post("/formulas/validate", api.ValidateFormulaHandler())

		pr.With(rbac.Require("draft:open")).
			Post("/drafts", api.OpenDraftHandler(drafts))
		pr.With(rbac.Require("draft:add_rule")).
			Post("/drafts/{token}/rules", api.AddDraftRuleHandler(drafts))
		pr.With(rbac.Require("draft:commit")).
			Post("/drafts/{token}/commit", api.CommitDraftHandler(drafts, store))

		pr.With(rbac.Require("question:edit")).
			Put("/questions/{questionID}", api.SaveQuestionHandler(store))
		pr.With(rbac.Require("question:view")).
			Get("/questions/{questionID}", api.GetQuestionHandler(store))

		pr.With(rbac.Require("items:generate")).
			Post("/questions/{questionID}/items/generate", api.GenerateItemsHandler(svc))
		pr.With(rbac.Require("items:view")).
			Get("/questions/{questionID}/items", api.ListItemsHandler(svc))
		pr.With(rbac.Require("items:delete")).
			Delete("/questions/{questionID}/items", api.DeleteItemsHandler(svc))
		pr.With(rbac.RequireAny("items:view", "question:view")).
			Get("/questions/{questionID}/preview", api.PreviewHandler(svc))
	})

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })
	r.Get("/readyz", func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(200) })

	log.Printf("listening on %s (db=%s)", cfg.HTTPAddr, cfg.DBDriver)
	log.Fatal(http.ListenAndServe(cfg.HTTPAddr, r))
}
