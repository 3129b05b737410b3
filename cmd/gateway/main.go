package main

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/google/uuid"
	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"github.com/resimed/resimed-backend/internal/acta"
	api "github.com/resimed/resimed-backend/internal/api/http"
	"github.com/resimed/resimed-backend/internal/auth"
	"github.com/resimed/resimed-backend/internal/cache"
	"github.com/resimed/resimed-backend/internal/config"
	"github.com/resimed/resimed-backend/internal/db"
	"github.com/resimed/resimed-backend/internal/exams"
	"github.com/resimed/resimed-backend/internal/grades"
	"github.com/resimed/resimed-backend/internal/platform/logger"
	"github.com/resimed/resimed-backend/internal/rbac"
	"github.com/resimed/resimed-backend/internal/store"
	"github.com/resimed/resimed-backend/internal/survey"
	"github.com/resimed/resimed-backend/internal/titulation"
)

// backingStore is everything the services need from persistence. Both store
// implementations satisfy it.
type backingStore interface {
	grades.Store
	acta.Store
	exams.Store
	titulation.Sources
	survey.Creator
	auth.UserSource
	api.RosterStore
	api.SurveySource
}

func main() {
	_ = godotenv.Load()
	cfg := config.FromEnv()

	zl, err := logger.New(string(cfg.Mode))
	if err != nil {
		log.Fatalf("logger: %v", err)
	}
	defer zl.Sync()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	var st backingStore
	if cfg.DBDriver == "memory" {
		st = store.NewMemory()
	} else {
		dbh, err := db.Open(ctx, db.Driver(cfg.DBDriver), cfg.DBDSN)
		if err != nil {
			zl.Fatal("db open failed", "err", err)
		}
		st = store.NewSQL(dbh)
	}

	// seed the admin account so a fresh deployment is reachable
	if err := st.UpsertUser(ctx, store.User{
		ID:           uuid.NewString(),
		Username:     cfg.AdminUser,
		PasswordHash: cfg.AdminPassHash,
		Role:         "admin",
	}); err != nil {
		zl.Fatal("seed admin user", "err", err)
	}

	var rowCache grades.RowCache = cache.Noop{}
	if cfg.RedisAddr != "" {
		rdb := redis.NewClient(&redis.Options{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		})
		if err := rdb.Ping(ctx).Err(); err != nil {
			zl.Warn("redis unreachable, row cache disabled", "err", err)
		} else {
			rowCache = cache.NewRows(rdb, zl)
		}
	}

	gradeSvc := grades.NewService(st, rowCache, zl)
	actaSvc := acta.NewService(st, gradeSvc, st, zl)
	examSvc := exams.NewService(st, zl)
	titulationAgg := titulation.NewAggregator(st)
	authSvc := auth.NewService(cfg.AuthSecret)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.RealIP, middleware.Logger, middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	origins := cfg.CORSOriginsOffline
	if cfg.Mode == config.ModeOnline {
		origins = cfg.CORSOriginsOnline
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Post("/auth/login", auth.LoginHandler(authSvc, st))

	ownResident := func(req *http.Request) bool {
		return chi.URLParam(req, "residentID") == rbac.SubjectFromContext(req.Context())
	}

	// Protected API (JWT → identity in context → RBAC)
	r.Group(func(pr chi.Router) {
		pr.Use(auth.JWTMiddleware(authSvc))

		pr.With(rbac.Require("residents:list")).
			Get("/residents", api.ListResidentsHandler(gradeSvc))

		pr.With(rbac.RequireOwnerOr("grades:view-own", "grades:view", ownResident)).
			Get("/residents/{residentID}/grades", api.ResidentGradesHandler(gradeSvc))
		pr.With(rbac.RequireOwnerOr("grades:view-own", "grades:view", ownResident)).
			Get("/residents/{residentID}/subjects/{subjectID}/grades", api.GradeRowHandler(gradeSvc))

		pr.With(rbac.Require("grades:override")).
			Put("/residents/{residentID}/subjects/{subjectID}/grades/{component}", api.UpsertManualGradeHandler(gradeSvc))
		pr.With(rbac.Require("grades:override")).
			Delete("/residents/{residentID}/subjects/{subjectID}/grades/{component}", api.DeleteManualGradeHandler(gradeSvc))

		pr.With(rbac.Require("attempt:create")).
			Post("/quizzes/{quizID}/attempts", api.RecordAttemptHandler(gradeSvc))

		pr.With(rbac.Require("acta:generate")).
			Post("/actas", api.GenerateActaHandler(actaSvc))
		pr.With(rbac.RequireAny("acta:view-own", "acta:view")).
			Get("/actas/{actaID}", api.GetActaHandler(actaSvc))
		pr.With(rbac.RequireOwnerOr("acta:view-own", "acta:view", ownResident)).
			Get("/residents/{residentID}/actas", api.ListResidentActasHandler(actaSvc))
		// own-or-all guard is permission-level; the pending-status check in
		// the service stops anyone signing twice
		pr.With(rbac.RequireAny("acta:sign-own", "acta:sign")).
			Post("/actas/{actaID}/signature", api.SignActaHandler(actaSvc))

		pr.With(rbac.Require("exam:evaluate")).
			Post("/exams", api.CreateExamHandler(examSvc))
		pr.With(rbac.Require("exam:evaluate")).
			Post("/exams/{examID}/complete", api.CompleteExamHandler(examSvc))

		pr.With(rbac.RequireOwnerOr("titulation:view-own", "titulation:view", ownResident)).
			Get("/residents/{residentID}/titulation", api.TitulationHandler(titulationAgg))

		pr.With(rbac.Require("surveys:view")).
			Get("/surveys", api.ListSurveysHandler(st))

		pr.Route("/admin", func(ar chi.Router) {
			ar.Use(rbac.Require("admin:roster"))
			ar.Post("/residents", api.UpsertResidentHandler(st))
			ar.Post("/teachers", api.UpsertTeacherHandler(st))
			ar.Post("/subjects", api.UpsertSubjectHandler(st))
			ar.Post("/quizzes", api.UpsertQuizHandler(st))
			ar.Post("/evaluations", api.UpsertEvaluationHandler(st))
			ar.Post("/users", api.UpsertUserHandler(st))
		})
	})

	zl.Info("gateway listening", "addr", cfg.HTTPAddr, "mode", cfg.Mode, "db", cfg.DBDriver)
	if err := http.ListenAndServe(cfg.HTTPAddr, r); err != nil {
		zl.Fatal("server", "err", err)
	}
}
