package routes

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gatherhall/community-backend/api/controllers"
	"github.com/gatherhall/community-backend/api/middleware"
	"github.com/gatherhall/community-backend/internal/auth"
	"github.com/gatherhall/community-backend/internal/events"
	"github.com/gatherhall/community-backend/internal/families"
	"github.com/gatherhall/community-backend/pkg/auth/session"
	"github.com/gatherhall/community-backend/pkg/config"
	"github.com/gatherhall/community-backend/pkg/db"
	"github.com/gatherhall/community-backend/pkg/enums"
	"github.com/gatherhall/community-backend/pkg/logger"
	"github.com/gatherhall/community-backend/pkg/metrics"
	"github.com/gatherhall/community-backend/pkg/redis"
)

type sessionManager interface {
	session.AccessSessionChecker
	Rotate(context.Context, string, string) (string, string, error)
	Revoke(context.Context, string) error
}

// Params collects everything the router wires together.
type Params struct {
	Config          *config.Config
	Logger          *logger.Logger
	DB              db.Pinger
	Redis           *redis.Client
	SessionManager  sessionManager
	AuthService     auth.Service
	RegisterService auth.RegisterService
	FamilyService   families.Service
	EventService    events.Service
	HTTPMetrics     *metrics.HTTPMetrics
	PromRegistry    *prometheus.Registry
}

func NewRouter(p Params) http.Handler {
	cfg := p.Config
	logg := p.Logger

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.Metrics(p.HTTPMetrics),
		middleware.CORS(cfg.App.BaseURL),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)
	registerPolicy := middleware.NewAuthRateLimitPolicy(
		"register",
		cfg.AuthRateLimit.RegisterWindow,
		cfg.AuthRateLimit.RegisterIPLimit,
		cfg.AuthRateLimit.RegisterEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, p.DB, p.Redis))
	})

	if p.PromRegistry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(p.PromRegistry, promhttp.HandlerOpts{}))
	}

	// Uploaded gallery files are served straight off disk.
	r.Handle("/uploads/*", http.StripPrefix("/uploads/", http.FileServer(http.Dir(cfg.Uploads.Dir))))

	r.Get("/api/ping", controllers.PublicPing())

	r.Route("/api/auth", func(r chi.Router) {
		r.With(middleware.AuthRateLimit(registerPolicy, p.Redis, logg)).
			Post("/register", controllers.AuthRegister(p.RegisterService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/login", controllers.AuthLogin(p.AuthService, logg))
		r.Post("/logout", controllers.AuthLogout(p.AuthService, cfg.JWT, logg))
		r.Post("/refresh", controllers.AuthRefresh(p.AuthService, logg))
		r.With(middleware.AuthRateLimit(loginPolicy, p.Redis, logg)).
			Post("/forgot-password", controllers.AuthForgotPassword(p.AuthService, cfg.App, logg))
		r.Put("/reset-password/{token}", controllers.AuthResetPassword(p.AuthService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
			r.Get("/me", controllers.AuthMe(p.AuthService, logg))
			r.Put("/update-password", controllers.AuthUpdatePassword(p.AuthService, logg))
		})
	})

	r.Route("/api/families", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))

		r.Get("/my-family", controllers.MyFamily(p.FamilyService, logg))
		r.Put("/my-family", controllers.UpdateMyFamily(p.FamilyService, logg))
		r.Post("/my-family/members", controllers.FamilyAddMember(p.FamilyService, logg))
		r.Put("/my-family/members/{memberId}", controllers.FamilyUpdateMember(p.FamilyService, logg))
		r.Delete("/my-family/members/{memberId}", controllers.FamilyDeleteMember(p.FamilyService, logg))
		r.Post("/invite", controllers.FamilyInvite(p.FamilyService, cfg.App, logg))
		r.Post("/join/{token}", controllers.FamilyJoin(p.FamilyService, logg))
		r.Put("/transfer-ownership/{userId}", controllers.FamilyTransferOwnership(p.FamilyService, logg))

		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireRole(string(enums.RoleAdmin), logg))
			r.Get("/", controllers.AdminFamilyList(p.FamilyService, logg))
			r.Get("/{familyId}", controllers.AdminFamilyGet(p.FamilyService, logg))
			r.Put("/{familyId}", controllers.AdminFamilyUpdate(p.FamilyService, logg))
			r.Delete("/{familyId}", controllers.AdminFamilyDelete(p.FamilyService, logg))
		})
	})

	r.Route("/api/events", func(r chi.Router) {
		r.Group(func(r chi.Router) {
			r.Use(middleware.OptionalAuth(cfg.JWT, p.SessionManager, logg))
			r.Get("/", controllers.EventList(p.EventService, logg))
			r.Get("/{slug}", controllers.EventGet(p.EventService, logg))
		})

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, p.SessionManager, logg))
			r.Use(middleware.RequireAnyRole(logg, string(enums.RoleFamilyManager), string(enums.RoleAdmin)))

			r.Post("/", controllers.EventCreate(p.EventService, logg))
			r.Put("/{slug}", controllers.EventUpdate(p.EventService, logg))
			r.Delete("/{slug}", controllers.EventDelete(p.EventService, logg))

			r.Post("/{slug}/sections", controllers.SectionCreate(p.EventService, logg))
			r.Put("/{slug}/sections/{sectionSlug}", controllers.SectionUpdate(p.EventService, logg))
			r.Delete("/{slug}/sections/{sectionSlug}", controllers.SectionDelete(p.EventService, logg))

			r.Post("/{slug}/images", controllers.EventUploadImage(p.EventService, cfg.Uploads, logg))
			r.Delete("/{slug}/images/{imageId}", controllers.EventDeleteImage(p.EventService, logg))
		})
	})

	return r
}
