package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/docurail/metrodocs-backend/api/controllers"
	"github.com/docurail/metrodocs-backend/api/middleware"
	"github.com/docurail/metrodocs-backend/internal/auth"
	"github.com/docurail/metrodocs-backend/internal/departments"
	"github.com/docurail/metrodocs-backend/internal/documents"
	"github.com/docurail/metrodocs-backend/internal/notifications"
	"github.com/docurail/metrodocs-backend/internal/users"
	"github.com/docurail/metrodocs-backend/pkg/config"
	"github.com/docurail/metrodocs-backend/pkg/enums"
	"github.com/docurail/metrodocs-backend/pkg/logger"
	"github.com/docurail/metrodocs-backend/pkg/metrics"
	"github.com/docurail/metrodocs-backend/pkg/redis"
)

// Deps carries everything the router mounts.
type Deps struct {
	Config   *config.Config
	Logger   *logger.Logger
	Metrics  *metrics.APIMetrics
	Registry *prometheus.Registry
	Redis    *redis.Client

	AuthService          auth.Service
	UsersService         users.Service
	DepartmentsService   departments.Service
	DocumentsService     documents.Service
	NotificationsService notifications.Service

	Pingers []controllers.NamedPinger
}

// NewRouter wires every endpoint behind the shared middleware stack.
func NewRouter(deps Deps) http.Handler {
	cfg := deps.Config
	logg := deps.Logger
	m := deps.Metrics

	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, m),
		middleware.CORS(),
	)

	loginPolicy := middleware.NewAuthRateLimitPolicy(
		"login",
		cfg.AuthRateLimit.LoginWindow,
		cfg.AuthRateLimit.LoginIPLimit,
		cfg.AuthRateLimit.LoginEmailLimit,
	)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, deps.Pingers...))
	})

	if deps.Registry != nil {
		r.Method(http.MethodGet, "/metrics", promhttp.HandlerFor(deps.Registry, promhttp.HandlerOpts{}))
	}

	r.Route("/api/public", func(r chi.Router) {
		r.Get("/ping", controllers.PublicPing())
	})

	r.Route("/api/v1/auth", func(r chi.Router) {
		login := r.With()
		if deps.Redis != nil {
			login = r.With(middleware.AuthRateLimit(loginPolicy, deps.Redis, logg))
		}
		login.Post("/login", controllers.AuthLogin(deps.AuthService, logg))
	})

	r.Route("/api/admin/v1/auth", func(r chi.Router) {
		if !cfg.App.IsProd() {
			r.Post("/register", controllers.AdminRegister(deps.AuthService, logg))
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, m, logg))

		r.Get("/ping", controllers.PrivatePing())
		r.Get("/v1/me", controllers.Me(deps.UsersService, logg))

		r.Route("/v1/documents", func(r chi.Router) {
			r.Get("/", controllers.ListDocuments(deps.DocumentsService, logg))
			r.Post("/", controllers.UploadDocument(deps.DocumentsService, logg))
			r.Get("/department/{departmentId}", controllers.ListDepartmentDocuments(deps.DocumentsService, logg))
			r.Get("/{documentId}", controllers.GetDocument(deps.DocumentsService, logg))
			r.Get("/{documentId}/download", controllers.DownloadDocument(deps.DocumentsService, logg))
			r.Delete("/{documentId}", controllers.DeleteDocument(deps.DocumentsService, logg))
		})

		r.Route("/v1/notifications", func(r chi.Router) {
			r.Get("/", controllers.ListNotifications(deps.NotificationsService, logg))
			r.Post("/{notificationId}/read", controllers.MarkNotificationRead(deps.NotificationsService, logg))
			r.Post("/read-all", controllers.MarkAllNotificationsRead(deps.NotificationsService, logg))
		})

		r.Route("/v1/departments", func(r chi.Router) {
			r.Get("/", controllers.ListDepartments(deps.DepartmentsService, logg))
			r.Get("/{departmentId}", controllers.GetDepartment(deps.DepartmentsService, logg))

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireAdmin(m, logg))
				r.Post("/", controllers.CreateDepartment(deps.DepartmentsService, logg))
				r.Put("/{departmentId}", controllers.UpdateDepartment(deps.DepartmentsService, logg))
				r.Delete("/{departmentId}", controllers.DeleteDepartment(deps.DepartmentsService, logg))
			})
		})

		r.Route("/v1/users", func(r chi.Router) {
			r.Use(middleware.RequireAdmin(m, logg))
			r.Get("/", controllers.ListUsers(deps.UsersService, logg))
			r.Post("/", controllers.CreateUser(deps.UsersService, logg))
			r.Get("/{userId}", controllers.GetUser(deps.UsersService, logg))
			r.Put("/{userId}", controllers.UpdateUser(deps.UsersService, logg))
			r.Delete("/{userId}", controllers.DeactivateUser(deps.UsersService, logg))
		})
	})

	r.Route("/api/admin", func(r chi.Router) {
		r.Use(middleware.Auth(cfg.JWT, m, logg))
		r.Use(middleware.RequireRole(m, logg, enums.UserRoleAdmin))
		r.Get("/ping", controllers.AdminPing())
	})

	return r
}
