package server

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/xela07ax/vizitka-api/internal/api/handler"
	"github.com/xela07ax/vizitka-api/internal/infra"
	"github.com/xela07ax/vizitka-api/internal/infra/auth"
)

type Server struct {
	router *chi.Mux
	logger *zap.Logger
	cfg    *infra.Config

	// Проверка RS256 токенов плюс повторная выборка пользователя:
	// роль актора всегда берётся из базы, а не из claims
	authValidator auth.TokenValidator
	userSource    auth.UserSource

	metrics *Metrics

	// Обработчики бизнес-доменов
	authHandler *handler.AuthHandler // /api/auth
	cardHandler *handler.CardHandler // /api/cards
	userHandler *handler.UserHandler // /api/users
}

// NewServer инициализирует HTTP-сервер каталога со всеми зависимостями
func NewServer(
	cfg *infra.Config,
	logger *zap.Logger,
	validator auth.TokenValidator,
	userSource auth.UserSource,
	reg *prometheus.Registry,
	authH *handler.AuthHandler,
	cardH *handler.CardHandler,
	userH *handler.UserHandler,
) *Server {
	s := &Server{
		router:        chi.NewRouter(),
		logger:        logger.Named("api"),
		cfg:           cfg,
		authValidator: validator,
		userSource:    userSource,
		metrics:       NewMetrics(reg),
		authHandler:   authH,
		cardHandler:   cardH,
		userHandler:   userH,
	}

	s.routes(reg)
	return s
}

func (s *Server) routes(reg *prometheus.Registry) {
	r := s.router

	// --- 1. Глобальные инфраструктурные Middleware (для всех) ---
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(s.metrics.Instrument)

	limiter := newIPLimiter(s.cfg.Limits.RateLimitRPS, s.cfg.Limits.RateLimitBurst)
	r.Use(limiter.Middleware)

	// Метрики отдаём вне /api и вне защищённого периметра
	if reg != nil {
		r.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
	}

	// --- 2. ПУБЛИЧНЫЕ РОУТЫ (Открыты для всех) ---
	r.Group(func(r chi.Router) {
		r.Post("/api/auth/login", s.authHandler.Login)
		r.Post("/api/auth/create-admin", s.authHandler.CreateAdmin)

		// Healthcheck для мониторинга
		r.Get("/api/health", func(w http.ResponseWriter, r *http.Request) {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusOK)
			w.Write([]byte(`{"success":true,"message":"OK"}`))
		})
	})

	// --- 3. ЗАЩИЩЕННЫЙ ПЕРИМЕТР (Требуют RS256 токен) ---
	r.Group(func(r chi.Router) {
		r.Use(auth.NewMiddleware(s.authValidator, s.userSource, s.logger))

		r.Post("/api/auth/create-user", s.authHandler.CreateUser)
		r.Post("/api/auth/logout", s.authHandler.Logout)
		r.Get("/api/auth/me", s.authHandler.Me)

		// Каталог визиток
		r.Route("/api/cards", func(r chi.Router) {
			r.Get("/", s.cardHandler.List)
			r.Post("/", s.cardHandler.Create)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.cardHandler.Get)
				r.Put("/", s.cardHandler.Update)
				r.Delete("/", s.cardHandler.Delete)
				r.Get("/profile-image", s.cardHandler.ProfileImage)
			})
		})

		// Каталог пользователей
		r.Route("/api/users", func(r chi.Router) {
			r.Get("/", s.userHandler.List)
			r.Get("/dropdown", s.userHandler.Dropdown)
			r.Get("/profile", s.userHandler.Profile)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", s.userHandler.Get)
				r.Put("/", s.userHandler.Update)
				r.Delete("/", s.userHandler.Delete)
			})
		})
	})
}

// ServeHTTP позволяет использовать Server как стандартный http.Handler
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}
