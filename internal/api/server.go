package api

import (
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/tracknest/tracknest/internal/achievements"
	"github.com/tracknest/tracknest/internal/auth"
	"github.com/tracknest/tracknest/internal/cache"
	"github.com/tracknest/tracknest/internal/config"
	"github.com/tracknest/tracknest/internal/jobs"
	"github.com/tracknest/tracknest/internal/models"
	"github.com/tracknest/tracknest/internal/notifications"
	"github.com/tracknest/tracknest/internal/repository"
	"github.com/tracknest/tracknest/internal/tracker"
	"github.com/tracknest/tracknest/internal/users"
)

type Server struct {
	config       *config.Config
	db           *sql.DB
	services     map[models.MediaType]*tracker.Service
	mediaRepo    *repository.MediaRepository
	listRepo     *repository.ListRepository
	statsRepo    *repository.StatsRepository
	platformRepo *repository.PlatformRepository
	logRepo      *repository.LogRepository
	settingsRepo *repository.SettingsRepository
	userRepo     *users.Repository
	achRepo      *achievements.Repository
	statsCache   *cache.StatsCache
	jobQueue     *jobs.Queue
	wsHub        *WSHub
	limiter      *rateLimiter
	router       chi.Router
}

func NewServer(cfg *config.Config, db *sql.DB, jobQueue *jobs.Queue, statsCache *cache.StatsCache) (*Server, error) {
	authService, err := auth.NewAuth(cfg.JWTSecret, time.Duration(cfg.JWTExpiresHours)*time.Hour)
	if err != nil {
		return nil, err
	}

	mediaRepo := repository.NewMediaRepository(db)
	listRepo := repository.NewListRepository(db)
	statsRepo := repository.NewStatsRepository(db)
	platformRepo := repository.NewPlatformRepository(db)
	logRepo := repository.NewLogRepository(db)
	settingsRepo := repository.NewSettingsRepository(db)
	userRepo := users.NewRepository(db)
	achRepo := achievements.NewRepository(db)

	wsHub := NewWSHub()
	webhooks := notifications.NewWebhookSender(db)
	evaluator := achievements.NewEvaluator(achRepo, webhooks)

	hooks := &statsHooks{
		statsRepo: statsRepo,
		cache:     statsCache,
		evaluator: evaluator,
		hub:       wsHub,
	}
	services := tracker.NewServices(db, mediaRepo, listRepo, statsRepo, logRepo, hooks)

	s := &Server{
		config:       cfg,
		db:           db,
		services:     services,
		mediaRepo:    mediaRepo,
		listRepo:     listRepo,
		statsRepo:    statsRepo,
		platformRepo: platformRepo,
		logRepo:      logRepo,
		settingsRepo: settingsRepo,
		userRepo:     userRepo,
		achRepo:      achRepo,
		statsCache:   statsCache,
		jobQueue:     jobQueue,
		wsHub:        wsHub,
		limiter:      newRateLimiter(cfg.MutationRPS, cfg.MutationBurst),
	}

	authMW := auth.NewMiddleware(authService)
	userHandler := users.NewHandler(userRepo, authService)

	r := chi.NewRouter()
	r.Use(requestLogger)
	r.Route("/api", func(r chi.Router) {
		r.Mount("/auth", userHandler.Router())

		r.Group(func(r chi.Router) {
			r.Use(authMW.RequireAuth)

			r.Mount("/users", userHandler.AuthedRouter())
			r.Get("/media/{type}/search", s.searchMedia)
			r.Get("/media/{type}/{mediaID}", s.getMedia)
			r.Get("/ws", s.handleWS)
			r.Get("/achievements", s.listAchievements)

			r.Route("/stats", func(r chi.Router) {
				r.Get("/", s.getAllStats)
				r.Get("/platform/{type}", s.getPlatformStats)
				r.Get("/{type}", s.getStats)
			})

			r.Route("/list", func(r chi.Router) {
				r.Get("/{type}", s.listEntries)
				r.Get("/{type}/{mediaID}", s.getEntry)
				r.Get("/{type}/{mediaID}/history", s.getHistory)

				r.Group(func(r chi.Router) {
					r.Use(s.limiter.Middleware)
					r.Post("/{type}/{mediaID}", s.addToList)
					r.Patch("/{type}/{mediaID}", s.updateEntry)
					r.Delete("/{type}/{mediaID}", s.removeFromList)
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(authMW.RequireAdmin)
				r.Post("/admin/recompute/{userID}/{type}", s.enqueueRecompute)
				r.Post("/admin/rollup", s.enqueueRollup)
			})
		})
	})
	s.router = r
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub exposes the websocket hub for job handlers that broadcast.
func (s *Server) Hub() *WSHub {
	return s.wsHub
}
