package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/gestaozabele/checkin/internal/checkin"
	"github.com/gestaozabele/checkin/internal/config"
	"github.com/gestaozabele/checkin/internal/db"
	httpmiddleware "github.com/gestaozabele/checkin/internal/http/middleware"
	"github.com/gestaozabele/checkin/internal/metrics"
	"github.com/gestaozabele/checkin/internal/repo"
	"github.com/gestaozabele/checkin/internal/service"
	"github.com/gestaozabele/checkin/internal/turma"
)

type Handler struct {
	cfg           *config.Config
	pool          *pgxpool.Pool
	redis         *redis.Client
	authService   *service.AuthService
	users         *service.UserService
	publicLimiter *httpmiddleware.RateLimiter
	authLimiter   *httpmiddleware.RateLimiter
}

// NewRouter devolve roteador configurado. redisClient pode ser nil.
func NewRouter(cfg *config.Config, pool *pgxpool.Pool, redisClient *redis.Client, authService *service.AuthService) (http.Handler, error) {
	if cfg == nil || pool == nil || authService == nil {
		return nil, errors.New("router: dependências obrigatórias ausentes")
	}

	queries := repo.New(pool)

	turmaRepo := turma.NewRepository(pool)
	turmaService := turma.NewService(turmaRepo, redisClient)
	turmaHandler := turma.NewHandler(turmaService)

	checkinRepo := checkin.NewRepository(pool)
	checkinService := checkin.NewService(checkinRepo, turmaService, queries, cfg.Location)
	checkinHandler := checkin.NewHandler(checkinService)

	h := &Handler{
		cfg:           cfg,
		pool:          pool,
		redis:         redisClient,
		authService:   authService,
		users:         service.NewUserService(queries),
		publicLimiter: httpmiddleware.NewRateLimiter(cfg.RateLimitPublic.RequestsPerSecond, cfg.RateLimitPublic.Burst),
		authLimiter:   httpmiddleware.NewRateLimiter(cfg.RateLimitAuth.RequestsPerSecond, cfg.RateLimitAuth.Burst),
	}

	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(httpmiddleware.Logging)
	r.Use(httpmiddleware.Recover)
	r.Use(httpmiddleware.CORS(cfg.AllowOrigins))
	r.Use(httpmiddleware.Metrics)

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Get("/status", h.Status)
	r.Method(http.MethodGet, "/metrics", metrics.Handler())
	if cfg.DebugEndpoints {
		r.Get("/debug-db", h.DebugDB)
	}

	r.Group(func(public chi.Router) {
		public.Use(httpmiddleware.IPRateLimit(h.publicLimiter))
		h.mountIdentity(public)
	})

	r.Group(func(private chi.Router) {
		private.Use(httpmiddleware.Auth(authService.JWT(), authService))
		private.Use(httpmiddleware.UserRateLimit(h.authLimiter))

		h.mountAccount(private)
		turma.Mount(private, turmaHandler)
		checkin.Mount(private, checkinHandler)
	})

	return r, nil
}

func (h *Handler) mountIdentity(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
	r.Post("/google-login", h.GoogleLogin)
	r.Post("/check-user", h.CheckUser)
}

func (h *Handler) mountAccount(r chi.Router) {
	r.Post("/logout", h.Logout)
	r.Get("/me", h.Me)

	r.With(httpmiddleware.RequireAdmin).Get("/users", h.ListUsers)
	r.Route("/users/{id}", func(u chi.Router) {
		u.Use(httpmiddleware.SelfOrAdmin("id"))
		u.Get("/", h.GetUser)
		u.Patch("/", h.UpdateUser)
		u.Delete("/", h.DeleteUser)
	})
	r.With(httpmiddleware.SelfOrAdmin("id")).Patch("/user/{id}/password", h.ChangePassword)
}

// Health responde status simples.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Ready valida conexões com Postgres e, quando configurado, Redis.
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	dbErr := h.pool.Ping(ctx)
	var redisErr error
	if h.redis != nil {
		redisErr = h.redis.Ping(ctx).Err()
	}

	if dbErr != nil || redisErr != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "dependências indisponíveis", map[string]any{
			"db":    errorString(dbErr),
			"redis": errorString(redisErr),
		})
		return
	}

	WriteJSON(w, http.StatusOK, map[string]bool{"ready": true})
}

// Status consulta o relógio do banco.
func (h *Handler) Status(w http.ResponseWriter, r *http.Request) {
	now, err := db.Now(r.Context(), h.pool)
	if err != nil {
		writeInternalError(w, err, "banco de dados indisponível")
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"status": "ok", "db_time": now})
}

// DebugDB resolve o host do banco e testa a porta TCP. Só é registrada com DEBUG_ENDPOINTS=true.
func (h *Handler) DebugDB(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	result, err := db.CheckReachability(ctx, h.cfg.DBDSN, 5*time.Second)
	if err != nil {
		WriteError(w, http.StatusServiceUnavailable, "INTERNAL", "banco inalcançável", map[string]any{
			"reachability": result,
			"error": err.Error(),
		})
		return
	}
	WriteJSON(w, http.StatusOK, result)
}

func errorString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
