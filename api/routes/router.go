package routes

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/TThanhhDatt/agent-bot/api/controllers"
	"github.com/TThanhhDatt/agent-bot/api/middleware"
	"github.com/TThanhhDatt/agent-bot/internal/chat"
	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	"github.com/TThanhhDatt/agent-bot/pkg/config"
	"github.com/TThanhhDatt/agent-bot/pkg/enums"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/redis"
)

const metricsPath = "/metrics"

// NewRouter wires the HTTP surface. redisClient may be nil, in which case chat traffic is
// not rate limited and readiness skips the redis check.
func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient *redis.Client,
	chatService chat.Service,
	escalationService escalations.Service,
	metricsHandler http.Handler,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg, "/health/live", "/health/ready", metricsPath),
	)

	ready := map[string]controllers.Pinger{"db": dbP}
	if redisClient != nil {
		ready["redis"] = redisClient
	}
	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, ready))
	})
	if metricsHandler != nil {
		r.Method(http.MethodGet, metricsPath, metricsHandler)
	}

	r.Route("/chat", func(r chi.Router) {
		if redisClient != nil {
			policy := middleware.NewRateLimitPolicy("chat", cfg.RateLimit.Window, cfg.RateLimit.IPLimit, cfg.RateLimit.ChatLimit)
			r.Use(middleware.RateLimit(policy, redisClient, logg))
		}
		r.Post("/invoke", controllers.ChatInvoke(chatService, logg))
		r.Post("/webhook", controllers.ChatWebhook(chatService, logg))
	})

	r.Route("/admin/v1", func(r chi.Router) {
		r.Use(middleware.CORS(cfg.App.CORSOrigins))
		r.Use(middleware.Auth(cfg.JWT, logg))
		r.Use(middleware.RequireRole(logg, enums.ActorRoleAdmin))

		r.Post("/conversations/takeover", controllers.AdminTakeover(chatService, logg))
		r.Post("/conversations/release", controllers.AdminRelease(chatService, logg))
		r.Route("/escalations", func(r chi.Router) {
			r.Get("/", controllers.AdminListEscalations(escalationService, logg))
			r.Post("/{escalationId}/resolve", controllers.AdminResolveEscalation(escalationService, logg))
		})
	})

	return r
}
