package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/multierr"

	"github.com/TThanhhDatt/agent-bot/api/routes"
	"github.com/TThanhhDatt/agent-bot/internal/agents"
	"github.com/TThanhhDatt/agent-bot/internal/chat"
	"github.com/TThanhhDatt/agent-bot/internal/checkpoint"
	"github.com/TThanhhDatt/agent-bot/internal/customers"
	"github.com/TThanhhDatt/agent-bot/internal/escalations"
	"github.com/TThanhhDatt/agent-bot/internal/events"
	"github.com/TThanhhDatt/agent-bot/internal/graph"
	"github.com/TThanhhDatt/agent-bot/internal/orders"
	"github.com/TThanhhDatt/agent-bot/internal/products"
	"github.com/TThanhhDatt/agent-bot/internal/sessions"
	"github.com/TThanhhDatt/agent-bot/internal/spans"
	"github.com/TThanhhDatt/agent-bot/pkg/config"
	"github.com/TThanhhDatt/agent-bot/pkg/db"
	"github.com/TThanhhDatt/agent-bot/pkg/llm"
	"github.com/TThanhhDatt/agent-bot/pkg/logger"
	"github.com/TThanhhDatt/agent-bot/pkg/metrics"
	"github.com/TThanhhDatt/agent-bot/pkg/migrate"
	"github.com/TThanhhDatt/agent-bot/pkg/redis"
	"github.com/TThanhhDatt/agent-bot/pkg/retry"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	requireResource(context.Background(), logg, "config", err)

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	requireResource(ctx, logg, "database", err)

	err = migrate.MaybeRunDev(ctx, cfg, logg, dbClient)
	requireResource(ctx, logg, "dev migrations", err)

	var redisClient *redis.Client
	if cfg.Redis.Enabled() {
		redisClient, err = redis.New(ctx, cfg.Redis, logg)
		requireResource(ctx, logg, "redis", err)
	} else if cfg.Checkpoint.UsesRedis() || cfg.FeatureFlags.ThreadLock {
		requireResource(ctx, logg, "redis", errors.New("redis checkpoints or thread locks need a redis endpoint"))
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	turnMetrics := metrics.NewTurnMetrics(registry)

	repoPolicy := retry.Policy{
		Attempts: cfg.Retry.Attempts,
		MinWait:  cfg.Retry.MinWait,
		MaxWait:  cfg.Retry.MaxWait,
	}
	conn := dbClient.DB()
	customerRepo := customers.NewRepository(conn, repoPolicy)
	orderRepo := orders.NewRepository(conn, repoPolicy)

	var mailer escalations.Mailer
	if cfg.SMTP.Complete() {
		mailer = escalations.NewSMTPMailer(cfg.SMTP)
	} else {
		logg.Warn(ctx, "smtp not configured, escalations are stored without email")
	}
	escalationService, err := escalations.NewService(escalations.NewRepository(conn, repoPolicy), mailer, logg)
	requireResource(ctx, logg, "escalations service", err)

	routerClient, agentClient, err := llmClients(cfg.LLM)
	requireResource(ctx, logg, "llm clients", err)

	chatGraph, err := agents.BuildGraph(graph.Options{
		MaxAttempts: cfg.Graph.MaxAttempts,
		Backoff:     cfg.Graph.Backoff,
		MaxBackoff:  cfg.Graph.MaxBackoff,
		MaxSteps:    cfg.Graph.MaxSteps,
		Logger:      logg,
		OnRetry: func(node graph.Target, _ int, _ error) {
			turnMetrics.IncNodeRetry(string(node))
		},
	}, agents.Deps{
		Router:      routerClient,
		RouterModel: cfg.LLM.RouterModel,
		Specialist: agents.SpecialistConfig{
			Client:        agentClient,
			Model:         cfg.LLM.AgentModel,
			Temperature:   cfg.LLM.Temperature,
			MaxToolRounds: cfg.LLM.MaxToolRounds,
			Logger:        logg,
		},
		Catalog:     products.NewRepository(conn, repoPolicy),
		Orders:      orderRepo,
		Profiles:    customerRepo,
		Escalations: escalationService,
		Logger:      logg,
	})
	requireResource(ctx, logg, "chat graph", err)

	var saver checkpoint.Saver = checkpoint.NewMemorySaver()
	if cfg.Checkpoint.UsesRedis() {
		redisSaver, err := checkpoint.NewRedisSaver(redisClient, cfg.Checkpoint.TTL)
		requireResource(ctx, logg, "redis checkpoint saver", err)
		saver = redisSaver
	}

	var lock chat.ThreadLock
	if cfg.FeatureFlags.ThreadLock {
		redisLock, err := chat.NewRedisThreadLock(redisClient, 0)
		requireResource(ctx, logg, "thread lock", err)
		lock = redisLock
	}

	var notifier chat.Notifier
	if cfg.Webhook.CallbackURL != "" {
		httpNotifier, err := chat.NewHTTPNotifier(cfg.Webhook.CallbackURL, cfg.Webhook.Timeout)
		requireResource(ctx, logg, "webhook notifier", err)
		notifier = httpNotifier
	} else {
		logg.Warn(ctx, "webhook callback url not configured, webhook replies are dropped")
	}

	chatService, err := chat.NewService(chat.Deps{
		Customers: customerRepo,
		Sessions:  sessions.NewRepository(conn, repoPolicy),
		Events:    events.NewRepository(conn, repoPolicy),
		Spans:     spans.NewRepository(conn, repoPolicy),
		Graph:     chatGraph,
		Saver:     saver,
		Notifier:  notifier,
		Lock:      lock,
		Metrics:   turnMetrics,
		Logger:    logg,
		Session:   cfg.Session,
	})
	requireResource(ctx, logg, "chat service", err)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	id := os.Getenv("DYNO")
	if id == "" {
		id = "local"
	}
	logCtx := logg.WithFields(ctx, map[string]any{
		"env":               cfg.App.Env,
		"addr":              addr,
		"instance":          id,
		"checkpoint":        cfg.Checkpoint.Backend,
		"thread_lock":       lock != nil,
		"webhook_callbacks": notifier != nil,
	})
	logg.Info(logCtx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			chatService,
			escalationService,
			promhttp.HandlerFor(registry, promhttp.HandlerOpts{}),
		),
	}

	serveErr := make(chan error, 1)
	go func() {
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serveErr <- err
		}
		close(serveErr)
	}()

	select {
	case err := <-serveErr:
		if err != nil {
			logg.Error(logCtx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		logg.Info(logCtx, "shutdown signal received")
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.App.ShutdownTimeout)
	defer cancel()

	shutdownErr := server.Shutdown(shutdownCtx)
	chatService.Wait()
	shutdownErr = multierr.Append(shutdownErr, dbClient.Close())
	if redisClient != nil {
		shutdownErr = multierr.Append(shutdownErr, redisClient.Close())
	}
	if shutdownErr != nil {
		logg.Error(logCtx, "api shutdown incomplete", shutdownErr)
		os.Exit(1)
	}
	logg.Info(logCtx, "api server stopped")
}

// llmClients returns the routing client and the specialist client. The router may use a
// different provider than the specialists, which always run on OpenAI tool calling.
func llmClients(cfg config.LLMConfig) (llm.Client, llm.Client, error) {
	agentClient, err := llm.NewClient(llm.ProviderOpenAI, cfg.OpenAIAPIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("agent client: %w", err)
	}
	provider, err := llm.ParseProvider(cfg.RouterProvider)
	if err != nil {
		return nil, nil, err
	}
	if provider == llm.ProviderOpenAI {
		return agentClient, agentClient, nil
	}
	routerClient, err := llm.NewClient(provider, cfg.AnthropicAPIKey)
	if err != nil {
		return nil, nil, fmt.Errorf("router client: %w", err)
	}
	return routerClient, agentClient, nil
}

func requireResource(ctx context.Context, logg *logger.Logger, resource string, err error) {
	if err == nil {
		return
	}
	logg.Error(ctx, fmt.Sprintf("resource not working: %s", resource), err)
	os.Exit(1)
}
