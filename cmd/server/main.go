package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"golang.org/x/sync/errgroup"

	authhandler "abportal/internal/auth/handler"
	authservice "abportal/internal/auth/service"
	"abportal/internal/auth/store/revocation"
	userstore "abportal/internal/auth/store/user"
	certmetrics "abportal/internal/certificate/metrics"
	"abportal/internal/certificate/models"
	"abportal/internal/certificate/seed"
	"abportal/internal/certificate/store"
	jwttoken "abportal/internal/jwt_token"
	"abportal/internal/platform/config"
	"abportal/internal/platform/httpserver"
	"abportal/internal/platform/kafka"
	"abportal/internal/platform/locale"
	"abportal/internal/platform/logger"
	"abportal/internal/platform/metrics"
	"abportal/internal/platform/middleware"
	"abportal/internal/platform/otel"
	"abportal/internal/platform/postgres"
	"abportal/internal/platform/redis"
	portalhandler "abportal/internal/portal/handler"
	ratelimit "abportal/internal/ratelimit/middleware"
	ratelimitmodels "abportal/internal/ratelimit/models"
	"abportal/internal/ratelimit/store/bucket"
	"abportal/internal/review"
	reviewmetrics "abportal/internal/review/metrics"
	"abportal/internal/review/notifier"
	httptransport "abportal/internal/transport/http"
	id "abportal/pkg/domain"
	"abportal/pkg/platform/circuit"
)

const (
	tokenAudience   = "abportal-reviewer"
	shutdownTimeout = 10 * time.Second
	inboxCapacity   = 50
)

// main wires high-level dependencies, exposes the HTTP router, and keeps the
// server lifecycle small. Business logic lives in internal packages.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "abportal: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := config.FromEnv()
	if err != nil {
		return err
	}
	log := logger.New(cfg.LogLevel, cfg.LogFormat)
	slog.SetDefault(log)

	shutdownTracing, err := otel.Setup(ctx, cfg.OTelEndpoint)
	if err != nil {
		return fmt.Errorf("tracing: %w", err)
	}
	defer func() {
		if err := shutdownTracing(context.Background()); err != nil {
			log.Warn("tracer shutdown failed", "error", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	httpMetrics := metrics.New(reg)
	reviewMetrics := reviewmetrics.New(reg)

	loc, err := locale.New(cfg.Locale.Tag, cfg.Locale.TimeZone)
	if err != nil {
		return err
	}

	certificates := store.NewInMemory(loc)
	certificates.Subscribe(func(s models.Snapshot) { reviewMetrics.SetPending(s.PendingCount) })

	mode, err := seed.ParseMode(cfg.Seed.Mode)
	if err != nil {
		return err
	}
	loader := seed.New(seedSource(cfg.Seed), certificates,
		seed.WithLogger(log),
		seed.WithMetrics(certmetrics.New(reg)),
		seed.WithMode(mode),
		seed.WithTimeout(cfg.Seed.Timeout),
	)

	redisClient, err := redis.New(ctx, cfg.RedisURL)
	if err != nil {
		return err
	}
	if redisClient != nil {
		defer redisClient.Close()
	}
	db, err := postgres.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		return err
	}
	if db != nil {
		defer db.Close()
	}

	inbox := notifier.NewInbox(inboxCapacity)
	sinks := notifier.Fanout{inbox, notifier.NewLog(log)}
	producer, err := kafka.NewProducer(ctx, cfg.Kafka.Brokers, cfg.Kafka.NotificationsTopic, log)
	if err != nil {
		return err
	}
	if producer != nil {
		defer producer.Close()
		if err := producer.EnsureTopic(ctx, 1, 1); err != nil {
			return err
		}
		breaker := circuit.New("kafka-notifications")
		sinks = append(sinks, notifier.NewGuarded(notifier.NewKafka(producer), breaker, log))
	}

	registry := review.NewRegistry(certificates, sinks, loc,
		review.WithLogger(log),
		review.WithMetrics(reviewMetrics),
	)

	trl, err := newRevocationList(ctx, redisClient, db, revocation.NewMetrics(reg), log)
	if err != nil {
		return err
	}
	if cfg.UsesDevSigningKey() {
		log.Warn("sessions are signed with the development key; set JWT_SIGNING_KEY")
	}
	auth := authservice.New(userstore.New(),
		jwttoken.NewJWTService(cfg.Auth.JWTSigningKey, cfg.Auth.JWTIssuer, tokenAudience),
		trl,
		authservice.WithLogger(log),
		authservice.WithMetrics(httpMetrics),
		authservice.WithSessionTTL(cfg.Auth.SessionTTL),
		authservice.WithLogoutHook(func(_ context.Context, session id.SessionID) {
			registry.Drop(session)
			inbox.Drop(session)
		}),
	)
	if _, err := auth.RegisterReviewer(ctx, cfg.Auth.ReviewerEmail, cfg.Auth.ReviewerName, cfg.Auth.ReviewerPassword); err != nil {
		return fmt.Errorf("register reviewer: %w", err)
	}

	health := httptransport.NewHealth(certificates.Loading, log)
	if redisClient != nil {
		health.Add("redis", redisClient.Health)
	}
	if db != nil {
		health.Add("postgres", db.PingContext)
	}

	proxies, err := middleware.ParseTrustedProxies(cfg.TrustedProxies)
	if err != nil {
		return err
	}
	limiter := ratelimit.New(bucket.New(), log, ratelimit.WithDisabled(cfg.Limits.Disabled))
	authHandler := authhandler.New(auth, log, authhandler.WithLoginMiddleware(
		limiter.RateLimit("login", ratelimitmodels.Limit{
			RequestsPerWindow: cfg.Limits.LoginRequests,
			Window:            cfg.Limits.LoginWindow,
		}),
	))
	router := httptransport.NewRouter(httptransport.Deps{
		Logger:         log,
		Metrics:        httpMetrics,
		Gatherer:       reg,
		Resolver:       auth,
		Auth:           authHandler,
		Portal:         portalhandler.New(certificates, registry, inbox, log, httpMetrics),
		Health:         health,
		TrustedProxies: proxies,
	})
	srv := httpserver.New(cfg.Addr, router)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("starting abportal", "addr", cfg.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server error: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		if err := loader.Run(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		log.Info("shutting down abportal")
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		return nil
	})
	return g.Wait()
}

func seedSource(cfg config.Seed) seed.Source {
	if cfg.URL != "" {
		return seed.NewHTTPSource(cfg.URL, cfg.Timeout)
	}
	return seed.NewFileSource(cfg.Path)
}
