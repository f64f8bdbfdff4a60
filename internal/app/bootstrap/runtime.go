package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/cache"
	eventadapter "github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/events"
	grpcadapter "github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/grpc"
	httpadapter "github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/http"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/metrics"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/notify"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/postgres"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/adapters/security"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/application"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/domain"
	"github.com/viralforge/mesh/services/trust-compliance/M47-community-governance-service/internal/ports"
	"google.golang.org/grpc"
)

var ErrUnknownJob = errors.New("unknown job")

type Runtime struct {
	cfg        Config
	logger     *slog.Logger
	service    *application.Service
	httpServer *http.Server
	grpcServer *grpc.Server
	health     *grpcadapter.HealthReporter
	outbox     *eventadapter.OutboxWorker
	consumer   *eventadapter.ConsumerWorker
	scheduler  *eventadapter.Scheduler
	closeOnce  sync.Once
	cleanupFn  func(context.Context)
}

func NewRuntime(ctx context.Context, configPath string) (*Runtime, error) {
	cfg, err := LoadConfig(configPath)
	if err != nil {
		return nil, err
	}
	return NewRuntimeWithConfig(ctx, cfg)
}

func NewRuntimeWithConfig(ctx context.Context, cfg Config) (*Runtime, error) {
	level := slog.LevelInfo
	if cfg.Debug {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level, AddSource: cfg.Debug})).With("service", cfg.ServiceID)
	slog.SetDefault(logger)

	var closers []func(context.Context) error
	cleanup := func(ctx context.Context) {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i](ctx)
		}
	}
	fail := func(err error) (*Runtime, error) {
		cleanup(context.Background())
		return nil, err
	}

	shutdownTracing, err := setupTracing(ctx, cfg)
	if err != nil {
		return nil, err
	}
	closers = append(closers, shutdownTracing)

	db, err := postgres.Connect(ctx, cfg.DatabaseDriver, cfg.DatabaseURL, cfg.MaxDBConns)
	if err != nil {
		return fail(err)
	}
	sqlDB, err := db.DB()
	if err != nil {
		return fail(err)
	}
	closers = append(closers, func(context.Context) error { return sqlDB.Close() })
	if err := postgres.RunMigrations(ctx, db); err != nil {
		return fail(err)
	}

	var (
		cacheStore  ports.Cache
		locker      ports.Locker = cache.NewLocalLocker()
		redisClient *redis.Client
	)
	if cfg.RedisURL != "" {
		redisClient, err = cache.Connect(ctx, cfg.RedisURL)
		if err != nil {
			return fail(err)
		}
		closers = append(closers, func(context.Context) error { return redisClient.Close() })
		cacheStore = cache.NewRedisCache(redisClient)
		locker = cache.NewRedisLocker(redisClient)
	} else {
		logger.WarnContext(ctx, "redis not configured, snapshot cache disabled and rotation locks are process-local")
	}

	var tokens ports.TokenVerifier
	if cfg.JWTPublicKeyPEM != "" || cfg.JWTHMACSecret != "" {
		verifier, verr := security.NewJWTVerifier(cfg.JWTPublicKeyPEM, cfg.JWTHMACSecret, cfg.JWTIssuer)
		if verr != nil {
			return fail(verr)
		}
		tokens = verifier
	} else {
		logger.WarnContext(ctx, "no jwt key configured, authenticated routes will reject all requests")
	}

	var (
		push  ports.PushSender  = notify.LoggingSender{}
		email ports.EmailSender = notify.LoggingSender{}
	)
	if cfg.PushURL != "" || cfg.EmailURL != "" {
		sender := notify.NewHTTPSender(notify.HTTPSenderConfig{
			PushURL:     cfg.PushURL,
			EmailURL:    cfg.EmailURL,
			BearerToken: cfg.NotifyBearerToken,
			Timeout:     cfg.DispatchTimeout,
		})
		push, email = sender, sender
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	repos := postgres.NewRepositories(db)
	service := application.NewService(application.Dependencies{
		Config: application.Config{
			ServiceName:             cfg.ServiceID,
			RiskActivityWindow:      cfg.RiskActivityWindow,
			RiskWorkers:             cfg.RiskWorkers,
			BatchPageSize:           cfg.BatchPageSize,
			SnapshotCacheTTL:        cfg.SnapshotCacheTTL,
			RotationPeriod:          cfg.RotationPeriod,
			RotationLockTTL:         cfg.RotationLockTTL,
			ReviewWindow:            cfg.ReviewWindow,
			ReminderAfter:           cfg.ReminderAfter,
			EventDedupTTL:           cfg.EventDedupTTL,
			RestorePointsOnApproval: cfg.RestorePointsOnApproval,
			JobsBearerToken:         cfg.JobsBearerToken,
		},
		Events:        repos.Events,
		Risk:          repos.Risk,
		Committees:    repos.Committees,
		Expulsions:    repos.Expulsions,
		Professionals: repos.Professionals,
		Appeals:       repos.Appeals,
		Notifications: repos.Notifications,
		Roles:         repos.Roles,
		Outbox:        repos.Outbox,
		EventDedup:    repos.EventDedup,
		Cache:         cacheStore,
		Locker:        locker,
		Tokens:        tokens,
		Push:          push,
		Email:         email,
		Metrics:       metrics.NewPrometheus(registry),
	})

	ready := func(ctx context.Context) error {
		if err := sqlDB.PingContext(ctx); err != nil {
			return fmt.Errorf("database: %w", err)
		}
		if redisClient != nil {
			if err := redisClient.Ping(ctx).Err(); err != nil {
				return fmt.Errorf("redis: %w", err)
			}
		}
		return nil
	}

	handler := httpadapter.NewHandler(service, httpadapter.HandlerOptions{
		Ready:          ready,
		Metrics:        promhttp.HandlerFor(registry, promhttp.HandlerOpts{Registry: registry}),
		AllowedOrigins: cfg.CORSAllowedOrigins,
	})
	httpServer := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.HTTPPort),
		Handler:           httpadapter.NewRouter(handler),
		ReadHeaderTimeout: 5 * time.Second,
	}
	grpcServer, healthReporter := grpcadapter.NewServer(logger, ready, 10*time.Second)

	publisher := ports.EventPublisher(eventadapter.NewLoggingPublisher(logger))
	consumerAdapter := eventadapter.Consumer(eventadapter.NewNoopConsumer())
	if len(cfg.KafkaBrokers) > 0 {
		var kafkaClosers []io.Closer
		kafkaPublisher, pubErr := eventadapter.NewKafkaPublisher(cfg.KafkaBrokers, nil)
		if pubErr != nil {
			logger.WarnContext(ctx, "kafka publisher disabled, using logging publisher", "error", pubErr)
		} else {
			publisher = kafkaPublisher
			kafkaClosers = append(kafkaClosers, kafkaPublisher)
		}

		kafkaConsumer, conErr := eventadapter.NewKafkaConsumer(cfg.KafkaBrokers, cfg.KafkaConsumerGroup, eventadapter.Topics())
		if conErr != nil {
			logger.WarnContext(ctx, "kafka consumer disabled, using noop consumer", "error", conErr)
		} else {
			consumerAdapter = kafkaConsumer
			kafkaClosers = append(kafkaClosers, kafkaConsumer)
		}
		for _, c := range kafkaClosers {
			closers = append(closers, func(context.Context) error { return c.Close() })
		}
	}

	r := &Runtime{
		cfg:        cfg,
		logger:     logger,
		service:    service,
		httpServer: httpServer,
		grpcServer: grpcServer,
		health:     healthReporter,
		outbox:     eventadapter.NewOutboxWorker(logger, repos.Outbox, publisher, cfg.OutboxPollInterval, cfg.OutboxBatchSize),
		consumer:   eventadapter.NewConsumerWorker(logger, consumerAdapter, service, cfg.ConsumerPollInterval),
		cleanupFn:  cleanup,
	}
	r.scheduler = eventadapter.NewScheduler(logger, r.jobs()...)
	return r, nil
}

func (r *Runtime) Config() Config {
	return r.cfg
}

func (r *Runtime) Service() *application.Service {
	return r.service
}

// Close releases stores and brokers. It is safe to call more than once.
func (r *Runtime) Close(ctx context.Context) {
	r.closeOnce.Do(func() { r.cleanupFn(ctx) })
}

func (r *Runtime) jobs() []eventadapter.Job {
	return []eventadapter.Job{
		{
			Name:     application.JobAnalyzeBehavior,
			Interval: r.cfg.AnalyzeInterval,
			Run: func(ctx context.Context) error {
				_, err := r.RunJob(ctx, application.JobAnalyzeBehavior)
				return err
			},
		},
		{
			Name:     application.JobRotateCommittee,
			Interval: r.cfg.RotationInterval,
			Run: func(ctx context.Context) error {
				_, err := r.RunJob(ctx, application.JobRotateCommittee)
				return err
			},
		},
		{
			Name:     application.JobProcessExpulsionVotes,
			Interval: r.cfg.ExpulsionInterval,
			Run: func(ctx context.Context) error {
				_, err := r.RunJob(ctx, application.JobProcessExpulsionVotes)
				return err
			},
		},
	}
}

// RunJob executes one batch job synchronously and returns its report.
func (r *Runtime) RunJob(ctx context.Context, name string) (*domain.BatchReport, error) {
	switch name {
	case application.JobAnalyzeBehavior:
		return r.service.AnalyzeRecentlyActive(ctx)
	case application.JobRotateCommittee:
		result, err := r.service.RotateCommittees(ctx)
		return result.Report, err
	case application.JobProcessExpulsionVotes:
		result, err := r.service.ProcessExpulsionVotes(ctx)
		return result.Report, err
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownJob, name)
	}
}

func (r *Runtime) RunAPI(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	errCh := make(chan error, 2)

	lis, err := net.Listen("tcp", fmt.Sprintf(":%d", r.cfg.GRPCPort))
	if err != nil {
		r.Close(context.Background())
		return err
	}

	go func() {
		if err := r.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.grpcServer.Serve(lis); err != nil {
			errCh <- err
		}
	}()
	go func() {
		_ = r.health.Run(ctx)
	}()
	r.logger.InfoContext(ctx, "api started", "http_port", r.cfg.HTTPPort, "grpc_port", r.cfg.GRPCPort)

	var runErr error
	select {
	case <-ctx.Done():
	case runErr = <-errCh:
		r.logger.ErrorContext(ctx, "runtime failure", "error", runErr)
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	_ = r.httpServer.Shutdown(shutdownCtx)
	r.grpcServer.GracefulStop()
	r.Close(shutdownCtx)
	return runErr
}

func (r *Runtime) RunWorker(ctx context.Context) error {
	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	defer r.Close(context.Background())
	errCh := make(chan error, 3)

	go func() {
		if err := r.outbox.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.consumer.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	go func() {
		if err := r.scheduler.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			errCh <- err
		}
	}()
	names := make([]string, 0, len(r.scheduler.Jobs()))
	for _, job := range r.scheduler.Jobs() {
		names = append(names, job.Name)
	}
	r.logger.InfoContext(ctx, "worker started", "scheduled_jobs", names)

	select {
	case <-ctx.Done():
		return nil
	case err := <-errCh:
		return err
	}
}
