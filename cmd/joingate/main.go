package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"joingate/internal/admin"
	"joingate/internal/console/handler"
	"joingate/internal/platform/bot"
	"joingate/internal/platform/config"
	"joingate/internal/platform/httpserver"
	"joingate/internal/platform/kafka"
	"joingate/internal/platform/logger"
	"joingate/internal/platform/metrics"
	pgplatform "joingate/internal/platform/postgres"
	redisplatform "joingate/internal/platform/redis"
	"joingate/internal/verification/audit"
	"joingate/internal/verification/captcha"
	"joingate/internal/verification/models"
	"joingate/internal/verification/policy"
	"joingate/internal/verification/ports"
	"joingate/internal/verification/service"
	"joingate/internal/verification/store/memory"
	pgstore "joingate/internal/verification/store/postgres"
	"joingate/internal/verification/tracker"
	id "joingate/pkg/domain"
)

// auditMirrorBuffer bounds how many records may wait for the Kafka worker.
const auditMirrorBuffer = 256

// main wires the gateway client, the verification core, the chat command
// surface and the admin console, then runs them until SIGINT/SIGTERM.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("joingate stopped with error", "error", err)
		os.Exit(1)
	}
	log.Info("joingate stopped")
}

type infra struct {
	db       *sql.DB
	redis    *redisplatform.Client
	producer *kafka.Producer
}

func (i infra) close(ctx context.Context, log *slog.Logger) {
	if i.producer != nil {
		i.producer.Close(ctx)
	}
	if i.redis != nil {
		if err := i.redis.Close(); err != nil {
			log.Warn("closing redis", "error", err)
		}
	}
	if i.db != nil {
		if err := i.db.Close(); err != nil {
			log.Warn("closing database", "error", err)
		}
	}
}

func openInfra(ctx context.Context, cfg config.Config, log *slog.Logger) (infra, error) {
	var out infra
	var err error

	if out.db, err = pgplatform.Open(ctx, cfg.Database); err != nil {
		return out, err
	}
	if out.redis, err = redisplatform.New(ctx, cfg.Redis); err != nil {
		out.close(ctx, log)
		return out, err
	}
	if out.producer, err = kafka.NewProducer(ctx, cfg.Kafka); err != nil {
		out.close(ctx, log)
		return out, err
	}
	log.Info("infrastructure ready",
		"postgres", out.db != nil,
		"redis", out.redis != nil,
		"kafka", out.producer != nil,
	)
	return out, nil
}

func defaultsFrom(v config.Verification) (models.Defaults, error) {
	mode, err := models.ParseMode(v.DefaultMode)
	if err != nil {
		return models.Defaults{}, fmt.Errorf("VERIFY_DEFAULT_MODE: %w", err)
	}
	return models.Defaults{
		Mode:          mode,
		CaptchaLength: v.DefaultCaptchaLength,
		Timeout:       v.DefaultTimeout,
		SkipIfMember:  v.SkipIfMember,
		WaitingMsg:    v.WaitingMsg,
		ApproveMsg:    v.ApproveMsg,
		RejectMsg:     v.RejectMsg,
		TimeoutMsg:    v.TimeoutMsg,
	}, nil
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	defaults, err := defaultsFrom(cfg.Verification)
	if err != nil {
		return err
	}
	dialect, err := bot.ParseDialect(cfg.Bot.Platform)
	if err != nil {
		return fmt.Errorf("BOT_PLATFORM: %w", err)
	}

	inf, err := openInfra(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer inf.close(context.WithoutCancel(ctx), log)

	var store ports.Store = memory.New()
	if inf.db != nil {
		pg := pgstore.New(inf.db)
		if err := pg.Migrate(ctx); err != nil {
			return err
		}
		store = pg
	}

	reg := metrics.NewRegistry()
	m := metrics.New(reg)

	resolver, err := policy.New(store, defaults,
		policy.WithLogger(log),
		policy.WithTTL(cfg.Verification.PolicyCacheTTL),
		policy.WithMetrics(m),
	)
	if err != nil {
		return err
	}

	captchaOpts := []captcha.Option{
		captcha.WithLogger(log),
		captcha.WithSweepInterval(cfg.Verification.CaptchaSweepInterval),
	}
	if inf.redis != nil {
		captchaOpts = append(captchaOpts, captcha.WithStore(captcha.NewRedisStore(inf.redis.Client)))
	}
	engine := captcha.New(captchaOpts...)

	trk := tracker.New(
		tracker.WithMaxAttempts(cfg.Verification.MaxRetryCount),
		tracker.WithAmnesty(cfg.Verification.AttemptAmnesty),
	)

	recorderOpts := []audit.Option{audit.WithLogger(log)}
	var worker *audit.Worker
	if inf.producer != nil {
		inbox := make(chan models.AuditRecord, auditMirrorBuffer)
		recorderOpts = append(recorderOpts, audit.WithMirror(inbox))
		worker = audit.NewWorker(audit.NewKafkaPublisher(inf.producer), inbox, log)
	}
	recorder, err := audit.NewRecorder(store, recorderOpts...)
	if err != nil {
		return err
	}

	client := bot.NewClient(cfg.Bot, bot.WithClientLogger(log))
	adapter, err := bot.NewAdapter(client, dialect, bot.WithAdapterLogger(log))
	if err != nil {
		return err
	}

	svc, err := service.New(service.Dependencies{
		Platform:  adapter,
		Whitelist: store,
		Policies:  resolver,
		Captcha:   engine,
		Tracker:   trk,
		Audit:     recorder,
	},
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithBaseContext(ctx),
	)
	if err != nil {
		return err
	}

	superAdmins := make([]id.UserID, 0, len(cfg.Verification.SuperAdmins))
	for _, u := range cfg.Verification.SuperAdmins {
		superAdmins = append(superAdmins, id.UserID(u))
	}
	enableMode := models.ModeTextCaptcha
	if cfg.Verification.EnableImageCaptcha && defaults.Mode == models.ModeImageCaptcha {
		enableMode = models.ModeImageCaptcha
	}
	commands, err := admin.New(store, resolver,
		admin.WithLogger(log),
		admin.WithSuperAdmins(superAdmins...),
		admin.WithEnableMode(enableMode),
		admin.WithImageCaptcha(cfg.Verification.EnableImageCaptcha),
	)
	if err != nil {
		return err
	}

	dispatcher := bot.NewDispatcher(svc, commands, adapter, log)

	checks := []handler.HealthCheck{{Name: "gateway", Check: client.Health}}
	if inf.db != nil {
		checks = append(checks, handler.HealthCheck{Name: "postgres", Check: inf.db.PingContext})
	}
	if inf.redis != nil {
		checks = append(checks, handler.HealthCheck{Name: "redis", Check: inf.redis.Health})
	}
	if inf.producer != nil {
		checks = append(checks, handler.HealthCheck{Name: "kafka", Check: inf.producer.Health})
	}
	if cfg.Server.AdminTokenHash == "" {
		log.Warn("JOINGATE_ADMIN_TOKEN_HASH is empty, the console API will reject every request")
	}
	console := handler.New(store, resolver, log, checks...)
	srv := httpserver.New(cfg.Server.Addr, console.Router(cfg.Server.AdminTokenHash, metrics.Handler(reg)))

	// The mirror worker outlives the intake group so outcomes recorded while
	// draining can still be published. Mirroring stays best effort.
	workerCtx, stopWorker := context.WithCancel(context.WithoutCancel(ctx))
	workerDone := make(chan struct{})
	if worker != nil {
		go func() {
			defer close(workerDone)
			_ = worker.Run(workerCtx)
		}()
	} else {
		close(workerDone)
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.Info("console listening", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("console server: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	})
	g.Go(func() error {
		log.Info("connecting to gateway", "url", cfg.Bot.URL, "platform", dialect)
		return client.Run(gctx, dispatcher.HandleEvent)
	})
	g.Go(func() error {
		return ignoreCanceled(engine.Run(gctx))
	})
	g.Go(func() error {
		return ignoreCanceled(trk.StartCleanup(gctx, cfg.Verification.CaptchaSweepInterval))
	})

	runErr := g.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cfg.Server.ShutdownTimeout)
	defer cancel()
	svc.Close(shutdownCtx)

	stopWorker()
	select {
	case <-workerDone:
	case <-time.After(cfg.Server.ShutdownTimeout):
		log.Warn("audit mirror worker did not stop in time")
	}
	return runErr
}

func ignoreCanceled(err error) error {
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}
