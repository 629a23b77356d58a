package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"confreg/internal/admin"
	"confreg/internal/admin/adapters"
	jwttoken "confreg/internal/jwt_token"
	"confreg/internal/notification"
	"confreg/internal/notification/render"
	"confreg/internal/payment/razorpay"
	"confreg/internal/platform/config"
	"confreg/internal/platform/httpserver"
	"confreg/internal/platform/logger"
	"confreg/internal/platform/metrics"
	"confreg/internal/registration/handler"
	"confreg/internal/registration/service"
	"confreg/internal/registration/sweeper"
)

const (
	tokenIssuer   = "confreg"
	tokenAudience = "confreg-admin"
)

// main wires high-level dependencies and owns the process lifecycle.
// Business logic lives in internal service packages.
func main() {
	cfg := config.FromEnv()
	log := logger.New(cfg.Server.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, log); err != nil {
		log.Error("server exited", "error", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg config.Config, log *slog.Logger) error {
	m := metrics.New(prometheus.DefaultRegisterer)

	stores, err := openBackends(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer stores.close()

	notes, err := openQueue(ctx, cfg, log)
	if err != nil {
		return err
	}
	defer notes.close()

	gateway := razorpay.New(cfg.Gateway)
	if cfg.Gateway.KeyID == "" || cfg.Gateway.KeySecret == "" {
		log.WarnContext(ctx, "razorpay credentials missing; order creation and signature checks will fail")
	}

	svc := service.New(stores.provisional, stores.permanent,
		service.WithLogger(log),
		service.WithMetrics(m),
		service.WithLocker(stores.locker),
		service.WithGateway(gateway),
		service.WithNotifier(notes.queue),
		service.WithCurrency(cfg.Gateway.Currency),
		service.WithClientSignatureCheck(cfg.Gateway.VerifyClientSignature),
	)

	worker, artifactDir, err := newWorker(cfg, log, m, notes.source)
	if err != nil {
		return err
	}

	sweep := sweeper.New(stores.provisional, cfg.Registration.ProvisionalRetention, cfg.Registration.SweepInterval,
		sweeper.WithLogger(log),
		sweeper.WithMetrics(m),
	)

	tokens := jwttoken.NewJWTService(cfg.Admin.TokenSecret, tokenIssuer, tokenAudience)
	validator := jwttoken.NewJWTServiceAdapter(tokens)
	auth, err := admin.NewAuthenticator(cfg.Admin.Username, cfg.Admin.Password, cfg.Admin.PasswordHash, tokens, cfg.Admin.TokenTTL, log)
	if err != nil {
		return err
	}

	router := newRouter(cfg, log, m,
		handler.New(svc, gateway, validator, gateway.KeyID(), log),
		admin.NewHandler(auth, adapters.NewRegistrationAdapter(svc), validator, log),
		artifactDir,
		stores.health,
	)
	srv := httpserver.New(cfg.Server.Addr, router, cfg.Server.RequestTimeout)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		log.InfoContext(gctx, "starting confreg", "addr", cfg.Server.Addr, "db_backend", cfg.Database.Backend)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		return worker.Run(gctx)
	})
	g.Go(func() error {
		return sweep.Run(gctx)
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(gctx), cfg.Server.ShutdownTimeout)
		defer cancel()
		log.InfoContext(shutdownCtx, "shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func newWorker(cfg config.Config, log *slog.Logger, m *metrics.Metrics, source notification.Source) (*notification.Worker, string, error) {
	artifacts, err := render.NewArtifacts(cfg.Artifacts)
	if err != nil {
		return nil, "", err
	}
	certificates, err := render.NewCertificates(cfg.Artifacts.TemplatePath)
	if err != nil {
		return nil, "", err
	}
	email, err := emailProvider(cfg.Email, log)
	if err != nil {
		return nil, "", err
	}

	worker := notification.NewWorker(source, email, whatsAppProvider(cfg.WhatsApp, log), artifacts, certificates,
		notification.WorkerConfig{
			Event: notification.Event{
				Title: cfg.Artifacts.EventTitle,
				Dates: cfg.Artifacts.EventDates,
				Venue: cfg.Artifacts.EventVenue,
			},
			AdminEmail:       cfg.Email.AdminEmail,
			WhatsAppTemplate: cfg.WhatsApp.TemplateName,
			WhatsAppLanguage: cfg.WhatsApp.LanguageCode,
		},
		notification.WithWorkerLogger(log),
		notification.WithWorkerMetrics(m),
		notification.WithRetries(cfg.Registration.NotificationRetries),
	)
	return worker, artifacts.Dir(), nil
}
