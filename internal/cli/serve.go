package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/pwaspark/pwagen/internal/api"
	"github.com/pwaspark/pwagen/internal/auth"
	"github.com/pwaspark/pwagen/internal/conf"
	"github.com/pwaspark/pwagen/internal/datastore"
	"github.com/pwaspark/pwagen/internal/events"
	"github.com/pwaspark/pwagen/internal/logger"
	"github.com/pwaspark/pwagen/internal/monitoring"
	"github.com/pwaspark/pwagen/internal/mqtt"
	"github.com/pwaspark/pwagen/internal/records"
)

func newServeCommand(opts *globalOptions) *cobra.Command {
	var listen string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the pwagen HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			settings, err := opts.loadSettings()
			if err != nil {
				return err
			}
			if listen != "" {
				settings.Server.Listen = listen
			}
			return runServe(cmd.Context(), settings)
		},
	}
	cmd.Flags().StringVar(&listen, "listen", "", "listen address (overrides server.listen)")
	return cmd
}

func runServe(ctx context.Context, settings *conf.Settings) error {
	log := newLogger(settings.Main)

	if err := monitoring.InitSentry(settings.Sentry, Version); err != nil {
		log.Warn("error reporting disabled", logger.Error(err))
	}
	defer monitoring.FlushSentry(2 * time.Second)

	mgr, err := datastore.Open(settings, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := mgr.Close(); err != nil {
			log.Warn("failed to close database", logger.Error(err))
		}
	}()
	if err := mgr.Initialize(); err != nil {
		return err
	}

	bus := events.NewBus(0, log)
	defer bus.Stop()

	metrics := monitoring.New(bus.Dropped)
	svc := records.NewService(mgr.PWARepository(),
		records.WithPublisher(bus),
		records.WithObserver(metrics),
		records.WithMaxPerUser(settings.Records.MaxPerUser),
		records.WithLogger(log))

	var verifier *auth.Verifier
	if settings.Auth.JWTSecret != "" {
		verifier, err = auth.NewVerifier(settings.Auth.JWTSecret, settings.Auth.Issuer, settings.Auth.Audience)
		if err != nil {
			return err
		}
	} else {
		log.Warn("auth.jwtsecret is not set, every request is anonymous and records cannot be saved")
	}

	if settings.MQTT.Enabled {
		if pub := connectMQTT(ctx, settings.MQTT, log); pub != nil {
			bus.Subscribe(pub.Handler())
			defer pub.Close()
		}
	}

	srv, err := api.NewServer(api.Options{
		Settings: settings,
		Records:  svc,
		Verifier: verifier,
		Metrics:  metrics,
		Health:   mgr.Ping,
		Logger:   log,
	})
	if err != nil {
		return err
	}
	bus.Subscribe(srv.Controller().EventHandler())

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Start() }()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), settings.Server.ShutdownTimeout.Or(10*time.Second))
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}

// connectMQTT returns a connected publisher, or nil when the broker is
// unreachable. Event forwarding is optional and never blocks startup.
func connectMQTT(ctx context.Context, settings conf.MQTTSettings, log logger.Logger) *mqtt.Publisher {
	pub, err := mqtt.NewPublisher(settings, log)
	if err != nil {
		log.Warn("mqtt event forwarding disabled", logger.Error(err))
		return nil
	}
	if err := pub.Connect(ctx); err != nil {
		log.Warn("mqtt broker unreachable, event forwarding disabled",
			logger.String("broker", settings.Broker),
			logger.Error(err))
		return nil
	}
	log.Info("forwarding record events to mqtt",
		logger.String("broker", settings.Broker),
		logger.String("topic", settings.Topic))
	return pub
}
