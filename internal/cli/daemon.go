package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/hotbundle/hotbundle/internal/daemon"
	"github.com/hotbundle/hotbundle/internal/metrics"
)

var (
	daemonManifest    string
	daemonInterval    time.Duration
	daemonMetricsAddr string
	daemonOnce        bool
)

func init() {
	daemonCmd.Flags().StringVar(&daemonManifest, "manifest", "", "Update manifest to follow (default daemon.manifest)")
	daemonCmd.Flags().DurationVar(&daemonInterval, "interval", 0, "Check interval (default daemon.interval)")
	daemonCmd.Flags().StringVar(&daemonMetricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address (default daemon.metrics_addr)")
	daemonCmd.Flags().BoolVar(&daemonOnce, "once", false, "Run a single check and exit")
	rootCmd.AddCommand(daemonCmd)
}

var daemonCmd = &cobra.Command{
	Use:   "daemon",
	Short: "Keep the bundle cache in sync with an update manifest",
	Long: `Checks the update manifest on an interval and whenever it changes, and
installs the announced bundle when it is newer than the active one.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp()
		if err != nil {
			return err
		}
		defer a.close()

		cfg := a.settings.Daemon
		if daemonManifest != "" {
			cfg.Manifest = daemonManifest
		}
		if daemonInterval > 0 {
			cfg.Interval = daemonInterval
		}
		if daemonMetricsAddr != "" {
			cfg.MetricsAddr = daemonMetricsAddr
		}
		if cfg.Manifest == "" {
			return fmt.Errorf("no manifest configured: pass --manifest or set daemon.manifest")
		}

		var srv *http.Server
		if cfg.MetricsAddr != "" {
			prom := metrics.NewPrometheus(nil)
			a.recorder = prom
			mux := http.NewServeMux()
			mux.Handle("/metrics", prom.Handler())
			srv = &http.Server{Addr: cfg.MetricsAddr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
		}

		u, err := a.updater(cmd.Context())
		if err != nil {
			return err
		}
		d, err := daemon.New(daemon.Config{
			ManifestPath:   cfg.Manifest,
			Interval:       cfg.Interval,
			Updater:        u,
			Store:          a.store,
			Resolver:       a.resolver(),
			AppVersion:     a.settings.AppVersion,
			AllowDowngrade: cfg.AllowDowngrade,
			ReportDir:      a.reportDir(),
			Logger:         a.log,
		})
		if err != nil {
			return err
		}

		if daemonOnce {
			report, err := d.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			if report == nil {
				fmt.Fprintln(cmd.OutOrStdout(), "Nothing to update")
				return nil
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Bundle %s: %s\n", report.Version, report.Outcome)
			return nil
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		if srv != nil {
			go func() {
				a.log.WithField("addr", srv.Addr).Info("serving metrics")
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					a.log.WithError(err).Error("metrics server failed")
				}
			}()
		}

		if err := d.Start(ctx); err != nil {
			return err
		}
		<-ctx.Done()

		stopErr := d.Stop()
		if srv != nil {
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				a.log.WithError(err).Warn("stopping metrics server")
			}
		}
		return stopErr
	},
}
