package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/kilianp07/queuecast/app"
	"github.com/kilianp07/queuecast/config"
	coremetrics "github.com/kilianp07/queuecast/core/metrics"
	"github.com/kilianp07/queuecast/infra/logger"
)

var cfgPath string

var rootCmd = &cobra.Command{
	Use:           "queuecast",
	Short:         "Queue wait-time and arrival traffic prediction",
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfgPath, "config", "c", "", "configuration file (YAML or JSON); empty uses defaults and QC_ variables")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	return cfg, nil
}

// oneShot builds a service for a single CLI prediction. The prediction log
// is kept so that CLI answers are recorded and replayed like served ones;
// metrics and MQTT are left out.
func oneShot() (*app.Service, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	cfg.MQTT.Enabled = false
	svc, err := app.New(cfg, app.WithSink(coremetrics.NopSink{}), app.WithLogger(logger.New("cli")))
	if err != nil {
		return nil, err
	}
	return svc, nil
}

func closeService(svc *app.Service) {
	if err := svc.Close(); err != nil {
		logger.New("cli").Errorf("service close: %v", err)
	}
}
