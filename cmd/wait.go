package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/queuecast/api/predict"
	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/pkg/export"
)

var waitOpts struct {
	queueLength int
	serviceTime float64
	servers     int
	position    int
	category    string
	at          string
	weather     string
	holiday     bool
	format      string
	replay      bool
}

var waitCmd = &cobra.Command{
	Use:   "wait",
	Short: "Estimate the wait of one queue position",
	RunE:  runWait,
}

func init() {
	f := waitCmd.Flags()
	f.IntVar(&waitOpts.queueLength, "queue-length", 0, "entities currently waiting")
	f.Float64Var(&waitOpts.serviceTime, "service-time", 10, "average service time in minutes")
	f.IntVar(&waitOpts.servers, "servers", 1, "active servers")
	f.IntVar(&waitOpts.position, "position", 0, "queue position to estimate; 0 means the next arrival")
	f.StringVar(&waitOpts.category, "category", "", "location category; defaults to the configured one")
	f.StringVar(&waitOpts.at, "time", "", "prediction time (ISO-8601); defaults to now")
	f.StringVar(&waitOpts.weather, "weather", "sunny", "weather condition")
	f.BoolVar(&waitOpts.holiday, "holiday", false, "the day is a public holiday")
	f.StringVar(&waitOpts.format, "format", "json", "output format: json or csv")
	f.BoolVar(&waitOpts.replay, "replay", false, "replay the prediction log before predicting")
	rootCmd.AddCommand(waitCmd)
}

func runWait(cmd *cobra.Command, args []string) error {
	if waitOpts.format != "json" && waitOpts.format != "csv" {
		return fmt.Errorf("unsupported format %q", waitOpts.format)
	}
	svc, err := oneShot()
	if err != nil {
		return err
	}
	defer closeService(svc)
	if waitOpts.replay {
		if _, err := svc.Replay(cmd.Context()); err != nil {
			return err
		}
	}

	cfg := svc.Config().Prediction.Service
	if waitOpts.category != "" {
		cfg.Category = model.Category(waitOpts.category)
	}
	now := predict.ParseTimestamp(waitOpts.at, time.Now)
	est, err := svc.PredictWait(cmd.Context(), predict.WaitQuery{
		Snapshot: model.QueueSnapshot{
			QueueLength:    waitOpts.queueLength,
			AvgServiceTime: waitOpts.serviceTime,
			ActiveServers:  waitOpts.servers,
			Timestamp:      now,
		},
		Position: waitOpts.position,
		Service:  cfg,
		Context: model.PredictionContext{
			Now:       now,
			Weather:   &model.Weather{Condition: waitOpts.weather},
			IsHoliday: waitOpts.holiday,
		},
	})
	if err != nil {
		return err
	}
	if waitOpts.format == "csv" {
		return export.WriteWaitCSV(cmd.OutOrStdout(), []model.WaitEstimate{est})
	}
	return export.WriteJSON(cmd.OutOrStdout(), est)
}
