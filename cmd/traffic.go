package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kilianp07/queuecast/api/predict"
	"github.com/kilianp07/queuecast/core/model"
	"github.com/kilianp07/queuecast/core/prediction"
	"github.com/kilianp07/queuecast/pkg/export"
)

var trafficOpts struct {
	current         int
	intervals       int
	intervalMinutes int
	category        string
	at              string
	weather         string
	holiday         bool
	history         []int
	format          string
	replay          bool
}

var trafficCmd = &cobra.Command{
	Use:   "traffic",
	Short: "Forecast arrival volume over the coming intervals",
	RunE:  runTraffic,
}

func init() {
	f := trafficCmd.Flags()
	f.IntVar(&trafficOpts.current, "current", 0, "arrivals observed in the current interval")
	f.IntVar(&trafficOpts.intervals, "intervals", 6, "number of forecast intervals")
	f.IntVar(&trafficOpts.intervalMinutes, "interval-minutes", 5, "length of one interval in minutes")
	f.StringVar(&trafficOpts.category, "category", "", "location category; defaults to the configured one")
	f.StringVar(&trafficOpts.at, "time", "", "forecast start (ISO-8601); defaults to now")
	f.StringVar(&trafficOpts.weather, "weather", "sunny", "weather condition")
	f.BoolVar(&trafficOpts.holiday, "holiday", false, "the day is a public holiday")
	f.IntSliceVar(&trafficOpts.history, "history", nil, "recent observed volumes, oldest first")
	f.StringVar(&trafficOpts.format, "format", "json", "output format: json, csv or html")
	f.BoolVar(&trafficOpts.replay, "replay", false, "replay the prediction log before forecasting")
	rootCmd.AddCommand(trafficCmd)
}

type trafficOutput struct {
	Forecast model.TrafficForecast `json:"forecast"`
	Insights prediction.Insights   `json:"insights"`
}

func runTraffic(cmd *cobra.Command, args []string) error {
	switch trafficOpts.format {
	case "json", "csv", "html":
	default:
		return fmt.Errorf("unsupported format %q", trafficOpts.format)
	}
	svc, err := oneShot()
	if err != nil {
		return err
	}
	defer closeService(svc)
	if trafficOpts.replay {
		if _, err := svc.Replay(cmd.Context()); err != nil {
			return err
		}
	}

	cfg := svc.Config().Prediction.Service
	if trafficOpts.category != "" {
		cfg.Category = model.Category(trafficOpts.category)
	}
	now := predict.ParseTimestamp(trafficOpts.at, time.Now)
	fc, err := svc.PredictTraffic(cmd.Context(), predict.TrafficQuery{
		CurrentVolume:   trafficOpts.current,
		Intervals:       trafficOpts.intervals,
		IntervalMinutes: trafficOpts.intervalMinutes,
		Service:         cfg,
		Context: model.PredictionContext{
			Now:       now,
			Weather:   &model.Weather{Condition: trafficOpts.weather},
			IsHoliday: trafficOpts.holiday,
		},
		History:  model.HistoricalData{RecentCounts: trafficOpts.history},
		Observed: trafficOpts.history,
	})
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	switch trafficOpts.format {
	case "csv":
		return export.WriteForecastCSV(w, fc)
	case "html":
		return export.RenderChart(w, prediction.NewChartData(fc), trafficOpts.history)
	default:
		return export.WriteJSON(w, trafficOutput{Forecast: fc, Insights: prediction.BusinessInsights(fc)})
	}
}
