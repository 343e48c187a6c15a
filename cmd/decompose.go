package cmd

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kilianp07/queuecast/core/forecast"
	"github.com/kilianp07/queuecast/pkg/export"
)

var decomposeOpts struct {
	period int
	smooth string
	window int
}

var decomposeCmd = &cobra.Command{
	Use:   "decompose VALUE...",
	Short: "Split a series into trend, seasonal and residual parts",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runDecompose,
}

func init() {
	f := decomposeCmd.Flags()
	f.IntVar(&decomposeOpts.period, "period", 24, "season length in points")
	f.StringVar(&decomposeOpts.smooth, "smooth", "", "smooth the series first: moving_average or exponential")
	f.IntVar(&decomposeOpts.window, "window", 3, "moving average window")
	rootCmd.AddCommand(decomposeCmd)
}

// parseSeries accepts values as separate arguments or comma separated.
func parseSeries(args []string) ([]float64, error) {
	var out []float64
	for _, a := range args {
		for _, s := range strings.Split(a, ",") {
			s = strings.TrimSpace(s)
			if s == "" {
				continue
			}
			v, err := strconv.ParseFloat(s, 64)
			if err != nil {
				return nil, fmt.Errorf("invalid value %q: %w", s, err)
			}
			out = append(out, v)
		}
	}
	return out, nil
}

func runDecompose(cmd *cobra.Command, args []string) error {
	data, err := parseSeries(args)
	if err != nil {
		return err
	}
	if decomposeOpts.smooth != "" {
		data = forecast.Smooth(data, forecast.Method(decomposeOpts.smooth), decomposeOpts.window)
	}
	d, err := forecast.Decompose(data, decomposeOpts.period)
	if err != nil {
		return err
	}
	return export.WriteJSON(cmd.OutOrStdout(), d)
}
