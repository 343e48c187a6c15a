package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/queuecast/core/queueing"
	"github.com/kilianp07/queuecast/pkg/export"
)

var analyzeOpts struct {
	arrivalRate float64
	serviceRate float64
	servers     int
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze",
	Short: "Analyze a queue configuration with M/M/1 or M/M/c",
	RunE:  runAnalyze,
}

func init() {
	f := analyzeCmd.Flags()
	f.Float64Var(&analyzeOpts.arrivalRate, "arrival-rate", 0, "arrivals per hour")
	f.Float64Var(&analyzeOpts.serviceRate, "service-rate", 0, "services per hour and server")
	f.IntVar(&analyzeOpts.servers, "servers", 1, "parallel servers")
	_ = analyzeCmd.MarkFlagRequired("arrival-rate")
	_ = analyzeCmd.MarkFlagRequired("service-rate")
	rootCmd.AddCommand(analyzeCmd)
}

func runAnalyze(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	calc := queueing.NewCalculatorWithThreshold(cfg.Prediction.StabilityThreshold)
	res := calc.Analyze(analyzeOpts.arrivalRate, analyzeOpts.serviceRate, analyzeOpts.servers)
	return export.WriteJSON(cmd.OutOrStdout(), res)
}
