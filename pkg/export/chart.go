package export

import (
	"fmt"
	"io"

	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"github.com/kilianp07/queuecast/core/prediction"
)

// empty is the echarts placeholder for a missing point.
const empty = "-"

// RenderChart draws the observed history followed by the forecast, its
// confidence band and the detected peak windows as an HTML page. history may
// be empty.
func RenderChart(w io.Writer, cd prediction.ChartData, history []int) error {
	line := charts.NewLine()
	line.SetGlobalOptions(
		charts.WithTitleOpts(opts.Title{
			Title:    cd.Title,
			Subtitle: fmt.Sprintf("max %d, min %d, avg %.1f, %d peak window(s)", cd.Stats.Max, cd.Stats.Min, cd.Stats.Avg, cd.Stats.TotalPeaks),
		}),
		charts.WithXAxisOpts(opts.XAxis{Name: "Time"}),
		charts.WithYAxisOpts(opts.YAxis{Name: "Arrivals"}),
	)

	n := len(history)
	xAxis := make([]string, 0, n+len(cd.Labels))
	for i := range history {
		xAxis = append(xAxis, fmt.Sprintf("T-%d", n-i))
	}
	xAxis = append(xAxis, cd.Labels...)

	observed := make([]opts.LineData, 0, len(xAxis))
	for _, v := range history {
		observed = append(observed, opts.LineData{Value: v})
	}
	for range cd.Labels {
		observed = append(observed, opts.LineData{Value: empty})
	}

	line.SetXAxis(xAxis)
	if n > 0 {
		line.AddSeries("Observed", observed)
	}
	line.AddSeries("Forecast", padded(n, cd.Volumes), peakAreas(cd.Peaks)...)
	line.AddSeries("Lower bound", padded(n, cd.Lower), charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))
	line.AddSeries("Upper bound", padded(n, cd.Upper), charts.WithLineStyleOpts(opts.LineStyle{Type: "dashed"}))

	if err := line.Render(w); err != nil {
		return fmt.Errorf("failed to render chart: %w", err)
	}
	return nil
}

func padded(lead int, values []int) []opts.LineData {
	out := make([]opts.LineData, 0, lead+len(values))
	for i := 0; i < lead; i++ {
		out = append(out, opts.LineData{Value: empty})
	}
	for _, v := range values {
		out = append(out, opts.LineData{Value: v})
	}
	return out
}

func peakAreas(peaks []prediction.PeakMarker) []charts.SeriesOpts {
	if len(peaks) == 0 {
		return nil
	}
	items := make([]opts.MarkAreaNameCoordItem, 0, len(peaks))
	for _, p := range peaks {
		items = append(items, opts.MarkAreaNameCoordItem{
			Name:        p.Label,
			Coordinate0: []interface{}{p.Start},
			Coordinate1: []interface{}{p.End},
		})
	}
	return []charts.SeriesOpts{charts.WithMarkAreaNameCoordItemOpts(items...)}
}
