package prediction

import (
	"fmt"
	"slices"

	"github.com/kilianp07/queuecast/core/model"
)

// Insights are operator-facing suggestions derived from a forecast.
type Insights struct {
	Staffing    []string `json:"staffing_recommendations"`
	Inventory   []string `json:"inventory_suggestions"`
	Operational []string `json:"operational_tips"`
	Revenue     []string `json:"revenue_opportunities"`
}

// BusinessInsights turns peak windows and totals into suggestions.
func BusinessInsights(fc model.TrafficForecast) Insights {
	in := Insights{
		Staffing:    []string{},
		Inventory:   []string{},
		Operational: []string{},
		Revenue:     []string{},
	}
	for _, w := range fc.PeakWindows {
		in.Staffing = append(in.Staffing,
			fmt.Sprintf("add staff between %s and %s, peak volume %d", w.Start, w.End, w.PeakVolume))
		in.Inventory = append(in.Inventory,
			fmt.Sprintf("stock up ahead of the %s peak", w.Start))
	}
	if len(fc.Volumes) == 0 {
		return in
	}

	if float64(slices.Max(fc.Volumes)) > 2*meanInt(fc.Volumes) {
		in.Operational = append(in.Operational, "pronounced peak ahead: consider off-peak offers")
	}
	if len(fc.PeakWindows) > 3 {
		in.Operational = append(in.Operational, "several peak windows: streamline service to keep up")
	}
	var total int
	for _, v := range fc.Volumes {
		total += v
	}
	in.Revenue = append(in.Revenue,
		fmt.Sprintf("about %d arrivals expected over the horizon", total))
	return in
}

// PeakMarker labels a peak window on a chart.
type PeakMarker struct {
	Start string `json:"start"`
	End   string `json:"end"`
	Label string `json:"label"`
}

// ChartStats summarises the forecast volumes.
type ChartStats struct {
	Max        int     `json:"max"`
	Min        int     `json:"min"`
	Avg        float64 `json:"avg"`
	TotalPeaks int     `json:"total_peaks"`
}

// ChartData is a rendering-neutral view of a forecast.
type ChartData struct {
	Title   string       `json:"title"`
	Labels  []string     `json:"labels"`
	Volumes []int        `json:"volumes"`
	Lower   []int        `json:"lower"`
	Upper   []int        `json:"upper"`
	Peaks   []PeakMarker `json:"peak_markers"`
	Stats   ChartStats   `json:"statistics"`
}

// NewChartData builds chart series from a forecast.
func NewChartData(fc model.TrafficForecast) ChartData {
	cd := ChartData{
		Title:   "Arrival forecast",
		Labels:  append([]string(nil), fc.TimeLabels...),
		Volumes: append([]int(nil), fc.Volumes...),
		Lower:   make([]int, len(fc.Intervals)),
		Upper:   make([]int, len(fc.Intervals)),
		Peaks:   make([]PeakMarker, 0, len(fc.PeakWindows)),
	}
	for i, iv := range fc.Intervals {
		cd.Lower[i] = iv.Lo
		cd.Upper[i] = iv.Hi
	}
	for _, w := range fc.PeakWindows {
		cd.Peaks = append(cd.Peaks, PeakMarker{
			Start: w.Start,
			End:   w.End,
			Label: fmt.Sprintf("peak %d", w.PeakVolume),
		})
	}
	cd.Stats.TotalPeaks = len(fc.PeakWindows)
	if len(fc.Volumes) > 0 {
		cd.Stats.Max = slices.Max(fc.Volumes)
		cd.Stats.Min = slices.Min(fc.Volumes)
		cd.Stats.Avg = meanInt(fc.Volumes)
	}
	return cd
}
