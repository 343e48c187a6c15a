// Package export renders predictions for people and spreadsheets: JSON, CSV
// and a self-contained HTML chart.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"github.com/kilianp07/queuecast/core/model"
)

// WriteJSON writes v to w as indented JSON.
func WriteJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// WriteForecastCSV writes one row per forecast slot. The peak column holds
// the index of the peak window the slot belongs to, or is empty.
func WriteForecastCSV(w io.Writer, fc model.TrafficForecast) error {
	if len(fc.Intervals) != len(fc.Volumes) || len(fc.TimeLabels) != len(fc.Volumes) {
		return fmt.Errorf("forecast series lengths differ: %d labels, %d volumes, %d intervals",
			len(fc.TimeLabels), len(fc.Volumes), len(fc.Intervals))
	}
	peakOf := peakIndex(fc)
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"time", "volume", "lower", "upper", "peak"}); err != nil {
		return err
	}
	for i, v := range fc.Volumes {
		peak := ""
		if p, ok := peakOf[i]; ok {
			peak = strconv.Itoa(p)
		}
		rec := []string{
			fc.TimeLabels[i],
			strconv.Itoa(v),
			strconv.Itoa(fc.Intervals[i].Lo),
			strconv.Itoa(fc.Intervals[i].Hi),
			peak,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// WriteWaitCSV writes wait estimates, one per row.
func WriteWaitCSV(w io.Writer, estimates []model.WaitEstimate) error {
	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"position", "expected_minutes", "lo", "hi", "confidence", "basis", "advisory"}); err != nil {
		return err
	}
	for _, e := range estimates {
		rec := []string{
			strconv.Itoa(e.Position),
			strconv.FormatFloat(e.ExpectedMinutes, 'f', 2, 64),
			strconv.FormatFloat(e.Range.Lo, 'f', 2, 64),
			strconv.FormatFloat(e.Range.Hi, 'f', 2, 64),
			strconv.FormatFloat(e.Confidence, 'f', 3, 64),
			string(e.Basis),
			e.Advisory,
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// peakIndex maps slot index to the 1-based peak window covering it.
func peakIndex(fc model.TrafficForecast) map[int]int {
	pos := make(map[string]int, len(fc.TimeLabels))
	for i, l := range fc.TimeLabels {
		if _, seen := pos[l]; !seen {
			pos[l] = i
		}
	}
	out := make(map[int]int)
	for n, w := range fc.PeakWindows {
		start, ok1 := pos[w.Start]
		end, ok2 := pos[w.End]
		if !ok1 || !ok2 {
			continue
		}
		for i := start; i <= end; i++ {
			out[i] = n + 1
		}
	}
	return out
}
