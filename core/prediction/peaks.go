package prediction

import (
	"slices"

	"github.com/kilianp07/queuecast/core/model"
)

// DetectPeaks finds runs of slots at or above a threshold derived from the
// series: 0.8*max when max <= 5, 1.5*mean when max > 3*mean, 1.3*mean
// otherwise. When no run qualifies but the maximum exceeds 1.2*mean, that
// single slot is reported.
func DetectPeaks(volumes []int, labels []string) []model.PeakWindow {
	peaks := []model.PeakWindow{}
	if len(volumes) < 2 || len(labels) < len(volumes) {
		return peaks
	}

	top := slices.Max(volumes)
	mean := meanInt(volumes)
	var threshold float64
	switch {
	case top <= 5:
		threshold = 0.8 * float64(top)
	case float64(top) > 3*mean:
		threshold = 1.5 * mean
	default:
		threshold = 1.3 * mean
	}

	start := -1
	for i, v := range volumes {
		above := float64(v) >= threshold
		switch {
		case above && start < 0:
			start = i
		case !above && start >= 0:
			peaks = append(peaks, window(volumes, labels, start, i))
			start = -1
		}
	}
	if start >= 0 {
		peaks = append(peaks, window(volumes, labels, start, len(volumes)))
	}

	if len(peaks) == 0 && float64(top) > 1.2*mean {
		i := slices.Index(volumes, top)
		peaks = append(peaks, model.PeakWindow{
			Start:      labels[i],
			End:        labels[i],
			SpanCount:  1,
			PeakVolume: top,
			AvgVolume:  float64(top),
		})
	}
	return peaks
}

// window describes volumes[from:to].
func window(volumes []int, labels []string, from, to int) model.PeakWindow {
	run := volumes[from:to]
	return model.PeakWindow{
		Start:      labels[from],
		End:        labels[to-1],
		SpanCount:  to - from,
		PeakVolume: slices.Max(run),
		AvgVolume:  meanInt(run),
	}
}

func meanInt(v []int) float64 {
	if len(v) == 0 {
		return 0
	}
	var sum int
	for _, x := range v {
		sum += x
	}
	return float64(sum) / float64(len(v))
}
