package model

// ForecastMode reports which predictor state produced a traffic forecast.
type ForecastMode string

const (
	ModeColdStart ForecastMode = "cold_start"
	ModeWarmed    ForecastMode = "warmed"
)

// VolumeInterval is the confidence band of one forecast slot.
type VolumeInterval struct {
	Lo int `json:"lo"`
	Hi int `json:"hi"`
}

// PeakWindow is a contiguous run of slots at or above the peak threshold.
type PeakWindow struct {
	Start      string  `json:"start"`
	End        string  `json:"end"`
	SpanCount  int     `json:"span_count"`
	PeakVolume int     `json:"peak_volume"`
	AvgVolume  float64 `json:"avg_volume"`
}

// TrafficForecast is the arrival volume outlook over the requested horizon.
// TimeLabels, Volumes and Intervals always have the same length.
type TrafficForecast struct {
	TimeLabels   []string         `json:"time_labels"`
	Volumes      []int            `json:"volumes"`
	Intervals    []VolumeInterval `json:"intervals"`
	PeakWindows  []PeakWindow     `json:"peak_windows"`
	HorizonHours float64          `json:"horizon_hours"`
	Mode         ForecastMode     `json:"mode"`
}

// HistoricalData aggregates past observations supplied by a storage
// collaborator to seed predictor history.
type HistoricalData struct {
	RecentCounts  []int     `json:"recent_counts"`
	AverageCount  float64   `json:"average_count"`
	CountVariance float64   `json:"count_variance"`
	HourlyVolumes []float64 `json:"hourly_volumes"`
}

// Empty reports whether the aggregate carries no usable observation.
func (h HistoricalData) Empty() bool {
	return len(h.RecentCounts) == 0 && h.AverageCount <= 0 && len(h.HourlyVolumes) == 0
}
