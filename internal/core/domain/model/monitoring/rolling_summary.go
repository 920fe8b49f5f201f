package monitoring

// RollingSummary is an incrementally maintained aggregate over every metrics
// snapshot observed so far. Averages are streaming arithmetic means and peaks
// are running maxima, so folding in a new snapshot never requires re-reading
// history.
type RollingSummary struct {
	TotalSamples int            `json:"totalSamples"`
	Averages     SummaryValues  `json:"averages"`
	Peaks        SummaryValues  `json:"peaks"`
	AlertCounts  map[string]int `json:"alertCounts,omitempty"`
}

// SummaryValues carries the tracked per-metric figures.
type SummaryValues struct {
	MemoryMB             float64 `json:"memoryMb"`
	CPUPercent           float64 `json:"cpuPercent"`
	AvgQueryMs           float64 `json:"avgQueryMs"`
	PendingNotifications float64 `json:"pendingNotifications"`
}

// Observe folds one snapshot into the summary.
//
// The streaming mean update avg += (x - avg) / n keeps Averages equal to the
// arithmetic mean of all observed values without retaining them.
func (s *RollingSummary) Observe(m MetricsSnapshot) {
	s.TotalSamples++
	n := float64(s.TotalSamples)

	s.Averages.MemoryMB += (m.System.MemoryMB - s.Averages.MemoryMB) / n
	s.Averages.CPUPercent += (m.System.CPUPercent - s.Averages.CPUPercent) / n
	s.Averages.AvgQueryMs += (m.Application.AvgQueryMs - s.Averages.AvgQueryMs) / n
	s.Averages.PendingNotifications += (float64(m.Application.PendingNotifications) - s.Averages.PendingNotifications) / n

	s.Peaks.MemoryMB = max(s.Peaks.MemoryMB, m.System.MemoryMB)
	s.Peaks.CPUPercent = max(s.Peaks.CPUPercent, m.System.CPUPercent)
	s.Peaks.AvgQueryMs = max(s.Peaks.AvgQueryMs, m.Application.AvgQueryMs)
	s.Peaks.PendingNotifications = max(s.Peaks.PendingNotifications, float64(m.Application.PendingNotifications))

	if len(m.Alerts) > 0 {
		if s.AlertCounts == nil {
			s.AlertCounts = make(map[string]int)
		}
		for _, alert := range m.Alerts {
			s.AlertCounts[alert.Level]++
		}
	}
}
