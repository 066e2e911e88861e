package metrics

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"
)

// ExportedMetrics holds the values read back from the /metrics endpoint.
// Scraping our own exporter verifies the full export path end to end:
// if these numbers are wrong, so is what Prometheus sees.
type ExportedMetrics struct {
	TargetRunners float64
	ActiveRunners float64

	OpsTotal             float64
	SignalsFannedOut     float64
	SignalsDropped       float64
	RunnerStarts         float64
	RunnerExitsByOutcome map[string]float64

	UptimeP50 float64
	UptimeP95 float64
	UptimeP99 float64

	LastScrape time.Time
}

// SelfScraper reads back the local /metrics endpoint.
type SelfScraper struct {
	url        string
	logger     *slog.Logger
	httpClient *http.Client
}

// NewSelfScraper creates a scraper for the given metrics address
// (host:port, as passed to NewServer).
func NewSelfScraper(addr string, logger *slog.Logger) *SelfScraper {
	return &SelfScraper{
		url:    fmt.Sprintf("http://%s/metrics", addr),
		logger: logger,
		httpClient: &http.Client{
			Timeout: 5 * time.Second,
		},
	}
}

// Scrape fetches and parses the exporter output.
func (s *SelfScraper) Scrape() (*ExportedMetrics, error) {
	resp, err := s.httpClient.Get(s.url)
	if err != nil {
		return nil, fmt.Errorf("http request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("http status %d", resp.StatusCode)
	}

	families, err := parseFamilies(resp.Body)
	if err != nil {
		return nil, err
	}

	return extractExported(families), nil
}

// parseFamilies decodes Prometheus text format into metric families.
func parseFamilies(r io.Reader) (map[string]*dto.MetricFamily, error) {
	decoder := expfmt.NewDecoder(r, expfmt.FmtText)
	families := make(map[string]*dto.MetricFamily)

	for {
		var mf dto.MetricFamily
		if err := decoder.Decode(&mf); err != nil {
			if err == io.EOF {
				break
			}
			return nil, fmt.Errorf("decode error: %w", err)
		}
		families[mf.GetName()] = &mf
	}

	return families, nil
}

// extractExported pulls the swarm metric values out of parsed families.
func extractExported(families map[string]*dto.MetricFamily) *ExportedMetrics {
	m := &ExportedMetrics{
		RunnerExitsByOutcome: make(map[string]float64),
		LastScrape:           time.Now(),
	}

	m.TargetRunners = gaugeValue(families, "runner_swarm_target_runners")
	m.ActiveRunners = gaugeValue(families, "runner_swarm_active_runners")

	m.OpsTotal = counterValue(families, "runner_swarm_ops_total")
	m.SignalsFannedOut = counterValue(families, "runner_swarm_signals_fanned_out_total")
	m.SignalsDropped = counterValue(families, "runner_swarm_signals_dropped_total")
	m.RunnerStarts = counterValue(families, "runner_swarm_runner_starts_total")

	m.UptimeP50 = gaugeValue(families, "runner_swarm_uptime_p50_seconds")
	m.UptimeP95 = gaugeValue(families, "runner_swarm_uptime_p95_seconds")
	m.UptimeP99 = gaugeValue(families, "runner_swarm_uptime_p99_seconds")

	if mf, ok := families["runner_swarm_runner_exits_total"]; ok {
		for _, metric := range mf.GetMetric() {
			for _, label := range metric.GetLabel() {
				if label.GetName() == "outcome" {
					m.RunnerExitsByOutcome[label.GetValue()] = metric.GetCounter().GetValue()
				}
			}
		}
	}

	return m
}

// gaugeValue returns the first gauge value for a family, or 0.
func gaugeValue(families map[string]*dto.MetricFamily, name string) float64 {
	mf, ok := families[name]
	if !ok || len(mf.GetMetric()) == 0 {
		return 0
	}
	return mf.GetMetric()[0].GetGauge().GetValue()
}

// counterValue returns the first counter value for a family, or 0.
func counterValue(families map[string]*dto.MetricFamily, name string) float64 {
	mf, ok := families[name]
	if !ok || len(mf.GetMetric()) == 0 {
		return 0
	}
	return mf.GetMetric()[0].GetCounter().GetValue()
}
