package metrics

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// Phase identifies the stage of a file load being measured.
type Phase string

const (
	// FetchPhase covers downloading a file from object storage.
	FetchPhase Phase = "FETCH"
	// ParsePhase covers decoding and normalizing a downloaded file.
	ParsePhase Phase = "PARSE"
)

// LoadReport stores the metrics for one complete dataset load.
type LoadReport struct {
	SessionID string                 `json:"sessionId"`
	Bucket    string                 `json:"bucket"`
	Prefix    string                 `json:"prefix"`
	StartTime time.Time              `json:"startTime"`
	EndTime   time.Time              `json:"endTime"`
	Duration  time.Duration          `json:"duration"`
	Files     []*FileMetric          `json:"files"`
	Summary   map[string]interface{} `json:"summary"`
}

// FileMetric represents the metrics for a single load phase of a single file.
type FileMetric struct {
	Key          string        `json:"key"`
	Phase        Phase         `json:"phase"`
	StartTime    time.Time     `json:"startTime"`
	EndTime      time.Time     `json:"endTime"`
	Duration     time.Duration `json:"duration"`
	ByteCount    int64         `json:"byteCount"`
	RecordCount  int64         `json:"recordCount"`
	Error        error         `json:"-"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// Collector collects per-file load metrics for a reload in flight. It is safe
// for use from the concurrent file loaders.
type Collector struct {
	mu      sync.Mutex
	current *LoadReport
}

// NewCollector creates a new load metrics collector.
func NewCollector() *Collector {
	return &Collector{}
}

// StartLoad begins a new load report, discarding any unfinished one.
func (c *Collector) StartLoad(sessionID, bucket, prefix string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.current = &LoadReport{
		SessionID: sessionID,
		Bucket:    bucket,
		Prefix:    prefix,
		StartTime: time.Now(),
		Files:     make([]*FileMetric, 0),
		Summary:   make(map[string]interface{}),
	}
}

// MeasurePhase times one phase of one file's load. The operation reports how
// many bytes and records it handled; both are recorded alongside the timing
// and the operation's error, which is returned unchanged.
func (c *Collector) MeasurePhase(phase Phase, key string, operation func() (bytes, records int64, err error)) error {
	if operation == nil {
		return fmt.Errorf("operation function cannot be nil")
	}

	metric := &FileMetric{
		Key:       key,
		Phase:     phase,
		StartTime: time.Now(),
	}

	bytes, records, err := operation()
	metric.EndTime = time.Now()
	metric.Duration = metric.EndTime.Sub(metric.StartTime)
	metric.ByteCount = bytes
	metric.RecordCount = records

	if err != nil {
		metric.Error = err
		metric.ErrorMessage = err.Error()
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.current != nil {
		c.current.Files = append(c.current.Files, metric)
	}

	return err
}

// EndLoad completes the current load, calculates summary metrics, and returns
// the report. It returns nil when no load is in progress.
func (c *Collector) EndLoad() *LoadReport {
	c.mu.Lock()
	defer c.mu.Unlock()

	report := c.current
	if report == nil {
		return nil
	}
	c.current = nil

	report.EndTime = time.Now()
	report.Duration = report.EndTime.Sub(report.StartTime)

	var totalDuration time.Duration
	var totalBytes, totalRecords int64
	var successCount, errorCount int64

	for _, file := range report.Files {
		totalDuration += file.Duration
		totalBytes += file.ByteCount
		totalRecords += file.RecordCount

		if file.Error != nil {
			errorCount++
		} else {
			successCount++
		}
	}

	phaseCount := int64(len(report.Files))
	if phaseCount == 0 {
		return report
	}

	report.Summary["phaseCount"] = phaseCount
	report.Summary["totalDuration"] = totalDuration.Nanoseconds()
	report.Summary["avgDuration"] = totalDuration.Nanoseconds() / phaseCount
	report.Summary["totalBytes"] = totalBytes
	report.Summary["totalRecords"] = totalRecords
	report.Summary["successCount"] = successCount
	report.Summary["errorCount"] = errorCount
	report.Summary["successRate"] = float64(successCount) / float64(phaseCount)
	if seconds := report.Duration.Seconds(); seconds > 0 {
		report.Summary["throughputBytes"] = float64(totalBytes) / seconds
		report.Summary["throughputRecords"] = float64(totalRecords) / seconds
	}

	if phaseCount >= 10 {
		durations := make([]int64, 0, phaseCount)
		for _, file := range report.Files {
			durations = append(durations, file.Duration.Nanoseconds())
		}
		sort.Slice(durations, func(i, j int) bool { return durations[i] < durations[j] })

		report.Summary["p50"] = durations[phaseCount*50/100]
		report.Summary["p90"] = durations[phaseCount*90/100]
		report.Summary["p99"] = durations[phaseCount*99/100]
	}

	return report
}
