package scanner

import (
	"io"
	"sync"
	"time"

	"soilscan/types"
)

// ScanOptions defines the options for a survey scan
type ScanOptions struct {
	FolderPath string
	Locality   string
	Area       string
	MaxWorkers int       // Optional worker limit, defaults to the optimal proc count
	Progress   io.Writer // Optional progress output, nil disables it
}

// SampleResult holds the result of classifying one image
type SampleResult struct {
	Path       string                  `json:"path"`
	Prediction *types.PredictionResult `json:"prediction,omitempty"`
	Err        error                   `json:"-"`
	Error      string                  `json:"error,omitempty"`
}

// Success reports whether the image was classified
func (r SampleResult) Success() bool {
	return r.Err == nil
}

// FileStats tracks information about files to be processed
type FileStats struct {
	paths        []string
	totalFiles   int
	previewFiles int
}

// Summary aggregates a finished scan
type Summary struct {
	Processed int                    `json:"processed"`
	Errors    int                    `json:"errors"`
	Matched   int                    `json:"matched"`
	BySoil    map[types.SoilType]int `json:"by_soil"`
	Elapsed   time.Duration          `json:"elapsed"`
	Results   []SampleResult         `json:"-"`
}

// ProgressTracker tracks progress of the scan operation
type ProgressTracker struct {
	processed        int
	errors           int
	matched          int
	previewProcessed int
	bySoil           map[types.SoilType]int
	totalFiles       int
	previewFiles     int

	out     io.Writer
	ticker  *time.Ticker
	done    chan struct{}
	drained chan struct{}
	mu      sync.Mutex
}
