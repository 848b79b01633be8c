package scanner

import (
	"fmt"
	"io"
	"time"

	"soilscan/imageprocessor"
	"soilscan/logging"
	"soilscan/types"
)

// NewProgressTracker starts consuming results and, when out is set, printing progress
func NewProgressTracker(stats FileStats, out io.Writer, resultsChan <-chan SampleResult) *ProgressTracker {
	tracker := &ProgressTracker{
		bySoil:       make(map[types.SoilType]int),
		totalFiles:   stats.totalFiles,
		previewFiles: stats.previewFiles,
		out:          out,
		ticker:       time.NewTicker(500 * time.Millisecond),
		done:         make(chan struct{}),
		drained:      make(chan struct{}),
	}

	go tracker.displayProgress()
	go tracker.processResults(resultsChan)

	return tracker
}

// displayProgress shows the progress periodically
func (p *ProgressTracker) displayProgress() {
	for {
		select {
		case <-p.done:
			return
		case <-p.ticker.C:
			if p.out == nil {
				continue
			}
			p.mu.Lock()
			if p.errors > 0 {
				fmt.Fprintf(p.out, "\rProgress: %d/%d (Errors: %d, Matched: %d)", p.processed, p.totalFiles, p.errors, p.matched)
			} else {
				fmt.Fprintf(p.out, "\rProgress: %d/%d (Matched: %d)", p.processed, p.totalFiles, p.matched)
			}
			p.mu.Unlock()
		}
	}
}

// processResults updates the tracker state based on processing results
func (p *ProgressTracker) processResults(resultsChan <-chan SampleResult) {
	defer close(p.drained)

	for result := range resultsChan {
		p.mu.Lock()
		p.processed++
		if imageprocessor.IsPreviewFormat(result.Path) {
			p.previewProcessed++
		}

		if !result.Success() {
			p.errors++
			logging.LogPrediction(result.Path, "", false, result.Err.Error())
		} else {
			soil := result.Prediction.PredictedSoilType
			p.bySoil[soil]++
			if result.Prediction.Found {
				p.matched++
			}
			logging.LogPrediction(result.Path, string(soil), true, "")
		}
		p.mu.Unlock()
	}
}

// Stop waits for the results channel to be drained, then ends the display.
// The results channel must be closed before calling Stop.
func (p *ProgressTracker) Stop() {
	<-p.drained
	p.ticker.Stop()
	close(p.done)
}

// snapshot copies the counters into a summary
func (p *ProgressTracker) snapshot(elapsed time.Duration) *Summary {
	p.mu.Lock()
	defer p.mu.Unlock()

	bySoil := make(map[types.SoilType]int, len(p.bySoil))
	for k, v := range p.bySoil {
		bySoil[k] = v
	}
	return &Summary{
		Processed: p.processed,
		Errors:    p.errors,
		Matched:   p.matched,
		BySoil:    bySoil,
		Elapsed:   elapsed,
	}
}

// PrintStartupInfo displays information about the scan before starting
func PrintStartupInfo(out io.Writer, stats FileStats, options ScanOptions) {
	if out == nil {
		return
	}
	fmt.Fprintf(out, "Starting soil survey...\nTotal image files to process: %d (including %d HEIC/RAW files)\n",
		stats.totalFiles, stats.previewFiles)
	fmt.Fprintf(out, "Locality: %s, area: %s m2\n", options.Locality, options.Area)
	logging.DebugLog("Found %d image files to process (%d HEIC/RAW files)", stats.totalFiles, stats.previewFiles)
}

// PrintCompletionStats displays statistics after scan completion
func PrintCompletionStats(out io.Writer, summary *Summary) {
	logging.DebugLog("Survey completed in %v. Processed: %d, Errors: %d, Matched: %d",
		summary.Elapsed, summary.Processed, summary.Errors, summary.Matched)

	if out == nil {
		return
	}
	fmt.Fprintln(out, "\nSurvey complete.")
	fmt.Fprintf(out, "Processed %d images in %v.\n", summary.Processed, summary.Elapsed.Round(time.Millisecond))
	for _, soil := range types.AllSoilTypes() {
		if n := summary.BySoil[soil]; n > 0 {
			fmt.Fprintf(out, "  %-14s %d\n", soil, n)
		}
	}
	if summary.Errors > 0 {
		fmt.Fprintf(out, "Encountered %d errors during the survey.\n", summary.Errors)
		fmt.Fprintln(out, "Check the log file for details.")
	}
}
