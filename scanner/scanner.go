// Package scanner classifies every soil photo of a survey folder.
package scanner

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"soilscan/pipeline"
	"soilscan/signalhandler"
	"soilscan/types"
)

// Runner runs the prediction pipeline for one image
type Runner interface {
	Run(ctx context.Context, req pipeline.Request) (*types.PredictionResult, error)
}

// ScanFolder runs the pipeline on every image under options.FolderPath.
// A failing image is counted and reported in its SampleResult; it never
// stops the scan. Results are returned in path order.
func ScanFolder(ctx context.Context, runner Runner, options ScanOptions) (*Summary, error) {
	stats, err := countFilesToProcess(options.FolderPath)
	if err != nil {
		return nil, fmt.Errorf("cannot scan folder %s: %w", options.FolderPath, err)
	}

	PrintStartupInfo(options.Progress, stats, options)

	workers := options.MaxWorkers
	if workers < 1 {
		workers = signalhandler.GetOptimalProcs()
	}

	resultsChan := make(chan SampleResult, workers)
	tracker := NewProgressTracker(stats, options.Progress, resultsChan)

	startTime := time.Now()
	results := make([]SampleResult, len(stats.paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, path := range stats.paths {
		if gctx.Err() != nil {
			break
		}
		i, path := i, path
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}

			result := classifySample(gctx, runner, path, options)
			results[i] = result
			resultsChan <- result
			return nil
		})
	}

	waitErr := g.Wait()
	close(resultsChan)
	tracker.Stop()

	summary := tracker.snapshot(time.Since(startTime))
	summary.Results = compact(results)
	PrintCompletionStats(options.Progress, summary)

	if waitErr != nil {
		return summary, waitErr
	}
	return summary, ctx.Err()
}

func classifySample(ctx context.Context, runner Runner, path string, options ScanOptions) SampleResult {
	prediction, err := runner.Run(ctx, pipeline.Request{
		ImagePath: path,
		Locality:  options.Locality,
		Area:      options.Area,
	})
	if err != nil {
		return SampleResult{Path: path, Err: err, Error: err.Error()}
	}
	return SampleResult{Path: path, Prediction: prediction}
}

// compact drops the slots of images that were never processed
func compact(results []SampleResult) []SampleResult {
	out := make([]SampleResult, 0, len(results))
	for _, r := range results {
		if r.Path != "" {
			out = append(out, r)
		}
	}
	return out
}
