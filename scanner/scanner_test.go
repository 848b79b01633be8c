package scanner

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"soilscan/pipeline"
	"soilscan/types"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// stubRunner classifies by file name: names containing "bad" fail,
// names containing "dark" are Vertisol, everything else Ferrugineux
type stubRunner struct {
	calls atomic.Int32
}

func (s *stubRunner) Run(ctx context.Context, req pipeline.Request) (*types.PredictionResult, error) {
	s.calls.Add(1)
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	name := filepath.Base(req.ImagePath)
	switch {
	case strings.Contains(name, "bad"):
		return nil, types.NewAppError(types.ErrCodeImageDecode, "cannot decode image", nil)
	case strings.Contains(name, "dark"):
		return &types.PredictionResult{PredictedSoilType: types.SoilVertisol, Locality: req.Locality, Found: true}, nil
	default:
		return &types.PredictionResult{PredictedSoilType: types.SoilFerrugineux, Locality: req.Locality}, nil
	}
}

func surveyFolder(t *testing.T, names ...string) string {
	t.Helper()
	dir := t.TempDir()
	for _, name := range names {
		path := filepath.Join(dir, name)
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte("x"), 0o644))
	}
	return dir
}

func TestScanFolder(t *testing.T) {
	dir := surveyFolder(t, "a_dark.jpg", "b.png", "c_bad.jpg", "plot2/d_dark.JPG", "notes.txt", "e.heic")
	runner := &stubRunner{}
	var progress bytes.Buffer

	summary, err := ScanFolder(context.Background(), runner, ScanOptions{
		FolderPath: dir,
		Locality:   "Kara",
		Area:       "100",
		MaxWorkers: 2,
		Progress:   &progress,
	})
	require.NoError(t, err)

	assert.Equal(t, int32(5), runner.calls.Load())
	assert.Equal(t, 5, summary.Processed)
	assert.Equal(t, 1, summary.Errors)
	assert.Equal(t, 2, summary.Matched)
	assert.Equal(t, 2, summary.BySoil[types.SoilVertisol])
	assert.Equal(t, 2, summary.BySoil[types.SoilFerrugineux])

	require.Len(t, summary.Results, 5)
	var names []string
	for _, r := range summary.Results {
		names = append(names, filepath.Base(r.Path))
	}
	assert.Equal(t, []string{"a_dark.jpg", "b.png", "c_bad.jpg", "e.heic", "d_dark.JPG"}, names)
	assert.False(t, summary.Results[2].Success())
	assert.Equal(t, "Kara", summary.Results[0].Prediction.Locality)

	assert.Contains(t, progress.String(), "Total image files to process: 5 (including 1 HEIC/RAW files)")
	assert.Contains(t, progress.String(), "Survey complete.")
}

func TestScanFolderMissing(t *testing.T) {
	_, err := ScanFolder(context.Background(), &stubRunner{}, ScanOptions{
		FolderPath: filepath.Join(t.TempDir(), "nope"),
	})
	require.Error(t, err)
}

func TestScanFolderCancelled(t *testing.T) {
	dir := surveyFolder(t, "a.jpg", "b.jpg", "c.jpg")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	summary, err := ScanFolder(ctx, &stubRunner{}, ScanOptions{FolderPath: dir, MaxWorkers: 1})
	assert.True(t, errors.Is(err, context.Canceled))
	require.NotNil(t, summary)
	assert.Zero(t, summary.Processed-summary.Errors)
}

func TestScanFolderEmpty(t *testing.T) {
	summary, err := ScanFolder(context.Background(), &stubRunner{}, ScanOptions{FolderPath: t.TempDir()})
	require.NoError(t, err)
	assert.Zero(t, summary.Processed)
	assert.Empty(t, summary.Results)
}
