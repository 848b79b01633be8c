package imageprocessor

import (
	"encoding/base64"
	"fmt"
	"os/exec"
	"strings"
	"sync"

	"github.com/barasher/go-exiftool"
	"gocv.io/x/gocv"

	"soilscan/logging"
)

// previewTags are tried in order; the first one OpenCV can decode wins
var previewTags = []string{
	"JpgFromRaw",
	"LargestImagePreview",
	"PreviewImage",
	"OtherImage",
	"ThumbnailImage",
}

// PreviewImageLoader reads HEIC and camera RAW files through the JPEG
// preview that exiftool extracts from their metadata
type PreviewImageLoader struct {
	BaseImageLoader

	mu sync.Mutex
	et *exiftool.Exiftool
}

// NewPreviewImageLoader starts a long-lived exiftool process
func NewPreviewImageLoader() (*PreviewImageLoader, error) {
	et, err := exiftool.NewExiftool(exiftool.ExtractAllBinaryMetadata())
	if err != nil {
		return nil, fmt.Errorf("failed to initialize exiftool: %w", err)
	}

	return &PreviewImageLoader{
		BaseImageLoader: BaseImageLoader{
			SupportedFormats: []FormatType{
				FormatHEIC,
				FormatRAW,
				FormatCR2,
				FormatCR3,
				FormatNEF,
				FormatARW,
				FormatDNG,
			},
		},
		et: et,
	}, nil
}

// LoadImage decodes the largest embedded preview of the file
func (l *PreviewImageLoader) LoadImage(path string) (gocv.Mat, error) {
	l.mu.Lock()
	fileInfos := l.et.ExtractMetadata(path)
	l.mu.Unlock()

	if len(fileInfos) == 0 {
		return gocv.NewMat(), newImageLoadError("no metadata extracted", path)
	}
	fileInfo := fileInfos[0]
	if fileInfo.Err != nil {
		return gocv.NewMat(), fmt.Errorf("error extracting metadata from %s: %w", path, fileInfo.Err)
	}

	for _, tag := range previewTags {
		raw, err := fileInfo.GetString(tag)
		if err != nil {
			continue
		}

		data, err := decodeBinaryField(raw)
		if err != nil {
			logging.DebugLog("Skipping %s of %s: %v", tag, path, err)
			continue
		}

		img, err := gocv.IMDecode(data, gocv.IMReadColor)
		if err == nil && !img.Empty() {
			logging.DebugLog("Using %s preview of %s", tag, path)
			return img, nil
		}
		img.Close()
	}

	return gocv.NewMat(), newImageLoadError("no decodable preview image", path)
}

// Close stops the exiftool process
func (l *PreviewImageLoader) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.et.Close()
}

// decodeBinaryField unpacks a "base64:" value produced by ExtractAllBinaryMetadata
func decodeBinaryField(value string) ([]byte, error) {
	encoded, ok := strings.CutPrefix(value, "base64:")
	if !ok {
		return nil, fmt.Errorf("not a binary field")
	}
	return base64.StdEncoding.DecodeString(encoded)
}

// checkExiftoolCommandAvailable checks if exiftool command is available
func checkExiftoolCommandAvailable() bool {
	_, err := exec.LookPath("exiftool")
	return err == nil
}
