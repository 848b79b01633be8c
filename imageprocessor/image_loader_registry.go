package imageprocessor

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"sync"

	"gocv.io/x/gocv"

	"soilscan/logging"
)

// ImageLoaderRegistry maintains a registry of image loaders
type ImageLoaderRegistry struct {
	loaders       map[string]ImageLoader
	defaultLoader ImageLoader
	closers       []io.Closer
	mutex         sync.RWMutex
}

// NewImageLoaderRegistry creates a new image loader registry
func NewImageLoaderRegistry() *ImageLoaderRegistry {
	registry := &ImageLoaderRegistry{
		loaders: make(map[string]ImageLoader),
	}

	registry.registerStandardLoaders()
	registry.registerPreviewLoaders()

	return registry
}

// registerStandardLoaders registers the OpenCV loader for common formats
func (r *ImageLoaderRegistry) registerStandardLoaders() {
	standardLoader := NewStandardImageLoader()
	for _, ext := range extensionsFor(standardLoader.SupportedFormats...) {
		r.RegisterLoader(ext, standardLoader)
	}

	r.defaultLoader = standardLoader
}

// registerPreviewLoaders registers the exiftool loader for HEIC and RAW files
// when the exiftool binary is installed
func (r *ImageLoaderRegistry) registerPreviewLoaders() {
	if !checkExiftoolCommandAvailable() {
		logging.DebugLog("exiftool not found, HEIC and RAW photos are not supported")
		return
	}

	previewLoader, err := NewPreviewImageLoader()
	if err != nil {
		logging.LogWarning("Preview loader unavailable: %v", err)
		return
	}

	for _, ext := range extensionsFor(previewLoader.SupportedFormats...) {
		r.RegisterLoader(ext, previewLoader)
	}
	r.closers = append(r.closers, previewLoader)
	logging.DebugLog("Registered exiftool preview loader")
}

// RegisterLoader registers a new loader for a specific file extension
func (r *ImageLoaderRegistry) RegisterLoader(ext string, loader ImageLoader) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ext = strings.ToLower(ext)
	r.loaders[ext] = loader
}

// GetLoader returns the appropriate loader for the given path
func (r *ImageLoaderRegistry) GetLoader(path string) ImageLoader {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	if loader, ok := r.loaders[ext]; ok {
		return loader
	}

	return r.defaultLoader
}

// CanLoadFile checks if any registered loader can handle the given file
func (r *ImageLoaderRegistry) CanLoadFile(path string) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	ext := strings.ToLower(filepath.Ext(path))
	_, ok := r.loaders[ext]
	return ok
}

// LoadImage loads an image using the appropriate registered loader
func (r *ImageLoaderRegistry) LoadImage(path string) (gocv.Mat, error) {
	loader := r.GetLoader(path)
	if loader == nil {
		return gocv.NewMat(), fmt.Errorf("no suitable loader found for: %s", path)
	}

	return loader.LoadImage(path)
}

// Close releases loaders that hold external processes
func (r *ImageLoaderRegistry) Close() error {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	var firstErr error
	for _, c := range r.closers {
		if err := c.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	r.closers = nil
	return firstErr
}
