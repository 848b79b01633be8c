package server

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"soilscan/logging"
	"soilscan/pipeline"
	"soilscan/types"
	"soilscan/utils"
)

// multipartMemory is how much of a form is kept in memory before spilling to disk
const multipartMemory = 8 << 20

type predictForm struct {
	City string `validate:"required"`
	Area string
}

type healthResponse struct {
	Status      string `json:"status"`
	TableLoaded bool   `json:"table_loaded"`
	Records     int    `json:"records"`
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = io.WriteString(w, "soilscan: POST a soil photo to /predict (fields soil_image, city, area)\n")
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := healthResponse{Status: "ok"}
	if table, err := s.source.Table(); err == nil {
		resp.TableLoaded = true
		resp.Records = table.Len()
	} else {
		resp.Status = "degraded"
	}
	JSON(w, r, http.StatusOK, resp)
}

func (s *Server) handlePredict(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes)
	if err := r.ParseMultipartForm(multipartMemory); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			Error(w, r, types.NewAppError(types.ErrCodeUploadTooLarge,
				fmt.Sprintf("upload exceeds %d bytes", s.cfg.MaxUploadBytes), err))
			return
		}
		Error(w, r, types.NewAppError(types.ErrCodeMissingInput, "expected a multipart form with a soil_image file", err))
		return
	}
	defer r.MultipartForm.RemoveAll()

	file, header, err := r.FormFile("soil_image")
	if err != nil {
		Error(w, r, types.NewAppError(types.ErrCodeMissingInput, "no image received", err))
		return
	}
	defer file.Close()
	if header.Filename == "" {
		Error(w, r, types.NewAppError(types.ErrCodeMissingInput, "no file selected", nil))
		return
	}

	form := predictForm{
		City: strings.TrimSpace(r.FormValue("city")),
		Area: r.FormValue("area"),
	}
	if err := s.validate.Struct(form); err != nil {
		Error(w, r, types.NewAppError(types.ErrCodeMissingInput, "city is required", err))
		return
	}

	path, err := s.saveUpload(file, header)
	if err != nil {
		s.logger.Error("failed to store upload", zap.Error(err))
		Error(w, r, err)
		return
	}
	if !s.cfg.KeepUploads {
		defer func() {
			if err := utils.RemoveFile(path); err != nil {
				logging.LogWarning("Failed to remove upload %s: %v", path, err)
			}
		}()
	}

	select {
	case s.slots <- struct{}{}:
		defer func() { <-s.slots }()
	case <-r.Context().Done():
		Error(w, r, types.NewAppError(types.ErrCodeRequestTimeout, "server busy, request timed out", r.Context().Err()))
		return
	}

	result, err := s.predictor.Run(r.Context(), pipeline.Request{
		ImagePath: path,
		Locality:  form.City,
		Area:      form.Area,
	})
	if err != nil {
		logging.LogPrediction(header.Filename, "", false, err.Error())
		if ctxErr := r.Context().Err(); ctxErr != nil && errors.Is(err, ctxErr) {
			err = types.NewAppError(types.ErrCodeRequestTimeout, "request timed out", err)
		}
		Error(w, r, err)
		return
	}

	logging.LogPrediction(header.Filename, string(result.PredictedSoilType), true, "")
	JSON(w, r, http.StatusOK, result)
}

// saveUpload stores the uploaded image under the upload dir with a unique prefix
func (s *Server) saveUpload(file multipart.File, header *multipart.FileHeader) (string, error) {
	if err := os.MkdirAll(s.cfg.UploadDir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create upload dir: %w", err)
	}

	name := uuid.NewString() + "_" + filepath.Base(filepath.Clean("/"+header.Filename))
	path := filepath.Join(s.cfg.UploadDir, name)

	dst, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("cannot create upload file: %w", err)
	}
	if _, err := io.Copy(dst, file); err != nil {
		dst.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("cannot write upload file: %w", err)
	}
	if err := dst.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("cannot write upload file: %w", err)
	}
	return path, nil
}
