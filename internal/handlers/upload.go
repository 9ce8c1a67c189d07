package handlers

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"strings"
)

type appError struct {
	Status  int
	Code    string
	Message string
	Details any
}

type importUpload struct {
	Filename string
	Data     []byte
	SHA256   string
}

var supportedUploadExtensions = map[string]struct{}{
	".xlsx": {},
	".csv":  {},
}

// parseImportUpload reads the multipart "file" field. Only the extension is
// checked here; the decoder sniffs the actual content.
func parseImportUpload(r *http.Request, maxBytes int64) (importUpload, *appError) {
	if !strings.HasPrefix(strings.ToLower(r.Header.Get("Content-Type")), "multipart/form-data") {
		return importUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_content_type",
			Message: "Content-Type must be multipart/form-data",
		}
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return importUpload{}, uploadTooLarge(maxBytes)
		}
		return importUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_multipart",
			Message: "Failed to parse multipart form",
		}
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		return importUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "missing_file",
			Message: "file is required",
		}
	}
	defer file.Close()

	ext := strings.ToLower(filepath.Ext(header.Filename))
	if _, ok := supportedUploadExtensions[ext]; !ok {
		return importUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_file_type",
			Message: "Only .xlsx and .csv uploads are supported",
			Details: map[string]any{"filename": header.Filename},
		}
	}
	if maxBytes > 0 && header.Size > maxBytes {
		return importUpload{}, uploadTooLarge(maxBytes)
	}

	reader := io.Reader(file)
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return importUpload{}, &appError{
			Status:  http.StatusBadRequest,
			Code:    "invalid_file",
			Message: "Failed to read uploaded file",
		}
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		return importUpload{}, uploadTooLarge(maxBytes)
	}

	digest := sha256.Sum256(data)
	return importUpload{
		Filename: header.Filename,
		Data:     data,
		SHA256:   hex.EncodeToString(digest[:]),
	}, nil
}

func uploadTooLarge(maxBytes int64) *appError {
	return &appError{
		Status:  http.StatusRequestEntityTooLarge,
		Code:    "payload_too_large",
		Message: "Uploaded file is too large",
		Details: map[string]any{"maxBytes": maxBytes},
	}
}
