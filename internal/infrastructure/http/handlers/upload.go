package handlers

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strings"

	"github.com/healthylife/server/internal/domain/assistant"
	apperrors "github.com/healthylife/server/pkg/errors"
)

// multipartOverhead leaves room for form fields and part headers on top of
// the file itself
const multipartOverhead = 1 << 20

// UploadLimits bounds image uploads
type UploadLimits struct {
	MaxFileSize  int64
	AllowedTypes []string
}

func (l UploadLimits) allows(mimeType string) bool {
	if len(l.AllowedTypes) == 0 {
		return true
	}
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	for _, t := range l.AllowedTypes {
		if strings.EqualFold(t, mimeType) {
			return true
		}
	}
	return false
}

// uploadedImage is a file part read into memory
type uploadedImage struct {
	Image    assistant.ImageRequest
	Filename string
}

// parseMultipart parses a size-limited multipart form
func parseMultipart(w http.ResponseWriter, r *http.Request, limits UploadLimits) error {
	r.Body = http.MaxBytesReader(w, r.Body, limits.MaxFileSize+multipartOverhead)
	if err := r.ParseMultipartForm(limits.MaxFileSize); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return fileTooLarge()
		}
		if errors.Is(err, http.ErrNotMultipart) {
			return apperrors.NewBadRequestError("Expected multipart/form-data")
		}
		return apperrors.NewBadRequestError("Invalid multipart form").WithCause(err)
	}
	return nil
}

// formImage reads the named file part. It returns nil when the part is
// absent.
func formImage(r *http.Request, field string, limits UploadLimits) (*uploadedImage, error) {
	file, header, err := r.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid file upload").WithCause(err)
	}
	defer file.Close()

	if header.Size > limits.MaxFileSize {
		return nil, fileTooLarge()
	}
	data, err := io.ReadAll(io.LimitReader(file, limits.MaxFileSize+1))
	if err != nil {
		return nil, apperrors.NewBadRequestError("Invalid file upload").WithCause(err)
	}
	if int64(len(data)) > limits.MaxFileSize {
		return nil, fileTooLarge()
	}

	return &uploadedImage{
		Image:    assistant.ImageRequest{Data: data, MimeType: partType(header, data)},
		Filename: filepath.Base(header.Filename),
	}, nil
}

// partType prefers the declared content type and sniffs when it is missing
func partType(header *multipart.FileHeader, data []byte) string {
	if ct := header.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return strings.ToLower(strings.TrimSpace(strings.SplitN(ct, ";", 2)[0]))
	}
	return http.DetectContentType(data)
}

func fileTooLarge() *apperrors.AppError {
	return apperrors.NewAppError(apperrors.CodePayloadTooLarge, "File too large", "")
}
