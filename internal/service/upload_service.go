package service

import (
	"fmt"
	"io"
	"mime/multipart"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/mlxvideo/api/internal/model"
)

// MaxUploadSize caps conditioning asset uploads.
const MaxUploadSize = 100 * 1024 * 1024

var allowedImageTypes = map[string]bool{
	"image/jpeg": true,
	"image/png":  true,
	"image/webp": true,
	"image/gif":  true,
}

var allowedVideoTypes = map[string]bool{
	"video/mp4":       true,
	"video/webm":      true,
	"video/quicktime": true,
	"video/x-msvideo": true,
}

// UploadService stores conditioning assets under the upload directory with
// collision-free names.
type UploadService struct {
	uploadDir string
}

func NewUploadService(uploadDir string) *UploadService {
	_ = os.MkdirAll(uploadDir, 0o755)
	return &UploadService{uploadDir: uploadDir}
}

// SaveImage stores an uploaded conditioning image.
func (s *UploadService) SaveImage(file *multipart.FileHeader) (*model.UploadResponse, error) {
	return s.save(file, allowedImageTypes, "img", ".png")
}

// SaveVideo stores an uploaded conditioning video.
func (s *UploadService) SaveVideo(file *multipart.FileHeader) (*model.UploadResponse, error) {
	return s.save(file, allowedVideoTypes, "vid", ".mp4")
}

func (s *UploadService) save(file *multipart.FileHeader, allowed map[string]bool, prefix, defaultExt string) (*model.UploadResponse, error) {
	contentType := file.Header.Get("Content-Type")
	if !allowed[contentType] {
		return nil, fmt.Errorf("invalid file type %q", contentType)
	}
	if file.Size > MaxUploadSize {
		return nil, fmt.Errorf("file too large (max %dMB)", MaxUploadSize/(1024*1024))
	}

	ext := strings.ToLower(filepath.Ext(file.Filename))
	if ext == "" {
		ext = defaultExt
	}
	name := fmt.Sprintf("%s_%s%s", prefix, uuid.NewString()[:8], ext)
	dst := filepath.Join(s.uploadDir, name)

	src, err := file.Open()
	if err != nil {
		return nil, err
	}
	defer src.Close()

	out, err := os.Create(dst)
	if err != nil {
		return nil, err
	}
	defer out.Close()

	if _, err := io.Copy(out, src); err != nil {
		os.Remove(dst)
		return nil, err
	}

	return &model.UploadResponse{Path: dst, Filename: name}, nil
}
