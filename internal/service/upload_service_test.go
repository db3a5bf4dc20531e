package service

import (
	"bytes"
	"fmt"
	"mime/multipart"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fileHeader(t *testing.T, filename, contentType string, data []byte) *multipart.FileHeader {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)
	h := make(textproto.MIMEHeader)
	h.Set("Content-Disposition", fmt.Sprintf(`form-data; name="file"; filename="%s"`, filename))
	h.Set("Content-Type", contentType)
	part, err := w.CreatePart(h)
	require.NoError(t, err)
	_, err = part.Write(data)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	form, err := multipart.NewReader(&buf, w.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	return form.File["file"][0]
}

func TestSaveImage(t *testing.T) {
	dir := t.TempDir()
	s := NewUploadService(dir)

	res, err := s.SaveImage(fileHeader(t, "cond.png", "image/png", []byte("pngdata")))
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(res.Filename, "img_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))

	data, err := os.ReadFile(res.Path)
	require.NoError(t, err)
	assert.Equal(t, "pngdata", string(data))
}

func TestSaveVideo(t *testing.T) {
	s := NewUploadService(t.TempDir())

	res, err := s.SaveVideo(fileHeader(t, "cond.mp4", "video/mp4", []byte("mp4data")))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(res.Filename, "vid_"))
	assert.True(t, strings.HasSuffix(res.Filename, ".mp4"))
}

func TestSaveImageRejectsWrongType(t *testing.T) {
	s := NewUploadService(t.TempDir())

	_, err := s.SaveImage(fileHeader(t, "cond.mp4", "video/mp4", []byte("x")))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid file type")
}

func TestSaveImageDefaultExtension(t *testing.T) {
	s := NewUploadService(t.TempDir())

	res, err := s.SaveImage(fileHeader(t, "noext", "image/jpeg", []byte("x")))
	require.NoError(t, err)
	assert.True(t, strings.HasSuffix(res.Filename, ".png"))
}

func TestSaveCollisionFreeNames(t *testing.T) {
	s := NewUploadService(t.TempDir())

	a, err := s.SaveImage(fileHeader(t, "same.png", "image/png", []byte("a")))
	require.NoError(t, err)
	b, err := s.SaveImage(fileHeader(t, "same.png", "image/png", []byte("b")))
	require.NoError(t, err)

	assert.NotEqual(t, a.Filename, b.Filename)
}
