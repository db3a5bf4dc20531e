package handler

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mlxvideo/api/internal/config"
)

func assetsApp(t *testing.T, paths config.PathsConfig) *fiber.App {
	t.Helper()
	h := NewAssetsHandler(paths)

	app := fiber.New()
	app.Get("/api/checkpoints", h.Checkpoints)
	app.Get("/api/loras", h.Loras)
	return app
}

func getAssets(t *testing.T, app *fiber.App, path, key string) []assetFile {
	t.Helper()
	resp, err := app.Test(httptest.NewRequest(http.MethodGet, path, nil), -1)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	var body map[string][]assetFile
	require.NoError(t, json.Unmarshal(data, &body))
	return body[key]
}

func TestCheckpointsDiscovery(t *testing.T) {
	dirA := t.TempDir()
	dirB := t.TempDir()

	// Checkpoints nest under per-run directories.
	runDir := filepath.Join(dirB, "run1")
	require.NoError(t, os.MkdirAll(runDir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dirA, "top.safetensors"), []byte("w"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "ckpt_000250.safetensors"), []byte("w"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(runDir, "notes.txt"), []byte("x"), 0o644))

	app := assetsApp(t, config.PathsConfig{CheckpointDirs: []string{dirA, dirB}})
	files := getAssets(t, app, "/api/checkpoints", "checkpoints")

	require.Len(t, files, 2)
	names := []string{files[0].Name, files[1].Name}
	assert.Contains(t, names, "top.safetensors")
	assert.Contains(t, names, "ckpt_000250.safetensors")
}

func TestCheckpointsMissingDir(t *testing.T) {
	app := assetsApp(t, config.PathsConfig{CheckpointDirs: []string{"/does/not/exist"}})
	files := getAssets(t, app, "/api/checkpoints", "checkpoints")
	assert.Empty(t, files)
}

func TestLorasDiscovery(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "style.safetensors"), []byte("w"), 0o644))

	app := assetsApp(t, config.PathsConfig{LoraDir: dir})
	files := getAssets(t, app, "/api/loras", "loras")

	require.Len(t, files, 1)
	assert.Equal(t, "style.safetensors", files[0].Name)
	assert.Equal(t, int64(1), files[0].Size)
}
