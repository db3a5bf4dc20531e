package handler

import (
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/mlxvideo/api/internal/config"
	"github.com/mlxvideo/api/pkg/response"
)

// AssetsHandler lists trained weights discovered on disk so clients can
// offer them as generation inputs.
type AssetsHandler struct {
	paths config.PathsConfig
}

func NewAssetsHandler(paths config.PathsConfig) *AssetsHandler {
	return &AssetsHandler{paths: paths}
}

type assetFile struct {
	Name    string `json:"name"`
	Path    string `json:"path"`
	Size    int64  `json:"size"`
	ModTime string `json:"modTime"`
}

// Checkpoints handles GET /api/checkpoints
func (h *AssetsHandler) Checkpoints(c *fiber.Ctx) error {
	var files []assetFile
	for _, dir := range h.paths.CheckpointDirs {
		files = append(files, listSafetensors(dir)...)
	}
	sortAssets(files)
	return response.OK(c, fiber.Map{"checkpoints": files})
}

// Loras handles GET /api/loras
func (h *AssetsHandler) Loras(c *fiber.Ctx) error {
	files := listSafetensors(h.paths.LoraDir)
	sortAssets(files)
	return response.OK(c, fiber.Map{"loras": files})
}

// listSafetensors walks dir for *.safetensors files. Training runs nest
// checkpoints under per-job subdirectories, so the walk recurses. A missing
// directory yields an empty list.
func listSafetensors(dir string) []assetFile {
	files := []assetFile{}
	_ = filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if !strings.HasSuffix(strings.ToLower(d.Name()), ".safetensors") {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		files = append(files, assetFile{
			Name:    d.Name(),
			Path:    path,
			Size:    info.Size(),
			ModTime: info.ModTime().UTC().Format("2006-01-02T15:04:05Z"),
		})
		return nil
	})
	return files
}

func sortAssets(files []assetFile) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].ModTime > files[j].ModTime
	})
}
