package service

import (
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/mlxvideo/api/internal/model"
	"github.com/mlxvideo/api/internal/progress"
)

// probeConcurrency bounds parallel ffprobe/ffmpeg invocations while listing.
const probeConcurrency = 4

// GalleryService lists finished artifacts with their sidecar metadata and
// maintains a thumbnail cache. ffprobe and ffmpeg are optional; when absent
// durations and thumbnails are simply omitted.
type GalleryService struct {
	outputDir string
	thumbDir  string
	log       zerolog.Logger
}

func NewGalleryService(outputDir string, log zerolog.Logger) *GalleryService {
	thumbDir := filepath.Join(outputDir, "thumbnails")
	_ = os.MkdirAll(thumbDir, 0o755)

	return &GalleryService{
		outputDir: outputDir,
		thumbDir:  thumbDir,
		log:       log.With().Str("component", "gallery").Logger(),
	}
}

// ListVideos returns all finished artifacts, newest first. Preview files are
// not part of the gallery.
func (s *GalleryService) ListVideos(ctx context.Context) ([]model.GalleryVideo, error) {
	entries, err := os.ReadDir(s.outputDir)
	if err != nil {
		return nil, err
	}

	var videos []model.GalleryVideo
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".mp4") || strings.HasSuffix(name, progress.PreviewSuffix) {
			continue
		}
		info, err := e.Info()
		if err != nil {
			continue
		}

		v := model.GalleryVideo{
			ID:        name,
			Filename:  name,
			Path:      filepath.Join(s.outputDir, name),
			CreatedAt: info.ModTime().Format(time.RFC3339),
			Size:      info.Size(),
		}
		s.readSidecar(&v)
		videos = append(videos, v)
	}

	sort.Slice(videos, func(i, j int) bool { return videos[i].CreatedAt > videos[j].CreatedAt })

	// Durations and thumbnails come from external tools; probe in parallel
	// but keep the fan-out bounded.
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(probeConcurrency)
	for i := range videos {
		i := i
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			v := &videos[i]
			v.Duration = s.probeDuration(ctx, v.Path)
			if thumb := s.ensureThumbnail(ctx, v.Path); thumb != "" {
				v.Thumbnail = thumb
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	return videos, nil
}

// DeleteVideo removes an artifact along with its sidecar and thumbnail.
func (s *GalleryService) DeleteVideo(videoID string) bool {
	name := filepath.Base(videoID)
	path := filepath.Join(s.outputDir, name)
	if _, err := os.Stat(path); err != nil {
		return false
	}

	_ = os.Remove(path)
	_ = os.Remove(sidecarPath(path))
	_ = os.Remove(s.thumbnailPath(path))
	return true
}

// Thumbnail returns the thumbnail path for an artifact, generating it on
// demand. Empty when the artifact doesn't exist or ffmpeg is unavailable.
func (s *GalleryService) Thumbnail(ctx context.Context, filename string) string {
	path := filepath.Join(s.outputDir, filepath.Base(filename))
	if _, err := os.Stat(path); err != nil {
		return ""
	}
	return s.ensureThumbnail(ctx, path)
}

func (s *GalleryService) readSidecar(v *model.GalleryVideo) {
	data, err := os.ReadFile(sidecarPath(v.Path))
	if err != nil {
		return
	}

	var meta model.VideoMetadata
	if err := json.Unmarshal(data, &meta); err != nil {
		s.log.Debug().Str("video", v.Filename).Err(err).Msg("bad metadata sidecar")
		return
	}
	v.Prompt = meta.Prompt
	v.Params = meta.Params
	v.Width = meta.Width
	v.Height = meta.Height
}

func (s *GalleryService) probeDuration(ctx context.Context, path string) *float64 {
	out, err := exec.CommandContext(ctx,
		"ffprobe",
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		path,
	).Output()
	if err != nil {
		return nil
	}

	d, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return nil
	}
	return &d
}

func (s *GalleryService) ensureThumbnail(ctx context.Context, path string) string {
	thumb := s.thumbnailPath(path)
	if _, err := os.Stat(thumb); err == nil {
		return thumb
	}

	err := exec.CommandContext(ctx,
		"ffmpeg",
		"-y",
		"-i", path,
		"-frames:v", "1",
		"-q:v", "2",
		thumb,
	).Run()
	if err != nil {
		s.log.Debug().Str("video", filepath.Base(path)).Err(err).Msg("thumbnail generation failed")
		return ""
	}
	return thumb
}

func (s *GalleryService) thumbnailPath(videoPath string) string {
	base := strings.TrimSuffix(filepath.Base(videoPath), filepath.Ext(videoPath))
	return filepath.Join(s.thumbDir, base+".jpg")
}

func sidecarPath(videoPath string) string {
	return strings.TrimSuffix(videoPath, filepath.Ext(videoPath)) + ".json"
}
