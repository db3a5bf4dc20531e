// Package progress derives structured signals from the unstructured output of
// the video and trainer worker processes. The parsers are pure with respect
// to I/O: callers feed them one trimmed line at a time and receive events
// describing the fields that line concerns.
package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Stage labels reported by the generation engine.
const (
	StageLoading      = "Loading model..."
	StageEncoding     = "Encoding prompt..."
	StageGenerating   = "Generating frames..."
	StageDecoding     = "Decoding video..."
	StageSaving       = "Saving video..."
	StageDownloading  = "Downloading model weights..."
	StageDownloadDone = "Download complete"
)

// PreviewSuffix marks a streamed intermediate file that will be replaced by
// the final muxed artifact.
const PreviewSuffix = "_preview.mp4"

var (
	stepRatioRe = regexp.MustCompile(`(?i)step\s+(\d+)\s*/\s*(\d+)`)
	percentRe   = regexp.MustCompile(`(\d+(?:\.\d+)?)\s*%`)
)

// stageFloors pins a minimum progress value once a stage is reached, so the
// bar never appears to move backwards when numeric signals lag the stage
// transitions.
var stageFloors = map[string]float64{
	StageLoading:    5,
	StageEncoding:   10,
	StageGenerating: 20,
	StageDecoding:   85,
	StageSaving:     95,
}

// StageFloor returns the minimum progress for a stage label, or 0 when the
// label carries no floor.
func StageFloor(label string) float64 {
	return stageFloors[label]
}

// GenerationEvent is the parsed signal for one line of generation output.
// Nil / empty fields mean the line said nothing about them.
type GenerationEvent struct {
	Progress  *float64
	StepLabel string

	DownloadProgress *float64
	DownloadStep     string

	OutputPath  string
	PreviewPath string
}

type captureKind int

const (
	captureStream captureKind = iota
	captureFinalWithAudio
	captureFinal
)

// pathCapture accumulates an artifact path that the worker may print across
// several lines.
type pathCapture struct {
	kind captureKind
	buf  strings.Builder
}

// GenerationParser maps raw worker output lines to GenerationEvents. It keeps
// just enough state for the multi-line artifact path capture; everything else
// is per line.
type GenerationParser struct {
	audioEnabled bool
	capture      *pathCapture
}

// NewGenerationParser returns a parser for one generation job. audioEnabled
// mirrors the request's audio flag and decides whether a streamed path is a
// preview or the final artifact.
func NewGenerationParser(audioEnabled bool) *GenerationParser {
	return &GenerationParser{audioEnabled: audioEnabled}
}

// Parse consumes one trimmed line of worker output.
func (p *GenerationParser) Parse(line string) GenerationEvent {
	var ev GenerationEvent

	lower := strings.ToLower(line)
	pct := percentRe.FindStringSubmatch(line)

	// Download phase first: while a download marker matches, the
	// generation-phase detectors are skipped for that line.
	downloading := strings.Contains(lower, "downloading")
	if (downloading && strings.Contains(lower, "model")) ||
		((downloading || strings.Contains(lower, "fetching")) && pct != nil) {
		ev.DownloadStep = StageDownloading
		if pct != nil {
			v, err := strconv.ParseFloat(pct[1], 64)
			if err == nil {
				ev.DownloadProgress = &v
				if v >= 100 {
					ev.DownloadStep = StageDownloadDone
				}
			}
		}
		return ev
	}

	// An armed path capture owns every following line until the path is
	// complete.
	if p.capture != nil {
		p.capture.buf.WriteString(line)
		p.tryFinalize(&ev)
		return ev
	}

	if m := stepRatioRe.FindStringSubmatch(line); m != nil {
		k, _ := strconv.Atoi(m[1])
		n, _ := strconv.Atoi(m[2])
		if n > 0 {
			v := float64(k) / float64(n) * 100
			ev.Progress = &v
			ev.StepLabel = fmt.Sprintf("Step %d/%d", k, n)
		}
	} else if pct != nil {
		if v, err := strconv.ParseFloat(pct[1], 64); err == nil {
			ev.Progress = &v
		}
	} else {
		switch {
		case strings.Contains(lower, "loading"):
			ev.StepLabel = StageLoading
		case strings.Contains(lower, "encoding"):
			ev.StepLabel = StageEncoding
		case strings.Contains(lower, "generating"), strings.Contains(lower, "sampling"):
			ev.StepLabel = StageGenerating
		case strings.Contains(lower, "decoding video"), strings.Contains(lower, "streaming frames"):
			ev.StepLabel = StageDecoding
		case strings.Contains(lower, "saving"), strings.Contains(lower, "writing"):
			ev.StepLabel = StageSaving
		}
	}

	p.armCapture(line, &ev)

	return ev
}

// Artifact path markers emitted by the worker.
const (
	markerStream         = "Streamed video to"
	markerFinalWithAudio = "Saved video with audio to"
	markerFinal          = "Saved video to"
)

func (p *GenerationParser) armCapture(line string, ev *GenerationEvent) {
	var (
		kind captureKind
		seed string
	)

	switch {
	case strings.Contains(line, markerStream):
		kind = captureStream
		seed = line[strings.Index(line, markerStream)+len(markerStream):]
	case strings.Contains(line, markerFinalWithAudio):
		kind = captureFinalWithAudio
		seed = line[strings.Index(line, markerFinalWithAudio)+len(markerFinalWithAudio):]
	case strings.Contains(line, markerFinal) && !strings.Contains(line, "with audio"):
		kind = captureFinal
		seed = line[strings.Index(line, markerFinal)+len(markerFinal):]
	default:
		return
	}

	p.capture = &pathCapture{kind: kind}
	p.capture.buf.WriteString(seed)
	p.tryFinalize(ev)
}

func (p *GenerationParser) tryFinalize(ev *GenerationEvent) {
	if !strings.Contains(p.capture.buf.String(), ".mp4") {
		return
	}

	path := strings.TrimSpace(p.capture.buf.String())
	if p.capture.kind == captureStream && p.audioEnabled && strings.HasSuffix(path, PreviewSuffix) {
		ev.PreviewPath = path
	} else {
		ev.OutputPath = path
	}
	p.capture = nil
}
