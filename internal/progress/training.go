package progress

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var (
	trainStepRe  = regexp.MustCompile(`(?i)step\s+(\d+)\s*:\s*loss=([0-9eE.+-]+)`)
	validationRe = regexp.MustCompile(`Validation @ step\s+(\d+)`)
	checkpointRe = regexp.MustCompile(`Saved checkpoint:\s*(.*)`)
)

// TrainingEvent is the parsed signal for one line of trainer output. At most
// one of the pattern groups is set per line.
type TrainingEvent struct {
	Step *int
	Loss *float64
	ETA  string

	ValidationStep *int

	CheckpointPath *string
}

// Matched reports whether the line matched any recognized pattern. Training
// subscribers are only notified on matches.
func (e TrainingEvent) Matched() bool {
	return e.Step != nil || e.ValidationStep != nil || e.CheckpointPath != nil
}

// TrainingParser maps trainer output lines to TrainingEvents. It tracks the
// timestamp of the previous step event to derive an ETA; no ETA is reported
// until two step events have been seen.
type TrainingParser struct {
	totalSteps int

	now        func() time.Time
	lastStepAt time.Time
	seenStep   bool
}

// NewTrainingParser returns a parser for one training job with the requested
// total step count.
func NewTrainingParser(totalSteps int) *TrainingParser {
	return &TrainingParser{totalSteps: totalSteps, now: time.Now}
}

// Parse consumes one trimmed line of trainer output.
func (p *TrainingParser) Parse(line string) TrainingEvent {
	var ev TrainingEvent

	if m := trainStepRe.FindStringSubmatch(line); m != nil {
		step, err := strconv.Atoi(m[1])
		if err != nil {
			return ev
		}
		ev.Step = &step
		if loss, err := strconv.ParseFloat(m[2], 64); err == nil {
			ev.Loss = &loss
		}

		at := p.now()
		if p.seenStep && p.totalSteps > 0 {
			remaining := p.totalSteps - step
			if remaining < 0 {
				remaining = 0
			}
			ev.ETA = formatETA(float64(remaining) * at.Sub(p.lastStepAt).Seconds())
		}
		p.lastStepAt = at
		p.seenStep = true
		return ev
	}

	if m := validationRe.FindStringSubmatch(line); m != nil {
		if step, err := strconv.Atoi(m[1]); err == nil {
			ev.ValidationStep = &step
		}
		return ev
	}

	if m := checkpointRe.FindStringSubmatch(line); m != nil {
		path := strings.TrimSpace(m[1])
		ev.CheckpointPath = &path
		return ev
	}

	return ev
}

func formatETA(seconds float64) string {
	s := int(seconds)
	if s < 0 {
		s = 0
	}
	return fmt.Sprintf("%dm %ds", s/60, s%60)
}
