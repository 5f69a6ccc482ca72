// Package progress renders progress bars and spinners for long CLI steps.
package progress

import (
	"fmt"
	"io"
	"sync/atomic"

	"github.com/schollz/progressbar/v3"
)

// Tracker wraps a progress bar for file processing. A Tracker built by
// Disabled counts ticks but draws nothing.
type Tracker struct {
	bar   *progressbar.ProgressBar
	w     io.Writer
	label string
	ticks atomic.Int64
}

// NewSpinnerTo creates a spinner on w for operations with unknown total count.
func NewSpinnerTo(w io.Writer, label string) *Tracker {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetWidth(20),
		progressbar.OptionSetDescription(label),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	return &Tracker{bar: bar, w: w, label: label}
}

// NewTrackerTo creates a progress bar on w with the given label and total count.
func NewTrackerTo(w io.Writer, label string, total int) *Tracker {
	bar := progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionShowCount(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionSetDescription(label),
		progressbar.OptionUseANSICodes(true),
		progressbar.OptionSetElapsedTime(false),
		progressbar.OptionSetPredictTime(false),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Tracker{bar: bar, w: w, label: label}
}

// Disabled returns a tracker that draws nothing, for quiet runs.
func Disabled(label string) *Tracker {
	return &Tracker{w: io.Discard, label: label}
}

// Tick increments the progress by 1. Safe for concurrent use.
func (t *Tracker) Tick() {
	t.ticks.Add(1)
	if t.bar != nil {
		_ = t.bar.Add(1)
	}
}

// Ticks returns how many times Tick was called.
func (t *Tracker) Ticks() int64 {
	return t.ticks.Load()
}

func (t *Tracker) clear() {
	if t.bar == nil {
		return
	}
	_ = t.bar.Finish()
	_ = t.bar.Clear()
}

// FinishSuccess clears the bar completely (no output).
func (t *Tracker) FinishSuccess() {
	t.clear()
}

// FinishSkipped clears the bar and prints a skip message.
func (t *Tracker) FinishSkipped(reason string) {
	t.clear()
	fmt.Fprintf(t.w, "  %s skipped (%s)\n", t.label, reason)
}

// FinishError clears the bar and prints an error message.
func (t *Tracker) FinishError(err error) {
	t.clear()
	fmt.Fprintf(t.w, "  %s error: %v\n", t.label, err)
}
