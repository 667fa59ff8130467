// Package progress wraps schollz/progressbar for the archive-download UI.
package progress

import (
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
	"go.uber.org/zap"
)

// Bar wraps a progress bar tracking bytes downloaded against a known total.
type Bar struct {
	bar    *progressbar.ProgressBar
	logger *zap.SugaredLogger
}

// NewDownloadBar returns a byte-counting bar labelled with name, sized to
// total bytes (0 renders an indeterminate spinner).
func NewDownloadBar(name string, total int64, logger *zap.SugaredLogger) *Bar {
	if total <= 0 {
		// progressbar treats -1 as "length unknown".
		total = -1
	}
	bar := progressbar.NewOptions64(total,
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionShowDescriptionAtLineEnd(),
		progressbar.OptionSetWidth(30),
		progressbar.OptionShowCount(),
		progressbar.OptionShowBytes(true),
		progressbar.OptionThrottle(200*time.Millisecond),
		progressbar.OptionSetDescription(name),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "[green]=[reset]",
			SaucerHead:    "[green]>[reset]",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
	return &Bar{bar: bar, logger: logger}
}

// Writer returns an io.Writer that advances the bar as bytes pass through
// it; wrap an http response body with io.TeeReader(resp.Body, bar.Writer()).
func (b *Bar) Writer() io.Writer { return b.bar }

// Finish marks the bar complete, logging any rendering error rather than
// failing the download it accompanied.
func (b *Bar) Finish() {
	if err := b.bar.Finish(); err != nil && b.logger != nil {
		b.logger.Warnf("failed to finish progress bar: %v", err)
	}
}
