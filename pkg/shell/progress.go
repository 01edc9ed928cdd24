package shell

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/schollz/progressbar/v3"
)

// progressBatchSize batches bar updates (512KB).
const progressBatchSize = 512 * 1024

func newProgressBar(w io.Writer, size int64, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions64(
		size,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription(description),
		progressbar.OptionShowBytes(true),
		progressbar.OptionShowCount(),
		progressbar.OptionSetItsString("bytes"),
		progressbar.OptionSetRenderBlankState(true),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionSetTheme(progressbar.Theme{
			Saucer:        "=",
			SaucerHead:    ">",
			SaucerPadding: " ",
			BarStart:      "[",
			BarEnd:        "]",
		}),
	)
}

// batchedProgress turns running totals into batched bar increments.
type batchedProgress struct {
	bar      *progressbar.ProgressBar
	reported int64
}

func (b *batchedProgress) update(total int64) {
	if total-b.reported >= progressBatchSize {
		_ = b.bar.Add64(total - b.reported)
		b.reported = total
	}
}

// finish reports whatever the batches held back.
func (b *batchedProgress) finish(total int64) {
	if total > b.reported {
		_ = b.bar.Add64(total - b.reported)
		b.reported = total
	}
	_ = b.bar.Close()
}

// contextWriter fails writes once ctx is done, which aborts a download.
type contextWriter struct {
	ctx context.Context
	w   io.Writer
}

func (cw *contextWriter) Write(p []byte) (int, error) {
	select {
	case <-cw.ctx.Done():
		return 0, context.Canceled
	default:
	}
	return cw.w.Write(p)
}

// formatBytes formats byte size to human readable string.
func formatBytes(bytes int64) string {
	const (
		KB = 1024
		MB = 1024 * KB
		GB = 1024 * MB
		TB = 1024 * GB
	)

	switch {
	case bytes >= TB:
		return fmt.Sprintf("%.2f TB", float64(bytes)/float64(TB))
	case bytes >= GB:
		return fmt.Sprintf("%.2f GB", float64(bytes)/float64(GB))
	case bytes >= MB:
		return fmt.Sprintf("%.2f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.2f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}
