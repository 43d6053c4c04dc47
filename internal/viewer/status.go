package viewer

import (
	"fmt"
	"strings"
	"time"

	"github.com/cellux/waveview/waveform"
)

// FormatPosition renders a sample offset as m:ss.mmm.
func FormatPosition(offset, sampleRate int) string {
	if sampleRate <= 0 {
		return fmt.Sprintf("%d", offset)
	}
	d := time.Duration(offset) * time.Second / time.Duration(sampleRate)
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second
	d -= s * time.Second
	return fmt.Sprintf("%d:%02d.%03d", m, s, d/time.Millisecond)
}

// StatusLine describes the view for the status bar.
func StatusLine(name string, channel int, v View, sampleRate int, stats waveform.Stats) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "%s [%d]  ", name, channel)
	fmt.Fprintf(&sb, "%s-%s  ",
		FormatPosition(v.Start, sampleRate),
		FormatPosition(v.Start+v.Length, sampleRate))
	fmt.Fprintf(&sb, "%d/%d samples", v.Length, v.Total)
	if sampleRate > 0 {
		fmt.Fprintf(&sb, " @ %d Hz", sampleRate)
	}
	if stats.FramesDropped > 0 {
		fmt.Fprintf(&sb, "  dropped %d", stats.FramesDropped)
	}
	return sb.String()
}

// ClipboardText is the text copied for the visible window: start and
// length in samples.
func ClipboardText(v View) string {
	return fmt.Sprintf("%d %d", v.Start, v.Length)
}
