package ffmpeg

import (
	"regexp"
	"strconv"
	"strings"
	"sync"
)

// parseProgressLine extracts the out-time from one -progress pipe:1 line.
// The stream is key=value pairs; out_time_ms is emitted in microseconds
// and out_time as HH:MM:SS.micro.
func parseProgressLine(line string) (float64, bool) {
	key, value, ok := strings.Cut(line, "=")
	if !ok {
		return 0, false
	}
	value = strings.TrimSpace(value)
	switch strings.TrimSpace(key) {
	case "out_time_ms", "out_time_us":
		micros, err := strconv.ParseInt(value, 10, 64)
		if err != nil || micros < 0 {
			return 0, false
		}
		return float64(micros) / 1e6, true
	case "out_time":
		return parseClock(value)
	default:
		return 0, false
	}
}

var stderrTimePattern = regexp.MustCompile(`\btime=(\d+):(\d{2}):(\d{2}(?:\.\d+)?)`)

// parseStderrTime extracts the current position from an ffmpeg stderr status
// line such as "frame= 120 fps= 30 ... time=00:00:04.00 bitrate=...".
func parseStderrTime(line string) (float64, bool) {
	m := stderrTimePattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	return parseClock(m[1] + ":" + m[2] + ":" + m[3])
}

func parseClock(value string) (float64, bool) {
	parts := strings.Split(strings.TrimSpace(value), ":")
	if len(parts) != 3 {
		return 0, false
	}
	hours, err := strconv.ParseFloat(parts[0], 64)
	if err != nil {
		return 0, false
	}
	minutes, err := strconv.ParseFloat(parts[1], 64)
	if err != nil {
		return 0, false
	}
	seconds, err := strconv.ParseFloat(parts[2], 64)
	if err != nil {
		return 0, false
	}
	total := hours*3600 + minutes*60 + seconds
	if total < 0 {
		return 0, false
	}
	return total, true
}

// tailBuffer keeps the last N lines of engine output for diagnostics.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	limit int
}

func newTailBuffer(limit int) *tailBuffer {
	if limit <= 0 {
		limit = 30
	}
	return &tailBuffer{limit: limit}
}

func (b *tailBuffer) Add(line string) {
	line = strings.TrimRight(line, "\r\n")
	if strings.TrimSpace(line) == "" {
		return
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.limit {
		b.lines = b.lines[len(b.lines)-b.limit:]
	}
}

func (b *tailBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
