// Package ffmpeg wraps the ffmpeg command-line engine so the render stage
// can launch export passes and observe structured progress updates.
//
// It exposes a Client interface plus a CLI implementation that assembles
// arguments through the ffmpeg-go stream builder, reads machine progress
// from -progress pipe:1, and retains a trailing stderr log for failure
// diagnostics. Tests can swap in fakes to exercise orchestration without
// running the real engine.
package ffmpeg
