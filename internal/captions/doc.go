// Package captions resolves caption style presets and user overrides into
// complete, bounded style records and converts timed text into burn-in
// drawtext instructions for the transcoder filter graph.
package captions
