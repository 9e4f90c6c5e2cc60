// Package render sequences short exports: it validates the clip window,
// computes and gates the framing geometry, resolves caption styling, runs
// the ffmpeg engine through a degrading attempt ladder, and publishes the
// finished artifact.
//
// Progress from the engine's machine-readable stream and its log output is
// reduced into a single monotonic percentage inside a fixed render band,
// with an ease-out ramp covering gaps between observations.
package render
