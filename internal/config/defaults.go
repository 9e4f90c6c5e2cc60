package config

const (
	defaultStagingDir = "~/.local/share/clipforge/staging"
	defaultOutputDir  = "~/clips"
	defaultLogDir     = "~/.local/share/clipforge/logs"
	defaultCacheDir   = "~/.cache/clipforge"

	defaultOutputWidth      = 1080
	defaultOutputHeight     = 1920
	defaultPixelFormat      = "yuv420p"
	defaultVideoCodec       = "libx264"
	defaultVideoPreset      = "veryfast"
	defaultVideoCRF         = 21
	defaultAudioCodec       = "aac"
	defaultAudioBitrate     = "128k"
	defaultMinClipSeconds   = 0.25
	defaultMinArtifactBytes = 4096

	defaultFontURL       = "https://github.com/google/fonts/raw/main/ofl/inter/Inter%5Bopsz%2Cwght%5D.ttf"
	defaultFontFile      = "caption-font.ttf"
	defaultCaptionPreset = "clean"

	defaultViewportWidth  = 400
	defaultViewportHeight = 800

	defaultProgressFloor      = 8
	defaultProgressCeiling    = 92
	defaultRampSeconds        = 6
	defaultEngineLogTailLines = 30

	defaultLogFormat = "console"
	defaultLogLevel  = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			OutputDir:  defaultOutputDir,
			LogDir:     defaultLogDir,
			CacheDir:   defaultCacheDir,
		},
		Output: Output{
			Width:            defaultOutputWidth,
			Height:           defaultOutputHeight,
			PixelFormat:      defaultPixelFormat,
			VideoCodec:       defaultVideoCodec,
			VideoPreset:      defaultVideoPreset,
			VideoCRF:         defaultVideoCRF,
			AudioCodec:       defaultAudioCodec,
			AudioBitrate:     defaultAudioBitrate,
			MinClipSeconds:   defaultMinClipSeconds,
			MinArtifactBytes: defaultMinArtifactBytes,
		},
		Captions: Captions{
			FontURL:       defaultFontURL,
			FontFile:      defaultFontFile,
			DefaultPreset: defaultCaptionPreset,
		},
		Preview: Preview{
			ViewportWidth:  defaultViewportWidth,
			ViewportHeight: defaultViewportHeight,
		},
		Render: Render{
			ProgressFloor:      defaultProgressFloor,
			ProgressCeiling:    defaultProgressCeiling,
			RampSeconds:        defaultRampSeconds,
			EngineLogTailLines: defaultEngineLogTailLines,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
