package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeOutput()
	if err := c.normalizeCaptions(); err != nil {
		return err
	}
	c.normalizePreview()
	c.normalizeRender()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StagingDir) == "" {
		c.Paths.StagingDir = defaultStagingDir
	}
	if c.Paths.StagingDir, err = expandPath(c.Paths.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.OutputDir) == "" {
		c.Paths.OutputDir = defaultOutputDir
	}
	if c.Paths.OutputDir, err = expandPath(c.Paths.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.CacheDir) == "" {
		c.Paths.CacheDir = defaultCacheDir
	}
	if c.Paths.CacheDir, err = expandPath(c.Paths.CacheDir); err != nil {
		return fmt.Errorf("paths.cache_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() {
	if c.Output.Width <= 0 {
		c.Output.Width = defaultOutputWidth
	}
	if c.Output.Height <= 0 {
		c.Output.Height = defaultOutputHeight
	}
	c.Output.PixelFormat = strings.TrimSpace(c.Output.PixelFormat)
	if c.Output.PixelFormat == "" {
		c.Output.PixelFormat = defaultPixelFormat
	}
	c.Output.VideoCodec = strings.TrimSpace(c.Output.VideoCodec)
	if c.Output.VideoCodec == "" {
		c.Output.VideoCodec = defaultVideoCodec
	}
	c.Output.VideoPreset = strings.TrimSpace(c.Output.VideoPreset)
	if c.Output.VideoPreset == "" {
		c.Output.VideoPreset = defaultVideoPreset
	}
	if c.Output.VideoCRF <= 0 {
		c.Output.VideoCRF = defaultVideoCRF
	}
	c.Output.AudioCodec = strings.TrimSpace(c.Output.AudioCodec)
	if c.Output.AudioCodec == "" {
		c.Output.AudioCodec = defaultAudioCodec
	}
	c.Output.AudioBitrate = strings.TrimSpace(c.Output.AudioBitrate)
	if c.Output.AudioBitrate == "" {
		c.Output.AudioBitrate = defaultAudioBitrate
	}
	if c.Output.MinClipSeconds <= 0 {
		c.Output.MinClipSeconds = defaultMinClipSeconds
	}
	if c.Output.MinArtifactBytes <= 0 {
		c.Output.MinArtifactBytes = defaultMinArtifactBytes
	}
}

func (c *Config) normalizeCaptions() error {
	var err error
	c.Captions.FontPath = strings.TrimSpace(c.Captions.FontPath)
	if c.Captions.FontPath, err = expandPath(c.Captions.FontPath); err != nil {
		return fmt.Errorf("captions.font_path: %w", err)
	}
	c.Captions.FontURL = strings.TrimSpace(c.Captions.FontURL)
	if c.Captions.FontURL == "" {
		c.Captions.FontURL = defaultFontURL
	}
	c.Captions.FontFile = strings.TrimSpace(c.Captions.FontFile)
	if c.Captions.FontFile == "" {
		c.Captions.FontFile = defaultFontFile
	}
	c.Captions.DefaultPreset = strings.ToLower(strings.TrimSpace(c.Captions.DefaultPreset))
	if c.Captions.DefaultPreset == "" {
		c.Captions.DefaultPreset = defaultCaptionPreset
	}
	return nil
}

func (c *Config) normalizePreview() {
	if c.Preview.ViewportWidth <= 0 {
		c.Preview.ViewportWidth = defaultViewportWidth
	}
	if c.Preview.ViewportHeight <= 0 {
		c.Preview.ViewportHeight = defaultViewportHeight
	}
}

func (c *Config) normalizeRender() {
	c.Render.FFmpegBinary = strings.TrimSpace(c.Render.FFmpegBinary)
	if c.Render.ProgressFloor <= 0 {
		c.Render.ProgressFloor = defaultProgressFloor
	}
	if c.Render.ProgressCeiling <= 0 {
		c.Render.ProgressCeiling = defaultProgressCeiling
	}
	if c.Render.RampSeconds <= 0 {
		c.Render.RampSeconds = defaultRampSeconds
	}
	if c.Render.EngineLogTailLines <= 0 {
		c.Render.EngineLogTailLines = defaultEngineLogTailLines
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	if c.Logging.Format == "" {
		c.Logging.Format = defaultLogFormat
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
