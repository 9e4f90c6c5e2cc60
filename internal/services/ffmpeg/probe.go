package ffmpeg

import (
	"encoding/json"
	"errors"
	"strconv"
	"strings"
)

// ProbeInfo summarizes the facts about a source file that exports need.
type ProbeInfo struct {
	Width    int
	Height   int
	Duration float64
}

func parseProbe(raw string) (ProbeInfo, error) {
	var payload struct {
		Streams []struct {
			CodecType string `json:"codec_type"`
			Width     int    `json:"width"`
			Height    int    `json:"height"`
			Duration  string `json:"duration"`
		} `json:"streams"`
		Format struct {
			Duration string `json:"duration"`
		} `json:"format"`
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return ProbeInfo{}, err
	}

	info := ProbeInfo{}
	for _, stream := range payload.Streams {
		if stream.CodecType != "video" {
			continue
		}
		info.Width = stream.Width
		info.Height = stream.Height
		if d, err := strconv.ParseFloat(strings.TrimSpace(stream.Duration), 64); err == nil && d > 0 {
			info.Duration = d
		}
		break
	}
	if d, err := strconv.ParseFloat(strings.TrimSpace(payload.Format.Duration), 64); err == nil && d > info.Duration {
		info.Duration = d
	}
	if info.Width <= 0 || info.Height <= 0 {
		return ProbeInfo{}, errors.New("no video stream found")
	}
	return info, nil
}
