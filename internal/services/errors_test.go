package services

import (
	"errors"
	"strings"
	"testing"
)

func TestWrapTagsMarker(t *testing.T) {
	base := errors.New("exit status 1")
	err := Wrap(ErrEngineFailure, "render", "ffmpeg", "transcode failed", base)
	if !errors.Is(err, ErrEngineFailure) {
		t.Fatalf("expected ErrEngineFailure, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped cause to survive, got %v", err)
	}
	if !strings.Contains(err.Error(), "render: ffmpeg: transcode failed") {
		t.Fatalf("unexpected message: %v", err)
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := Wrap(nil, "render", "", "", nil)
	if !errors.Is(err, ErrEngineFailure) {
		t.Fatalf("expected default marker, got %v", err)
	}
}

func TestRecoverable(t *testing.T) {
	cases := []struct {
		marker error
		want   bool
	}{
		{ErrFontUnavailable, true},
		{ErrCaptionRender, true},
		{ErrSeekIncompatible, true},
		{ErrEngineFailure, false},
		{ErrValidation, false},
		{ErrGeometryInvariant, false},
	}
	for _, tc := range cases {
		err := Wrap(tc.marker, "stage", "op", "", nil)
		if got := Recoverable(err); got != tc.want {
			t.Fatalf("Recoverable(%v) = %v, want %v", tc.marker, got, tc.want)
		}
	}
}

func TestUserVisible(t *testing.T) {
	if !UserVisible(Wrap(ErrValidation, "clip", "", "too short", nil)) {
		t.Fatal("validation errors should be user visible")
	}
	if UserVisible(Wrap(ErrSeekIncompatible, "render", "", "", nil)) {
		t.Fatal("seek incompatibility should not be user visible")
	}
}
