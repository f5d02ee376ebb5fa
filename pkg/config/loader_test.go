package config

import (
	"os"
	"testing"
)

func TestConfigEnv(t *testing.T) {
	_ = os.Setenv("FRAMECAP_CAPTURE_FPS", "25")
	_ = os.Setenv("FRAMECAP_CAPTURE_ENCODER_VARIANT", "gif")
	_ = os.Setenv("FRAMECAP_CAPTURE_ENCODER_MJPEG_QUALITY", "55")
	defer func() {
		_ = os.Unsetenv("FRAMECAP_CAPTURE_FPS")
		_ = os.Unsetenv("FRAMECAP_CAPTURE_ENCODER_VARIANT")
		_ = os.Unsetenv("FRAMECAP_CAPTURE_ENCODER_MJPEG_QUALITY")
	}()

	out := NewConfig()
	if err := LoadConfigEnv(&out); err != nil {
		t.Fatal(err)
	}

	if out.Capture.Fps != 25 {
		t.Errorf("fps = %v, want 25", out.Capture.Fps)
	}
	if out.Capture.Encoder.Variant != "gif" {
		t.Errorf("variant = %v, want gif", out.Capture.Encoder.Variant)
	}
	if out.Capture.Encoder.Mjpeg.Quality != 55 {
		t.Errorf("quality = %v, want 55", out.Capture.Encoder.Mjpeg.Quality)
	}
}

func TestDefaults(t *testing.T) {
	c := NewConfig()
	if c.Capture.Queue <= 0 {
		t.Error("queue capacity should be positive")
	}
	if c.Capture.Fps <= 0 {
		t.Error("fps should be positive")
	}
	if c.Capture.Encoder.Variant == "" {
		t.Error("a default encoder variant should be set")
	}
}
