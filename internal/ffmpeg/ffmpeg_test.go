package ffmpeg

import (
	"errors"
	"testing"
)

const probeWithAudio = `{
  "streams": [
    {"codec_type": "video", "codec_name": "h264", "width": 1280, "height": 720,
     "duration": "12.500000", "r_frame_rate": "30/1", "avg_frame_rate": "30000/1001"},
    {"codec_type": "audio", "codec_name": "aac"}
  ],
  "format": {"duration": "12.52", "bit_rate": "2000000"}
}`

func TestParseProbe(t *testing.T) {
	meta, err := ParseProbe(probeWithAudio)
	if err != nil {
		t.Fatalf("ParseProbe: %v", err)
	}
	if meta.Width != 1280 || meta.Height != 720 || meta.Codec != "h264" {
		t.Errorf("video fields = %+v", meta)
	}
	if meta.Duration != 12.5 {
		t.Errorf("Duration = %v, want stream duration 12.5", meta.Duration)
	}
	if meta.FPS < 29.96 || meta.FPS > 29.98 {
		t.Errorf("FPS = %v", meta.FPS)
	}
	if !meta.HasAudio || meta.AudioCodec != "aac" {
		t.Errorf("audio = %v %q", meta.HasAudio, meta.AudioCodec)
	}
	if meta.Bitrate != 2000000 {
		t.Errorf("Bitrate = %d", meta.Bitrate)
	}
}

func TestParseProbeDurationFallbacks(t *testing.T) {
	tests := []struct {
		name  string
		probe string
		want  float64
	}{
		{"format", `{"streams":[{"codec_type":"video","width":2,"height":2,"r_frame_rate":"25/1"}],"format":{"duration":"4.0"}}`, 4},
		{"frames", `{"streams":[{"codec_type":"video","width":2,"height":2,"nb_frames":"50","r_frame_rate":"25/1"}],"format":{}}`, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			meta, err := ParseProbe(tt.probe)
			if err != nil {
				t.Fatalf("ParseProbe: %v", err)
			}
			if meta.Duration != tt.want {
				t.Errorf("Duration = %v, want %v", meta.Duration, tt.want)
			}
			if meta.HasAudio {
				t.Error("HasAudio = true for video-only probe")
			}
		})
	}
}

func TestParseProbeErrors(t *testing.T) {
	for _, probe := range []string{
		`not json`,
		`{"streams":[]}`,
		`{"streams":[{"codec_type":"audio"}]}`,
		`{"streams":[{"codec_type":"video","width":2,"height":2}],"format":{}}`,
	} {
		if _, err := ParseProbe(probe); err == nil {
			t.Errorf("ParseProbe(%s) expected error", probe)
		}
	}
}

func TestGetVideoMetadataUsesProbe(t *testing.T) {
	p := NewProcessor(nil).WithProbe(func(path string) (string, error) {
		if path != "in.mp4" {
			t.Errorf("probe path = %q", path)
		}
		return probeWithAudio, nil
	})
	if _, err := p.GetVideoMetadata("in.mp4"); err != nil {
		t.Fatalf("GetVideoMetadata: %v", err)
	}

	p.WithProbe(func(string) (string, error) { return "", errors.New("boom") })
	if _, err := p.GetVideoMetadata("in.mp4"); err == nil {
		t.Fatal("expected probe error")
	}
}

func TestEnsureExtension(t *testing.T) {
	if got := EnsureExtension("clip.mp4", ".webm"); got != "clip.webm" {
		t.Errorf("EnsureExtension = %q", got)
	}
	if got := EnsureExtension("clip", ".mp4"); got != "clip.mp4" {
		t.Errorf("EnsureExtension = %q", got)
	}
}

func TestGetOptimalThreadCount(t *testing.T) {
	if GetOptimalThreadCount() < 1 {
		t.Fatal("thread count below 1")
	}
}
