package remux

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ZacxDev/video-captioner/internal/capture"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// fakeTranscoder writes a fixed payload to the output named by the last
// argument of each invocation.
type fakeTranscoder struct {
	calls   []string
	outputs map[string]string
	fail    map[string]error
}

func (f *fakeTranscoder) Run(ctx context.Context, ws *Workspace, stream *ffmpeg.Stream) error {
	args := stream.Compile().Args
	f.calls = append(f.calls, strings.Join(args, " "))
	out := args[len(args)-1]
	if err := f.fail[out]; err != nil {
		return err
	}
	return ws.WriteFile(out, []byte(f.outputs[out]))
}

func testRecording() *capture.Recording {
	return &capture.Recording{
		Chunks:    [][]byte{[]byte("cap"), []byte("tured")},
		MimeType:  "video/webm; codecs=vp9",
		Extension: ".webm",
	}
}

func writeSource(t *testing.T) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "clip.MP4")
	if err := os.WriteFile(p, []byte("source"), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestReattachSuccess(t *testing.T) {
	tmp := t.TempDir()
	ft := &fakeTranscoder{outputs: map[string]string{
		"audio.mka":   "audio",
		"output.webm": "muxed",
	}}
	r := New(ft, nil).WithTempDir(tmp)

	res := r.Reattach(context.Background(), testRecording(), writeSource(t), true)
	if res.Outcome != OutcomeOK {
		t.Fatalf("outcome = %v (%v)", res.Outcome, res.Err)
	}
	if got := string(res.Recording.Bytes()); got != "muxed" {
		t.Errorf("recording = %q", got)
	}
	if len(ft.calls) != 2 {
		t.Fatalf("calls = %d", len(ft.calls))
	}
	for _, want := range []string{"-i original.mp4", "-vn", "-c:a copy", "audio.mka"} {
		if !strings.Contains(ft.calls[0], want) {
			t.Errorf("extract %q missing %q", ft.calls[0], want)
		}
	}
	for _, want := range []string{"-i processed.webm", "-i audio.mka", "-c:v copy", "-c:a libopus", "-shortest", "output.webm"} {
		if !strings.Contains(ft.calls[1], want) {
			t.Errorf("mux %q missing %q", ft.calls[1], want)
		}
	}

	entries, err := os.ReadDir(tmp)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 0 {
		t.Errorf("workspace not removed: %v", entries)
	}
}

func TestReattachDegrades(t *testing.T) {
	tests := []struct {
		name     string
		ft       *fakeTranscoder
		hasAudio bool
		reason   error
	}{
		{
			name:     "no audio stream",
			ft:       &fakeTranscoder{},
			hasAudio: false,
			reason:   ErrNoAudio,
		},
		{
			name: "extraction fails",
			ft: &fakeTranscoder{fail: map[string]error{
				"audio.mka": errors.New("codec mismatch"),
			}},
			hasAudio: true,
		},
		{
			name: "mux fails",
			ft: &fakeTranscoder{
				outputs: map[string]string{"audio.mka": "audio"},
				fail:    map[string]error{"output.webm": errors.New("exit status 1")},
			},
			hasAudio: true,
		},
		{
			name:     "empty output",
			ft:       &fakeTranscoder{outputs: map[string]string{"audio.mka": "audio"}},
			hasAudio: true,
			reason:   ErrEmptyOutput,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := testRecording()
			res := New(tt.ft, nil).WithTempDir(t.TempDir()).Reattach(context.Background(), rec, writeSource(t), tt.hasAudio)
			if res.Outcome != OutcomeDegraded {
				t.Fatalf("outcome = %v, want degraded", res.Outcome)
			}
			if res.Recording != rec {
				t.Error("degraded result should carry the pre-mux recording")
			}
			if res.Err == nil {
				t.Error("degraded result has no reason")
			}
			if tt.reason != nil && !errors.Is(res.Err, tt.reason) {
				t.Errorf("reason = %v, want %v", res.Err, tt.reason)
			}
			if !tt.hasAudio && len(tt.ft.calls) != 0 {
				t.Error("transcoder called for a silent source")
			}
		})
	}
}

func TestReattachMissingSourceDegrades(t *testing.T) {
	res := New(&fakeTranscoder{}, nil).WithTempDir(t.TempDir()).
		Reattach(context.Background(), testRecording(), filepath.Join(t.TempDir(), "gone.mp4"), true)
	if res.Outcome != OutcomeDegraded || res.Recording == nil {
		t.Fatalf("result = %+v", res)
	}
}

func TestReattachFatal(t *testing.T) {
	src := writeSource(t)
	if res := New(&fakeTranscoder{}, nil).Reattach(context.Background(), &capture.Recording{}, src, true); res.Outcome != OutcomeFatal {
		t.Errorf("empty recording outcome = %v", res.Outcome)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	res := New(&fakeTranscoder{}, nil).Reattach(ctx, testRecording(), src, true)
	if res.Outcome != OutcomeFatal || !errors.Is(res.Err, context.Canceled) {
		t.Errorf("cancelled result = %+v", res)
	}
}

func TestAudioCodecForContainer(t *testing.T) {
	tests := map[string]string{
		"video/webm; codecs=vp9": "libopus",
		"video/mp4; codecs=avc1": "aac",
		"video/mp4":              "aac",
		"video/x-matroska":       "libopus",
	}
	for mime, want := range tests {
		if got := audioCodec(mime); got != want {
			t.Errorf("audioCodec(%q) = %q, want %q", mime, got, want)
		}
	}
}

func TestWorkspaceRejectsPaths(t *testing.T) {
	ws, err := NewWorkspace(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	defer ws.Close()
	for _, name := range []string{"", "../escape", "a/b", ".hidden"} {
		if err := ws.WriteFile(name, nil); err == nil {
			t.Errorf("WriteFile(%q) succeeded", name)
		}
	}
	if err := ws.Unlink("missing.webm"); err != nil {
		t.Errorf("Unlink missing = %v", err)
	}
}
