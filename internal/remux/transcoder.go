package remux

import (
	"bytes"
	"context"
	"log/slog"
	"os/exec"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Transcoder runs one ffmpeg invocation whose file arguments are workspace
// names.
type Transcoder interface {
	Run(ctx context.Context, ws *Workspace, stream *ffmpeg.Stream) error
}

// FFmpegTranscoder runs the ffmpeg binary inside the workspace directory.
type FFmpegTranscoder struct {
	Logger *slog.Logger
}

func (t *FFmpegTranscoder) Run(ctx context.Context, ws *Workspace, stream *ffmpeg.Stream) error {
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return errors.Wrap(err, "ffmpeg not found")
	}
	if err := ctx.Err(); err != nil {
		return errors.WithStack(err)
	}

	stderr := &bytes.Buffer{}
	cmd := stream.OverWriteOutput().WithErrorOutput(stderr).Compile()
	cmd.Dir = ws.Dir()
	if t.Logger != nil {
		t.Logger.Debug("running ffmpeg", "args", strings.Join(cmd.Args, " "))
	}

	if err := cmd.Start(); err != nil {
		return errors.Wrap(err, "failed to start ffmpeg")
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
		case <-done:
		}
	}()
	err := cmd.Wait()
	close(done)
	if err != nil {
		if ctx.Err() != nil {
			return errors.WithStack(ctx.Err())
		}
		return errors.Wrapf(err, "ffmpeg: %s", lastLine(stderr.String()))
	}
	return nil
}

// ExtractAudio copies the audio stream of input into output without
// re-encoding.
func ExtractAudio(input, output string) *ffmpeg.Stream {
	return ffmpeg.Input(input).Output(output, ffmpeg.KwArgs{
		"vn":  "",
		"c:a": "copy",
	})
}

// Mux combines the video of video with the audio of audio. The video stream
// is copied; audio is encoded with audioCodec so it fits the container.
func Mux(video, audio, output, audioCodec string) *ffmpeg.Stream {
	if audioCodec == "" {
		audioCodec = "copy"
	}
	return ffmpeg.Output([]*ffmpeg.Stream{
		ffmpeg.Input(video).Video(),
		ffmpeg.Input(audio).Audio(),
	}, output, ffmpeg.KwArgs{
		"c:v":      "copy",
		"c:a":      audioCodec,
		"shortest": "",
	})
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
