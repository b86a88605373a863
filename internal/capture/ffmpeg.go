package capture

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strconv"
	"strings"

	ff "github.com/ZacxDev/video-captioner/internal/ffmpeg"
	"github.com/ZacxDev/video-captioner/internal/profile"
	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// FFmpegEncoder pipes raw frames into ffmpeg and streams the container from
// its stdout.
type FFmpegEncoder struct {
	Profile profile.Profile
	// OutputWidth and OutputHeight downscale the encoded video when set.
	OutputWidth  int
	OutputHeight int
	Logger       *slog.Logger
}

var _ Encoder = (*FFmpegEncoder)(nil)

// Command builds the ffmpeg invocation for stream without running it.
func (e *FFmpegEncoder) Command(stream *Stream) *ffmpeg.Stream {
	p := e.Profile
	video := ffmpeg.Input("pipe:", ffmpeg.KwArgs{
		"f":         "rawvideo",
		"pix_fmt":   "rgba",
		"s":         fmt.Sprintf("%dx%d", stream.Width, stream.Height),
		"framerate": formatRate(stream.FPS),
	})
	if e.OutputWidth > 0 && e.OutputHeight > 0 &&
		(e.OutputWidth != stream.Width || e.OutputHeight != stream.Height) {
		video = video.Filter("scale", ffmpeg.Args{strconv.Itoa(even(e.OutputWidth)), strconv.Itoa(even(e.OutputHeight))}, ffmpeg.KwArgs{"flags": "lanczos"})
	}

	outputKwargs := ffmpeg.KwArgs{
		"f":       p.GetContainerFormat(),
		"c:v":     p.GetVideoCodec(),
		"b:v":     profile.FormatBitrate(p.GetVideoBitrate()),
		"pix_fmt": "yuv420p",
		"threads": ff.GetOptimalThreadCount(),
	}
	for k, v := range p.GetEncoderOptions() {
		outputKwargs[k] = v
	}

	streams := []*ffmpeg.Stream{video}
	if track := stream.Audio(); track != nil && track.Volume > 0 {
		audio := ffmpeg.Input(track.Path).Audio()
		if track.Volume != 1 {
			audio = audio.Filter("volume", ffmpeg.Args{fmt.Sprintf("%.3f", track.Volume)})
		}
		streams = append(streams, audio)
		outputKwargs["c:a"] = p.GetAudioCodec()
		outputKwargs["b:a"] = p.GetAudioBitrate()
		outputKwargs["shortest"] = ""
	}

	return ffmpeg.Output(streams, "pipe:", outputKwargs)
}

func (e *FFmpegEncoder) Start(ctx context.Context, stream *Stream, out io.Writer) (func() error, error) {
	if e.Profile == nil {
		return nil, errors.New("no recorder profile")
	}
	if _, err := exec.LookPath("ffmpeg"); err != nil {
		return nil, errors.Wrap(err, "ffmpeg not found")
	}
	logger := e.Logger
	if logger == nil {
		logger = slog.Default()
	}

	stderr := &bytes.Buffer{}
	cmd := e.Command(stream).
		WithInput(stream.Reader()).
		WithOutput(out).
		WithErrorOutput(stderr).
		Compile()
	logger.Debug("starting encoder", "args", strings.Join(cmd.Args, " "))

	if err := cmd.Start(); err != nil {
		return nil, errors.Wrap(err, "failed to start ffmpeg")
	}

	exited := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			if cmd.Process != nil {
				cmd.Process.Kill()
			}
		case <-exited:
		}
	}()

	return func() error {
		err := cmd.Wait()
		close(exited)
		if err != nil {
			if ctx.Err() != nil {
				return errors.Wrap(ctx.Err(), "encoder cancelled")
			}
			return errors.Wrapf(err, "ffmpeg: %s", lastLine(stderr.String()))
		}
		return nil
	}, nil
}

func formatRate(fps float64) string {
	if fps <= 0 {
		fps = 30
	}
	return strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.3f", fps), "0"), ".")
}

func even(n int) int {
	return n - n%2
}

func lastLine(s string) string {
	lines := strings.Split(strings.TrimSpace(s), "\n")
	return strings.TrimSpace(lines[len(lines)-1])
}
