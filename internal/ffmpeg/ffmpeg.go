package ffmpeg

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"os/exec"
	"runtime"
	"strconv"
	"strings"

	"github.com/pkg/errors"
	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// VideoMetadata contains metadata about a video file
type VideoMetadata struct {
	Duration   float64
	Width      int
	Height     int
	FPS        float64
	Codec      string
	HasAudio   bool
	AudioCodec string
	Bitrate    int64
}

// ProbeFunc returns ffprobe JSON for a file.
type ProbeFunc func(path string) (string, error)

// Processor wraps FFmpeg functionality
type Processor struct {
	probe  ProbeFunc
	logger *slog.Logger
}

// NewProcessor creates a new FFmpeg processor
func NewProcessor(logger *slog.Logger) *Processor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Processor{
		probe:  func(path string) (string, error) { return ffmpeg.Probe(path) },
		logger: logger,
	}
}

// WithProbe replaces the ffprobe invocation.
func (p *Processor) WithProbe(fn ProbeFunc) *Processor {
	p.probe = fn
	return p
}

// Available reports whether ffmpeg and ffprobe are on the PATH.
func Available() bool {
	for _, bin := range []string{"ffmpeg", "ffprobe"} {
		if _, err := exec.LookPath(bin); err != nil {
			return false
		}
	}
	return true
}

type probeData struct {
	Streams []probeStream `json:"streams"`
	Format  struct {
		Duration string `json:"duration"`
		BitRate  string `json:"bit_rate"`
		Size     string `json:"size"`
	} `json:"format"`
}

type probeStream struct {
	CodecType    string `json:"codec_type"`
	CodecName    string `json:"codec_name"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Duration     string `json:"duration"`
	NbFrames     string `json:"nb_frames"`
	RFrameRate   string `json:"r_frame_rate"`
	AvgFrameRate string `json:"avg_frame_rate"`
	BitRate      string `json:"bit_rate"`
}

// GetVideoMetadata retrieves metadata about a video file
func (p *Processor) GetVideoMetadata(inputPath string) (*VideoMetadata, error) {
	probe, err := p.probe(inputPath)
	if err != nil {
		return nil, errors.Wrap(err, "error probing video")
	}
	meta, err := ParseProbe(probe)
	if err != nil {
		return nil, err
	}
	p.logger.Debug("probed source",
		"path", inputPath,
		"width", meta.Width,
		"height", meta.Height,
		"duration", meta.Duration,
		"fps", meta.FPS,
		"codec", meta.Codec,
		"audio", meta.AudioCodec,
	)
	return meta, nil
}

// ParseProbe extracts VideoMetadata from ffprobe JSON output.
func ParseProbe(probe string) (*VideoMetadata, error) {
	var data probeData
	if err := json.Unmarshal([]byte(probe), &data); err != nil {
		return nil, errors.WithStack(err)
	}
	if len(data.Streams) == 0 {
		return nil, fmt.Errorf("no streams found in video")
	}

	var video *probeStream
	meta := &VideoMetadata{}
	for i := range data.Streams {
		s := &data.Streams[i]
		switch s.CodecType {
		case "video":
			if video == nil {
				video = s
			}
		case "audio":
			if !meta.HasAudio {
				meta.HasAudio = true
				meta.AudioCodec = s.CodecName
			}
		}
	}
	if video == nil {
		return nil, fmt.Errorf("no video stream found")
	}

	meta.Width = video.Width
	meta.Height = video.Height
	meta.Codec = video.CodecName
	meta.FPS = parseRate(video.AvgFrameRate)
	if meta.FPS == 0 {
		meta.FPS = parseRate(video.RFrameRate)
	}

	// First try video stream duration
	meta.Duration = parseFloat(video.Duration)

	// If stream duration is not available, try format duration
	if meta.Duration == 0 {
		meta.Duration = parseFloat(data.Format.Duration)
	}

	// If still no duration found, try calculating from frames and frame rate
	if meta.Duration == 0 && meta.FPS > 0 {
		meta.Duration = parseFloat(video.NbFrames) / meta.FPS
	}

	if meta.Duration == 0 {
		return nil, fmt.Errorf("could not determine video duration")
	}
	if meta.Width <= 0 || meta.Height <= 0 {
		return nil, fmt.Errorf("could not determine video dimensions")
	}

	meta.Bitrate = bitrate(data, video, meta.Duration)
	return meta, nil
}

// bitrate prefers the container figure, then the stream, then size over duration.
func bitrate(data probeData, video *probeStream, duration float64) int64 {
	if b, err := strconv.ParseInt(data.Format.BitRate, 10, 64); err == nil {
		return b
	}
	if b, err := strconv.ParseInt(video.BitRate, 10, 64); err == nil {
		return b
	}
	if size, err := strconv.ParseInt(data.Format.Size, 10, 64); err == nil && duration > 0 {
		return int64(float64(size*8) / duration)
	}
	return 0
}

func parseRate(rate string) float64 {
	nums := strings.Split(rate, "/")
	if len(nums) != 2 {
		return parseFloat(rate)
	}
	num, err1 := strconv.ParseFloat(nums[0], 64)
	den, err2 := strconv.ParseFloat(nums[1], 64)
	if err1 != nil || err2 != nil || den == 0 {
		return 0
	}
	return num / den
}

func parseFloat(s string) float64 {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
		return 0
	}
	return f
}

func GetOptimalThreadCount() int {
	cpuCount := runtime.NumCPU()
	// Use 75% of available cores to prevent overload
	return int(math.Max(1, float64(cpuCount)*0.75))
}

// EnsureExtension swaps any known video extension on filename for extension.
func EnsureExtension(filename, extension string) string {
	extensions := []string{".mp4", ".webm", ".mkv", ".mka", ".avi", ".mov"}
	for _, ext := range extensions {
		filename = strings.TrimSuffix(filename, ext)
	}
	return filename + extension
}
