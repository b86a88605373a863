package profile

import ffmpeg "github.com/u2takey/ffmpeg-go"

type WebMVP9 struct{}

func init() {
	Register(&WebMVP9{})
}

func (p *WebMVP9) GetName() string {
	return "webm-vp9"
}

func (p *WebMVP9) GetMimeType() string {
	return "video/webm; codecs=vp9"
}

func (p *WebMVP9) GetContainerFormat() string {
	return "webm"
}

func (p *WebMVP9) GetFileExtension() string {
	return ".webm"
}

func (p *WebMVP9) GetVideoCodec() string {
	return "libvpx-vp9"
}

func (p *WebMVP9) GetAudioCodec() string {
	return "libopus"
}

func (p *WebMVP9) GetVideoBitrate() int {
	return 15000000
}

func (p *WebMVP9) GetAudioBitrate() string {
	return "128k"
}

func (p *WebMVP9) GetEncoderOptions() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"deadline":     "good",
		"cpu-used":     4,
		"row-mt":       1,
		"tile-columns": 2,
	}
}
