package profile

import ffmpeg "github.com/u2takey/ffmpeg-go"

type WebMVP8 struct{}

func init() {
	Register(&WebMVP8{})
}

func (p *WebMVP8) GetName() string {
	return "webm-vp8"
}

func (p *WebMVP8) GetMimeType() string {
	return "video/webm; codecs=vp8"
}

func (p *WebMVP8) GetContainerFormat() string {
	return "webm"
}

func (p *WebMVP8) GetFileExtension() string {
	return ".webm"
}

func (p *WebMVP8) GetVideoCodec() string {
	return "libvpx"
}

func (p *WebMVP8) GetAudioCodec() string {
	return "libopus"
}

func (p *WebMVP8) GetVideoBitrate() int {
	return 8000000
}

func (p *WebMVP8) GetAudioBitrate() string {
	return "128k"
}

func (p *WebMVP8) GetEncoderOptions() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"deadline": "good",
		"cpu-used": 4,
	}
}
