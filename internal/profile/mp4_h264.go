package profile

import ffmpeg "github.com/u2takey/ffmpeg-go"

type MP4H264 struct{}

func init() {
	Register(&MP4H264{})
}

func (p *MP4H264) GetName() string {
	return "mp4-h264"
}

func (p *MP4H264) GetMimeType() string {
	return "video/mp4; codecs=avc1"
}

func (p *MP4H264) GetContainerFormat() string {
	return "mp4"
}

func (p *MP4H264) GetFileExtension() string {
	return ".mp4"
}

func (p *MP4H264) GetVideoCodec() string {
	return "libx264" // H.264 for better compatibility
}

func (p *MP4H264) GetAudioCodec() string {
	return "aac"
}

func (p *MP4H264) GetVideoBitrate() int {
	return 10000000
}

func (p *MP4H264) GetAudioBitrate() string {
	return "192k"
}

// Fragmented output so the muxer can write to a non-seekable pipe.
func (p *MP4H264) GetEncoderOptions() ffmpeg.KwArgs {
	return ffmpeg.KwArgs{
		"preset":    "medium",
		"profile:v": "high",
		"movflags":  "frag_keyframe+empty_moov+default_base_moof",
	}
}
