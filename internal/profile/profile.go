package profile

import (
	"fmt"
	"sort"
	"strings"

	ffmpeg "github.com/u2takey/ffmpeg-go"
)

// Profile defines a recorder target: container, codecs and bitrate.
type Profile interface {
	// GetName returns the profile name
	GetName() string

	// GetMimeType returns the recorder mime/codec string, e.g. "video/webm; codecs=vp9"
	GetMimeType() string

	// GetContainerFormat returns the ffmpeg muxer name
	GetContainerFormat() string

	// GetFileExtension returns the artifact extension including the dot
	GetFileExtension() string

	// GetVideoCodec returns the ffmpeg video encoder
	GetVideoCodec() string

	// GetAudioCodec returns the ffmpeg audio encoder used when muxing audio back in
	GetAudioCodec() string

	// GetVideoBitrate returns the target video bitrate in bits per second
	GetVideoBitrate() int

	// GetAudioBitrate returns the audio bitrate, e.g. "128k"
	GetAudioBitrate() string

	// GetEncoderOptions returns extra encoder flags
	GetEncoderOptions() ffmpeg.KwArgs
}

// DefaultName is the profile used when none is configured.
const DefaultName = "webm-vp9"

var profiles = make(map[string]Profile)

// Register adds a profile to the registry
func Register(p Profile) {
	profiles[p.GetName()] = p
}

// Get returns a profile by name
func Get(name string) (Profile, error) {
	if strings.TrimSpace(name) == "" {
		name = DefaultName
	}
	p, ok := profiles[name]
	if !ok {
		return nil, fmt.Errorf("unsupported recorder profile: %s", name)
	}
	return p, nil
}

// ForMimeType finds the profile whose mime string matches, ignoring case and spacing.
func ForMimeType(mime string) (Profile, error) {
	want := normalizeMime(mime)
	for _, name := range GetSupportedProfiles() {
		if normalizeMime(profiles[name].GetMimeType()) == want {
			return profiles[name], nil
		}
	}
	return nil, fmt.Errorf("unsupported recorder mime type: %s", mime)
}

// GetSupportedProfiles returns the registered profile names, sorted
func GetSupportedProfiles() []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// FormatBitrate renders bps in ffmpeg's k/M notation.
func FormatBitrate(bps int) string {
	switch {
	case bps >= 1000000 && bps%1000000 == 0:
		return fmt.Sprintf("%dM", bps/1000000)
	case bps >= 1000:
		return fmt.Sprintf("%dk", bps/1000)
	}
	return fmt.Sprintf("%d", bps)
}

func normalizeMime(m string) string {
	return strings.ToLower(strings.Join(strings.Fields(strings.ReplaceAll(m, ";", "; ")), " "))
}
