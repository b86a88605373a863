package captions

import (
	"bufio"
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Load reads a caption document from disk. Files ending in .srt are parsed as
// SubRip; everything else is treated as JSON.
func Load(path string) (Track, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.Wrapf(ErrInvalidDocument, "caption file %s not found", path)
		}
		return nil, errors.WithStack(err)
	}
	defer f.Close()

	if strings.EqualFold(filepath.Ext(path), ".srt") {
		return ParseSRT(f)
	}
	return ParseJSON(f)
}

// ParseJSON accepts either a bare array of units or an object with a
// "subtitles" array.
func ParseJSON(r io.Reader) (Track, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.WithStack(err)
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return nil, errors.Wrap(ErrInvalidDocument, "empty document")
	}

	var track Track
	switch data[0] {
	case '[':
		if err := json.Unmarshal(data, &track); err != nil {
			return nil, errors.Wrapf(ErrInvalidDocument, "decode units: %v", err)
		}
	case '{':
		var doc struct {
			Subtitles *Track `json:"subtitles"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, errors.Wrapf(ErrInvalidDocument, "decode document: %v", err)
		}
		if doc.Subtitles == nil {
			return nil, errors.Wrap(ErrInvalidDocument, `missing "subtitles" array`)
		}
		track = *doc.Subtitles
	default:
		return nil, errors.Wrap(ErrInvalidDocument, "expected a JSON array or object")
	}

	if track == nil {
		track = Track{}
	}
	track.normalize()
	if err := track.Validate(); err != nil {
		return nil, err
	}
	return track, nil
}

var srtTiming = regexp.MustCompile(`(\d+):(\d{2}):(\d{2})[,.](\d{1,3})\s*-->\s*(\d+):(\d{2}):(\d{2})[,.](\d{1,3})`)

// ParseSRT reads SubRip cues. Multi-line cue text is joined with spaces.
func ParseSRT(r io.Reader) (Track, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	track := Track{}
	var (
		current *Unit
		lines   []string
		lineNo  int
	)
	flush := func() {
		if current != nil {
			current.Text = strings.Join(lines, " ")
			track = append(track, *current)
		}
		current = nil
		lines = nil
	}

	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(strings.TrimPrefix(scanner.Text(), "\xef\xbb\xbf"))
		if line == "" {
			flush()
			continue
		}
		if m := srtTiming.FindStringSubmatch(line); m != nil {
			flush()
			current = &Unit{
				StartTime: srtSeconds(m[1:5]),
				EndTime:   srtSeconds(m[5:9]),
			}
			continue
		}
		if current == nil {
			// cue index line
			if _, err := strconv.Atoi(line); err == nil {
				continue
			}
			return nil, errors.Wrapf(ErrInvalidDocument, "line %d: text outside a cue", lineNo)
		}
		lines = append(lines, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, errors.WithStack(err)
	}
	flush()

	if err := track.Validate(); err != nil {
		return nil, err
	}
	return track, nil
}

func srtSeconds(parts []string) float64 {
	h, _ := strconv.Atoi(parts[0])
	m, _ := strconv.Atoi(parts[1])
	s, _ := strconv.Atoi(parts[2])
	frac := parts[3]
	for len(frac) < 3 {
		frac += "0"
	}
	ms, _ := strconv.Atoi(frac)
	return float64(h*3600+m*60+s) + float64(ms)/1000
}
