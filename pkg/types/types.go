package types

import "strings"

type DisplayMode string

const (
	DisplayModeLines      DisplayMode = "lines"
	DisplayModeWords      DisplayMode = "words"
	DisplayModeWordGroups DisplayMode = "wordgroups"
)

// ParseDisplayMode accepts the canonical names plus a few common spellings.
func ParseDisplayMode(s string) (DisplayMode, bool) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "lines", "line":
		return DisplayModeLines, true
	case "words", "word":
		return DisplayModeWords, true
	case "wordgroups", "word-groups", "word_groups", "groups":
		return DisplayModeWordGroups, true
	}
	return "", false
}

type StorageBackend string

const (
	StorageBackendLocal StorageBackend = "local"
	StorageBackendS3    StorageBackend = "s3"
)

type SessionState string

const (
	SessionStateIdle       SessionState = "idle"
	SessionStateRecording  SessionState = "recording"
	SessionStateFinalizing SessionState = "finalizing"
	SessionStateDone       SessionState = "done"
	SessionStateFailed     SessionState = "failed"
)
