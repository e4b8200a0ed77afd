package pipeline

import (
	"errors"
	"strings"
	"time"
)

// Request describes one generation job.
type Request struct {
	// Topic seeds the story; required.
	Topic string `json:"topic"`
	// CharacterCount is how many characters to design (default 2).
	CharacterCount int `json:"character_count,omitempty"`
	// CharacterHints optionally steers character design.
	CharacterHints string `json:"character_hints,omitempty"`
	// SceneCount is the target scene count (default 3). It also sizes the
	// fallback segmentation when the script carries no scene markers.
	SceneCount int `json:"scene_count,omitempty"`
	// LengthHint is a freeform length cue for the script (default "medium").
	LengthHint string `json:"length_hint,omitempty"`
}

const (
	defaultCharacterCount = 2
	defaultSceneCount     = 3
	defaultLengthHint     = "medium"

	maxCharacterCount = 10
	maxSceneCount     = 20
)

var (
	// ErrEmptyTopic rejects submissions without a topic.
	ErrEmptyTopic = errors.New("topic is required")
	// ErrBadRequest rejects out-of-range counts.
	ErrBadRequest = errors.New("invalid request")
)

// withDefaults fills unset fields.
func (r Request) withDefaults() Request {
	r.Topic = strings.TrimSpace(r.Topic)
	if r.CharacterCount == 0 {
		r.CharacterCount = defaultCharacterCount
	}
	if r.SceneCount == 0 {
		r.SceneCount = defaultSceneCount
	}
	if strings.TrimSpace(r.LengthHint) == "" {
		r.LengthHint = defaultLengthHint
	}
	return r
}

func (r Request) validate() error {
	if r.Topic == "" {
		return ErrEmptyTopic
	}
	if r.CharacterCount < 1 || r.CharacterCount > maxCharacterCount {
		return ErrBadRequest
	}
	if r.SceneCount < 1 || r.SceneCount > maxSceneCount {
		return ErrBadRequest
	}
	return nil
}

// Config bounds a run's execution.
type Config struct {
	// RunTimeout caps one full pipeline run.
	RunTimeout time.Duration
	// CallTimeout caps each individual model call.
	CallTimeout time.Duration
	// ScriptPrefixLimit bounds the script excerpt sent to character design.
	ScriptPrefixLimit int
}

func (c Config) withDefaults() Config {
	if c.RunTimeout <= 0 {
		c.RunTimeout = 30 * time.Minute
	}
	if c.CallTimeout <= 0 {
		c.CallTimeout = 2 * time.Minute
	}
	if c.ScriptPrefixLimit <= 0 {
		c.ScriptPrefixLimit = 1000
	}
	return c
}
