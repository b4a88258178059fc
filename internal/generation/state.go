// Package generation holds the per-user generation state that lets the mobile
// app survive being backgrounded mid-generation: the app re-reads its state on
// focus and either resumes the in-progress view or jumps straight to results.
package generation

import "time"

// Response formats accepted from the image provider.
const (
	FormatURL    = "url"
	FormatBase64 = "b64_json"
)

// State describes the single in-flight or just-completed generation for one
// user. A user has at most one State at a time; starting a new generation
// overwrites a completed or cleared one, while an active one blocks.
type State struct {
	UID             string    `json:"uid"`
	IsGenerating    bool      `json:"isGenerating"`
	IsCompleted     bool      `json:"isCompleted"`
	StartTime       time.Time `json:"startTime"`
	Prompt          string    `json:"prompt"`
	ReferenceImages []string  `json:"referenceImages,omitempty"`
	AspectRatio     string    `json:"aspectRatio,omitempty"`
	ImageCount      int       `json:"imageCount"`
	StreamEnabled   bool      `json:"streamEnabled"`
	ResponseFormat  string    `json:"responseFormat,omitempty"`
}

// Params are the caller-supplied fields of a new State.
type Params struct {
	UID             string
	Prompt          string
	ReferenceImages []string
	AspectRatio     string
	ImageCount      int
	StreamEnabled   bool
	ResponseFormat  string
}

// StateStore persists generation states keyed by uid.
type StateStore interface {
	// Start writes a fresh in-progress state for the user, overwriting a
	// completed one. Returns errs.ErrGenerationInProgress when an active
	// state already exists; the check and the write are atomic per uid.
	Start(params Params) error

	// Complete marks the user's state completed. It is idempotent: calling
	// it with no state, or on an already-completed state, is a no-op.
	Complete(uid string) error

	// Get returns the user's state, or nil if absent.
	Get(uid string) (*State, error)

	// HasActive reports whether an in-progress state exists for the user.
	HasActive(uid string) (bool, error)

	// HasCompleted reports whether a completed state exists for the user.
	HasCompleted(uid string) (bool, error)

	// Clear deletes the user's state. Clearing an absent state is a no-op.
	Clear(uid string) error
}
