package dialog

import (
	"math/rand"

	"github.com/google/uuid"

	"dinerd/internal/catalog"
)

// SessionConfig carries the per-conversation policy flags.
type SessionConfig struct {
	// AllowFeedback prefixes replies with a summary of preference changes.
	AllowFeedback bool
	// AllowPreferenceChange lets a later inform overwrite a known slot;
	// when false, the first stated value for a slot sticks.
	AllowPreferenceChange bool
	// ResponseDelay inserts a short random pause before each reply.
	ResponseDelay bool
	// Seed fixes the suggestion RNG; 0 means a random seed.
	Seed int64
}

// Session is the single mutable record threaded through the whole
// conversation: the catalog reference, the accumulated preferences and
// the snapshot used for change feedback. One conversation owns exactly
// one Session; nothing here is shared between conversations.
type Session struct {
	ID      string
	Catalog *catalog.Catalog

	Prefs    Preferences
	OldPrefs Preferences

	Config SessionConfig

	rng *rand.Rand
}

// NewSession creates the context for one conversation.
func NewSession(cat *catalog.Catalog, cfg SessionConfig) *Session {
	seed := cfg.Seed
	if seed == 0 {
		seed = rand.Int63()
	}
	return &Session{
		ID:       uuid.NewString(),
		Catalog:  cat,
		Prefs:    make(Preferences),
		OldPrefs: make(Preferences),
		Config:   cfg,
		rng:      rand.New(rand.NewSource(seed)),
	}
}

// SnapshotOld records the current preferences as the diffing baseline.
// Called immediately before every extraction that may change them.
func (s *Session) SnapshotOld() {
	s.OldPrefs = s.Prefs.Clone()
}

// syncOld marks the current preferences as already reported, so a change
// is fed back to the user once rather than on every following turn.
func (s *Session) syncOld() {
	s.OldPrefs = s.Prefs.Clone()
}
