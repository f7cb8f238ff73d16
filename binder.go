package stagedit

import (
	"fmt"
	"sync"

	"github.com/rs/zerolog"
)

// Binder constructs sessions from shared configuration and tracks the live
// ones by bound-record identity. It is the process's composition point: one
// backend, one state-encoder key, one logger, many independent forms.
type Binder struct {
	mu       sync.Mutex
	backend  Backend
	logger   zerolog.Logger
	encoder  *Encoder
	sessions map[string]*Session

	// OnError is called when any bound session's commit is rejected.
	// Customize this to report failures application-wide; each session
	// still surfaces the failure in its own save-error slot.
	OnError func(*Session, error)
}

// NewBinder creates a binder over backend. stateKey keys the overlay state
// encoder. Panics if the encoder cannot be constructed.
func NewBinder(backend Backend, stateKey []byte) *Binder {
	if backend == nil {
		panic(ErrNotInitialized)
	}
	enc, err := NewEncoder(stateKey)
	if err != nil {
		panic(fmt.Sprintf("stagedit: failed to create encoder: %v", err))
	}
	return &Binder{
		backend:  backend,
		logger:   zerolog.Nop(),
		encoder:  enc,
		sessions: make(map[string]*Session),
	}
}

// WithLogger sets the logger handed to every session the binder creates.
func (b *Binder) WithLogger(logger zerolog.Logger) *Binder {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logger = logger
	return b
}

// Encoder returns the binder's state encoder, for session ExportState and
// RestoreState calls.
func (b *Binder) Encoder() *Encoder {
	return b.encoder
}

// Edit creates a session bound to view. Panics when another live session
// is already bound to the same identity; a record has one form at a time.
func (b *Binder) Edit(view View, mode Mode, trigger TriggerPolicy) *Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := view.ID()
	if _, exists := b.sessions[id]; exists {
		panic(fmt.Sprintf("stagedit: session collision for view %q", id))
	}

	s := NewSession(Config{
		Backend: b.backend,
		View:    view,
		Mode:    mode,
		Trigger: trigger,
		Logger:  &b.logger,
	})
	s.onError = b.errorHook(s)
	b.sessions[id] = s
	return s
}

// Create creates a create-mode session over model. Once its first submit
// succeeds the session is indexed under the new record's identity like any
// edit session.
func (b *Binder) Create(model Model, defaults map[string]any) *Session {
	b.mu.Lock()
	defer b.mu.Unlock()

	var s *Session
	s = NewSession(Config{
		Backend:  b.backend,
		Model:    model,
		Defaults: defaults,
		Logger:   &b.logger,
		OnCreated: func(view View) {
			b.mu.Lock()
			b.sessions[view.ID()] = s
			b.mu.Unlock()
		},
	})
	s.onError = b.errorHook(s)
	return s
}

// Release closes a session and drops it from the binder's index.
func (b *Binder) Release(s *Session) {
	b.mu.Lock()
	for id, tracked := range b.sessions {
		if tracked == s {
			delete(b.sessions, id)
			break
		}
	}
	b.mu.Unlock()
	s.Close()
}

// ReleaseAll closes every tracked session. Each view subscription is
// released exactly once; double release is a no-op at the session level.
func (b *Binder) ReleaseAll() {
	b.mu.Lock()
	sessions := make([]*Session, 0, len(b.sessions))
	for _, s := range b.sessions {
		sessions = append(sessions, s)
	}
	b.sessions = make(map[string]*Session)
	b.mu.Unlock()

	for _, s := range sessions {
		s.Close()
	}
}

func (b *Binder) errorHook(s *Session) func(error) {
	return func(err error) {
		if b.OnError != nil {
			b.OnError(s, err)
		}
	}
}
