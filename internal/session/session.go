// Package session drives the platform tag-reader lifecycle (spec.md §4.7):
// start, detect, connect, timeout, cancel, invalidate. It enforces the
// single-session invariant and the watchdog timeout (60s by default,
// configurable per Config.ReaderTimeout), and is I/O only — the multi-APDU
// dance lives one layer up in the orchestrator.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chimpdao/chipauth/internal/apdu"
	"github.com/chimpdao/chipauth/internal/chiperr"
)

// Watchdog is the hard reader session timeout from the platform's session
// limit (spec.md §4.7/§5).
const Watchdog = 60 * time.Second

// EventKind discriminates the variants of Event.
type EventKind int

const (
	// TagReady reports a single connected tag, ready for APDU exchange.
	TagReady EventKind = iota
	// UserCancelled reports the caller invoked Cancel before a tag arrived.
	UserCancelled
	// Timeout reports the watchdog elapsed before a tag arrived.
	Timeout
	// Error reports a reader- or transport-layer failure.
	Error
)

// Event is what Begin delivers once the session reaches a terminal state.
type Event struct {
	Kind EventKind
	Tag  apdu.RawTransport // set only when Kind == TagReady
	Err  error             // set only when Kind == Error
}

// Poller is the platform-specific tag reader: it polls for ISO-14443 tags
// and reports connections through onTag, or multi-tag detections through
// onMultiple, until ctx is cancelled. Implementations are external to this
// package (the physical NFC/contactless reader driver).
type Poller interface {
	Poll(ctx context.Context, onTag func(apdu.RawTransport), onMultiple func()) error
}

// Session owns the single-session invariant: Begin refuses to run
// concurrently with an already-active session on the same Session value.
type Session struct {
	poller  Poller
	timeout time.Duration

	mu     sync.Mutex
	active bool
	cancel context.CancelFunc
}

// New wraps a platform Poller in the session lifecycle. timeout is the
// watchdog duration (spec.md §4.7/§5's ReaderTimeout); a zero or negative
// value falls back to Watchdog.
func New(poller Poller, timeout time.Duration) *Session {
	if timeout <= 0 {
		timeout = Watchdog
	}
	return &Session{poller: poller, timeout: timeout}
}

// Begin starts a single reader session and blocks until a tag connects, the
// caller cancels (via Cancel), the watchdog elapses, or the poller errors.
// It returns a *chiperr.Error only for Error-kind outcomes or when a session
// is already active;
// UserCancelled/Timeout are reported as Event.Kind, not as an error, since
// both are expected, non-exceptional terminations.
func (s *Session) Begin(ctx context.Context) (Event, error) {
	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return Event{}, chiperr.New(chiperr.Transport, "a reader session is already active")
	}
	s.active = true
	watchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	s.cancel = cancel
	s.mu.Unlock()

	defer func() {
		s.mu.Lock()
		s.active = false
		s.cancel = nil
		s.mu.Unlock()
		cancel()
	}()

	events := make(chan Event, 1)
	var once sync.Once
	emit := func(ev Event) {
		once.Do(func() { events <- ev })
	}

	go func() {
		err := s.poller.Poll(watchCtx,
			func(tag apdu.RawTransport) { emit(Event{Kind: TagReady, Tag: tag}) },
			func() { emit(Event{Kind: Error, Err: chiperr.New(chiperr.Validation, "multiple tags detected, use one tag")}) },
		)
		if err != nil {
			emit(Event{Kind: Error, Err: chiperr.Wrap(chiperr.Transport, "reader poll failed", err)})
		}
	}()

	select {
	case ev := <-events:
		if ev.Kind == Error {
			return ev, ev.Err
		}
		return ev, nil
	case <-watchCtx.Done():
		if errors.Is(watchCtx.Err(), context.DeadlineExceeded) {
			return Event{Kind: Timeout}, nil
		}
		return Event{Kind: UserCancelled}, nil
	}
}

// Cancel aborts an active session. It is a no-op if no session is active.
func (s *Session) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
	}
}

// Invalidate is called by the orchestrator after any APDU-layer failure or
// on card removal; it surfaces a short user-visible message and ensures the
// session is torn down before control returns to the caller (spec.md §5:
// "dangling sessions are a correctness bug").
func (s *Session) Invalidate(cause error) error {
	s.Cancel()
	return chiperr.Wrap(chiperr.Transport, "reader session invalidated", cause)
}

// IsActive reports whether a session is currently in progress.
func (s *Session) IsActive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

func (k EventKind) String() string {
	switch k {
	case TagReady:
		return "TagReady"
	case UserCancelled:
		return "UserCancelled"
	case Timeout:
		return "Timeout"
	case Error:
		return "Error"
	default:
		return fmt.Sprintf("EventKind(%d)", int(k))
	}
}
