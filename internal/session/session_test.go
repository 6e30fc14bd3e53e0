package session

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/chimpdao/chipauth/internal/apdu"
)

type fakeRaw struct{}

func (fakeRaw) Transmit(_ context.Context, _ []byte) ([]byte, error) { return nil, nil }

type scriptedPoller struct {
	onStart func(ctx context.Context, onTag func(apdu.RawTransport), onMultiple func())
}

func (p scriptedPoller) Poll(ctx context.Context, onTag func(apdu.RawTransport), onMultiple func()) error {
	p.onStart(ctx, onTag, onMultiple)
	<-ctx.Done()
	return nil
}

func TestBeginTagReady(t *testing.T) {
	poller := scriptedPoller{onStart: func(_ context.Context, onTag func(apdu.RawTransport), _ func()) {
		go onTag(fakeRaw{})
	}}
	s := New(poller, 0)

	ev, err := s.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, TagReady, ev.Kind)
	assert.NotNil(t, ev.Tag)
	assert.False(t, s.IsActive())
}

func TestBeginRejectsConcurrentSession(t *testing.T) {
	block := make(chan struct{})
	poller := scriptedPoller{onStart: func(ctx context.Context, _ func(apdu.RawTransport), _ func()) {
		go func() {
			<-block
		}()
	}}
	s := New(poller, 0)

	go func() { _, _ = s.Begin(context.Background()) }()
	time.Sleep(20 * time.Millisecond)

	_, err := s.Begin(context.Background())
	require.Error(t, err)
	close(block)
	s.Cancel()
}

func TestBeginUserCancelled(t *testing.T) {
	poller := scriptedPoller{onStart: func(_ context.Context, _ func(apdu.RawTransport), _ func()) {}}
	s := New(poller, 0)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	ev, err := s.Begin(ctx)
	require.NoError(t, err)
	assert.Equal(t, UserCancelled, ev.Kind)
}

func TestBeginMultiTagInvalidates(t *testing.T) {
	poller := scriptedPoller{onStart: func(_ context.Context, _ func(apdu.RawTransport), onMultiple func()) {
		go onMultiple()
	}}
	s := New(poller, 0)

	ev, err := s.Begin(context.Background())
	require.Error(t, err)
	assert.Equal(t, Error, ev.Kind)
}

func TestBeginHonorsConfiguredTimeout(t *testing.T) {
	poller := scriptedPoller{onStart: func(_ context.Context, _ func(apdu.RawTransport), _ func()) {}}
	s := New(poller, 10*time.Millisecond)

	start := time.Now()
	ev, err := s.Begin(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Timeout, ev.Kind)
	assert.Less(t, time.Since(start), Watchdog)
}

func TestInvalidateWrapsCause(t *testing.T) {
	s := New(scriptedPoller{onStart: func(context.Context, func(apdu.RawTransport), func()) {}}, 0)
	cause := errors.New("card removed")
	err := s.Invalidate(cause)
	require.Error(t, err)
	assert.ErrorIs(t, err, cause)
}
