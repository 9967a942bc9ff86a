package session

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/padnote/pkg/core"
)

type fakeSession struct {
	mu     sync.Mutex
	calls  []Args
	closed bool
}

func (s *fakeSession) Parse(_ context.Context, command, argument string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls = append(s.calls, Args{Command: command, Argument: argument})
	if command != CommandAction && command != CommandActionShort {
		return errors.New("unknown command")
	}
	return nil
}

func (s *fakeSession) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return nil
}

func (s *fakeSession) Calls() []Args {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Args(nil), s.calls...)
}

func (s *fakeSession) Closed() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.closed
}

// socketPath keeps the path short; unix socket paths are length limited.
func socketPath(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "pn")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })
	return filepath.Join(dir, "s.sock")
}

type served struct {
	coord   *Coordinator
	session *fakeSession
	boots   *atomic.Int32
	cancel  context.CancelFunc
	done    chan struct{}
	outcome Outcome
	err     error
}

func serve(t *testing.T, socket string, args Args) *served {
	t.Helper()
	s := &served{
		coord:   New(socket, WithForwardTimeout(time.Second)),
		session: &fakeSession{},
		boots:   &atomic.Int32{},
		done:    make(chan struct{}),
	}
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	go func() {
		defer close(s.done)
		s.outcome, s.err = s.coord.Run(ctx, args, func(context.Context, *Loop) (Session, error) {
			s.boots.Add(1)
			return s.session, nil
		})
	}()
	t.Cleanup(s.stop)
	return s
}

func (s *served) stop() {
	s.cancel()
	<-s.done
}

func waitHealthy(t *testing.T, socket string) {
	t.Helper()
	client := NewClient(socket, time.Second)
	require.Eventually(t, func() bool {
		_, err := client.Health(context.Background())
		return err == nil
	}, 3*time.Second, 10*time.Millisecond)
}

func TestForwardWithoutSessionIsUnreachable(t *testing.T) {
	c := New(socketPath(t))

	err := c.Forward(context.Background(), ActionArgs("New note"))

	assert.ErrorIs(t, err, core.ErrRemoteUnreachable)
}

func TestRunServesAndAppliesInitialArgs(t *testing.T) {
	socket := socketPath(t)
	s := serve(t, socket, ActionArgs("Toggle actives"))
	waitHealthy(t, socket)

	assert.Equal(t, []Args{{Command: "--action", Argument: "Toggle actives"}}, s.session.Calls())
	info, err := os.Stat(socket)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	state := s.coord.State().(CoordinatorState)
	assert.Equal(t, "server", state.Role)
	assert.NotNil(t, state.StartedAt)

	s.stop()
	require.NoError(t, s.err)
	assert.Equal(t, OutcomeServed, s.outcome)
	assert.True(t, s.session.Closed())
	assert.NoFileExists(t, socket)
}

func TestSecondProcessForwards(t *testing.T) {
	socket := socketPath(t)
	first := serve(t, socket, Args{})
	waitHealthy(t, socket)

	second := New(socket)
	booted := false
	outcome, err := second.Run(context.Background(), ActionArgs("New note"), func(context.Context, *Loop) (Session, error) {
		booted = true
		return &fakeSession{}, nil
	})

	require.NoError(t, err)
	assert.Equal(t, OutcomeForwarded, outcome)
	assert.False(t, booted)
	assert.Equal(t, []Args{{Command: "--action", Argument: "New note"}}, first.session.Calls())
	assert.Equal(t, 1, first.coord.State().(CoordinatorState).Requests)
}

func TestRemoteErrorsStillCountAsForwarded(t *testing.T) {
	socket := socketPath(t)
	first := serve(t, socket, Args{})
	waitHealthy(t, socket)

	err := New(socket).Forward(context.Background(), Args{Command: "--bogus", Argument: "x"})

	assert.NoError(t, err)
	assert.Len(t, first.session.Calls(), 1)
}

func TestRunRemovesStaleSocket(t *testing.T) {
	socket := socketPath(t)
	ln, err := net.Listen("unix", socket)
	require.NoError(t, err)
	ln.(*net.UnixListener).SetUnlinkOnClose(false)
	require.NoError(t, ln.Close())
	require.FileExists(t, socket)

	s := serve(t, socket, Args{})
	waitHealthy(t, socket)

	assert.Equal(t, int32(1), s.boots.Load())
}

func TestRunRefusesNonSocketFile(t *testing.T) {
	socket := socketPath(t)
	require.NoError(t, os.WriteFile(socket, []byte("not a socket"), 0o600))

	_, err := New(socket, WithForwardTimeout(200*time.Millisecond)).Run(context.Background(), Args{}, func(context.Context, *Loop) (Session, error) {
		t.Fatal("must not boot")
		return nil, nil
	})

	assert.Error(t, err)
	assert.FileExists(t, socket)
}

func TestBootFailureReleasesSocket(t *testing.T) {
	socket := socketPath(t)
	boom := errors.New("boom")

	_, err := New(socket).Run(context.Background(), Args{}, func(context.Context, *Loop) (Session, error) {
		return nil, boom
	})

	assert.ErrorIs(t, err, boom)
	assert.NoFileExists(t, socket)
}

func TestTwoSimultaneousStartsYieldOneSession(t *testing.T) {
	socket := socketPath(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var boots atomic.Int32
	sess := &fakeSession{}
	boot := func(context.Context, *Loop) (Session, error) {
		boots.Add(1)
		return sess, nil
	}

	type result struct {
		outcome Outcome
		err     error
	}
	results := make(chan result, 2)
	start := make(chan struct{})
	for i := 0; i < 2; i++ {
		go func() {
			<-start
			c := New(socket, WithForwardTimeout(2*time.Second))
			outcome, err := c.Run(ctx, ActionArgs("New note"), boot)
			results <- result{outcome, err}
		}()
	}
	close(start)

	// The forwarding process returns on its own; the serving one runs until
	// the context is cancelled.
	var first result
	select {
	case first = <-results:
	case <-time.After(5 * time.Second):
		t.Fatal("no process finished")
	}
	require.NoError(t, first.err)
	assert.Equal(t, OutcomeForwarded, first.outcome)
	assert.Equal(t, int32(1), boots.Load())
	require.Eventually(t, func() bool { return len(sess.Calls()) == 2 }, 2*time.Second, 10*time.Millisecond)

	cancel()
	second := <-results
	require.NoError(t, second.err)
	assert.Equal(t, OutcomeServed, second.outcome)
}
