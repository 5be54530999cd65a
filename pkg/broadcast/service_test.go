package broadcast

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type staticRegistry []string

func (r staticRegistry) Load(ctx context.Context) []string { return r }

type countingGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (g *countingGenerator) Topic(ctx context.Context) (string, error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.calls++
	if g.err != nil {
		return "", g.err
	}
	return "如果可以擁有一種超能力，你會選什麼？", nil
}

func (g *countingGenerator) count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakePusher struct {
	mu       sync.Mutex
	attempts []string
	texts    []string
	fail     map[string]bool
	panicFor string
	block    chan struct{}
	pushed   chan string
}

func (p *fakePusher) Push(ctx context.Context, to string, text string) error {
	if p.block != nil {
		<-p.block
	}
	p.mu.Lock()
	p.attempts = append(p.attempts, to)
	p.texts = append(p.texts, text)
	p.mu.Unlock()
	if p.pushed != nil {
		p.pushed <- to
	}
	if to == p.panicFor {
		panic("pusher exploded")
	}
	if p.fail[to] {
		return errors.New("LINE API error (status 400)")
	}
	return nil
}

func newService(t *testing.T, reg Registry, gen TopicGenerator, pusher Pusher, sched Schedule) *Service {
	t.Helper()
	s, err := NewService(reg, gen, pusher, sched)
	require.NoError(t, err)
	return s
}

func TestBroadcast_EmptyRegistry(t *testing.T) {
	gen := &countingGenerator{}
	pusher := &fakePusher{}
	s := newService(t, staticRegistry{}, gen, pusher, Schedule{})

	res := s.Broadcast(t.Context())

	assert.True(t, res.Skipped)
	assert.Equal(t, SkipNoUsers, res.SkipReason)
	assert.Zero(t, res.Total)
	assert.Zero(t, gen.count())
	assert.Empty(t, pusher.attempts)
	assert.NotEmpty(t, res.RunID)
}

func TestBroadcast_GenerationFailureSendsNothing(t *testing.T) {
	gen := &countingGenerator{err: errors.New("openai(overloaded): status=503")}
	pusher := &fakePusher{}
	s := newService(t, staticRegistry{"U1", "U2"}, gen, pusher, Schedule{})

	res := s.Broadcast(t.Context())

	assert.Equal(t, 1, gen.count())
	assert.Empty(t, pusher.attempts)
	assert.True(t, res.Skipped)
	assert.Equal(t, SkipGenerationFailed, res.SkipReason)
	assert.Zero(t, res.Sent)
	assert.Zero(t, res.Failed)
}

func TestBroadcast_OneFailingPush(t *testing.T) {
	users := staticRegistry{"U1", "U2", "U3", "U4"}
	gen := &countingGenerator{}
	pusher := &fakePusher{fail: map[string]bool{"U2": true}}
	s := newService(t, users, gen, pusher, Schedule{})

	res := s.Broadcast(t.Context())

	assert.Equal(t, 1, gen.count())
	assert.Equal(t, []string{"U1", "U2", "U3", "U4"}, pusher.attempts)
	assert.Equal(t, 4, res.Total)
	assert.Equal(t, 3, res.Sent)
	assert.Equal(t, 1, res.Failed)
	assert.False(t, res.Skipped)
	for _, text := range pusher.texts {
		assert.Equal(t, "如果可以擁有一種超能力，你會選什麼？", text)
	}

	last, ok := s.LastResult()
	require.True(t, ok)
	assert.Equal(t, res.RunID, last.RunID)
}

func TestBroadcast_PanickingPushIsIsolated(t *testing.T) {
	pusher := &fakePusher{panicFor: "U1"}
	s := newService(t, staticRegistry{"U1", "U2"}, &countingGenerator{}, pusher, Schedule{})

	res := s.Broadcast(t.Context())

	assert.Equal(t, 2, len(pusher.attempts))
	assert.Equal(t, 1, res.Sent)
	assert.Equal(t, 1, res.Failed)
}

func TestLastResult_BeforeFirstRun(t *testing.T) {
	s := newService(t, staticRegistry{}, &countingGenerator{}, &fakePusher{}, Schedule{})
	_, ok := s.LastResult()
	assert.False(t, ok)
}

func TestRunOnce_SkipsWhileRunning(t *testing.T) {
	pusher := &fakePusher{block: make(chan struct{})}
	s := newService(t, staticRegistry{"U1"}, &countingGenerator{}, pusher, Schedule{})

	done := make(chan Result)
	go func() {
		res, _ := s.RunOnce(context.Background())
		done <- res
	}()

	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, 5*time.Millisecond)
	_, ok := s.RunOnce(t.Context())
	assert.False(t, ok)

	close(pusher.block)
	res := <-done
	assert.Equal(t, 1, res.Sent)
}

func TestStartStop(t *testing.T) {
	gen := &countingGenerator{}
	pusher := &fakePusher{pushed: make(chan string, 4)}
	s := newService(t, staticRegistry{"U1"}, gen, pusher, Schedule{Interval: time.Hour})

	require.NoError(t, s.Start(t.Context()))
	assert.Error(t, s.Start(t.Context()))

	select {
	case to := <-pusher.pushed:
		assert.Equal(t, "U1", to)
	case <-time.After(2 * time.Second):
		t.Fatal("expected an immediate broadcast on start")
	}

	s.Stop()
	s.Stop()
	assert.Equal(t, 1, gen.count())
}

func TestStop_WaitsForInFlightBroadcast(t *testing.T) {
	pusher := &fakePusher{block: make(chan struct{})}
	s := newService(t, staticRegistry{"U1"}, &countingGenerator{}, pusher, Schedule{Interval: time.Hour})

	require.NoError(t, s.Start(t.Context()))
	require.Eventually(t, func() bool { return s.running.Load() }, time.Second, 5*time.Millisecond)

	stopped := make(chan struct{})
	go func() {
		s.Stop()
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while a push was still in flight")
	case <-time.After(100 * time.Millisecond):
	}

	close(pusher.block)

	select {
	case <-stopped:
	case <-time.After(2 * time.Second):
		t.Fatal("Stop did not return after the push finished")
	}

	pusher.mu.Lock()
	assert.Equal(t, []string{"U1"}, pusher.attempts)
	pusher.mu.Unlock()
	last, ok := s.LastResult()
	require.True(t, ok)
	assert.Equal(t, 1, last.Sent)
}

func TestNewService_Schedule(t *testing.T) {
	s := newService(t, staticRegistry{}, &countingGenerator{}, &fakePusher{}, Schedule{})
	assert.Equal(t, DefaultInterval, s.nextDelay(time.Now()))

	_, err := NewService(staticRegistry{}, &countingGenerator{}, &fakePusher{}, Schedule{Cron: "not a cron"})
	assert.Error(t, err)

	s = newService(t, staticRegistry{}, &countingGenerator{}, &fakePusher{}, Schedule{Cron: "*/5 * * * *"})
	ref := time.Date(2026, 3, 1, 10, 2, 0, 0, time.UTC)
	assert.Equal(t, 3*time.Minute, s.nextDelay(ref))
}
