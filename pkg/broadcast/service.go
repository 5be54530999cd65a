// TopicBot - LINE topic bot
// License: MIT
//
// Copyright (c) 2026 TopicBot contributors

package broadcast

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/adhocore/gronx"
	"github.com/google/uuid"

	"github.com/zhaopengme/topicbot/pkg/logger"
)

const DefaultInterval = 10 * time.Minute

type Registry interface {
	Load(ctx context.Context) []string
}

// TopicGenerator returns an error instead of fallback text, so a failed
// generation is never pushed to users.
type TopicGenerator interface {
	Topic(ctx context.Context) (string, error)
}

type Pusher interface {
	Push(ctx context.Context, to string, text string) error
}

const (
	SkipNoUsers          = "no registered users"
	SkipGenerationFailed = "topic generation failed"
)

// Result summarizes one broadcast run. SkipReason is set when nothing was
// pushed on purpose.
type Result struct {
	RunID      string
	Total      int
	Sent       int
	Failed     int
	Skipped    bool
	SkipReason string
	Started    time.Time
	Duration   time.Duration
}

// Schedule picks the cadence. A non-empty Cron wins over Interval.
type Schedule struct {
	Interval time.Duration
	Cron     string
}

// Service pushes one freshly generated topic to every registered user, on
// start and then on every scheduled tick.
type Service struct {
	registry  Registry
	generator TopicGenerator
	pusher    Pusher
	schedule  Schedule

	running atomic.Bool

	mu       sync.Mutex
	last     *Result
	stopChan chan struct{}
	wg       sync.WaitGroup
}

func NewService(registry Registry, generator TopicGenerator, pusher Pusher, schedule Schedule) (*Service, error) {
	if schedule.Cron != "" {
		if !gronx.New().IsValid(schedule.Cron) {
			return nil, fmt.Errorf("invalid cron expression %q", schedule.Cron)
		}
	} else if schedule.Interval <= 0 {
		schedule.Interval = DefaultInterval
	}
	return &Service{
		registry:  registry,
		generator: generator,
		pusher:    pusher,
		schedule:  schedule,
	}, nil
}

// Broadcast runs once. An empty registry skips generation entirely and a
// failed generation skips the pushes. A failing push is counted and never
// stops the remaining ones.
func (s *Service) Broadcast(ctx context.Context) Result {
	res := Result{RunID: uuid.NewString(), Started: time.Now()}
	defer func() {
		res.Duration = time.Since(res.Started)
		s.mu.Lock()
		last := res
		s.last = &last
		s.mu.Unlock()
	}()

	users := s.registry.Load(ctx)
	if len(users) == 0 {
		res.Skipped = true
		res.SkipReason = SkipNoUsers
		logger.InfoCF("broadcast", "No registered users, skipping broadcast", map[string]interface{}{
			"run_id": res.RunID,
		})
		return res
	}

	topic, err := s.generator.Topic(ctx)
	if err != nil {
		res.Skipped = true
		res.SkipReason = SkipGenerationFailed
		logger.WarnCF("broadcast", "Topic generation failed, skipping broadcast", map[string]interface{}{
			"run_id": res.RunID,
			"users":  len(users),
			"error":  err.Error(),
		})
		return res
	}
	res.Total = len(users)

	for _, userID := range users {
		if err := s.pushOne(ctx, userID, topic); err != nil {
			res.Failed++
			logger.WarnCF("broadcast", "Push failed", map[string]interface{}{
				"run_id":  res.RunID,
				"user_id": userID,
				"error":   err.Error(),
			})
			continue
		}
		res.Sent++
	}

	logger.InfoCF("broadcast", "Broadcast finished", map[string]interface{}{
		"run_id": res.RunID,
		"total":  res.Total,
		"sent":   res.Sent,
		"failed": res.Failed,
	})
	return res
}

func (s *Service) pushOne(ctx context.Context, userID, topic string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("push panicked: %v", r)
		}
	}()
	return s.pusher.Push(ctx, userID, topic)
}

// LastResult returns the most recent run, or false before the first one.
func (s *Service) LastResult() (Result, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return Result{}, false
	}
	return *s.last, true
}

// Start fires a broadcast immediately and then on every tick until ctx is
// done or Stop is called.
func (s *Service) Start(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stopChan != nil {
		return fmt.Errorf("broadcast service already started")
	}
	s.stopChan = make(chan struct{})

	logger.InfoCF("broadcast", "Broadcast scheduler started", map[string]interface{}{
		"interval": s.schedule.Interval.String(),
		"cron":     s.schedule.Cron,
	})

	s.wg.Add(1)
	go s.runLoop(ctx, s.stopChan)
	return nil
}

// Stop ends scheduling and waits for an in-flight broadcast to finish.
func (s *Service) Stop() {
	s.mu.Lock()
	if s.stopChan == nil {
		s.mu.Unlock()
		return
	}
	close(s.stopChan)
	s.stopChan = nil
	s.mu.Unlock()

	s.wg.Wait()
	logger.InfoC("broadcast", "Broadcast scheduler stopped")
}

func (s *Service) runLoop(ctx context.Context, stop <-chan struct{}) {
	defer s.wg.Done()

	s.tick(ctx)
	for {
		timer := time.NewTimer(s.nextDelay(time.Now()))
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			s.tick(ctx)
		}
	}
}

// tick runs a broadcast unless one is already in progress.
func (s *Service) tick(ctx context.Context) {
	if _, ok := s.RunOnce(ctx); !ok {
		logger.DebugC("broadcast", "Skipping tick, broadcast already running")
	}
}

// RunOnce is Broadcast behind the same overlap guard the scheduler uses.
func (s *Service) RunOnce(ctx context.Context) (Result, bool) {
	if !s.running.CompareAndSwap(false, true) {
		return Result{}, false
	}
	defer s.running.Store(false)
	return s.Broadcast(ctx), true
}

func (s *Service) nextDelay(now time.Time) time.Duration {
	if s.schedule.Cron == "" {
		return s.schedule.Interval
	}
	next, err := gronx.NextTickAfter(s.schedule.Cron, now, false)
	if err != nil {
		logger.WarnCF("broadcast", "Cron evaluation failed, using default interval", map[string]interface{}{
			"cron":  s.schedule.Cron,
			"error": err.Error(),
		})
		return DefaultInterval
	}
	return next.Sub(now)
}
