package tracker

import (
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
)

// =============================================================================
// Request Tracker Test Suite
// =============================================================================
// The tracker is the only owner of timers. Tests drive a fake clock and a
// manual timer factory so every firing is explicit.

type TrackerSuite struct {
	suite.Suite
	now     time.Time
	timers  *fakeTimers
	tracker *Tracker
}

func TestTrackerSuite(t *testing.T) {
	suite.Run(t, new(TrackerSuite))
}

func (s *TrackerSuite) SetupTest() {
	s.now = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	s.timers = &fakeTimers{}
	s.tracker = New(
		WithClock(func() time.Time { return s.now }),
		WithAfterFunc(s.timers.AfterFunc),
		WithMaxAttempts(3),
	)
}

func pending(groupID, userID int64, code string) *models.PendingVerification {
	return &models.PendingVerification{
		Request: models.JoinRequest{GroupID: id.GroupID(groupID), UserID: id.UserID(userID), Flag: "flag-" + code},
		Code:    code,
	}
}

func (s *TrackerSuite) TestBeginReplacesAndDisarms() {
	first := pending(1, 2, "AAAA")
	second := pending(1, 2, "BBBB")
	key := first.Key()

	s.False(s.tracker.Begin(first))
	s.True(s.tracker.ScheduleTimeout(key, time.Minute, func(*models.PendingVerification) {}))

	s.True(s.tracker.Begin(second), "second request for the key replaces the first")
	s.True(s.timers.at(0).stopped, "replaced entry's timer is stopped")

	var fired []*models.PendingVerification
	s.True(s.tracker.ScheduleTimeout(key, time.Minute, func(pv *models.PendingVerification) {
		fired = append(fired, pv)
	}))

	s.Equal(1, s.tracker.Len())
	got, ok := s.tracker.Get(key)
	s.True(ok)
	s.Equal("BBBB", got.Code)

	s.timers.at(0).fire()
	s.Empty(fired, "stale timer is a no-op")
	s.timers.at(1).fire()
	s.Equal([]*models.PendingVerification{second}, fired)
	s.Zero(s.tracker.Len())
}

func (s *TrackerSuite) TestTimeoutFiresOnce() {
	pv := pending(1, 2, "AAAA")
	s.tracker.Begin(pv)

	var calls atomic.Int32
	s.tracker.ScheduleTimeout(pv.Key(), time.Minute, func(*models.PendingVerification) { calls.Add(1) })

	s.timers.at(0).fire()
	s.timers.at(0).fire()

	s.Equal(int32(1), calls.Load())
	_, ok := s.tracker.Get(pv.Key())
	s.False(ok)
}

func (s *TrackerSuite) TestEndBeforeTimeout() {
	pv := pending(1, 2, "AAAA")
	s.tracker.Begin(pv)
	var fired bool
	s.tracker.ScheduleTimeout(pv.Key(), time.Minute, func(*models.PendingVerification) { fired = true })

	got, ok := s.tracker.End(pv.Key())
	s.True(ok)
	s.Same(pv, got)
	s.True(s.timers.at(0).stopped)

	s.timers.at(0).fire()
	s.False(fired, "callback racing a completed removal does nothing")

	_, ok = s.tracker.End(pv.Key())
	s.False(ok, "only one caller wins the removal")
}

func (s *TrackerSuite) TestEndIf() {
	first := pending(1, 2, "AAAA")
	second := pending(1, 2, "BBBB")
	s.tracker.Begin(first)
	s.tracker.Begin(second)

	s.False(s.tracker.EndIf(first), "replaced entry is not removed on its behalf")
	s.True(s.tracker.EndIf(second))
	s.Zero(s.tracker.Len())
}

func (s *TrackerSuite) TestScheduleWithoutEntry() {
	s.False(s.tracker.ScheduleTimeout(models.KeyOf(9, 9), time.Minute, func(*models.PendingVerification) {}))
	s.Empty(s.timers.all())
}

func (s *TrackerSuite) TestRescheduleDisarmsPreviousTimer() {
	pv := pending(1, 2, "AAAA")
	s.tracker.Begin(pv)
	var calls int
	onFire := func(*models.PendingVerification) { calls++ }

	s.tracker.ScheduleTimeout(pv.Key(), time.Minute, onFire)
	s.tracker.ScheduleTimeout(pv.Key(), 2*time.Minute, onFire)

	s.timers.at(0).fire()
	s.Zero(calls)
	s.Equal(2*time.Minute, s.timers.at(1).d)
	s.timers.at(1).fire()
	s.Equal(1, calls)
}

func (s *TrackerSuite) TestRecordAttempt() {
	key := models.KeyOf(1, 2)

	s.Run("blocks once the maximum is reached", func() {
		s.True(s.tracker.RecordAttempt(key))
		s.True(s.tracker.RecordAttempt(key))
		s.True(s.tracker.RecordAttempt(key))
		s.False(s.tracker.RecordAttempt(key))
		s.Equal(3, s.tracker.Attempts(key).Count)
	})

	s.Run("amnesty after an hour idle", func() {
		s.now = s.now.Add(time.Hour + time.Second)

		s.True(s.tracker.RecordAttempt(key))
		s.Equal(1, s.tracker.Attempts(key).Count)
	})

	s.Run("exactly one hour is not yet amnesty", func() {
		other := models.KeyOf(1, 3)
		for range 3 {
			s.True(s.tracker.RecordAttempt(other))
		}
		s.now = s.now.Add(time.Hour)

		s.False(s.tracker.RecordAttempt(other))
	})

	s.Run("clear resets", func() {
		s.tracker.ClearAttempts(key)

		s.Zero(s.tracker.Attempts(key).Count)
	})
}

func (s *TrackerSuite) TestExhausted() {
	key := models.KeyOf(4, 5)

	s.False(s.tracker.Exhausted(key), "no counter yet")
	for range 3 {
		s.tracker.RecordAttempt(key)
	}
	s.True(s.tracker.Exhausted(key))
	s.Equal(3, s.tracker.Attempts(key).Count, "checking does not count")

	s.now = s.now.Add(time.Hour + time.Second)
	s.False(s.tracker.Exhausted(key), "amnesty applies to the check too")
}

func (s *TrackerSuite) TestPruneAttempts() {
	s.tracker.RecordAttempt(models.KeyOf(1, 1))
	s.now = s.now.Add(30 * time.Minute)
	s.tracker.RecordAttempt(models.KeyOf(1, 2))

	s.Equal(1, s.tracker.PruneAttemptsAt(s.now.Add(31*time.Minute)))
	s.Equal(1, s.tracker.Attempts(models.KeyOf(1, 2)).Count)
}

func (s *TrackerSuite) TestDrainAll() {
	for i := range 5 {
		pv := pending(1, int64(i+1), "AAAA")
		s.tracker.Begin(pv)
		s.tracker.ScheduleTimeout(pv.Key(), time.Minute, func(*models.PendingVerification) {
			s.Fail("drained entry must not fire")
		})
		s.tracker.RecordAttempt(pv.Key())
	}

	s.Equal(5, s.tracker.DrainAll())

	s.Zero(s.tracker.Len())
	for _, tm := range s.timers.all() {
		s.True(tm.stopped)
		tm.fire()
	}
	s.Zero(s.tracker.Attempts(models.KeyOf(1, 1)).Count)
}

func (s *TrackerSuite) TestConcurrentEndAndTimeout() {
	for range 100 {
		tr := New()
		pv := pending(1, 2, "AAAA")
		tr.Begin(pv)

		var resolutions atomic.Int32
		fired := make(chan struct{}, 1)
		tr.ScheduleTimeout(pv.Key(), time.Microsecond, func(*models.PendingVerification) {
			resolutions.Add(1)
			fired <- struct{}{}
		})
		if _, ok := tr.End(pv.Key()); ok {
			resolutions.Add(1)
		} else {
			<-fired
		}

		s.Equal(int32(1), resolutions.Load())
	}
}

func (s *TrackerSuite) TestRealTimerFires() {
	tr := New()
	pv := pending(1, 2, "AAAA")
	tr.Begin(pv)

	done := make(chan *models.PendingVerification, 1)
	tr.ScheduleTimeout(pv.Key(), 5*time.Millisecond, func(got *models.PendingVerification) { done <- got })

	select {
	case got := <-done:
		s.Same(pv, got)
	case <-time.After(time.Second):
		s.Fail("timer did not fire")
	}
}

// fakeTimers records every scheduled callback so the test decides when it runs.
type fakeTimers struct {
	mu     sync.Mutex
	timers []*fakeTimer
}

type fakeTimer struct {
	d       time.Duration
	f       func()
	stopped bool
}

func (ft *fakeTimers) AfterFunc(d time.Duration, f func()) Timer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	t := &fakeTimer{d: d, f: f}
	ft.timers = append(ft.timers, t)
	return t
}

func (ft *fakeTimers) at(i int) *fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return ft.timers[i]
}

func (ft *fakeTimers) all() []*fakeTimer {
	ft.mu.Lock()
	defer ft.mu.Unlock()
	return append([]*fakeTimer(nil), ft.timers...)
}

func (t *fakeTimer) Stop() bool {
	was := !t.stopped
	t.stopped = true
	return was
}

// fire runs the callback regardless of Stop, the way a real timer can when
// Stop loses the race with expiry.
func (t *fakeTimer) fire() {
	t.f()
}
