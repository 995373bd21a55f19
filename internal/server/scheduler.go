package server

import (
	"log"
	"sync"
	"time"
)

// scheduler runs the periodic sweep that force-completes rounds whose timer
// elapsed without every player submitting. One scheduler runs per process;
// the completion transition itself is guarded by the store, so concurrent
// sweeps from multiple instances are safe.
type scheduler struct {
	server   *Server
	interval time.Duration
	mu       sync.Mutex
	stop     chan struct{}
	done     chan struct{}
}

func newScheduler(server *Server, interval time.Duration) *scheduler {
	if interval <= 0 {
		interval = time.Second
	}
	return &scheduler{
		server:   server,
		interval: interval,
	}
}

func (sc *scheduler) Start() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.stop != nil {
		return
	}
	sc.stop = make(chan struct{})
	sc.done = make(chan struct{})
	go sc.run(sc.stop, sc.done)
}

func (sc *scheduler) Stop() {
	sc.mu.Lock()
	stop, done := sc.stop, sc.done
	sc.stop = nil
	sc.done = nil
	sc.mu.Unlock()
	if stop == nil {
		return
	}
	close(stop)
	<-done
}

func (sc *scheduler) run(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			sc.server.sweepRounds(time.Now().UTC())
		case <-stop:
			return
		}
	}
}

// sweepRounds completes every active round whose first-submission timer has
// elapsed. Rounds without a submission yet are skipped; so are rounds another
// trigger completed since the list was read (the store's conditional update
// makes the extra attempt a no-op).
func (s *Server) sweepRounds(now time.Time) {
	rounds, err := s.store.ActiveRounds()
	if err != nil {
		log.Printf("round sweep failed error=%v", err)
		return
	}
	for i := range rounds {
		round := rounds[i]
		if round.FirstSubmissionAt == nil {
			continue
		}
		timer := time.Duration(round.Room.TimerSeconds) * time.Second
		if timer > 0 && now.Sub(*round.FirstSubmissionAt) < timer {
			continue
		}
		room := round.Room
		_, _ = s.completeRound(&room, &round)
	}
}
