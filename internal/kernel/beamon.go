package kernel

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"sync"
)

// ErrNotInitialized is returned when BeamOn runs before Initialize.
var ErrNotInitialized = errors.New("kernel not initialized")

// BeamOn executes up to n events and returns how many completed. The stop
// predicate and the context are polled before each event is scheduled; an
// event already in flight always completes and reaches the sink. Fewer than
// n completed events with a nil error means the run was stopped
// cooperatively.
func (k *Kernel) BeamOn(ctx context.Context, n int) (int64, error) {
	if !k.initialized {
		return 0, ErrNotInitialized
	}
	if n < 0 {
		return 0, fmt.Errorf("negative event count: %d", n)
	}

	k.logger.Info("beam on", "events", n, "mode", k.mode.String())

	if k.mode == ModeSerial {
		return k.beamOnSerial(ctx, n)
	}
	return k.beamOnParallel(ctx, n)
}

func (k *Kernel) stopRequested(ctx context.Context) bool {
	return k.stop() || ctx.Err() != nil
}

func (k *Kernel) beamOnSerial(ctx context.Context, n int) (int64, error) {
	var processed int64
	for i := 0; i < n; i++ {
		if k.stopRequested(ctx) {
			k.logger.Info("beam stopped cooperatively", "processed", processed)
			break
		}
		ev := k.processEvent(k.eventSeq.Add(1) - 1)
		if err := k.sink.RecordEvent(ev); err != nil {
			return processed, fmt.Errorf("record event %d: %w", ev.ID, err)
		}
		processed++
		k.processed.Add(1)
	}
	return processed, nil
}

func (k *Kernel) beamOnParallel(ctx context.Context, n int) (int64, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	jobs := make(chan int64)
	results := make(chan Event)

	var wg sync.WaitGroup
	for w := 0; w < k.threads; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for id := range jobs {
				results <- k.processEvent(id)
			}
		}()
	}
	go func() {
		wg.Wait()
		close(results)
	}()

	// Dispatcher: schedules event IDs until n is reached or a stop is
	// observed. In-flight events are never aborted.
	go func() {
		defer close(jobs)
		for i := 0; i < n; i++ {
			if k.stopRequested(ctx) {
				return
			}
			select {
			case jobs <- k.eventSeq.Add(1) - 1:
			case <-ctx.Done():
				return
			}
		}
	}()

	// Collector: the single goroutine that talks to the sink. On a sink
	// failure the dispatcher is cancelled and remaining results drain.
	var processed int64
	var sinkErr error
	for ev := range results {
		if sinkErr != nil {
			continue
		}
		if err := k.sink.RecordEvent(ev); err != nil {
			sinkErr = fmt.Errorf("record event %d: %w", ev.ID, err)
			cancel()
			continue
		}
		processed++
		k.processed.Add(1)
	}
	if sinkErr != nil {
		return processed, sinkErr
	}
	if processed < int64(n) {
		k.logger.Info("beam stopped cooperatively", "processed", processed)
	}
	return processed, nil
}

// processEvent runs one event: a deterministic per-event RNG seeded from the
// run seed and the event ID drives the generator. No transport happens here.
func (k *Kernel) processEvent(id int64) Event {
	seed := k.seed + id
	rng := rand.New(rand.NewSource(seed))
	primaries := k.gen.GeneratePrimaries(id, rng)
	return Event{ID: id, Seed: seed, Primaries: primaries}
}
