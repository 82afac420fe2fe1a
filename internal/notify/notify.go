// Package notify fans recognition events out to the rest of the parking system.
package notify

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/pkg/errors"

	"github.com/MateuszOrski/ProjektParking/internal/domain"
)

type Publisher interface {
	Publish(ctx context.Context, event domain.RecognitionEvent) error
}

type namedPublisher struct {
	name string
	pub  Publisher
}

// Dispatcher publishes every event to all of its sinks concurrently.
type Dispatcher struct {
	sinks   []namedPublisher
	timeout time.Duration
}

func NewDispatcher(timeout time.Duration) *Dispatcher {
	return &Dispatcher{timeout: timeout}
}

// Add registers a sink. It is not safe to call once events are flowing.
func (d *Dispatcher) Add(name string, pub Publisher) {
	d.sinks = append(d.sinks, namedPublisher{name: name, pub: pub})
}

func (d *Dispatcher) Len() int { return len(d.sinks) }

// Publish waits for every sink and returns the joined failures. A failing sink
// does not stop the others.
func (d *Dispatcher) Publish(ctx context.Context, event domain.RecognitionEvent) error {
	var (
		wg   sync.WaitGroup
		mu   sync.Mutex
		errs []error
	)
	for _, sink := range d.sinks {
		wg.Add(1)
		go func(sink namedPublisher) {
			defer wg.Done()
			pubCtx := ctx
			if d.timeout > 0 {
				var cancel context.CancelFunc
				pubCtx, cancel = context.WithTimeout(ctx, d.timeout)
				defer cancel()
			}
			if err := sink.pub.Publish(pubCtx, event); err != nil {
				mu.Lock()
				errs = append(errs, errors.Wrapf(err, "sink %s", sink.name))
				mu.Unlock()
			}
		}(sink)
	}
	wg.Wait()
	return joinErrors(errs)
}

func joinErrors(errs []error) error {
	switch len(errs) {
	case 0:
		return nil
	case 1:
		return errs[0]
	}
	msg := errs[0].Error()
	for _, err := range errs[1:] {
		msg += "; " + err.Error()
	}
	return errors.New(msg)
}

func marshalEvent(event domain.RecognitionEvent) ([]byte, error) {
	payload, err := json.Marshal(event)
	if err != nil {
		return nil, errors.Wrap(err, "marshal recognition event")
	}
	return payload, nil
}
