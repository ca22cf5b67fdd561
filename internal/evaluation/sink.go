package evaluation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/Adithya-Monish-Kumar-K/smart-retrieval-eval/pkg/resilience"
)

// Sink receives finished reports: the Postgres run store and the Kafka
// publisher.
type Sink interface {
	Name() string
	Publish(ctx context.Context, report *Report) error
}

// Dispatcher fans reports out to sinks. Each write is retried and bounded by
// Timeout; sink failures are logged and returned joined but never affect
// the reports themselves.
type Dispatcher struct {
	sinks   []Sink
	retry   resilience.RetryConfig
	timeout time.Duration
	logger  *slog.Logger
}

func NewDispatcher(timeout time.Duration, retry resilience.RetryConfig, sinks ...Sink) *Dispatcher {
	return &Dispatcher{
		sinks:   sinks,
		retry:   retry,
		timeout: timeout,
		logger:  slog.Default().With("component", "report-dispatcher"),
	}
}

func (d *Dispatcher) Len() int {
	return len(d.sinks)
}

func (d *Dispatcher) Dispatch(ctx context.Context, reports ...*Report) error {
	var errs []error
	for _, sink := range d.sinks {
		for _, r := range reports {
			err := resilience.Retry(ctx, "publish-"+sink.Name(), d.retry, func() error {
				return resilience.WithTimeout(ctx, d.timeout, sink.Name(), func(ctx context.Context) error {
					return sink.Publish(ctx, r)
				})
			})
			if err != nil {
				d.logger.Warn("report not published", "sink", sink.Name(), "run_id", r.RunID, "error", err)
				errs = append(errs, fmt.Errorf("%s: %w", sink.Name(), err))
				continue
			}
			d.logger.Info("report published", "sink", sink.Name(), "run_id", r.RunID, "model", r.Model)
		}
	}
	return errors.Join(errs...)
}
