package notifier

import (
	"context"
	"errors"

	"abportal/internal/review"
)

// Fanout delivers to every sink and joins their errors. A failing sink does not
// stop delivery to the others.
type Fanout []review.Notifier

func (f Fanout) Notify(ctx context.Context, n review.Notification) error {
	var errs []error
	for _, sink := range f {
		if err := sink.Notify(ctx, n); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
