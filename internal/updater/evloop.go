package updater

import (
	"context"

	"go.uber.org/zap"

	"github.com/simplesurance/prsync/internal/event"
	"github.com/simplesurance/prsync/internal/logfields"
)

// EventLoop consumes trigger events from ch and processes them until
// the channel is closed.
// Fatal errors of a single event are logged, they do not terminate the
// loop.
func (u *Updater) EventLoop(ch <-chan *event.Event, filter *event.Filter) {
	u.logger.Info("updater event loop started")

	for ev := range ch {
		ctx := context.Background()
		logger := u.logger.With(ev.LogFields...)

		if filter != nil {
			match, err := filter.Match(ctx, ev)
			if err != nil {
				logger.Error(
					"evaluating event filter query failed",
					logfields.Event("event_filter_failed"),
					zap.Error(err),
				)

				continue
			}

			if !match {
				logger.Debug(
					"ignoring event, filter query did not match",
					logFieldEventIgnored,
				)

				continue
			}
		}

		result, err := u.ProcessEvent(ctx, ev)
		if err != nil {
			logger.Error(
				"processing event failed",
				append(result.LogFields(), zap.Error(err), logfields.Event("event_processing_failed"))...,
			)

			continue
		}

		logger.Info("event processed", result.LogFields()...)
	}

	u.logger.Info("updater event loop terminated")
}
