package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"

	"nexus/notify"
	"nexus/session"
)

// Snapshotter builds the polled notification snapshot of an audience.
type Snapshotter interface {
	Snapshot(ctx context.Context, who notify.Audience) ([]notify.Event, error)
}

// Subscriber delivers pushed notification events.
type Subscriber interface {
	Subscribe(who notify.Audience) (<-chan notify.Event, func())
}

// NotificationWorker keeps the feed of one session current. It polls a full
// snapshot on a fixed interval and merges pushed events as they arrive.
type NotificationWorker struct {
	Collector Snapshotter
	Hub       Subscriber
	Interval  time.Duration
	Logger    *logrus.Entry
}

func NewNotificationWorker(collector Snapshotter, hub Subscriber, interval time.Duration, logger *logrus.Entry) *NotificationWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &NotificationWorker{
		Collector: collector,
		Hub:       hub,
		Interval:  interval,
		Logger:    logger,
	}
}

// Run is the session hook. It returns when ctx is cancelled at logout.
func (nw *NotificationWorker) Run(ctx context.Context, s *session.Session) {
	who := s.Identity.Audience()
	log := nw.Logger.WithFields(logrus.Fields{"session_id": s.ID, "user_id": who.UserID})

	var pushed <-chan notify.Event
	if nw.Hub != nil {
		ch, unsubscribe := nw.Hub.Subscribe(who)
		defer unsubscribe()
		pushed = ch
	}

	nw.poll(ctx, s, log)

	ticker := time.NewTicker(nw.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Debug("Notification worker stopped")
			return
		case <-ticker.C:
			nw.poll(ctx, s, log)
		case ev, ok := <-pushed:
			if !ok {
				pushed = nil
				continue
			}
			s.Feed.Apply([]notify.Event{ev})
		}
	}
}

func (nw *NotificationWorker) poll(ctx context.Context, s *session.Session, log *logrus.Entry) {
	events, err := nw.Collector.Snapshot(ctx, s.Identity.Audience())
	if err != nil {
		if ctx.Err() == nil {
			log.WithError(err).Warn("Notification poll failed")
		}
		return
	}
	s.Feed.Apply(events)
}
