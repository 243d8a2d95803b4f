package worker

import (
	"context"
	"time"

	"github.com/sirupsen/logrus"
)

// Relay moves notices from an external bus into the local hub until ctx is
// done.
type Relay interface {
	Run(ctx context.Context) error
}

// BusWorker keeps a relay running, restarting it with a growing delay when
// the broker connection drops.
type BusWorker struct {
	Relay    Relay
	Logger   *logrus.Entry
	MinDelay time.Duration
	MaxDelay time.Duration
}

func NewBusWorker(relay Relay, logger *logrus.Entry) *BusWorker {
	return &BusWorker{
		Relay:    relay,
		Logger:   logger,
		MinDelay: time.Second,
		MaxDelay: 30 * time.Second,
	}
}

func (bw *BusWorker) Start(ctx context.Context) {
	bw.Logger.Info("Notification bus worker started")
	delay := bw.MinDelay

	for {
		err := bw.Relay.Run(ctx)
		if ctx.Err() != nil {
			bw.Logger.Info("Notification bus worker shutting down...")
			return
		}
		if err != nil {
			bw.Logger.WithError(err).WithField("retry_in", delay).Warn("Notification bus disconnected")
		} else {
			delay = bw.MinDelay
		}

		select {
		case <-ctx.Done():
			bw.Logger.Info("Notification bus worker shutting down...")
			return
		case <-time.After(delay):
		}

		if err != nil {
			delay *= 2
			if delay > bw.MaxDelay {
				delay = bw.MaxDelay
			}
		}
	}
}
