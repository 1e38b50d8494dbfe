package app

import (
	"context"

	"teampulse/internal/config"
	"teampulse/internal/feed"
	"teampulse/internal/presence"
)

var (
	globalHub     *feed.Hub
	globalTracker *presence.Tracker

	feedCancel context.CancelFunc
	feedDone   chan struct{}
)

// StartFeed brings up the realtime plumbing: the change feed hub,
// the Postgres LISTEN loop feeding it, and the presence tracker
// state machine.
func StartFeed() {
	globalHub = feed.NewHub(globalLogger)

	listener := feed.NewListener(globalLogger, globalPostgresPool, globalHub)

	var ctx context.Context
	ctx, feedCancel = context.WithCancel(context.Background())
	feedDone = make(chan struct{})
	go func() {
		defer close(feedDone)
		listener.Run(ctx)
	}()

	globalTracker = presence.NewTracker(
		globalLogger,
		globalServices.presence,
		config.Global().Presence.IdleThreshold,
	)
	go globalTracker.Run()

	globalLogger.Info().Msg("started change feed and presence tracker")
}

func StopFeed() {
	globalTracker.Close()
	feedCancel()
	<-feedDone
	globalLogger.Info().Msg("stopped change feed and presence tracker")
}
