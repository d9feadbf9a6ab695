package main

import (
	"github.com/jonboulle/clockwork"
	"github.com/mcdev12/roomsync/go/internal/auth"
	"github.com/mcdev12/roomsync/go/internal/chat"
	"github.com/mcdev12/roomsync/go/internal/feed"
	"github.com/mcdev12/roomsync/go/internal/members"
	"github.com/mcdev12/roomsync/go/internal/profiles"
	"github.com/mcdev12/roomsync/go/internal/room"
	"github.com/mcdev12/roomsync/go/internal/rooms"
	"github.com/mcdev12/roomsync/go/internal/rounds"
	"github.com/mcdev12/roomsync/go/internal/scores"
	"github.com/mcdev12/roomsync/go/internal/store"
	"github.com/mcdev12/roomsync/go/internal/timer"
	"github.com/mcdev12/roomsync/go/internal/topics"
)

type Services struct {
	FeedRepo *feed.Repository
	Manager  *room.Manager
	Service  *room.Service
	Resolver *auth.Resolver
}

func setupServices(client *store.Client, broker *feed.Broker, topicProvider topics.Provider) *Services {
	// Wire up dependency injection chain
	// Store layer → Repository layer → Engine layer → Session/HTTP layer

	feedRepo := feed.NewRepository(client)

	memberRepo := members.NewRepository(client, feedRepo)
	scoreRepo := scores.NewRepository(client, feedRepo)
	chatRepo := chat.NewRepository(client, feedRepo)
	timerRepo := timer.NewRepository(client, feedRepo)
	roundRepo := rounds.NewRepository(client, feedRepo)
	roomRepo := rooms.NewRepository(client)
	profileRepo := profiles.NewRepository(client)

	roundEngine := rounds.NewEngine(roundRepo, nil)

	manager := room.NewManager(room.SessionDeps{
		Members:    memberRepo,
		Scores:     scoreRepo,
		Chat:       chatRepo,
		Timers:     timerRepo,
		Rounds:     roundEngine,
		Subscriber: broker,
		Clock:      clockwork.NewRealClock(),
	})

	service := room.NewService(roomRepo, memberRepo, profileRepo, scoreRepo, roundEngine, topicProvider)
	resolver := auth.NewResolver(getEnv("AUTH_SECRET", "dev-secret"))

	return &Services{
		FeedRepo: feedRepo,
		Manager:  manager,
		Service:  service,
		Resolver: resolver,
	}
}
