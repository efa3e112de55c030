package service

import (
	"context"
	"log/slog"

	"github.com/isbjornDAO/tundra-sub002/internal/bracket"
)

// LogNotifier writes every event to a structured logger.
type LogNotifier struct {
	Logger *slog.Logger
}

func (n LogNotifier) Notify(ctx context.Context, events []bracket.Event) {
	logger := n.Logger
	if logger == nil {
		logger = slog.Default()
	}
	for _, ev := range events {
		attrs := []any{"tournament_id", ev.TournamentID}
		if ev.MatchID != nil {
			attrs = append(attrs, "match_id", *ev.MatchID)
		}
		for k, v := range ev.Payload {
			attrs = append(attrs, k, v)
		}
		logger.InfoContext(ctx, string(ev.Type), attrs...)
	}
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, events []bracket.Event)

func (f NotifierFunc) Notify(ctx context.Context, events []bracket.Event) {
	f(ctx, events)
}
