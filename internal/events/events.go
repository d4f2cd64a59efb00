// CanineKind | 2026
// events.go

package events

import (
	"context"
	"log/slog"
)

type Type string

const (
	AccountApproved   Type = "account.approved"
	AccountDenied     Type = "account.denied"
	GoalCompleted     Type = "goal.completed"
	LevelUnlocked     Type = "level.unlocked"
	InvitationExpired Type = "invitation.expired"
)

type Event struct {
	Type      Type
	AccountID string
	Fields    map[string]any
}

// Observer receives domain events emitted by the engine. Implementations
// must not block; delivery guarantees are the subscriber's problem.
type Observer interface {
	Publish(ctx context.Context, event Event)
}

type logObserver struct {
	logger *slog.Logger
}

func NewLogObserver(logger *slog.Logger) Observer {
	return &logObserver{logger: logger}
}

func (o *logObserver) Publish(ctx context.Context, event Event) {
	attrs := make([]any, 0, 2+2*len(event.Fields))
	attrs = append(attrs, "account_id", event.AccountID)
	for k, v := range event.Fields {
		attrs = append(attrs, k, v)
	}
	o.logger.Info(string(event.Type), attrs...)
}

type multiObserver struct {
	observers []Observer
}

func Multi(observers ...Observer) Observer {
	return &multiObserver{observers: observers}
}

func (o *multiObserver) Publish(ctx context.Context, event Event) {
	for _, obs := range o.observers {
		obs.Publish(ctx, event)
	}
}

type nopObserver struct{}

func Nop() Observer {
	return nopObserver{}
}

func (nopObserver) Publish(context.Context, Event) {}
