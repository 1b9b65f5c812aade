package types

import "context"

// Actor identifies the authenticated entity performing an operation. The
// platform's auth layer sits in front of this service; the resolved identity
// arrives on each request and is carried through the context for attribution
// of approve/reject actions and announcement authorship.
type Actor struct {
	ID   string
	Name string
}

// SystemActor is used for operations initiated by the scheduler rather than
// a human (direct slot postings, scheduled evaluation runs).
var SystemActor = Actor{ID: "system", Name: "Scheduler"}

type contextKey string

const (
	actorKey     contextKey = "actor"
	requestIDKey contextKey = "request_id"
)

// WithActor stores the Actor in the context.
func WithActor(ctx context.Context, actor Actor) context.Context {
	return context.WithValue(ctx, actorKey, actor)
}

// GetActor retrieves the Actor from the context. Falls back to SystemActor
// when no actor has been attached (scheduler-originated contexts).
func GetActor(ctx context.Context) Actor {
	if actor, ok := ctx.Value(actorKey).(Actor); ok {
		return actor
	}
	return SystemActor
}

// WithRequestID stores the request ID in the context.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, requestIDKey, id)
}

// GetRequestID retrieves the request ID from the context.
func GetRequestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}
