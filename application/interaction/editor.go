package interaction

import (
	"context"

	"notegraph/domain/core/entities"
)

// editorSession is the open note editor. It is bound to the local copy of the
// note taken when the editor opened; the context is cancelled when the editor
// closes or another note is opened, aborting any save still in flight.
type editorSession struct {
	entity entities.Entity
	ctx    context.Context
	cancel context.CancelFunc
}

func newEditorSession(entity entities.Entity) *editorSession {
	ctx, cancel := context.WithCancel(context.Background())
	return &editorSession{entity: entity, ctx: ctx, cancel: cancel}
}

// requestContext derives a context that ends with either the caller's context
// or the editor session.
func (s *editorSession) requestContext(ctx context.Context) (context.Context, context.CancelFunc) {
	reqCtx, cancel := context.WithCancel(s.ctx)
	stop := context.AfterFunc(ctx, cancel)
	return reqCtx, func() {
		stop()
		cancel()
	}
}
