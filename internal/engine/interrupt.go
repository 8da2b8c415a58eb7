package engine

import (
	"context"
	"fmt"

	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/hooks"
)

// closed resets any flow in progress and answers with the closed notice.
func (e *Engine) closed(ctx context.Context, t *turn) ([]domain.OutboundMessage, error) {
	if err := e.drop(ctx, t, "closed"); err != nil {
		return nil, err
	}
	t.log.Debug().Msg("shop closed")
	return []domain.OutboundMessage{compose.ClosedNotice(e.business.Name, e.hoursText())}, nil
}

// cancel is the global interrupt. It works from every state, Idle included.
func (e *Engine) cancel(ctx context.Context, t *turn) ([]domain.OutboundMessage, error) {
	if err := e.drop(ctx, t, "cancelled"); err != nil {
		return nil, err
	}
	return []domain.OutboundMessage{compose.Confirmation(
		"Cancelled. Send \"help\" whenever you need us again.",
	)}, nil
}

// drop deletes the user's session, announcing the cancelled flow if any.
func (e *Engine) drop(ctx context.Context, t *turn, reason string) error {
	sess, err := e.store.Get(ctx, t.ev.UserID)
	if err != nil {
		return fmt.Errorf("loading session: %w", err)
	}
	if err := e.store.Delete(ctx, t.ev.UserID); err != nil {
		return fmt.Errorf("resetting session: %w", err)
	}
	if !sess.State.IsIdle() {
		t.log.Info().Str("state", sess.State.String()).Str("reason", reason).Msg("flow cancelled")
		e.emit(ctx, hooks.EventFlowCancelled, t, sess.State.Flow, map[string]any{
			hooks.KeyState:  sess.State.String(),
			hooks.KeyReason: reason,
		})
	}
	return nil
}
