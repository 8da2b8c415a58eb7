package engine

import (
	"context"
	"fmt"
	"maps"

	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/hooks"
)

// advance feeds one answer to the flow at the session's current step.
func (e *Engine) advance(ctx context.Context, t *turn, def *FlowDefinition, i int) ([]domain.OutboundMessage, error) {
	step := def.Steps[i]

	if step.Kind == StepPhoto {
		if !t.ev.IsImage() && !IsSkip(t.norm) {
			t.log.Debug().Str("state", t.sess.State.String()).Msg("photo step rejected input")
			return []domain.OutboundMessage{step.Message()}, nil
		}
		return e.finish(ctx, t, def, t.sess, t.ev.IsImage())
	}

	value := t.ev.Text
	if t.ev.IsImage() {
		if step.Kind == StepTypedText {
			return []domain.OutboundMessage{step.Message()}, nil
		}
		value = domain.ImageSentinel
	}
	if value == "" {
		return []domain.OutboundMessage{step.Message()}, nil
	}

	sess := t.sess
	sess.SetField(step.Field, value)

	next := def.next(i, Normalize(value))
	if next == nil {
		return e.finish(ctx, t, def, sess, false)
	}

	sess.State = domain.At(def.ID, next.ID)
	if err := e.store.Set(ctx, sess); err != nil {
		return nil, fmt.Errorf("saving session: %w", err)
	}
	return []domain.OutboundMessage{next.Message()}, nil
}

// finish ends the flow: it composes the closing messages and returns the
// session to Idle in a single write.
func (e *Engine) finish(ctx context.Context, t *turn, def *FlowDefinition, sess domain.Session, hasImage bool) ([]domain.OutboundMessage, error) {
	var out []domain.OutboundMessage
	var composeErr error

	switch {
	case def.Card != nil:
		card, err := compose.Summary(*def.Card, sess.Fields, hasImage)
		if err != nil {
			composeErr = err
		} else {
			out = []domain.OutboundMessage{card}
		}
	case def.Done != nil:
		out = def.Done(sess)
	}

	if err := e.store.Set(ctx, sess.Reset()); err != nil {
		return nil, fmt.Errorf("resetting session: %w", err)
	}
	if t.starting != "" {
		e.emit(ctx, hooks.EventFlowStarted, t, t.starting, nil)
	}
	if composeErr != nil {
		return nil, &InvariantError{UserID: sess.UserID, State: t.sess.State, Err: composeErr}
	}
	if len(out) == 0 {
		return nil, &InvariantError{UserID: sess.UserID, State: t.sess.State, Err: fmt.Errorf("flow %s has no closing message", def.ID)}
	}

	if def.Card != nil {
		fields := maps.Clone(sess.Fields)
		e.emit(ctx, hooks.EventFlowCompleted, t, def.ID, map[string]any{
			hooks.KeyFields:   fields,
			hooks.KeyHasImage: hasImage,
		})
	}
	t.log.Info().Str("flow", string(def.ID)).Bool("hasImage", hasImage).Msg("flow completed")
	return out, nil
}
