package engine

import (
	"context"
	"fmt"
	"maps"

	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/hooks"
)

// action answers a command typed at Idle.
type action func(ctx context.Context, t *turn) ([]domain.OutboundMessage, error)

var menuOptions = []domain.QuickReply{
	compose.Option("Repair", "repair"),
	compose.Option("Order", "order"),
	compose.Option("Product inquiry", "inquiry"),
	compose.Option("Installation", "install"),
	compose.Option("CCTV", "cctv"),
	compose.Option("Repair status", "status"),
	compose.Option("Contact us", "contact"),
}

// buildCommands returns the Idle command table keyed by normalized text.
func (e *Engine) buildCommands() map[string]action {
	cmds := map[string]action{}
	add := func(a action, words ...string) {
		for _, w := range words {
			cmds[Normalize(w)] = a
		}
	}

	add(e.start(repairFlow, nil), "repair", "แจ้งซ่อม")
	add(e.start(repairFlow, map[string]string{"type": "computer"}), "ซ่อมคอม")
	add(e.start(repairFlow, map[string]string{"type": "printer"}), "ซ่อมปริ้นเตอร์")
	add(e.start(orgFlow, nil), "order", "สั่งซื้อหน่วยงาน", "สั่งซื้อ")
	add(e.start(inquiryFlow, nil), "inquiry", "สอบถามสินค้า")
	add(e.start(installFlow, nil), "install", "งานติดตั้ง")
	add(e.start(cctvFlow, nil), "cctv", "กล้องวงจรปิด")
	add(e.start(statusFlow, nil), "status", "ตรวจสอบสถานะงานซ่อม")

	add(e.help, helpWords...)
	add(e.hours, hoursWords...)
	add(e.location, locationWords...)
	return cmds
}

func (e *Engine) mainMenu(text string) []domain.OutboundMessage {
	return []domain.OutboundMessage{compose.MainMenu(text, menuOptions...)}
}

func (e *Engine) greeting() []domain.OutboundMessage {
	name := e.business.Name
	if name == "" {
		name = "our shop"
	}
	return e.mainMenu("Hello! Welcome to " + name + ". How can we help you today? Tap a service below.")
}

func (e *Engine) help(context.Context, *turn) ([]domain.OutboundMessage, error) {
	return e.mainMenu("You can report a repair, place an organization order, ask about a product, " +
		"book an installation or check a repair status. Send \"cancel\" at any time to start over."), nil
}

func (e *Engine) hours(context.Context, *turn) ([]domain.OutboundMessage, error) {
	return []domain.OutboundMessage{compose.Confirmation(e.hoursText())}, nil
}

func (e *Engine) hoursText() string {
	if e.gate == nil {
		return "We are open every day."
	}
	return e.gate.Describe()
}

func (e *Engine) location(context.Context, *turn) ([]domain.OutboundMessage, error) {
	info := e.business
	if info.Hours == "" {
		info.Hours = e.hoursText()
	}
	return []domain.OutboundMessage{compose.Location(info)}, nil
}

// start returns the action that begins def, seeding preset fields. The
// first step is skipped when preset already answers it.
func (e *Engine) start(def *FlowDefinition, preset map[string]string) action {
	return func(ctx context.Context, t *turn) ([]domain.OutboundMessage, error) {
		sess := t.sess.Reset()
		maps.Copy(sess.Fields, preset)
		if def.StartField != "" {
			sess.SetField(def.StartField, t.ev.Text)
		}
		step := def.first()
		for step != nil {
			if _, answered := preset[step.Field]; !answered || step.Field == "" {
				break
			}
			step = def.next(def.index(step.ID), Normalize(preset[step.Field]))
		}
		if step == nil {
			t.starting = def.ID
			return e.finish(ctx, t, def, sess, false)
		}

		sess.State = domain.At(def.ID, step.ID)
		if err := e.store.Set(ctx, sess); err != nil {
			return nil, fmt.Errorf("starting flow %s: %w", def.ID, err)
		}
		e.emit(ctx, hooks.EventFlowStarted, t, def.ID, nil)
		t.log.Debug().Str("state", sess.State.String()).Msg("flow started")
		return []domain.OutboundMessage{step.Message()}, nil
	}
}
