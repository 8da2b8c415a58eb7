package routing

import (
	"github.com/soyeahso/shopdesk/internal/compose"
	"github.com/soyeahso/shopdesk/internal/domain"
)

// apologyText is sent when a turn fails, so the user never gets silence.
const apologyText = "Sorry, something went wrong on our side. Please try again, or type \"help\" to see the menu."

// ReplyTo addresses msgs to the user and channel of ev, using the event's
// reply handle.
func ReplyTo(ev domain.InboundEvent, msgs []domain.OutboundMessage) domain.Reply {
	return domain.Reply{
		ChannelID: ev.ChannelID,
		UserID:    ev.UserID,
		Handle:    ev.ReplyHandle,
		Messages:  msgs,
	}
}

// Apology is the reply for a turn that could not be answered.
func Apology() []domain.OutboundMessage {
	return []domain.OutboundMessage{compose.Text(apologyText)}
}
