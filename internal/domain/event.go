package domain

import "time"

// EventKind classifies an inbound user turn.
type EventKind string

const (
	EventText  EventKind = "text"
	EventImage EventKind = "image"
)

// ImageSentinel is stored in place of free text when a user answers a text
// step with an image attachment.
const ImageSentinel = "[image]"

// InboundEvent is one normalized user turn delivered by a channel.
type InboundEvent struct {
	ID          string    `json:"id,omitempty"`
	ChannelID   string    `json:"channelId"`
	UserID      string    `json:"userId"`
	Kind        EventKind `json:"kind"`
	Text        string    `json:"text,omitempty"`
	ReplyHandle string    `json:"replyHandle,omitempty"`
	Redelivery  bool      `json:"redelivery,omitempty"`
	Timestamp   time.Time `json:"timestamp"`
}

// IsImage reports whether the turn carried an image attachment.
func (e InboundEvent) IsImage() bool {
	return e.Kind == EventImage
}
