package domain

import "context"

// EventHandler receives inbound events from a channel. Channels call it
// synchronously, in the order the platform delivered the events.
type EventHandler func(ctx context.Context, ev InboundEvent)

// ChannelStatus reports the runtime state of a channel.
type ChannelStatus struct {
	ChannelID string `json:"channelId"`
	Running   bool   `json:"running"`
	LastError string `json:"lastError,omitempty"`
}

// Channel is the interface that all messaging channel implementations must satisfy.
type Channel interface {
	// ID returns the channel identifier (e.g., "line", "webchat").
	ID() string

	// Start begins accepting events. It may block until ctx is done.
	Start(ctx context.Context) error

	// Stop releases the channel's resources.
	Stop(ctx context.Context) error

	// Send delivers a reply using the handle from the originating event.
	Send(ctx context.Context, reply Reply) error

	// OnEvent registers the handler for inbound events.
	OnEvent(handler EventHandler)
}
