// Package channel keeps track of the chat platforms shopdesk listens on.
package channel

import (
	"context"
	"fmt"
	"slices"
	"sync"

	"github.com/soyeahso/shopdesk/internal/domain"
	"github.com/soyeahso/shopdesk/internal/logging"
)

// Registry holds the configured channels by ID.
type Registry struct {
	mu       sync.RWMutex
	channels map[string]domain.Channel
	lastErr  map[string]string
	log      *logging.Logger
	wg       sync.WaitGroup
}

// NewRegistry creates a channel registry.
func NewRegistry(log *logging.Logger) *Registry {
	return &Registry{
		channels: make(map[string]domain.Channel),
		lastErr:  make(map[string]string),
		log:      log.Sub("channels"),
	}
}

// Register adds a channel. IDs must be unique.
func (r *Registry) Register(ch domain.Channel) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, dup := r.channels[ch.ID()]; dup {
		return fmt.Errorf("channel %q already registered", ch.ID())
	}
	r.channels[ch.ID()] = ch
	r.log.Info().Str("channel", ch.ID()).Msg("channel registered")
	return nil
}

// Get returns a channel by ID.
func (r *Registry) Get(id string) (domain.Channel, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ch, ok := r.channels[id]
	return ch, ok
}

// List returns all channel IDs in sorted order.
func (r *Registry) List() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ids := make([]string, 0, len(r.channels))
	for id := range r.channels {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids
}

// Each calls fn for every channel in ID order.
func (r *Registry) Each(fn func(domain.Channel)) {
	for _, id := range r.List() {
		if ch, ok := r.Get(id); ok {
			fn(ch)
		}
	}
}

// Status reports every channel, in ID order. Channels that do not report
// their own status are assumed running unless Start failed.
func (r *Registry) Status() []domain.ChannelStatus {
	statuses := make([]domain.ChannelStatus, 0, r.Count())
	r.Each(func(ch domain.Channel) {
		if sc, ok := ch.(interface{ Status() domain.ChannelStatus }); ok {
			statuses = append(statuses, sc.Status())
			return
		}
		r.mu.RLock()
		lastErr := r.lastErr[ch.ID()]
		r.mu.RUnlock()
		statuses = append(statuses, domain.ChannelStatus{
			ChannelID: ch.ID(),
			Running:   lastErr == "",
			LastError: lastErr,
		})
	})
	return statuses
}

// StartAll starts every channel on its own goroutine, since Start may block
// until ctx is done.
func (r *Registry) StartAll(ctx context.Context) {
	r.Each(func(ch domain.Channel) {
		r.log.Info().Str("channel", ch.ID()).Msg("starting channel")
		r.wg.Add(1)
		go func() {
			defer r.wg.Done()
			if err := ch.Start(ctx); err != nil && ctx.Err() == nil {
				r.mu.Lock()
				r.lastErr[ch.ID()] = err.Error()
				r.mu.Unlock()
				r.log.Error().Err(err).Str("channel", ch.ID()).Msg("channel exited with error")
			}
		}()
	})
}

// StopAll stops every channel and waits for their Start calls to return.
func (r *Registry) StopAll(ctx context.Context) {
	r.Each(func(ch domain.Channel) {
		r.log.Info().Str("channel", ch.ID()).Msg("stopping channel")
		if err := ch.Stop(ctx); err != nil {
			r.log.Error().Err(err).Str("channel", ch.ID()).Msg("failed to stop channel")
		}
	})
	r.wg.Wait()
}

// Count returns the number of registered channels.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.channels)
}
