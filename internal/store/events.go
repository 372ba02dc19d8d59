package store

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/dyluth/quire/internal/logger"
)

// DocumentEvent announces a write or delete of one document.
type DocumentEvent struct {
	ID       string `json:"id"`
	Revision string `json:"revision,omitempty"`
	Deleted  bool   `json:"deleted,omitempty"`
	AtMs     int64  `json:"at_ms"`
}

// publish announces event. Subscribers are best effort: a failure is logged
// and the write it describes stands.
func (c *Client) publish(ctx context.Context, event DocumentEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		c.log.Warnw("failed to marshal document event", logger.FieldEntityID, event.ID, logger.FieldError, err)
		return
	}
	if err := c.events.Publish(ctx, DocumentEventsChannel(c.namespace), payload).Err(); err != nil {
		c.log.Warnw("failed to publish document event", logger.FieldEntityID, event.ID, logger.FieldRevision, event.Revision, logger.FieldError, err)
	}
}

// Subscription is an active subscription to document events. Callers must
// Close it when done.
type Subscription struct {
	events <-chan DocumentEvent
	errors <-chan error
	cancel func()
	once   sync.Once
}

// Events returns the event channel. It is closed when the subscription ends.
func (s *Subscription) Events() <-chan DocumentEvent {
	return s.events
}

// Errors returns undecodable-message errors. The subscription continues after them.
func (s *Subscription) Errors() <-chan error {
	return s.errors
}

// Close stops the subscription. Safe to call more than once.
func (s *Subscription) Close() error {
	s.once.Do(s.cancel)
	return nil
}

// Subscribe delivers document events for the client's namespace until ctx is
// cancelled or the subscription is closed. Delivery is at most once.
func (c *Client) Subscribe(ctx context.Context) (*Subscription, error) {
	pubsub := c.rdb.Subscribe(ctx, DocumentEventsChannel(c.namespace))
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to document events: %w", err)
	}

	events := make(chan DocumentEvent, 10)
	errs := make(chan error, 10)
	subCtx, cancel := context.WithCancel(ctx)

	go func() {
		defer close(events)
		defer close(errs)
		defer pubsub.Close()

		ch := pubsub.Channel()
		for {
			select {
			case <-subCtx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var event DocumentEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					select {
					case errs <- fmt.Errorf("failed to unmarshal document event: %w", err):
					case <-subCtx.Done():
						return
					}
					continue
				}
				select {
				case events <- event:
				case <-subCtx.Done():
					return
				}
			}
		}
	}()

	return &Subscription{events: events, errors: errs, cancel: cancel}, nil
}
