// Package telemetry sends opt-in anonymous usage events. Nothing is sent
// unless the user has explicitly opted in via settings; the distinct id is a
// hashed machine identifier, never user data.
package telemetry

import (
	"github.com/denisbrodbeck/machineid"
	"github.com/posthog/posthog-go"
)

// apiKey is a public write-only project key.
const apiKey = "phc_reclaim_public_write_only_key"

// Client records usage events. The zero value (and a disabled client) is
// safe to use; every method is a no-op.
type Client struct {
	ph         posthog.Client
	distinctID string
}

// New returns a telemetry client. When enabled is false, or the analytics
// backend cannot be initialized, the returned client is inert.
func New(enabled bool) *Client {
	if !enabled {
		return &Client{}
	}
	id, err := machineid.ProtectedID("reclaim")
	if err != nil {
		return &Client{}
	}
	ph, err := posthog.NewWithConfig(apiKey, posthog.Config{})
	if err != nil {
		return &Client{}
	}
	return &Client{ph: ph, distinctID: id}
}

// Capture enqueues one event with optional properties.
func (c *Client) Capture(event string, props map[string]any) {
	if c == nil || c.ph == nil {
		return
	}
	properties := posthog.NewProperties()
	for k, v := range props {
		properties.Set(k, v)
	}
	_ = c.ph.Enqueue(posthog.Capture{
		DistinctId: c.distinctID,
		Event:      event,
		Properties: properties,
	})
}

// Close flushes pending events.
func (c *Client) Close() {
	if c == nil || c.ph == nil {
		return
	}
	_ = c.ph.Close()
}
