// Package mock provides test doubles for drip interfaces using function fields.
package mock

import (
	"context"
	"sync"

	"github.com/fwojciec/drip"
)

// Interface compliance check.
var _ drip.Sender = (*Sender)(nil)

// Sender is a test double for [drip.Sender]. Every sent activity is
// recorded and retrievable via Sent. Set SendFn to control results; when it
// is nil, Send returns "", nil.
type Sender struct {
	SendFn func(ctx context.Context, activity *drip.Activity) (string, error)

	mu   sync.Mutex
	sent []*drip.Activity
}

// Send records the activity and delegates to SendFn.
func (s *Sender) Send(ctx context.Context, activity *drip.Activity) (string, error) {
	s.mu.Lock()
	s.sent = append(s.sent, activity)
	s.mu.Unlock()
	if s.SendFn == nil {
		return "", nil
	}
	return s.SendFn(ctx, activity)
}

// Sent returns the activities sent so far, in order.
func (s *Sender) Sent() []*drip.Activity {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]*drip.Activity(nil), s.sent...)
}
