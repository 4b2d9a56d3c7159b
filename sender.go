package drip

import "context"

// Sender delivers one activity to the remote conversation endpoint and
// returns the endpoint-assigned activity ID, or "" when the endpoint does
// not assign one. The engine issues sends strictly one at a time and does
// not retry; implementations own per-send timeouts.
type Sender interface {
	Send(ctx context.Context, activity *Activity) (string, error)
}
