package mock_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSender_Send(t *testing.T) {
	t.Parallel()
	t.Run("delegates to SendFn", func(t *testing.T) {
		t.Parallel()
		s := mock.Sender{
			SendFn: func(ctx context.Context, activity *drip.Activity) (string, error) {
				return "act-1", nil
			},
		}
		id, err := s.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
		require.NoError(t, err)
		assert.Equal(t, "act-1", id)
	})

	t.Run("returns error", func(t *testing.T) {
		t.Parallel()
		wantErr := errors.New("transport error")
		s := mock.Sender{
			SendFn: func(ctx context.Context, activity *drip.Activity) (string, error) {
				return "", wantErr
			},
		}
		_, err := s.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
		assert.ErrorIs(t, err, wantErr)
	})

	t.Run("nil SendFn succeeds with empty ID", func(t *testing.T) {
		t.Parallel()
		var s mock.Sender
		id, err := s.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
		require.NoError(t, err)
		assert.Empty(t, id)
	})

	t.Run("records sent activities in order", func(t *testing.T) {
		t.Parallel()
		var s mock.Sender
		first := &drip.Activity{Type: drip.ActivityTyping, Text: "one"}
		second := &drip.Activity{Type: drip.ActivityMessage, Text: "two"}
		_, _ = s.Send(context.Background(), first)
		_, _ = s.Send(context.Background(), second)

		sent := s.Sent()
		require.Len(t, sent, 2)
		assert.Equal(t, first, sent[0])
		assert.Equal(t, second, sent[1])
	})
}
