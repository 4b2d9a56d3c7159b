package teams_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fwojciec/drip"
	"github.com/fwojciec/drip/teams"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_SendsActivity(t *testing.T) {
	t.Parallel()

	var captured []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured, _ = io.ReadAll(r.Body)

		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/v3/conversations/conv-1/activities", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"id":"act-9"}`))
	}))
	defer srv.Close()

	client := teams.New("test-token", srv.URL, "conv-1")
	id, err := client.Send(context.Background(), &drip.Activity{
		Type: drip.ActivityTyping,
		Text: "Searching...",
		ChannelData: &drip.ChannelData{
			StreamType:     drip.StreamInformative,
			StreamSequence: 1,
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "act-9", id)

	var body map[string]any
	require.NoError(t, json.Unmarshal(captured, &body))
	assert.Equal(t, "typing", body["type"])
	assert.Equal(t, "Searching...", body["text"])
	cd := body["channelData"].(map[string]any)
	assert.Equal(t, "informative", cd["streamType"])
	assert.Equal(t, float64(1), cd["streamSequence"])
}

func TestClient_EscapesConversationID(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/conversations/a%2Fb/activities", r.URL.EscapedPath())
		_, _ = w.Write([]byte(`{"id":"act-1"}`))
	}))
	defer srv.Close()

	client := teams.New("tok", srv.URL, "a/b")
	_, err := client.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
	require.NoError(t, err)
}

func TestClient_TrimsTrailingSlash(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v3/conversations/conv-1/activities", r.URL.Path)
		_, _ = w.Write([]byte(`{"id":"act-1"}`))
	}))
	defer srv.Close()

	client := teams.New("tok", srv.URL+"/", "conv-1")
	_, err := client.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
	require.NoError(t, err)
}

func TestClient_HTTPError(t *testing.T) {
	t.Parallel()

	t.Run("structured connector error", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":{"code":"AuthenticationFailed","message":"bad token"}}`))
		}))
		defer srv.Close()

		client := teams.New("tok", srv.URL, "conv-1")
		_, err := client.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "AuthenticationFailed")
		assert.Contains(t, err.Error(), "bad token")
	})

	t.Run("unstructured body", func(t *testing.T) {
		t.Parallel()
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusBadGateway)
			_, _ = w.Write([]byte("upstream timeout"))
		}))
		defer srv.Close()

		client := teams.New("tok", srv.URL, "conv-1")
		_, err := client.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "HTTP 502")
		assert.Contains(t, err.Error(), "upstream timeout")
	})
}

func TestClient_RequiresConversation(t *testing.T) {
	t.Parallel()

	client := teams.New("tok", "", "")
	_, err := client.Send(context.Background(), &drip.Activity{Type: drip.ActivityTyping})
	assert.ErrorIs(t, err, drip.ErrValidation)
}

func TestClient_RejectsInvalidActivity(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("invalid activity must not reach the connector")
	}))
	defer srv.Close()

	client := teams.New("tok", srv.URL, "conv-1")
	_, err := client.Send(context.Background(), &drip.Activity{
		Type:        drip.ActivityMessage,
		Text:        "done",
		ChannelData: &drip.ChannelData{StreamType: drip.StreamFinal, StreamSequence: 7},
	})
	assert.ErrorIs(t, err, drip.ErrValidation)
}

func TestClient_ContextCancellation(t *testing.T) {
	t.Parallel()

	block := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-block
	}))
	defer srv.Close()
	defer close(block)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	client := teams.New("tok", srv.URL, "conv-1")
	_, err := client.Send(ctx, &drip.Activity{Type: drip.ActivityTyping})
	assert.ErrorIs(t, err, context.Canceled)
}
