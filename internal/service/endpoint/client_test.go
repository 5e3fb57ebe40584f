package endpoint

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendEncodesNullSessionOnFirstTurn(t *testing.T) {
	var raw map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&raw))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"response":"Bonjour","session_id":"s1","message_count":2}`))
	}))
	defer srv.Close()

	client := NewClient(srv.URL, 5*time.Second)
	resp, err := client.Send(context.Background(), Request{Message: "Salut"})
	require.NoError(t, err)

	assert.Equal(t, "Bonjour", resp.Response)
	assert.Equal(t, "s1", resp.SessionID)
	assert.Equal(t, 2, resp.MessageCount)

	assert.Equal(t, "Salut", raw["message"])
	value, present := raw["session_id"]
	assert.True(t, present, "session_id must be sent even when unset")
	assert.Nil(t, value)
}

func TestSendEchoesSessionID(t *testing.T) {
	var got Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"response":"ok","session_id":"s1"}`))
	}))
	defer srv.Close()

	sid := "s1"
	_, err := NewClient(srv.URL, 0).Send(context.Background(), Request{Message: "hi", SessionID: &sid})
	require.NoError(t, err)
	require.NotNil(t, got.SessionID)
	assert.Equal(t, "s1", *got.SessionID)
}

func TestSendNon2xxIsStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model unavailable", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Send(context.Background(), Request{Message: "hi"})
	require.Error(t, err)

	var statusErr *StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusServiceUnavailable, statusErr.StatusCode)
	assert.Contains(t, statusErr.Body, "model unavailable")
	assert.Equal(t, "HTTP error! status: 503", statusErr.Error())
	assert.False(t, IsTransport(err))
}

func TestSendUnreachableIsTransportError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := srv.URL
	srv.Close()

	_, err := NewClient(url, time.Second).Send(context.Background(), Request{Message: "hi"})
	require.Error(t, err)
	assert.True(t, IsTransport(err))
}

func TestSendMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`not json`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, 0).Send(context.Background(), Request{Message: "hi"})
	require.Error(t, err)
	assert.False(t, IsTransport(err))

	var statusErr *StatusError
	assert.False(t, errors.As(err, &statusErr))
}
