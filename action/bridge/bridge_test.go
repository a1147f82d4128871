package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mohitkumar/autopilot/action"
	"github.com/stretchr/testify/require"
)

func newBridge(t *testing.T, handler http.HandlerFunc) *Actuator {
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return New(Config{BaseUrl: srv.URL, MaxRetries: 2, RetryInterval: time.Millisecond})
}

func TestLocate(t *testing.T) {
	a := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/locate", r.URL.Path)
		var req locateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		if req.Selector == "#missing" {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": elementNotFoundCode})
			return
		}
		json.NewEncoder(w).Encode(action.Element{Selector: req.Selector, Tag: "textarea"})
	})

	el, err := a.Locate(context.Background(), "#prompt")
	require.NoError(t, err)
	require.Equal(t, "textarea", el.Tag)

	_, err = a.Locate(context.Background(), "#missing")
	require.Error(t, err)
	require.True(t, errors.Is(err, action.ErrElementNotFound))
}

func TestPerform(t *testing.T) {
	a := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		var req performRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Equal(t, action.VERB_FILL, req.Command.Verb)
		require.Equal(t, "hello", req.Command.Value)
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"filled": true}})
	})

	data, err := a.Perform(context.Background(), action.FillText{Text: "hello"}, action.Element{Selector: "#prompt"})
	require.NoError(t, err)
	require.Equal(t, true, data["filled"])
}

func TestRetriesServerErrors(t *testing.T) {
	var calls int32
	a := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"data": map[string]any{"clicked": true}})
	})

	data, err := a.Perform(context.Background(), action.ClickElement{}, action.Element{Selector: "button"})
	require.NoError(t, err)
	require.Equal(t, true, data["clicked"])
	require.Equal(t, int32(3), atomic.LoadInt32(&calls))
}

func TestClientErrorIsNotRetried(t *testing.T) {
	var calls int32
	a := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusUnprocessableEntity)
		json.NewEncoder(w).Encode(map[string]string{"error": "element is disabled"})
	})

	_, err := a.Perform(context.Background(), action.ClickElement{}, action.Element{Selector: "button"})
	require.Error(t, err)
	require.Contains(t, err.Error(), "element is disabled")
	require.False(t, errors.Is(err, action.ErrElementNotFound))
	require.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestUnknownRouteIsNotElementNotFound(t *testing.T) {
	var calls int32
	a := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		http.NotFound(w, r)
	})

	_, err := a.Locate(context.Background(), "#prompt")
	require.Error(t, err)
	require.False(t, errors.Is(err, action.ErrElementNotFound))
	require.Contains(t, err.Error(), "404")

	_, err = a.Perform(context.Background(), action.ClickElement{}, action.Element{Selector: "button"})
	require.Error(t, err)
	require.False(t, errors.Is(err, action.ErrElementNotFound))
	require.Equal(t, int32(2), atomic.LoadInt32(&calls))
}

func TestPerformElementNotFound(t *testing.T) {
	a := newBridge(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		json.NewEncoder(w).Encode(map[string]string{"error": elementNotFoundCode})
	})

	_, err := a.Perform(context.Background(), action.ClickElement{}, action.Element{Selector: "button"})
	require.True(t, errors.Is(err, action.ErrElementNotFound))
}
