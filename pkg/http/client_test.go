package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// dropConnection closes the connection without writing a response.
func dropConnection(w http.ResponseWriter) {
	hj, ok := w.(http.Hijacker)
	if !ok {
		return
	}
	conn, _, err := hj.Hijack()
	if err != nil {
		return
	}
	conn.Close()
}

func TestClientGet_ReturnsBodyForEveryStatus(t *testing.T) {
	for _, status := range []int{http.StatusOK, http.StatusUnauthorized, http.StatusInternalServerError} {
		server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, http.MethodGet, r.Method)
			assert.Equal(t, "v", r.Header.Get("X-Test"))
			w.WriteHeader(status)
			w.Write([]byte(`{"ok":true}`))
		}))

		c := NewClientWithLogger(zaptest.NewLogger(t))
		resp, err := c.Get(context.Background(), server.URL+"/path?a=1", map[string]string{"X-Test": "v"})
		server.Close()

		require.NoError(t, err)
		assert.Equal(t, status, resp.StatusCode)
		assert.Equal(t, `{"ok":true}`, string(resp.Body))
		assert.NotEmpty(t, resp.RequestID)
	}
}

func TestClientDo_SingleAttemptByDefault(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		dropConnection(w)
	}))
	defer server.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t))
	_, err := c.Get(context.Background(), server.URL, nil)

	require.Error(t, err)
	assert.Equal(t, int32(1), hits.Load())
}

func TestClientDo_RetriesTransportFailuresWhenAsked(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) < 3 {
			dropConnection(w)
			return
		}
		w.Write([]byte("done"))
	}))
	defer server.Close()

	c := NewClientWithLogger(zaptest.NewLogger(t))
	resp, err := c.Do(RequestOptions{
		URL:             server.URL,
		MaxTries:        3,
		InitialInterval: time.Millisecond,
		MaxInterval:     5 * time.Millisecond,
	})

	require.NoError(t, err)
	assert.Equal(t, "done", string(resp.Body))
	assert.Equal(t, int32(3), hits.Load())
}

func TestClientDo_InvalidURL(t *testing.T) {
	c := NewClientWithLogger(zaptest.NewLogger(t))
	_, err := c.Get(context.Background(), "http://[::1]:namedport/x", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to create request")
}

func TestClientTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewClientWithLogger(nil).Timeout())

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer server.Close()

	c := NewClientWithTimeout(zaptest.NewLogger(t), 50*time.Millisecond)
	_, err := c.Get(context.Background(), server.URL, nil)
	require.Error(t, err)
}

func TestRedactURL(t *testing.T) {
	assert.Equal(t, "https://api.vk.com/method/secure.getAppBalance",
		RedactURL("https://api.vk.com/method/secure.getAppBalance?v=5.12&access_token=T&client_secret=S"))
	assert.Equal(t, "https://host/p", RedactURL("https://user:pw@host/p?x=1"))
	assert.Equal(t, "<unparseable url>", RedactURL("http://[::1]:namedport"))
}
