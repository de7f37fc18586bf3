package http_test

import (
	"context"
	"errors"
	"io"
	gohttp "net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/shashiranjanraj/bazaar/pkg/http"
)

func TestGetReturnsBody(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		w.Write([]byte(`{"ok":true}`)) //nolint:errcheck
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL).Header("X-Test", "yes").Send()
	require.NoError(t, err)
	assert.True(t, resp.OK())

	var out struct{ OK bool }
	require.NoError(t, resp.JSON(&out))
	assert.True(t, out.OK)
}

func TestThrowOnErrorStatus(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.WriteHeader(gohttp.StatusServiceUnavailable)
	}))
	defer srv.Close()

	resp, err := http.Get(srv.URL).Send()
	require.NoError(t, err)
	assert.False(t, resp.OK())
	assert.Error(t, resp.Throw())
}

func TestMaxBytes(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		w.Write([]byte(strings.Repeat("x", 64))) //nolint:errcheck
	}))
	defer srv.Close()

	_, err := http.Get(srv.URL).MaxBytes(16).Send()
	assert.True(t, errors.Is(err, http.ErrTooLarge))

	resp, err := http.Get(srv.URL).MaxBytes(64).Send()
	require.NoError(t, err)
	assert.Len(t, resp.Raw, 64)
}

func TestTimeout(t *testing.T) {
	srv := httptest.NewServer(gohttp.HandlerFunc(func(w gohttp.ResponseWriter, r *gohttp.Request) {
		select {
		case <-time.After(2 * time.Second):
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()

	_, err := http.Get(srv.URL).Timeout(50 * time.Millisecond).Send()
	assert.Error(t, err)
}

type roundTripFunc func(*gohttp.Request) (*gohttp.Response, error)

func (f roundTripFunc) RoundTrip(r *gohttp.Request) (*gohttp.Response, error) { return f(r) }

func TestRetryAndSetTransport(t *testing.T) {
	var calls int32
	http.SetTransport(roundTripFunc(func(r *gohttp.Request) (*gohttp.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return nil, errors.New("connection reset")
		}
		return &gohttp.Response{
			StatusCode: gohttp.StatusOK,
			Header:     gohttp.Header{},
			Body:       io.NopCloser(strings.NewReader("pong")),
			Request:    r,
		}, nil
	}))
	defer http.ResetTransport()

	resp, err := http.Get("http://partner.invalid/ping").
		WithContext(context.Background()).
		Retry(2, time.Millisecond).
		Send()
	require.NoError(t, err)
	assert.Equal(t, "pong", resp.Text())
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
}
