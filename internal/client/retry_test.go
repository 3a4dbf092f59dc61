package client

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func recordingBackoff() (*Backoff, *[]time.Duration) {
	b := NewBackoff(2*time.Second, nil)
	var waits []time.Duration
	b.wait = func(ctx context.Context, d time.Duration) error {
		waits = append(waits, d)
		return ctx.Err()
	}
	return b, &waits
}

func TestBackoffStopsAfterThreeTransientFailures(t *testing.T) {
	b, waits := recordingBackoff()
	calls := 0
	unavailable := httpError(http.StatusServiceUnavailable, "", "")

	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		return unavailable
	})
	require.Error(t, err)
	assert.Same(t, unavailable, err)
	assert.Equal(t, 3, calls)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, *waits)
	assert.True(t, b.Exhausted())

	err = b.Do(context.Background(), func(context.Context) error {
		calls++
		return nil
	})
	assert.Same(t, unavailable, err)
	assert.Equal(t, 3, calls)

	require.NoError(t, b.Retry(context.Background(), func(context.Context) error {
		calls++
		return nil
	}))
	assert.Equal(t, 4, calls)
	assert.False(t, b.Exhausted())
	assert.Equal(t, 1, b.Attempt())
}

func TestBackoffSurfacesPermanentErrorsImmediately(t *testing.T) {
	b, waits := recordingBackoff()
	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		return httpError(http.StatusNotFound, "", "")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
	assert.Empty(t, *waits)
	assert.False(t, b.Exhausted())

	calls = 0
	err = b.Do(context.Background(), func(context.Context) error {
		calls++
		return errors.New("plain error")
	})
	require.Error(t, err)
	assert.Equal(t, 1, calls)
}

func TestBackoffRecoversBeforeLimit(t *testing.T) {
	b, waits := recordingBackoff()
	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		if calls < 3 {
			return &RequestError{Kind: KindTimeout}
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 3, calls)
	assert.Len(t, *waits, 2)
	assert.Equal(t, 1, b.Attempt())
}

func TestBackoffHonoursCancellation(t *testing.T) {
	b := NewBackoff(time.Hour, nil)
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()
	err := b.Do(ctx, func(context.Context) error {
		calls++
		return &RequestError{Kind: KindNetwork}
	})
	var reqErr *RequestError
	require.True(t, errors.As(err, &reqErr))
	assert.Equal(t, KindCanceled, reqErr.Kind)
	assert.Equal(t, 1, calls)
}

func TestFetchWithRetryAgainstServer(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&hits, 1) < 3 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = io.WriteString(w, `{"data":[{"_id":"s1","displayName":"Semestre 1"}]}`)
	}))
	defer srv.Close()

	c := New(Config{BaseURL: srv.URL})
	semesters, err := SemestersQuery().FetchWithRetry(context.Background(), c, NewBackoff(time.Millisecond, nil))
	require.NoError(t, err)
	assert.Len(t, semesters, 1)
	assert.Equal(t, int32(3), atomic.LoadInt32(&hits))
}

func TestBackoffRestartsCountAfterPermanentError(t *testing.T) {
	b, _ := recordingBackoff()
	calls := 0
	err := b.Do(context.Background(), func(context.Context) error {
		calls++
		if calls == 1 {
			return httpError(http.StatusBadGateway, "", "")
		}
		return httpError(http.StatusNotFound, "", "")
	})
	require.Error(t, err)
	assert.Equal(t, 2, calls)
	assert.Equal(t, 1, b.Attempt())

	calls = 0
	err = b.Do(context.Background(), func(context.Context) error {
		calls++
		return httpError(http.StatusServiceUnavailable, "", "")
	})
	require.Error(t, err)
	assert.Equal(t, DefaultMaxAttempts, calls)
	assert.True(t, b.Exhausted())
}
