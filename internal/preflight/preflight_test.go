package preflight

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastChecker(maxElapsed time.Duration) *Checker {
	c := NewChecker(maxElapsed, nil)
	c.InitialInterval = 10 * time.Millisecond
	return c
}

func TestCheck_Reachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer server.Close()

	// a 404 still proves the storefront answers
	assert.NoError(t, fastChecker(time.Second).Check(context.Background(), server.URL))
}

func TestCheck_RetriesUntilReady(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			http.Error(w, "starting", http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer server.Close()

	require.NoError(t, fastChecker(5*time.Second).Check(context.Background(), server.URL))
	assert.Equal(t, int32(3), calls.Load())
}

func TestCheck_Unreachable(t *testing.T) {
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	err := fastChecker(100*time.Millisecond).Check(context.Background(), url)

	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestCheck_ZeroWaitSingleAttempt(t *testing.T) {
	// GIVEN a storefront that is down
	server := httptest.NewServer(http.NotFoundHandler())
	url := server.URL
	server.Close()

	// WHEN checking without a wait budget
	start := time.Now()
	err := fastChecker(0).Check(context.Background(), url)

	// THEN it gives up after one attempt
	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Contains(t, err.Error(), "after 1 attempts")
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestCheck_ZeroWaitDoesNotRetryServerErrors(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "starting", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	err := fastChecker(0).Check(context.Background(), server.URL)

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCheck_ServerErrorIsUnreachable(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusInternalServerError)
	}))
	defer server.Close()

	err := fastChecker(100*time.Millisecond).Check(context.Background(), server.URL)

	assert.ErrorIs(t, err, ErrUnreachable)
}

func TestCheck_InvalidURLIsPermanent(t *testing.T) {
	start := time.Now()
	err := fastChecker(5*time.Second).Check(context.Background(), "http://[::1")

	assert.ErrorIs(t, err, ErrUnreachable)
	assert.Less(t, time.Since(start), time.Second)
}
