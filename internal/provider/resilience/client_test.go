package resilience_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sony/gobreaker/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/guardnomad/guardnomad/internal/provider/resilience"
)

func newClient(breaker resilience.BreakerConfig, retries uint64) *resilience.Client {
	return resilience.NewClient(resilience.ClientConfig{
		Name:            "test",
		Timeout:         2 * time.Second,
		MaxRetries:      retries,
		InitialInterval: time.Millisecond,
		Breaker:         &breaker,
	})
}

func TestDo_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	client := newClient(resilience.DefaultBreakerConfig("test"), 0)

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestDo_ClientErrorsDoNotTripBreaker(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	client := newClient(resilience.DefaultBreakerConfig("test"), 0)

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err, "4xx responses are the caller's problem, not a provider outage")
	defer resp.Body.Close()

	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	assert.Equal(t, gobreaker.StateClosed, client.BreakerState())
}

func TestDo_ServerErrorTripsBreakerOnFirstFailure(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		hits.Add(1)
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	client := newClient(resilience.DefaultBreakerConfig("test"), 0)

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err, "the 5xx response is still returned to the caller")
	defer resp.Body.Close()
	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)

	assert.Equal(t, gobreaker.StateOpen, client.BreakerState())

	// Open breaker short-circuits without touching the server.
	req2, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	_, err = client.Do(req2) //nolint:bodyclose // errors carry no body
	require.Error(t, err)
	assert.True(t, errors.Is(err, resilience.ErrCircuitOpen))
	assert.Equal(t, int32(1), hits.Load())
}

func TestDo_RetriesTransientFailures(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if hits.Add(1) == 1 {
			w.WriteHeader(http.StatusBadGateway)
			return
		}
		_, _ = w.Write([]byte("ok"))
	}))
	defer srv.Close()

	// A tolerant breaker lets the retry reach the server.
	breaker := resilience.BreakerConfig{Name: "test", TripAfter: 5}
	client := newClient(breaker, 2)

	req, err := http.NewRequest(http.MethodGet, srv.URL, http.NoBody)
	require.NoError(t, err)

	resp, err := client.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, int32(2), hits.Load())
}

func TestNewBreaker_TripAfterThreshold(t *testing.T) {
	breaker := resilience.NewBreaker[int](resilience.BreakerConfig{
		Name:      "test",
		TripAfter: 3,
	})

	fail := func() (int, error) { return 0, errors.New("boom") }

	for i := 0; i < 2; i++ {
		_, err := breaker.Execute(fail)
		require.Error(t, err)
		require.Equal(t, gobreaker.StateClosed, breaker.State(), "attempt %d", i)
	}

	_, err := breaker.Execute(fail)
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateOpen, breaker.State())
}

func TestNewBreaker_SuccessResetsConsecutiveFailures(t *testing.T) {
	breaker := resilience.NewBreaker[int](resilience.BreakerConfig{
		Name:      "test",
		TripAfter: 2,
	})

	_, err := breaker.Execute(func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)

	v, err := breaker.Execute(func() (int, error) { return 7, nil })
	require.NoError(t, err)
	assert.Equal(t, 7, v)

	_, err = breaker.Execute(func() (int, error) { return 0, errors.New("boom") })
	require.Error(t, err)
	assert.Equal(t, gobreaker.StateClosed, breaker.State())
}
