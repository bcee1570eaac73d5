package retry

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	httpclient "growth-forecast/internal/common/http"
)

type recordingSleeper struct {
	waits []time.Duration
}

func (r *recordingSleeper) Sleep(ctx context.Context, d time.Duration) error {
	r.waits = append(r.waits, d)
	return ctx.Err()
}

func rateLimited() error {
	return &httpclient.StatusError{StatusCode: http.StatusTooManyRequests, Body: "quota"}
}

func testPolicy(s *recordingSleeper) Policy {
	p := DefaultPolicy()
	p.Sleep = s.Sleep
	return p
}

func TestAlwaysRateLimitedGivesUpAfterMaxAttempts(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	_, err := Do(context.Background(), testPolicy(sleeper), func(ctx context.Context) (string, error) {
		calls++
		return "", rateLimited()
	})

	require.Error(t, err)
	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, 3, calls)
	assert.Equal(t, 3, fatal.Attempts)
	assert.True(t, fatal.RateLimited())
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.waits)
}

func TestRateLimitedThenSuccess(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0
	var retried []int

	p := testPolicy(sleeper)
	p.OnRetry = func(attempt int, err error, wait time.Duration) { retried = append(retried, attempt) }

	got, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls == 1 {
			return 0, rateLimited()
		}
		return 7, nil
	})

	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, 2, calls)
	assert.Equal(t, []int{1}, retried)
	assert.Equal(t, []time.Duration{2 * time.Second}, sleeper.waits)
}

func TestNonRetryableFailsImmediately(t *testing.T) {
	sleeper := &recordingSleeper{}
	calls := 0

	_, err := Do(context.Background(), testPolicy(sleeper), func(ctx context.Context) (struct{}, error) {
		calls++
		return struct{}{}, &httpclient.StatusError{StatusCode: http.StatusBadRequest}
	})

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, 1, calls)
	assert.Equal(t, http.StatusBadRequest, httpclient.StatusCode(fatal.Cause))
	assert.Empty(t, sleeper.waits)
}

func TestTransientToleranceIsOptIn(t *testing.T) {
	unavailable := &httpclient.StatusError{StatusCode: http.StatusServiceUnavailable}

	tests := []struct {
		name      string
		transient bool
		wantCalls int
	}{
		{"strict", false, 1},
		{"tolerant", true, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := testPolicy(&recordingSleeper{})
			p.RetryTransient = tt.transient
			calls := 0
			_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
				calls++
				return 0, unavailable
			})
			require.Error(t, err)
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestClassifyOverridesDefaults(t *testing.T) {
	errBusy := errors.New("gateway busy")
	sleeper := &recordingSleeper{}
	p := testPolicy(sleeper)
	p.Classify = func(err error) Decision {
		if errors.Is(err, errBusy) {
			return Retry
		}
		return Fail
	}

	calls := 0
	got, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		if calls < 3 {
			return 0, errBusy
		}
		return 7, nil
	})
	require.NoError(t, err)
	assert.Equal(t, 7, got)
	assert.Equal(t, []time.Duration{2 * time.Second, 4 * time.Second}, sleeper.waits)

	calls = 0
	_, err = Do(context.Background(), p, func(ctx context.Context) (int, error) {
		calls++
		return 0, rateLimited()
	})
	var fatal *FatalError
	require.ErrorAs(t, err, &fatal)
	assert.Equal(t, 1, fatal.Attempts, "override can refuse a 429")
	assert.Equal(t, 1, calls)
}

func TestCancellationStopsBetweenAttempts(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := 0

	p := DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		cancel()
		return ctx.Err()
	}

	_, err := Do(ctx, p, func(ctx context.Context) (int, error) {
		calls++
		return 0, rateLimited()
	})

	var fatal *FatalError
	require.True(t, errors.As(err, &fatal))
	assert.Equal(t, 1, calls)
	assert.True(t, fatal.RateLimited())
}

func TestAttemptTimeoutApplied(t *testing.T) {
	p := DefaultPolicy()
	p.AttemptTimeout = 50 * time.Millisecond
	p.MaxAttempts = 1

	_, err := Do(context.Background(), p, func(ctx context.Context) (int, error) {
		deadline, ok := ctx.Deadline()
		assert.True(t, ok)
		assert.WithinDuration(t, time.Now().Add(50*time.Millisecond), deadline, 50*time.Millisecond)
		return 0, errors.New("nope")
	})
	require.Error(t, err)
}

func TestSleepContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, SleepContext(ctx, time.Hour), context.Canceled)
	assert.NoError(t, SleepContext(context.Background(), time.Millisecond))
}
