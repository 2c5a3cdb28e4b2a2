package middleware

import (
	"bytes"
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/ratelimit"

	"github.com/terraconstructs/geoform/internal/apierror"
	"github.com/terraconstructs/geoform/internal/logging"
	"github.com/terraconstructs/geoform/internal/telemetry"
)

func TestBodyLimit(t *testing.T) {
	var readErr error
	h := BodyLimit(4)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, readErr = io.ReadAll(r.Body)
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/", strings.NewReader("0123456789")))

	var tooLarge *http.MaxBytesError
	assert.ErrorAs(t, readErr, &tooLarge)
}

func TestTimeoutAnswers408WhenHandlerIsSilent(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	h := Timeout(20*time.Millisecond, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.Contains(t, w.Body.String(), "request took longer than the configured")
}

func TestTimeoutLeavesFastResponsesAlone(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	h := Timeout(time.Second, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusCreated, w.Code)
	assert.Empty(t, w.Body.String())
}

func TestRateLimitPassesRequestsThrough(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	calls := 0
	h := RateLimit(1000, 8, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	}))

	for i := 0; i < 3; i++ {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	}
	assert.Equal(t, 3, calls)
}

func TestRateLimitWaiterLeavesOnCancel(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	var calls int32
	h := RateLimit(1, 8, rs, ratelimit.WithoutSlack)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
	}))

	// The first request takes the only slot of this second.
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	start := time.Now()
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestRateLimitRejectsWhenQueueIsFull(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	h := RateLimit(1, 1, rs, ratelimit.WithoutSlack)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	// This request occupies the single queue position until the test ends.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil).WithContext(ctx))

	var last *httptest.ResponseRecorder
	assert.Eventually(t, func() bool {
		tryCtx, tryCancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer tryCancel()
		last = httptest.NewRecorder()
		h.ServeHTTP(last, httptest.NewRequest(http.MethodGet, "/", nil).WithContext(tryCtx))
		return last.Code == http.StatusServiceUnavailable
	}, 500*time.Millisecond, 5*time.Millisecond)
	assert.JSONEq(t, `{"error":"too many requests are waiting, try again later"}`, last.Body.String())
}

func TestTimeoutAnswers408WhenHandlerHonoursContext(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	h := Timeout(20*time.Millisecond, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
			rs.Write(w, r, apierror.InternalServerError(r.Context().Err()))
		case <-time.After(time.Second):
			w.WriteHeader(http.StatusOK)
		}
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.JSONEq(t, `{"error":"request took longer than the configured 0 second timeout"}`, w.Body.String())
}

func TestTimeoutDoesNotWaitForSlowHandlers(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	release := make(chan struct{})
	defer close(release)
	h := Timeout(20*time.Millisecond, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-release
		_, _ = w.Write([]byte("late"))
	}))

	w := httptest.NewRecorder()
	start := time.Now()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Less(t, time.Since(start), 500*time.Millisecond)
	assert.Equal(t, http.StatusRequestTimeout, w.Code)
	assert.NotContains(t, w.Body.String(), "late")
}

func TestTimeoutKeepsHandlerHeaders(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	h := Timeout(time.Second, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"data":{}}`))
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	assert.Equal(t, `{"data":{}}`, w.Body.String())
}

func TestTimeoutPropagatesPanics(t *testing.T) {
	rs := apierror.NewResponder(logging.Discard())
	h := Timeout(time.Second, rs)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	}))

	assert.PanicsWithValue(t, "boom", func() {
		h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRequestLogger(t *testing.T) {
	logger, hook := test.NewNullLogger()
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = w.Write([]byte(`{"error":"nope"}`))
	}))

	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/missing", bytes.NewReader(nil)))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, http.StatusNotFound, entry.Data["status"])
	assert.Equal(t, "/missing", entry.Data["path"])
}

func TestMetricsMiddleware(t *testing.T) {
	m, err := telemetry.NewServerMetrics()
	require.NoError(t, err)

	h := Metrics(m)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusTeapot, w.Code)
}
