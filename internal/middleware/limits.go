package middleware

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"time"

	"go.uber.org/ratelimit"
	"golang.org/x/sync/semaphore"

	"github.com/terraconstructs/geoform/internal/apierror"
)

// BodyLimit caps request bodies at limit bytes.
func BodyLimit(limit int64) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if r.Body != nil {
				r.Body = http.MaxBytesReader(w, r.Body, limit)
			}
			next.ServeHTTP(w, r)
		})
	}
}

// DefaultRateLimitQueue bounds how many requests may wait for a rate limit slot.
const DefaultRateLimitQueue = 1024

// MsgOverloaded answers requests that find the rate limit queue full.
const MsgOverloaded = "too many requests are waiting, try again later"

// RateLimit admits at most perSecond requests per second across the server.
// Excess requests wait for their turn instead of being rejected, up to queue
// of them at a time; beyond that the request is answered with 503. A request
// whose context ends while waiting leaves the queue without consuming a slot.
func RateLimit(perSecond, queue int, rs *apierror.Responder, opts ...ratelimit.Option) func(http.Handler) http.Handler {
	if queue <= 0 {
		queue = DefaultRateLimitQueue
	}
	limiter := ratelimit.New(perSecond, opts...)
	waiting := semaphore.NewWeighted(int64(queue))

	// A single dispatcher takes slots from the limiter and hands each one to
	// a request that is still waiting.
	permits := make(chan struct{})
	var dispatcher sync.Once
	dispatch := func() {
		for {
			limiter.Take()
			permits <- struct{}{}
		}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			dispatcher.Do(func() { go dispatch() })

			if !waiting.TryAcquire(1) {
				rs.Write(w, r, apierror.ServiceUnavailable(MsgOverloaded))
				return
			}
			select {
			case <-permits:
				waiting.Release(1)
			case <-r.Context().Done():
				waiting.Release(1)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// Timeout bounds the request by d. The handler runs against a buffered
// writer; when the deadline passes first, whatever it produced is discarded
// and the request is answered with 408.
func Timeout(d time.Duration, rs *apierror.Responder) func(http.Handler) http.Handler {
	message := fmt.Sprintf("request took longer than the configured %d second timeout", int(d.Seconds()))
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx, cancel := context.WithTimeout(r.Context(), d)
			defer cancel()
			r = r.WithContext(ctx)

			tw := &timeoutWriter{header: make(http.Header)}
			done := make(chan struct{})
			panicked := make(chan interface{}, 1)
			go func() {
				defer func() {
					if p := recover(); p != nil {
						panicked <- p
					}
				}()
				next.ServeHTTP(tw, r)
				close(done)
			}()

			select {
			case p := <-panicked:
				panic(p)
			case <-done:
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					tw.flush(w)
					return
				}
			case <-ctx.Done():
				if !errors.Is(ctx.Err(), context.DeadlineExceeded) {
					// The client went away.
					tw.stop()
					return
				}
			}

			tw.stop()
			rs.Write(w, r, apierror.RequestTimeout(message))
		})
	}
}

// timeoutWriter buffers a response until Timeout decides whether to send it.
type timeoutWriter struct {
	mu       sync.Mutex
	header   http.Header
	body     bytes.Buffer
	status   int
	timedOut bool
}

func (tw *timeoutWriter) Header() http.Header {
	return tw.header
}

func (tw *timeoutWriter) Write(p []byte) (int, error) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut {
		return 0, http.ErrHandlerTimeout
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	return tw.body.Write(p)
}

func (tw *timeoutWriter) WriteHeader(status int) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	if tw.timedOut || tw.status != 0 {
		return
	}
	tw.status = status
}

func (tw *timeoutWriter) stop() {
	tw.mu.Lock()
	tw.timedOut = true
	tw.mu.Unlock()
}

func (tw *timeoutWriter) flush(w http.ResponseWriter) {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	dst := w.Header()
	for key, values := range tw.header {
		dst[key] = values
	}
	if tw.status == 0 {
		tw.status = http.StatusOK
	}
	w.WriteHeader(tw.status)
	_, _ = w.Write(tw.body.Bytes())
}
