package idempotency

import (
	"bytes"
	"context"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/glimpse-app/glimpse-api/internal/apierr"
	"github.com/glimpse-app/glimpse-api/internal/metrics"
)

// DefaultTTL is how long a completed outcome stays replayable.
const DefaultTTL = 24 * time.Hour

// Response headers emitted by the middleware.
const (
	HeaderReplayed = "X-Idempotent-Replayed"
	HeaderCachedAt = "X-Idempotent-Cached"
)

// KeyPolicy decides what happens when a mutating request carries no key.
type KeyPolicy int

const (
	// PolicyDerive hashes request identity into a key, so byte-identical
	// resubmissions still collide.
	PolicyDerive KeyPolicy = iota

	// PolicyRequire rejects keyless requests with 400. Used on payment and
	// transfer routes where derived keys are not safe against intentionally
	// varied retries.
	PolicyRequire
)

// Options configures one instance of the middleware.
type Options struct {
	TTL      time.Duration               // replay window; DefaultTTL when zero
	Policy   KeyPolicy                   // keyless-request behavior
	Identity func(c *gin.Context) string // authenticated identity for derived keys; "" -> anonymous
	Metrics  *metrics.Emitter            // optional; nil-safe
}

// Middleware returns a gin middleware enforcing at-most-once semantics for
// mutating requests. Per-request states: exempt passthrough, replay on hit,
// execute-and-capture on miss. Cache faults degrade to miss; the mutation
// path never depends on cache availability.
func Middleware(store Store, opts Options) gin.HandlerFunc {
	if opts.TTL <= 0 {
		opts.TTL = DefaultTTL
	}
	return func(c *gin.Context) {
		if exemptMethod(c.Request.Method) {
			c.Next()
			return
		}

		key, err := KeyFromRequest(c.Request)
		if err != nil {
			apierr.Abort(c, http.StatusBadRequest, apierr.CodeInvalidIdempotencyKey,
				"idempotency key must be a UUID or 32-64 hex characters")
			return
		}
		if key == "" {
			if opts.Policy == PolicyRequire {
				apierr.Abort(c, http.StatusBadRequest, apierr.CodeMissingIdempotencyKey,
					"Idempotency-Key header is required for this operation")
				return
			}
			var identity string
			if opts.Identity != nil {
				identity = opts.Identity(c)
			}
			key = DeriveKey(identity, c.Request.Method, c.Request.URL.Path, bufferBody(c))
		}

		ctx := c.Request.Context()

		// Atomic in-flight marker: exactly one of N concurrent duplicates
		// gets created=true and runs the handler.
		created, err := store.PutIfAbsent(ctx, key, Record{Status: StatusInProgress}, opts.TTL)
		if err != nil {
			log.Printf("[idempotency] WARN cache unavailable on acquire key=%s: %v (treating as miss)", key, err)
			executeAndCapture(c, store, key, opts, false)
			return
		}
		if !created {
			rec, err := store.Get(ctx, key)
			if err != nil {
				log.Printf("[idempotency] WARN cache unavailable on lookup key=%s: %v (treating as miss)", key, err)
				executeAndCapture(c, store, key, opts, false)
				return
			}
			if rec == nil {
				// Record expired between the conditional put and the read.
				executeAndCapture(c, store, key, opts, false)
				return
			}
			if rec.Status == StatusDone {
				opts.Metrics.Count(ctx, "IdempotentReplay")
				replay(c, rec)
				return
			}
			apierr.Abort(c, http.StatusConflict, apierr.CodeRequestInProgress,
				"a request with this idempotency key is currently being processed")
			return
		}

		executeAndCapture(c, store, key, opts, true)
	}
}

// executeAndCapture runs the downstream handler with an interposed writer and
// persists 2xx outcomes. holdsMarker is false when we are running fail-open
// after a cache fault and there is no marker of ours to release.
func executeAndCapture(c *gin.Context, store Store, key string, opts Options, holdsMarker bool) {
	w := &captureWriter{ResponseWriter: c.Writer}
	c.Writer = w

	finished := false
	defer func() {
		if finished {
			return
		}
		// Handler panicked. Release the marker with a fresh context so a
		// wedged key cannot block future retries, then let the panic
		// continue to the recovery middleware.
		if holdsMarker {
			if err := store.Delete(context.Background(), key); err != nil {
				log.Printf("[idempotency] WARN failed to release marker key=%s after panic: %v", key, err)
			}
		}
	}()

	c.Next()
	finished = true

	status := c.Writer.Status()
	ctx := c.Request.Context()

	if status >= 200 && status < 300 {
		now := time.Now().UTC()
		rec := Record{
			Status:     StatusDone,
			StatusCode: status,
			Body:       append([]byte(nil), w.body.Bytes()...),
			Headers: map[string]string{
				"Content-Type": w.Header().Get("Content-Type"),
				HeaderCachedAt: now.Format(time.RFC3339),
			},
			CachedAt: now,
		}
		// The client already has its response; persistence failure only
		// weakens dedup for this key and is not surfaced.
		if err := store.Complete(ctx, key, rec, opts.TTL); err != nil {
			log.Printf("[idempotency] WARN failed to cache outcome key=%s: %v", key, err)
		}
		return
	}

	// Non-2xx outcomes are never cached; the key stays open for retry.
	if holdsMarker {
		if err := store.Delete(ctx, key); err != nil {
			log.Printf("[idempotency] WARN failed to release marker key=%s: %v", key, err)
		}
	}
}

// replay writes the stored outcome verbatim plus the replay marker headers.
func replay(c *gin.Context, rec *Record) {
	contentType := rec.Headers["Content-Type"]
	if contentType == "" {
		contentType = "application/json"
	}
	for k, v := range rec.Headers {
		if k == "Content-Type" {
			continue
		}
		c.Header(k, v)
	}
	c.Header(HeaderReplayed, "true")
	c.Data(rec.StatusCode, contentType, rec.Body)
	c.Abort()
}

// bufferBody reads and restores the request body for key derivation.
func bufferBody(c *gin.Context) []byte {
	if c.Request.Body == nil {
		return nil
	}
	body, err := io.ReadAll(c.Request.Body)
	if err != nil {
		return nil
	}
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	return body
}

// captureWriter tees the outgoing response body so a 2xx outcome can be
// persisted after the handler returns.
type captureWriter struct {
	gin.ResponseWriter
	body bytes.Buffer
}

func (w *captureWriter) Write(b []byte) (int, error) {
	w.body.Write(b)
	return w.ResponseWriter.Write(b)
}

func (w *captureWriter) WriteString(s string) (int, error) {
	w.body.WriteString(s)
	return w.ResponseWriter.WriteString(s)
}
