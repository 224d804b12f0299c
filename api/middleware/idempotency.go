package middleware

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/angelboost/storefront-backend/api/responses"
	pkgerrors "github.com/angelboost/storefront-backend/pkg/errors"
	"github.com/angelboost/storefront-backend/pkg/logger"
	pkgredis "github.com/angelboost/storefront-backend/pkg/redis"
	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"
)

// Checkout replays must return the original receipt for a week; a double
// submit must never commit two batches.
const checkoutIdempotencyTTL = 7 * 24 * time.Hour

// replayWindows maps "METHOD pattern" to how long a stored response is
// replayed. Only mutating routes with side effects worth deduplicating
// belong here.
var replayWindows = map[string]time.Duration{
	http.MethodPost + " /api/v1/checkout": checkoutIdempotencyTTL,
}

func routeTTL(method, pattern string) (time.Duration, bool) {
	if pattern == "" {
		return 0, false
	}
	ttl, ok := replayWindows[method+" "+pattern]
	return ttl, ok
}

// storedResponse is the cached outcome of the first request with a given
// idempotency key. Body round-trips through JSON's base64 []byte encoding.
type storedResponse struct {
	Status      int    `json:"status"`
	ContentType string `json:"contentType,omitempty"`
	Body        []byte `json:"body"`
	RequestHash string `json:"requestHash"`
}

// Idempotency deduplicates side-effecting requests: the first request with a
// given Idempotency-Key executes and its response is cached; replays with the
// same key and body get the cached response; replays with a different body
// are rejected.
func Idempotency(store pkgredis.IdempotencyStore, logg *logger.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		fn := func(w http.ResponseWriter, r *http.Request) {
			ttl, gated := routeTTL(r.Method, routePattern(r))
			if !gated || store == nil {
				next.ServeHTTP(w, r)
				return
			}

			idemKey := strings.TrimSpace(r.Header.Get("Idempotency-Key"))
			if idemKey == "" {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "Idempotency-Key header required"))
				return
			}

			body, err := io.ReadAll(r.Body)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "read request"))
				return
			}
			r.Body = io.NopCloser(bytes.NewReader(body))

			// The scope binds the key to the owner as well as the route, so
			// two browsers reusing the same key value cannot see each
			// other's receipts.
			scope := strings.Join([]string{OwnerKeyFromContext(r.Context()), r.Method, r.URL.Path}, "|")
			cacheKey := store.IdempotencyKey(scope, idemKey)
			reqHash := fingerprint(body)

			raw, getErr := store.Get(r.Context(), cacheKey)
			if getErr != nil && !errors.Is(getErr, redis.Nil) {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, getErr, "check idempotency"))
				return
			}
			if raw != "" {
				replayStored(w, r, logg, raw, reqHash)
				return
			}

			rec := &replayRecorder{ResponseWriter: w}
			next.ServeHTTP(rec, r)

			cached := storedResponse{
				Status:      rec.statusOrOK(),
				ContentType: rec.Header().Get("Content-Type"),
				Body:        rec.buf.Bytes(),
				RequestHash: reqHash,
			}
			payload, marshalErr := json.Marshal(cached)
			if marshalErr != nil {
				if logg != nil {
					logg.Error(r.Context(), "marshal idempotency record", marshalErr)
				}
				return
			}
			if _, setErr := store.SetNX(r.Context(), cacheKey, string(payload), ttl); setErr != nil {
				if logg != nil {
					logg.Error(r.Context(), "persist idempotency record", setErr)
				}
			}
		}
		return http.HandlerFunc(fn)
	}
}

func replayStored(w http.ResponseWriter, r *http.Request, logg *logger.Logger, raw, reqHash string) {
	var cached storedResponse
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode idempotency record"))
		return
	}
	if cached.RequestHash != reqHash {
		responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeIdempotency, "idempotency key reused with different request body"))
		return
	}
	if cached.ContentType != "" {
		w.Header().Set("Content-Type", cached.ContentType)
	}
	w.WriteHeader(cached.Status)
	_, _ = w.Write(cached.Body)
}

func fingerprint(payload []byte) string {
	sum := sha256.Sum256(payload)
	return hex.EncodeToString(sum[:])
}

func routePattern(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if pattern := rc.RoutePattern(); pattern != "" {
			return pattern
		}
	}
	return r.URL.Path
}

// replayRecorder tees the response so it can be cached after the handler ran.
type replayRecorder struct {
	http.ResponseWriter
	buf    bytes.Buffer
	status int
}

func (r *replayRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (r *replayRecorder) Write(b []byte) (int, error) {
	r.buf.Write(b)
	return r.ResponseWriter.Write(b)
}

func (r *replayRecorder) statusOrOK() int {
	if r.status == 0 {
		return http.StatusOK
	}
	return r.status
}
