package middleware

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"loanease/pkg/id"
)

const (
	HeaderRequestID = "X-Request-Id"
	HeaderRequestAt = "X-Request-At"
	HeaderReplayed  = "Idempotent-Replayed"

	// lifetime of a reservation whose handler never finished
	pendingTTL = 60 * time.Second
	// accepted distance between X-Request-At and the server clock
	maxClockSkew = 10 * time.Minute

	keyPrefix = "loanease:idemp:"
)

// storedResponse is what one request id maps to: a reservation while the
// handler runs, then the response it produced.
type storedResponse struct {
	Pending     bool      `json:"pending"`
	Status      int       `json:"status,omitempty"`
	ContentType string    `json:"content_type,omitempty"`
	Body        []byte    `json:"body,omitempty"`
	Fingerprint string    `json:"fingerprint"`
	RequestAtMS int64     `json:"request_at_ms"`
	StoredAt    time.Time `json:"stored_at"`
}

// IdempotencyStore keeps stored responses in redis, one key per method,
// route and request id.
type IdempotencyStore struct {
	rdb *redis.Client
	ttl time.Duration
	now func() time.Time
}

func NewIdempotencyStore(rdb *redis.Client, ttl time.Duration) *IdempotencyStore {
	return &IdempotencyStore{rdb: rdb, ttl: ttl, now: func() time.Time { return time.Now().UTC() }}
}

func storeKey(method, route, requestID string) string {
	return keyPrefix + strings.ToLower(method) + ":" + route + ":" + strings.ToLower(requestID)
}

// reserve claims key for a new request. False means the key already exists.
func (s *IdempotencyStore) reserve(ctx context.Context, key string, r storedResponse) (bool, error) {
	r.Pending = true
	payload, err := json.Marshal(r)
	if err != nil {
		return false, err
	}
	return s.rdb.SetNX(ctx, key, payload, pendingTTL).Result()
}

func (s *IdempotencyStore) load(ctx context.Context, key string) (storedResponse, error) {
	var r storedResponse
	raw, err := s.rdb.Get(ctx, key).Bytes()
	if err != nil {
		return r, err
	}
	if err := json.Unmarshal(raw, &r); err != nil {
		return r, err
	}
	return r, nil
}

// complete replaces the reservation with the final response for the
// configured TTL.
func (s *IdempotencyStore) complete(ctx context.Context, key string, r storedResponse) error {
	r.Pending = false
	r.StoredAt = s.now()
	payload, err := json.Marshal(r)
	if err != nil {
		return err
	}
	return s.rdb.Set(ctx, key, payload, s.ttl).Err()
}

// release forgets key so the request can be retried.
func (s *IdempotencyStore) release(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, key).Err()
}

func fingerprint(body []byte) string {
	sum := sha256.Sum256(body)
	return hex.EncodeToString(sum[:])
}

// validRequestID accepts a UUID or 32 hex characters, in any case.
func validRequestID(s string) bool {
	s = strings.ToLower(strings.TrimSpace(s))
	return id.IsID32(s) || id.IsPublicID(s)
}

// parseRequestAt accepts epoch seconds, epoch milliseconds or RFC3339 with
// a zone. Values above 1e12 are read as milliseconds.
func parseRequestAt(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("missing " + HeaderRequestAt)
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		if n > 1e12 {
			return time.UnixMilli(n).UTC(), nil
		}
		return time.Unix(n, 0).UTC(), nil
	}
	if t, err := time.Parse(time.RFC3339Nano, raw); err == nil {
		return t.UTC(), nil
	}
	return time.Time{}, errors.New(HeaderRequestAt + " must be epoch (s/ms) or RFC3339 with timezone")
}

// readIdempotencyHeaders validates the request id and timestamp against now.
func readIdempotencyHeaders(h http.Header, now time.Time) (string, time.Time, error) {
	reqID := strings.TrimSpace(h.Get(HeaderRequestID))
	if reqID == "" {
		return "", time.Time{}, errors.New("missing " + HeaderRequestID)
	}
	if !validRequestID(reqID) {
		return "", time.Time{}, errors.New("invalid " + HeaderRequestID + " format")
	}
	at, err := parseRequestAt(h.Get(HeaderRequestAt))
	if err != nil {
		return "", time.Time{}, err
	}
	if at.Before(now.Add(-maxClockSkew)) || at.After(now.Add(maxClockSkew)) {
		return "", time.Time{}, errors.New(HeaderRequestAt + " too skewed")
	}
	return reqID, at, nil
}
