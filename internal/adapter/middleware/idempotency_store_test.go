package middleware

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

func TestFingerprint(t *testing.T) {
	a := fingerprint([]byte(`{"x":1}`))
	if len(a) != 64 {
		t.Fatalf("fingerprint length = %d, want 64", len(a))
	}
	if a != fingerprint([]byte(`{"x":1}`)) {
		t.Fatal("fingerprint not stable")
	}
	if a == fingerprint([]byte(`{"x":2}`)) {
		t.Fatal("different bodies share a fingerprint")
	}
}

func TestStoreKey(t *testing.T) {
	got := storeKey("POST", "/api/applications", "ABCDEFABCDEFABCDEFABCDEFABCDEFAB")
	want := "loanease:idemp:post:/api/applications:abcdefabcdefabcdefabcdefabcdefab"
	if got != want {
		t.Fatalf("storeKey = %q, want %q", got, want)
	}
}

func TestValidRequestID(t *testing.T) {
	cases := map[string]bool{
		"6f1c1f8e-8d0b-4a57-9c8a-2c51e0a4f3b1": true,
		"6F1C1F8E-8D0B-4A57-9C8A-2C51E0A4F3B1": true,
		"aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa":     true,
		"  aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa ":  true,
		"aaaa":                                 false,
		"gggggggggggggggggggggggggggggggg":     false,
		"":                                     false,
	}
	for in, want := range cases {
		if got := validRequestID(in); got != want {
			t.Errorf("validRequestID(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestParseRequestAt(t *testing.T) {
	want := time.Date(2025, 1, 6, 0, 30, 56, 0, time.UTC)
	cases := []struct {
		name string
		in   string
		want time.Time
	}{
		{"epoch seconds", "1736123456", want},
		{"epoch millis", "1736123456789", want.Add(789 * time.Millisecond)},
		{"rfc3339 utc", "2025-01-06T00:30:56Z", want},
		{"rfc3339 offset", "2025-01-06T07:30:56+07:00", want},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := parseRequestAt(tc.in)
			if err != nil {
				t.Fatalf("parseRequestAt(%q): %v", tc.in, err)
			}
			if !got.Equal(tc.want) || got.Location() != time.UTC {
				t.Fatalf("parseRequestAt(%q) = %v, want %v UTC", tc.in, got, tc.want)
			}
		})
	}

	for _, bad := range []string{"", "yesterday", "2025-01-06T00:30:56"} {
		if _, err := parseRequestAt(bad); err == nil {
			t.Errorf("parseRequestAt(%q): want error", bad)
		}
	}
}

func TestReadIdempotencyHeaders(t *testing.T) {
	now := time.Date(2026, 5, 1, 12, 0, 0, 0, time.UTC)
	hdr := func(id, at string) http.Header {
		h := http.Header{}
		if id != "" {
			h.Set(HeaderRequestID, id)
		}
		if at != "" {
			h.Set(HeaderRequestAt, at)
		}
		return h
	}

	id, at, err := readIdempotencyHeaders(hdr(testReqID, now.Format(time.RFC3339)), now)
	if err != nil || id != testReqID || !at.Equal(now) {
		t.Fatalf("got %q %v %v", id, at, err)
	}

	bad := map[string]http.Header{
		"missing id":   hdr("", now.Format(time.RFC3339)),
		"bad id":       hdr("NOT-VALID", now.Format(time.RFC3339)),
		"missing at":   hdr(testReqID, ""),
		"too old":      hdr(testReqID, now.Add(-maxClockSkew-time.Second).Format(time.RFC3339)),
		"too far away": hdr(testReqID, now.Add(maxClockSkew+time.Second).Format(time.RFC3339)),
	}
	for name, h := range bad {
		if _, _, err := readIdempotencyHeaders(h, now); err == nil {
			t.Errorf("%s: want error", name)
		}
	}
}

func TestIdempotencyStore_Lifecycle(t *testing.T) {
	mr, rdb := newMiniredisClient(t)
	defer mr.Close()
	s := NewIdempotencyStore(rdb, 5*time.Minute)
	ctx := context.Background()
	key := storeKey(http.MethodPost, "/api/applications", testReqID)

	ok, err := s.reserve(ctx, key, storedResponse{Fingerprint: "fp"})
	if err != nil || !ok {
		t.Fatalf("first reserve: ok=%v err=%v", ok, err)
	}
	if ttl := mr.TTL(key); ttl != pendingTTL {
		t.Fatalf("pending ttl = %v, want %v", ttl, pendingTTL)
	}
	if ok, _ := s.reserve(ctx, key, storedResponse{Fingerprint: "fp"}); ok {
		t.Fatal("second reserve should fail")
	}
	got, err := s.load(ctx, key)
	if err != nil || !got.Pending || got.Fingerprint != "fp" {
		t.Fatalf("load pending: %+v %v", got, err)
	}

	err = s.complete(ctx, key, storedResponse{Status: http.StatusCreated, Body: []byte(`{"id":"a"}`), Fingerprint: "fp"})
	if err != nil {
		t.Fatalf("complete: %v", err)
	}
	if ttl := mr.TTL(key); ttl != 5*time.Minute {
		t.Fatalf("final ttl = %v, want 5m", ttl)
	}
	got, _ = s.load(ctx, key)
	if got.Pending || got.Status != http.StatusCreated || string(got.Body) != `{"id":"a"}` || got.StoredAt.IsZero() {
		t.Fatalf("load final: %+v", got)
	}

	if err := s.release(ctx, key); err != nil {
		t.Fatalf("release: %v", err)
	}
	if _, err := s.load(ctx, key); !errors.Is(err, redis.Nil) {
		t.Fatalf("load after release: want redis.Nil, got %v", err)
	}
}
