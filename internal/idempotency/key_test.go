package idempotency

import (
	"net/http/httptest"
	"strings"
	"testing"
)

func TestKeyFromRequest_Shapes(t *testing.T) {
	cases := []struct {
		name    string
		value   string
		want    string
		wantErr bool
	}{
		{name: "uuid", value: "7c9e6679-7425-40de-944b-e07fc1f90ae7", want: "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{name: "uuid uppercase", value: "7C9E6679-7425-40DE-944B-E07FC1F90AE7", want: "7c9e6679-7425-40de-944b-e07fc1f90ae7"},
		{name: "hex 32", value: strings.Repeat("ab", 16), want: strings.Repeat("ab", 16)},
		{name: "hex 64", value: strings.Repeat("9f", 32), want: strings.Repeat("9f", 32)},
		{name: "hex 31 too short", value: strings.Repeat("a", 31), wantErr: true},
		{name: "hex 65 too long", value: strings.Repeat("a", 65), wantErr: true},
		{name: "non hex", value: strings.Repeat("g", 32), wantErr: true},
		{name: "uuid wrong hyphens", value: "7c9e66797425-40de-944b-e07fc1f90ae7ab", wantErr: true},
		{name: "free text", value: "my-great-key", wantErr: true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest("POST", "/payments/charge", nil)
			req.Header.Set("Idempotency-Key", tc.value)
			got, err := KeyFromRequest(req)
			if tc.wantErr {
				if err == nil {
					t.Fatalf("expected error for %q, got key %q", tc.value, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("key mismatch: want %q got %q", tc.want, got)
			}
		})
	}
}

func TestKeyFromRequest_HeaderPrecedence(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Idempotency-Key", strings.Repeat("b", 32))
	req.Header.Set("Idempotency-Key", strings.Repeat("a", 32))

	got, err := KeyFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != strings.Repeat("a", 32) {
		t.Fatalf("Idempotency-Key should take precedence, got %q", got)
	}
}

func TestKeyFromRequest_SecondaryHeader(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	req.Header.Set("X-Idempotency-Key", strings.Repeat("c", 40))

	got, err := KeyFromRequest(req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != strings.Repeat("c", 40) {
		t.Fatalf("expected X-Idempotency-Key value, got %q", got)
	}
}

func TestKeyFromRequest_Absent(t *testing.T) {
	req := httptest.NewRequest("POST", "/", nil)
	got, err := KeyFromRequest(req)
	if err != nil || got != "" {
		t.Fatalf("expected empty key and nil error, got %q, %v", got, err)
	}
}

func TestDeriveKey(t *testing.T) {
	a := DeriveKey("u1", "POST", "/payments/charge", []byte(`{"amount":2500}`))
	b := DeriveKey("u1", "POST", "/payments/charge", []byte(`{"amount":2500}`))
	if a != b {
		t.Fatalf("derivation not deterministic: %s vs %s", a, b)
	}
	if len(a) != 64 || !hexPattern.MatchString(a) {
		t.Fatalf("derived key must be 64 hex chars, got %q", a)
	}

	// any varied input produces a different key
	if DeriveKey("u2", "POST", "/payments/charge", []byte(`{"amount":2500}`)) == a {
		t.Fatal("different identity should change the key")
	}
	if DeriveKey("u1", "PUT", "/payments/charge", []byte(`{"amount":2500}`)) == a {
		t.Fatal("different method should change the key")
	}
	if DeriveKey("u1", "POST", "/payments/charge", []byte(`{"amount":2501}`)) == a {
		t.Fatal("different body should change the key")
	}

	// anonymous fallback
	if DeriveKey("", "POST", "/p", nil) != DeriveKey("anonymous", "POST", "/p", nil) {
		t.Fatal("empty identity should derive as anonymous")
	}
}
