package cache

import (
	"testing"
	"time"
)

func TestMemoryStore_Expiry(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)
	s := NewMemoryStore()
	s.now = func() time.Time { return now }

	ctx := t.Context()

	if err := s.Set(ctx, "short", []byte("a"), time.Second); err != nil {
		t.Fatalf("set: %v", err)
	}

	if err := s.Set(ctx, "forever", []byte("b"), 0); err != nil {
		t.Fatalf("set: %v", err)
	}

	if _, found, _ := s.Get(ctx, "short"); !found {
		t.Fatal("short lived key missing before expiry")
	}

	now = now.Add(2 * time.Second)

	if _, found, _ := s.Get(ctx, "short"); found {
		t.Fatal("short lived key still present after expiry")
	}

	v, found, _ := s.Get(ctx, "forever")
	if !found || string(v) != "b" {
		t.Fatalf("forever key: found=%v value=%q", found, v)
	}

	if err := s.Delete(ctx, "forever"); err != nil {
		t.Fatalf("delete: %v", err)
	}

	if _, found, _ := s.Get(ctx, "forever"); found {
		t.Fatal("deleted key still present")
	}
}

func TestMemoryStore_ReturnsCopies(t *testing.T) {
	t.Parallel()

	s := NewMemoryStore()
	ctx := t.Context()

	in := []byte("value")
	_ = s.Set(ctx, "k", in, 0)
	in[0] = 'X'

	got, _, _ := s.Get(ctx, "k")
	got[1] = 'Y'

	again, _, _ := s.Get(ctx, "k")
	if string(again) != "value" {
		t.Fatalf("stored value mutated: %q", again)
	}
}

func TestJSONHelpers(t *testing.T) {
	t.Parallel()

	type payload struct {
		PeriodID string `json:"periodId"`
		Digits   []int  `json:"digits"`
	}

	s := NewMemoryStore()
	ctx := t.Context()

	var got payload

	found, err := GetJSON(ctx, s, "missing", &got)
	if err != nil || found {
		t.Fatalf("missing key: found=%v err=%v", found, err)
	}

	want := payload{PeriodID: "p1", Digits: []int{7, 2, 9, 0, 4}}
	if err := SetJSON(ctx, s, "p", want, time.Minute); err != nil {
		t.Fatalf("set json: %v", err)
	}

	found, err = GetJSON(ctx, s, "p", &got)
	if err != nil || !found {
		t.Fatalf("get json: found=%v err=%v", found, err)
	}

	if got.PeriodID != want.PeriodID || len(got.Digits) != 5 || got.Digits[4] != 4 {
		t.Fatalf("round trip mismatch: %+v", got)
	}
}
