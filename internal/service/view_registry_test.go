package service

import (
	"edu_player_backend/internal/util"
	"errors"
	"testing"
	"time"
)

type stubView struct{ closed bool }

func (v *stubView) Close() { v.closed = true }

type fakeClock struct{ now time.Time }

func (c *fakeClock) Now() time.Time { return c.now }

func TestRegistryIsolatesOwners(t *testing.T) {
	r := NewViewRegistry[*stubView]("test")
	v := &stubView{}
	id := r.Add(1, v)

	if _, err := r.Get(2, id); !errors.Is(err, util.ErrViewNotFound) {
		t.Errorf("other owner Get err = %v", err)
	}
	if err := r.Remove(2, id); !errors.Is(err, util.ErrViewNotFound) {
		t.Errorf("other owner Remove err = %v", err)
	}
	if v.closed {
		t.Fatal("view closed by another owner")
	}

	got, err := r.Get(1, id)
	if err != nil || got != v {
		t.Fatalf("Get = %v, %v", got, err)
	}
	if err := r.Remove(1, id); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	if !v.closed || r.Len() != 0 {
		t.Errorf("closed = %v, len = %d", v.closed, r.Len())
	}
}

func TestRegistrySweepClosesIdleViews(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewViewRegistry[*stubView]("test")
	r.now = clock.Now

	idle, busy := &stubView{}, &stubView{}
	r.Add(1, idle)
	busyID := r.Add(1, busy)

	clock.now = clock.now.Add(50 * time.Minute)
	r.Get(1, busyID)
	clock.now = clock.now.Add(20 * time.Minute)

	if n := r.Sweep(time.Hour); n != 1 {
		t.Fatalf("Sweep closed %d, want 1", n)
	}
	if !idle.closed || busy.closed {
		t.Errorf("idle closed = %v, busy closed = %v", idle.closed, busy.closed)
	}
	if r.Len() != 1 {
		t.Errorf("len = %d, want 1", r.Len())
	}
}

func TestRegistryCloseAll(t *testing.T) {
	r := NewViewRegistry[*stubView]("test")
	views := []*stubView{{}, {}, {}}
	for i, v := range views {
		r.Add(uint(i), v)
	}

	r.CloseAll()

	for i, v := range views {
		if !v.closed {
			t.Errorf("view %d still open", i)
		}
	}
	if r.Len() != 0 {
		t.Errorf("len = %d", r.Len())
	}
}

func TestJanitorUsesCurrentTTL(t *testing.T) {
	clock := &fakeClock{now: time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)}
	r := NewViewRegistry[*stubView]("test")
	r.now = clock.Now
	r.Add(1, &stubView{})

	j := NewViewJanitor(time.Hour, map[string]Sweeper{"test": r})
	clock.now = clock.now.Add(10 * time.Minute)

	if closed := j.SweepOnce(); closed["test"] != 0 {
		t.Fatalf("swept with a 1h ttl: %v", closed)
	}
	if j.Counts()["test"] != 1 {
		t.Fatalf("counts = %v", j.Counts())
	}

	j.SetTTL(5 * time.Minute)
	if closed := j.SweepOnce(); closed["test"] != 1 {
		t.Errorf("closed = %v, want 1 after lowering ttl", closed)
	}
	if j.TTL() != 5*time.Minute {
		t.Errorf("ttl = %v", j.TTL())
	}
}
