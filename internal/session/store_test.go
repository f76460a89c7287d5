package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/minibus-booking/internal/booking"
)

func newRedisStore(t *testing.T) (*RedisStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return NewRedisStore(rdb, 30*time.Minute, "test-session"), mr
}

func sampleSession() *booking.Session {
	trip := booking.TripSnapshot{TripID: "trip-1", Capacity: 20, BookedSeats: []int{1, 2}, PricePerSeat: 450}
	return booking.NewSession("abc", 1, trip, "2026-03-14", 4, time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC))
}

func exerciseStore(t *testing.T, st Store) {
	ctx := context.Background()
	s := sampleSession()
	if err := st.Create(ctx, s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}

	updated, err := st.Update(ctx, s.ID, func(cur *booking.Session) error {
		_, err := cur.Toggle(5, time.Now())
		return err
	})
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !reflect.DeepEqual(updated.SelectedSeats(), []int{5}) {
		t.Fatalf("unexpected selection %v", updated.SelectedSeats())
	}

	got, err := st.Get(ctx, s.ID)
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if !reflect.DeepEqual(got.SelectedSeats(), []int{5}) || got.Trip.PricePerSeat != 450 {
		t.Fatalf("unexpected stored session %+v", got)
	}

	fnErr := errors.New("boom")
	_, err = st.Update(ctx, s.ID, func(cur *booking.Session) error {
		_, _ = cur.Toggle(6, time.Now())
		return fnErr
	})
	if !errors.Is(err, fnErr) {
		t.Fatalf("expected fn error to be returned, got %v", err)
	}
	got, _ = st.Get(ctx, s.ID)
	if !reflect.DeepEqual(got.SelectedSeats(), []int{5, 6}) {
		t.Fatalf("expected partial progress written back, got %v", got.SelectedSeats())
	}

	if err := st.Delete(ctx, s.ID); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := st.Update(ctx, "missing", func(*booking.Session) error { return nil }); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStore(t *testing.T) {
	exerciseStore(t, NewMemoryStore(time.Minute))
}

func TestRedisStore(t *testing.T) {
	st, _ := newRedisStore(t)
	exerciseStore(t, st)
}

func TestRedisStore_Expiry(t *testing.T) {
	st, mr := newRedisStore(t)
	ctx := context.Background()
	s := sampleSession()
	if err := st.Create(ctx, s); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	mr.FastForward(31 * time.Minute)
	if _, err := st.Get(ctx, s.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected expired session, got %v", err)
	}
}

func TestRedisStore_DuplicateCreate(t *testing.T) {
	st, _ := newRedisStore(t)
	ctx := context.Background()
	if err := st.Create(ctx, sampleSession()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := st.Create(ctx, sampleSession()); err == nil {
		t.Fatal("expected error for duplicate session id")
	}
}

func TestMemoryStore_Expiry(t *testing.T) {
	st := NewMemoryStore(time.Minute)
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	st.now = func() time.Time { return now }
	ctx := context.Background()
	if err := st.Create(ctx, sampleSession()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, err := st.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound after expiry, got %v", err)
	}
}

func TestRedisStore_BusyWhileLocked(t *testing.T) {
	st, mr := newRedisStore(t)
	ctx := context.Background()
	if err := st.Create(ctx, sampleSession()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if err := mr.Set("test-session:abc:lock", "other"); err != nil {
		t.Fatal(err)
	}
	called := false
	_, err := st.Update(ctx, "abc", func(*booking.Session) error { called = true; return nil })
	if !errors.Is(err, ErrBusy) || called {
		t.Fatalf("expected ErrBusy without running fn, got %v (called=%v)", err, called)
	}

	mr.Del("test-session:abc:lock")
	if _, err := st.Update(ctx, "abc", func(*booking.Session) error { return nil }); err != nil {
		t.Fatalf("expected nil error after unlock, got %v", err)
	}
	if mr.Exists("test-session:abc:lock") {
		t.Fatal("expected lock to be released")
	}
}

func exerciseDeleteDuringUpdate(t *testing.T, st Store) {
	t.Helper()
	ctx := context.Background()
	if err := st.Create(ctx, sampleSession()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, err := st.Update(ctx, "abc", func(cur *booking.Session) error {
		if err := st.Delete(ctx, "abc"); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
		_, err := cur.Toggle(13, time.Now())
		return err
	})
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for a session deleted mid-update, got %v", err)
	}
	if _, err := st.Get(ctx, "abc"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected deleted session to stay deleted, got %v", err)
	}
}

func TestMemoryStore_DeleteDuringUpdate(t *testing.T) {
	exerciseDeleteDuringUpdate(t, NewMemoryStore(time.Minute))
}

func TestRedisStore_DeleteDuringUpdate(t *testing.T) {
	st, _ := newRedisStore(t)
	exerciseDeleteDuringUpdate(t, st)
}

func TestRedisStore_LockExpiredDuringUpdate(t *testing.T) {
	st, mr := newRedisStore(t)
	st.WithLockTTL(time.Second)
	ctx := context.Background()
	if err := st.Create(ctx, sampleSession()); err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	_, err := st.Update(ctx, "abc", func(cur *booking.Session) error {
		mr.FastForward(2 * time.Second)
		_, err := cur.Toggle(13, time.Now())
		return err
	})
	if !errors.Is(err, ErrLockExpired) || !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrLockExpired, got %v", err)
	}
	got, err := st.Get(ctx, "abc")
	if err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	if len(got.SelectedSeats()) != 0 {
		t.Fatalf("expected no write after the lock expired, got %v", got.SelectedSeats())
	}
}

func TestMemoryStore_UpdatesOnOtherSessionsDoNotWait(t *testing.T) {
	st := NewMemoryStore(time.Minute)
	ctx := context.Background()
	a := sampleSession()
	b := sampleSession()
	b.ID = "def"
	for _, s := range []*booking.Session{a, b} {
		if err := st.Create(ctx, s); err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	}

	entered := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		_, err := st.Update(ctx, "abc", func(*booking.Session) error {
			close(entered)
			<-release
			return nil
		})
		done <- err
	}()
	<-entered

	finished := make(chan error, 1)
	go func() {
		_, err := st.Update(ctx, "def", func(cur *booking.Session) error {
			_, err := cur.Toggle(13, time.Now())
			return err
		})
		finished <- err
	}()
	select {
	case err := <-finished:
		if err != nil {
			t.Fatalf("expected nil error, got %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("expected update on another session to proceed while one is held")
	}
	if _, err := st.Get(ctx, "abc"); err != nil {
		t.Fatalf("expected Get to proceed while the session is held, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("expected nil error, got %v", err)
	}
	st.mu.Lock()
	n := len(st.locks)
	st.mu.Unlock()
	if n != 0 {
		t.Fatalf("expected idle session locks to be dropped, got %d", n)
	}
}
