package lock

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestAcquire_Exclusive(t *testing.T) {
	root := t.TempDir()

	first, err := Acquire(root)
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	if _, err := Acquire(root); !errors.Is(err, ErrLocked) {
		t.Fatalf("second Acquire() error = %v, want ErrLocked", err)
	}

	if err := first.Release(); err != nil {
		t.Fatalf("Release() error = %v", err)
	}

	again, err := Acquire(root)
	if err != nil {
		t.Fatalf("Acquire() after release error = %v", err)
	}
	_ = again.Release()
}

func TestAcquireContext_TimesOut(t *testing.T) {
	root := t.TempDir()
	held, err := Acquire(root)
	if err != nil {
		t.Fatal(err)
	}
	defer held.Release()

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if _, err := AcquireContext(ctx, root); !errors.Is(err, ErrLocked) {
		t.Errorf("AcquireContext() error = %v, want ErrLocked", err)
	}
}

func TestAcquireContext_WaitsForRelease(t *testing.T) {
	root := t.TempDir()
	held, err := Acquire(root)
	if err != nil {
		t.Fatal(err)
	}
	go func() {
		time.Sleep(100 * time.Millisecond)
		_ = held.Release()
	}()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	l, err := AcquireContext(ctx, root)
	if err != nil {
		t.Fatalf("AcquireContext() error = %v", err)
	}
	_ = l.Release()
}

func TestRelease_Nil(t *testing.T) {
	var l *Lock
	if err := l.Release(); err != nil {
		t.Errorf("Release() on nil = %v", err)
	}
}
