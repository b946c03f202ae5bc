package pool

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", DefaultPool, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	if p.Name() != "test" {
		t.Errorf("pool name mismatch: want test, got %s", p.Name())
	}

	if p.Cap() != 1000 {
		t.Errorf("pool capacity mismatch: want 1000, got %d", p.Cap())
	}
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{
		Capacity:       10,
		ExpiryDuration: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup

	for i := 0; i < 100; i++ {
		wg.Add(1)
		err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		})
		if err != nil {
			t.Errorf("failed to submit task: %v", err)
			wg.Done()
		}
	}

	wg.Wait()

	if counter.Load() != 100 {
		t.Errorf("task count mismatch: want 100, got %d", counter.Load())
	}
}

func TestPoolSubmitWithContext(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{
		Capacity:       2,
		ExpiryDuration: 5 * time.Second,
	})
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	// Submitting with a cancelled context should fail.
	err = p.SubmitWithContext(ctx, func() {})
	if err == nil {
		t.Error("expected error for cancelled context")
	}
}

func TestPoolSubmitAfterRelease(t *testing.T) {
	p, err := NewPool("test", DefaultPool, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}

	p.Release()

	if err := p.Submit(func() {}); err != ErrPoolClosed {
		t.Errorf("want ErrPoolClosed, got %v", err)
	}
}

func TestPoolStats(t *testing.T) {
	p, err := NewPool("test", DefaultPool, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("failed to create pool: %v", err)
	}
	defer p.Release()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		_ = p.Submit(func() {
			defer wg.Done()
		})
	}
	wg.Wait()

	// Counters are updated inside the worker, wait for the last one.
	time.Sleep(50 * time.Millisecond)

	stats := p.Stats()
	if stats.SubmittedTasks != 10 {
		t.Errorf("submitted tasks mismatch: want 10, got %d", stats.SubmittedTasks)
	}
	if stats.CompletedTasks != 10 {
		t.Errorf("completed tasks mismatch: want 10, got %d", stats.CompletedTasks)
	}
}

func TestManagerRegisterAndGet(t *testing.T) {
	m := NewManager()
	defer m.ReleaseAll()

	if err := m.RegisterWithType(IngestPool, IngestPoolConfig()); err != nil {
		t.Fatalf("failed to register pool: %v", err)
	}

	if err := m.RegisterWithType(IngestPool, IngestPoolConfig()); err == nil {
		t.Error("expected error for duplicate registration")
	}

	p, err := m.GetByType(IngestPool)
	if err != nil {
		t.Fatalf("failed to get pool: %v", err)
	}
	if p.Type() != IngestPool {
		t.Errorf("pool type mismatch: %s", p.Type())
	}

	if _, err := m.Get("missing"); err == nil {
		t.Error("expected error for unknown pool")
	}
}

func TestManagerStats(t *testing.T) {
	m := NewManager()
	defer m.ReleaseAll()

	if err := m.RegisterWithType(DefaultPool, DefaultPoolConfig()); err != nil {
		t.Fatalf("failed to register pool: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	_ = m.SubmitToDefault(func() { wg.Done() })
	wg.Wait()

	time.Sleep(50 * time.Millisecond)

	stats := m.Stats()
	info, ok := stats[string(DefaultPool)]
	if !ok {
		t.Fatal("missing default pool stats")
	}
	if info.SubmittedTasks != 1 {
		t.Errorf("submitted tasks mismatch: want 1, got %d", info.SubmittedTasks)
	}
}

func TestGlobalManager(t *testing.T) {
	ResetGlobal()
	defer ResetGlobal()

	if err := InitGlobal(); err != nil {
		t.Fatalf("failed to init global manager: %v", err)
	}

	var wg sync.WaitGroup
	wg.Add(1)
	if err := SubmitToType(IngestPool, func() { wg.Done() }); err != nil {
		t.Fatalf("failed to submit to ingest pool: %v", err)
	}
	wg.Wait()

	if stats := StatsGlobal(); len(stats) != 3 {
		t.Errorf("expected 3 global pools, got %d", len(stats))
	}
}
