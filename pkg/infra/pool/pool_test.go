package pool

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNewPool(t *testing.T) {
	p, err := NewPool("test", DefaultPool, DefaultPoolConfig())
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	if p.Name() != "test" {
		t.Errorf("池名称不匹配: 期望 test, 实际 %s", p.Name())
	}
	if p.Type() != DefaultPool {
		t.Errorf("池类型不匹配: 期望 %s, 实际 %s", DefaultPool, p.Type())
	}
	if p.Cap() != 100 {
		t.Errorf("池容量不匹配: 期望 100, 实际 %d", p.Cap())
	}
}

func TestNewPool_InvalidCapacity(t *testing.T) {
	if _, err := NewPool("bad", DefaultPool, &Config{Capacity: 0}); err == nil {
		t.Fatal("容量为 0 时应返回错误")
	}
}

func TestPoolSubmit(t *testing.T) {
	p, err := NewPool("test", DefaultPool, &Config{Capacity: 10, ExpiryDuration: 5 * time.Second})
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var counter atomic.Int32
	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		if err := p.Submit(func() {
			defer wg.Done()
			counter.Add(1)
		}); err != nil {
			t.Errorf("提交任务失败: %v", err)
			wg.Done()
		}
	}
	wg.Wait()

	if counter.Load() != 100 {
		t.Errorf("任务执行数不匹配: 期望 100, 实际 %d", counter.Load())
	}
	if s := p.Stats(); s.SubmittedTasks != 100 {
		t.Errorf("提交数不匹配: 期望 100, 实际 %d", s.SubmittedTasks)
	}
}

func TestPoolSubmitWithContext_Cancelled(t *testing.T) {
	p, err := NewPool("test", DefaultPool, nil)
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := p.SubmitWithContext(ctx, func() {}); !errors.Is(err, context.Canceled) {
		t.Errorf("期望 context.Canceled, 实际 %v", err)
	}
}

func TestPoolClosed(t *testing.T) {
	p, err := NewPool("test", DefaultPool, nil)
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	p.Release()
	p.Release()

	if err := p.Submit(func() {}); !errors.Is(err, ErrPoolClosed) {
		t.Errorf("期望 ErrPoolClosed, 实际 %v", err)
	}
}

func TestPoolMap(t *testing.T) {
	p, err := NewPool("bulk", BulkPool, BulkPoolConfig(3))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	var running, peak atomic.Int32
	errBoom := errors.New("boom")
	errs := p.Map(context.Background(), 20, func(_ context.Context, i int) error {
		n := running.Add(1)
		defer running.Add(-1)
		for {
			old := peak.Load()
			if n <= old || peak.CompareAndSwap(old, n) {
				break
			}
		}
		time.Sleep(5 * time.Millisecond)
		if i == 7 {
			return errBoom
		}
		if i == 9 {
			panic("bad record")
		}
		return nil
	})

	if len(errs) != 20 {
		t.Fatalf("结果数量不匹配: %d", len(errs))
	}
	for i, err := range errs {
		switch i {
		case 7:
			if !errors.Is(err, errBoom) {
				t.Errorf("任务 7 应返回 errBoom, 实际 %v", err)
			}
		case 9:
			if err == nil {
				t.Error("任务 9 panic 应转为错误")
			}
		default:
			if err != nil {
				t.Errorf("任务 %d 不应出错: %v", i, err)
			}
		}
	}
	if peak.Load() > 3 {
		t.Errorf("并发度超过池容量: %d", peak.Load())
	}
}

func TestPoolMap_Cancelled(t *testing.T) {
	p, err := NewPool("bulk", BulkPool, BulkPoolConfig(2))
	if err != nil {
		t.Fatalf("创建池失败: %v", err)
	}
	defer p.Release()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	errs := p.Map(ctx, 5, func(context.Context, int) error { return nil })
	for i, err := range errs {
		if !errors.Is(err, context.Canceled) {
			t.Errorf("任务 %d 期望 context.Canceled, 实际 %v", i, err)
		}
	}
}
