package worker_test

import (
	"fmt"
	"testing"

	"github.com/hamstudy/backend/internal/worker"
)

func TestPool_CollectN(t *testing.T) {
	p := worker.NewPool[int](4, 16)
	defer p.Close()

	for i := 0; i < 10; i++ {
		i := i
		p.Submit(fmt.Sprintf("job-%d", i), func() int { return i * i })
	}

	out := p.CollectN(10)
	if len(out) != 10 {
		t.Fatalf("expected 10 results, got %d", len(out))
	}
	for i := 0; i < 10; i++ {
		if got := out[fmt.Sprintf("job-%d", i)]; got != i*i {
			t.Errorf("job-%d = %d, want %d", i, got, i*i)
		}
	}
}

func TestPool_SingleWorkerProcessesAll(t *testing.T) {
	p := worker.NewPool[string](1, 4)
	defer p.Close()

	p.Submit("a", func() string { return "x" })
	p.Submit("b", func() string { return "y" })

	out := p.CollectN(2)
	if out["a"] != "x" || out["b"] != "y" {
		t.Errorf("unexpected results: %v", out)
	}
}
