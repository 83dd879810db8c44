package session

import (
	"context"
	"fmt"
	"testing"

	"github.com/cmusatyalab/OpenWorkflow/pkg/adapters/memory"
)

func TestManager_LockLifecycle(t *testing.T) {
	mgr := NewManager(memory.NewStore())
	ctx := context.Background()
	count := 1000

	for i := 0; i < count; i++ {
		name := fmt.Sprintf("doc-%d", i)
		_ = mgr.WithLock(ctx, name, func(context.Context) error { return nil })
		_ = mgr.Delete(ctx, name)
	}

	if n := len(mgr.locks); n != 0 {
		t.Errorf("%d locks remaining in memory after Delete", n)
	}
}
