package orchestrator

import "sync/atomic"

func atomicAdd(counter *int64, delta int64) {
	atomic.AddInt64(counter, delta)
}
