package pthread

import "sync/atomic"

const defaultMaxThreads = 1024

var (
	maxThreads  atomic.Int64
	liveThreads atomic.Int64
)

func init() {
	maxThreads.Store(defaultMaxThreads)
}

// MaxThreads returns the ceiling on concurrently live worker threads.
func MaxThreads() int {
	return int(maxThreads.Load())
}

// SetMaxThreads sets the ceiling on concurrently live worker threads and
// returns the previous value. Calls beyond the ceiling fail immediately with
// EAGAIN; nothing waits for a worker to finish. n <= 0 restores the default.
func SetMaxThreads(n int) int {
	if n <= 0 {
		n = defaultMaxThreads
	}
	return int(maxThreads.Swap(int64(n)))
}

// LiveThreads returns the number of worker threads currently running.
func LiveThreads() int {
	return int(liveThreads.Load())
}

func acquire() bool {
	for {
		n := liveThreads.Load()
		if n >= maxThreads.Load() {
			return false
		}
		if liveThreads.CompareAndSwap(n, n+1) {
			return true
		}
	}
}

func release() {
	liveThreads.Add(-1)
}
