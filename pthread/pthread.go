package pthread

import (
	"fmt"
	"runtime"
	"runtime/debug"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/wippyai/wasm-threadcall/errors"
)

// MinStackSize is the smallest stack budget a worker accepts, matching
// PTHREAD_STACK_MIN on Linux.
const MinStackSize = 16 << 10

// defaultStackSize backs DefaultStackSize and SetDefaultStackSize.
var defaultStackSize atomic.Int64

func init() {
	defaultStackSize.Store(64 << 10)
}

// DefaultStackSize returns the stack budget used when the caller does not
// supply one, such as runtime.Function.CallPThread.
func DefaultStackSize() int {
	return int(defaultStackSize.Load())
}

// SetDefaultStackSize changes the default stack budget and returns the
// previous value. Sizes below MinStackSize are stored as given and make
// later default-sized calls fail with EINVAL.
func SetDefaultStackSize(n int) int {
	return int(defaultStackSize.Swap(int64(n)))
}

// Call runs fn on a freshly spawned worker thread and blocks until it
// finishes. The worker's goroutine is locked to its OS thread for its whole
// life and never unlocks, so the thread runs nothing else and is torn down
// when fn returns.
//
// On normal completion Call returns fn's result and error unchanged.
// It fails with an *errors.Error of kind KindThreadCreate if the worker
// cannot be spawned: EINVAL for a nil fn or a stackSize below MinStackSize,
// EAGAIN when the thread limit is reached. In both cases fn does not run.
// It fails with kind KindThreadJoin if the worker terminates without
// returning, either by panicking or through runtime.Goexit.
//
// stackSize must cover everything fn does. Goroutine stacks grow on demand,
// so the budget is validated and recorded rather than enforced.
//
// There is no cancellation: a fn that never returns blocks the caller forever.
func Call[T any](stackSize int, fn func() (T, error)) (T, error) {
	t, err := spawn(stackSize, fn)
	if err != nil {
		var zero T
		return zero, err
	}
	return t.join()
}

// Do is Call for work that produces no value.
func Do(stackSize int, fn func() error) error {
	if fn == nil {
		return errors.ThreadCreate(syscall.EINVAL, "nil work item")
	}
	_, err := Call(stackSize, func() (struct{}, error) {
		return struct{}{}, fn()
	})
	return err
}

// thread is the handle of one spawned worker. It is joined exactly once.
type thread[T any] struct {
	started   time.Time
	done      chan outcome[T]
	stackSize int
	id        uuid.UUID
	joined    bool
}

// outcome is moved from the worker to the joining caller.
type outcome[T any] struct {
	value    T
	err      error
	panicVal any
	stack    []byte
	returned bool
	panicked bool
}

func spawn[T any](stackSize int, fn func() (T, error)) (*thread[T], error) {
	if fn == nil {
		return nil, errors.ThreadCreate(syscall.EINVAL, "nil work item")
	}
	if stackSize < MinStackSize {
		return nil, errors.ThreadCreate(syscall.EINVAL,
			fmt.Sprintf("stack size %d below minimum %d", stackSize, MinStackSize))
	}
	if !acquire() {
		return nil, errors.ThreadCreate(syscall.EAGAIN,
			fmt.Sprintf("thread limit %d reached", MaxThreads()))
	}

	t := &thread[T]{
		id:        uuid.New(),
		stackSize: stackSize,
		started:   time.Now(),
		done:      make(chan outcome[T], 1),
	}

	Logger().Debug("spawn worker thread",
		zap.Stringer("thread", t.id),
		zap.Int("stack_size", stackSize))

	go t.run(fn)
	return t, nil
}

func (t *thread[T]) run(fn func() (T, error)) {
	// Never unlocked: the runtime terminates the OS thread when this goroutine exits.
	runtime.LockOSThread()

	var out outcome[T]
	defer func() {
		if !out.returned {
			if r := recover(); r != nil {
				out.panicked = true
				out.panicVal = r
				out.stack = debug.Stack()
			}
		}
		release()
		t.done <- out
	}()

	out.value, out.err = fn()
	out.returned = true
}

func (t *thread[T]) join() (T, error) {
	var zero T
	if t.joined {
		return zero, errors.ThreadJoin("thread already joined", nil, nil)
	}
	t.joined = true

	out := <-t.done
	elapsed := time.Since(t.started)

	switch {
	case out.returned:
		Logger().Debug("joined worker thread",
			zap.Stringer("thread", t.id),
			zap.Duration("elapsed", elapsed),
			zap.Bool("work_error", out.err != nil))
		return out.value, out.err

	case out.panicked:
		Logger().Warn("worker thread panicked",
			zap.Stringer("thread", t.id),
			zap.Any("panic", out.panicVal),
			zap.Duration("elapsed", elapsed))
		return zero, errors.ThreadJoin(fmt.Sprintf("worker panicked: %v", out.panicVal), out.panicVal, out.stack)

	default:
		Logger().Warn("worker thread exited without a result",
			zap.Stringer("thread", t.id),
			zap.Duration("elapsed", elapsed))
		return zero, errors.ThreadJoin("worker exited without a result", nil, nil)
	}
}
