package trace

import (
	"context"
	"runtime"
	"sync"

	"github.com/samber/lo"
)

// ChunkTask is a contiguous range of batch indices for one worker
type ChunkTask struct {
	TaskID     int // For deterministic ordering
	Start, End int // Half-open index range
}

// ChunkResult contains the result from processing a chunk
type ChunkResult struct {
	TaskID int
	Stats  Stats
	Error  error
}

// ChunkKernel processes the indices [start, end) of a batch
type ChunkKernel func(start, end int) Stats

// WorkerPool manages parallel processing of batch chunks
type WorkerPool struct {
	taskQueue   chan ChunkTask
	resultQueue chan ChunkResult
	numWorkers  int
	kernel      ChunkKernel
	wg          sync.WaitGroup
}

// NewWorkerPool creates a worker pool able to hold numTasks chunks
func NewWorkerPool(kernel ChunkKernel, numTasks, numWorkers int) *WorkerPool {
	if numWorkers <= 0 {
		numWorkers = runtime.NumCPU()
	}
	return &WorkerPool{
		taskQueue:   make(chan ChunkTask, numTasks),
		resultQueue: make(chan ChunkResult, numTasks),
		numWorkers:  numWorkers,
		kernel:      kernel,
	}
}

// Start begins all workers. Tasks taken after ctx is cancelled are not run
// and report the context error.
func (wp *WorkerPool) Start(ctx context.Context) {
	for w := 0; w < wp.numWorkers; w++ {
		wp.wg.Add(1)
		go wp.run(ctx)
	}
}

// Stop waits for queued tasks to drain and closes the result queue
func (wp *WorkerPool) Stop() {
	close(wp.taskQueue)
	wp.wg.Wait()
	close(wp.resultQueue)
}

// SubmitTask submits a chunk task to the worker pool
func (wp *WorkerPool) SubmitTask(task ChunkTask) {
	wp.taskQueue <- task
}

// GetResult retrieves a completed chunk result
func (wp *WorkerPool) GetResult() (ChunkResult, bool) {
	result, ok := <-wp.resultQueue
	return result, ok
}

// GetNumWorkers returns the number of workers in the pool
func (wp *WorkerPool) GetNumWorkers() int {
	return wp.numWorkers
}

func (wp *WorkerPool) run(ctx context.Context) {
	defer wp.wg.Done()

	for task := range wp.taskQueue {
		if err := ctx.Err(); err != nil {
			wp.resultQueue <- ChunkResult{TaskID: task.TaskID, Error: err}
			continue
		}
		wp.resultQueue <- ChunkResult{
			TaskID: task.TaskID,
			Stats:  wp.kernel(task.Start, task.End),
		}
	}
}

// chunks splits [0, n) into tasks of at most size indices
func chunks(n, size int) []ChunkTask {
	if n <= 0 {
		return nil
	}
	if size <= 0 {
		size = n
	}
	return lo.Map(lo.RangeWithSteps(0, n, size), func(start, i int) ChunkTask {
		return ChunkTask{TaskID: i, Start: start, End: min(start+size, n)}
	})
}
