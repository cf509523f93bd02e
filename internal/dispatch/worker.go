package dispatch

import (
	"context"
	"log"
)

// TaskEvent is one queued notification job: a task was created for a staff
// member and their devices should hear about it.
type TaskEvent struct {
	UserID string
	Title  string
	Body   string
	Urgent bool
}

// WorkerPool decouples task creation from push delivery: producers enqueue
// events and never wait on (or see) transport outcomes.
type WorkerPool struct {
	size       int
	jobs       chan TaskEvent
	dispatcher *Dispatcher
}

// NewWorkerPool creates a new worker pool.
func NewWorkerPool(size int, dispatcher *Dispatcher) *WorkerPool {
	return &WorkerPool{
		size:       size,
		jobs:       make(chan TaskEvent, size), // Buffered channel
		dispatcher: dispatcher,
	}
}

// Start launches the worker goroutines.
func (wp *WorkerPool) Start(ctx context.Context) {
	for i := 0; i < wp.size; i++ {
		go wp.worker(ctx, i)
	}
}

// worker is the actual worker goroutine.
func (wp *WorkerPool) worker(ctx context.Context, id int) {
	log.Printf("Dispatch worker %d started", id)
	for {
		select {
		case ev := <-wp.jobs:
			count, err := wp.dispatcher.SendToUser(ctx, ev.UserID, ev.Title, ev.Body, ev.Urgent)
			if err != nil {
				log.Printf("Worker %d: dispatch for user %s failed: %v", id, ev.UserID, err)
				continue
			}
			log.Printf("Worker %d: attempted %d deliveries for user %s", id, count, ev.UserID)
		case <-ctx.Done():
			log.Printf("Dispatch worker %d shutting down", id)
			return
		}
	}
}

// Dispatch sends a job to the worker pool.
func (wp *WorkerPool) Dispatch(ev TaskEvent) {
	wp.jobs <- ev
}

// Jobs returns the jobs channel for testing.
func (wp *WorkerPool) Jobs() chan TaskEvent {
	return wp.jobs
}
