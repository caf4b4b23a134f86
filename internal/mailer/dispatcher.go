package mailer

import (
	"log/slog"
	"sync"
)

// Dispatcher runs email sends on background workers so the request path never
// waits on the SMTP relay. Send failures are logged and swallowed.
type Dispatcher struct {
	taskChan chan func() error
	wg       sync.WaitGroup
}

// NewDispatcher starts maxWorkers goroutines draining the task queue.
func NewDispatcher(maxWorkers int) *Dispatcher {
	d := &Dispatcher{
		taskChan: make(chan func() error, maxWorkers*2),
	}
	for i := 0; i < maxWorkers; i++ {
		go d.worker()
	}
	return d
}

func (d *Dispatcher) worker() {
	for task := range d.taskChan {
		if err := task(); err != nil {
			slog.Error("email send failed", "error", err)
		}
		d.wg.Done()
	}
}

// Enqueue schedules a send. It never blocks the caller on delivery and never
// reports the outcome back.
func (d *Dispatcher) Enqueue(task func() error) {
	d.wg.Add(1)
	d.taskChan <- task
}

// Wait blocks until every queued send has been attempted.
func (d *Dispatcher) Wait() {
	d.wg.Wait()
}

// Close stops accepting tasks and blocks until the queue drains.
func (d *Dispatcher) Close() {
	close(d.taskChan)
	d.wg.Wait()
}
