package background

import (
	"context"
	"errors"
	"log"
	"sync"

	"ddqhub/internal/jobs"

	"github.com/google/uuid"
)

// ErrQueueFull is returned when the import queue cannot take another job.
var ErrQueueFull = errors.New("import queue is full")

// ImportJob is a self-contained description of a background import. It
// carries the raw payload and tenant, never a store handle or the request's
// transaction; the worker owns its own repositories.
type ImportJob struct {
	TenantID uuid.UUID
	Payload  []byte
	Format   string
	Filename string
}

// ImportWorker drains a buffered queue of import jobs on a fixed pool of
// goroutines. Failures are logged and dropped; no job status is persisted.
type ImportWorker struct {
	importer *jobs.QuestionImporter
	queue    chan ImportJob
	wg       sync.WaitGroup
	once     sync.Once
}

func NewImportWorker(importer *jobs.QuestionImporter, queueSize int) *ImportWorker {
	if queueSize <= 0 {
		queueSize = 64
	}
	return &ImportWorker{
		importer: importer,
		queue:    make(chan ImportJob, queueSize),
	}
}

// Start launches n worker goroutines.
func (w *ImportWorker) Start(n int) {
	if n <= 0 {
		n = 2
	}
	for i := 0; i < n; i++ {
		w.wg.Add(1)
		go w.run()
	}
	log.Printf("Started %d import workers", n)
}

// Enqueue hands a job to the pool without blocking the request.
func (w *ImportWorker) Enqueue(job ImportJob) error {
	select {
	case w.queue <- job:
		return nil
	default:
		return ErrQueueFull
	}
}

// Stop closes the queue and waits for in-flight jobs to finish.
func (w *ImportWorker) Stop() {
	w.once.Do(func() {
		close(w.queue)
	})
	w.wg.Wait()
	log.Printf("Import workers stopped")
}

func (w *ImportWorker) run() {
	defer w.wg.Done()
	for job := range w.queue {
		w.process(job)
	}
}

func (w *ImportWorker) process(job ImportJob) {
	defer func() {
		if r := recover(); r != nil {
			log.Printf("Background import for tenant %s panicked: %v", job.TenantID.String(), r)
		}
	}()

	// The spawning request's context is long gone by the time this runs
	ctx := context.Background()

	rows, err := jobs.ParseRows(job.Payload, job.Format)
	if err != nil {
		log.Printf("Background import for tenant %s failed to parse %q: %v", job.TenantID.String(), job.Filename, err)
		return
	}

	summary := w.importer.Run(ctx, job.TenantID, rows)
	log.Printf("Background import for tenant %s finished: total=%d ok=%d failed=%d",
		job.TenantID.String(), summary.RowsTotal, summary.RowsOK, summary.RowsFailed)
}
