package device

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

// DefaultRecorderBuffer is the backlog size used when none is configured.
const DefaultRecorderBuffer = 256

// recorderWriteTimeout bounds each repository call made by the worker.
const recorderWriteTimeout = 5 * time.Second

// recordJob is one unit of persistence work. A job without a record only
// refreshes the snapshot.
type recordJob struct {
	fixtureID string
	rec       *fixture.Record
}

// Recorder persists record streams and snapshots off the controller path.
//
// Controllers call Observe with their lock held, so Observe only appends to
// an in-memory FIFO drained by a single worker, which keeps jobs in commit
// order. Record jobs are never dropped. Snapshot-only jobs queued by Touch
// are coalesced per fixture while pending. A warning is logged each time
// the backlog grows by another buffer's worth.
type Recorder struct {
	repo     Repository
	snapshot func(id string) (fixture.Snapshot, bool)
	logger   Logger
	buffer   int

	mu      sync.Mutex
	queue   []recordJob
	touched map[string]bool
	stopped bool
	wake    chan struct{}
	wg      sync.WaitGroup
}

// NewRecorder creates a recorder. snapshot returns the live snapshot of a
// fixture, or false once the fixture is gone. buffer is the backlog size
// above which warnings are logged.
func NewRecorder(repo Repository, buffer int, snapshot func(id string) (fixture.Snapshot, bool)) *Recorder {
	if buffer <= 0 {
		buffer = DefaultRecorderBuffer
	}
	return &Recorder{
		repo:     repo,
		snapshot: snapshot,
		logger:   noopLogger{},
		buffer:   buffer,
		queue:    make([]recordJob, 0, buffer),
		touched:  make(map[string]bool),
		wake:     make(chan struct{}, 1),
	}
}

// SetLogger sets the logger for the recorder.
func (r *Recorder) SetLogger(logger Logger) {
	r.logger = logger
}

// Start launches the worker.
func (r *Recorder) Start() {
	r.wg.Add(1)
	go r.run()
}

// Stop persists every queued job and stops the worker. Later jobs are
// discarded.
func (r *Recorder) Stop() {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.stopped = true
	r.mu.Unlock()
	r.signal()
	r.wg.Wait()
}

// Observe queues a record and a snapshot refresh for its fixture.
func (r *Recorder) Observe(rec fixture.Record) {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return
	}
	r.queue = append(r.queue, recordJob{fixtureID: rec.FixtureID, rec: &rec})
	backlog := len(r.queue)
	r.mu.Unlock()

	if backlog%r.buffer == 0 {
		r.logger.Warn("recorder backlog growing", "fixture", rec.FixtureID, "pending", backlog)
	}
	r.signal()
}

// Touch queues a snapshot refresh without a record, for changes that do
// not produce one (power level in a guarded state, ignored toggles, link
// changes). A refresh already pending for the fixture absorbs the call.
func (r *Recorder) Touch(fixtureID string) {
	r.mu.Lock()
	if r.stopped || r.touched[fixtureID] {
		r.mu.Unlock()
		return
	}
	r.touched[fixtureID] = true
	r.queue = append(r.queue, recordJob{fixtureID: fixtureID})
	r.mu.Unlock()
	r.signal()
}

// Pending returns the number of queued jobs.
func (r *Recorder) Pending() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.queue)
}

func (r *Recorder) signal() {
	select {
	case r.wake <- struct{}{}:
	default:
	}
}

// take removes every queued job and reports whether Stop was called.
func (r *Recorder) take() ([]recordJob, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	batch := r.queue
	if len(batch) > 0 {
		r.queue = make([]recordJob, 0, r.buffer)
	}
	for _, job := range batch {
		if job.rec == nil {
			delete(r.touched, job.fixtureID)
		}
	}
	return batch, r.stopped
}

func (r *Recorder) run() {
	defer r.wg.Done()
	for {
		batch, stopped := r.take()
		for _, job := range batch {
			r.handle(job)
		}
		if len(batch) > 0 {
			continue
		}
		if stopped {
			return
		}
		<-r.wake
	}
}

func (r *Recorder) handle(job recordJob) {
	ctx, cancel := context.WithTimeout(context.Background(), recorderWriteTimeout)
	defer cancel()

	if job.rec != nil {
		if err := r.repo.AppendRecord(ctx, *job.rec); err != nil {
			r.logger.Error("persisting fixture record failed", "fixture", job.fixtureID, "seq", job.rec.Seq, "error", err)
		}
	}

	snap, ok := r.snapshot(job.fixtureID)
	if !ok {
		return
	}
	f, err := r.repo.Get(ctx, job.fixtureID)
	if err != nil {
		if !errors.Is(err, ErrFixtureNotFound) {
			r.logger.Error("loading fixture failed", "fixture", job.fixtureID, "error", err)
		}
		return
	}
	if snap.Seq < f.Seq {
		return
	}
	f.apply(snap)
	if err := r.repo.Save(ctx, f); err != nil && !errors.Is(err, ErrFixtureNotFound) {
		r.logger.Error("saving fixture snapshot failed", "fixture", job.fixtureID, "error", err)
	}
}
