package device

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/lightmount-core/internal/fixture"
)

func TestRecorder_PersistsInOrder(t *testing.T) {
	repo := NewMockRepository()
	repo.Create(context.Background(), &Fixture{ID: "fix-1"}) //nolint:errcheck // seeded

	live := fixture.Snapshot{ID: "fix-1", State: fixture.StateOff, Power: fixture.PowerNominal, Seq: 5}
	rec := NewRecorder(repo, 16, func(id string) (fixture.Snapshot, bool) {
		return live, id == "fix-1"
	})
	rec.Start()

	for seq := uint64(1); seq <= 5; seq++ {
		rec.Observe(fixture.Record{Seq: seq, FixtureID: "fix-1", Kind: fixture.RecordTransition})
	}
	rec.Observe(fixture.Record{Seq: 1, FixtureID: "fix-gone"})
	rec.Stop()

	if len(repo.records) != 6 {
		t.Fatalf("records = %d, want 6", len(repo.records))
	}
	for i := 0; i < 5; i++ {
		if repo.records[i].Seq != uint64(i+1) {
			t.Fatalf("record %d has seq %d", i, repo.records[i].Seq)
		}
	}
	stored, _ := repo.stored("fix-1")
	if stored.State != fixture.StateOff || stored.Seq != 5 {
		t.Errorf("snapshot = %+v", stored)
	}
	if _, ok := repo.stored("fix-gone"); ok {
		t.Error("snapshot saved for unknown fixture")
	}
}

// stallingRepository blocks the first AppendRecord until release is closed.
type stallingRepository struct {
	*MockRepository
	once    sync.Once
	entered chan struct{}
	release chan struct{}
}

func (s *stallingRepository) AppendRecord(ctx context.Context, rec fixture.Record) error {
	s.once.Do(func() {
		close(s.entered)
		<-s.release
	})
	return s.MockRepository.AppendRecord(ctx, rec)
}

func TestRecorder_KeepsEveryRecordWhileStalled(t *testing.T) {
	repo := &stallingRepository{
		MockRepository: NewMockRepository(),
		entered:        make(chan struct{}),
		release:        make(chan struct{}),
	}
	rec := NewRecorder(repo, 1, func(string) (fixture.Snapshot, bool) { return fixture.Snapshot{}, false })
	rec.Start()

	rec.Observe(fixture.Record{Seq: 1, FixtureID: "fix-1", Kind: fixture.RecordTransition})
	select {
	case <-repo.entered:
	case <-time.After(time.Second):
		t.Fatal("worker never reached the repository")
	}

	done := make(chan struct{})
	go func() {
		for seq := uint64(2); seq <= 20; seq++ {
			rec.Observe(fixture.Record{Seq: seq, FixtureID: "fix-1", Kind: fixture.RecordTransition})
		}
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Observe blocked on a stalled worker")
	}
	if got := rec.Pending(); got != 19 {
		t.Errorf("Pending() = %d, want 19", got)
	}

	close(repo.release)
	rec.Stop()

	if len(repo.records) != 20 {
		t.Fatalf("records = %d, want 20", len(repo.records))
	}
	for i, r := range repo.records {
		if r.Seq != uint64(i+1) {
			t.Fatalf("record %d has seq %d", i, r.Seq)
		}
	}
}

func TestRecorder_CoalescesTouches(t *testing.T) {
	repo := NewMockRepository()
	repo.Create(context.Background(), &Fixture{ID: "fix-1"}) //nolint:errcheck // seeded

	live := fixture.Snapshot{ID: "fix-1", State: fixture.StateEmergency, SwitchIntent: false}
	rec := NewRecorder(repo, 4, func(id string) (fixture.Snapshot, bool) { return live, id == "fix-1" })

	// Not started yet: touches stay queued.
	for i := 0; i < 5; i++ {
		rec.Touch("fix-1")
	}
	rec.Observe(fixture.Record{Seq: 1, FixtureID: "fix-1", Kind: fixture.RecordTransition})
	rec.Touch("fix-1")
	if got := rec.Pending(); got != 2 {
		t.Fatalf("Pending() = %d, want 2", got)
	}

	rec.Start()
	rec.Stop()

	if len(repo.records) != 1 {
		t.Errorf("records = %d, want 1", len(repo.records))
	}
	if repo.saves != 2 {
		t.Errorf("saves = %d, want 2", repo.saves)
	}
	if stored, _ := repo.stored("fix-1"); stored.State != fixture.StateEmergency {
		t.Errorf("snapshot = %+v", stored)
	}
}

func TestRecorder_StopIsIdempotent(t *testing.T) {
	rec := NewRecorder(NewMockRepository(), 0, func(string) (fixture.Snapshot, bool) { return fixture.Snapshot{}, false })
	rec.Start()
	rec.Stop()
	rec.Stop()
	rec.Touch("fix-1")
}
