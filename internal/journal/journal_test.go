package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/faceguard/faceguard/internal/models"
)

func openTestJournal(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "data", "events.db"))
	if err != nil {
		t.Fatalf("failed to open journal: %v", err)
	}
	t.Cleanup(func() { j.Close() })
	return j
}

func TestAppendAssignsIDAndTimestamp(t *testing.T) {
	j := openTestJournal(t)

	stored, err := j.Append(context.Background(), models.AccessEvent{
		Identifier: "alice",
		Status:     models.StatusSuccess,
		Message:    "matched with confidence 0.91",
		DeviceID:   "edge-7",
		Confidence: 0.91,
	})
	if err != nil {
		t.Fatalf("Append failed: %v", err)
	}
	if stored.ID == "" {
		t.Error("Append did not assign an ID")
	}
	if stored.CreatedAt == 0 {
		t.Error("Append did not assign a timestamp")
	}
}

func TestUnreportedOrderAndAcknowledge(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	older := models.AccessEvent{Identifier: "alice", Status: models.StatusSuccess, CreatedAt: 100}
	newer := models.AccessEvent{Identifier: "bob", Status: models.StatusDenied, CreatedAt: 200}

	// Insert newest first to prove ordering comes from the query.
	storedNewer, err := j.Append(ctx, newer)
	if err != nil {
		t.Fatal(err)
	}
	storedOlder, err := j.Append(ctx, older)
	if err != nil {
		t.Fatal(err)
	}

	pending, err := j.Unreported(ctx, 10)
	if err != nil {
		t.Fatalf("Unreported failed: %v", err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d, want 2", len(pending))
	}
	if pending[0].ID != storedOlder.ID || pending[1].ID != storedNewer.ID {
		t.Errorf("events not ordered oldest first: %+v", pending)
	}
	if pending[0].Identifier != "alice" || pending[0].Status != models.StatusSuccess {
		t.Errorf("event fields lost: %+v", pending[0])
	}

	if err := j.MarkReported(ctx, storedOlder.ID); err != nil {
		t.Fatalf("MarkReported failed: %v", err)
	}
	pending, err = j.Unreported(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 || pending[0].ID != storedNewer.ID {
		t.Errorf("pending after ack = %+v, want only newer event", pending)
	}
}

func TestUnreportedHonorsLimit(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()

	for i := int64(1); i <= 5; i++ {
		if _, err := j.Append(ctx, models.AccessEvent{Identifier: "alice", CreatedAt: i}); err != nil {
			t.Fatal(err)
		}
	}

	pending, err := j.Unreported(ctx, 3)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 3 {
		t.Errorf("pending = %d, want 3", len(pending))
	}
}

func TestPruneKeepsUnreportedEvents(t *testing.T) {
	j := openTestJournal(t)
	ctx := context.Background()
	ancient := time.Now().Add(-30 * 24 * time.Hour).Unix()

	reported, err := j.Append(ctx, models.AccessEvent{Identifier: "alice", CreatedAt: ancient})
	if err != nil {
		t.Fatal(err)
	}
	if err := j.MarkReported(ctx, reported.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Append(ctx, models.AccessEvent{Identifier: "bob", CreatedAt: ancient}); err != nil {
		t.Fatal(err)
	}
	if _, err := j.Append(ctx, models.AccessEvent{Identifier: "carol"}); err != nil {
		t.Fatal(err)
	}

	pruned, err := j.Prune(ctx, 7*24*time.Hour)
	if err != nil {
		t.Fatalf("Prune failed: %v", err)
	}
	if pruned != 1 {
		t.Errorf("pruned = %d, want 1 (only old reported events)", pruned)
	}

	pending, err := j.Unreported(ctx, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Errorf("pending = %d, want the old and new unreported events kept", len(pending))
	}
}
