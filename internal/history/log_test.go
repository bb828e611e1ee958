package history

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/opensource-health/heron/internal/bus"
	"github.com/opensource-health/heron/internal/domain"
)

func testRecord(id string, score int) *domain.AssessmentRecord {
	return &domain.AssessmentRecord{
		ID:        id,
		CreatedAt: time.Now().UTC(),
		Input:     domain.PatientRecord{Age: 50, BMI: 28, Cholesterol: 220, Systolic: 145, Diastolic: 92},
		Result:    domain.RiskAssessment{RiskScore: score, Prediction: 1},
	}
}

func TestLogAddAndRecent(t *testing.T) {
	log := NewLog(10)

	for i := 0; i < 3; i++ {
		log.Add(testRecord(fmt.Sprintf("rec-%d", i), i*10))
	}

	if log.Len() != 3 {
		t.Fatalf("expected 3 records, got %d", log.Len())
	}

	recent := log.Recent(0)
	if len(recent) != 3 {
		t.Fatalf("expected 3 records, got %d", len(recent))
	}
	// Most recent first
	if recent[0].ID != "rec-2" || recent[2].ID != "rec-0" {
		t.Errorf("unexpected order: %s .. %s", recent[0].ID, recent[2].ID)
	}

	limited := log.Recent(2)
	if len(limited) != 2 {
		t.Errorf("expected 2 records with limit, got %d", len(limited))
	}
}

func TestLogEviction(t *testing.T) {
	log := NewLog(3)

	for i := 0; i < 5; i++ {
		log.Add(testRecord(fmt.Sprintf("rec-%d", i), i))
	}

	if log.Len() != 3 {
		t.Fatalf("expected 3 records after eviction, got %d", log.Len())
	}

	if _, ok := log.Get("rec-0"); ok {
		t.Error("expected oldest record to be evicted")
	}
	if _, ok := log.Get("rec-4"); !ok {
		t.Error("expected newest record to remain")
	}
}

func TestLogGet(t *testing.T) {
	log := NewLog(10)
	log.Add(testRecord("rec-a", 42))

	rec, ok := log.Get("rec-a")
	if !ok {
		t.Fatal("expected record")
	}
	if rec.Result.RiskScore != 42 {
		t.Errorf("expected riskScore 42, got %d", rec.Result.RiskScore)
	}

	if _, ok := log.Get("missing"); ok {
		t.Error("expected miss for unknown id")
	}
}

func TestLogClear(t *testing.T) {
	log := NewLog(10)
	log.Add(testRecord("rec-a", 1))
	log.Add(testRecord("rec-b", 2))

	log.Clear()

	if log.Len() != 0 {
		t.Errorf("expected empty log, got %d", log.Len())
	}
	if _, ok := log.Get("rec-a"); ok {
		t.Error("expected cleared record to be gone")
	}
}

func TestLogIgnoresInvalidRecords(t *testing.T) {
	log := NewLog(10)

	log.Add(nil)
	log.Add(&domain.AssessmentRecord{})

	if log.Len() != 0 {
		t.Errorf("expected empty log, got %d", log.Len())
	}
}

func TestRecorderConsumesBusEvents(t *testing.T) {
	eventBus := bus.NewChannelBus(10)
	defer eventBus.Close()

	log := NewLog(10)
	recorder := NewRecorder(eventBus, log)

	ctx := context.Background()
	if err := recorder.Start(ctx); err != nil {
		t.Fatalf("failed to start recorder: %v", err)
	}
	defer recorder.Stop()

	payload, _ := json.Marshal(testRecord("rec-bus", 77))
	if err := eventBus.Publish(ctx, domain.TopicAssessmentCompleted, payload); err != nil {
		t.Fatalf("publish failed: %v", err)
	}

	// The recorder consumes asynchronously.
	deadline := time.Now().Add(2 * time.Second)
	for log.Len() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	rec, ok := log.Get("rec-bus")
	if !ok {
		t.Fatal("expected recorded assessment")
	}
	if rec.Result.RiskScore != 77 {
		t.Errorf("expected riskScore 77, got %d", rec.Result.RiskScore)
	}
}
