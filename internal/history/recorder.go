package history

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/opensource-health/heron/internal/domain"
)

// Recorder consumes completed-assessment events from the bus and folds
// them into the session log, keeping bookkeeping off the request path.
type Recorder struct {
	bus domain.EventBus
	log *Log

	subscription domain.Subscription
	cancel       context.CancelFunc
}

// NewRecorder creates a recorder writing into the given log.
func NewRecorder(bus domain.EventBus, log *Log) *Recorder {
	return &Recorder{bus: bus, log: log}
}

// Start subscribes to the assessment-completed topic.
func (r *Recorder) Start(ctx context.Context) error {
	ctx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	sub, err := r.bus.Subscribe(ctx, domain.TopicAssessmentCompleted, r.handleMessage)
	if err != nil {
		cancel()
		return err
	}
	r.subscription = sub

	slog.Info("history recorder started", "topic", sub.Topic())
	return nil
}

// Stop unsubscribes the recorder. Records already in the log remain
// until the log is cleared or the process exits.
func (r *Recorder) Stop() error {
	if r.cancel != nil {
		r.cancel()
	}
	if r.subscription != nil {
		return r.subscription.Unsubscribe()
	}
	return nil
}

func (r *Recorder) handleMessage(ctx context.Context, msg *domain.Message) error {
	var rec domain.AssessmentRecord
	if err := json.Unmarshal(msg.Payload, &rec); err != nil {
		slog.Error("failed to decode assessment event", "error", err, "message_id", msg.ID)
		return err
	}

	r.log.Add(&rec)

	slog.Debug("assessment recorded",
		"assessment_id", rec.ID,
		"risk_score", rec.Result.RiskScore,
		"bp_stage", rec.Result.BPStage,
	)
	return nil
}
