package jobs

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"github.com/moneta-erp/moneta/internal/calendar"
	"github.com/moneta-erp/moneta/internal/mutation"
)

// MutationSnapshotPayload carries the accounting date to materialize. A zero
// Date means the accounting day before the handler runs.
type MutationSnapshotPayload struct {
	Date string `json:"date,omitempty"`
}

// NewMutationSnapshotTask constructs an Asynq task for snapshot materialization.
func NewMutationSnapshotTask(date calendar.Date) (*asynq.Task, error) {
	payload := MutationSnapshotPayload{}
	if !date.IsZero() {
		payload.Date = date.String()
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskMutationSnapshot, body, asynq.Queue(QueueDefault)), nil
}

// MutationSnapshotHandler recomputes daily records and upserts them.
type MutationSnapshotHandler struct {
	materializer *mutation.Materializer
	cal          calendar.Calendar
	logger       *slog.Logger
	now          func() time.Time
}

// NewMutationSnapshotHandler builds the handler.
func NewMutationSnapshotHandler(m *mutation.Materializer, cal calendar.Calendar, logger *slog.Logger) *MutationSnapshotHandler {
	return &MutationSnapshotHandler{materializer: m, cal: cal, logger: logger, now: time.Now}
}

// ProcessTask handles TaskMutationSnapshot tasks.
func (h *MutationSnapshotHandler) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload MutationSnapshotPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return asynq.SkipRetry
	}
	var date calendar.Date
	if payload.Date != "" {
		parsed, err := calendar.ParseDate(payload.Date)
		if err != nil {
			h.logger.Warn("mutation snapshot: bad date in payload", slog.String("date", payload.Date))
			return asynq.SkipRetry
		}
		date = parsed
	} else {
		// The scheduler fires shortly after local midnight, so the day to
		// close is the one before the current accounting date.
		date = h.cal.AccountingDateOf(h.now()).Prev()
	}
	stored, err := h.materializer.MaterializeDay(ctx, date)
	if err != nil {
		h.logger.Error("mutation snapshot failed",
			slog.String("date", date.String()),
			slog.Any("error", err))
		return err
	}
	h.logger.Info("mutation snapshot stored",
		slog.String("date", date.String()),
		slog.Int("records", stored))
	return nil
}
