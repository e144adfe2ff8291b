package audit

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"joingate/internal/verification/models"
)

// Producer is the subset of the Kafka client the publisher needs.
type Producer interface {
	Produce(ctx context.Context, key, value []byte) error
}

// KafkaPublisher encodes records as JSON events keyed by group and user, so
// all events for one applicant land on one partition.
type KafkaPublisher struct {
	producer Producer
	newID    func() string
}

func NewKafkaPublisher(producer Producer) *KafkaPublisher {
	return &KafkaPublisher{producer: producer, newID: uuid.NewString}
}

type event struct {
	EventID   string    `json:"event_id"`
	RecordID  int64     `json:"record_id"`
	GroupID   int64     `json:"group_id"`
	UserID    int64     `json:"user_id"`
	Type      string    `json:"type"`
	Result    string    `json:"result"`
	CreatedAt time.Time `json:"created_at"`
}

func (p *KafkaPublisher) Publish(ctx context.Context, rec models.AuditRecord) error {
	value, err := json.Marshal(event{
		EventID:   p.newID(),
		RecordID:  rec.ID,
		GroupID:   int64(rec.GroupID),
		UserID:    int64(rec.UserID),
		Type:      string(rec.Type),
		Result:    string(rec.Result),
		CreatedAt: rec.CreatedAt.UTC(),
	})
	if err != nil {
		return fmt.Errorf("encode audit event: %w", err)
	}
	key := models.KeyOf(rec.GroupID, rec.UserID).String()
	return p.producer.Produce(ctx, []byte(key), value)
}
