package domain

import (
	"time"

	"github.com/google/uuid"
)

type AuditEventType string

const (
	AuditEventPaymentCreate AuditEventType = "PAY_CREATE"
	AuditEventPaymentVerify AuditEventType = "PAY_VERIFY"
	AuditEventPaymentSubmit AuditEventType = "PAY_SUBMIT"
)

type AuditEvent struct {
	ID         uuid.UUID
	ActorID    int64
	EventType  AuditEventType
	EntityID   int64
	OccurredAt time.Time
	Metadata   map[string]string
}
