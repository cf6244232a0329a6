// Package events defines the employee and draft lifecycle notifications
// exchanged over the event bus.
package events

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every roster event.
const Topic = "roster.events"

const EventMetadataKey = "key"
const EventTypeMetadataKey = "event_type"

const (
	// Employee lifecycle events, published by the reference backend.
	EmployeeCreatedEvent EventType = "employee.created"
	EmployeeUpdatedEvent EventType = "employee.updated"
	EmployeeDeletedEvent EventType = "employee.deleted"

	// Wizard events, published by wizard hosts.
	DraftEntityChangedEvent  EventType = "draft.entity_changed"
	OnboardingCompletedEvent EventType = "onboarding.completed"
)

var (
	ErrMissingEmployeeID = errors.New("employee_id is required")
	ErrMissingNamespace  = errors.New("namespace is required")
)

type BaseEvent struct {
	ID        string         `json:"id"`
	Type      EventType      `json:"type"`
	Timestamp time.Time      `json:"timestamp"`
	Source    string         `json:"source,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func NewBaseEvent(eventType EventType, source string) BaseEvent {
	return BaseEvent{
		ID:        uuid.New().String(),
		Type:      eventType,
		Timestamp: time.Now().UTC(),
		Source:    source,
		Metadata:  make(map[string]any),
	}
}

type EmployeeCreated struct {
	BaseEvent

	EmployeeID string `json:"employee_id"`
	Email      string `json:"email,omitempty"`
}

func (e EmployeeCreated) GetType() EventType {
	return EmployeeCreatedEvent
}

func NewEmployeeCreated(source, employeeID, email string) *EmployeeCreated {
	return &EmployeeCreated{
		BaseEvent:  NewBaseEvent(EmployeeCreatedEvent, source),
		EmployeeID: employeeID,
		Email:      email,
	}
}

func (e *EmployeeCreated) Validate() error {
	if e.EmployeeID == "" {
		return ErrMissingEmployeeID
	}

	return nil
}

// EmployeeUpdated lists the JSON fields that were part of the update.
type EmployeeUpdated struct {
	BaseEvent

	EmployeeID string   `json:"employee_id"`
	Fields     []string `json:"fields,omitempty"`
}

func (e EmployeeUpdated) GetType() EventType {
	return EmployeeUpdatedEvent
}

func NewEmployeeUpdated(source, employeeID string, fields []string) *EmployeeUpdated {
	return &EmployeeUpdated{
		BaseEvent:  NewBaseEvent(EmployeeUpdatedEvent, source),
		EmployeeID: employeeID,
		Fields:     fields,
	}
}

func (e *EmployeeUpdated) Validate() error {
	if e.EmployeeID == "" {
		return ErrMissingEmployeeID
	}

	return nil
}

type EmployeeDeleted struct {
	BaseEvent

	EmployeeID string `json:"employee_id"`
}

func (e EmployeeDeleted) GetType() EventType {
	return EmployeeDeletedEvent
}

func NewEmployeeDeleted(source, employeeID string) *EmployeeDeleted {
	return &EmployeeDeleted{
		BaseEvent:  NewBaseEvent(EmployeeDeletedEvent, source),
		EmployeeID: employeeID,
	}
}

func (e *EmployeeDeleted) Validate() error {
	if e.EmployeeID == "" {
		return ErrMissingEmployeeID
	}

	return nil
}

// DraftEntityChanged tells other hosts sharing a draft backend that the
// draft of Namespace now edits EntityID. An empty EntityID means the draft
// was cleared.
type DraftEntityChanged struct {
	BaseEvent

	Namespace string `json:"namespace"`
	EntityID  string `json:"entity_id"`
}

func (e DraftEntityChanged) GetType() EventType {
	return DraftEntityChangedEvent
}

func NewDraftEntityChanged(source, namespace, entityID string) *DraftEntityChanged {
	return &DraftEntityChanged{
		BaseEvent: NewBaseEvent(DraftEntityChangedEvent, source),
		Namespace: namespace,
		EntityID:  entityID,
	}
}

func (e *DraftEntityChanged) Validate() error {
	if e.Namespace == "" {
		return ErrMissingNamespace
	}

	return nil
}

type OnboardingCompleted struct {
	BaseEvent

	EmployeeID string `json:"employee_id"`
	Namespace  string `json:"namespace,omitempty"`
}

func (e OnboardingCompleted) GetType() EventType {
	return OnboardingCompletedEvent
}

func NewOnboardingCompleted(source, namespace, employeeID string) *OnboardingCompleted {
	return &OnboardingCompleted{
		BaseEvent:  NewBaseEvent(OnboardingCompletedEvent, source),
		EmployeeID: employeeID,
		Namespace:  namespace,
	}
}

func (e *OnboardingCompleted) Validate() error {
	if e.EmployeeID == "" {
		return ErrMissingEmployeeID
	}

	return nil
}

// New returns an empty event value for eventType, ready to be decoded into.
func New(eventType EventType) (any, bool) {
	switch eventType {
	case EmployeeCreatedEvent:
		return &EmployeeCreated{}, true
	case EmployeeUpdatedEvent:
		return &EmployeeUpdated{}, true
	case EmployeeDeletedEvent:
		return &EmployeeDeleted{}, true
	case DraftEntityChangedEvent:
		return &DraftEntityChanged{}, true
	case OnboardingCompletedEvent:
		return &OnboardingCompleted{}, true
	default:
		return nil, false
	}
}
