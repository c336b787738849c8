package domain

import (
	"fmt"
	"time"
)

// Status is the lifecycle position of an order.
type Status int

const (
	StatusPending       Status = 0
	StatusInPreparation Status = 1
	StatusReady         Status = 2
	StatusCompleted     Status = 3
	StatusCancelled     Status = 4
)

var validTransitions = map[Status][]Status{
	StatusPending:       {StatusInPreparation, StatusCancelled},
	StatusInPreparation: {StatusReady, StatusCancelled},
	StatusReady:         {StatusCompleted, StatusCancelled},
	StatusCompleted:     {},
	StatusCancelled:     {},
}

// CanTransitionTo reports whether next is directly reachable from s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, allowed := range validTransitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// Valid reports whether s is one of the five known statuses.
func (s Status) Valid() bool {
	_, ok := validTransitions[s]
	return ok
}

func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// IsActive is true for orders still moving through the kitchen.
func (s Status) IsActive() bool {
	return s == StatusPending || s == StatusInPreparation || s == StatusReady
}

func (s Status) String() string {
	switch s {
	case StatusPending:
		return "pending"
	case StatusInPreparation:
		return "in_preparation"
	case StatusReady:
		return "ready"
	case StatusCompleted:
		return "completed"
	case StatusCancelled:
		return "cancelled"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// StatusLog is one persisted status change.
type StatusLog struct {
	ID        int64     `json:"id"`
	OrderID   int64     `json:"idorder"`
	Status    Status    `json:"status"`
	ChangedBy int64     `json:"users_idusers"`
	ChangedAt time.Time `json:"changed_at"`
}
