package orders

import (
	"crypto/rand"
	"fmt"
	"math/big"
	"time"
)

type Status string

const (
	StatusPending   Status = "pending"
	StatusPreparing Status = "preparing"
	StatusReady     Status = "ready"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPreparing, StatusReady, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// transitions encodes the kitchen flow. Cancellation is allowed from any
// non-terminal state; everything else moves forward only.
var transitions = map[Status][]Status{
	StatusPending:   {StatusPreparing, StatusCancelled},
	StatusPreparing: {StatusReady, StatusCancelled},
	StatusReady:     {StatusCompleted, StatusCancelled},
}

func CanTransition(from, to Status) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// NewOrderNumber builds a human-readable order number: date prefix plus a
// random 4-digit tail, e.g. ORD-20260829-0421. Uniqueness is enforced by the
// database constraint, not here.
func NewOrderNumber(now time.Time) string {
	n, err := rand.Int(rand.Reader, big.NewInt(10000))
	tail := int64(0)
	if err == nil {
		tail = n.Int64()
	}
	return fmt.Sprintf("ORD-%s-%04d", now.Format("20060102"), tail)
}
