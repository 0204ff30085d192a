package domain

import (
	"time"
)

// Registration step status constants.
const (
	RegistrationPending     = "pending"
	RegistrationCompleted   = "completed"
	RegistrationFailed      = "failed"
	RegistrationCompensated = "compensated"
)

// RegistrationStep tracks the outcome of registering one vendor order during
// checkout. When a later vendor's registration fails, every completed step is
// compensated so the checkout leaves no orders behind.
type RegistrationStep struct {
	VendorID   string    `json:"vendor_id"`
	OrderID    string    `json:"order_id,omitempty"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	ExecutedAt time.Time `json:"executed_at,omitempty"`
}

// NewRegistrationStep creates a registration step in the pending state.
func NewRegistrationStep(vendorID string) RegistrationStep {
	return RegistrationStep{
		VendorID: vendorID,
		Status:   RegistrationPending,
	}
}

// Complete marks the step as completed and records the registered order ID.
func (s *RegistrationStep) Complete(orderID string) {
	s.OrderID = orderID
	s.Status = RegistrationCompleted
	s.ExecutedAt = time.Now().UTC()
}

// Fail marks the step as failed with the given error message.
func (s *RegistrationStep) Fail(err string) {
	s.Status = RegistrationFailed
	s.Error = err
	s.ExecutedAt = time.Now().UTC()
}

// Compensate marks the step as compensated (its order was cancelled).
func (s *RegistrationStep) Compensate() {
	s.Status = RegistrationCompensated
	s.ExecutedAt = time.Now().UTC()
}
