package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

type RequestStatus string

const (
	StatusPending    RequestStatus = "pending"
	StatusAssigned   RequestStatus = "assigned"
	StatusInProgress RequestStatus = "in_progress"
	StatusCompleted  RequestStatus = "completed"
	StatusCancelled  RequestStatus = "cancelled"
)

type Priority string

const (
	PriorityLow    Priority = "low"
	PriorityMedium Priority = "medium"
	PriorityHigh   Priority = "high"
	PriorityUrgent Priority = "urgent"
)

type VehicleType string

const (
	VehicleBike       VehicleType = "bike"
	VehicleScooter    VehicleType = "scooter"
	VehicleMotorcycle VehicleType = "motorcycle"
	VehicleOther      VehicleType = "other"
)

type ServiceType string

const (
	ServiceRepair      ServiceType = "repair"
	ServiceMaintenance ServiceType = "maintenance"
	ServiceEmergency   ServiceType = "emergency"
	ServiceInspection  ServiceType = "inspection"
	ServiceOther       ServiceType = "other"
)

// swagger:model domain.ServiceRequest
type ServiceRequest struct {
	ID                 uuid.UUID     `json:"id" bson:"_id"`
	RequestID          string        `json:"request_id" bson:"request_id"`
	CustomerID         uuid.UUID     `json:"customer_id" bson:"customer_id" validate:"required"`
	AssignedMechanicID *uuid.UUID    `json:"assigned_mechanic_id" bson:"assigned_mechanic_id"`
	VehicleType        VehicleType   `json:"vehicle_type" bson:"vehicle_type" validate:"required,oneof=bike scooter motorcycle other"`
	VehicleModel       string        `json:"vehicle_model" bson:"vehicle_model" validate:"required,max=100"`
	VehicleNumber      string        `json:"vehicle_number" bson:"vehicle_number" validate:"required,max=32"`
	ServiceType        ServiceType   `json:"service_type" bson:"service_type" validate:"required,oneof=repair maintenance emergency inspection other"`
	Description        string        `json:"description" bson:"description" validate:"required,max=2000"`
	CustomerAddress    string        `json:"customer_address" bson:"customer_address" validate:"required,max=500"`
	CustomerPhone      string        `json:"customer_phone" bson:"customer_phone" validate:"required,max=32"`
	Status             RequestStatus `json:"status" bson:"status" validate:"required,oneof=pending assigned in_progress completed cancelled"`
	Priority           Priority      `json:"priority" bson:"priority" validate:"required,oneof=low medium high urgent"`
	EstimatedCost      float64       `json:"estimated_cost" bson:"estimated_cost" validate:"gte=0"`
	ActualCost         float64       `json:"actual_cost" bson:"actual_cost" validate:"gte=0"`
	AssignedDate       *time.Time    `json:"assigned_date" bson:"assigned_date"`
	CompletedDate      *time.Time    `json:"completed_date" bson:"completed_date"`
	MechanicNotes      string        `json:"mechanic_notes" bson:"mechanic_notes"`
	CreatedAt          time.Time     `json:"created_at" bson:"created_at"`
	UpdatedAt          time.Time     `json:"updated_at" bson:"updated_at"`
}

// ServiceRequestView is the read side: the stored record joined with the display
// fields of the customer and the assigned mechanic.
type ServiceRequestView struct {
	*ServiceRequest
	Customer *Party `json:"customer,omitempty"`
	Mechanic *Party `json:"mechanic,omitempty"`
}

type ServiceRequestFilter struct {
	Status     RequestStatus
	Priority   Priority
	CustomerID *uuid.UUID
	MechanicID *uuid.UUID
}

// NewServiceRequest is what a customer submits.
type NewServiceRequest struct {
	VehicleType     VehicleType
	VehicleModel    string
	VehicleNumber   string
	ServiceType     ServiceType
	Description     string
	CustomerAddress string
	CustomerPhone   string
	Priority        Priority
	EstimatedCost   float64
}

// StatusUpdate is applied by UpdateStatus. Nil fields leave the record untouched.
type StatusUpdate struct {
	Status        RequestStatus
	MechanicNotes *string
	ActualCost    *float64
}

var transitions = map[RequestStatus][]RequestStatus{
	StatusPending:    {StatusAssigned, StatusCancelled},
	StatusAssigned:   {StatusAssigned, StatusInProgress, StatusCancelled},
	StatusInProgress: {StatusCompleted, StatusCancelled},
}

func (s RequestStatus) Valid() bool {
	switch s {
	case StatusPending, StatusAssigned, StatusInProgress, StatusCompleted, StatusCancelled:
		return true
	}
	return false
}

func (s RequestStatus) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransition reports whether a request in status s may move to next.
func (s RequestStatus) CanTransition(next RequestStatus) bool {
	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// HoldsMechanic reports whether a request in this status must reference a mechanic.
func (s RequestStatus) HoldsMechanic() bool {
	return s == StatusAssigned || s == StatusInProgress || s == StatusCompleted
}

func (p Priority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent:
		return true
	}
	return false
}

// RequestState is what a writer saw before changing a request. Writes are
// rejected when the stored record no longer matches it.
type RequestState struct {
	Status     RequestStatus
	MechanicID *uuid.UUID
}

func (r *ServiceRequest) State() RequestState {
	state := RequestState{Status: r.Status}
	if r.AssignedMechanicID != nil {
		id := *r.AssignedMechanicID
		state.MechanicID = &id
	}
	return state
}

// Matches reports whether r is still in state s.
func (s RequestState) Matches(r *ServiceRequest) bool {
	if r.Status != s.Status {
		return false
	}
	if (r.AssignedMechanicID == nil) != (s.MechanicID == nil) {
		return false
	}
	return s.MechanicID == nil || *s.MechanicID == *r.AssignedMechanicID
}

// CheckInvariant verifies that a mechanic is referenced exactly when the status requires one.
func (r *ServiceRequest) CheckInvariant() error {
	if (r.AssignedMechanicID != nil) != r.Status.HoldsMechanic() {
		return fmt.Errorf("service request %s: status %s with mechanic set=%t", r.RequestID, r.Status, r.AssignedMechanicID != nil)
	}
	return nil
}

// Assign binds the mechanic and moves the request to assigned.
func (r *ServiceRequest) Assign(mechanicID uuid.UUID, at time.Time) error {
	if !r.Status.CanTransition(StatusAssigned) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, StatusAssigned)
	}
	r.AssignedMechanicID = &mechanicID
	r.Status = StatusAssigned
	r.AssignedDate = &at
	r.UpdatedAt = at
	return nil
}

// Apply moves the request along the lifecycle. Assignment goes through Assign.
func (r *ServiceRequest) Apply(update StatusUpdate, at time.Time) error {
	if !update.Status.Valid() {
		return fmt.Errorf("%w: unknown status %q", ErrValidation, update.Status)
	}
	if update.Status == StatusAssigned {
		return fmt.Errorf("%w: use assign to bind a mechanic", ErrInvalidTransition)
	}
	if !r.Status.CanTransition(update.Status) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, r.Status, update.Status)
	}

	r.Status = update.Status
	switch update.Status {
	case StatusCompleted:
		r.CompletedDate = &at
	case StatusCancelled:
		r.AssignedMechanicID = nil
	}
	if update.MechanicNotes != nil {
		r.MechanicNotes = *update.MechanicNotes
	}
	if update.ActualCost != nil {
		r.ActualCost = *update.ActualCost
	}
	r.UpdatedAt = at
	return nil
}
