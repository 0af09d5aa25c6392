package domain

import (
	"time"

	"github.com/google/uuid"
)

type RentalStatus string

const (
	RentalActive    RentalStatus = "active"
	RentalCompleted RentalStatus = "completed"
	RentalCancelled RentalStatus = "cancelled"
)

// swagger:model domain.Rental
type Rental struct {
	ID          uuid.UUID    `json:"id" bson:"_id"`
	CustomerID  uuid.UUID    `json:"customer_id" bson:"customer_id" validate:"required"`
	BikeID      uuid.UUID    `json:"bike_id" bson:"bike_id" validate:"required"`
	RentalStart time.Time    `json:"rental_start" bson:"rental_start" validate:"required"`
	RentalEnd   time.Time    `json:"rental_end" bson:"rental_end" validate:"required,gtfield=RentalStart"`
	TotalCost   float64      `json:"total_cost" bson:"total_cost" validate:"gte=0"`
	Status      RentalStatus `json:"status" bson:"status" validate:"required,oneof=active completed cancelled"`
	CreatedAt   time.Time    `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time    `json:"updated_at" bson:"updated_at"`
}

// RentalSummary is a rental history row.
type RentalSummary struct {
	ID          uuid.UUID    `json:"id"`
	VehicleName string       `json:"vehicle_name"`
	RentalStart time.Time    `json:"rental_start"`
	RentalEnd   time.Time    `json:"rental_end"`
	TotalCost   float64      `json:"total_cost"`
	Status      RentalStatus `json:"status"`
	DueDate     time.Time    `json:"due_date"`
}

type RentalStats struct {
	TotalRentals   int64 `json:"total_rentals"`
	ActiveRentals  int64 `json:"active_rentals"`
	OverdueRentals int64 `json:"overdue_rentals"`
}
