package domain

import (
	"time"

	"github.com/google/uuid"
)

// swagger:model domain.Bike
type Bike struct {
	ID          uuid.UUID `json:"id" bson:"_id"`
	BikeID      string    `json:"bike_id" bson:"bike_id" validate:"required,max=64"`
	Name        string    `json:"name" bson:"name" validate:"max=100"`
	Model       string    `json:"model" bson:"model" validate:"required,max=100"`
	Type        string    `json:"type" bson:"type" validate:"required,max=50"`
	Year        int       `json:"year" bson:"year" validate:"omitempty,min=1900,max=2100"`
	Price       float64   `json:"price" bson:"price" validate:"gte=0"`
	Description string    `json:"description" bson:"description" validate:"max=2000"`
	FuelType    string    `json:"fuel_type" bson:"fuel_type" validate:"max=50"`
	Mileage     int       `json:"mileage" bson:"mileage" validate:"min=0"`
	Available   bool      `json:"available" bson:"available"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// DisplayName is what rental history shows for the vehicle.
func (b *Bike) DisplayName() string {
	if b.Name == "" {
		return b.Model
	}
	return b.Name + " " + b.Model
}

// BikeInventory counts the catalog for the admin dashboard.
type BikeInventory struct {
	Total     int `json:"total"`
	Available int `json:"available"`
	Rented    int `json:"rented"`
}
