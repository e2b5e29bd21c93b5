package domain

import (
	"regexp"
	"time"
)

type (
	// CourierStatus represents the availability of a courier.
	CourierStatus string
	// CourierTransportType represents the vehicle a courier uses.
	CourierTransportType string
)

// Courier statuses.
const (
	StatusAvailable CourierStatus = "AVAILABLE"
	StatusBusy      CourierStatus = "BUSY"
	StatusOffline   CourierStatus = "OFFLINE"
	StatusOnBreak   CourierStatus = "ON_BREAK"
)

// Courier transport types.
const (
	TransportTypeFoot       CourierTransportType = "ON_FOOT"
	TransportTypeBicycle    CourierTransportType = "BICYCLE"
	TransportTypeScooter    CourierTransportType = "SCOOTER"
	TransportTypeMotorcycle CourierTransportType = "MOTORCYCLE"
	TransportTypeCar        CourierTransportType = "CAR"
)

var allowedStatuses = [...]CourierStatus{
	StatusAvailable, StatusBusy, StatusOffline, StatusOnBreak,
}

var allowedTransportTypes = [...]CourierTransportType{
	TransportTypeFoot, TransportTypeBicycle, TransportTypeScooter, TransportTypeMotorcycle, TransportTypeCar,
}

// Valid checks if the CourierStatus is valid
func (s CourierStatus) Valid() bool {
	for _, v := range allowedStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Settable reports whether a courier may request this status directly.
// BUSY is owned by the assignment engine.
func (s CourierStatus) Settable() bool {
	return s.Valid() && s != StatusBusy
}

// Valid checks if the CourierTransportType is valid
func (t CourierTransportType) Valid() bool {
	for _, v := range allowedTransportTypes {
		if t == v {
			return true
		}
	}
	return false
}

var rePhone = regexp.MustCompile(`^\+[0-9]{11}$`)

// ValidatePhone validates the phone number format
func ValidatePhone(s string) bool {
	return rePhone.MatchString(s)
}

// Courier is a delivery agent. Location is the persisted snapshot; the live
// position is kept by the location store.
type Courier struct {
	ID                int64
	UserID            int64
	Name              string
	Phone             string
	TransportType     CourierTransportType
	Status            CourierStatus
	Location          *Point
	LocationUpdatedAt *time.Time
	AverageRating     float64
	RatingCount       int
	TotalDeliveries   int
	CreatedAt         time.Time
	UpdatedAt         time.Time
}

// Release returns a BUSY courier to AVAILABLE. A courier that went OFFLINE
// (or on a break) in the meantime keeps that status.
func (c *Courier) Release() bool {
	if c.Status != StatusBusy {
		return false
	}
	c.Status = StatusAvailable
	return true
}

// AddRating folds a 1..5 rating into the running average.
func (c *Courier) AddRating(r float64) {
	if c.RatingCount <= 0 {
		c.AverageRating = r
		c.RatingCount = 1
		return
	}
	total := c.AverageRating * float64(c.RatingCount)
	c.RatingCount++
	c.AverageRating = (total + r) / float64(c.RatingCount)
}

// PartialCourierUpdate carries optional fields to update a courier.
// A nil field means “do not change” that attribute.
type PartialCourierUpdate struct {
	ID            int64
	Name          *string
	Phone         *string
	TransportType *CourierTransportType
}
