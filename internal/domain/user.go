package domain

import "time"

// User represents a registered account. There is no fixed role: the same
// user may publish trips as a driver and reserve seats on other trips
// as a passenger.
type User struct {
	ID             string
	FullName       string
	Email          string
	Phone          string
	DNI            string
	PasswordHash   string
	About          string
	Vehicle        string
	VehicleDetails string
	RatingCount    int
	RatingAvg      float64
	CreatedAt      time.Time
}
