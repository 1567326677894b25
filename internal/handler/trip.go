package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"rumbo/internal/domain"
	"rumbo/internal/service"
)

// TripHandler handles HTTP requests for trips.
type TripHandler struct {
	tripService *service.TripService
}

// NewTripHandler creates a new TripHandler.
func NewTripHandler(tripService *service.TripService) *TripHandler {
	return &TripHandler{tripService: tripService}
}

// CreateTripRequest is the HTTP request body for publishing a trip.
type CreateTripRequest struct {
	DriverID       string  `json:"driverId"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	AvailableSeats int     `json:"availableSeats"`
	PricePerPerson float64 `json:"pricePerPerson"`
	Vehicle        string  `json:"vehicle"`
	Music          bool    `json:"music"`
	Pets           bool    `json:"pets"`
	Children       bool    `json:"children"`
	Luggage        bool    `json:"luggage"`
	Notes          string  `json:"notes"`
}

// TripResponse is the HTTP representation of a trip.
type TripResponse struct {
	ID             string  `json:"id"`
	DriverID       string  `json:"driverId"`
	Origin         string  `json:"origin"`
	Destination    string  `json:"destination"`
	Date           string  `json:"date"`
	Time           string  `json:"time"`
	AvailableSeats int     `json:"availableSeats"`
	PricePerPerson float64 `json:"pricePerPerson"`
	Vehicle        string  `json:"vehicle,omitempty"`
	Music          bool    `json:"music"`
	Pets           bool    `json:"pets"`
	Children       bool    `json:"children"`
	Luggage        bool    `json:"luggage"`
	Notes          string  `json:"notes,omitempty"`
	State          string  `json:"state"`
	CreatedAt      string  `json:"createdAt"`
}

// UserTripResponse is a trip annotated with the requesting user's side.
type UserTripResponse struct {
	TripResponse
	IsPassenger bool `json:"isPassenger"`
	Seats       int  `json:"seats,omitempty"`
}

// Create handles POST /api/trips
func (h *TripHandler) Create(c *gin.Context) {
	var req CreateTripRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	trip, err := h.tripService.CreateTrip(c.Request.Context(), service.CreateTripRequest{
		DriverID:       req.DriverID,
		Origin:         req.Origin,
		Destination:    req.Destination,
		Date:           req.Date,
		Time:           req.Time,
		AvailableSeats: req.AvailableSeats,
		PricePerPerson: req.PricePerPerson,
		Vehicle:        req.Vehicle,
		Amenities: domain.Amenities{
			Music:    req.Music,
			Pets:     req.Pets,
			Children: req.Children,
			Luggage:  req.Luggage,
		},
		Notes: req.Notes,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toTripResponse(trip))
}

// List handles GET /api/trips
func (h *TripHandler) List(c *gin.Context) {
	filter := service.TripFilter{
		Origin:      c.Query("origin"),
		Destination: c.Query("destination"),
		Date:        c.Query("date"),
		Amenities: domain.Amenities{
			Music:    queryFlag(c, "music"),
			Pets:     queryFlag(c, "pets"),
			Children: queryFlag(c, "children"),
			Luggage:  queryFlag(c, "luggage"),
		},
	}

	trips, err := h.tripService.ListTrips(c.Request.Context(), filter)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]TripResponse, 0, len(trips))
	for _, trip := range trips {
		response = append(response, toTripResponse(trip))
	}

	respondData(c, http.StatusOK, response)
}

// Get handles GET /api/trips/:id
func (h *TripHandler) Get(c *gin.Context) {
	trip, err := h.tripService.GetTrip(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toTripResponse(trip))
}

// ListForUser handles GET /api/users/:id/trips
func (h *TripHandler) ListForUser(c *gin.Context) {
	userTrips, err := h.tripService.ListTripsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]UserTripResponse, 0, len(userTrips))
	for _, ut := range userTrips {
		response = append(response, UserTripResponse{
			TripResponse: toTripResponse(ut.Trip),
			IsPassenger:  ut.IsPassenger,
			Seats:        ut.Seats,
		})
	}

	respondData(c, http.StatusOK, response)
}

// Start handles PATCH /api/trips/:id/start
func (h *TripHandler) Start(c *gin.Context) {
	h.transition(c, h.tripService.StartTrip)
}

// Complete handles PATCH /api/trips/:id/complete
func (h *TripHandler) Complete(c *gin.Context) {
	h.transition(c, h.tripService.CompleteTrip)
}

// TransitionRequest identifies the actor requesting a state change.
type TransitionRequest struct {
	UserID string `json:"userId"`
}

func (h *TripHandler) transition(c *gin.Context, fn func(ctx context.Context, tripID, requesterID string) (*domain.Trip, error)) {
	var req TransitionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	trip, err := fn(c.Request.Context(), c.Param("id"), req.UserID)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toTripResponse(trip))
}

func toTripResponse(trip *domain.Trip) TripResponse {
	return TripResponse{
		ID:             trip.ID,
		DriverID:       trip.DriverID,
		Origin:         trip.Origin,
		Destination:    trip.Destination,
		Date:           trip.Date,
		Time:           trip.Time,
		AvailableSeats: trip.AvailableSeats,
		PricePerPerson: trip.PricePerPerson,
		Vehicle:        trip.Vehicle,
		Music:          trip.Amenities.Music,
		Pets:           trip.Amenities.Pets,
		Children:       trip.Amenities.Children,
		Luggage:        trip.Amenities.Luggage,
		Notes:          trip.Notes,
		State:          string(trip.State),
		CreatedAt:      trip.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}

// queryFlag parses a boolean query parameter; absent means false.
func queryFlag(c *gin.Context, name string) bool {
	v, ok := c.GetQuery(name)
	if !ok {
		return false
	}
	if v == "" {
		return true
	}
	b, err := strconv.ParseBool(v)
	return err == nil && b
}
