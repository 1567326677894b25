package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rumbo/internal/service"
)

// ReservationHandler handles HTTP requests for seat reservations.
type ReservationHandler struct {
	reservationService *service.ReservationService
}

// NewReservationHandler creates a new ReservationHandler.
func NewReservationHandler(reservationService *service.ReservationService) *ReservationHandler {
	return &ReservationHandler{reservationService: reservationService}
}

// ReserveRequest is the HTTP request body for claiming seats.
type ReserveRequest struct {
	UserID string `json:"userId"`
	Seats  int    `json:"seats"`
}

// ReservationResponse is the HTTP representation of a reservation.
type ReservationResponse struct {
	ID        string `json:"id"`
	TripID    string `json:"tripId"`
	UserID    string `json:"userId"`
	Seats     int    `json:"seats"`
	CreatedAt string `json:"createdAt"`
}

// PassengerResponse is one roster entry of a trip.
type PassengerResponse struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Seats int    `json:"seats"`
}

// Reserve handles POST /api/trips/:id/select
func (h *ReservationHandler) Reserve(c *gin.Context) {
	var req ReserveRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	reservation, err := h.reservationService.Reserve(c.Request.Context(), service.ReserveRequest{
		TripID: c.Param("id"),
		UserID: req.UserID,
		Seats:  req.Seats,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, ReservationResponse{
		ID:        reservation.ID,
		TripID:    reservation.TripID,
		UserID:    reservation.UserID,
		Seats:     reservation.Seats,
		CreatedAt: reservation.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	})
}

// ListPassengers handles GET /api/trips/:id/passengers
func (h *ReservationHandler) ListPassengers(c *gin.Context) {
	passengers, err := h.reservationService.ListPassengers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PassengerResponse, 0, len(passengers))
	for _, p := range passengers {
		response = append(response, PassengerResponse{
			ID:    p.UserID,
			Name:  p.Name,
			Seats: p.Seats,
		})
	}

	respondData(c, http.StatusOK, response)
}
