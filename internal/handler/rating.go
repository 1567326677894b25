package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rumbo/internal/domain"
	"rumbo/internal/service"
)

// RatingHandler handles HTTP requests for ratings.
type RatingHandler struct {
	ratingService *service.RatingService
}

// NewRatingHandler creates a new RatingHandler.
func NewRatingHandler(ratingService *service.RatingService) *RatingHandler {
	return &RatingHandler{ratingService: ratingService}
}

// SubmitRatingRequest is the HTTP request body for rating a user. The
// target is the :id path parameter.
type SubmitRatingRequest struct {
	TripID   string `json:"tripId"`
	AuthorID string `json:"authorId"`
	Score    int    `json:"score"`
	Comment  string `json:"comment"`
}

// RatingResponse is the HTTP representation of a rating.
type RatingResponse struct {
	ID        string `json:"id"`
	TripID    string `json:"tripId"`
	AuthorID  string `json:"authorId"`
	TargetID  string `json:"targetId"`
	Score     int    `json:"score"`
	Comment   string `json:"comment,omitempty"`
	CreatedAt string `json:"createdAt"`
}

// UserRatingsResponse carries a user's received ratings plus the aggregate.
type UserRatingsResponse struct {
	UserID      string           `json:"userId"`
	RatingCount int              `json:"ratingCount"`
	RatingAvg   float64          `json:"ratingAvg"`
	Ratings     []RatingResponse `json:"ratings"`
}

// PendingRatingResponse is one completed trip with unrated counterparts.
type PendingRatingResponse struct {
	Trip         TripResponse          `json:"trip"`
	Counterparts []CounterpartResponse `json:"counterparts"`
}

// CounterpartResponse identifies a user still to be rated.
type CounterpartResponse struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Submit handles POST /api/users/:id/ratings
func (h *RatingHandler) Submit(c *gin.Context) {
	var req SubmitRatingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	rating, err := h.ratingService.SubmitRating(c.Request.Context(), service.SubmitRatingRequest{
		TripID:   req.TripID,
		AuthorID: req.AuthorID,
		TargetID: c.Param("id"),
		Score:    req.Score,
		Comment:  req.Comment,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toRatingResponse(rating))
}

// ListForUser handles GET /api/users/:id/ratings
func (h *RatingHandler) ListForUser(c *gin.Context) {
	user, ratings, err := h.ratingService.RatingsForUser(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	response := UserRatingsResponse{
		UserID:      user.ID,
		RatingCount: user.RatingCount,
		RatingAvg:   user.RatingAvg,
		Ratings:     make([]RatingResponse, 0, len(ratings)),
	}
	for _, rating := range ratings {
		response.Ratings = append(response.Ratings, toRatingResponse(rating))
	}

	respondData(c, http.StatusOK, response)
}

// Pending handles GET /api/users/:id/ratings/pending?role=driver|passenger
func (h *RatingHandler) Pending(c *gin.Context) {
	pending, err := h.ratingService.PendingRatings(
		c.Request.Context(),
		c.Param("id"),
		service.Role(c.Query("role")),
	)
	if err != nil {
		respondError(c, err)
		return
	}

	response := make([]PendingRatingResponse, 0, len(pending))
	for _, p := range pending {
		entry := PendingRatingResponse{Trip: toTripResponse(p.Trip)}
		for _, cp := range p.Counterparts {
			entry.Counterparts = append(entry.Counterparts, CounterpartResponse{
				ID:   cp.UserID,
				Name: cp.Name,
			})
		}
		response = append(response, entry)
	}

	respondData(c, http.StatusOK, response)
}

func toRatingResponse(rating *domain.Rating) RatingResponse {
	return RatingResponse{
		ID:        rating.ID,
		TripID:    rating.TripID,
		AuthorID:  rating.AuthorID,
		TargetID:  rating.TargetID,
		Score:     rating.Score,
		Comment:   rating.Comment,
		CreatedAt: rating.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
