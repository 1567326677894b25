package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"rumbo/internal/domain"
	"rumbo/internal/service"
)

// UserHandler handles HTTP requests for users.
type UserHandler struct {
	userService *service.UserService
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(userService *service.UserService) *UserHandler {
	return &UserHandler{userService: userService}
}

// RegisterRequest is the HTTP request body for registration.
type RegisterRequest struct {
	FullName       string `json:"fullName"`
	Email          string `json:"email"`
	Phone          string `json:"phone"`
	DNI            string `json:"dni"`
	Password       string `json:"password"`
	Vehicle        string `json:"vehicle"`
	VehicleDetails string `json:"vehicleDetails"`
}

// LoginRequest is the HTTP request body for login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// UpdateProfileRequest is the HTTP request body for profile edits.
// Omitted fields are left untouched.
type UpdateProfileRequest struct {
	Phone          *string `json:"phone"`
	About          *string `json:"about"`
	Vehicle        *string `json:"vehicle"`
	VehicleDetails *string `json:"vehicleDetails"`
}

// UserResponse is the public HTTP representation of a user. The
// password hash never leaves the service.
type UserResponse struct {
	ID             string  `json:"id"`
	FullName       string  `json:"fullName"`
	Email          string  `json:"email"`
	Phone          string  `json:"phone,omitempty"`
	DNI            string  `json:"dni,omitempty"`
	About          string  `json:"about,omitempty"`
	Vehicle        string  `json:"vehicle,omitempty"`
	VehicleDetails string  `json:"vehicleDetails,omitempty"`
	RatingCount    int     `json:"ratingCount"`
	RatingAvg      float64 `json:"ratingAvg"`
}

// Register handles POST /api/users/register
func (h *UserHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.Register(c.Request.Context(), service.RegisterRequest{
		FullName:       req.FullName,
		Email:          req.Email,
		Phone:          req.Phone,
		DNI:            req.DNI,
		Password:       req.Password,
		Vehicle:        req.Vehicle,
		VehicleDetails: req.VehicleDetails,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusCreated, toUserResponse(user))
}

// Login handles POST /api/users/login
func (h *UserHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.Login(c.Request.Context(), req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toUserResponse(user))
}

// Get handles GET /api/users/:id
func (h *UserHandler) Get(c *gin.Context) {
	user, err := h.userService.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toUserResponse(user))
}

// UpdateProfile handles PUT /api/users/:id
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	var req UpdateProfileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, "invalid request body")
		return
	}

	user, err := h.userService.UpdateProfile(c.Request.Context(), c.Param("id"), service.UpdateProfileRequest{
		Phone:          req.Phone,
		About:          req.About,
		Vehicle:        req.Vehicle,
		VehicleDetails: req.VehicleDetails,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	respondData(c, http.StatusOK, toUserResponse(user))
}

func toUserResponse(user *domain.User) UserResponse {
	return UserResponse{
		ID:             user.ID,
		FullName:       user.FullName,
		Email:          user.Email,
		Phone:          user.Phone,
		DNI:            user.DNI,
		About:          user.About,
		Vehicle:        user.Vehicle,
		VehicleDetails: user.VehicleDetails,
		RatingCount:    user.RatingCount,
		RatingAvg:      user.RatingAvg,
	}
}
