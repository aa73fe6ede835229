package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "trailkeeper/internal/errors"
	"trailkeeper/internal/models"
	"trailkeeper/internal/services"
)

// ProfileHandler handles profile and account state requests
type ProfileHandler struct {
	userService    services.UserServicer
	profileService services.ProfileServicer
}

// NewProfileHandler creates a new ProfileHandler
func NewProfileHandler(userService services.UserServicer, profileService services.ProfileServicer) *ProfileHandler {
	return &ProfileHandler{userService: userService, profileService: profileService}
}

// ProfileResponse is the authenticated user together with their profile
type ProfileResponse struct {
	User    UserResponse        `json:"user"`
	Profile *models.UserProfile `json:"profile"`
}

// GetProfile returns the user's profile
// @Summary     Get user profile
// @Description Get the authenticated user's account and profile information
// @Tags        profile
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} ProfileResponse "User profile"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [get]
func (h *ProfileHandler) GetProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	user, err := h.userService.GetUserByID(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	profile, err := h.profileService.GetProfile(ctx, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, ProfileResponse{User: newUserResponse(user), Profile: profile})
}

// UpdateProfile applies a partial update to the user's profile
// @Summary     Update user profile
// @Description Update only the provided profile fields. The audit trail records exactly the fields whose value changed.
// @Tags        profile
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body services.ProfilePatch true "Fields to update"
// @Success     200 {object} models.UserProfile "Updated profile"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Profile not found"
// @Failure     409 {object} ErrorResponse "Profile was modified concurrently"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [patch]
func (h *ProfileHandler) UpdateProfile(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var patch services.ProfilePatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	profile, err := h.profileService.UpdateProfile(c.Request.Context(), userID, patch, userID)
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// DeactivateAccount switches off the authenticated user's account
// @Summary     Deactivate account
// @Description Deactivate the authenticated user's account. The account is kept so its audit history stays resolvable.
// @Tags        profile
// @Security    BearerAuth
// @Success     204 "Account deactivated"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /profile [delete]
func (h *ProfileHandler) DeactivateAccount(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	ctx := c.Request.Context()
	if _, err := h.userService.Deactivate(ctx, userID, userID); err != nil {
		respondWithError(c, err)
		return
	}
	if err := h.userService.RevokeRefreshToken(ctx, userID); err != nil {
		respondWithError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// SetUserActive lets an operator deactivate or reactivate an account
// @Summary     Set account state
// @Description Deactivate or reactivate a user account on behalf of an operator
// @Tags        admin
// @Produce     json
// @Security    OperatorKey
// @Param       id     path string true "User ID"
// @Param       action path string true "deactivate or reactivate"
// @Success     200 {object} UserResponse "Updated user"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Invalid API key"
// @Failure     404 {object} ErrorResponse "User not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /admin/users/{id}/{action} [post]
func (h *ProfileHandler) SetUserActive(c *gin.Context) {
	id, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var user *models.User
	switch c.Param("action") {
	case "deactivate":
		user, err = h.userService.Deactivate(c.Request.Context(), id, OperatorActor)
	case "reactivate":
		user, err = h.userService.Reactivate(c.Request.Context(), id, OperatorActor)
	default:
		err = apperrors.WithMessage(apperrors.ErrInvalidInput, "action must be deactivate or reactivate")
	}
	if err != nil {
		respondWithError(c, err)
		return
	}
	c.JSON(http.StatusOK, newUserResponse(user))
}
