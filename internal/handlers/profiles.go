package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"conduit/internal/models"
)

type profileResponse struct {
	Profile *models.Profile `json:"profile"`
}

type profileAction func(ctx context.Context, viewer *models.LoggedInUser, username string) (*models.Profile, error)

// getProfile godoc
// @Summary      Get a profile
// @Tags         profiles
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  profileResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/profiles/{username} [get]
func (h *Handler) getProfile(c *gin.Context) {
	h.profile(c, h.services.Profiles.Get)
}

// followUser godoc
// @Summary      Follow a user
// @Tags         profiles
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  profileResponse
// @Failure      401       {object}  errorResponse
// @Failure      404       {object}  errorResponse
// @Router       /api/profiles/{username}/follow [post]
// @Security     TokenAuth
func (h *Handler) followUser(c *gin.Context) {
	h.profile(c, h.services.Profiles.Follow)
}

// unfollowUser godoc
// @Summary      Unfollow a user
// @Tags         profiles
// @Produce      json
// @Param        username  path      string  true  "Username"
// @Success      200       {object}  profileResponse
// @Router       /api/profiles/{username}/follow [delete]
// @Security     TokenAuth
func (h *Handler) unfollowUser(c *gin.Context) {
	h.profile(c, h.services.Profiles.Unfollow)
}

func (h *Handler) profile(c *gin.Context, action profileAction) {
	p, err := action(c.Request.Context(), currentUser(c), c.Param("username"))
	if err != nil {
		h.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, profileResponse{Profile: p})
}
