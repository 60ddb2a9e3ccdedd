package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"conduit/internal/models"
	"conduit/internal/service"
)

type registerRequest struct {
	User *struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user" binding:"required"`
}

type loginRequest struct {
	User *struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	} `json:"user" binding:"required"`
}

type updateUserRequest struct {
	User *struct {
		Username *string `json:"username"`
		Email    *string `json:"email"`
		Password *string `json:"password"`
		Bio      *string `json:"bio"`
		Image    *string `json:"image"`
	} `json:"user" binding:"required"`
}

type userResponse struct {
	User *models.LoggedInUser `json:"user"`
}

// register godoc
// @Summary      Register a new user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      registerRequest  true  "New user"
// @Success      201   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/users [post]
func (h *Handler) register(c *gin.Context) {
	var input registerRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, err := h.services.Users.Register(c.Request.Context(), service.Registration{
		Username: input.User.Username,
		Email:    input.User.Email,
		Password: input.User.Password,
	})
	if err != nil {
		h.log.Infow("auth_register_failed", "username", input.User.Username, "err", err)
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusCreated, userResponse{User: user})
}

// login godoc
// @Summary      Log in with email and password
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  userResponse
// @Failure      400   {object}  errorResponse
// @Failure      401   {object}  errorResponse
// @Failure      503   {object}  errorResponse
// @Router       /api/users/login [post]
func (h *Handler) login(c *gin.Context) {
	var input loginRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, err := h.services.Users.Login(c.Request.Context(), input.User.Email, input.User.Password)
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{User: user})
}

// getCurrentUser godoc
// @Summary      Current user
// @Tags         users
// @Produce      json
// @Success      200  {object}  userResponse
// @Failure      401  {object}  errorResponse
// @Router       /api/user [get]
// @Security     TokenAuth
func (h *Handler) getCurrentUser(c *gin.Context) {
	c.JSON(http.StatusOK, userResponse{User: currentUser(c)})
}

// updateCurrentUser godoc
// @Summary      Update current user
// @Tags         users
// @Accept       json
// @Produce      json
// @Param        body  body      updateUserRequest  true  "Fields to change"
// @Success      200   {object}  userResponse
// @Failure      401   {object}  errorResponse
// @Failure      409   {object}  errorResponse
// @Failure      422   {object}  errorResponse
// @Router       /api/user [put]
// @Security     TokenAuth
func (h *Handler) updateCurrentUser(c *gin.Context) {
	var input updateUserRequest
	if ok := h.bindJSONOrBadRequest(c, &input); !ok {
		return
	}

	user, err := h.services.Users.Update(c.Request.Context(), currentUser(c), models.UserUpdate{
		Username: input.User.Username,
		Email:    input.User.Email,
		Password: input.User.Password,
		Bio:      input.User.Bio,
		Image:    input.User.Image,
	})
	if err != nil {
		h.writeError(c, err)
		return
	}

	c.JSON(http.StatusOK, userResponse{User: user})
}
