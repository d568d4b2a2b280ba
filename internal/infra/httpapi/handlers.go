// internal/infra/httpapi/handlers.go
package httpapi

import (
	"errors"
	"net/http"
	"time"

	"birthday_notification_service/internal/app"
	"birthday_notification_service/internal/domain/user"
	idb "birthday_notification_service/internal/infra/database"

	"github.com/gin-gonic/gin"
)

// Handler wires the user-management HTTP routes to the user service.
type Handler struct {
	users     *app.UserService
	startedAt time.Time
}

func NewHandler(users *app.UserService) *Handler {
	return &Handler{
		users:     users,
		startedAt: time.Now(),
	}
}

func (h *Handler) RegisterRoutes(router *gin.Engine) {
	router.POST("/user", h.createUser)
	router.GET("/user", h.listUsers)
	router.GET("/user/:id", h.getUser)
	router.PUT("/user/:id", h.updateUser)
	router.DELETE("/user/:id", h.deleteUser)

	router.GET("/health", h.health)
}

type createUserRequest struct {
	FirstName string `json:"firstName" binding:"required"`
	LastName  string `json:"lastName" binding:"required"`
	BirthDate string `json:"birthDate" binding:"required"`
	Timezone  string `json:"timezone" binding:"required"`
}

type updateUserRequest struct {
	FirstName *string `json:"firstName"`
	LastName  *string `json:"lastName"`
	BirthDate *string `json:"birthDate"`
	Timezone  *string `json:"timezone"`
}

type userResponse struct {
	ID        string    `json:"id"`
	FirstName string    `json:"firstName"`
	LastName  string    `json:"lastName"`
	BirthDate string    `json:"birthDate"`
	Timezone  string    `json:"timezone"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

func toUserResponse(u *user.User) userResponse {
	return userResponse{
		ID:        u.ID,
		FirstName: u.FirstName,
		LastName:  u.LastName,
		BirthDate: u.BirthDate.Format("2006-01-02"),
		Timezone:  u.Timezone,
		CreatedAt: u.CreatedAt,
		UpdatedAt: u.UpdatedAt,
	}
}

func (h *Handler) createUser(c *gin.Context) {
	var req createUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	u, err := h.users.Create(c.Request.Context(), app.CreateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.writeUserError(c, err)
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"message": "User created successfully",
		"user":    toUserResponse(u),
	})
}

func (h *Handler) updateUser(c *gin.Context) {
	var req updateUserRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Validation failed", "details": err.Error()})
		return
	}

	u, err := h.users.Update(c.Request.Context(), c.Param("id"), app.UpdateUserInput{
		FirstName: req.FirstName,
		LastName:  req.LastName,
		BirthDate: req.BirthDate,
		Timezone:  req.Timezone,
	})
	if err != nil {
		h.writeUserError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"message": "User updated successfully",
		"user":    toUserResponse(u),
	})
}

func (h *Handler) deleteUser(c *gin.Context) {
	if err := h.users.Delete(c.Request.Context(), c.Param("id")); err != nil {
		h.writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "User deleted successfully"})
}

func (h *Handler) getUser(c *gin.Context) {
	u, err := h.users.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	c.JSON(http.StatusOK, toUserResponse(u))
}

func (h *Handler) listUsers(c *gin.Context) {
	users, err := h.users.List(c.Request.Context())
	if err != nil {
		h.writeUserError(c, err)
		return
	}
	out := make([]userResponse, 0, len(users))
	for _, u := range users {
		out = append(out, toUserResponse(u))
	}
	c.JSON(http.StatusOK, gin.H{"users": out})
}

func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":    "OK",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
		"uptime":    time.Since(h.startedAt).Seconds(),
	})
}

func (h *Handler) writeUserError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, idb.ErrUserNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "User not found"})
	case errors.Is(err, app.ErrInvalidTimezone), errors.Is(err, app.ErrInvalidBirthDate):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
	}
}
