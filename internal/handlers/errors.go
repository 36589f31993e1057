package handlers

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/repository"
	"github.com/gobag/gobag-backend/internal/stores"
)

// respondError maps the stores' typed errors onto HTTP statuses. The
// message is the error text itself; internals are never leaked.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, stores.ErrValidation), errors.Is(err, stores.ErrInvalidStatus):
		c.JSON(400, gin.H{"error": err.Error()})
	case errors.Is(err, stores.ErrInvalidCredentials):
		c.JSON(401, gin.H{"error": "Invalid credentials"})
	case errors.Is(err, stores.ErrNotAllowed):
		c.JSON(403, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrUserNotFound),
		errors.Is(err, repository.ErrTripNotFound),
		errors.Is(err, repository.ErrBookingNotFound),
		errors.Is(err, repository.ErrPackageNotFound):
		c.JSON(404, gin.H{"error": err.Error()})
	case errors.Is(err, repository.ErrUserExists),
		errors.Is(err, repository.ErrInsufficientSpace),
		errors.Is(err, stores.ErrInvalidTransition),
		errors.Is(err, stores.ErrTripNotActive):
		c.JSON(409, gin.H{"error": err.Error()})
	default:
		c.JSON(500, gin.H{"error": "Internal server error"})
	}
}

func actorFromContext(c *gin.Context) stores.Actor {
	return stores.Actor{
		ID:   c.GetUint("userId"),
		Role: models.UserRole(c.GetString("userRole")),
	}
}

func userResponse(user *models.User) gin.H {
	return gin.H{
		"id":             user.ID,
		"email":          user.Email,
		"name":           user.Name,
		"role":           user.Role,
		"profilePicture": user.ProfilePicture,
		"active":         user.Active,
		"createdAt":      user.CreatedAt,
	}
}
