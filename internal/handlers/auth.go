package handlers

import (
	"github.com/gin-gonic/gin"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/stores"
)

type RegisterInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6"`
	Name     string `json:"name" binding:"required"`
	Role     string `json:"role" binding:"required,oneof=sender traveller"`
}

func Register(auth *stores.AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input RegisterInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user, token, err := auth.Register(c.Request.Context(), stores.RegisterInput{
			Email:    input.Email,
			Password: input.Password,
			Name:     input.Name,
			Role:     models.UserRole(input.Role),
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, gin.H{
			"token": token,
			"user":  userResponse(user),
		})
	}
}

type LoginInput struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

func Login(auth *stores.AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input LoginInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		user, token, err := auth.Login(c.Request.Context(), input.Email, input.Password)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, gin.H{
			"token": token,
			"user":  userResponse(user),
		})
	}
}

// Logout revokes the caller's token. It sits behind the auth
// middleware, so the token on the context is known valid.
func Logout(auth *stores.AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := c.GetString("token")
		if err := auth.Logout(c.Request.Context(), token); err != nil {
			respondError(c, err)
			return
		}
		c.JSON(200, gin.H{"message": "Logged out successfully"})
	}
}
