package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/gobag/gobag-backend/internal/services"
	"github.com/gobag/gobag-backend/internal/stores"
)

func GetProfile(auth *stores.AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		user, err := auth.GetUser(c.Request.Context(), userID)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, userResponse(user))
	}
}

// UpdateProfile accepts a multipart form with an optional name field
// and an optional profilePicture file, uploaded to S3 or local
// storage.
func UpdateProfile(auth *stores.AuthStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetUint("userId")

		update := stores.ProfileUpdate{
			Name: c.PostForm("name"),
		}

		if file, err := c.FormFile("profilePicture"); err == nil {
			pictureURL, err := services.UploadImage(file, services.FolderProfiles)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Failed to upload profile picture",
					"details": err.Error(),
				})
				return
			}
			update.ProfilePicture = pictureURL
		}

		user, err := auth.UpdateProfile(c.Request.Context(), userID, update)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, userResponse(user))
	}
}
