package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/gobag/gobag-backend/internal/models"
	"github.com/gobag/gobag-backend/internal/services"
	"github.com/gobag/gobag-backend/internal/stores"
)

type CreatePackageInput struct {
	DepartureCity       string    `form:"departureCity" binding:"required"`
	DepartureCountry    string    `form:"departureCountry" binding:"required"`
	DestinationCity     string    `form:"destinationCity" binding:"required"`
	DestinationCountry  string    `form:"destinationCountry" binding:"required"`
	DeliveryDate        time.Time `form:"deliveryDate" binding:"required" time_format:"2006-01-02"`
	Size                string    `form:"size" binding:"required,oneof=small medium large"`
	Weight              float64   `form:"weight" binding:"required,gt=0"`
	Description         string    `form:"description" binding:"required"`
	Budget              float64   `form:"budget" binding:"required,gt=0"`
	Currency            string    `form:"currency"`
	SpecialInstructions string    `form:"specialInstructions"`
}

// CreatePackage accepts a multipart form so the sender can attach an
// optional photo of the package.
func CreatePackage(packages *stores.PackageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input CreatePackageInput
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		var photoURL string
		if file, err := c.FormFile("photo"); err == nil {
			photoURL, err = services.UploadImage(file, services.FolderPackages)
			if err != nil {
				c.JSON(http.StatusInternalServerError, gin.H{
					"error":   "Failed to upload photo",
					"details": err.Error(),
				})
				return
			}
		}

		pkg, err := packages.CreatePackage(c.Request.Context(), c.GetUint("userId"), stores.CreatePackageInput{
			DepartureCity:       input.DepartureCity,
			DepartureCountry:    input.DepartureCountry,
			DestinationCity:     input.DestinationCity,
			DestinationCountry:  input.DestinationCountry,
			DeliveryDate:        input.DeliveryDate,
			Size:                models.PackageSize(input.Size),
			Weight:              input.Weight,
			Description:         input.Description,
			Budget:              input.Budget,
			Currency:            input.Currency,
			SpecialInstructions: input.SpecialInstructions,
			PhotoURL:            photoURL,
		})
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(201, pkg)
	}
}

// GetPackages lists shipping requests for travellers to browse,
// optionally filtered by status.
func GetPackages(packages *stores.PackageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		status := models.PackageStatus(c.Query("status"))

		result, err := packages.ListPackages(c.Request.Context(), status)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, result)
	}
}

// GetSenderPackages lists the caller's own shipping requests
func GetSenderPackages(packages *stores.PackageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		result, err := packages.ListSenderPackages(c.Request.Context(), c.GetUint("userId"))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, result)
	}
}

func GetPackage(packages *stores.PackageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid package ID"})
			return
		}

		pkg, err := packages.GetPackage(c.Request.Context(), id)
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, pkg)
	}
}

type UpdatePackageStatusInput struct {
	Status string `json:"status" binding:"required,oneof=pending accepted in_transit delivered cancelled"`
}

func UpdatePackageStatus(packages *stores.PackageStore) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := parseID(c.Param("id"))
		if err != nil {
			c.JSON(400, gin.H{"error": "Invalid package ID"})
			return
		}

		var input UpdatePackageStatusInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(400, gin.H{"error": err.Error()})
			return
		}

		pkg, err := packages.UpdatePackageStatus(c.Request.Context(), id,
			actorFromContext(c), models.PackageStatus(input.Status))
		if err != nil {
			respondError(c, err)
			return
		}

		c.JSON(200, pkg)
	}
}
