package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	models "github.com/phillip/cleanup-sponsorship-go/models"
)

func RegisterForEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		volunteer, ok := account.(models.Volunteer)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "only volunteers can register for events"})
			return
		}
		eventID, ok := paramID(c, "id", "event")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		reg, token, err := cfg.Registrations.Register(ctx, volunteer, eventID)
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"registration": reg,
			"checkInToken": token.String(),
		})
	}
}

func ListRegistrations(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		eventID, ok := paramID(c, "id", "event")
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		regs, err := cfg.Registrations.List(ctx, account, eventID)
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		checkedIn := 0
		for _, r := range regs {
			if r.CheckedIn {
				checkedIn++
			}
		}
		c.JSON(http.StatusOK, gin.H{
			"registrations": regs,
			"total":         len(regs),
			"checkedIn":     checkedIn,
		})
	}
}

func CheckIn(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		eventID, ok := paramID(c, "id", "event")
		if !ok {
			return
		}

		var input struct {
			Token string `json:"token" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		reg, err := cfg.Registrations.CheckIn(ctx, account, eventID, input.Token)
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "checked in", "registration": reg})
	}
}
