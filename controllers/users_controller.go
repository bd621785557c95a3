package controllers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
)

func GetMe(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := cfg.Store.GetUserByID(ctx, account.UserID())
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		if notModified(c, user.ID, user.UpdatedAt) {
			return
		}
		c.JSON(http.StatusOK, gin.H{"user": user, "homePath": models.HomePath(account)})
	}
}

// GetHome is the role gate the app consults after sign-in.
func GetHome(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		c.JSON(http.StatusOK, gin.H{
			"role": account.Role(),
			"path": models.HomePath(account),
		})
	}
}

func UpdatePreferences(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		var input struct {
			Currency      *string `json:"currency"`
			Notifications *struct {
				EventReminders     *bool `json:"eventReminders"`
				SponsorshipUpdates *bool `json:"sponsorshipUpdates"`
				NewEvents          *bool `json:"newEvents"`
				CheckInAlerts      *bool `json:"checkInAlerts"`
			} `json:"notifications"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if input.Currency == nil && input.Notifications == nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := cfg.Store.GetUserByID(ctx, account.UserID())
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		prefs := user.Preferences
		if input.Currency != nil {
			cur, err := rules.Currencies.Lookup(*input.Currency)
			if err != nil {
				c.JSON(http.StatusBadRequest, gin.H{
					"error":     "unsupported currency",
					"supported": rules.Currencies.Codes(),
				})
				return
			}
			prefs.Currency = cur.Code()
		}
		if n := input.Notifications; n != nil {
			set := func(dst *bool, v *bool) {
				if v != nil {
					*dst = *v
				}
			}
			set(&prefs.Notifications.EventReminders, n.EventReminders)
			set(&prefs.Notifications.SponsorshipUpdates, n.SponsorshipUpdates)
			set(&prefs.Notifications.NewEvents, n.NewEvents)
			set(&prefs.Notifications.CheckInAlerts, n.CheckInAlerts)
		}

		if err := cfg.Store.UpdatePreferences(ctx, user.ID, prefs, cfg.Clock()); err != nil {
			respondError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"message": "preferences updated", "preferences": prefs})
	}
}
