package controllers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
)

type sponsorshipInput struct {
	Amount            flexibleAmount         `json:"amount"`
	SponsorshipType   models.SponsorshipType `json:"sponsorshipType" binding:"required"`
	InKindDescription string                 `json:"inKindDescription"`
	ContactEmail      string                 `json:"contactEmail"`
	ContactPhone      string                 `json:"contactPhone"`
	CompanyName       string                 `json:"companyName"`
	Message           string                 `json:"message"`
	TermsAccepted     bool                   `json:"termsAccepted"`
}

func (in sponsorshipInput) form() rules.SponsorshipForm {
	return rules.SponsorshipForm{
		Amount:            string(in.Amount),
		SponsorshipType:   in.SponsorshipType,
		InKindDescription: in.InKindDescription,
		ContactEmail:      in.ContactEmail,
		ContactPhone:      in.ContactPhone,
		CompanyName:       in.CompanyName,
		Message:           in.Message,
		TermsAccepted:     in.TermsAccepted,
	}
}

// ---------------- CREATE ----------------
func CreateSponsorship(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		sponsor, ok := account.(models.Sponsor)
		if !ok {
			c.JSON(http.StatusForbidden, gin.H{"error": "only sponsors can sponsor events"})
			return
		}
		eventID, ok := paramID(c, "id", "event")
		if !ok {
			return
		}

		var input sponsorshipInput
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		sp, err := cfg.Sponsorships.Submit(ctx, sponsor, eventID, input.form())
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		c.JSON(http.StatusCreated, gin.H{
			"id":          sp.ID.Hex(),
			"message":     "sponsorship submitted",
			"sponsorship": sp,
		})
	}
}

// ---------------- LIST (sponsor) ----------------
func ListMySponsorships(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		status := models.SponsorshipStatus(c.Query("status"))
		list, err := cfg.Sponsorships.ListForSponsor(ctx, account.UserID(), status)
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		if len(list) == 0 {
			c.JSON(http.StatusOK, list)
			return
		}

		latest := list[0]
		variant := []string{string(status), strconv.Itoa(len(list))}
		for _, sp := range list {
			if sp.UpdatedAt.After(latest.UpdatedAt) {
				latest = sp
			}
			variant = append(variant, sp.ID.Hex(), string(sp.Status))
		}
		if notModified(c, latest.ID, latest.UpdatedAt, variant...) {
			return
		}

		c.JSON(http.StatusOK, list)
	}
}

// ---------------- REPORT (sponsor) ----------------
func SponsorshipReport(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		report, err := cfg.Sponsorships.Report(ctx, account.UserID(), displayCurrency(ctx, c, cfg, account))
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

// ---------------- LIST (organizer) ----------------
func ListEventSponsorships(cfg *config.Config) gin.HandlerFunc {
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

		list, err := cfg.Sponsorships.ListForEvent(ctx, account, eventID, models.SponsorshipStatus(c.Query("status")))
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, list)
	}
}

// ---------------- REVIEW (organizer) ----------------
func ReviewSponsorship(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}
		id, ok := paramID(c, "id", "sponsorship")
		if !ok {
			return
		}

		var input struct {
			Status models.SponsorshipStatus `json:"status" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		sp, err := cfg.Sponsorships.Review(ctx, account, id, input.Status)
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{"message": "sponsorship updated", "sponsorship": sp})
	}
}
