package controllers

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

func parseEventAt(raw *string) (*time.Time, bool) {
	if raw == nil || strings.TrimSpace(*raw) == "" {
		return nil, true
	}
	t, ok := rules.ToDate(*raw)
	if !ok {
		return nil, false
	}
	return &t, true
}

func validEventStatus(s models.EventStatus) bool {
	switch s {
	case models.EventUpcoming, models.EventOngoing, models.EventCompleted, models.EventCancelled:
		return true
	}
	return false
}

// ---------------- CREATE ----------------
func CreateEvent(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		var input struct {
			Title               string   `form:"title" json:"title" binding:"required"`
			Description         string   `form:"description" json:"description"`
			Location            string   `form:"location" json:"location"`
			EventAt             *string  `form:"eventAt" json:"eventAt"` // string for binding, convert later
			SponsorshipRequired bool     `form:"sponsorshipRequired" json:"sponsorshipRequired"`
			FundingGoal         float64  `form:"fundingGoal" json:"fundingGoal" binding:"gte=0"`
			MaxVolunteers       int      `form:"maxVolunteers" json:"maxVolunteers" binding:"gte=0"`
			Images              []string `form:"images" json:"images"` // already hosted on Cloudinary
		}
		if err := c.ShouldBind(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		eventAt, ok := parseEventAt(input.EventAt)
		if !ok {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid eventAt format, use RFC3339 or YYYY-MM-DD"})
			return
		}

		now := cfg.Clock()
		event := models.Event{
			ID:                  primitive.NewObjectID(),
			OrganizerID:         account.UserID(),
			Title:               strings.TrimSpace(input.Title),
			Description:         input.Description,
			Location:            input.Location,
			Status:              string(models.EventUpcoming),
			SponsorshipRequired: input.SponsorshipRequired,
			FundingGoal:         input.FundingGoal,
			MaxVolunteers:       input.MaxVolunteers,
			Images:              input.Images,
			CreatedAt:           now,
			UpdatedAt:           now,
		}
		if eventAt != nil {
			event.EventAt = *eventAt
		}
		if event.Images == nil {
			event.Images = []string{}
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := cfg.Store.CreateEvent(ctx, &event); err != nil {
			respondError(c, cfg, err)
			return
		}

		cfg.Log.Info("event created",
			slog.String("event_id", event.ID.Hex()),
			slog.String("organizer_id", account.UserID().Hex()),
		)
		c.JSON(http.StatusCreated, newEventView(event, now, displayCurrency(ctx, c, cfg, account)))
	}
}

// ---------------- LIST ----------------
func ListEvents(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := currentAccount(c)
		if !ok {
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		// --- Build filter ---
		filter := store.EventFilter{Query: strings.TrimSpace(c.Query("q"))}
		if c.Query("mine") == "true" {
			id := account.UserID()
			filter.OrganizerID = &id
		}
		sponsorable := c.Query("sponsorable") == "true"
		if sponsorable {
			required := true
			filter.SponsorshipRequired = &required
		}
		wantStatus := models.EventStatus(strings.ToLower(c.Query("status")))
		if wantStatus != "" && !validEventStatus(wantStatus) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status filter"})
			return
		}

		// --- Fetch data ---
		events, err := cfg.Store.ListEvents(ctx, filter)
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		now := cfg.Clock()
		currency := displayCurrency(ctx, c, cfg, account)
		views := []eventView{}
		for _, ev := range events {
			v := newEventView(ev, now, currency)
			if wantStatus != "" && v.DerivedStatus != wantStatus {
				continue
			}
			if sponsorable && !v.CanSponsor {
				continue
			}
			views = append(views, v)
		}

		if len(views) == 0 {
			c.JSON(http.StatusOK, views)
			return
		}

		// --- ETag from the most recently updated event and the whole page ---
		latest := views[0].Event
		for _, v := range views {
			if v.UpdatedAt.After(latest.UpdatedAt) {
				latest = v.Event
			}
		}
		filters := []string{filter.Query, c.Query("mine"), strconv.FormatBool(sponsorable), string(wantStatus)}
		if notModified(c, latest.ID, latest.UpdatedAt, listETagVariant(filters, views)...) {
			return
		}

		c.JSON(http.StatusOK, views)
	}
}

// ---------------- GET ----------------
func GetEvent(cfg *config.Config) gin.HandlerFunc {
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

		event, err := cfg.Store.GetEvent(ctx, eventID)
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		view := newEventView(*event, cfg.Clock(), displayCurrency(ctx, c, cfg, account))
		if notModified(c, event.ID, event.UpdatedAt, view.etagVariant()...) {
			return
		}
		c.JSON(http.StatusOK, view)
	}
}

// ---------------- UPDATE ----------------
func UpdateEvent(cfg *config.Config) gin.HandlerFunc {
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

		existing, err := cfg.Store.GetEvent(ctx, eventID)
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		if !models.Owns(account, existing.OrganizerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied"})
			return
		}

		var input struct {
			Title               *string   `json:"title"`
			Description         *string   `json:"description"`
			Location            *string   `json:"location"`
			EventAt             *string   `json:"eventAt"`
			Status              *string   `json:"status"`
			SponsorshipRequired *bool     `json:"sponsorshipRequired"`
			FundingGoal         *float64  `json:"fundingGoal"`
			MaxVolunteers       *int      `json:"maxVolunteers"`
			Images              *[]string `json:"images"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		patch := models.EventPatch{
			Title:               input.Title,
			Description:         input.Description,
			Location:            input.Location,
			SponsorshipRequired: input.SponsorshipRequired,
			FundingGoal:         input.FundingGoal,
			MaxVolunteers:       input.MaxVolunteers,
			Images:              input.Images,
		}
		if input.Title != nil && strings.TrimSpace(*input.Title) == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "title cannot be empty"})
			return
		}
		if input.FundingGoal != nil && *input.FundingGoal < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "fundingGoal cannot be negative"})
			return
		}
		if input.MaxVolunteers != nil && *input.MaxVolunteers < 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "maxVolunteers cannot be negative"})
			return
		}
		if input.Status != nil {
			status := models.EventStatus(strings.ToLower(*input.Status))
			if !validEventStatus(status) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid status"})
				return
			}
			patch.Status = &status
		}
		if input.EventAt != nil {
			eventAt, ok := parseEventAt(input.EventAt)
			if !ok || eventAt == nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid eventAt format, use RFC3339 or YYYY-MM-DD"})
				return
			}
			patch.EventAt = eventAt
		}

		// ❗ Reject empty update
		if patch.Empty() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "no fields to update"})
			return
		}

		updated, err := cfg.Store.UpdateEvent(ctx, eventID, patch, cfg.Clock())
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "Event updated successfully",
			"event":   newEventView(*updated, cfg.Clock(), displayCurrency(ctx, c, cfg, account)),
		})
	}
}

// ---------------- DELETE ----------------
func DeleteEvent(cfg *config.Config) gin.HandlerFunc {
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

		existing, err := cfg.Store.GetEvent(ctx, eventID)
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		if !models.Owns(account, existing.OrganizerID) {
			c.JSON(http.StatusForbidden, gin.H{"error": "access denied"})
			return
		}
		if existing.SponsorCount > 0 {
			c.JSON(http.StatusConflict, gin.H{"error": "event has sponsorships; cancel it instead"})
			return
		}

		if err := cfg.Store.DeleteEvent(ctx, eventID); err != nil {
			respondError(c, cfg, err)
			return
		}

		if cfg.Assets != nil {
			for _, img := range existing.Images {
				if err := cfg.Assets.Delete(c.Request.Context(), img); err != nil {
					cfg.Log.Warn("image cleanup failed",
						slog.String("event_id", eventID.Hex()),
						slog.String("image", img),
						slog.String("error", err.Error()),
					)
				}
			}
		}

		c.JSON(http.StatusOK, gin.H{
			"message": "event deleted successfully",
			"id":      eventID.Hex(),
		})
	}
}
