package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	middleware "github.com/phillip/cleanup-sponsorship-go/middleware"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/services"
	"github.com/phillip/cleanup-sponsorship-go/store"
	utils "github.com/phillip/cleanup-sponsorship-go/utils"
)

const storeTimeout = 5 * time.Second

func requestContext(c *gin.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(c.Request.Context(), storeTimeout)
}

func currentAccount(c *gin.Context) (models.Account, bool) {
	account, ok := middleware.AccountFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
	}
	return account, ok
}

func paramID(c *gin.Context, name, what string) (primitive.ObjectID, bool) {
	id, err := primitive.ObjectIDFromHex(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + what + " id"})
		return primitive.NilObjectID, false
	}
	return id, true
}

// displayCurrency picks ?currency=, then the caller's saved preference, then
// the base currency.
func displayCurrency(ctx context.Context, c *gin.Context, cfg *config.Config, account models.Account) string {
	if q := c.Query("currency"); q != "" {
		if _, err := rules.Currencies.Lookup(q); err == nil {
			return rules.Currencies.Resolve(q)
		}
	}
	if account != nil {
		if u, err := cfg.Store.GetUserByID(ctx, account.UserID()); err == nil {
			return rules.Currencies.Resolve(u.Preferences.Currency)
		}
	}
	return rules.Currencies.Base()
}

// notModified sets the ETag and reports whether the client copy is current.
// variant lists whatever besides the document shapes the response body.
func notModified(c *gin.Context, id primitive.ObjectID, updatedAt time.Time, variant ...string) bool {
	etag := utils.GenerateETag(id, updatedAt, variant...)
	if match := c.GetHeader("If-None-Match"); match != "" && match == etag {
		c.Status(http.StatusNotModified)
		return true
	}
	c.Header("ETag", etag)
	c.Header("Last-Modified", updatedAt.UTC().Format(http.TimeFormat))
	return false
}

func respondError(c *gin.Context, cfg *config.Config, err error) {
	if kind, ok := rules.KindOf(err); ok {
		status := http.StatusUnprocessableEntity
		if kind == rules.KindDuplicateSponsorship {
			status = http.StatusConflict
		}
		c.JSON(status, gin.H{"error": err.Error(), "reason": kind})
		return
	}

	switch {
	case errors.Is(err, services.ErrEventNotFound),
		errors.Is(err, services.ErrSponsorshipNotFound),
		errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrForbidden):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrInvalidCheckInToken):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, services.ErrNotEligible),
		errors.Is(err, services.ErrInvalidTransition),
		errors.Is(err, services.ErrRegistrationClosed),
		errors.Is(err, services.ErrEventFull),
		errors.Is(err, services.ErrAlreadyRegistered),
		errors.Is(err, services.ErrAlreadyCheckedIn),
		errors.Is(err, store.ErrDuplicate):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		cfg.Log.Error("request failed",
			slog.String("request_id", middleware.GetRequestID(c)),
			slog.String("path", c.FullPath()),
			slog.String("error", err.Error()),
		)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// flexibleAmount accepts 5000, "5000", "" or null; forms send strings, some
// clients send numbers.
type flexibleAmount string

func (a *flexibleAmount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*a = flexibleAmount(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("amount must be a number or numeric string")
	}
	*a = flexibleAmount(n.String())
	return nil
}
