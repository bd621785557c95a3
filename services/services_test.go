package services

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"

	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

var fixedNow = time.Date(2025, 6, 10, 12, 0, 0, 0, time.UTC)

func clock() time.Time { return fixedNow }

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func account[T models.Account](t *testing.T, role models.Role) T {
	t.Helper()
	a, err := models.NewAccount(primitive.NewObjectID(), role)
	require.NoError(t, err)
	v, ok := a.(T)
	require.True(t, ok)
	return v
}

func seedEvent(t *testing.T, st *store.Memory, organizer primitive.ObjectID, mutate func(*models.Event)) *models.Event {
	t.Helper()
	ev := &models.Event{
		OrganizerID:         organizer,
		Title:               "Juhu beach clean-up",
		Status:              string(models.EventUpcoming),
		EventAt:             fixedNow.Add(72 * time.Hour),
		SponsorshipRequired: true,
		FundingGoal:         10000,
		CreatedAt:           fixedNow,
		UpdatedAt:           fixedNow,
	}
	if mutate != nil {
		mutate(ev)
	}
	require.NoError(t, st.CreateEvent(context.Background(), ev))
	return ev
}

func financialForm(amount string) rules.SponsorshipForm {
	return rules.SponsorshipForm{
		Amount:          amount,
		SponsorshipType: models.SponsorshipFinancial,
		ContactEmail:    "csr@greenco.example",
		ContactPhone:    "+919876543210",
		TermsAccepted:   true,
	}
}
