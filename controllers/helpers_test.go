package controllers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/services"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

func TestFlexibleAmount(t *testing.T) {
	cases := map[string]string{
		`{"amount": 5000}`:    "5000",
		`{"amount": 12.5}`:    "12.5",
		`{"amount": "1,000"}`: "1,000",
		`{"amount": ""}`:      "",
		`{"amount": null}`:    "",
		`{}`:                  "",
	}
	for in, want := range cases {
		var v sponsorshipInput
		require.NoError(t, json.Unmarshal([]byte(in), &v), in)
		assert.Equal(t, want, string(v.Amount), in)
	}

	var v sponsorshipInput
	assert.Error(t, json.Unmarshal([]byte(`{"amount": true}`), &v))
}

func TestRespondError(t *testing.T) {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{Log: slog.New(slog.NewTextHandler(io.Discard, nil))}

	cases := []struct {
		err  error
		want int
	}{
		{&rules.ValidationError{Kind: rules.KindInvalidPhone}, http.StatusUnprocessableEntity},
		{fmt.Errorf("wrapped: %w", rules.ErrDuplicateSponsorship), http.StatusConflict},
		{services.ErrEventNotFound, http.StatusNotFound},
		{store.ErrNotFound, http.StatusNotFound},
		{services.ErrForbidden, http.StatusForbidden},
		{services.ErrInvalidCheckInToken, http.StatusBadRequest},
		{services.ErrNotEligible, http.StatusConflict},
		{fmt.Errorf("%w: pending to completed", services.ErrInvalidTransition), http.StatusConflict},
		{services.ErrEventFull, http.StatusConflict},
		{errors.New("mongo exploded"), http.StatusInternalServerError},
	}
	for _, tc := range cases {
		w := httptest.NewRecorder()
		c, _ := gin.CreateTestContext(w)
		c.Request = httptest.NewRequest(http.MethodGet, "/", nil)

		respondError(c, cfg, tc.err)
		assert.Equal(t, tc.want, w.Code, tc.err.Error())
	}
}
