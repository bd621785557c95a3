package controllers

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	middleware "github.com/phillip/cleanup-sponsorship-go/middleware"
	models "github.com/phillip/cleanup-sponsorship-go/models"
	"github.com/phillip/cleanup-sponsorship-go/rules"
	"github.com/phillip/cleanup-sponsorship-go/store"
)

func tokenResponse(cfg *config.Config, user *models.User) (gin.H, error) {
	token, err := middleware.GenerateToken(cfg.JWTSecret, cfg.JWTTTL, user, cfg.Clock())
	if err != nil {
		return nil, err
	}
	account, err := models.AccountFor(user)
	if err != nil {
		return nil, err
	}
	return gin.H{
		"token":    token,
		"user":     user,
		"homePath": models.HomePath(account),
	}, nil
}

func Register(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Name         string `json:"name" binding:"required"`
			Email        string `json:"email" binding:"required,email"`
			Password     string `json:"password" binding:"required,min=8"`
			Role         string `json:"role" binding:"required"`
			CompanyName  string `json:"companyName"`
			Organization string `json:"organization"`
			Currency     string `json:"currency"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		role := models.Role(strings.ToLower(input.Role))
		if !role.SelfService() {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid role"})
			return
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
		if err != nil {
			respondError(c, cfg, err)
			return
		}

		now := cfg.Clock()
		user := models.User{
			ID:           primitive.NewObjectID(),
			Name:         strings.TrimSpace(input.Name),
			Email:        strings.ToLower(strings.TrimSpace(input.Email)),
			PasswordHash: string(hash),
			Role:         role,
			CompanyName:  input.CompanyName,
			Organization: input.Organization,
			Preferences: models.Preferences{
				Currency:      rules.Currencies.Resolve(input.Currency),
				Notifications: models.DefaultNotificationSettings(),
			},
			CreatedAt: now,
			UpdatedAt: now,
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		if err := cfg.Store.CreateUser(ctx, &user); err != nil {
			if errors.Is(err, store.ErrDuplicate) {
				c.JSON(http.StatusConflict, gin.H{"error": "email already registered"})
				return
			}
			respondError(c, cfg, err)
			return
		}

		resp, err := tokenResponse(cfg, &user)
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		cfg.Log.Info("user registered", slog.String("user_id", user.ID.Hex()), slog.String("role", string(role)))
		c.JSON(http.StatusCreated, resp)
	}
}

func Login(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		var input struct {
			Email    string `json:"email" binding:"required"`
			Password string `json:"password" binding:"required"`
		}
		if err := c.ShouldBindJSON(&input); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		ctx, cancel := requestContext(c)
		defer cancel()

		user, err := cfg.Store.GetUserByEmail(ctx, strings.TrimSpace(input.Email))
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
				return
			}
			respondError(c, cfg, err)
			return
		}
		if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
			return
		}

		resp, err := tokenResponse(cfg, user)
		if err != nil {
			respondError(c, cfg, err)
			return
		}
		c.JSON(http.StatusOK, resp)
	}
}
