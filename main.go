package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	config "github.com/phillip/cleanup-sponsorship-go/config"
	"github.com/phillip/cleanup-sponsorship-go/ratelimit"
	routes "github.com/phillip/cleanup-sponsorship-go/routes"
	"github.com/phillip/cleanup-sponsorship-go/services"
	"github.com/phillip/cleanup-sponsorship-go/store"
	utils "github.com/phillip/cleanup-sponsorship-go/utils"
)

func main() {
	settings, err := config.Load()
	if err != nil {
		slog.Error("config", slog.String("error", err.Error()))
		os.Exit(1)
	}
	log := settings.NewLogger()

	if err := run(settings, log); err != nil {
		log.Error("server stopped", slog.String("error", err.Error()))
		os.Exit(1)
	}
}

func run(settings *config.Settings, log *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(settings.MongoURI))
	if err != nil {
		return err
	}
	defer client.Disconnect(context.Background())
	if err := client.Ping(connectCtx, nil); err != nil {
		return err
	}

	st := store.NewMongo(client, settings.DBName, settings.MongoTransactions)
	if err := st.EnsureIndexes(connectCtx); err != nil {
		return err
	}

	limiter := ratelimit.Disabled()
	if settings.RedisURL != "" {
		limiter, err = ratelimit.Dial(ctx, settings.RedisURL, "cleanup:ratelimit:", settings.SponsorRateLimit, settings.SponsorRateWindow)
		if err != nil {
			return err
		}
	}
	defer limiter.Close()

	mailer := &utils.Mailer{
		APIURL: settings.Email.APIURL,
		APIKey: settings.Email.APIKey,
		From:   settings.Email.From,
		Client: &http.Client{Timeout: 15 * time.Second},
		Log:    log,
	}
	if !mailer.Enabled() {
		log.Warn("email disabled: ZEPTO_API_URL, ZEPTO_API_KEY or EMAIL_FROM missing")
	}

	var assets *utils.AssetCleaner
	if settings.Cloudinary.Enabled() {
		if assets, err = utils.NewAssetCleaner(settings.Cloudinary.CloudName, settings.Cloudinary.APIKey, settings.Cloudinary.APISecret); err != nil {
			return err
		}
	}

	cfg := &config.Config{
		Settings:      *settings,
		Store:         st,
		Sponsorships:  services.NewSponsorships(st, mailer, log, time.Now),
		Registrations: services.NewRegistrations(st, log, time.Now),
		Limiter:       limiter,
		Mailer:        mailer,
		Assets:        assets,
		Log:           log,
		Now:           time.Now,
	}

	gin.SetMode(gin.ReleaseMode)
	srv := &http.Server{
		Addr:              ":" + settings.Port,
		Handler:           routes.NewRouter(cfg),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("listening", slog.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancelShutdown()
	log.Info("shutting down")
	return srv.Shutdown(shutdownCtx)
}
