package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/prashant564/Courses24-API/config"
	"github.com/prashant564/Courses24-API/logging"
	"github.com/prashant564/Courses24-API/repositories"
	"github.com/prashant564/Courses24-API/services"
	"github.com/prashant564/Courses24-API/utils"
	"github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const geocodeCacheTTL = 24 * time.Hour

func loadConfig() (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, err
	}
	logging.InitLogger(logging.Options{
		SystemName: "courses24-api",
		File:       cfg.LogFile,
		Debug:      !cfg.IsProduction(),
	})
	return cfg, nil
}

// connectMongo connects, pings and makes sure the indexes exist.
func connectMongo(ctx context.Context, cfg *config.Config) (*mongo.Client, *mongo.Database, error) {
	connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	client, err := mongo.Connect(connectCtx, options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect to mongo: %w", err)
	}
	if err := client.Ping(connectCtx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ping mongo: %w", err)
	}
	logging.Logger.Infof("Event ID: MONGO_CONNECTED, Description: Connected to MongoDB database %s", cfg.MongoDBName)

	db := client.Database(cfg.MongoDBName)
	if err := repositories.EnsureIndexes(connectCtx, db); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}
	return client, db, nil
}

// newGeocoder returns the Nominatim geocoder, cached in Redis when
// REDIS_URL is set and reachable. The returned close func is never nil.
func newGeocoder(ctx context.Context, cfg *config.Config) (services.Geocoder, func()) {
	var geocoder services.Geocoder = services.NewNominatimGeocoder(
		cfg.GeocoderURL,
		cfg.GeocoderUserAgent,
		cfg.GeocoderCountry,
		utils.NewCircuitBreaker("geocoder", 30*time.Second),
	)
	if cfg.RedisURL == "" {
		return geocoder, func() {}
	}

	opts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		logging.Logger.Warnf("Event ID: REDIS_CONFIG_INVALID, Description: Ignoring REDIS_URL: %v", err)
		return geocoder, func() {}
	}
	client := redis.NewClient(opts)
	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		logging.Logger.Warnf("Event ID: REDIS_UNAVAILABLE, Description: Geocode cache disabled: %v", err)
		_ = client.Close()
		return geocoder, func() {}
	}
	logging.Logger.Infof("Event ID: REDIS_CONNECTED, Description: Geocode results cached in Redis")
	return services.NewCachedGeocoder(geocoder, client, geocodeCacheTTL), func() { _ = client.Close() }
}

func newMailer(cfg *config.Config) utils.Mailer {
	smtp := utils.NewSMTPMailer(utils.SMTPConfig{
		Host:      cfg.SMTPHost,
		Port:      cfg.SMTPPort,
		Username:  cfg.SMTPEmail,
		Password:  cfg.SMTPPassword,
		FromName:  cfg.FromName,
		FromEmail: cfg.FromEmail,
	})
	return utils.NewBreakerMailer(smtp, utils.NewCircuitBreaker("smtp", time.Minute))
}
