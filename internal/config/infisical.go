package config

import (
	"context"
	"log/slog"
	"os"
	"time"

	infisical "github.com/infisical/go-sdk"
)

// loadFromInfisical fills secrets that are still empty after the environment.
func loadFromInfisical(cfg *Config, clientID, clientSecret string) {
	siteURL := envOr("INFISICAL_SITE_URL", "https://app.infisical.com")
	projectID := os.Getenv("INFISICAL_PROJECT_ID")
	envSlug := envOr("INFISICAL_ENV", "prod")

	if projectID == "" {
		slog.Warn("INFISICAL_PROJECT_ID not set, skipping Infisical")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	client := infisical.NewInfisicalClient(ctx, infisical.Config{
		SiteUrl:          siteURL,
		AutoTokenRefresh: false,
	})

	_, err := client.Auth().UniversalAuthLogin(clientID, clientSecret)
	if err != nil {
		slog.Error("infisical auth failed", "error", err)
		return
	}

	for key, target := range secretTargets(cfg) {
		if *target != "" {
			continue // env var already set, skip
		}
		secret, err := client.Secrets().Retrieve(infisical.RetrieveSecretOptions{
			SecretKey:   key,
			Environment: envSlug,
			ProjectID:   projectID,
			SecretPath:  "/",
		})
		if err != nil {
			slog.Warn("failed to retrieve secret from infisical", "key", key, "error", err)
			continue
		}
		*target = secret.SecretValue
		slog.Info("loaded secret from infisical", "key", key)
	}
}

// secretTargets maps secret names to the fields they fill.
func secretTargets(cfg *Config) map[string]*string {
	return map[string]*string{
		"ROOTDATA_API_KEY":    &cfg.Sources.RootData.APIKey,
		"CRYPTOPANIC_API_KEY": &cfg.Sources.CryptoPanic.APIKey,
		"EMAIL_PASSWORD":      &cfg.Email.Password,
		"TELEGRAM_BOT_TOKEN":  &cfg.Telegram.BotToken,
		"REDIS_PASSWORD":      &cfg.Redis.Password,
		"DATABASE_URL":        &cfg.DatabaseURL,
		"API_TOKEN":           &cfg.Server.APIToken,
	}
}
