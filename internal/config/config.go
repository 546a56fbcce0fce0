package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
)

type AppConfig struct {
	IrisBaseURL string
	IrisWSURL   string

	BotPrefix string

	RedisURL    string
	DatabaseURL string

	AllowedRooms []string

	// OwnerUser and AdminUsers are chat user ids with elevated commands.
	OwnerUser  string
	AdminUsers []string

	// ReportTTLSec is the idle timeout of a report dialogue.
	ReportTTLSec int
	// TopLimit is the default leaderboard page size.
	TopLimit int
}

func Load() (*AppConfig, error) {
	cfg := &AppConfig{
		ReportTTLSec: 120,
		TopLimit:     10,
	}

	cfg.IrisBaseURL = strings.TrimSpace(os.Getenv("IRIS_BASE_URL"))
	cfg.IrisWSURL = strings.TrimSpace(os.Getenv("IRIS_WS_URL"))
	cfg.BotPrefix = strings.TrimSpace(os.Getenv("BOT_PREFIX"))

	cfg.RedisURL = strings.TrimSpace(os.Getenv("REDIS_URL"))
	cfg.DatabaseURL = strings.TrimSpace(os.Getenv("DATABASE_URL"))

	cfg.AllowedRooms = splitList(os.Getenv("ALLOWED_ROOMS"))
	cfg.OwnerUser = strings.TrimSpace(os.Getenv("OWNER_USER"))
	cfg.AdminUsers = splitList(os.Getenv("ADMIN_USERS"))

	if v := strings.TrimSpace(os.Getenv("REPORT_TTL_SEC")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.ReportTTLSec = n
		}
	}
	if v := strings.TrimSpace(os.Getenv("TOP_LIMIT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			cfg.TopLimit = n
		}
	}

	if cfg.IrisBaseURL == "" {
		return nil, errors.New("IRIS_BASE_URL is required")
	}
	if cfg.IrisWSURL == "" {
		return nil, errors.New("IRIS_WS_URL is required")
	}
	if cfg.BotPrefix == "" {
		return nil, errors.New("BOT_PREFIX is required")
	}
	if cfg.RedisURL == "" {
		return nil, errors.New("REDIS_URL is required")
	}
	if cfg.DatabaseURL == "" {
		return nil, errors.New("DATABASE_URL is required")
	}

	return cfg, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}
