// Package config loads process configuration from environment variables.
// Values are read once at startup; a .env file, if present, is applied by
// the entrypoint before Load is called.
package config

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Config holds everything the process needs to run.
type Config struct {
	// Telegram
	TelegramToken   string
	AuthorizedUsers []int64

	// Google Sheets record store
	CredentialsFile string
	SpreadsheetID   string

	// Analytics workbook (historical transactions). Optional: when empty
	// the live spreadsheet is used as the analytics source; when set but
	// unreadable, analytics commands are disabled at startup.
	AnalyticsWorkbook string

	// General
	Timezone          string
	ExpenseCategories []string
	LogLevel          string
}

// DefaultExpenseCategories is the fixed category set offered during
// expense entry when EXPENSE_CATEGORIES is not set.
var DefaultExpenseCategories = []string{
	"Utilities",
	"Payroll",
	"Raw materials",
	"Transport",
	"Marketing",
	"Maintenance",
	"Other",
}

// Getenv is the lookup function used by Load; swapped in tests.
type Getenv func(key string) string

// Load builds a Config from the environment and validates the critical
// fields. The analytics workbook is deliberately not required here.
func Load(getenv Getenv) (Config, error) {
	cfg := Config{
		TelegramToken:     getenv("TELEGRAM_BOT_TOKEN"),
		CredentialsFile:   withDefault(getenv("GOOGLE_CREDENTIALS_FILE"), "credentials.json"),
		SpreadsheetID:     getenv("RECORDS_SPREADSHEET_ID"),
		AnalyticsWorkbook: getenv("ANALYTICS_WORKBOOK"),
		Timezone:          withDefault(getenv("TIMEZONE"), "America/Bogota"),
		LogLevel:          withDefault(getenv("LOG_LEVEL"), "info"),
	}

	users, err := parseUserList(getenv("AUTHORIZED_USERS"))
	if err != nil {
		return Config{}, fmt.Errorf("Load: AUTHORIZED_USERS: %w", err)
	}
	cfg.AuthorizedUsers = users

	cfg.ExpenseCategories = parseList(getenv("EXPENSE_CATEGORIES"))
	if len(cfg.ExpenseCategories) == 0 {
		cfg.ExpenseCategories = DefaultExpenseCategories
	}

	if cfg.TelegramToken == "" {
		return Config{}, fmt.Errorf("Load: TELEGRAM_BOT_TOKEN is not set")
	}
	if len(cfg.AuthorizedUsers) == 0 {
		return Config{}, fmt.Errorf("Load: AUTHORIZED_USERS is not set")
	}
	if cfg.SpreadsheetID == "" {
		return Config{}, fmt.Errorf("Load: RECORDS_SPREADSHEET_ID is not set")
	}
	if _, err := time.LoadLocation(cfg.Timezone); err != nil {
		return Config{}, fmt.Errorf("Load: TIMEZONE %q: %w", cfg.Timezone, err)
	}

	return cfg, nil
}

// Location resolves the configured timezone. Load already validated it.
func (c Config) Location() *time.Location {
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

// Authorized reports whether the user ID is on the allow-list.
func (c Config) Authorized(userID int64) bool {
	for _, id := range c.AuthorizedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func parseUserList(raw string) ([]int64, error) {
	var users []int64
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		id, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid user id %q", part)
		}
		users = append(users, id)
	}
	return users, nil
}

func parseList(raw string) []string {
	var items []string
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			items = append(items, part)
		}
	}
	return items
}

func withDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
