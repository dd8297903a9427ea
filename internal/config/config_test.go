package config

import (
	"testing"
)

func env(m map[string]string) Getenv {
	return func(key string) string { return m[key] }
}

func validEnv() map[string]string {
	return map[string]string{
		"TELEGRAM_BOT_TOKEN":     "123:abc",
		"AUTHORIZED_USERS":       "100, 200",
		"RECORDS_SPREADSHEET_ID": "sheet-id",
	}
}

func TestLoad(t *testing.T) {
	cfg, err := Load(env(validEnv()))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if len(cfg.AuthorizedUsers) != 2 || cfg.AuthorizedUsers[1] != 200 {
		t.Errorf("AuthorizedUsers = %v", cfg.AuthorizedUsers)
	}
	if cfg.Timezone != "America/Bogota" {
		t.Errorf("default Timezone = %q", cfg.Timezone)
	}
	if len(cfg.ExpenseCategories) != len(DefaultExpenseCategories) {
		t.Errorf("default ExpenseCategories = %v", cfg.ExpenseCategories)
	}
	if !cfg.Authorized(100) || cfg.Authorized(300) {
		t.Error("Authorized membership check wrong")
	}
}

func TestLoadMissingCritical(t *testing.T) {
	for _, key := range []string{"TELEGRAM_BOT_TOKEN", "AUTHORIZED_USERS", "RECORDS_SPREADSHEET_ID"} {
		t.Run(key, func(t *testing.T) {
			m := validEnv()
			delete(m, key)
			if _, err := Load(env(m)); err == nil {
				t.Errorf("Load without %s succeeded", key)
			}
		})
	}
}

func TestLoadBadUserList(t *testing.T) {
	m := validEnv()
	m["AUTHORIZED_USERS"] = "100,abc"
	if _, err := Load(env(m)); err == nil {
		t.Error("Load with non-numeric user id succeeded")
	}
}

func TestLoadBadTimezone(t *testing.T) {
	m := validEnv()
	m["TIMEZONE"] = "Mars/Olympus"
	if _, err := Load(env(m)); err == nil {
		t.Error("Load with unknown timezone succeeded")
	}
}

func TestLoadCategoryOverride(t *testing.T) {
	m := validEnv()
	m["EXPENSE_CATEGORIES"] = "Rent, Food ,"
	cfg, err := Load(env(m))
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(cfg.ExpenseCategories) != 2 || cfg.ExpenseCategories[0] != "Rent" {
		t.Errorf("ExpenseCategories = %v", cfg.ExpenseCategories)
	}
}
