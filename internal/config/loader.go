package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/robfig/cron/v3"
)

// Config captures environment driven configuration values for the swim team
// scheduler service.
type Config struct {
	HTTPPort            int
	SQLiteDSN           string
	WindowDays          int
	HorizonMonths       int
	MaintenanceCron     string
	MaintenanceLeadDays int
}

// Load parses configuration values from the current process environment.
//
// The loader applies defaults for every field and aggregates invalid values
// into a single error so operators see all problems at once.
func Load() (Config, error) {
	cfg := Config{
		HTTPPort:            8080,
		SQLiteDSN:           "file:swimteam.db?_foreign_keys=on",
		WindowDays:          3,
		HorizonMonths:       6,
		MaintenanceCron:     "0 3 * * *",
		MaintenanceLeadDays: 30,
	}

	invalid := make([]string, 0, 2)

	if portValue := strings.TrimSpace(os.Getenv("SWIMTEAM_HTTP_PORT")); portValue != "" {
		port, err := strconv.Atoi(portValue)
		if err != nil || port <= 0 {
			invalid = append(invalid, "SWIMTEAM_HTTP_PORT")
		} else {
			cfg.HTTPPort = port
		}
	}

	if dsn := strings.TrimSpace(os.Getenv("SWIMTEAM_SQLITE_DSN")); dsn != "" {
		cfg.SQLiteDSN = dsn
	}

	if windowValue := strings.TrimSpace(os.Getenv("SWIMTEAM_WINDOW_DAYS")); windowValue != "" {
		window, err := strconv.Atoi(windowValue)
		if err != nil || window < 1 {
			invalid = append(invalid, "SWIMTEAM_WINDOW_DAYS")
		} else {
			cfg.WindowDays = window
		}
	}

	if horizonValue := strings.TrimSpace(os.Getenv("SWIMTEAM_HORIZON_MONTHS")); horizonValue != "" {
		horizon, err := strconv.Atoi(horizonValue)
		if err != nil || horizon < 1 {
			invalid = append(invalid, "SWIMTEAM_HORIZON_MONTHS")
		} else {
			cfg.HorizonMonths = horizon
		}
	}

	if cronValue := strings.TrimSpace(os.Getenv("SWIMTEAM_MAINTENANCE_CRON")); cronValue != "" {
		if _, err := cron.ParseStandard(cronValue); err != nil {
			invalid = append(invalid, "SWIMTEAM_MAINTENANCE_CRON")
		} else {
			cfg.MaintenanceCron = cronValue
		}
	}

	if leadValue := strings.TrimSpace(os.Getenv("SWIMTEAM_MAINTENANCE_LEAD_DAYS")); leadValue != "" {
		lead, err := strconv.Atoi(leadValue)
		if err != nil || lead < 1 {
			invalid = append(invalid, "SWIMTEAM_MAINTENANCE_LEAD_DAYS")
		} else {
			cfg.MaintenanceLeadDays = lead
		}
	}

	if len(invalid) > 0 {
		return Config{}, fmt.Errorf("invalid environment variable values: %s", strings.Join(invalid, ", "))
	}

	return cfg, nil
}
