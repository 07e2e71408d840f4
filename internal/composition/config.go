// Package composition is the dependency-wiring layer behind cmd/iamcore: it
// turns a Config into a fully registered pair of command/query buses plus a
// runnable projection supervisor. Kept separate from cmd/iamcore so the same
// wiring can be exercised from tests without going through cobra.
package composition

import (
	"fmt"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config is the shape handed to Wire. Field names mirror the teacher's own
// pkg/infrastructure.Config, extended with the event-store backend choice
// and the tenant list the projection supervisor runs workers for.
type Config struct {
	Database DatabaseConfig `mapstructure:"database"`
	Events   EventsConfig   `mapstructure:"events"`
	Logging  LoggingConfig  `mapstructure:"logging"`
	Tenants  TenantsConfig  `mapstructure:"tenants"`
	Sessions SessionsConfig `mapstructure:"sessions"`
	Audit    AuditConfig    `mapstructure:"audit"`
}

// AuditConfig controls the BigQuery analytics/audit export projection. It is
// disabled by default — a real deployment turns it on once it has a GCP
// project and dataset to export into.
type AuditConfig struct {
	Enabled   bool   `mapstructure:"enabled"`
	ProjectID string `mapstructure:"project_id"`
	DatasetID string `mapstructure:"dataset_id"`
	TableID   string `mapstructure:"table_id"`
}

// SessionsConfig selects the session read model. "gorm" (default) reads
// from the same SQL database as every other projection; "dynamodb" points
// the hot GetByID/ListByUser path at a DynamoDB table instead, for
// deployments that need lower point-lookup latency than the SQL
// projection table gives them.
type SessionsConfig struct {
	ReadModel       string `mapstructure:"read_model"` // gorm, dynamodb
	DynamoDBTable   string `mapstructure:"dynamodb_table"`
	DynamoDBRegion  string `mapstructure:"dynamodb_region"`
	DynamoDBUserIdx string `mapstructure:"dynamodb_user_index"`
	DynamoDBOrgIdx  string `mapstructure:"dynamodb_org_index"`
}

// DatabaseConfig is the GORM-backed projection store (always SQL; sqlite for
// dev/test, postgres in production via gorm.io/driver/postgres).
type DatabaseConfig struct {
	Driver string `mapstructure:"driver"` // sqlite, postgres
	DSN    string `mapstructure:"dsn"`
}

// EventsConfig selects the event-store backend and, for Postgres, its own
// connection string (kept separate from Database.DSN since the event log and
// the projection tables may live in different clusters in production).
type EventsConfig struct {
	Store       string `mapstructure:"store"` // memory, file, postgres
	FileDir     string `mapstructure:"file_dir"`
	PostgresDSN string `mapstructure:"postgres_dsn"`
}

type LoggingConfig struct {
	Level string `mapstructure:"level"` // debug, info, warn, error
	Dev   bool   `mapstructure:"dev"`   // human-readable console encoding vs JSON
}

// TenantsConfig lists the instance IDs the projection supervisor runs
// workers for. A real deployment would discover these dynamically (e.g. from
// an instances_projection table); a static list is enough for the
// composition root this exercise specifies.
type TenantsConfig struct {
	InstanceIDs []string `mapstructure:"instance_ids"`
}

// LoadConfig layers flags (via the caller's *viper.Viper, already populated
// by cobra's pflag binding) over environment variables, a ".env" file, and
// defaults — in that priority order.
func LoadConfig(v *viper.Viper) (*Config, error) {
	_ = godotenv.Load() // optional; missing .env is not an error

	v.SetConfigName("iamcore")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./configs")

	v.AutomaticEnv()
	v.SetEnvPrefix("IAMCORE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "file:iamcore.db?cache=shared&mode=rwc")

	v.SetDefault("events.store", "memory")
	v.SetDefault("events.file_dir", "./data/events")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.dev", false)

	v.SetDefault("tenants.instance_ids", []string{"default"})

	v.SetDefault("sessions.read_model", "gorm")
	v.SetDefault("sessions.dynamodb_table", "iam_sessions")
	v.SetDefault("sessions.dynamodb_region", "us-east-1")
	v.SetDefault("sessions.dynamodb_user_index", "user-index")
	v.SetDefault("sessions.dynamodb_org_index", "org-index")

	v.SetDefault("audit.enabled", false)
	v.SetDefault("audit.table_id", "iamcore_events")
}

func validate(cfg *Config) error {
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	switch cfg.Events.Store {
	case "memory", "file", "postgres":
	default:
		return fmt.Errorf("unsupported event store backend: %s", cfg.Events.Store)
	}
	if cfg.Events.Store == "postgres" && cfg.Events.PostgresDSN == "" {
		return fmt.Errorf("events.postgres_dsn is required when events.store is postgres")
	}
	if len(cfg.Tenants.InstanceIDs) == 0 {
		return fmt.Errorf("tenants.instance_ids must list at least one instance")
	}
	switch cfg.Sessions.ReadModel {
	case "gorm", "dynamodb":
	default:
		return fmt.Errorf("unsupported sessions read model: %s", cfg.Sessions.ReadModel)
	}
	if cfg.Sessions.ReadModel == "dynamodb" && cfg.Sessions.DynamoDBTable == "" {
		return fmt.Errorf("sessions.dynamodb_table is required when sessions.read_model is dynamodb")
	}
	if cfg.Audit.Enabled && (cfg.Audit.ProjectID == "" || cfg.Audit.DatasetID == "") {
		return fmt.Errorf("audit.project_id and audit.dataset_id are required when audit.enabled is true")
	}
	return nil
}
