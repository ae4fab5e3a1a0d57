// Package config binds command-line flags, ECOMDB_* environment variables
// and an optional YAML file into the settings shared by the commands.
package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

const (
	EnvPrefix = "ECOMDB"

	KeyHost          = "host"
	KeyPort          = "port"
	KeyUser          = "user"
	KeyPassword      = "password" //nolint:gosec
	KeyAdminDatabase = "admin-db"
	KeyDatabase      = "db"
	KeySSLMode       = "sslmode"
	KeyRecords       = "records"
	KeySeed          = "seed"
	KeyLogLevel      = "log-level"
	KeyLogJSON       = "log-json"
	KeyMetricsFile   = "metrics-file"
	KeyMongoURI      = "mongo-uri"
	KeyMongoDatabase = "mongo-db"
	KeyCollection    = "collection"

	DefaultHost          = "localhost"
	DefaultPort          = 5432
	DefaultUser          = "postgres"
	DefaultAdminDatabase = "postgres"
	DefaultDatabase      = "finalproject"
	DefaultSSLMode       = "disable"
	DefaultRecords       = 100
	DefaultMongoURI      = "mongodb://localhost:27017"
	DefaultMongoDatabase = "EcommerceDB"
	DefaultCollection    = "Customers"
)

// Postgres holds everything needed to reach the relational engine.
type Postgres struct {
	Host          string
	Port          int
	User          string
	Password      string
	AdminDatabase string
	Database      string
	SSLMode       string
}

type Mongo struct {
	URI        string
	Database   string
	Collection string
}

type Config struct {
	Postgres    Postgres
	Mongo       Mongo
	Records     int
	Seed        uint64
	LogLevel    string
	LogJSON     bool
	MetricsFile string
}

// BindPostgresFlags registers the connection flags on cmd and binds them to v.
func BindPostgresFlags(cmd *cobra.Command, v *viper.Viper) error {
	f := cmd.PersistentFlags()
	f.String(KeyHost, DefaultHost, "PostgreSQL host")
	f.Int(KeyPort, DefaultPort, "PostgreSQL port")
	f.String(KeyUser, DefaultUser, "PostgreSQL user")
	f.String(KeyPassword, "", "PostgreSQL password (prefer "+EnvPrefix+"_PASSWORD)")
	f.String(KeyAdminDatabase, DefaultAdminDatabase, "Administrative database used to drop and create the target")
	f.String(KeyDatabase, DefaultDatabase, "Target database name")
	f.String(KeySSLMode, DefaultSSLMode, "PostgreSQL sslmode")
	return bind(cmd, v, KeyHost, KeyPort, KeyUser, KeyPassword, KeyAdminDatabase, KeyDatabase, KeySSLMode)
}

// BindMongoFlags registers the document store flags on cmd and binds them to v.
func BindMongoFlags(cmd *cobra.Command, v *viper.Viper) error {
	f := cmd.PersistentFlags()
	f.String(KeyMongoURI, DefaultMongoURI, "MongoDB connection URI")
	f.String(KeyMongoDatabase, DefaultMongoDatabase, "MongoDB database name")
	f.String(KeyCollection, DefaultCollection, "MongoDB collection name")
	return bind(cmd, v, KeyMongoURI, KeyMongoDatabase, KeyCollection)
}

// BindCommonFlags registers logging, seeding and metrics flags.
func BindCommonFlags(cmd *cobra.Command, v *viper.Viper) error {
	f := cmd.PersistentFlags()
	f.Int(KeyRecords, DefaultRecords, "Number of synthetic records to generate")
	f.Uint64(KeySeed, 0, "Seed for the synthetic data generator (0 picks a random seed)")
	f.String(KeyLogLevel, "info", "Log level: debug, info, warn, error")
	f.Bool(KeyLogJSON, false, "Emit JSON logs instead of console logs")
	f.String(KeyMetricsFile, "", "Write run metrics in Prometheus text format to this file")
	return bind(cmd, v, KeyRecords, KeySeed, KeyLogLevel, KeyLogJSON, KeyMetricsFile)
}

func bind(cmd *cobra.Command, v *viper.Viper, keys ...string) error {
	for _, k := range keys {
		if err := v.BindPFlag(k, cmd.PersistentFlags().Lookup(k)); err != nil {
			return fmt.Errorf("config: binding flag %s: %w", k, err)
		}
	}
	return nil
}

// NewViper returns a viper instance reading ECOMDB_* variables, e.g.
// ECOMDB_ADMIN_DB for the admin-db key.
func NewViper() *viper.Viper {
	v := viper.New()
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv() // binds environment variables to viper config
	return v
}

// Load reads the optional config file and returns the validated settings.
func Load(v *viper.Viper, configFile string) (Config, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("config: reading %s: %w", configFile, err)
		}
	}

	c := Config{
		Postgres: Postgres{
			Host:          v.GetString(KeyHost),
			Port:          v.GetInt(KeyPort),
			User:          v.GetString(KeyUser),
			Password:      v.GetString(KeyPassword),
			AdminDatabase: v.GetString(KeyAdminDatabase),
			Database:      v.GetString(KeyDatabase),
			SSLMode:       v.GetString(KeySSLMode),
		},
		Mongo: Mongo{
			URI:        v.GetString(KeyMongoURI),
			Database:   v.GetString(KeyMongoDatabase),
			Collection: v.GetString(KeyCollection),
		},
		Records:     v.GetInt(KeyRecords),
		Seed:        v.GetUint64(KeySeed),
		LogLevel:    v.GetString(KeyLogLevel),
		LogJSON:     v.GetBool(KeyLogJSON),
		MetricsFile: v.GetString(KeyMetricsFile),
	}
	return c, c.Validate()
}

// Validate checks only the fields that have no usable zero value.
func (c Config) Validate() error {
	var errs []error
	if c.Records < 0 {
		errs = append(errs, fmt.Errorf("config: %s must not be negative (got %d)", KeyRecords, c.Records))
	}
	if c.Postgres.Port < 0 || c.Postgres.Port > 65535 {
		errs = append(errs, fmt.Errorf("config: %s out of range (got %d)", KeyPort, c.Postgres.Port))
	}
	return errors.Join(errs...)
}
