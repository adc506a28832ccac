package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type DBConfig struct {
	Type         string `yaml:"type" json:"type"`
	Host         string `yaml:"host" json:"host"`
	Port         int    `yaml:"port" json:"port"`
	Username     string `yaml:"username" json:"username"`
	Password     string `yaml:"password" json:"password"`
	DatabaseName string `yaml:"database_name" json:"database_name"`
	DSN          string `yaml:"dsn" json:"dsn"` // optional explicit DSN
}

type ServerConfig struct {
	Port int `yaml:"port" json:"port"`
}

// InferenceConfig holds the schema inference switches.
type InferenceConfig struct {
	NoAttributes     bool   `yaml:"no_attributes" json:"no_attributes"`         // -a
	Etc              *int   `yaml:"etc" json:"etc,omitempty"`                   // --etc=n
	NoDisambiguation bool   `yaml:"no_disambiguation" json:"no_disambiguation"` // -b
	Relations        bool   `yaml:"relations" json:"relations"`                 // -g
	IsValid          string `yaml:"isvalid" json:"isvalid,omitempty"`           // --isvalid=file
	Header           string `yaml:"header" json:"header,omitempty"`
	Format           string `yaml:"format" json:"format,omitempty"` // ddl | json
	// Dialect renders quoted per-database DDL instead of the generic block.
	Dialect string `yaml:"dialect" json:"dialect,omitempty"`
}

type AppConfig struct {
	Inference InferenceConfig `yaml:"inference" json:"inference"`
	Database  DBConfig        `yaml:"database" json:"database"`
	Server    ServerConfig    `yaml:"server" json:"server"`
}

// Validate rejects option combinations the inference pipeline cannot honour.
func (c InferenceConfig) Validate() error {
	if c.Etc != nil {
		if *c.Etc < 0 {
			return fmt.Errorf("etc must be non-negative, got %d", *c.Etc)
		}
		if c.NoDisambiguation {
			return errors.New("etc cannot be combined with disabling disambiguation")
		}
	}
	switch c.Format {
	case "", "ddl", "json":
	default:
		return fmt.Errorf("unknown output format %q (ddl|json)", c.Format)
	}
	if c.Dialect != "" {
		switch NormalizeDriver(c.Dialect) {
		case "postgres", "mysql", "sqlite", "sqlserver", "godror":
		default:
			return fmt.Errorf("unknown dialect %q", c.Dialect)
		}
	}
	return nil
}

// LoadEnv applies XTD_DB_TYPE / XTD_DB_DSN on top of db. Values come from the
// process environment first, then from the optional .env files.
func LoadEnv(db DBConfig, files ...string) (DBConfig, error) {
	vals, err := godotenv.Read(files...)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return db, err
	}
	lookup := func(key string) string {
		if v := os.Getenv(key); v != "" {
			return v
		}
		return vals[key]
	}
	if v := lookup("XTD_DB_TYPE"); v != "" {
		db.Type = v
	}
	if v := lookup("XTD_DB_DSN"); v != "" {
		db.DSN = v
	}
	return db, nil
}

// LoadFile loads YAML config from path. A missing file is an error; callers
// that treat the file as optional check for os.ErrNotExist.
func LoadFile(path string) (AppConfig, error) {
	var cfg AppConfig
	f, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// NormalizeDriver maps common aliases to canonical keys (keeps backwards compat).
func NormalizeDriver(d string) string {
	switch strings.ToLower(strings.TrimSpace(d)) {
	case "postgresql", "pg", "postgres":
		return "postgres"
	case "mysql", "mariadb":
		return "mysql"
	case "sqlite", "sqlite3":
		return "sqlite"
	case "mssql", "sqlserver":
		return "sqlserver"
	case "godror", "oracle":
		return "godror"
	default:
		return strings.ToLower(d)
	}
}

// BuildDriverAndDSN produces a driver name and DSN string for supported DB types.
func BuildDriverAndDSN(db DBConfig) (driver string, dsn string, err error) {
	// If explicit DSN provided, user must also set Type to choose driver or we guess
	t := NormalizeDriver(db.Type)

	if db.DSN != "" {
		return t, db.DSN, nil
	}

	switch t {
	case "postgres":
		driver = "postgres"
		// simple URL form
		dsn = fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "mysql":
		driver = "mysql"
		dsn = fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "sqlite":
		driver = "sqlite"
		if db.DatabaseName == "" {
			return "", "", fmt.Errorf("sqlite needs a file path in database_name")
		}
		dsn = fmt.Sprintf("file:%s", db.DatabaseName)
	case "sqlserver":
		driver = "sqlserver"
		dsn = fmt.Sprintf("sqlserver://%s:%s@%s:%d?database=%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	case "godror":
		driver = "godror"
		// simple EZCONNECT style; may need adjustments per environment
		dsn = fmt.Sprintf("%s/%s@%s:%d/%s",
			db.Username, db.Password, db.Host, db.Port, db.DatabaseName)
	default:
		err = fmt.Errorf("unsupported database type: %s", db.Type)
	}
	return
}
