package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config enthält alle Konfigurationsparameter aus Umgebungsvariablen.
type Config struct {
	DBHost     string `envconfig:"DB_HOST" required:"true"`
	DBPort     int    `envconfig:"DB_PORT" default:"5432"`
	DBUser     string `envconfig:"DB_USER" required:"true"`
	DBPassword string `envconfig:"DB_PASSWORD" required:"true"`
	DBName     string `envconfig:"DB_NAME" required:"true"`

	// Managed-Datenbanken (z.B. Aiven) verlangen TLS mit eigenem Root-Zertifikat.
	DBSSLMode     string `envconfig:"DB_SSL_MODE" default:"disable"`
	DBSSLRootCert string `envconfig:"DB_SSL_ROOT_CERT"`

	HTTPPort string `envconfig:"HTTP_PORT" default:"8080"`
}

// DSN gibt den Data Source Name für die PostgreSQL-Verbindung zurück.
func (c *Config) DSN() string {
	dsn := fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.DBHost, c.DBUser, c.DBPassword, c.DBName, c.DBPort, c.DBSSLMode)
	if c.DBSSLRootCert != "" {
		dsn += fmt.Sprintf(" sslrootcert=%s", c.DBSSLRootCert)
	}
	return dsn
}

// Load lädt die Konfiguration aus den Umgebungsvariablen.
func Load() (*Config, error) {
	_ = godotenv.Load()
	var c Config
	err := envconfig.Process("", &c)
	return &c, err
}
