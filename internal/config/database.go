package config

import (
	"fmt"
	"net/url"
	"os"
	"strings"
)

func (p PostgresConfig) password() (string, error) {
	if p.Password != "" || p.PasswordFile == "" {
		return p.Password, nil
	}
	data, err := os.ReadFile(p.PasswordFile)
	if err != nil {
		return "", fmt.Errorf("unable to read from password file: %w", err)
	}
	return strings.TrimSpace(string(data)), nil
}

func (p PostgresConfig) URL() (string, error) {
	if p.User == "" || p.DbName == "" {
		return "", fmt.Errorf("postgres user and db_name must be set")
	}
	password, err := p.password()
	if err != nil {
		return "", err
	}
	return fmt.Sprintf(
		"postgresql://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(p.User),
		url.QueryEscape(password),
		p.Host,
		p.Port,
		p.DbName,
		p.SSLMode,
	), nil
}

// PostgresURL prefers database_url (or DATABASE_URL) over the discrete
// postgres settings.
func (s StorageConfig) PostgresURL() (string, error) {
	if s.DatabaseURL != "" {
		return s.DatabaseURL, nil
	}
	dbURL, err := s.Postgres.URL()
	if err != nil {
		return "", fmt.Errorf("no DATABASE_URL set; %w", err)
	}
	return dbURL, nil
}
