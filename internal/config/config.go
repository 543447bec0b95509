package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL     string
	DatabaseDriver  string
	DefaultCurrency string
	InvoiceLanguage string
	LogLevel        string
	LogFormat       string

	// Bank details printed in the invoice PDF footer.
	BankName      string
	BankIBAN      string
	BankBIC       string
	BusinessName  string
	BusinessEmail string
}

func Load(dbConn, dbDriver string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("error loading .env file: %w", err)
	}

	if dbConn == "" {
		dbConn = getEnv("DATABASE_URL", "./flow.db")
	}

	if dbDriver == "" {
		dbDriver = getEnv("DATABASE_DRIVER", "sqlite3")
	}

	cfg := &Config{
		DatabaseURL:     dbConn,
		DatabaseDriver:  dbDriver,
		DefaultCurrency: getEnv("DEFAULT_CURRENCY", "USD"),
		InvoiceLanguage: getEnv("INVOICE_LANGUAGE", "en"),
		LogLevel:        getEnv("LOG_LEVEL", "warn"),
		LogFormat:       getEnv("LOG_FORMAT", "console"),
		BankName:        getEnv("BANK_NAME", ""),
		BankIBAN:        getEnv("BANK_IBAN", ""),
		BankBIC:         getEnv("BANK_BIC", ""),
		BusinessName:    getEnv("BUSINESS_NAME", ""),
		BusinessEmail:   getEnv("BUSINESS_EMAIL", ""),
	}

	return cfg, nil
}

func (c *Config) Dump() {
	fmt.Printf("Database URL: %s\n", c.DatabaseURL)
	fmt.Printf("Database Driver: %s\n", c.DatabaseDriver)
	fmt.Printf("Default Currency: %s\n", c.DefaultCurrency)
	fmt.Printf("Invoice Language: %s\n", c.InvoiceLanguage)
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
