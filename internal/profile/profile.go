package profile

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Profile is configuration to start the main server.
type Profile struct {
	// Mode can be "prod" or "dev" or "demo".
	Mode string
	// Addr is the binding address for the server.
	Addr string
	// Port is the binding port for the server.
	Port int
	// Data is the data directory.
	Data string
	// Driver is the database driver: sqlite, postgres.
	Driver string
	// DSN is the database source name.
	DSN string
	// Version is the current version of the server.
	Version string

	// GroqAPIKey is the process-wide completion credential. Requests that name
	// the default provider without their own key fall back to it; every other
	// provider requires an explicit key from the caller.
	GroqAPIKey string
	// GroqModel optionally overrides the default model used for groq requests.
	GroqModel string
	// LLMTimeout is the outbound completion request timeout in seconds.
	LLMTimeout int
}

func (p *Profile) IsDev() bool {
	return p.Mode != "prod"
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvOrDefaultInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

// FromEnv loads completion-backend configuration from environment variables.
// The bare GROQ_* names are kept for compatibility with existing deployments.
func (p *Profile) FromEnv() {
	p.GroqAPIKey = getEnvOrDefault("GASLIGHTGPT_GROQ_API_KEY", os.Getenv("GROQ_API_KEY"))
	p.GroqModel = getEnvOrDefault("GASLIGHTGPT_GROQ_MODEL", os.Getenv("GROQ_MODEL"))
	p.LLMTimeout = getEnvOrDefaultInt("GASLIGHTGPT_LLM_TIMEOUT_SECONDS", 120)
}

func checkDataDir(dataDir string) (string, error) {
	// Convert to absolute path if relative path is supplied.
	if !filepath.IsAbs(dataDir) {
		relativeDir := filepath.Join(filepath.Dir(os.Args[0]), dataDir)
		absDir, err := filepath.Abs(relativeDir)
		if err != nil {
			return "", err
		}
		dataDir = absDir
	}

	// Trim trailing \ or / in case user supplies.
	dataDir = strings.TrimRight(dataDir, "\\/")
	if _, err := os.Stat(dataDir); err != nil {
		if !os.IsNotExist(err) {
			return "", errors.Wrapf(err, "unable to access data folder %s", dataDir)
		}
		if err := os.MkdirAll(dataDir, 0o770); err != nil {
			return "", errors.Wrapf(err, "unable to create data folder %s", dataDir)
		}
	}
	return dataDir, nil
}

func (p *Profile) Validate() error {
	if p.Mode != "demo" && p.Mode != "dev" && p.Mode != "prod" {
		p.Mode = "demo"
	}

	if p.Data == "" {
		p.Data = "."
	}
	dataDir, err := checkDataDir(p.Data)
	if err != nil {
		return err
	}
	p.Data = dataDir

	if p.Driver != "sqlite" && p.Driver != "postgres" {
		return errors.Errorf("unsupported database driver %q", p.Driver)
	}
	if p.Driver == "sqlite" && p.DSN == "" {
		dbFile := fmt.Sprintf("gaslightgpt_%s.db", p.Mode)
		p.DSN = filepath.Join(dataDir, dbFile)
	}
	if p.Driver == "postgres" && p.DSN == "" {
		return errors.New("dsn required for postgres driver")
	}

	if p.LLMTimeout <= 0 {
		p.LLMTimeout = 120
	}

	return nil
}
