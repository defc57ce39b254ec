package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is where the daemon and CLI look for the ingest configuration
// unless told otherwise. The DOCSORT_CONFIG env var overrides it.
const DefaultPath = "config/ingest.yaml"

// Path returns the configuration file path from DOCSORT_CONFIG, falling
// back to DefaultPath.
func Path() string {
	if env := os.Getenv("DOCSORT_CONFIG"); env != "" {
		return env
	}
	return DefaultPath
}

// Config is the root of the ingest configuration file.
type Config struct {
	Listen         string           `yaml:"listen"`
	Shares         []string         `yaml:"shares"`
	InternalRoots  []string         `yaml:"internal_roots"`
	CentralBase    string           `yaml:"central_base"`
	IndexStorePath string           `yaml:"index_store_path"`
	Sorting        SortingConfig    `yaml:"sorting"`
	Review         ReviewConfig     `yaml:"review"`
	Backup         BackupConfig     `yaml:"backup"`
	Snapshots      SnapshotsConfig  `yaml:"snapshots"`
	Classifier     ClassifierConfig `yaml:"classifier"`
	S3             S3Config         `yaml:"s3"`
	Processing     ProcessingConfig `yaml:"processing"`
}

// SortingConfig controls year subfolder layout in the central tree.
type SortingConfig struct {
	EnableYearSubfolders bool     `yaml:"enable_year_subfolders"`
	YearFoldersUnder     []string `yaml:"year_folders_under"`
}

// ReviewConfig routes classifications below Threshold to the review queue.
type ReviewConfig struct {
	Threshold float64 `yaml:"threshold"`
}

// BackupConfig controls pre-move copies of processed files.
type BackupConfig struct {
	Enabled       bool   `yaml:"enabled"`
	Dir           string `yaml:"dir"`
	RetentionDays int    `yaml:"retention_days"`
}

// SnapshotsConfig controls snapshot retention.
type SnapshotsConfig struct {
	RetentionDays int `yaml:"retention_days"`
}

// ClassifierConfig points at an OpenAI-compatible completion endpoint.
// APIKey supports ${VAR} environment expansion.
type ClassifierConfig struct {
	Endpoint      string        `yaml:"endpoint"`
	APIKey        string        `yaml:"api_key"`
	Model         string        `yaml:"model"`
	RatePerMinute int           `yaml:"rate_per_minute"`
	Burst         int           `yaml:"burst"`
	Timeout       time.Duration `yaml:"timeout"`
}

// S3Config describes the optional object-storage mirror. AccessKey and
// SecretKey support ${VAR} environment expansion.
type S3Config struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`
	Region    string `yaml:"region"`
	Bucket    string `yaml:"bucket"`
	AccessKey string `yaml:"access_key"`
	SecretKey string `yaml:"secret_key"`
	UseSSL    bool   `yaml:"use_ssl"`
}

// ProcessingConfig tunes the document pipeline.
type ProcessingConfig struct {
	Workers       int               `yaml:"workers"`
	CategoryPaths map[string]string `yaml:"category_paths"`
}

// Load reads and parses the configuration file, expanding ${VAR} references
// against the environment before unmarshalling.
func Load(path string) (*Config, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found at %s", path)
		}
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal([]byte(os.ExpandEnv(string(raw))), &cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = ":8080"
	}
	if c.CentralBase == "" {
		c.CentralBase = "/data/sorted"
	}
	if len(c.InternalRoots) == 0 {
		c.InternalRoots = []string{"ORGA", "INFRA", "SALES", "HR"}
	}
	if c.IndexStorePath == "" {
		c.IndexStorePath = "data"
	}
	if len(c.Sorting.YearFoldersUnder) == 0 {
		c.Sorting.YearFoldersUnder = []string{"Projekte", "Archiv"}
	}
	if c.Review.Threshold == 0 {
		c.Review.Threshold = 0.75
	}
	if c.Backup.Dir == "" {
		c.Backup.Dir = filepath.Join(c.IndexStorePath, "backups")
	}
	if c.Backup.RetentionDays == 0 {
		c.Backup.RetentionDays = 7
	}
	if c.Snapshots.RetentionDays == 0 {
		c.Snapshots.RetentionDays = 30
	}
	if c.Classifier.Model == "" {
		c.Classifier.Model = "mistral:7b"
	}
	if c.Classifier.RatePerMinute == 0 {
		c.Classifier.RatePerMinute = 30
	}
	if c.Classifier.Burst == 0 {
		c.Classifier.Burst = 5
	}
	if c.Classifier.Timeout == 0 {
		c.Classifier.Timeout = 30 * time.Second
	}
	if c.Processing.Workers == 0 {
		c.Processing.Workers = 4
	}
	if len(c.Processing.CategoryPaths) == 0 {
		c.Processing.CategoryPaths = map[string]string{
			"finanzen": "{customer}/Archiv/{year}",
			"projekte": "{customer}/Projekte/{project}/{year}",
			"personal": "{customer}/Archiv/{year}",
			"footage":  "{customer}/Projekte/{project}/{year}",
			"unsorted": "{customer}/Allgemein",
		}
	}
}

// ValidateCrawl checks the fields a crawl run depends on. Failures here are
// fatal to starting a crawl; there is no partial start.
func (c *Config) ValidateCrawl() error {
	if len(c.Shares) == 0 {
		return errors.New("no shares configured")
	}
	if c.CentralBase == "" {
		return errors.New("central_base is required")
	}
	return nil
}

// DatabasePath returns the SQLite database location under the index store
// directory.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.IndexStorePath, "docsort.db")
}

// FeedbackLogPath returns the append-only classification feedback log path.
func (c *Config) FeedbackLogPath() string {
	return filepath.Join(c.IndexStorePath, "classification_feedback.jsonl")
}
