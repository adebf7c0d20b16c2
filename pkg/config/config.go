// Package config provides configuration management for notion-account-graph.
// It loads configuration from environment variables and .env files.
package config

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
)

// Config represents the application configuration.
type Config struct {
	Notion NotionConfig
	Imgur  ImgurConfig
	Data   DataConfig
	Debug  bool
}

// NotionConfig represents Notion API configuration.
type NotionConfig struct {
	Token     string
	AccountDB string
	EventDB   string
	MonthDB   string
	APIURL    string
}

// ImgurConfig represents Imgur upload configuration.
type ImgurConfig struct {
	ClientID string
}

// DataConfig represents local data layout configuration.
type DataConfig struct {
	Dir         string
	DBPath      string
	MappingFile string
}

// Load loads configuration from environment variables.
// It automatically loads .env file from the current directory if available.
// You can optionally specify a custom .env file path.
func Load(envPath ...string) (*Config, error) {
	// Load .env file
	if len(envPath) > 0 && envPath[0] != "" {
		if err := godotenv.Load(envPath[0]); err != nil {
			return nil, fmt.Errorf("failed to load .env file: %w", err)
		}
	} else {
		// Try to load .env from current directory (ignore error if not found)
		_ = godotenv.Load()
	}

	config := &Config{
		Notion: NotionConfig{
			Token:     os.Getenv("NOTION_TOKEN"),
			AccountDB: os.Getenv("NOTION_ACCOUNT_DB"),
			EventDB:   os.Getenv("NOTION_EVENT_DB"),
			MonthDB:   os.Getenv("NOTION_MONTH_DB"),
			APIURL:    getEnvOrDefault("NOTION_API_URL", "https://api.notion.com/v1"),
		},
		Imgur: ImgurConfig{
			ClientID: os.Getenv("IMGUR_CLIENT_ID"),
		},
		Data: DataConfig{
			Dir:         getEnvOrDefault("DATA_DIR", "data"),
			DBPath:      os.Getenv("DATA_DB_PATH"),
			MappingFile: os.Getenv("MAPPING_FILE"),
		},
		Debug: os.Getenv("DEBUG") == "true",
	}

	return config, nil
}

// Validate validates the configuration.
// It checks if all required fields are set.
func (c *Config) Validate(required ...[]string) error {
	var missing []string

	for _, path := range required {
		if len(path) < 2 {
			continue
		}

		var value string
		switch path[0] {
		case "notion":
			switch path[1] {
			case "token":
				value = c.Notion.Token
			case "accountDb":
				value = c.Notion.AccountDB
			case "eventDb":
				value = c.Notion.EventDB
			case "monthDb":
				value = c.Notion.MonthDB
			case "apiUrl":
				value = c.Notion.APIURL
			}
		case "imgur":
			switch path[1] {
			case "clientId":
				value = c.Imgur.ClientID
			}
		case "data":
			switch path[1] {
			case "dir":
				value = c.Data.Dir
			case "dbPath":
				value = c.Data.DBPath
			case "mappingFile":
				value = c.Data.MappingFile
			}
		}

		if value == "" {
			missing = append(missing, joinPath(path))
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("missing required configuration: %v\nPlease check your .env file or environment variables", missing)
	}

	return nil
}

// getEnvOrDefault returns the value of the environment variable or a default value if not set.
func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// joinPath joins a path slice into a dot-separated string.
func joinPath(path []string) string {
	result := ""
	for i, p := range path {
		if i > 0 {
			result += "."
		}
		result += p
	}
	return result
}
