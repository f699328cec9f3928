package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/spf13/viper"
)

var ErrInvalidConfig = errors.New("invalid configuration")

const (
	DriverSQLite = "sqlite3"
	DriverMySQL  = "mysql"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Storage  StorageConfig
	OCR      OCRConfig
	Kafka    KafkaConfig
	Logging  LoggingConfig
	Locale   string
}

type ServerConfig struct {
	Port        string
	MaxFileSize int64
}

type DatabaseConfig struct {
	Driver   string
	Path     string
	Host     string
	Port     int
	User     string
	Password string
	Name     string
	Params   string
}

type StorageConfig struct {
	Dir string
}

type OCRConfig struct {
	TessdataPrefix string
	Language       string
	PaddleURL      string
	MinTextLength  int
}

type KafkaConfig struct {
	Brokers []string
	Topic   string
}

type LoggingConfig struct {
	Level  string
	Format string
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.max_file_size", 10*1024*1024) // 10 MB

	v.SetDefault("database.driver", DriverSQLite)
	v.SetDefault("database.path", "./data/payslip.db")
	v.SetDefault("database.host", "localhost")
	v.SetDefault("database.port", 3306)
	v.SetDefault("database.name", "payslip_ledger")
	v.SetDefault("database.params", "parseTime=true&multiStatements=true")

	v.SetDefault("storage.dir", "./storage/pay-slips")

	v.SetDefault("ocr.tessdata_prefix", "/usr/share/tesseract-ocr/5/tessdata/")
	v.SetDefault("ocr.language", "ita+eng")
	v.SetDefault("ocr.paddle_url", "")
	v.SetDefault("ocr.min_text_length", 20)

	v.SetDefault("kafka.brokers", "")
	v.SetDefault("kafka.topic", "salary.entries")

	v.SetDefault("logging.level", "info")
	v.SetDefault("logging.format", "console")

	v.SetDefault("locale", "it")
}

// LoadConfig reads configuration from cfgFile (or .env / config.yaml in the
// working directory) and PAYSLIP_* environment variables. A missing file is
// fine; defaults apply.
func LoadConfig(v *viper.Viper, cfgFile string) (*Config, error) {
	setDefaults(v)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("PAYSLIP")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:        v.GetString("server.port"),
			MaxFileSize: v.GetInt64("server.max_file_size"),
		},
		Database: DatabaseConfig{
			Driver:   v.GetString("database.driver"),
			Path:     v.GetString("database.path"),
			Host:     v.GetString("database.host"),
			Port:     v.GetInt("database.port"),
			User:     v.GetString("database.user"),
			Password: v.GetString("database.password"),
			Name:     v.GetString("database.name"),
			Params:   v.GetString("database.params"),
		},
		Storage: StorageConfig{
			Dir: v.GetString("storage.dir"),
		},
		OCR: OCRConfig{
			TessdataPrefix: v.GetString("ocr.tessdata_prefix"),
			Language:       v.GetString("ocr.language"),
			PaddleURL:      v.GetString("ocr.paddle_url"),
			MinTextLength:  v.GetInt("ocr.min_text_length"),
		},
		Kafka: KafkaConfig{
			Brokers: splitList(v.GetString("kafka.brokers")),
			Topic:   v.GetString("kafka.topic"),
		},
		Logging: LoggingConfig{
			Level:  v.GetString("logging.level"),
			Format: v.GetString("logging.format"),
		},
		Locale: v.GetString("locale"),
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	switch c.Database.Driver {
	case DriverSQLite:
		if c.Database.Path == "" {
			return fmt.Errorf("%w: database.path is required for sqlite3", ErrInvalidConfig)
		}
	case DriverMySQL:
		if c.Database.Name == "" || c.Database.User == "" {
			return fmt.Errorf("%w: database.user and database.name are required for mysql", ErrInvalidConfig)
		}
	default:
		return fmt.Errorf("%w: unsupported database driver %q", ErrInvalidConfig, c.Database.Driver)
	}
	if c.Server.MaxFileSize <= 0 {
		return fmt.Errorf("%w: server.max_file_size must be positive", ErrInvalidConfig)
	}
	if c.Storage.Dir == "" {
		return fmt.Errorf("%w: storage.dir is required", ErrInvalidConfig)
	}
	return nil
}

// GetDSN returns the data source name for the configured driver.
func (c *Config) GetDSN() string {
	if c.Database.Driver == DriverMySQL {
		mc := mysql.NewConfig()
		mc.User = c.Database.User
		mc.Passwd = c.Database.Password
		mc.Net = "tcp"
		mc.Addr = net.JoinHostPort(c.Database.Host, strconv.Itoa(c.Database.Port))
		mc.DBName = c.Database.Name
		mc.ParseTime = true
		mc.MultiStatements = true
		mc.Params = parseParams(c.Database.Params)
		return mc.FormatDSN()
	}
	return c.Database.Path + "?_journal_mode=WAL&_busy_timeout=5000&_foreign_keys=on"
}

// parseParams keeps extra driver parameters that mysql.Config has no field for.
func parseParams(raw string) map[string]string {
	params := make(map[string]string)
	for _, kv := range strings.Split(raw, "&") {
		k, val, ok := strings.Cut(kv, "=")
		if !ok || k == "" {
			continue
		}
		switch k {
		case "parseTime", "multiStatements":
			continue
		}
		params[k] = val
	}
	if len(params) == 0 {
		return nil
	}
	return params
}

func splitList(raw string) []string {
	var out []string
	for _, p := range strings.Split(raw, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
