package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/hitoshi/searchreport/internal/logger"
	"github.com/hitoshi/searchreport/internal/model"
)

// DefaultEntriesPath はエントリ定義ファイルの既定のパス。
const DefaultEntriesPath = "./default_config.json"

// Config はアプリケーション全体の実行時設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
// 検索と報告のエントリ定義は別ファイルから読み込む（LoadEntries）。
type Config struct {
	// Entries
	EntriesPath string

	// Platform
	Platform       string
	SearchEndpoint string

	// Timezone
	SourceLocation *time.Location
	TargetLocation *time.Location

	// Fetch
	FetchTimeout     time.Duration
	FetchMaxSize     int64
	FetchMinInterval time.Duration

	// Status server
	StatusAddr string

	// Snapshot retention
	SnapshotRetentionDays int
	CleanupInterval       time.Duration

	// Logging
	LogLevel slog.Level
}

// Load は環境変数からConfigを読み込む。
// 必須の環境変数は無いが、タイムゾーン名やログレベルが不正な場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	var err error
	cfg.SourceLocation, err = loadLocation("SOURCE_TIMEZONE", "Asia/Tokyo")
	if err != nil {
		return nil, err
	}
	cfg.TargetLocation, err = loadLocation("LOCAL_TIMEZONE", "Local")
	if err != nil {
		return nil, err
	}

	level := os.Getenv("LOG_LEVEL")
	cfg.LogLevel, err = logger.ParseLevel(level)
	if err != nil {
		return nil, model.NewConfigError("LOG_LEVEL が不正です", err)
	}

	cfg.EntriesPath = getEnvString("SEARCHREPORT_CONFIG", DefaultEntriesPath)
	cfg.Platform = getEnvString("PLATFORM", "yahoojp")
	cfg.SearchEndpoint = getEnvString("SEARCH_ENDPOINT", "")
	cfg.FetchTimeout = getEnvDuration("FETCH_TIMEOUT", 10*time.Second)
	cfg.FetchMaxSize = getEnvInt64("FETCH_MAX_SIZE", 5242880)
	cfg.FetchMinInterval = getEnvDuration("FETCH_MIN_INTERVAL", 2*time.Second)
	cfg.StatusAddr = getEnvString("STATUS_ADDR", "")
	cfg.SnapshotRetentionDays = getEnvInt("SNAPSHOT_RETENTION_DAYS", 0)
	cfg.CleanupInterval = getEnvDuration("CLEANUP_INTERVAL", 24*time.Hour)

	return cfg, nil
}

func loadLocation(key, defaultVal string) (*time.Location, error) {
	name := getEnvString(key, defaultVal)
	loc, err := time.LoadLocation(name)
	if err != nil {
		return nil, model.NewConfigError(fmt.Sprintf("%s のタイムゾーン %q を読み込めません", key, name), err)
	}
	return loc, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
