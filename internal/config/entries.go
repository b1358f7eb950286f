package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"

	"github.com/hitoshi/searchreport/internal/model"
)

// Entry は1件の検索と報告の定義。
// 条件を複数指定した場合は論理和、報告先を複数指定した場合は全て実行する。
type Entry struct {
	Keywords              []string `mapstructure:"keywords" json:"keywords"`
	Cron                  string   `mapstructure:"cron" json:"cron"`
	ConditionNPerHour     *int     `mapstructure:"condition_n_per_h" json:"condition_n_per_h"`
	ConditionContain      []string `mapstructure:"condition_contain" json:"condition_contain"`
	ConditionLatestInHour *int     `mapstructure:"condition_latest_in_h" json:"condition_latest_in_h"`
	ReportJSONDir         *string  `mapstructure:"report_json_dir" json:"report_json_dir"`
	ReportOSContent       *string  `mapstructure:"report_os_content" json:"report_os_content"`
	ReportLatestPost      bool     `mapstructure:"report_latest_post" json:"report_latest_post"`
}

// Entries はエントリ定義ファイル全体。
type Entries struct {
	SearchAndReports []Entry `mapstructure:"search_and_reports" json:"search_and_reports"`
}

// SearchConfig はエントリの検索設定を返す。
func (e Entry) SearchConfig() model.SearchConfig {
	return model.SearchConfig{Keywords: append([]string(nil), e.Keywords...)}
}

// Name はログやメトリクスでエントリを識別するための名前を返す。
func (e Entry) Name() string {
	if len(e.Keywords) == 0 {
		return "(no keywords)"
	}
	return strings.Join(e.Keywords, " ")
}

// Validate はエントリの値を検証する。
// cron式の構文はスケジューラへの登録時に検証する。
func (e Entry) Validate() error {
	if strings.TrimSpace(e.Cron) == "" {
		return fmt.Errorf("cron が指定されていません")
	}
	if e.ConditionNPerHour != nil && *e.ConditionNPerHour <= 0 {
		return fmt.Errorf("condition_n_per_h は1以上でなければなりません: %d", *e.ConditionNPerHour)
	}
	if e.ConditionLatestInHour != nil && *e.ConditionLatestInHour <= 0 {
		return fmt.Errorf("condition_latest_in_h は1以上でなければなりません: %d", *e.ConditionLatestInHour)
	}
	if e.ReportJSONDir != nil && strings.TrimSpace(*e.ReportJSONDir) == "" {
		return fmt.Errorf("report_json_dir が空です")
	}
	return nil
}

// SnapshotDirs はスナップショットの保存先ディレクトリを重複なく返す。
func (e *Entries) SnapshotDirs() []string {
	seen := make(map[string]bool)
	var dirs []string
	for _, entry := range e.SearchAndReports {
		if entry.ReportJSONDir == nil {
			continue
		}
		dir := filepath.Clean(*entry.ReportJSONDir)
		if !seen[dir] {
			seen[dir] = true
			dirs = append(dirs, dir)
		}
	}
	return dirs
}

// DefaultEntry は既定のエントリを返す。
func DefaultEntry() Entry {
	n, latest := 5, 1
	dir, content := "./default_reports", "Reported matching the condition."
	return Entry{
		Keywords:              []string{},
		Cron:                  "0 0 6,12 * * * *",
		ConditionNPerHour:     &n,
		ConditionContain:      []string{"CLI"},
		ConditionLatestInHour: &latest,
		ReportJSONDir:         &dir,
		ReportOSContent:       &content,
	}
}

// DefaultEntries は既定のエントリ1件からなる定義を返す。
func DefaultEntries() *Entries {
	return &Entries{SearchAndReports: []Entry{DefaultEntry()}}
}

// LoadEntries はエントリ定義ファイルを読み込む。
// ファイルの形式は拡張子（.json, .yaml, .yml, .toml）から判定する。
// ファイルが存在しない場合は既定の定義をJSONで書き出して返し、createdにtrueを返す。
func LoadEntries(path string) (entries *Entries, created bool, err error) {
	if _, statErr := os.Stat(path); errors.Is(statErr, fs.ErrNotExist) {
		entries = DefaultEntries()
		if err := WriteEntries(path, entries); err != nil {
			return nil, false, err
		}
		return entries, true, nil
	}

	v := viper.New()
	v.SetConfigFile(path)
	if filepath.Ext(path) == "" {
		v.SetConfigType("json")
	}
	if err := v.ReadInConfig(); err != nil {
		return nil, false, model.NewConfigError(fmt.Sprintf("%s の読み込みに失敗しました", path), err)
	}

	entries = &Entries{}
	if err := v.Unmarshal(entries); err != nil {
		return nil, false, model.NewConfigError(fmt.Sprintf("%s の解析に失敗しました", path), err)
	}
	if !v.IsSet("search_and_reports") {
		return nil, false, model.NewConfigError(fmt.Sprintf("%s に search_and_reports がありません", path), nil)
	}

	for i, entry := range entries.SearchAndReports {
		if err := entry.Validate(); err != nil {
			return nil, false, model.NewConfigError(fmt.Sprintf("search_and_reports[%d] が不正です", i), err)
		}
	}
	return entries, false, nil
}

// WriteEntries はエントリ定義を整形済みJSONとしてpathに書き出す。
func WriteEntries(path string, entries *Entries) error {
	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return model.NewFileError("エントリ定義のJSON変換に失敗しました", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return model.NewFileError(fmt.Sprintf("ディレクトリ %s の作成に失敗しました", dir), err)
		}
	}
	if err := os.WriteFile(path, append(data, '\n'), 0o644); err != nil {
		return model.NewFileError(fmt.Sprintf("%s への書き込みに失敗しました", path), err)
	}
	return nil
}
