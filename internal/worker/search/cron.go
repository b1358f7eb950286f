package search

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/robfig/cron/v3"
)

// cronParser は秒フィールドを省略可能な6フィールド形式と記述子（@every等）を受け付ける。
var cronParser = cron.NewParser(
	cron.SecondOptional | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor,
)

// NormalizeSpec はcron式をスケジューラが解釈できる形式に揃える。
// 末尾に年フィールドを持つ7フィールド形式は、年が * または ? の場合のみ年を取り除いて受け付ける。
func NormalizeSpec(spec string) (string, error) {
	fields := strings.Fields(spec)
	if len(fields) == 7 {
		if year := fields[6]; year != "*" && year != "?" {
			return "", fmt.Errorf("年フィールドの指定には対応していません: %q", spec)
		}
		fields = fields[:6]
	}
	normalized := strings.Join(fields, " ")
	if _, err := cronParser.Parse(normalized); err != nil {
		return "", fmt.Errorf("cron式 %q を解釈できません: %w", spec, err)
	}
	return normalized, nil
}

// cronLogger はcronライブラリのログをslogに転送する。
type cronLogger struct {
	logger *slog.Logger
}

// CronLogger はslog.Loggerをcron.Loggerとして扱うアダプタを返す。
// cronの情報ログは頻度が高いためDebugレベルで出力する。
func CronLogger(logger *slog.Logger) cron.Logger {
	return cronLogger{logger: logger}
}

// Info はcron.Loggerインターフェースを実装する。
func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.logger.Debug(msg, keysAndValues...)
}

// Error はcron.Loggerインターフェースを実装する。
func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.logger.Error(msg, append(keysAndValues, slog.String("error", err.Error()))...)
}
