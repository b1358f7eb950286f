package app

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/hitoshi/searchreport/internal/config"
	"github.com/hitoshi/searchreport/internal/model"
)

// Version と Commit はビルド時に -ldflags で設定する。
var (
	Version = "dev"
	Commit  = "none"
)

// rootOptions はルートコマンドとサブコマンドで共有するフラグ。
type rootOptions struct {
	configPath string
	instant    bool
}

// NewRootCommand はsearchreportのルートコマンドを生成する。
// logOutはログの出力先で、nilの場合は標準エラー出力になる。
// サブコマンドを指定しない場合はスケジューラモードで起動する。
func NewRootCommand(logOut io.Writer) *cobra.Command {
	opts := &rootOptions{}

	root := &cobra.Command{
		Use:          "searchreport",
		Short:        "リアルタイム検索の結果を定期的に取得し、条件に一致したら報告する",
		SilenceUsage: true,
		Args:         cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := initWithFlags(logOut, opts)
			if err != nil {
				return err
			}
			log.Info("スケジューラモードで起動します",
				slog.String("config", cfg.EntriesPath),
				slog.Bool("instant", opts.instant),
				slog.String("platform", cfg.Platform),
			)
			return runDaemon(cmd.Context(), cfg, log, opts.instant)
		},
	}

	root.PersistentFlags().StringVarP(&opts.configPath, "config", "c", "",
		"エントリ定義ファイルのパス（既定: $SEARCHREPORT_CONFIG または "+config.DefaultEntriesPath+"）")
	root.Flags().BoolVarP(&opts.instant, "instant", "i", true,
		"起動直後に全エントリを1回ずつ実行する")

	root.AddCommand(
		newOnceCommand(logOut, opts),
		newParseCommand(logOut, opts),
		newInitCommand(opts),
		newHealthcheckCommand(),
		newVersionCommand(),
	)
	return root
}

// initWithFlags は環境変数の設定を読み込み、フラグで指定された値を優先して反映する。
func initWithFlags(logOut io.Writer, opts *rootOptions) (*config.Config, *slog.Logger, error) {
	cfg, log, err := Init(logOut)
	if err != nil {
		return nil, nil, err
	}
	if opts.configPath != "" {
		cfg.EntriesPath = opts.configPath
	}
	return cfg, log, nil
}

func newOnceCommand(logOut io.Writer, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "once",
		Short: "全エントリを1回ずつ実行して終了する",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, log, err := initWithFlags(logOut, opts)
			if err != nil {
				return err
			}
			return runOnce(cmd.Context(), cfg, log)
		},
	}
}

func newParseCommand(logOut io.Writer, opts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file.html>",
		Short: "保存済みの検索結果ページを解析して投稿を出力する",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, err := initWithFlags(logOut, opts)
			if err != nil {
				return err
			}
			posts, err := runParse(cfg, log, args[0], time.Now())
			if err != nil {
				return err
			}
			if posts == nil {
				posts = []model.Post{}
			}

			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			enc.SetEscapeHTML(false)
			return enc.Encode(posts)
		},
	}
}

func newInitCommand(opts *rootOptions) *cobra.Command {
	var force bool
	cmd := &cobra.Command{
		Use:   "init",
		Short: "既定のエントリ定義ファイルを書き出す",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path := opts.configPath
			if path == "" {
				path = os.Getenv("SEARCHREPORT_CONFIG")
			}
			if path == "" {
				path = config.DefaultEntriesPath
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s は既に存在します（上書きするには --force を指定してください）", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return model.NewFileError(fmt.Sprintf("%s の確認に失敗しました", path), err)
			}

			if err := config.WriteEntries(path, config.DefaultEntries()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s を作成しました\n", path)
			return nil
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "既存のファイルを上書きする")
	return cmd
}

// newHealthcheckCommand は軽量サブコマンドのため、設定のフル読み込みをスキップする。
func newHealthcheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "healthcheck",
		Short: "ステータスサーバーの /health を確認する",
		Args:  cobra.NoArgs,
		RunE: func(_ *cobra.Command, _ []string) error {
			return runHealthcheck(os.Getenv("STATUS_ADDR"))
		},
	}
}

func newVersionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "バージョン情報を表示する",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, _ []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "searchreport %s (%s)\n", Version, Commit)
		},
	}
}
