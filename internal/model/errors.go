package model

import (
	"errors"
	"fmt"
)

// ErrorKind はパイプラインで発生するエラーの種別。
type ErrorKind string

// 定義済みエラー種別
const (
	ErrKindUnexpectedStructure ErrorKind = "UNEXPECTED_STRUCTURE"
	ErrKindParseDatetime       ErrorKind = "PARSE_DATETIME"
	ErrKindRequest             ErrorKind = "REQUEST"
	ErrKindFile                ErrorKind = "FILE"
	ErrKindOS                  ErrorKind = "OS"
	ErrKindNoEligiblePost      ErrorKind = "NO_ELIGIBLE_POST"
	ErrKindConfig              ErrorKind = "CONFIG"
)

// PipelineError は検索・抽出・通知の各段階で発生するエラーの統一フォーマット。
// スケジューラには1回の実行につき1つのエラーとして渡される。
type PipelineError struct {
	Kind     ErrorKind
	Message  string
	Selector string // UNEXPECTED_STRUCTUREの場合のみ
	Err      error
}

// Error はerrorインターフェースを実装する。
func (e *PipelineError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Kind, e.Message)
}

// Unwrap は原因となったエラーを返す。
func (e *PipelineError) Unwrap() error {
	return e.Err
}

// IsKind はerrのチェーンに指定種別のPipelineErrorが含まれるかを返す。
func IsKind(err error, kind ErrorKind) bool {
	var pe *PipelineError
	if errors.As(err, &pe) {
		return pe.Kind == kind
	}
	return false
}

// NewUnexpectedStructureError はページ構造が想定と異なる場合のエラーを生成する。
func NewUnexpectedStructureError(selector string) *PipelineError {
	return &PipelineError{
		Kind:     ErrKindUnexpectedStructure,
		Message:  fmt.Sprintf("%s がソース中に見つかりません", selector),
		Selector: selector,
	}
}

// NewParseDatetimeError は日時文字列を解釈できない場合のエラーを生成する。
func NewParseDatetimeError(message string) *PipelineError {
	return &PipelineError{
		Kind:    ErrKindParseDatetime,
		Message: message,
	}
}

// NewRequestError は検索リクエストの失敗を表すエラーを生成する。
func NewRequestError(message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    ErrKindRequest,
		Message: message,
		Err:     err,
	}
}

// NewFileError はファイルI/Oの失敗を表すエラーを生成する。
func NewFileError(message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    ErrKindFile,
		Message: message,
		Err:     err,
	}
}

// NewOSError はOS通知の送信失敗を表すエラーを生成する。
func NewOSError(message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    ErrKindOS,
		Message: message,
		Err:     err,
	}
}

// NewNoEligiblePostError は時刻付きの投稿が1件も無い場合のエラーを生成する。
func NewNoEligiblePostError() *PipelineError {
	return &PipelineError{
		Kind:    ErrKindNoEligiblePost,
		Message: "時刻付きの投稿がありません",
	}
}

// NewConfigError は設定の読み込み・検証の失敗を表すエラーを生成する。
func NewConfigError(message string, err error) *PipelineError {
	return &PipelineError{
		Kind:    ErrKindConfig,
		Message: message,
		Err:     err,
	}
}
