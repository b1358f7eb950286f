package security

import (
	"html"
	"strings"

	"github.com/microcosm-cc/bluemonday"
)

// TextSanitizer は通知本文に含める投稿テキストからマークアップを取り除く。
// 通知デーモンによっては本文の一部タグを解釈するため、プレーンテキストに揃える。
type TextSanitizer struct {
	policy *bluemonday.Policy
}

// NewTextSanitizer はTextSanitizerの新しいインスタンスを生成する。
// 全てのタグを除去するbluemondayのStrictPolicyを使用する。
func NewTextSanitizer() *TextSanitizer {
	return &TextSanitizer{policy: bluemonday.StrictPolicy()}
}

// Sanitize はタグを除去し、エスケープされた文字参照を元の文字に戻して返す。
// 制御文字は改行とタブを除いて取り除く。
func (s *TextSanitizer) Sanitize(text string) string {
	stripped := html.UnescapeString(s.policy.Sanitize(text))
	return strings.Map(func(r rune) rune {
		if r == '\n' || r == '\t' {
			return r
		}
		if r < 0x20 || r == 0x7f {
			return -1
		}
		return r
	}, stripped)
}
