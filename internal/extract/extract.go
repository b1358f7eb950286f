// Package extract は検索結果ページのマークアップから投稿のフィールドを抽出する。
// 文書の探索処理はElementインターフェースの背後に隠蔽し、
// 抽出ロジックを実ブラウザやDOMエンジンなしでテストできるようにする。
package extract

import (
	"github.com/hitoshi/searchreport/internal/model"
)

// Element は文書中の1要素に対する最小限の探索インターフェース。
type Element interface {
	// FindAll はこの要素の子孫のうちselectorに一致する要素を文書順で返す。
	FindAll(selector string) []Element
	// Text は子孫のテキストノードを文書順に連結した文字列を返す。
	Text() string
}

// RawPost は抽出直後の、まだ解釈していない投稿のフィールド。
type RawPost struct {
	AuthorText    string
	TimestampText string
	ContentText   string
}

// Selectors は抽出に使う4つの固定セレクタ。
// Author, Timestamp, Content はContainerの内側でのみ探索される。
type Selectors struct {
	Container string
	Author    string
	Timestamp string
	Content   string
}

// Extractor はSelectorsに従って文書から投稿を抽出する。
// 構築後は状態を持たないため、複数のゴルーチンから共有できる。
type Extractor struct {
	selectors Selectors
	parse     func(document string) (Element, error)
}

// New はExtractorの新しいインスタンスを生成する。
// parseがnilの場合はParseHTMLを使用する。
func New(selectors Selectors, parse func(document string) (Element, error)) *Extractor {
	if parse == nil {
		parse = ParseHTML
	}
	return &Extractor{
		selectors: selectors,
		parse:     parse,
	}
}

// Extract は文書中の全コンテナから投稿を抽出する。
// コンテナが1件も無い場合は検索結果0件として空のスライスを返す。
// いずれかのコンテナでサブ要素が見つからない場合はページ構造の変化とみなし、
// 部分的な結果は返さずにUNEXPECTED_STRUCTUREエラーを返す。
func (e *Extractor) Extract(document string) ([]RawPost, error) {
	root, err := e.parse(document)
	if err != nil {
		return nil, err
	}

	containers := root.FindAll(e.selectors.Container)
	posts := make([]RawPost, 0, len(containers))

	for _, container := range containers {
		author, err := e.first(container, e.selectors.Author)
		if err != nil {
			return nil, err
		}
		timestamp, err := e.first(container, e.selectors.Timestamp)
		if err != nil {
			return nil, err
		}
		content, err := e.first(container, e.selectors.Content)
		if err != nil {
			return nil, err
		}

		posts = append(posts, RawPost{
			AuthorText:    author.Text(),
			TimestampText: timestamp.Text(),
			ContentText:   content.Text(),
		})
	}

	return posts, nil
}

// first はcontainer内でselectorに最初に一致する要素を返す。
func (e *Extractor) first(container Element, selector string) (Element, error) {
	found := container.FindAll(selector)
	if len(found) == 0 {
		return nil, model.NewUnexpectedStructureError(e.selectors.Container + " " + selector)
	}
	return found[0], nil
}
