package extract

import (
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// selection はgoqueryのSelectionをElementとして扱うアダプタ。
type selection struct {
	sel *goquery.Selection
}

// ParseHTML はHTML文書を解析し、ルート要素を返す。
// HTML5パーサは不正なマークアップも補完して受け付けるため、
// エラーになるのは読み込み自体に失敗した場合のみ。
func ParseHTML(document string) (Element, error) {
	root, err := html.Parse(strings.NewReader(document))
	if err != nil {
		return nil, fmt.Errorf("HTMLの解析に失敗: %w", err)
	}
	return selection{sel: goquery.NewDocumentFromNode(root).Selection}, nil
}

// FindAll はElementインターフェースを実装する。
func (s selection) FindAll(selector string) []Element {
	found := s.sel.Find(selector)
	elements := make([]Element, 0, found.Length())
	found.Each(func(_ int, el *goquery.Selection) {
		elements = append(elements, selection{sel: el})
	})
	return elements
}

// Text はElementインターフェースを実装する。
func (s selection) Text() string {
	return s.sel.Text()
}
