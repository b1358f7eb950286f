package platform

import (
	"context"
	"testing"
	"time"

	"github.com/hitoshi/searchreport/internal/model"
)

// fakePlatform はPlatformのモック実装。
type fakePlatform struct {
	name string
}

func (f *fakePlatform) Name() string { return f.name }
func (f *fakePlatform) Request(context.Context, model.SearchConfig) (string, error) {
	return "", nil
}
func (f *fakePlatform) Parse(string, time.Time) ([]model.Post, error) { return nil, nil }

func TestRegisterAndNew(t *testing.T) {
	var gotOpts Options
	Register("fake-register", func(opts Options) (Platform, error) {
		gotOpts = opts
		return &fakePlatform{name: "fake-register"}, nil
	})

	p, err := New("fake-register", Options{Endpoint: "https://example.com/search"})
	if err != nil {
		t.Fatalf("New でエラー: %v", err)
	}
	if p.Name() != "fake-register" {
		t.Errorf("Name() = %q", p.Name())
	}
	if gotOpts.Endpoint != "https://example.com/search" {
		t.Errorf("Options が生成関数に渡されるべき: %+v", gotOpts)
	}

	found := false
	for _, n := range Names() {
		if n == "fake-register" {
			found = true
		}
	}
	if !found {
		t.Errorf("Names() = %v, 登録名を含むべき", Names())
	}
}

func TestNew_Unknown(t *testing.T) {
	_, err := New("no-such-platform", Options{})
	if !model.IsKind(err, model.ErrKindConfig) {
		t.Errorf("err = %v, want %s", err, model.ErrKindConfig)
	}
}

func TestRegister_DuplicatePanics(t *testing.T) {
	factory := func(Options) (Platform, error) { return &fakePlatform{}, nil }
	Register("fake-dup", factory)

	defer func() {
		if recover() == nil {
			t.Error("同名の二重登録はpanicするべき")
		}
	}()
	Register("fake-dup", factory)
}
