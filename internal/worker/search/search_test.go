package search

import (
	"bytes"
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hitoshi/searchreport/internal/model"
)

// --- モック定義 ---

// mockPlatform はplatform.Platformのテスト用モック。
type mockPlatform struct {
	requestFunc func(ctx context.Context, cfg model.SearchConfig) (string, error)
	parseFunc   func(document string, now time.Time) ([]model.Post, error)
}

func (m *mockPlatform) Name() string { return "mock" }

func (m *mockPlatform) Request(ctx context.Context, cfg model.SearchConfig) (string, error) {
	if m.requestFunc != nil {
		return m.requestFunc(ctx, cfg)
	}
	return "", nil
}

func (m *mockPlatform) Parse(document string, now time.Time) ([]model.Post, error) {
	if m.parseFunc != nil {
		return m.parseFunc(document, now)
	}
	return nil, nil
}

// mockRecorder はmetrics.Recorderのテスト用モック。
type mockRecorder struct {
	mu         sync.Mutex
	firings    map[string]int
	extracted  int
	dispatched int
	errorKinds []string
}

func newMockRecorder() *mockRecorder {
	return &mockRecorder{firings: make(map[string]int)}
}

func (m *mockRecorder) RecordFiring(_, result string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.firings[result]++
}

func (m *mockRecorder) RecordPostsExtracted(_ string, count int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.extracted += count
}

func (m *mockRecorder) RecordReportDispatched(string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.dispatched++
}

func (m *mockRecorder) RecordError(_, kind string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.errorKinds = append(m.errorKinds, kind)
}

func (m *mockRecorder) ObserveFetch(string, int, time.Duration) {}

// mockNotifier はreporter.Notifierのテスト用モック。
type mockNotifier struct {
	mu     sync.Mutex
	titles []string
}

func (m *mockNotifier) Notify(title, _ string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.titles = append(m.titles, title)
	return nil
}

// safeBuffer は複数のゴルーチンから書き込まれるログ用のバッファ。
type safeBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *safeBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *safeBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func newTestLogger(w interface{ Write([]byte) (int, error) }) *slog.Logger {
	return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func clockPtr(h, m int) *model.Clock {
	c := model.Clock{Hour: h, Minute: m}
	return &c
}
