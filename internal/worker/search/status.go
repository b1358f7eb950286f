package search

import (
	"sort"
	"sync"
	"time"
)

// Status は1件のエントリの直近の実行状況。
type Status struct {
	Entry      string     `json:"entry"`
	Cron       string     `json:"cron"`
	NextRun    *time.Time `json:"next_run,omitempty"`
	RunID      string     `json:"run_id,omitempty"`
	LastRun    *time.Time `json:"last_run,omitempty"`
	DurationMS int64      `json:"duration_ms"`
	PostCount  int        `json:"post_count"`
	Fired      bool       `json:"fired"`
	Error      string     `json:"error,omitempty"`
	Runs       int        `json:"runs"`
	Failures   int        `json:"failures"`
}

// StatusBoard はエントリごとの直近の実行結果を保持する。
// 複数の実行から同時に更新されるため排他制御する。
type StatusBoard struct {
	mu       sync.RWMutex
	statuses map[string]*Status
}

// NewStatusBoard はStatusBoardの新しいインスタンスを生成する。
func NewStatusBoard() *StatusBoard {
	return &StatusBoard{statuses: make(map[string]*Status)}
}

// Register はエントリを未実行の状態で登録する。
func (b *StatusBoard) Register(job *Job) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if _, ok := b.statuses[job.Name]; !ok {
		b.statuses[job.Name] = &Status{Entry: job.Name, Cron: job.Cron}
	}
}

// Record は実行結果を反映する。
func (b *StatusBoard) Record(job *Job, result Result) {
	b.mu.Lock()
	defer b.mu.Unlock()

	st, ok := b.statuses[job.Name]
	if !ok {
		st = &Status{Entry: job.Name, Cron: job.Cron}
		b.statuses[job.Name] = st
	}
	started := result.StartedAt
	st.RunID = result.RunID
	st.LastRun = &started
	st.DurationMS = result.Duration.Milliseconds()
	st.PostCount = result.PostCount
	st.Fired = result.Fired
	st.Error = ""
	st.Runs++
	if result.Err != nil {
		st.Error = result.Err.Error()
		st.Failures++
	}
}

// Snapshot は全エントリの状況のコピーをエントリ名の昇順で返す。
func (b *StatusBoard) Snapshot() []Status {
	b.mu.RLock()
	defer b.mu.RUnlock()

	out := make([]Status, 0, len(b.statuses))
	for _, st := range b.statuses {
		out = append(out, *st)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Entry < out[j].Entry })
	return out
}
