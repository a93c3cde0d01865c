package ui

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/atomicstack/notemancy/internal/ai"
	"github.com/atomicstack/notemancy/internal/notes"
	"github.com/atomicstack/notemancy/internal/search"
	"github.com/atomicstack/notemancy/internal/task"
	tea "github.com/charmbracelet/bubbletea"
)

func TestNewModelStartsInStartingState(t *testing.T) {
	env := newTestEnv(t, &fakeBackend{})
	if got := env.model().State(); got != StateStarting {
		t.Fatalf("expected starting, got %s", got)
	}
	if !env.model().Running() {
		t.Fatalf("expected model to be running")
	}
}

func TestScanCompletionMovesToPreview(t *testing.T) {
	backend := &fakeBackend{scan: notes.ScanResult{Summary: "0 files"}}
	env := newTestEnv(t, backend)
	env.harness.Init()
	if got := env.model().State(); got != StateScanning {
		t.Fatalf("expected scanning after init, got %s", got)
	}
	env.harness.Tick()
	m := env.model()
	if m.State() != StatePreview {
		t.Fatalf("expected preview, got %s", m.State())
	}
	if m.scanResult == nil || m.scanResult.Summary != "0 files" {
		t.Fatalf("expected scan result with summary, got %#v", m.scanResult)
	}
	if m.scanHandle != nil {
		t.Fatalf("expected scan handle to be cleared")
	}
}

func TestScanErrorFallsBackToPreviewWithoutResult(t *testing.T) {
	backend := &fakeBackend{scanErr: errors.New("permission denied")}
	env := started(t, backend)
	m := env.model()
	if m.State() != StatePreview {
		t.Fatalf("expected preview, got %s", m.State())
	}
	if m.scanResult != nil {
		t.Fatalf("expected no scan result, got %#v", m.scanResult)
	}
	if m.tasks.Busy(task.KindScan) {
		t.Fatalf("expected scan slot to be released")
	}
}

func TestScanDisconnectFallsBackToPreview(t *testing.T) {
	env := started(t, &fakeBackend{scanPanic: true})
	m := env.model()
	if m.State() != StatePreview {
		t.Fatalf("expected preview, got %s", m.State())
	}
	if m.scanResult != nil {
		t.Fatalf("expected no scan result, got %#v", m.scanResult)
	}
}

func TestCtrlSIndexesThenEntersSearch(t *testing.T) {
	backend := &fakeBackend{scan: notes.ScanResult{
		Files:   []notes.ScannedFile{{LocalPath: "/notes/a.md"}},
		Summary: "1 files",
	}}
	env := started(t, backend)
	env.harness.Send(key(tea.KeyCtrlS))
	m := env.model()
	if m.State() != StateIndexing {
		t.Fatalf("expected indexing, got %s", m.State())
	}
	env.harness.Tick()
	if m.State() != StateSearch {
		t.Fatalf("expected search, got %s", m.State())
	}
	if m.inputMode != InputEditing {
		t.Fatalf("expected editing mode, got %s", m.inputMode)
	}
	if len(m.hits) != 0 || len(m.results.Items) != 0 || m.results.Cursor != 0 {
		t.Fatalf("expected empty results, got %d hits cursor %d", len(m.hits), m.results.Cursor)
	}
	if backend.indexCalls != 1 || len(backend.indexFiles) != 1 {
		t.Fatalf("expected one index build over one file, got %d calls %#v", backend.indexCalls, backend.indexFiles)
	}
}

func TestTypingRunsSearchPerKeystroke(t *testing.T) {
	backend := &fakeBackend{searchFn: func(q string) []search.Result {
		switch q {
		case "f":
			return results("/n/a.md", "/n/b.md", "/n/c.md")
		case "fo":
			return results("/n/b.md", "/n/c.md")
		default:
			return results("/n/c.md")
		}
	}}
	env := searching(t, backend)
	h := env.harness

	h.Send(runes("f"))
	m := env.model()
	if len(m.results.Items) != 3 {
		t.Fatalf("expected 3 results, got %d", len(m.results.Items))
	}
	h.Send(key(tea.KeyDown))
	if m.results.Cursor != 1 {
		t.Fatalf("expected cursor 1, got %d", m.results.Cursor)
	}
	h.Send(runes("o"))
	if m.results.Cursor != 0 || len(m.results.Items) != 2 || m.results.Items[0].ID != "/n/b.md" {
		t.Fatalf("expected reset to latest results, got cursor %d items %#v", m.results.Cursor, m.results.Items)
	}
	h.Send(runes("o"))
	if len(m.results.Items) != 1 || m.results.Items[0].ID != "/n/c.md" {
		t.Fatalf("expected single result, got %#v", m.results.Items)
	}

	want := []string{"f", "fo", "foo"}
	if len(backend.queries) != len(want) {
		t.Fatalf("expected queries %v, got %v", want, backend.queries)
	}
	for i := range want {
		if backend.queries[i] != want[i] {
			t.Fatalf("expected queries %v, got %v", want, backend.queries)
		}
	}
}

func TestEmptyQueryClearsWithoutSearching(t *testing.T) {
	backend := &fakeBackend{searchFn: func(string) []search.Result { return results("/n/a.md") }}
	env := searching(t, backend)
	env.harness.Send(runes("a"))
	env.harness.Send(key(tea.KeyBackspace))
	m := env.model()
	if len(backend.queries) != 1 {
		t.Fatalf("expected one engine call, got %v", backend.queries)
	}
	if len(m.results.Items) != 0 || m.results.Cursor != 0 {
		t.Fatalf("expected cleared results, got %#v", m.results.Items)
	}
}

func TestQueryEditWithNoResultsKeepsCursorAtZero(t *testing.T) {
	env := searching(t, &fakeBackend{})
	typeText(env.harness, "zz")
	env.harness.Send(key(tea.KeyDown))
	if got := env.model().results.Cursor; got != 0 {
		t.Fatalf("expected cursor 0, got %d", got)
	}
}

func TestSearchErrorIsShown(t *testing.T) {
	env := searching(t, &fakeBackend{searchErr: errors.New("fts broke")})
	env.harness.Send(runes("x"))
	if got := env.model().errMsg; got != "fts broke" {
		t.Fatalf("expected error message, got %q", got)
	}
}

func TestSearchErrorClearsPreviousResults(t *testing.T) {
	backend := &fakeBackend{searchFn: func(string) []search.Result {
		return results("/n/a.md", "/n/b.md", "/n/c.md")
	}}
	env := searching(t, backend)
	h := env.harness
	m := env.model()
	h.Send(runes("a"))
	if len(m.results.Items) != 3 || m.preview == nil {
		t.Fatalf("expected 3 results with a preview, got %d", len(m.results.Items))
	}
	m.results.Cursor = 2
	backend.searchErr = errors.New("fts broke")
	h.Send(runes("b"))
	if len(m.hits) != 0 || len(m.results.Items) != 0 {
		t.Fatalf("expected stale results cleared, got %d hits %d items", len(m.hits), len(m.results.Items))
	}
	if m.results.Cursor != 0 {
		t.Fatalf("expected cursor 0, got %d", m.results.Cursor)
	}
	if m.preview != nil {
		t.Fatalf("expected preview cleared, got %#v", m.preview)
	}
	if m.errMsg != "fts broke" {
		t.Fatalf("expected error message, got %q", m.errMsg)
	}
}

func TestCursorClampsAtBounds(t *testing.T) {
	backend := &fakeBackend{searchFn: func(string) []search.Result {
		return results("/n/a.md", "/n/b.md", "/n/c.md")
	}}
	env := searching(t, backend)
	h := env.harness
	h.Send(runes("n"))
	h.Send(key(tea.KeyEsc))
	m := env.model()
	if m.inputMode != InputNormal {
		t.Fatalf("expected normal mode, got %s", m.inputMode)
	}
	h.Send(key(tea.KeyUp))
	if m.results.Cursor != 0 {
		t.Fatalf("expected up at top to be a no-op, got %d", m.results.Cursor)
	}
	for i := 0; i < 5; i++ {
		h.Send(key(tea.KeyDown))
		if m.results.Cursor < 0 || m.results.Cursor >= len(m.results.Items) {
			t.Fatalf("cursor escaped bounds: %d", m.results.Cursor)
		}
	}
	if m.results.Cursor != 2 {
		t.Fatalf("expected cursor clamped at 2, got %d", m.results.Cursor)
	}
	h.Send(key(tea.KeyHome))
	if m.results.Cursor != 0 {
		t.Fatalf("expected home to reach 0, got %d", m.results.Cursor)
	}
	h.Send(key(tea.KeyEnd))
	if m.results.Cursor != 2 {
		t.Fatalf("expected end to reach 2, got %d", m.results.Cursor)
	}
}

// relatedEnv is a Search/Normal model with two results.
func relatedEnv(t *testing.T) *testEnv {
	t.Helper()
	backend := &fakeBackend{
		searchFn: func(string) []search.Result { return results("/n/a.md", "/n/b.md") },
		similar:  []ai.Match{{Path: "/n/z.md", Title: "Zed", Distance: 0.25}},
	}
	env := searching(t, backend)
	env.harness.Send(runes("n"))
	env.harness.Send(key(tea.KeyEsc))
	return env
}

func TestTabIssuesExactlyOneRelatedLookup(t *testing.T) {
	env := relatedEnv(t)
	m := env.model()
	m.relatedFiles = results("/stale.md")
	env.harness.Send(key(tea.KeyTab))
	if m.detailMode != DetailRelated {
		t.Fatalf("expected related view, got %s", m.detailMode)
	}
	if m.relatedFiles != nil {
		t.Fatalf("expected prior related files cleared, got %#v", m.relatedFiles)
	}
	if got := env.backend.similarCalls; len(got) != 1 || got[0] != "/n/a.md" {
		t.Fatalf("expected one lookup for /n/a.md, got %v", got)
	}
	if m.relatedHandle == nil || !m.debounce.Loading() {
		t.Fatalf("expected an outstanding related lookup")
	}
}

func TestToggleWithoutSelectionChangeIsIdempotent(t *testing.T) {
	env := relatedEnv(t)
	h := env.harness
	h.Send(key(tea.KeyTab))
	h.Tick()
	h.Send(key(tea.KeyTab))
	if env.model().detailMode != DetailPreview {
		t.Fatalf("expected preview view")
	}
	h.Send(runes("r"))
	h.Tick()
	h.Tick()
	if got := env.backend.similarCalls; len(got) != 1 {
		t.Fatalf("expected at most one lookup, got %v", got)
	}
	if len(env.model().relatedFiles) != 1 {
		t.Fatalf("expected cached related files, got %#v", env.model().relatedFiles)
	}
}

func TestSelectionChangeWhileLoadingWaitsForCompletion(t *testing.T) {
	env := relatedEnv(t)
	h := env.harness
	m := env.model()
	h.Send(key(tea.KeyTab))
	h.Send(key(tea.KeyDown))
	if got := env.backend.similarCalls; len(got) != 1 {
		t.Fatalf("expected no second lookup while loading, got %v", got)
	}
	h.Tick()
	if got := env.backend.similarCalls; len(got) != 2 || got[1] != "/n/b.md" {
		t.Fatalf("expected exactly one new lookup for /n/b.md, got %v", got)
	}
	if m.relatedFiles != nil {
		t.Fatalf("expected stale result for /n/a.md to be dropped, got %#v", m.relatedFiles)
	}
	h.Tick()
	h.Tick()
	if got := env.backend.similarCalls; len(got) != 2 {
		t.Fatalf("expected no further lookups, got %v", got)
	}
	if len(m.relatedFiles) != 1 || m.relatedFiles[0].Path != "/n/z.md" {
		t.Fatalf("expected related files for /n/b.md, got %#v", m.relatedFiles)
	}
}

func TestRelatedScoresAreSimilarityPercentages(t *testing.T) {
	got := similarityResults([]ai.Match{
		{Path: "/n/a.md", Title: "", Distance: 0.25},
		{Path: "/n/b.md", Title: "Bee", Distance: 0},
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 results, got %d", len(got))
	}
	if got[0].Score != 75 || got[0].Title != "a.md" {
		t.Fatalf("expected 75%% and base name title, got %#v", got[0])
	}
	if got[1].Score != 100 || got[1].Title != "Bee" {
		t.Fatalf("expected 100%%, got %#v", got[1])
	}
}

func TestRelatedErrorIsShown(t *testing.T) {
	env := relatedEnv(t)
	env.backend.similarErr = errors.New("ollama down")
	env.harness.Send(key(tea.KeyTab))
	env.harness.Tick()
	m := env.model()
	if m.relatedErr != "ollama down" {
		t.Fatalf("expected related error, got %q", m.relatedErr)
	}
	if m.debounce.Loading() {
		t.Fatalf("expected loading flag cleared")
	}
}

func TestLeavingSearchCancelsRelatedLookup(t *testing.T) {
	env := relatedEnv(t)
	h := env.harness
	h.Send(key(tea.KeyTab))
	h.Send(key(tea.KeyEsc))
	m := env.model()
	if m.State() != StatePreview {
		t.Fatalf("expected preview, got %s", m.State())
	}
	if m.relatedHandle != nil || m.debounce.Loading() {
		t.Fatalf("expected related lookup to be cancelled")
	}
	h.Tick()
	if m.relatedFiles != nil {
		t.Fatalf("expected no related files after cancel, got %#v", m.relatedFiles)
	}
}

func TestPaletteQuitStopsLoop(t *testing.T) {
	env := started(t, &fakeBackend{})
	h := env.harness
	h.Send(key(tea.KeyCtrlP))
	if got := env.model().State(); got != StateCommandPalette {
		t.Fatalf("expected palette, got %s", got)
	}
	for i := 0; i < 3; i++ {
		h.Send(key(tea.KeyDown))
	}
	h.Send(key(tea.KeyEnter))
	if env.model().Running() {
		t.Fatalf("expected running to be false")
	}
	if !h.Quit() {
		t.Fatalf("expected the loop to exit")
	}
}

func TestPaletteEscReturnsToPreview(t *testing.T) {
	env := started(t, &fakeBackend{})
	env.harness.Send(key(tea.KeyCtrlP))
	env.harness.Send(key(tea.KeyEsc))
	m := env.model()
	if m.State() != StatePreview {
		t.Fatalf("expected preview, got %s", m.State())
	}
	if m.palette != nil || m.paletteItems != nil {
		t.Fatalf("expected palette to be discarded")
	}
	if !m.Running() {
		t.Fatalf("expected esc in palette not to quit")
	}
}

func TestPaletteFilterSelectsCommand(t *testing.T) {
	backend := &fakeBackend{}
	env := started(t, backend)
	h := env.harness
	h.Send(key(tea.KeyCtrlP))
	typeText(h, "search")
	m := env.model()
	if len(m.palette.Items) != 1 || m.palette.Items[0].Label != "Search" {
		t.Fatalf("expected only the search command, got %#v", m.palette.Items)
	}
	h.Send(key(tea.KeyEnter))
	if m.State() != StateIndexing {
		t.Fatalf("expected search command to start indexing, got %s", m.State())
	}
	h.Tick()
	if m.State() != StateSearch || backend.indexCalls != 1 {
		t.Fatalf("expected search after one index build, got %s with %d builds", m.State(), backend.indexCalls)
	}
}

func TestCtrlPIgnoredWhileTypingQuery(t *testing.T) {
	env := searching(t, &fakeBackend{})
	env.harness.Send(key(tea.KeyCtrlP))
	if got := env.model().State(); got != StateSearch {
		t.Fatalf("expected to stay in search, got %s", got)
	}
	env.harness.Send(key(tea.KeyEsc))
	env.harness.Send(key(tea.KeyCtrlP))
	if got := env.model().State(); got != StateCommandPalette {
		t.Fatalf("expected palette from normal mode, got %s", got)
	}
}

func TestQuitKeysOutsideSearch(t *testing.T) {
	for _, msg := range []tea.KeyMsg{key(tea.KeyEsc), runes("q"), key(tea.KeyCtrlC)} {
		env := started(t, &fakeBackend{})
		env.harness.Send(msg)
		if env.model().Running() {
			t.Fatalf("expected %q to quit", msg.String())
		}
	}
}

func TestQInSearchDoesNotQuit(t *testing.T) {
	env := searching(t, &fakeBackend{})
	env.harness.Send(key(tea.KeyEsc))
	env.harness.Send(runes("q"))
	if !env.model().Running() {
		t.Fatalf("expected q in search to be ignored")
	}
}

func TestCtrlCQuitsFromSearchEditing(t *testing.T) {
	env := searching(t, &fakeBackend{})
	env.harness.Send(key(tea.KeyCtrlC))
	if env.model().Running() {
		t.Fatalf("expected ctrl+c to quit")
	}
}

func TestVectorIndexSuccessThenGracePeriod(t *testing.T) {
	backend := &fakeBackend{vectorLines: []string{"Embedding 1/1: /n/a.md", "Embedded 1 documents, 0 unchanged"}}
	env := started(t, backend)
	h := env.harness
	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	m := env.model()
	if m.State() != StateIndexingVectors {
		t.Fatalf("expected vector indexing, got %s", m.State())
	}
	if m.vectorStatus != "Starting vector indexing..." {
		t.Fatalf("expected starting status, got %q", m.vectorStatus)
	}
	h.Tick()
	if m.vectorStatus != "Vector indexing completed successfully!" {
		t.Fatalf("expected success status, got %q", m.vectorStatus)
	}
	env.clock.Advance(time.Second)
	h.Tick()
	if m.State() != StateIndexingVectors {
		t.Fatalf("expected to stay during grace period, got %s", m.State())
	}
	env.clock.Advance(time.Second)
	h.Tick()
	if m.State() != StatePreview {
		t.Fatalf("expected preview after grace period, got %s", m.State())
	}
}

func TestVectorIndexErrorIsShownThenReturns(t *testing.T) {
	backend := &fakeBackend{vectorErr: errors.New("model not found")}
	env := started(t, backend)
	h := env.harness
	m := env.model()
	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	h.Tick()
	if m.vectorStatus != "Error: model not found" {
		t.Fatalf("expected error status, got %q", m.vectorStatus)
	}
	if m.State() != StateIndexingVectors {
		t.Fatalf("expected error to stay visible, got %s", m.State())
	}
	env.clock.Advance(vectorGracePeriod)
	h.Tick()
	if m.State() != StatePreview {
		t.Fatalf("expected preview, got %s", m.State())
	}
}

func TestVectorIndexEmbedsScannedFiles(t *testing.T) {
	backend := &fakeBackend{scan: notes.ScanResult{
		Files:   []notes.ScannedFile{{LocalPath: "/notes/a.md"}, {LocalPath: "/notes/b.md"}},
		Summary: "2 files",
	}}
	env := started(t, backend)
	h := env.harness
	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	h.Tick()
	if backend.indexCalls != 0 {
		t.Fatalf("expected no search index build, got %d", backend.indexCalls)
	}
	if len(backend.vectorFiles) != 2 || backend.vectorFiles[1].LocalPath != "/notes/b.md" {
		t.Fatalf("expected scanned files passed to vector indexing, got %#v", backend.vectorFiles)
	}
	if got := env.model().vectorStatus; got != vectorCompleted {
		t.Fatalf("expected success status, got %q", got)
	}
}

func goRunner(fn func()) { go fn() }

// waitFor ticks the harness until cond holds or a second has passed.
func waitFor(t *testing.T, h *Harness, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(time.Second)
	for !cond() {
		if time.Now().After(deadline) {
			t.Fatalf("condition not met before deadline")
		}
		time.Sleep(time.Millisecond)
		h.Tick()
	}
}

func TestVectorIndexShowsProgressWhileRunning(t *testing.T) {
	backend := &fakeBackend{
		vectorLines: []string{"Embedding 1/2: /n/a.md"},
		vectorGate:  make(chan struct{}),
		vectorSent:  make(chan struct{}),
	}
	env := newTestEnvWithRunner(t, backend, goRunner)
	h := env.harness
	m := env.model()
	h.Init()
	waitFor(t, h, func() bool { return m.State() == StatePreview })

	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	if m.vectorStatus != vectorStarting {
		t.Fatalf("expected starting status, got %q", m.vectorStatus)
	}
	<-backend.vectorSent
	h.Tick()
	if m.vectorStatus != "Embedding 1/2: /n/a.md" {
		t.Fatalf("expected progress line, got %q", m.vectorStatus)
	}
	if m.State() != StateIndexingVectors {
		t.Fatalf("expected to stay on vector screen, got %s", m.State())
	}
	if !m.vectorDoneAt.IsZero() {
		t.Fatalf("expected no completion time while running")
	}
	if view := m.View(); !strings.Contains(view, "Embedding 1/2: /n/a.md") {
		t.Fatalf("expected progress in view, got %q", view)
	}

	close(backend.vectorGate)
	waitFor(t, h, func() bool { return m.vectorStatus == vectorCompleted })
	if m.State() != StateIndexingVectors {
		t.Fatalf("expected completion to stay visible, got %s", m.State())
	}
}

func TestCtrlSFromPaletteStartsIndexing(t *testing.T) {
	backend := &fakeBackend{}
	env := started(t, backend)
	h := env.harness
	h.Send(key(tea.KeyCtrlP))
	m := env.model()
	if m.State() != StateCommandPalette {
		t.Fatalf("expected palette, got %s", m.State())
	}
	h.Send(key(tea.KeyCtrlS))
	if m.State() != StateIndexing {
		t.Fatalf("expected indexing, got %s", m.State())
	}
	h.Tick()
	if m.State() != StateSearch || backend.indexCalls != 1 {
		t.Fatalf("expected search after one index build, got %s with %d builds", m.State(), backend.indexCalls)
	}
}

func TestCtrlSDuringVectorIndexStartsIndexing(t *testing.T) {
	backend := &fakeBackend{
		vectorGate: make(chan struct{}),
		vectorSent: make(chan struct{}),
	}
	env := newTestEnvWithRunner(t, backend, goRunner)
	h := env.harness
	m := env.model()
	h.Init()
	waitFor(t, h, func() bool { return m.State() == StatePreview })

	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	<-backend.vectorSent
	if m.State() != StateIndexingVectors {
		t.Fatalf("expected vector indexing, got %s", m.State())
	}
	h.Send(key(tea.KeyCtrlS))
	if m.State() != StateIndexing {
		t.Fatalf("expected indexing, got %s", m.State())
	}
	waitFor(t, h, func() bool { return m.State() == StateSearch })

	close(backend.vectorGate)
	waitFor(t, h, func() bool { return m.vectorStatus == vectorCompleted })
	env.clock.Advance(vectorGracePeriod)
	h.Tick()
	if m.State() != StateSearch {
		t.Fatalf("expected vector completion to leave search alone, got %s", m.State())
	}
}

func TestShutdownWaitsForCancelledWorkers(t *testing.T) {
	backend := &fakeBackend{
		vectorGate: make(chan struct{}),
		vectorSent: make(chan struct{}),
	}
	env := newTestEnvWithRunner(t, backend, goRunner)
	h := env.harness
	m := env.model()
	h.Init()
	waitFor(t, h, func() bool { return m.State() == StatePreview })

	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	<-backend.vectorSent

	done := make(chan struct{})
	go func() {
		m.Shutdown()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatalf("expected shutdown to return once the worker was cancelled")
	}
	if !m.tasks.Busy(task.KindVectorIndex) {
		t.Fatalf("expected the handle to stay outstanding until drained")
	}
	h.Tick()
	if !strings.HasPrefix(m.vectorStatus, "Error") {
		t.Fatalf("expected the cancelled worker to surface as an error, got %q", m.vectorStatus)
	}
}

func TestCtrlEOpensConfigInPlace(t *testing.T) {
	env := searching(t, &fakeBackend{configPath: "/cfg/config.toml"})
	env.harness.Send(key(tea.KeyCtrlE))
	if len(env.exec.args) != 1 || env.exec.args[0][1] != "/cfg/config.toml" {
		t.Fatalf("expected editor on config file, got %v", env.exec.args)
	}
	if got := env.model().State(); got != StateSearch {
		t.Fatalf("expected to remain in search, got %s", got)
	}
}

func TestPaletteOpenConfigReturnsToPreview(t *testing.T) {
	env := started(t, &fakeBackend{configPath: "/cfg/config.toml"})
	h := env.harness
	h.Send(key(tea.KeyCtrlP))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyDown))
	h.Send(key(tea.KeyEnter))
	if len(env.exec.args) != 1 {
		t.Fatalf("expected one editor run, got %v", env.exec.args)
	}
	if got := env.model().State(); got != StatePreview {
		t.Fatalf("expected preview, got %s", got)
	}
}

func TestConfigPathErrorIsShown(t *testing.T) {
	env := started(t, &fakeBackend{configErr: errors.New("no home")})
	env.harness.Send(key(tea.KeyCtrlE))
	if len(env.exec.args) != 0 {
		t.Fatalf("expected no editor run, got %v", env.exec.args)
	}
	if env.model().errMsg == "" {
		t.Fatalf("expected an error message")
	}
}

func TestEnterOpensSelectedNoteThenPreview(t *testing.T) {
	env := relatedEnv(t)
	env.harness.Send(key(tea.KeyDown))
	env.harness.Send(key(tea.KeyEnter))
	if len(env.exec.args) != 1 || env.exec.args[0][1] != "/n/b.md" {
		t.Fatalf("expected editor on /n/b.md, got %v", env.exec.args)
	}
	if got := env.model().State(); got != StatePreview {
		t.Fatalf("expected preview after editing, got %s", got)
	}
}

func TestEditorFailureIsShown(t *testing.T) {
	env := relatedEnv(t)
	env.exec.err = errors.New("exit status 1")
	env.harness.Send(key(tea.KeyEnter))
	if env.model().errMsg == "" {
		t.Fatalf("expected an error message")
	}
}

func TestViewInPagerRendersSelectedNote(t *testing.T) {
	env := relatedEnv(t)
	env.harness.Send(runes("v"))
	if len(env.pager.titles) != 1 || env.pager.titles[0] != "/n/a.md" {
		t.Fatalf("expected pager on /n/a.md, got %v", env.pager.titles)
	}
	if env.pager.texts[0] == "" {
		t.Fatalf("expected rendered note text")
	}
}

func TestHelpOpensPager(t *testing.T) {
	env := started(t, &fakeBackend{})
	env.harness.Send(runes("?"))
	if len(env.pager.titles) != 1 || env.pager.texts[0] != helpText {
		t.Fatalf("expected help in pager, got %v", env.pager.titles)
	}
}

func TestPreviewLoadsSelectedNote(t *testing.T) {
	env := relatedEnv(t)
	m := env.model()
	if m.preview == nil || m.preview.path != "/n/a.md" || m.preview.loading {
		t.Fatalf("expected loaded preview for /n/a.md, got %#v", m.preview)
	}
	env.harness.Send(key(tea.KeyDown))
	if m.preview.path != "/n/b.md" || len(m.preview.lines) == 0 {
		t.Fatalf("expected preview for /n/b.md, got %#v", m.preview)
	}
}

func TestStalePreviewLoadIsIgnored(t *testing.T) {
	env := relatedEnv(t)
	m := env.model()
	seq := m.preview.seq
	m.handlePreviewLoadedMsg(previewLoadedMsg{path: "/n/a.md", seq: seq - 1, err: errors.New("late")})
	if m.preview.err != "" {
		t.Fatalf("expected stale load to be ignored, got %q", m.preview.err)
	}
}
