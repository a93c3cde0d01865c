package ui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/atomicstack/notemancy/internal/ai"
	"github.com/atomicstack/notemancy/internal/logging"
	"github.com/atomicstack/notemancy/internal/logging/events"
	"github.com/atomicstack/notemancy/internal/notes"
	"github.com/atomicstack/notemancy/internal/search"
	"github.com/atomicstack/notemancy/internal/task"
	tea "github.com/charmbracelet/bubbletea"
)

const (
	vectorBuffer = 64

	vectorStarting   = "Starting vector indexing..."
	vectorProcessing = "Processing documents..."
	vectorSuccess    = "SUCCESS"
	vectorCompleted  = "Vector indexing completed successfully!"
	vectorReturning  = "Returning to main menu..."
)

type scanOutcome struct {
	Result *notes.ScanResult
	Err    error
}

type relatedOutcome struct {
	Path    string
	Results []search.Result
	Err     error
}

func (m *Model) startScan() {
	backend := m.backend
	h, err := task.Spawn(m.tasks, task.KindScan, 1, func(ctx context.Context, send func(scanOutcome) bool) {
		result, err := backend.Scan(ctx)
		if err != nil {
			send(scanOutcome{Err: err})
			return
		}
		send(scanOutcome{Result: &result})
	})
	if err != nil {
		logging.Error(err)
		return
	}
	m.scanHandle = h
	m.setState(StateScanning)
}

// startIndex rebuilds the search index from the last scan. A second request
// while one is running just returns to the progress screen.
func (m *Model) startIndex() {
	var files []notes.ScannedFile
	if m.scanResult != nil {
		files = append(files, m.scanResult.Files...)
	}
	backend := m.backend
	h, err := task.Spawn(m.tasks, task.KindIndex, 1, func(ctx context.Context, send func(struct{}) bool) {
		if err := backend.BuildIndex(ctx, files); err != nil {
			logging.Error(fmt.Errorf("build index: %w", err))
		}
		send(struct{}{})
	})
	if err != nil && !errors.Is(err, task.ErrBusy) {
		logging.Error(err)
		m.errMsg = err.Error()
		return
	}
	if err == nil {
		m.indexHandle = h
	}
	m.errMsg = ""
	m.setState(StateIndexing)
}

func (m *Model) startVectorIndex() {
	var files []notes.ScannedFile
	if m.scanResult != nil {
		files = append(files, m.scanResult.Files...)
	}
	backend := m.backend
	h, err := task.Spawn(m.tasks, task.KindVectorIndex, vectorBuffer, func(ctx context.Context, send func(string) bool) {
		send(vectorProcessing)
		err := backend.IndexVectors(ctx, files, func(line string) { send(line) })
		if err != nil {
			send("Error: " + err.Error())
			return
		}
		send(vectorSuccess)
	})
	if err != nil && !errors.Is(err, task.ErrBusy) {
		logging.Error(err)
		m.errMsg = err.Error()
		return
	}
	if err == nil {
		m.vectorHandle = h
		m.vectorStatus = vectorStarting
		m.vectorDoneAt = time.Time{}
	}
	m.setState(StateIndexingVectors)
}

func (m *Model) spawnRelated(path string) {
	backend := m.backend
	limit := m.opts.RelatedLimit
	h, err := task.Spawn(m.tasks, task.KindRelated, 1, func(ctx context.Context, send func(relatedOutcome) bool) {
		matches, err := backend.FindSimilar(ctx, path, limit)
		if err != nil {
			send(relatedOutcome{Path: path, Err: err})
			return
		}
		send(relatedOutcome{Path: path, Results: similarityResults(matches)})
	})
	if err != nil {
		logging.Error(err)
		m.debounce.Complete()
		return
	}
	m.relatedHandle = h
	events.Related.Request(path)
}

// similarityResults turns distances into percentages: (1 - d) * 100.
func similarityResults(matches []ai.Match) []search.Result {
	out := make([]search.Result, 0, len(matches))
	for _, match := range matches {
		out = append(out, search.Result{
			Path:  match.Path,
			Title: notes.DisplayTitle(match.Title, match.Path),
			Score: (1 - match.Distance) * 100,
		})
	}
	return out
}

func (m *Model) cancelRelated() {
	if m.relatedHandle == nil {
		return
	}
	m.relatedHandle.Cancel()
	m.relatedHandle = nil
	m.debounce.Reset()
	m.relatedFiles = nil
	m.relatedErr = ""
}

// drainTasks polls every outstanding handle once without blocking.
func (m *Model) drainTasks() tea.Cmd {
	var cmds []tea.Cmd
	m.drainScan()
	cmds = append(cmds, m.drainIndex())
	m.drainVector()
	m.drainRelated()
	return tea.Batch(cmds...)
}

func (m *Model) drainScan() {
	if m.scanHandle == nil {
		return
	}
	outcome, status := m.scanHandle.TryRecv()
	switch status {
	case task.Empty:
		return
	case task.Ready:
		if outcome.Err != nil {
			logging.Error(fmt.Errorf("scan: %w", outcome.Err))
			m.scanResult = nil
		} else {
			m.scanResult = outcome.Result
		}
	case task.Disconnected:
		logging.Error(fmt.Errorf("scan: %w", task.ErrDisconnected))
		m.scanResult = nil
	}
	m.scanHandle.Release()
	m.scanHandle = nil
	if m.state == StateScanning {
		m.setState(StatePreview)
	}
}

func (m *Model) drainIndex() tea.Cmd {
	if m.indexHandle == nil {
		return nil
	}
	_, status := m.indexHandle.TryRecv()
	if status == task.Empty {
		return nil
	}
	m.indexHandle.Release()
	m.indexHandle = nil
	if status == task.Disconnected {
		err := fmt.Errorf("index: %w", task.ErrDisconnected)
		logging.Error(err)
		m.errMsg = err.Error()
		if m.state == StateIndexing {
			m.setState(StatePreview)
		}
		return nil
	}
	if m.state != StateIndexing {
		return nil
	}
	return m.enterSearch()
}

func (m *Model) drainVector() {
	if m.vectorHandle == nil {
		return
	}
	for {
		line, status := m.vectorHandle.TryRecv()
		switch status {
		case task.Empty:
			return
		case task.Disconnected:
			logging.Error(fmt.Errorf("vector index: %w", task.ErrDisconnected))
			m.finishVector("Error: vector indexing stopped unexpectedly")
			return
		}
		events.Task.Status(task.KindVectorIndex.String(), m.vectorHandle.ID(), line)
		switch {
		case line == vectorSuccess:
			m.finishVector(vectorCompleted)
			return
		case strings.HasPrefix(line, "Error"):
			logging.Errorf("vector index: %s", line)
			m.finishVector(line)
			return
		default:
			m.vectorStatus = line
		}
	}
}

func (m *Model) finishVector(status string) {
	m.vectorStatus = status
	m.vectorDoneAt = m.opts.Now()
	m.vectorHandle.Release()
	m.vectorHandle = nil
}

// finishVectorGrace leaves the vector screen once the final message has
// been visible for the grace period.
func (m *Model) finishVectorGrace() {
	if m.vectorDoneAt.IsZero() {
		return
	}
	if m.opts.Now().Sub(m.vectorDoneAt) < vectorGracePeriod {
		return
	}
	m.vectorDoneAt = time.Time{}
	if m.state != StateIndexingVectors {
		return
	}
	m.setState(StatePreview)
}

func (m *Model) drainRelated() {
	if m.relatedHandle == nil {
		return
	}
	outcome, status := m.relatedHandle.TryRecv()
	if status == task.Empty {
		return
	}
	m.relatedHandle.Release()
	m.relatedHandle = nil
	m.debounce.Complete()
	if status == task.Disconnected {
		err := fmt.Errorf("related: %w", task.ErrDisconnected)
		logging.Error(err)
		m.relatedFiles = nil
		m.relatedErr = err.Error()
		events.Related.Result("", 0, m.relatedErr)
		return
	}
	if outcome.Err != nil {
		logging.Error(fmt.Errorf("related files for %s: %w", outcome.Path, outcome.Err))
		m.relatedFiles = nil
		m.relatedErr = outcome.Err.Error()
		events.Related.Result(outcome.Path, 0, m.relatedErr)
		return
	}
	if outcome.Path != m.selectedPath() {
		events.Related.Result(outcome.Path, len(outcome.Results), "stale")
		return
	}
	m.relatedFiles = outcome.Results
	m.relatedErr = ""
	events.Related.Result(outcome.Path, len(outcome.Results), "")
}
