// Package ui contains the Bubble Tea program for browsing a notes
// directory. The Model type focuses on message orchestration, while
// dedicated helpers own navigation, input, background work and rendering.
//
// Message flow:
//   - Bubble Tea invokes Model.Update with incoming messages, which are routed
//     through a typed handler registry so each tea.Msg is handled by a focused
//     function (key presses, window size, ticks, palette commands, preview
//     loads, editor and pager exits).
//   - A tick every 100ms is the control loop: it drains every outstanding
//     background task without blocking, advances the spinner, finishes the
//     vector indexing grace period and runs the related-files policy.
//   - Key handling switches on the active AppState. Search additionally
//     distinguishes typing (InputEditing) from browsing (InputNormal).
//
// State ownership:
//   - Result and palette lists live in internal/ui/state.Level, which tracks
//     items, filtering and viewport calculations. The related-files debounce
//     lives in internal/ui/state.Debounce.
//   - Scan, index, vector index and related lookups run through
//     internal/task. The model keeps at most one handle per kind and polls it
//     with TryRecv; a closed channel without a result reads as disconnected.
//   - Palette selections are dispatched through internal/ui/command as an
//     Invoked message and handled by an exhaustive switch in runCommand.
//
// External programs:
//   - Notes and the configuration file open in $VISUAL or $EDITOR through
//     tea.ExecProcess; the ov pager runs through tea.Exec.
package ui
