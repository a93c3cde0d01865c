package events

import "github.com/atomicstack/notemancy/internal/logging"

// TaskTracer records the lifecycle of background operations.
type TaskTracer struct{}

var Task = TaskTracer{}

func (TaskTracer) Spawn(kind, id string) {
	logging.Trace("task.spawn", map[string]interface{}{"kind": kind, "id": id})
}

func (TaskTracer) Busy(kind string) {
	logging.Trace("task.busy", map[string]interface{}{"kind": kind})
}

func (TaskTracer) Status(kind, id, status string) {
	logging.Trace("task.status", map[string]interface{}{"kind": kind, "id": id, "status": status})
}

func (TaskTracer) Done(kind, id string) {
	logging.Trace("task.done", map[string]interface{}{"kind": kind, "id": id})
}

func (TaskTracer) Disconnected(kind, id string) {
	logging.Trace("task.disconnected", map[string]interface{}{"kind": kind, "id": id})
}

func (TaskTracer) Cancel(kind, id string) {
	logging.Trace("task.cancel", map[string]interface{}{"kind": kind, "id": id})
}

func (TaskTracer) Panic(kind, id string, recovered interface{}) {
	logging.Trace("task.panic", map[string]interface{}{"kind": kind, "id": id, "panic": recovered})
}
