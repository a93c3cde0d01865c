package events

import "github.com/atomicstack/notemancy/internal/logging"

type UITracer struct{}

type SearchTracer struct{}

type RelatedTracer struct{}

type ActionTracer struct{}

type CommandTracer struct{}

var (
	UI      = UITracer{}
	Search  = SearchTracer{}
	Related = RelatedTracer{}
	Action  = ActionTracer{}
	Command = CommandTracer{}
)

func (UITracer) State(from, to string) {
	logging.Trace("ui.state", map[string]interface{}{"from": from, "to": to})
}

func (UITracer) Cursor(list string, cursor int) {
	logging.Trace("ui.cursor", map[string]interface{}{"list": list, "cursor": cursor})
}

func (UITracer) DetailView(mode string) {
	logging.Trace("ui.detail-view", map[string]interface{}{"mode": mode})
}

func (UITracer) InputMode(mode string) {
	logging.Trace("ui.input-mode", map[string]interface{}{"mode": mode})
}

func (SearchTracer) Query(query string, results int) {
	logging.Trace("search.query", map[string]interface{}{"query": query, "results": results})
}

func (SearchTracer) Cleared() {
	logging.Trace("search.clear", nil)
}

func (RelatedTracer) Request(path string) {
	logging.Trace("related.request", map[string]interface{}{"path": path})
}

func (RelatedTracer) Result(path string, count int, errText string) {
	payload := map[string]interface{}{"path": path, "count": count}
	if errText != "" {
		payload["error"] = errText
	}
	logging.Trace("related.result", payload)
}

func (ActionTracer) Error(err error) {
	if err == nil {
		return
	}
	logging.Trace("action.error", map[string]interface{}{"error": err.Error()})
}

func (ActionTracer) Success(info string) {
	logging.Trace("action.success", map[string]interface{}{"info": info})
}

func (CommandTracer) Queue(id, label string) {
	logging.Trace("command.queue", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Result(id, label string) {
	logging.Trace("command.result", map[string]interface{}{"id": id, "label": label})
}

func (CommandTracer) Filter(filter string) {
	logging.Trace("command.filter", map[string]interface{}{"filter": filter})
}
