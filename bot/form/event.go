package form

// EventKind enumerates the inbound event types the engine understands.
type EventKind string

const (
	// EventText is a plain text answer.
	EventText EventKind = "text"
	// EventPhoto is a photo attachment resolved to an external reference.
	EventPhoto EventKind = "photo"
	// EventSkip skips an optional step, substituting its default value.
	EventSkip EventKind = "skip"
	// EventDone closes an accumulating step (photo upload).
	EventDone EventKind = "done"
	// EventCancel aborts the whole form.
	EventCancel EventKind = "cancel"
	// EventConfirm commits the collected draft.
	EventConfirm EventKind = "confirm"
)

// Event is a transport-independent inbound user action.
type Event struct {
	Kind     EventKind
	Text     string
	PhotoURL string
}

// Action is a labeled button offered alongside a reply.
type Action struct {
	Label string
	Key   string
}

// Reply is the single outbound message produced by one engine transition.
type Reply struct {
	Text    string
	Actions []Action
}

// Callback action keys understood by the transport layer.
const (
	ActionCancel  = "form_cancel"
	ActionSkip    = "form_skip"
	ActionDone    = "form_done"
	ActionConfirm = "form_confirm"
)

var (
	cancelAction  = Action{Label: "❌ Отмена", Key: ActionCancel}
	skipAction    = Action{Label: "⏭ Пропустить", Key: ActionSkip}
	doneAction    = Action{Label: "✅ Готово", Key: ActionDone}
	confirmAction = Action{Label: "✅ Создать", Key: ActionConfirm}
)
