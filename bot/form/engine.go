package form

import (
	"context"

	"github.com/onenight/onenightbot/core/logger"
	"log/slog"
)

// Corrective messages shared by all forms.
const (
	msgCancelled    = "❌ Создание отменено"
	msgConfirmOnly  = "Пожалуйста, подтвердите создание кнопкой «✅ Создать» или отмените."
	msgPhotoInText  = "⚠️ Сейчас ожидается текстовый ответ, а не фото. Отправьте текст или нажмите «❌ Отмена»."
	msgNoSkipHere   = "⚠️ Этот шаг нельзя пропустить. Отправьте ответ или нажмите «❌ Отмена»."
	msgDoneInText   = "⚠️ Сейчас ожидается ответ на текущий шаг. Отправьте его или нажмите «❌ Отмена»."
	msgEarlyConfirm = "⚠️ Анкета ещё не заполнена до конца. Ответьте на текущий шаг или нажмите «❌ Отмена»."
)

// Result describes the outcome of one handled event.
type Result struct {
	// Form names the form that produced this result.
	Form string
	// Reply is the single outbound message for this transition.
	Reply Reply
	// State is the session state after the event (step id or terminal marker).
	State string
	// Done reports that the session ended (committed or cancelled).
	Done bool
	// Err carries the typed rejection when the event did not advance the
	// form: *ValidationError, *InvalidTransitionError or *BackendError.
	// The session survives all of these.
	Err error
}

// Engine drives form sessions through their ordered steps. It is fully
// transport-independent: events come in, exactly one Reply comes out.
type Engine struct {
	store *Store
}

// NewEngine creates an engine over the given session store.
func NewEngine(store *Store) *Engine {
	return &Engine{store: store}
}

// Store exposes the underlying session store (for the background sweeper).
func (e *Engine) Store() *Store {
	return e.store
}

// Active reports whether the user currently has a live session.
func (e *Engine) Active(userID int64) bool {
	return e.store.Get(userID) != nil
}

// Begin allocates a fresh session for the user and returns the first prompt.
func (e *Engine) Begin(ctx context.Context, userID int64, f *Form) Result {
	s := e.store.Begin(userID, f)
	s.mu.Lock()
	defer s.mu.Unlock()

	logger.Debug(ctx, "form", "form.begin",
		slog.String("form", f.Name),
		slog.Int64("user_id", userID),
	)
	return Result{
		Form:  f.Name,
		Reply: Reply{Text: f.Steps[0].Prompt(s.Draft), Actions: f.actions(0)},
		State: s.State(),
	}
}

// Handle processes one inbound event for the user's active session.
// It returns ErrNoActiveSession when no live session exists; every other
// condition is reported through the Result.
func (e *Engine) Handle(ctx context.Context, userID int64, ev Event) (Result, error) {
	s := e.store.Get(userID)
	if s == nil {
		return Result{}, ErrNoActiveSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.evicted.Load() {
		return Result{}, ErrNoActiveSession
	}
	s.touch(e.store.now())

	var res Result
	switch {
	case ev.Kind == EventCancel:
		res = e.cancel(ctx, s)
	case s.StepIdx >= len(s.Form.Steps):
		res = e.handleConfirming(ctx, s, ev)
	default:
		res = e.handleStep(ctx, s, ev)
	}
	res.Form = s.Form.Name
	return res, nil
}

func (e *Engine) cancel(ctx context.Context, s *Session) Result {
	e.removeLocked(s)
	logger.Info(ctx, "form", "form.cancel",
		slog.String("form", s.Form.Name),
		slog.Int64("user_id", s.UserID),
		slog.String("step", s.State()),
	)
	text := s.Form.CancelText
	if text == "" {
		text = msgCancelled
	}
	return Result{
		Reply: Reply{Text: text},
		State: StateCancelled,
		Done:  true,
	}
}

func (e *Engine) handleConfirming(ctx context.Context, s *Session, ev Event) Result {
	if ev.Kind != EventConfirm {
		err := &InvalidTransitionError{Step: StepID(StateConfirming), Event: ev.Kind}
		return Result{
			Reply: Reply{Text: msgConfirmOnly, Actions: s.Form.actions(s.StepIdx)},
			State: StateConfirming,
			Err:   err,
		}
	}
	return e.commit(ctx, s)
}

func (e *Engine) handleStep(ctx context.Context, s *Session, ev Event) Result {
	st := s.Form.step(s.StepIdx)

	switch ev.Kind {
	case EventText:
		if st.Photos {
			return e.reject(s, &InvalidTransitionError{Step: st.ID, Event: ev.Kind}, st.Reject)
		}
		value, err := st.Validate(ev.Text)
		if err != nil {
			verr, ok := err.(*ValidationError)
			if !ok {
				verr = &ValidationError{Step: st.ID, Reason: err.Error()}
			}
			logger.Debug(ctx, "form", "step.reject",
				slog.String("form", s.Form.Name),
				slog.Int64("user_id", s.UserID),
				slog.String("step", string(st.ID)),
			)
			return e.reject(s, verr, verr.Reason)
		}
		s.Draft[st.Field] = value
		return e.advance(ctx, s)

	case EventPhoto:
		if !st.Photos {
			return e.reject(s, &InvalidTransitionError{Step: st.ID, Event: ev.Kind}, msgPhotoInText)
		}
		photos := s.Draft.Strings(st.Field)
		photos = append(photos, ev.PhotoURL)
		s.Draft[st.Field] = photos
		return Result{
			Reply: Reply{Text: st.Receipt(len(photos)), Actions: s.Form.actions(s.StepIdx)},
			State: s.State(),
		}

	case EventSkip:
		if !st.Skippable {
			return e.reject(s, &InvalidTransitionError{Step: st.ID, Event: ev.Kind}, msgNoSkipHere)
		}
		s.Draft[st.Field] = st.SkipValue()
		return e.advance(ctx, s)

	case EventDone:
		if !st.Photos {
			return e.reject(s, &InvalidTransitionError{Step: st.ID, Event: ev.Kind}, msgDoneInText)
		}
		if len(s.Draft.Strings(st.Field)) == 0 {
			s.Draft[st.Field] = st.DoneDefault()
		}
		return e.advance(ctx, s)

	case EventConfirm:
		return e.reject(s, &InvalidTransitionError{Step: st.ID, Event: ev.Kind}, msgEarlyConfirm)

	default:
		return e.reject(s, &InvalidTransitionError{Step: st.ID, Event: ev.Kind}, msgDoneInText)
	}
}

// reject re-emits the current step's guidance without touching state or draft.
func (e *Engine) reject(s *Session, err error, text string) Result {
	return Result{
		Reply: Reply{Text: text, Actions: s.Form.actions(s.StepIdx)},
		State: s.State(),
		Err:   err,
	}
}

func (e *Engine) advance(ctx context.Context, s *Session) Result {
	s.StepIdx++
	logger.Debug(ctx, "form", "step.advance",
		slog.String("form", s.Form.Name),
		slog.Int64("user_id", s.UserID),
		slog.String("step", s.State()),
	)

	if next := s.Form.step(s.StepIdx); next != nil {
		return Result{
			Reply: Reply{Text: next.Prompt(s.Draft), Actions: s.Form.actions(s.StepIdx)},
			State: s.State(),
		}
	}

	if s.Form.ConfirmPrompt != nil {
		return Result{
			Reply: Reply{Text: s.Form.ConfirmPrompt(s.Draft), Actions: s.Form.actions(s.StepIdx)},
			State: StateConfirming,
		}
	}

	// Single-field forms commit as soon as their last step validates.
	res := e.commit(ctx, s)
	if res.Err != nil {
		// No confirmation stage to retry from; report and end the session.
		e.removeLocked(s)
		res.Done = true
	}
	return res
}

func (e *Engine) commit(ctx context.Context, s *Session) Result {
	msg, err := s.Form.Commit(ctx, s.UserID, s.Draft)
	if err != nil {
		berr, ok := err.(*BackendError)
		if !ok {
			berr = &BackendError{Op: "commit", Err: err}
		}
		logger.Error(ctx, "form", "form.commit",
			slog.String("form", s.Form.Name),
			slog.Int64("user_id", s.UserID),
			slog.String("status", "fail"),
			slog.String("err", berr.Error()),
		)
		return Result{
			Reply: Reply{Text: msg, Actions: s.Form.actions(s.StepIdx)},
			State: s.State(),
			Err:   berr,
		}
	}

	e.removeLocked(s)
	logger.Info(ctx, "form", "form.commit",
		slog.String("form", s.Form.Name),
		slog.Int64("user_id", s.UserID),
		slog.String("status", "ok"),
	)
	return Result{
		Reply: Reply{Text: msg},
		State: StateDone,
		Done:  true,
	}
}

// removeLocked drops the session from the store while s.mu is already held.
// Safe because no Store method blocks on a session mutex under store.mu.
func (e *Engine) removeLocked(s *Session) {
	s.evicted.Store(true)
	e.store.mu.Lock()
	if cur, ok := e.store.sessions[s.UserID]; ok && cur == s {
		delete(e.store.sessions, s.UserID)
	}
	e.store.mu.Unlock()
}
