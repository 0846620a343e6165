package form

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"
)

func testProfileForm(commit CommitFunc) *Form {
	return NewProfileForm(ProfileOptions{
		DefaultServices:  []string{"Классика", "Массаж"},
		PlaceholderImage: "https://img.example.com/placeholder.jpg",
		Timeout:          5 * time.Minute,
	}, commit)
}

func newTestEngine() *Engine {
	return NewEngine(NewStore())
}

func text(t *testing.T, e *Engine, userID int64, input string) Result {
	t.Helper()
	res, err := e.Handle(context.Background(), userID, Event{Kind: EventText, Text: input})
	if err != nil {
		t.Fatalf("handle %q: %v", input, err)
	}
	return res
}

func event(t *testing.T, e *Engine, userID int64, kind EventKind) Result {
	t.Helper()
	res, err := e.Handle(context.Background(), userID, Event{Kind: kind})
	if err != nil {
		t.Fatalf("handle %s: %v", kind, err)
	}
	return res
}

func hasAction(r Reply, key string) bool {
	for _, a := range r.Actions {
		if a.Key == key {
			return true
		}
	}
	return false
}

func TestProfileFlowHappyPath(t *testing.T) {
	var committed Draft
	e := newTestEngine()
	f := testProfileForm(func(_ context.Context, _ int64, d Draft) (string, error) {
		committed = d
		return "created", nil
	})

	res := e.Begin(context.Background(), 1, f)
	if !strings.Contains(res.Reply.Text, "Шаг 1/10") {
		t.Fatalf("first prompt = %q", res.Reply.Text)
	}
	if !hasAction(res.Reply, ActionCancel) || hasAction(res.Reply, ActionSkip) {
		t.Fatalf("unexpected first-step actions: %v", res.Reply.Actions)
	}
	if !e.Active(1) {
		t.Fatal("expected active session after Begin")
	}

	res = text(t, e, 1, "Анна")
	if !strings.Contains(res.Reply.Text, "Имя: <b>Анна</b>") {
		t.Fatalf("age prompt should echo the name, got %q", res.Reply.Text)
	}
	text(t, e, 1, "25")
	text(t, e, 1, "Москва")
	text(t, e, 1, "170")
	text(t, e, 1, "55")
	text(t, e, 1, "3")
	text(t, e, 1, "5000")

	res = text(t, e, 1, "Красивая и общительная")
	if !hasAction(res.Reply, ActionSkip) {
		t.Fatalf("services step should be skippable, actions: %v", res.Reply.Actions)
	}
	res = text(t, e, 1, "Классика, Минет, Массаж")
	if !hasAction(res.Reply, ActionDone) {
		t.Fatalf("photo step should offer done, actions: %v", res.Reply.Actions)
	}

	for i, url := range []string{"https://img.example.com/1.jpg", "https://img.example.com/2.jpg"} {
		r, err := e.Handle(context.Background(), 1, Event{Kind: EventPhoto, PhotoURL: url})
		if err != nil {
			t.Fatalf("photo %d: %v", i+1, err)
		}
		if !strings.Contains(r.Reply.Text, "Фото #") {
			t.Fatalf("photo %d receipt = %q", i+1, r.Reply.Text)
		}
	}

	res = event(t, e, 1, EventDone)
	if res.State != StateConfirming {
		t.Fatalf("state after done = %q, want %q", res.State, StateConfirming)
	}
	if !strings.Contains(res.Reply.Text, "Проверьте данные") {
		t.Fatalf("confirm prompt = %q", res.Reply.Text)
	}
	if !hasAction(res.Reply, ActionConfirm) {
		t.Fatalf("confirm stage actions: %v", res.Reply.Actions)
	}

	res = event(t, e, 1, EventConfirm)
	if !res.Done || res.State != StateDone || res.Err != nil {
		t.Fatalf("commit result: done=%v state=%q err=%v", res.Done, res.State, res.Err)
	}
	if res.Reply.Text != "created" {
		t.Fatalf("commit reply = %q", res.Reply.Text)
	}
	if e.Active(1) {
		t.Fatal("session should be gone after commit")
	}

	if committed == nil {
		t.Fatal("commit was not called")
	}
	if committed.String(FieldName) != "Анна" || committed.Int(FieldAge) != 25 {
		t.Fatalf("committed draft: name=%q age=%d", committed.String(FieldName), committed.Int(FieldAge))
	}
	if committed.Int(FieldPrice) != 5000 {
		t.Fatalf("committed price = %d", committed.Int(FieldPrice))
	}
	if got := committed.Strings(FieldServices); len(got) != 3 {
		t.Fatalf("committed services = %v", got)
	}
	if got := committed.Strings(FieldImages); len(got) != 2 {
		t.Fatalf("committed images = %v", got)
	}
}

func TestRejectedInputKeepsStep(t *testing.T) {
	e := newTestEngine()
	f := testProfileForm(func(context.Context, int64, Draft) (string, error) {
		t.Fatal("commit must not run")
		return "", nil
	})
	e.Begin(context.Background(), 7, f)
	text(t, e, 7, "Анна")

	res := text(t, e, 7, "15")
	var verr *ValidationError
	if !errors.As(res.Err, &verr) {
		t.Fatalf("err = %v, want *ValidationError", res.Err)
	}
	if res.Reply.Text != "❌ Введите корректный возраст (18-60):" {
		t.Fatalf("reject reply = %q", res.Reply.Text)
	}
	if res.Done {
		t.Fatal("rejection must not end the session")
	}

	// Same rejection any number of times, then a valid answer advances.
	text(t, e, 7, "abc")
	res = text(t, e, 7, "25")
	if res.Err != nil {
		t.Fatalf("valid age rejected: %v", res.Err)
	}
	if !strings.Contains(res.Reply.Text, "Шаг 3/10") {
		t.Fatalf("expected city prompt, got %q", res.Reply.Text)
	}
}

func TestSkipSubstitutesDefaults(t *testing.T) {
	var committed Draft
	e := newTestEngine()
	f := testProfileForm(func(_ context.Context, _ int64, d Draft) (string, error) {
		committed = d
		return "ok", nil
	})
	e.Begin(context.Background(), 2, f)
	for _, in := range []string{"Вика", "30", "Казань", "165", "50", "2", "7000"} {
		text(t, e, 2, in)
	}
	event(t, e, 2, EventSkip) // description
	event(t, e, 2, EventSkip) // services
	res := event(t, e, 2, EventDone)
	if res.State != StateConfirming {
		t.Fatalf("state = %q", res.State)
	}
	event(t, e, 2, EventConfirm)

	if !committed.Has(FieldDescription) || committed.String(FieldDescription) != "" {
		t.Fatalf("skipped description = %#v", committed[FieldDescription])
	}
	if got := committed.Strings(FieldServices); len(got) != 2 || got[0] != "Классика" {
		t.Fatalf("skipped services = %v", got)
	}
	if got := committed.Strings(FieldImages); len(got) != 1 || !strings.Contains(got[0], "placeholder") {
		t.Fatalf("placeholder images = %v", got)
	}
}

func TestSkipRejectedOnRequiredStep(t *testing.T) {
	e := newTestEngine()
	f := testProfileForm(nil)
	e.Begin(context.Background(), 3, f)

	res := event(t, e, 3, EventSkip)
	var terr *InvalidTransitionError
	if !errors.As(res.Err, &terr) {
		t.Fatalf("err = %v, want *InvalidTransitionError", res.Err)
	}
	if terr.Step != "name" || terr.Event != EventSkip {
		t.Fatalf("transition error = %+v", terr)
	}
}

func TestPhotoDuringTextStepRejected(t *testing.T) {
	e := newTestEngine()
	e.Begin(context.Background(), 4, testProfileForm(nil))

	res, err := e.Handle(context.Background(), 4, Event{Kind: EventPhoto, PhotoURL: "https://x"})
	if err != nil {
		t.Fatalf("handle: %v", err)
	}
	var terr *InvalidTransitionError
	if !errors.As(res.Err, &terr) {
		t.Fatalf("err = %v, want *InvalidTransitionError", res.Err)
	}
	if res.State != "name" {
		t.Fatalf("state = %q, step must not advance", res.State)
	}
}

func TestTextDuringPhotoStepRejected(t *testing.T) {
	e := newTestEngine()
	e.Begin(context.Background(), 5, testProfileForm(nil))
	for _, in := range []string{"Мария", "22", "Сочи", "160", "48", "2", "4000", "милая", "Классика"} {
		text(t, e, 5, in)
	}

	res := text(t, e, 5, "вот фото")
	if !strings.Contains(res.Reply.Text, "отправьте фото из галереи") {
		t.Fatalf("reject reply = %q", res.Reply.Text)
	}
	var terr *InvalidTransitionError
	if !errors.As(res.Err, &terr) {
		t.Fatalf("err = %v, want *InvalidTransitionError", res.Err)
	}
}

func TestEarlyConfirmRejected(t *testing.T) {
	e := newTestEngine()
	e.Begin(context.Background(), 6, testProfileForm(nil))
	text(t, e, 6, "Анна")

	res := event(t, e, 6, EventConfirm)
	var terr *InvalidTransitionError
	if !errors.As(res.Err, &terr) {
		t.Fatalf("err = %v, want *InvalidTransitionError", res.Err)
	}
	if res.Done {
		t.Fatal("early confirm must not end the session")
	}
}

func TestCancelFromAnyState(t *testing.T) {
	e := newTestEngine()
	f := testProfileForm(func(context.Context, int64, Draft) (string, error) {
		t.Fatal("commit must not run")
		return "", nil
	})

	// Mid-step.
	e.Begin(context.Background(), 8, f)
	text(t, e, 8, "Анна")
	res := event(t, e, 8, EventCancel)
	if !res.Done || res.State != StateCancelled {
		t.Fatalf("cancel result: done=%v state=%q", res.Done, res.State)
	}
	if res.Reply.Text != "❌ Создание модели отменено" {
		t.Fatalf("cancel reply = %q", res.Reply.Text)
	}
	if e.Active(8) {
		t.Fatal("session should be gone after cancel")
	}
	if _, err := e.Handle(context.Background(), 8, Event{Kind: EventText, Text: "x"}); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err after cancel = %v, want ErrNoActiveSession", err)
	}

	// From the confirmation stage.
	e.Begin(context.Background(), 9, f)
	for _, in := range []string{"Анна", "25", "Москва", "170", "55", "3", "5000", "текст", "Классика"} {
		text(t, e, 9, in)
	}
	event(t, e, 9, EventDone)
	res = event(t, e, 9, EventCancel)
	if !res.Done || res.State != StateCancelled {
		t.Fatalf("cancel from confirm: done=%v state=%q", res.Done, res.State)
	}
}

func TestCommitFailureKeepsSessionForRetry(t *testing.T) {
	calls := 0
	e := newTestEngine()
	f := testProfileForm(func(context.Context, int64, Draft) (string, error) {
		calls++
		if calls == 1 {
			return "❌ Ошибка при создании модели. Попробуйте позже.", &BackendError{Op: "profile.create", Err: errors.New("db down")}
		}
		return "created", nil
	})

	e.Begin(context.Background(), 10, f)
	for _, in := range []string{"Анна", "25", "Москва", "170", "55", "3", "5000", "текст", "Классика"} {
		text(t, e, 10, in)
	}
	event(t, e, 10, EventDone)

	res := event(t, e, 10, EventConfirm)
	var berr *BackendError
	if !errors.As(res.Err, &berr) {
		t.Fatalf("err = %v, want *BackendError", res.Err)
	}
	if res.Done {
		t.Fatal("failed commit must keep the session")
	}
	if !e.Active(10) {
		t.Fatal("session should survive a failed commit")
	}

	res = event(t, e, 10, EventConfirm)
	if !res.Done || res.Err != nil {
		t.Fatalf("retry result: done=%v err=%v", res.Done, res.Err)
	}
	if calls != 2 {
		t.Fatalf("commit calls = %d", calls)
	}
}

func TestConfirmStageOnlyAcceptsConfirm(t *testing.T) {
	e := newTestEngine()
	e.Begin(context.Background(), 11, testProfileForm(func(context.Context, int64, Draft) (string, error) {
		return "ok", nil
	}))
	for _, in := range []string{"Анна", "25", "Москва", "170", "55", "3", "5000", "текст", "Классика"} {
		text(t, e, 11, in)
	}
	event(t, e, 11, EventDone)

	res := text(t, e, 11, "да")
	var terr *InvalidTransitionError
	if !errors.As(res.Err, &terr) {
		t.Fatalf("err = %v, want *InvalidTransitionError", res.Err)
	}
	if res.State != StateConfirming {
		t.Fatalf("state = %q", res.State)
	}
}

func TestSingleFieldFormCommitsImmediately(t *testing.T) {
	var saved string
	e := newTestEngine()
	f := NewSingleFieldForm("card_edit", "card", "send a card", time.Minute, ValidateCard,
		func(_ context.Context, _ int64, d Draft) (string, error) {
			saved = d.String("card")
			return "updated", nil
		})

	res := e.Begin(context.Background(), 20, f)
	if res.Reply.Text != "send a card" {
		t.Fatalf("prompt = %q", res.Reply.Text)
	}

	res = text(t, e, 20, "2202 2026 8321 4532")
	if !res.Done || res.State != StateDone || res.Err != nil {
		t.Fatalf("single-field commit: done=%v state=%q err=%v", res.Done, res.State, res.Err)
	}
	if saved != "2202 2026 8321 4532" {
		t.Fatalf("saved card = %q", saved)
	}
	if e.Active(20) {
		t.Fatal("session should be gone after commit")
	}
}

func TestSingleFieldFormCommitFailureEndsSession(t *testing.T) {
	e := newTestEngine()
	f := NewSingleFieldForm("card_edit", "card", "send a card", time.Minute, ValidateCard,
		func(context.Context, int64, Draft) (string, error) {
			return "save failed", errors.New("db down")
		})

	e.Begin(context.Background(), 21, f)
	res := text(t, e, 21, "2202 2026 8321 4532")
	if !res.Done {
		t.Fatal("commit failure without a confirm stage must end the session")
	}
	var berr *BackendError
	if !errors.As(res.Err, &berr) {
		t.Fatalf("err = %v, want *BackendError", res.Err)
	}
	if e.Active(21) {
		t.Fatal("no retry stage exists, session must be gone")
	}
}

func TestHandleWithoutSession(t *testing.T) {
	e := newTestEngine()
	if _, err := e.Handle(context.Background(), 99, Event{Kind: EventText, Text: "x"}); !errors.Is(err, ErrNoActiveSession) {
		t.Fatalf("err = %v, want ErrNoActiveSession", err)
	}
}

func TestBeginDuringInFlightCommitDoesNotBlock(t *testing.T) {
	commitStarted := make(chan struct{})
	commitRelease := make(chan struct{})
	e := newTestEngine()
	f := testProfileForm(func(_ context.Context, _ int64, _ Draft) (string, error) {
		close(commitStarted)
		<-commitRelease
		return "created", nil
	})

	e.Begin(context.Background(), 1, f)
	for _, in := range []string{"Анна", "25", "Москва", "170", "55", "3", "5000", "Описание", "Классика"} {
		text(t, e, 1, in)
	}
	if _, err := e.Handle(context.Background(), 1, Event{Kind: EventPhoto, PhotoURL: "https://img.example.com/1.jpg"}); err != nil {
		t.Fatalf("photo: %v", err)
	}
	event(t, e, 1, EventDone)

	type handled struct {
		res Result
		err error
	}
	confirmed := make(chan handled, 1)
	go func() {
		res, err := e.Handle(context.Background(), 1, Event{Kind: EventConfirm})
		confirmed <- handled{res, err}
	}()
	<-commitStarted

	// A restart from the same user must not wait for the slow commit,
	// and must not wedge the store for everyone else.
	begun := make(chan Result, 1)
	go func() {
		begun <- e.Begin(context.Background(), 1, f)
	}()
	select {
	case <-begun:
	case <-time.After(2 * time.Second):
		t.Fatal("Begin stuck behind an in-flight commit")
	}

	otherDone := make(chan struct{})
	go func() {
		e.Begin(context.Background(), 2, testProfileForm(nil))
		close(otherDone)
	}()
	select {
	case <-otherDone:
	case <-time.After(2 * time.Second):
		t.Fatal("another user's Begin stuck behind an in-flight commit")
	}

	close(commitRelease)
	select {
	case h := <-confirmed:
		if h.err != nil {
			t.Fatalf("confirm: %v", h.err)
		}
		if !h.res.Done {
			t.Fatal("confirm should finish the form")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("confirm handler never returned")
	}

	if !e.Active(1) {
		t.Fatal("replacement session dropped by the finished commit")
	}
}
