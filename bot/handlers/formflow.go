package handlers

import (
	"errors"
	"fmt"

	"log/slog"

	"github.com/onenight/onenightbot/core/logger"
	"github.com/onenight/onenightbot/core/telegram/helpers"
	"github.com/onenight/onenightbot/core/telegram/keyboard"

	"github.com/onenight/onenightbot/bot/form"

	tele "gopkg.in/telebot.v4"
)

const msgSessionExpired = "⏰ Сессия истекла. Начните заново."

// InProgress reports whether the user has an active form session.
func (h *Handlers) InProgress(userID int64) bool {
	return h.engine.Active(userID)
}

// HandleText feeds a text message into the user's active session.
func (h *Handlers) HandleText(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	res, err := h.engine.Handle(ctx, helpers.SenderID(c), form.Event{
		Kind: form.EventText,
		Text: c.Text(),
	})
	if err != nil {
		if errors.Is(err, form.ErrNoActiveSession) {
			return helpers.SendText(c, msgSessionExpired)
		}
		return err
	}
	return h.renderResult(c, res, false)
}

// HandlePhoto resolves the incoming photo to a file URL and feeds it into the
// active session.
func (h *Handlers) HandlePhoto(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	photo := c.Message().Photo
	if photo == nil {
		return nil
	}

	url, err := h.photoURL(photo.FileID)
	if err != nil {
		logger.Warn(ctx, "tg", "photo.resolve",
			slog.String("err", err.Error()),
		)
		return helpers.SendText(c, "❌ Не удалось загрузить фото. Попробуйте ещё раз.")
	}

	res, err := h.engine.Handle(ctx, helpers.SenderID(c), form.Event{
		Kind:     form.EventPhoto,
		PhotoURL: url,
	})
	if err != nil {
		if errors.Is(err, form.ErrNoActiveSession) {
			return helpers.SendText(c, msgSessionExpired)
		}
		return err
	}
	return h.renderResult(c, res, false)
}

// formActionCallback builds the handler for one inline form action.
func (h *Handlers) formActionCallback(kind form.EventKind) tele.HandlerFunc {
	return func(c tele.Context) error {
		ctx := helpers.BuildContext(c)
		res, err := h.engine.Handle(ctx, helpers.SenderID(c), form.Event{Kind: kind})
		if err != nil {
			if errors.Is(err, form.ErrNoActiveSession) {
				return helpers.EditOrSendHTML(c, msgSessionExpired)
			}
			return err
		}
		return h.renderResult(c, res, true)
	}
}

// renderResult turns one engine reply into exactly one outbound message.
// Callback-origin transitions edit the panel message in place; text and photo
// answers always produce a fresh message.
func (h *Handlers) renderResult(c tele.Context, res form.Result, fromCallback bool) error {
	markup := h.resultMarkup(res)
	if fromCallback {
		return helpers.EditOrSendHTML(c, res.Reply.Text, markup)
	}
	return helpers.SendHTML(c, res.Reply.Text, markup)
}

func (h *Handlers) resultMarkup(res form.Result) *tele.ReplyMarkup {
	if len(res.Reply.Actions) > 0 {
		btns := make([]keyboard.InlineBtn, 0, len(res.Reply.Actions))
		for _, a := range res.Reply.Actions {
			btns = append(btns, keyboard.InlineBtn{Text: a.Label, Unique: a.Key})
		}
		return keyboard.InlineButtons(btns...)
	}
	if !res.Done {
		return nil
	}

	// Terminal replies get navigation back into the owning panel.
	switch res.Form {
	case formNameProfile:
		if res.State == form.StateCancelled {
			return keyboard.InlineButtons(keyboard.BackButton("◀️ В меню", cbWorkerMenu))
		}
		return keyboard.InlineButtons(keyboard.BackButton("◀️ К моделям", cbWorkerModels))
	case formNameEditCard, formNameEditSupport:
		return keyboard.InlineButtons(keyboard.BackButton("◀️ В админ панель", cbAdminMenu))
	}
	return nil
}

// photoURL resolves a Telegram file id to its download URL.
func (h *Handlers) photoURL(fileID string) (string, error) {
	b := h.bot.Load()
	if b == nil {
		return "", errors.New("bot not started")
	}
	f, err := b.FileByID(fileID)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("https://api.telegram.org/file/bot%s/%s", h.cfg.Telegram.Token, f.FilePath), nil
}
