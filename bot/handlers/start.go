package handlers

import (
	"fmt"
	"strings"

	"log/slog"

	"github.com/onenight/onenightbot/core/logger"
	"github.com/onenight/onenightbot/core/telegram/format"
	"github.com/onenight/onenightbot/core/telegram/helpers"
	"github.com/onenight/onenightbot/core/telegram/keyboard"

	tele "gopkg.in/telebot.v4"
)

// Start greets the user and registers a referral when the deep link carries a
// code. Registration failures are deliberately silent for the visitor.
func (h *Handlers) Start(c tele.Context) error {
	ctx := helpers.WithHandler(c, "start")
	user := c.Sender()

	if code := strings.TrimSpace(c.Message().Payload); code != "" && user != nil {
		dctx, cancel := dbCtx(ctx)
		registered, err := h.store.RegisterReferral(dctx, code, identityFrom(user))
		cancel()
		if err != nil {
			logger.Warn(ctx, "tg", "referral.register",
				slog.String("status", "fail"),
				slog.String("err", err.Error()),
			)
		} else if registered {
			logger.Info(ctx, "tg", "referral.register",
				slog.String("status", "ok"),
				slog.String("payload", logger.SanitizeLimit(code, 64)),
			)
		}
	}

	name := "друг"
	if user != nil && user.FirstName != "" {
		name = format.EscapeHTML(user.FirstName)
	}

	text := fmt.Sprintf("🔥 Привет, %s! Добро пожаловать в OneNight!\n\n"+
		"Найди идеальную девушку для незабываемого вечера. "+
		"Тысячи анкет, реальные фото и безопасные встречи.\n\n"+
		"Нажми кнопку ниже, чтобы открыть приложение:", name)

	return helpers.SendHTML(c, text, keyboard.WebAppButton("🚀 Открыть OneNight", h.cfg.Catalog.WebAppURL))
}

// UnknownText nudges users without an active flow toward the web app.
func (h *Handlers) UnknownText(c tele.Context) error {
	user := c.Sender()
	name := "друг"
	if user != nil && user.FirstName != "" {
		name = user.FirstName
	}

	text := fmt.Sprintf("👋 Привет, %s! Для использования OneNight нажми на кнопку ниже:", name)
	return helpers.SendText(c, text, &tele.SendOptions{
		ReplyMarkup: keyboard.WebAppButton("🚀 Открыть OneNight", h.cfg.Catalog.WebAppURL),
	})
}
