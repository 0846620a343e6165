package handlers

import (
	"context"
	"fmt"
	"strings"

	"github.com/onenight/onenightbot/core/telegram/format"
	"github.com/onenight/onenightbot/core/telegram/helpers"
	"github.com/onenight/onenightbot/core/telegram/keyboard"

	"github.com/onenight/onenightbot/bot/form"
	"github.com/onenight/onenightbot/bot/storage"

	tele "gopkg.in/telebot.v4"
)

// AdminPanel handles /admin. The command router already gates it to the
// allow-list, so by the time this runs the sender is an admin.
func (h *Handlers) AdminPanel(c tele.Context) error {
	ctx := helpers.WithHandler(c, "admin")
	text, markup := h.adminPanelView(ctx)
	return helpers.SendHTML(c, text, markup)
}

func (h *Handlers) adminMenuCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	text, markup := h.adminPanelView(ctx)
	return helpers.EditOrSendHTML(c, text, markup)
}

func (h *Handlers) adminPanelView(ctx context.Context) (string, *tele.ReplyMarkup) {
	dctx, cancel := dbCtx(ctx)
	defer cancel()

	workers, _ := h.store.CountWorkers(dctx)
	clients, _ := h.store.CountClients(dctx)
	models, _ := h.store.CountActiveProfiles(dctx)
	vals := h.settings.Get(dctx)

	text := fmt.Sprintf("👑 <b>Админ Панель</b>\n\n"+
		"📊 <b>Статистика:</b>\n"+
		"├ 👷 Воркеров: %d\n"+
		"├ 👥 Клиентов: %d\n"+
		"└ 💃 Моделей: %d\n\n"+
		"⚙️ <b>Текущие настройки:</b>\n"+
		"├ 💳 Карта: <code>%s</code>\n"+
		"└ 📞 Поддержка: %s",
		workers, clients, models, vals.PaymentCard, vals.SupportUsername)

	markup := keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "💳 Изменить реквизиты", Unique: cbAdminEditCard}},
		[]keyboard.InlineBtn{{Text: "📞 Изменить поддержку", Unique: cbAdminEditSupport}},
		[]keyboard.InlineBtn{{Text: "📊 Все модели", Unique: cbAdminAllModels}},
		[]keyboard.InlineBtn{{Text: "👷 Все воркеры", Unique: cbAdminAllWorkers}},
	)
	return text, markup
}

// adminEditCardCallback starts the one-step card edit. Commit writes through
// the settings cache so panels render the new card immediately.
func (h *Handlers) adminEditCardCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	dctx, cancel := dbCtx(ctx)
	vals := h.settings.Get(dctx)
	cancel()

	prompt := fmt.Sprintf("💳 <b>Изменение реквизитов</b>\n\n"+
		"Текущая карта:\n<code>%s</code>\n\n"+
		"Отправьте новый номер карты:", vals.PaymentCard)

	f := form.NewSingleFieldForm(formNameEditCard, "card", prompt, h.adminTimeout(), form.ValidateCard,
		func(ctx context.Context, _ int64, d form.Draft) (string, error) {
			card := d.String("card")
			if err := h.settings.Set(ctx, storage.SettingPaymentCard, card); err != nil {
				return "❌ Ошибка при сохранении. Попробуйте позже.",
					&form.BackendError{Op: "settings.card", Err: err}
			}
			return fmt.Sprintf("✅ <b>Реквизиты обновлены!</b>\n\n"+
				"Новая карта:\n<code>%s</code>", card), nil
		})

	res := h.engine.Begin(ctx, helpers.SenderID(c), f)
	return h.renderResult(c, res, true)
}

func (h *Handlers) adminEditSupportCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	dctx, cancel := dbCtx(ctx)
	vals := h.settings.Get(dctx)
	cancel()

	prompt := fmt.Sprintf("📞 <b>Изменение поддержки</b>\n\n"+
		"Текущий username:\n%s\n\n"+
		"Отправьте новый username (с @):", vals.SupportUsername)

	f := form.NewSingleFieldForm(formNameEditSupport, "support", prompt, h.adminTimeout(), form.ValidateSupport,
		func(ctx context.Context, _ int64, d form.Draft) (string, error) {
			username := d.String("support")
			if err := h.settings.Set(ctx, storage.SettingSupportUsername, username); err != nil {
				return "❌ Ошибка при сохранении. Попробуйте позже.",
					&form.BackendError{Op: "settings.support", Err: err}
			}
			return fmt.Sprintf("✅ <b>Поддержка обновлена!</b>\n\n"+
				"Новый username: %s", username), nil
		})

	res := h.engine.Begin(ctx, helpers.SenderID(c), f)
	return h.renderResult(c, res, true)
}

func (h *Handlers) adminAllModelsCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	back := keyboard.InlineButtons(keyboard.BackButton("◀️ Назад", cbAdminMenu))

	dctx, cancel := dbCtx(ctx)
	models, err := h.store.ListActiveProfiles(dctx, 20)
	cancel()
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка", back)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "📊 <b>Все модели (%d)</b>\n\n", len(models))
	if len(models) == 0 {
		b.WriteString("<i>Моделей пока нет</i>")
	}
	for i, m := range models {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "• %s, %d - %s (%d₽)\n", format.EscapeHTML(m.Name), m.Age, format.EscapeHTML(m.City), m.Price)
	}
	return helpers.EditOrSendHTML(c, b.String(), back)
}

func (h *Handlers) adminAllWorkersCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	back := keyboard.InlineButtons(keyboard.BackButton("◀️ Назад", cbAdminMenu))

	dctx, cancel := dbCtx(ctx)
	workers, err := h.store.ListWorkers(dctx, 20)
	cancel()
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка", back)
	}

	var b strings.Builder
	fmt.Fprintf(&b, "👷 <b>Все воркеры (%d)</b>\n\n", len(workers))
	if len(workers) == 0 {
		b.WriteString("<i>Воркеров пока нет</i>")
	}
	for i, w := range workers {
		if i >= 10 {
			break
		}
		fmt.Fprintf(&b, "• %s - код: <code>%s</code>\n", format.EscapeHTML(w.DisplayName()), w.ReferralCode)
	}
	return helpers.EditOrSendHTML(c, b.String(), back)
}
