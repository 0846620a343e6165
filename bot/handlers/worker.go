package handlers

import (
	"context"
	"fmt"
	"strconv"

	"github.com/onenight/onenightbot/core/telegram/callbacks"
	"github.com/onenight/onenightbot/core/telegram/format"
	"github.com/onenight/onenightbot/core/telegram/helpers"
	"github.com/onenight/onenightbot/core/telegram/keyboard"

	"github.com/onenight/onenightbot/bot/storage"

	tele "gopkg.in/telebot.v4"
)

const (
	formNameProfile     = "profile_create"
	formNameEditCard    = "admin_edit_card"
	formNameEditSupport = "admin_edit_support"
)

// WorkerPanel handles /worker: registers the sender as a worker on first
// contact and shows the panel with stats and the referral link.
func (h *Handlers) WorkerPanel(c tele.Context) error {
	ctx := helpers.WithHandler(c, "worker")

	worker, err := h.currentWorker(ctx, c)
	if err != nil {
		return helpers.SendText(c, "❌ Ошибка при создании профиля воркера")
	}

	text, markup := h.workerPanelView(ctx, worker, true)
	return helpers.SendHTML(c, text, markup)
}

func (h *Handlers) workerMenuCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	worker, err := h.currentWorker(ctx, c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка")
	}
	text, markup := h.workerPanelView(ctx, worker, false)
	return helpers.EditOrSendHTML(c, text, markup)
}

// currentWorker resolves the sender's worker row and refreshes activity in
// the background on the sender's lane.
func (h *Handlers) currentWorker(ctx context.Context, c tele.Context) (*storage.Worker, error) {
	user := c.Sender()
	dctx, cancel := dbCtx(ctx)
	defer cancel()

	worker, err := h.store.GetOrCreateWorker(dctx, identityFrom(user))
	if err != nil {
		return nil, err
	}

	id := identityFrom(user)
	helpers.Async(c, "worker.touch", func() error {
		tctx, tcancel := dbCtx(context.Background())
		defer tcancel()
		return h.store.TouchWorkerActivity(tctx, id)
	})
	return worker, nil
}

func (h *Handlers) workerPanelView(ctx context.Context, w *storage.Worker, withCopy bool) (string, *tele.ReplyMarkup) {
	dctx, cancel := dbCtx(ctx)
	defer cancel()

	clients, _ := h.store.ListWorkerClients(dctx, w.ID)
	models, _ := h.store.ListWorkerProfiles(dctx, w.ID)
	link := h.referralLink(w.ReferralCode)

	username := format.EscapeHTML(format.DerefString(w.Username, "не указан"))
	firstName := format.EscapeHTML(format.DerefString(w.FirstName, "не указано"))

	text := fmt.Sprintf("👷 <b>Воркер Панель</b>\n\n"+
		"👤 <b>Ваш профиль:</b>\n"+
		"├ ID: <code>%d</code>\n"+
		"├ Username: @%s\n"+
		"└ Имя: %s\n\n"+
		"📊 <b>Статистика:</b>\n"+
		"├ 👥 Клиентов: %d\n"+
		"└ 💃 Моделей: %d\n\n"+
		"🔗 <b>Ваша реферальная ссылка:</b>\n"+
		"<code>%s</code>",
		w.TelegramID, username, firstName, len(clients), len(models), link)

	rows := [][]keyboard.InlineBtn{
		{{Text: "👥 Мои клиенты", Unique: cbWorkerClients}},
		{{Text: "💃 Мои модели", Unique: cbWorkerModels}},
		{{Text: "➕ Создать модель", Unique: cbCreateModel}},
	}
	if withCopy {
		rows = append(rows, []keyboard.InlineBtn{{Text: "🔗 Скопировать ссылку", Unique: cbCopyRef, Data: w.ReferralCode}})
	}
	return text, keyboard.InlineButtonsRows(rows...)
}

func (h *Handlers) referralLink(code string) string {
	return fmt.Sprintf("https://t.me/%s?start=%s", h.botUsername(), code)
}

func (h *Handlers) copyRefCallback(c tele.Context) error {
	code := callbacks.CallbackPayload(c)
	return helpers.SendText(c, h.referralLink(code))
}

func (h *Handlers) workerClientsCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	worker, err := h.currentWorker(ctx, c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка")
	}

	dctx, cancel := dbCtx(ctx)
	clients, err := h.store.ListWorkerClients(dctx, worker.ID)
	cancel()
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка")
	}

	if len(clients) == 0 {
		text := "👥 <b>Мои клиенты</b>\n\n<i>У вас пока нет клиентов.\nПоделитесь реферальной ссылкой!</i>"
		return helpers.EditOrSendHTML(c, text,
			keyboard.InlineButtons(keyboard.BackButton("◀️ Назад", cbWorkerMenu)))
	}

	text := fmt.Sprintf("👥 <b>Мои клиенты (%d)</b>\n\n", len(clients))
	var rows [][]keyboard.InlineBtn
	for i, client := range clients {
		if i >= 10 {
			break
		}
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   "👤 " + client.DisplayName(),
			Unique: cbClient,
			Data:   strconv.FormatInt(client.ID, 10),
		}})
	}
	rows = append(rows, []keyboard.InlineBtn{keyboard.BackButton("◀️ Назад", cbWorkerMenu)})
	return helpers.EditOrSendHTML(c, text, keyboard.InlineButtonsRows(rows...))
}

func (h *Handlers) clientDetailCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	back := keyboard.InlineButtons(keyboard.BackButton("◀️ Назад", cbWorkerClients))

	clientID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Клиент не найден", back)
	}

	dctx, cancel := dbCtx(ctx)
	client, err := h.store.GetClient(dctx, clientID)
	cancel()
	if err != nil || client == nil {
		return helpers.EditOrSendHTML(c, "❌ Клиент не найден", back)
	}

	username := format.EscapeHTML(format.DerefString(client.Username, "не указан"))
	firstName := format.EscapeHTML(format.DerefString(client.FirstName, "не указано"))

	text := fmt.Sprintf("👤 <b>Информация о клиенте</b>\n\n"+
		"├ ID: <code>%d</code>\n"+
		"├ Username: @%s\n"+
		"├ Имя: %s\n"+
		"└ Дата регистрации: %s",
		client.TelegramID, username, firstName,
		client.CreatedAt.Format("02.01.2006 15:04"))
	return helpers.EditOrSendHTML(c, text, back)
}

func (h *Handlers) workerModelsCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	worker, err := h.currentWorker(ctx, c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка")
	}

	dctx, cancel := dbCtx(ctx)
	models, err := h.store.ListWorkerProfiles(dctx, worker.ID)
	cancel()
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка")
	}

	if len(models) == 0 {
		text := "💃 <b>Мои модели</b>\n\n<i>У вас пока нет моделей.\nСоздайте первую!</i>"
		return helpers.EditOrSendHTML(c, text, keyboard.InlineButtonsRows(
			[]keyboard.InlineBtn{{Text: "➕ Создать модель", Unique: cbCreateModel}},
			[]keyboard.InlineBtn{keyboard.BackButton("◀️ Назад", cbWorkerMenu)},
		))
	}

	text := fmt.Sprintf("💃 <b>Мои модели (%d)</b>\n\n", len(models))
	var rows [][]keyboard.InlineBtn
	for _, m := range models {
		rows = append(rows, []keyboard.InlineBtn{{
			Text:   fmt.Sprintf("💃 %s, %d - %s", m.Name, m.Age, m.City),
			Unique: cbModel,
			Data:   strconv.FormatInt(m.ID, 10),
		}})
	}
	rows = append(rows,
		[]keyboard.InlineBtn{{Text: "➕ Создать модель", Unique: cbCreateModel}},
		[]keyboard.InlineBtn{keyboard.BackButton("◀️ Назад", cbWorkerMenu)},
	)
	return helpers.EditOrSendHTML(c, text, keyboard.InlineButtonsRows(rows...))
}

func (h *Handlers) modelDetailCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	back := keyboard.InlineButtons(keyboard.BackButton("◀️ Назад", cbWorkerModels))

	modelID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Модель не найдена", back)
	}

	dctx, cancel := dbCtx(ctx)
	model, err := h.store.GetProfile(dctx, modelID)
	cancel()
	if err != nil || model == nil {
		return helpers.EditOrSendHTML(c, "❌ Модель не найдена", back)
	}

	text := fmt.Sprintf("💃 <b>%s, %d</b>\n\n"+
		"📍 Город: %s\n"+
		"📏 Рост: %d см\n"+
		"⚖️ Вес: %d кг\n"+
		"👙 Грудь: %d\n"+
		"💰 Цена: %d ₽/час\n\n"+
		"📝 Описание:\n%s\n\n"+
		"🔧 Услуги: %s\n"+
		"🖼 Фото: %d",
		format.EscapeHTML(model.Name), model.Age, format.EscapeHTML(model.City),
		model.Height, model.Weight, model.Bust, model.Price,
		format.EscapeHTML(orText(model.Description, "не указано")),
		format.EscapeHTML(servicesLine(model.Services)), len(model.Images))

	return helpers.EditOrSendHTML(c, text, keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "🗑 Удалить модель", Unique: cbDeleteModel, Data: strconv.FormatInt(model.ID, 10)}},
		[]keyboard.InlineBtn{keyboard.BackButton("◀️ Назад", cbWorkerModels)},
	))
}

func (h *Handlers) deleteModelCallback(c tele.Context) error {
	modelID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Модель не найдена",
			keyboard.InlineButtons(keyboard.BackButton("◀️ Назад", cbWorkerModels)))
	}

	text := "⚠️ <b>Вы уверены, что хотите удалить эту модель?</b>\n\nЭто действие нельзя отменить!"
	return helpers.EditOrSendHTML(c, text, keyboard.InlineButtonsRows(
		[]keyboard.InlineBtn{{Text: "✅ Да, удалить", Unique: cbConfirmDelete, Data: strconv.FormatInt(modelID, 10)}},
		[]keyboard.InlineBtn{{Text: "❌ Отмена", Unique: cbModel, Data: strconv.FormatInt(modelID, 10)}},
	))
}

func (h *Handlers) confirmDeleteCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)
	back := keyboard.InlineButtons(keyboard.BackButton("◀️ К моделям", cbWorkerModels))

	modelID, err := callbacks.PayloadInt64(c)
	if err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка при удалении модели", back)
	}

	dctx, cancel := dbCtx(ctx)
	deleted, err := h.store.SoftDeleteProfile(dctx, modelID)
	cancel()
	if err != nil || !deleted {
		return helpers.EditOrSendHTML(c, "❌ Ошибка при удалении модели", back)
	}
	return helpers.EditOrSendHTML(c, "✅ Модель успешно удалена!", back)
}

// createModelCallback starts the listing creation flow.
func (h *Handlers) createModelCallback(c tele.Context) error {
	ctx := helpers.BuildContext(c)

	// The committer registers the worker on commit as well; this keeps the
	// panel row fresh before a long-running flow.
	if _, err := h.currentWorker(ctx, c); err != nil {
		return helpers.EditOrSendHTML(c, "❌ Ошибка")
	}

	res := h.engine.Begin(ctx, helpers.SenderID(c), h.profileForm)
	return h.renderResult(c, res, true)
}

func orText(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}

func servicesLine(services []string) string {
	if len(services) == 0 {
		return "не указаны"
	}
	shown := services
	if len(shown) > 5 {
		shown = shown[:5]
	}
	line := ""
	for i, s := range shown {
		if i > 0 {
			line += ", "
		}
		line += s
	}
	if extra := len(services) - len(shown); extra > 0 {
		line += fmt.Sprintf(" и ещё %d", extra)
	}
	return line
}
