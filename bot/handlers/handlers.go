// Package handlers wires Telegram commands and callbacks to the listing
// storage, the settings cache and the form engine.
package handlers

import (
	"context"
	"sync/atomic"
	"time"

	coreconfig "github.com/onenight/onenightbot/core/config"
	tg "github.com/onenight/onenightbot/core/telegram"
	"github.com/onenight/onenightbot/core/telegram/commands"

	"github.com/onenight/onenightbot/bot/form"
	"github.com/onenight/onenightbot/bot/settings"
	"github.com/onenight/onenightbot/bot/storage"

	tele "gopkg.in/telebot.v4"
)

// Callback keys used by the panels.
const (
	cbWorkerMenu    = "worker_menu"
	cbWorkerClients = "worker_clients"
	cbWorkerModels  = "worker_models"
	cbClient        = "client"
	cbModel         = "model"
	cbDeleteModel   = "delete_model"
	cbConfirmDelete = "confirm_delete"
	cbCreateModel   = "create_model"
	cbCopyRef       = "copy_ref"

	cbAdminMenu        = "admin_menu"
	cbAdminEditCard    = "admin_edit_card"
	cbAdminEditSupport = "admin_edit_support"
	cbAdminAllModels   = "admin_all_models"
	cbAdminAllWorkers  = "admin_all_workers"
)

// Handlers owns every bot-facing handler and its dependencies.
type Handlers struct {
	cfg      *coreconfig.Config
	store    *storage.Store
	settings *settings.Cache
	engine   *form.Engine

	profileForm *form.Form

	// bot is set once polling starts; needed for photo URL resolution and
	// referral deep links.
	bot atomic.Pointer[tele.Bot]
}

// New builds the handler set. The profile form is constructed once and shared
// across sessions; per-user state lives in the engine's session store.
func New(cfg *coreconfig.Config, store *storage.Store, cache *settings.Cache, engine *form.Engine) *Handlers {
	h := &Handlers{
		cfg:      cfg,
		store:    store,
		settings: cache,
		engine:   engine,
	}
	committer := form.NewProfileCommitter(store)
	h.profileForm = form.NewProfileForm(form.ProfileOptions{
		DefaultServices:  cfg.Catalog.DefaultServices,
		PlaceholderImage: cfg.Catalog.PlaceholderImage,
		Timeout:          time.Duration(cfg.Form.SessionTimeoutSeconds) * time.Second,
	}, committer.Commit)
	return h
}

// SetBot stores the live bot once it is built.
func (h *Handlers) SetBot(b *tele.Bot) {
	h.bot.Store(b)
}

func (h *Handlers) botUsername() string {
	if b := h.bot.Load(); b != nil && b.Me != nil {
		return b.Me.Username
	}
	return ""
}

func (h *Handlers) adminTimeout() time.Duration {
	return time.Duration(h.cfg.Form.AdminTimeoutSeconds) * time.Second
}

// Register wires all commands and callbacks into the registry.
func (h *Handlers) Register(reg *tg.Registry) {
	reg.RegisterCommand("/start", commands.Command{
		Handler:     h.Start,
		Description: "Открыть OneNight",
	})
	reg.RegisterCommand("/worker", commands.Command{
		Handler:     h.WorkerPanel,
		Description: "Воркер панель",
		Hidden:      true,
	})
	reg.RegisterCommand("/admin", commands.Command{
		Handler:     h.AdminPanel,
		Description: "Админ панель",
		AdminOnly:   true,
		Hidden:      true,
	})

	reg.SetTextFallback(h.UnknownText)

	for key, handler := range map[string]tele.HandlerFunc{
		cbWorkerMenu:    h.workerMenuCallback,
		cbWorkerClients: h.workerClientsCallback,
		cbWorkerModels:  h.workerModelsCallback,
		cbClient:        h.clientDetailCallback,
		cbModel:         h.modelDetailCallback,
		cbDeleteModel:   h.deleteModelCallback,
		cbConfirmDelete: h.confirmDeleteCallback,
		cbCreateModel:   h.createModelCallback,
		cbCopyRef:       h.copyRefCallback,

		cbAdminMenu:        h.adminMenuCallback,
		cbAdminEditCard:    h.adminEditCardCallback,
		cbAdminEditSupport: h.adminEditSupportCallback,
		cbAdminAllModels:   h.adminAllModelsCallback,
		cbAdminAllWorkers:  h.adminAllWorkersCallback,

		form.ActionCancel:  h.formActionCallback(form.EventCancel),
		form.ActionSkip:    h.formActionCallback(form.EventSkip),
		form.ActionDone:    h.formActionCallback(form.EventDone),
		form.ActionConfirm: h.formActionCallback(form.EventConfirm),
	} {
		_ = reg.RegisterCallback(key, handler)
	}
}

func identityFrom(u *tele.User) storage.Identity {
	if u == nil {
		return storage.Identity{}
	}
	return storage.Identity{
		TelegramID: u.ID,
		Username:   u.Username,
		FirstName:  u.FirstName,
		LastName:   u.LastName,
	}
}

func dbCtx(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 5*time.Second)
}
