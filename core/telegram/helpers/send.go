package helpers

import (
	"errors"

	"log/slog"
	"sync/atomic"

	"github.com/onenight/onenightbot/core/logger"
	"github.com/onenight/onenightbot/core/telegram/sender"

	tele "gopkg.in/telebot.v4"
)

var globalDispatcher atomic.Pointer[sender.Dispatcher]

// SetDispatcher wires the asynchronous sender used by helper functions.
func SetDispatcher(d *sender.Dispatcher) {
	globalDispatcher.Store(d)
}

func currentDispatcher() *sender.Dispatcher {
	return globalDispatcher.Load()
}

func sendAsync(c tele.Context, action, endpoint string, run func() error) error {
	disp := currentDispatcher()
	if disp == nil {
		return run()
	}

	ctx := BuildContext(c)
	err := disp.Enqueue(ctx, SenderID(c), action, endpoint, run)
	if errors.Is(err, sender.ErrQueueFull) {
		// Running the send inline here would overtake replies already
		// queued for this user. Wait for a lane slot instead.
		logger.Warn(ctx, "tg.sender", "queue.wait",
			slog.String("action", action),
		)
		err = disp.EnqueueWait(ctx, SenderID(c), action, endpoint, run)
	}
	if errors.Is(err, sender.ErrQueueClosed) {
		// Shutdown path: the lanes are drained, ordering is moot.
		logger.Warn(ctx, "tg.sender", "queue.fallback",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
		return run()
	}
	return err
}

// Async runs a background task on the sender's ordered lane, keeping it
// serialized with outbound messages for the same user. Falls back to a
// goroutine when no dispatcher is wired (tests).
func Async(c tele.Context, action string, run func() error) {
	disp := currentDispatcher()
	ctx := BuildContext(c)
	if disp == nil {
		go func() {
			if err := run(); err != nil {
				logger.Warn(ctx, "tg", "async.fail",
					slog.String("action", action),
					slog.String("err", err.Error()),
				)
			}
		}()
		return
	}
	if err := disp.Enqueue(ctx, SenderID(c), action, "", run); err != nil {
		logger.Warn(ctx, "tg", "async.drop",
			slog.String("action", action),
			slog.String("err", err.Error()),
		)
	}
}

// SendText sends raw text (no parse mode) to the current recipient.
func SendText(c tele.Context, text string, opts ...*tele.SendOptions) error {
	var sendOpts *tele.SendOptions
	if len(opts) > 0 {
		sendOpts = opts[0]
	}
	return sendAsync(c, "send.text", "sendMessage", func() error {
		if sendOpts != nil {
			return c.Send(text, sendOpts)
		}
		return c.Send(text)
	})
}

// SendHTML sends a message with HTML parse mode and optional reply markup.
func SendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return SendText(c, text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: rm})
}

// EditHTML edits the current message with HTML parse mode.
func EditHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return c.Edit(text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: rm})
}

// EditOrSendHTML tries to edit the message or sends a new one if edit fails.
// Panel callbacks edit in place; text answers always send fresh messages.
func EditOrSendHTML(c tele.Context, text string, markup ...*tele.ReplyMarkup) error {
	var rm *tele.ReplyMarkup
	if len(markup) > 0 {
		rm = markup[0]
	}
	return c.EditOrSend(text, &tele.SendOptions{ParseMode: tele.ModeHTML, ReplyMarkup: rm})
}
