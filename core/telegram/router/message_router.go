package router

import (
	"time"

	tg "github.com/onenight/onenightbot/core/telegram"
	"github.com/onenight/onenightbot/core/telegram/middleware"

	tele "gopkg.in/telebot.v4"
)

// FormFlow is the minimal surface a multi-step form bridge exposes to the
// router: whether the user is mid-form, and handlers that feed the update
// into the active session.
type FormFlow interface {
	InProgress(userID int64) bool
	HandleText(c tele.Context) error
	HandlePhoto(c tele.Context) error
}

// MessageOptions controls fallback behaviour for text and photo updates.
type MessageOptions struct {
	UnknownText  tele.HandlerFunc
	UnknownPhoto tele.HandlerFunc
}

// MessageRoutes builds text and photo routes. Updates from users with an
// active form session go to the form bridge first; everything else falls back
// to commands typed as plain text and then the registry fallback.
func MessageRoutes(flow FormFlow, reg *tg.Registry, opts MessageOptions) []tg.Route {
	textHandler := func(c tele.Context) error {
		start := time.Now()
		sender := c.Sender()

		if flow != nil && sender != nil && flow.InProgress(sender.ID) {
			return handleWithSummary(c, "form.text", start, func() error {
				return flow.HandleText(c)
			})
		}

		if reg != nil {
			if cmd, ok := reg.LookupCommand(c.Text()); ok && cmd.Handler != nil {
				name := normalizeHandlerName(c.Text())
				return handleWithSummary(c, name, start, func() error {
					return cmd.Handler(c)
				})
			}
			if fb := reg.TextFallback(); fb != nil {
				return handleWithSummary(c, "fallback", start, func() error {
					return fb(c)
				})
			}
		}

		if opts.UnknownText != nil {
			return handleWithSummary(c, "unknown_text", start, func() error {
				return opts.UnknownText(c)
			})
		}

		logHandlerSummary(c, "unknown_text", start, nil)
		return nil
	}

	photoHandler := func(c tele.Context) error {
		start := time.Now()
		sender := c.Sender()

		if flow != nil && sender != nil && flow.InProgress(sender.ID) {
			return handleWithSummary(c, "form.photo", start, func() error {
				return flow.HandlePhoto(c)
			})
		}
		if opts.UnknownPhoto != nil {
			return handleWithSummary(c, "unexpected_photo", start, func() error {
				return opts.UnknownPhoto(c)
			})
		}
		logHandlerSummary(c, "unexpected_photo", start, nil)
		return nil
	}

	return []tg.Route{
		{
			Endpoint: tele.OnText,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(textHandler)),
		},
		{
			Endpoint: tele.OnPhoto,
			Handler:  middleware.RecoverMiddleware(middleware.LoggerMiddleware(photoHandler)),
		},
	}
}
