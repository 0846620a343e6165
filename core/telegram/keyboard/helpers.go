package keyboard

import tele "gopkg.in/telebot.v4"

// InlineBtn describes a convenience wrapper for inline button properties.
type InlineBtn struct {
	Text   string
	Unique string
	Data   string
	URL    string
	WebApp string
}

// InlineButtons builds an inline keyboard where each button sits on its own row.
func InlineButtons(buttons ...InlineBtn) *tele.ReplyMarkup {
	rows := make([][]InlineBtn, 0, len(buttons))
	for _, b := range buttons {
		rows = append(rows, []InlineBtn{b})
	}
	return InlineButtonsRows(rows...)
}

// InlineButtonsRows builds an inline keyboard from rows of InlineBtn.
func InlineButtonsRows(rows ...[]InlineBtn) *tele.ReplyMarkup {
	markup := &tele.ReplyMarkup{}
	inline := make([][]tele.InlineButton, len(rows))
	for i, row := range rows {
		r := make([]tele.InlineButton, len(row))
		for j, btn := range row {
			r[j] = toInline(markup, btn)
		}
		inline[i] = r
	}
	markup.InlineKeyboard = inline
	return markup
}

func toInline(markup *tele.ReplyMarkup, btn InlineBtn) tele.InlineButton {
	switch {
	case btn.WebApp != "":
		return *markup.WebApp(btn.Text, &tele.WebApp{URL: btn.WebApp}).Inline()
	case btn.URL != "":
		return *markup.URL(btn.Text, btn.URL).Inline()
	default:
		return *markup.Data(btn.Text, btn.Unique, btn.Data).Inline()
	}
}

// WebAppButton builds a single-button keyboard opening a web application.
func WebAppButton(text, url string) *tele.ReplyMarkup {
	return InlineButtons(InlineBtn{Text: text, WebApp: url})
}

// BackButton builds a navigation button targeting the given callback key.
func BackButton(text, unique string) InlineBtn {
	return InlineBtn{Text: text, Unique: unique}
}
