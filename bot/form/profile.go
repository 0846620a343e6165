package form

import (
	"fmt"
	"strings"
	"time"

	"github.com/onenight/onenightbot/core/telegram/format"
)

// Draft field keys used by the profile-creation flow.
const (
	FieldName        = "name"
	FieldAge         = "age"
	FieldCity        = "city"
	FieldHeight      = "height"
	FieldWeight      = "weight"
	FieldBust        = "bust"
	FieldPrice       = "price"
	FieldDescription = "description"
	FieldServices    = "services"
	FieldImages      = "images"
)

// ProfileOptions configures catalog defaults for the profile-creation form.
type ProfileOptions struct {
	// DefaultServices substitutes for a skipped services step.
	DefaultServices []string
	// PlaceholderImage substitutes when the photo step closes empty.
	PlaceholderImage string
	// Timeout is the session idle limit.
	Timeout time.Duration
}

// NewProfileForm builds the ten-step listing creation flow. Each prompt
// echoes the value accepted on the previous step.
func NewProfileForm(opts ProfileOptions, commit CommitFunc) *Form {
	defaults := opts.DefaultServices
	placeholder := opts.PlaceholderImage

	return &Form{
		Name:       "profile_create",
		Timeout:    opts.Timeout,
		CancelText: "❌ Создание модели отменено",
		Commit:     commit,
		Steps: []Step{
			{
				ID:    "name",
				Field: FieldName,
				Prompt: func(Draft) string {
					return "➕ <b>Создание новой модели</b>\n\n" +
						"Шаг 1/10: Введите <b>имя</b> модели\n\n" +
						"<i>Например: Анна, Виктория, Мария</i>"
				},
				Validate: validateName,
			},
			{
				ID:    "age",
				Field: FieldAge,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Имя: <b>%s</b>\n\n"+
						"Шаг 2/10: Введите <b>возраст</b> (18-60)", format.EscapeHTML(d.String(FieldName)))
				},
				Validate: intInRange("age", 18, 60, "❌ Введите корректный возраст (18-60):"),
			},
			{
				ID:    "city",
				Field: FieldCity,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Возраст: <b>%d</b>\n\n"+
						"Шаг 3/10: Введите <b>город</b>\n\n"+
						"<i>Например: Москва, Санкт-Петербург, Казань</i>", d.Int(FieldAge))
				},
				Validate: validateCity,
			},
			{
				ID:    "height",
				Field: FieldHeight,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Город: <b>%s</b>\n\n"+
						"Шаг 4/10: Введите <b>рост</b> в см (140-210)", format.EscapeHTML(d.String(FieldCity)))
				},
				Validate: intInRange("height", 140, 210, "❌ Введите корректный рост (140-210 см):"),
			},
			{
				ID:    "weight",
				Field: FieldWeight,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Рост: <b>%d см</b>\n\n"+
						"Шаг 5/10: Введите <b>вес</b> в кг (35-120)", d.Int(FieldHeight))
				},
				Validate: intInRange("weight", 35, 120, "❌ Введите корректный вес (35-120 кг):"),
			},
			{
				ID:    "bust",
				Field: FieldBust,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Вес: <b>%d кг</b>\n\n"+
						"Шаг 6/10: Введите <b>размер груди</b> (1-10)", d.Int(FieldWeight))
				},
				Validate: intInRange("bust", 1, 10, "❌ Введите корректный размер груди (1-10):"),
			},
			{
				ID:    "price",
				Field: FieldPrice,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Грудь: <b>%d</b>\n\n"+
						"Шаг 7/10: Введите <b>цену за час</b> в рублях (от 1000)", d.Int(FieldBust))
				},
				Validate: validatePrice,
			},
			{
				ID:    "description",
				Field: FieldDescription,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("✅ Цена: <b>%d ₽/час</b>\n\n"+
						"Шаг 8/10: Введите <b>описание</b> модели\n\n"+
						"<i>Опишите внешность, характер, особенности</i>", d.Int(FieldPrice))
				},
				Validate:  validateDescription,
				Skippable: true,
				SkipValue: func() any { return "" },
			},
			{
				ID:    "services",
				Field: FieldServices,
				Prompt: func(Draft) string {
					return "Шаг 9/10: Введите <b>услуги</b> через запятую\n\n" +
						"<i>Например: Классика, Минет, Массаж, Эскорт</i>"
				},
				Validate:  validateServices,
				Skippable: true,
				SkipValue: func() any {
					return append([]string(nil), defaults...)
				},
			},
			{
				ID:    "images",
				Field: FieldImages,
				Prompt: func(d Draft) string {
					return fmt.Sprintf("📸 <b>Шаг 10/10: Отправьте фото</b>\n\n"+
						"Загружено: <b>%d</b> фото\n\n"+
						"Отправляйте фото из галереи (jpg, png).\n"+
						"Можно отправлять по одному или несколько сразу.\n\n"+
						"<i>Когда закончите — нажмите «✅ Готово»</i>", len(d.Strings(FieldImages)))
				},
				Photos: true,
				DoneDefault: func() any {
					return []string{placeholder}
				},
				Receipt: func(count int) string {
					return fmt.Sprintf("✅ Фото #%d загружено!\n\n"+
						"Всего фото: <b>%d</b>\n\n"+
						"Отправьте ещё фото или нажмите «✅ Готово»", count, count)
				},
				Reject: "❌ Пожалуйста, отправьте фото из галереи, а не текст.\n" +
					"Нажмите 📎 и выберите фото.",
			},
		},
		ConfirmPrompt: confirmSummary,
	}
}

// confirmSummary renders the review card shown before committing.
func confirmSummary(d Draft) string {
	services := d.Strings(FieldServices)
	if len(services) > 5 {
		services = services[:5]
	}

	description := d.String(FieldDescription)
	if description == "" {
		description = "не указано"
	} else if n := []rune(description); len(n) > 100 {
		description = string(n[:100]) + "..."
	}
	description = format.EscapeHTML(description)

	return fmt.Sprintf("📋 <b>Проверьте данные модели:</b>\n\n"+
		"👤 Имя: <b>%s</b>\n"+
		"🎂 Возраст: <b>%d</b>\n"+
		"📍 Город: <b>%s</b>\n"+
		"📏 Рост: <b>%d см</b>\n"+
		"⚖️ Вес: <b>%d кг</b>\n"+
		"👙 Грудь: <b>%d</b>\n"+
		"💰 Цена: <b>%d ₽/час</b>\n"+
		"📝 Описание: %s\n"+
		"🔧 Услуги: %s\n"+
		"🖼 Фото: %d\n\n"+
		"Всё верно?",
		format.EscapeHTML(d.String(FieldName)), d.Int(FieldAge),
		format.EscapeHTML(d.String(FieldCity)),
		d.Int(FieldHeight), d.Int(FieldWeight), d.Int(FieldBust), d.Int(FieldPrice),
		description, format.EscapeHTML(strings.Join(services, ", ")), len(d.Strings(FieldImages)))
}

// NewSingleFieldForm builds a one-step flow that commits as soon as its input
// validates. Used for the settings edits in the admin panel.
func NewSingleFieldForm(name, field, prompt string, timeout time.Duration, validate func(string) (any, error), commit CommitFunc) *Form {
	return &Form{
		Name:    name,
		Timeout: timeout,
		Commit:  commit,
		Steps: []Step{
			{
				ID:       StepID(field),
				Field:    field,
				Prompt:   func(Draft) string { return prompt },
				Validate: validate,
			},
		},
	}
}
