package form

import (
	"context"
	"fmt"

	"github.com/hashicorp/go-multierror"
	"github.com/onenight/onenightbot/bot/storage"
	"github.com/onenight/onenightbot/core/telegram/format"
)

// ProfileCreator persists a completed listing draft.
type ProfileCreator interface {
	CreateProfile(ctx context.Context, workerTelegramID int64, p storage.NewProfile) (*storage.Profile, error)
}

// ProfileCommitter turns an accepted draft into a stored profile.
type ProfileCommitter struct {
	store ProfileCreator
}

// NewProfileCommitter wires the committer to its storage backend.
func NewProfileCommitter(store ProfileCreator) *ProfileCommitter {
	return &ProfileCommitter{store: store}
}

// Commit validates draft completeness, persists the profile and returns the
// success message. Storage failures come back as *BackendError alongside the
// retry text, leaving the session intact.
func (c *ProfileCommitter) Commit(ctx context.Context, userID int64, d Draft) (string, error) {
	if err := checkComplete(d); err != nil {
		return "❌ Ошибка при создании модели. Попробуйте позже.",
			&BackendError{Op: "profile.validate", Err: err}
	}

	p := storage.NewProfile{
		Name:        d.String(FieldName),
		Age:         d.Int(FieldAge),
		City:        d.String(FieldCity),
		Height:      d.Int(FieldHeight),
		Weight:      d.Int(FieldWeight),
		Bust:        d.Int(FieldBust),
		Price:       d.Int(FieldPrice),
		Description: d.String(FieldDescription),
		Services:    d.Strings(FieldServices),
		Images:      d.Strings(FieldImages),
	}

	created, err := c.store.CreateProfile(ctx, userID, p)
	if err != nil {
		return "❌ Ошибка при создании модели. Попробуйте позже.",
			&BackendError{Op: "profile.create", Err: err}
	}

	return fmt.Sprintf("✅ <b>Модель успешно создана!</b>\n\n"+
		"👤 %s, %d\n"+
		"📍 %s\n"+
		"💰 %d ₽/час\n\n"+
		"Модель уже отображается на сайте!",
		format.EscapeHTML(created.Name), created.Age, format.EscapeHTML(created.City), created.Price), nil
}

// checkComplete verifies every required field made it into the draft.
// Optional fields (description) may be empty but must be present.
func checkComplete(d Draft) error {
	var result *multierror.Error

	for _, key := range []string{FieldName, FieldCity} {
		if d.String(key) == "" {
			result = multierror.Append(result, fmt.Errorf("missing %s", key))
		}
	}
	for _, key := range []string{FieldAge, FieldHeight, FieldWeight, FieldBust, FieldPrice} {
		if d.Int(key) <= 0 {
			result = multierror.Append(result, fmt.Errorf("missing %s", key))
		}
	}
	for _, key := range []string{FieldServices, FieldImages} {
		if len(d.Strings(key)) == 0 {
			result = multierror.Append(result, fmt.Errorf("missing %s", key))
		}
	}
	if !d.Has(FieldDescription) {
		result = multierror.Append(result, fmt.Errorf("missing %s", FieldDescription))
	}

	return result.ErrorOrNil()
}
