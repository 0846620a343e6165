package form

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/onenight/onenightbot/bot/storage"
)

type fakeProfileStore struct {
	created *storage.NewProfile
	ownerID int64
	err     error
}

func (f *fakeProfileStore) CreateProfile(_ context.Context, workerTelegramID int64, p storage.NewProfile) (*storage.Profile, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.created = &p
	f.ownerID = workerTelegramID
	return &storage.Profile{
		ID:    1,
		Name:  p.Name,
		Age:   p.Age,
		City:  p.City,
		Price: p.Price,
	}, nil
}

func completeDraft() Draft {
	return Draft{
		FieldName:        "Анна",
		FieldAge:         25,
		FieldCity:        "Москва",
		FieldHeight:      170,
		FieldWeight:      55,
		FieldBust:        3,
		FieldPrice:       5000,
		FieldDescription: "",
		FieldServices:    []string{"Классика"},
		FieldImages:      []string{"https://img.example.com/1.jpg"},
	}
}

func TestCommitterMapsDraftToProfile(t *testing.T) {
	store := &fakeProfileStore{}
	c := NewProfileCommitter(store)

	msg, err := c.Commit(context.Background(), 777, completeDraft())
	if err != nil {
		t.Fatalf("commit: %v", err)
	}
	if !strings.Contains(msg, "Модель успешно создана") {
		t.Fatalf("success message = %q", msg)
	}
	if store.ownerID != 777 {
		t.Fatalf("owner id = %d", store.ownerID)
	}
	if store.created.Name != "Анна" || store.created.Age != 25 || store.created.Price != 5000 {
		t.Fatalf("created profile = %+v", store.created)
	}
}

func TestCommitterRejectsIncompleteDraft(t *testing.T) {
	store := &fakeProfileStore{}
	c := NewProfileCommitter(store)

	d := completeDraft()
	delete(d, FieldDescription)
	d[FieldName] = ""

	_, err := c.Commit(context.Background(), 1, d)
	var berr *BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want *BackendError", err)
	}
	if berr.Op != "profile.validate" {
		t.Fatalf("op = %q", berr.Op)
	}
	if store.created != nil {
		t.Fatal("incomplete draft must not reach the store")
	}
}

func TestCommitterWrapsStoreFailure(t *testing.T) {
	store := &fakeProfileStore{err: errors.New("db down")}
	c := NewProfileCommitter(store)

	msg, err := c.Commit(context.Background(), 1, completeDraft())
	var berr *BackendError
	if !errors.As(err, &berr) {
		t.Fatalf("err = %v, want *BackendError", err)
	}
	if berr.Op != "profile.create" {
		t.Fatalf("op = %q", berr.Op)
	}
	if !strings.Contains(msg, "Попробуйте позже") {
		t.Fatalf("retry message = %q", msg)
	}
}
