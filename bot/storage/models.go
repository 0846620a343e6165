package storage

import (
	"strconv"
	"time"

	"github.com/lib/pq"
)

// Identity is the subset of a Telegram account stored alongside workers and
// their referred clients.
type Identity struct {
	TelegramID int64
	Username   string
	FirstName  string
	LastName   string
}

// Worker is a registered panel user who owns listings and a referral code.
type Worker struct {
	ID           int64      `db:"id"`
	TelegramID   int64      `db:"telegram_id"`
	Username     *string    `db:"username"`
	FirstName    *string    `db:"first_name"`
	LastName     *string    `db:"last_name"`
	ReferralCode string     `db:"referral_code"`
	LastActivity *time.Time `db:"last_activity"`
	CreatedAt    time.Time  `db:"created_at"`
}

// WorkerClient is a user who arrived through a worker's referral link.
type WorkerClient struct {
	ID         int64     `db:"id"`
	WorkerID   int64     `db:"worker_id"`
	TelegramID int64     `db:"telegram_id"`
	Username   *string   `db:"username"`
	FirstName  *string   `db:"first_name"`
	LastName   *string   `db:"last_name"`
	CreatedAt  time.Time `db:"created_at"`
}

// Profile is a published listing. Services and Images map to text[] columns.
type Profile struct {
	ID          int64          `db:"id"`
	WorkerID    int64          `db:"worker_id"`
	Name        string         `db:"name"`
	Age         int            `db:"age"`
	City        string         `db:"city"`
	Height      int            `db:"height"`
	Weight      int            `db:"weight"`
	Bust        int            `db:"bust"`
	Price       int            `db:"price"`
	Description string         `db:"description"`
	Services    pq.StringArray `db:"services"`
	Images      pq.StringArray `db:"images"`
	IsVerified  bool           `db:"is_verified"`
	IsActive    bool           `db:"is_active"`
	CreatedAt   time.Time      `db:"created_at"`
}

// NewProfile carries the fields collected by the creation flow.
type NewProfile struct {
	Name        string
	Age         int
	City        string
	Height      int
	Weight      int
	Bust        int
	Price       int
	Description string
	Services    []string
	Images      []string
}

// SiteSettings is the singleton settings row (id = 1).
type SiteSettings struct {
	ID              int64     `db:"id"`
	SupportUsername string    `db:"support_username"`
	PaymentCard     string    `db:"payment_card"`
	UpdatedAt       time.Time `db:"updated_at"`
}

// Settings column names accepted by UpdateSetting.
const (
	SettingPaymentCard     = "payment_card"
	SettingSupportUsername = "support_username"
)

// DisplayName renders a human label for panel lists, falling back to the
// username and then the numeric id.
func displayName(firstName, username *string, telegramID int64) string {
	if firstName != nil && *firstName != "" {
		return *firstName
	}
	if username != nil && *username != "" {
		return *username
	}
	return "ID: " + strconv.FormatInt(telegramID, 10)
}

// DisplayName renders a human label for the worker.
func (w *Worker) DisplayName() string {
	return displayName(w.FirstName, w.Username, w.TelegramID)
}

// DisplayName renders a human label for the client.
func (c *WorkerClient) DisplayName() string {
	return displayName(c.FirstName, c.Username, c.TelegramID)
}
