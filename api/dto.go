/*
dto.go - Data Transfer Objects for API requests and responses

PURPOSE:
  JSON structures for API communication, decoupled from the domain types
  so internal fields can move without breaking clients.

NAMING CONVENTION:
  - *DTO: Response types returned to clients
  - *Request: Request body types from clients

VALIDATION:
  Done in handlers; DTOs are pure data carriers.

SEE ALSO:
  - handlers.go: Uses these types
*/
package api

import (
	"time"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/motivation"
	"github.com/cleanslate/tracker/recovery"
)

// =============================================================================
// USERS & AUTH
// =============================================================================

// UserDTO represents a user in API responses. The PIN hash never leaves
// the server; clients only learn whether a PIN is set.
type UserDTO struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	FirstName         string `json:"first_name,omitempty"`
	LastName          string `json:"last_name,omitempty"`
	WeeklySpendCents  int64  `json:"weekly_spend_cents"`
	StartDate         string `json:"start_date,omitempty"`
	DaysSinceStart    int    `json:"days_since_start"`
	LongestStreakDays int    `json:"longest_streak_days"`
	HasPin            bool   `json:"has_pin"`
	IsAdmin           bool   `json:"is_admin"`
	CreatedAt         string `json:"created_at,omitempty"`
}

// SignupRequest creates an account. The first account becomes the admin.
type SignupRequest struct {
	Username         string `json:"username"`
	FirstName        string `json:"first_name,omitempty"`
	LastName         string `json:"last_name,omitempty"`
	Pin              string `json:"pin,omitempty"`
	WeeklySpendCents int64  `json:"weekly_spend_cents,omitempty"`
	StartDate        string `json:"start_date,omitempty"` // ISO date; defaults to today
}

// LoginRequest authenticates by username plus the PIN if one is set.
type LoginRequest struct {
	Username string `json:"username"`
	Pin      string `json:"pin,omitempty"`
}

// AuthResponse carries the bearer token and the authenticated user.
type AuthResponse struct {
	Token string  `json:"token"`
	User  UserDTO `json:"user"`
}

// UpdateProfileRequest edits the caller's own profile. Nil fields are
// left unchanged; an empty Pin string clears the PIN.
type UpdateProfileRequest struct {
	FirstName        *string `json:"first_name,omitempty"`
	LastName         *string `json:"last_name,omitempty"`
	WeeklySpendCents *int64  `json:"weekly_spend_cents,omitempty"`
	StartDate        *string `json:"start_date,omitempty"`
	Pin              *string `json:"pin,omitempty"`
}

// SetupStatusDTO tells a fresh client whether first-run setup is needed.
type SetupStatusDTO struct {
	NeedsSetup bool `json:"needs_setup"`
	UserCount  int  `json:"user_count"`
}

// =============================================================================
// DAILY LOGS & JOURNAL
// =============================================================================

// DailyLogDTO represents one day's log entry.
type DailyLogDTO struct {
	ID          string `json:"id"`
	Day         string `json:"day"`
	Used        bool   `json:"used"`
	Context     string `json:"context,omitempty"`
	Paid        bool   `json:"paid,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
	Journal     string `json:"journal,omitempty"`
	Mood        int    `json:"mood,omitempty"`
	CreatedAt   string `json:"created_at,omitempty"`
	UpdatedAt   string `json:"updated_at,omitempty"`
}

// SubmitLogRequest records a clean or use day.
type SubmitLogRequest struct {
	Day         string `json:"day,omitempty"` // ISO date; defaults to today
	Used        bool   `json:"used"`
	Context     string `json:"context,omitempty"`
	Paid        bool   `json:"paid,omitempty"`
	AmountCents int64  `json:"amount_cents,omitempty"`
}

// SubmitLogResponse reports the saved log plus derived streak state.
// AlreadyLogged means the day had been awarded before this call.
type SubmitLogResponse struct {
	Log           DailyLogDTO `json:"log"`
	AlreadyLogged bool        `json:"already_logged"`
	CurrentStreak int         `json:"current_streak"`
	LongestStreak int         `json:"longest_streak"`
}

// StreakDTO is the derived streak state.
type StreakDTO struct {
	CurrentStreak int `json:"current_streak"`
	LongestStreak int `json:"longest_streak"`
}

// JournalRequest writes today's journal entry.
type JournalRequest struct {
	Journal string `json:"journal"`
	Mood    int    `json:"mood,omitempty"` // 1-5, 0 = unset
}

// =============================================================================
// BANK & SAVINGS
// =============================================================================

// TransactionDTO represents a point ledger entry.
type TransactionDTO struct {
	ID        string `json:"id"`
	Points    int    `json:"points"`
	Type      string `json:"type"`
	Note      string `json:"note,omitempty"`
	Day       string `json:"day"`
	CreatedAt string `json:"created_at,omitempty"`
}

// BankSummaryDTO is the derived point balance plus history, newest first.
type BankSummaryDTO struct {
	Balance      int              `json:"balance"`
	Earned       int              `json:"earned"`
	Spent        int              `json:"spent"`
	Transactions []TransactionDTO `json:"transactions"`
}

// MoneyEventDTO represents a money ledger entry.
type MoneyEventDTO struct {
	ID          string `json:"id"`
	AmountCents int64  `json:"amount_cents"`
	Type        string `json:"type"`
	Note        string `json:"note,omitempty"`
	Day         string `json:"day"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// SavingsSummaryDTO is the derived money state plus history, newest first.
// NetDollars is the display form of NetCents, e.g. "19.50".
type SavingsSummaryDTO struct {
	SavedCents int64           `json:"saved_cents"`
	SpentCents int64           `json:"spent_cents"`
	NetCents   int64           `json:"net_cents"`
	NetDollars string          `json:"net_dollars"`
	PerDay     int64           `json:"per_day_cents"`
	Events     []MoneyEventDTO `json:"events"`
}

// SetPointsRequest moves a user's balance to an exact value.
type SetPointsRequest struct {
	Points int `json:"points"`
}

// SetPointsResponse reports the adjustment that was appended.
type SetPointsResponse struct {
	Previous int `json:"previous"`
	Balance  int `json:"balance"`
	Delta    int `json:"delta"`
}

// =============================================================================
// PRIZES
// =============================================================================

// PrizeDTO represents a prize in API responses.
type PrizeDTO struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CostPoints  int    `json:"cost_points"`
	Active      bool   `json:"active"`
	CreatedAt   string `json:"created_at,omitempty"`
}

// PrizeRequest creates or updates a prize.
type PrizeRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	CostPoints  int    `json:"cost_points"`
}

// PurchaseDTO represents a redemption.
type PurchaseDTO struct {
	ID        string `json:"id"`
	PrizeID   string `json:"prize_id"`
	CreatedAt string `json:"created_at,omitempty"`
}

// PurchaseResponse reports the redemption plus the new derived balance.
type PurchaseResponse struct {
	Purchase PurchaseDTO `json:"purchase"`
	Prize    PrizeDTO    `json:"prize"`
	Balance  int         `json:"balance"`
}

// =============================================================================
// MOTIVATION (quotes, checklist, breathing)
// =============================================================================

// QuoteDTO represents one motivational quote.
type QuoteDTO struct {
	Text   string `json:"text"`
	Author string `json:"author,omitempty"`
	Source string `json:"source,omitempty"`
}

// ChecklistItemDTO describes one fixed checklist item.
type ChecklistItemDTO struct {
	ID          string `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Category    string `json:"category,omitempty"`
}

// ChecklistDTO is the day's checklist state alongside the item set.
type ChecklistDTO struct {
	Day     string             `json:"day"`
	Items   []ChecklistItemDTO `json:"items"`
	Checked []bool             `json:"checked"`
	Scored  string             `json:"scored"` // "", "complete", "missed"
}

// SetChecklistRequest replaces the day's checked state.
type SetChecklistRequest struct {
	Checked []bool `json:"checked"`
}

// ChecklistResponse reports the saved state; Awarded is true when this
// call triggered the completion award.
type ChecklistResponse struct {
	Checklist ChecklistDTO `json:"checklist"`
	Awarded   bool         `json:"awarded"`
}

// ScoreChecklistRequest applies an explicit day result.
type ScoreChecklistRequest struct {
	Day    string `json:"day"`
	Status string `json:"status"` // "complete" or "missed"
}

// BreathDTO is the day's breathing session state.
type BreathDTO struct {
	Day    string `json:"day"`
	Count  int    `json:"count"`
	Scored bool   `json:"scored"`
}

// BreathResponse reports a recorded session; Awarded is true when this
// session was the scoring one.
type BreathResponse struct {
	Breath  BreathDTO `json:"breath"`
	Awarded bool      `json:"awarded"`
}

// ErrorResponse is the standard error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    string `json:"code,omitempty"`
	Details any    `json:"details,omitempty"`
}

// =============================================================================
// CONVERSION HELPERS
// =============================================================================

func toUserDTO(u recovery.User) UserDTO {
	dto := UserDTO{
		ID:                u.ID,
		Username:          u.Username,
		FirstName:         u.FirstName,
		LastName:          u.LastName,
		WeeklySpendCents:  u.WeeklySpendCents,
		LongestStreakDays: u.LongestStreakDays,
		HasPin:            u.PinHash != "",
		IsAdmin:           u.IsAdmin,
		CreatedAt:         u.CreatedAt.Format(time.RFC3339),
	}
	if !u.StartDate.IsZero() {
		dto.StartDate = u.StartDate.Format("2006-01-02")
		dto.DaysSinceStart = ledger.Today().DaysSince(ledger.DayOf(u.StartDate))
	}
	return dto
}

func toDailyLogDTO(l recovery.DailyLog) DailyLogDTO {
	return DailyLogDTO{
		ID:          l.ID,
		Day:         l.Day.String(),
		Used:        l.Used,
		Context:     l.Context,
		Paid:        l.Paid,
		AmountCents: l.AmountCents,
		Journal:     l.Journal,
		Mood:        l.Mood,
		CreatedAt:   l.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   l.UpdatedAt.Format(time.RFC3339),
	}
}

func toDailyLogDTOs(logs []recovery.DailyLog) []DailyLogDTO {
	dtos := make([]DailyLogDTO, len(logs))
	for i, l := range logs {
		dtos[i] = toDailyLogDTO(l)
	}
	return dtos
}

func toTransactionDTOs(txs []ledger.Transaction) []TransactionDTO {
	dtos := make([]TransactionDTO, len(txs))
	for i, tx := range txs {
		dtos[i] = TransactionDTO{
			ID:        tx.ID,
			Points:    tx.Points,
			Type:      string(tx.Type),
			Note:      tx.Note,
			Day:       tx.Day.String(),
			CreatedAt: tx.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

func toMoneyEventDTOs(evs []ledger.MoneyEvent) []MoneyEventDTO {
	dtos := make([]MoneyEventDTO, len(evs))
	for i, ev := range evs {
		dtos[i] = MoneyEventDTO{
			ID:          ev.ID,
			AmountCents: ev.AmountCents,
			Type:        string(ev.Type),
			Note:        ev.Note,
			Day:         ev.Day.String(),
			CreatedAt:   ev.CreatedAt.Format(time.RFC3339),
		}
	}
	return dtos
}

func toPrizeDTO(p recovery.Prize) PrizeDTO {
	return PrizeDTO{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		CostPoints:  p.CostPoints,
		Active:      p.Active,
		CreatedAt:   p.CreatedAt.Format(time.RFC3339),
	}
}

func toPurchaseDTO(p recovery.Purchase) PurchaseDTO {
	return PurchaseDTO{
		ID:        p.ID,
		PrizeID:   p.PrizeID,
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}

func toQuoteDTOs(quotes []motivation.Quote) []QuoteDTO {
	dtos := make([]QuoteDTO, len(quotes))
	for i, q := range quotes {
		dtos[i] = QuoteDTO{Text: q.Text, Author: q.Author, Source: q.Source}
	}
	return dtos
}

func toChecklistDTO(c recovery.ChecklistDay) ChecklistDTO {
	items := make([]ChecklistItemDTO, len(recovery.ChecklistItems))
	for i, item := range recovery.ChecklistItems {
		items[i] = ChecklistItemDTO{
			ID:          item.ID,
			Title:       item.Title,
			Description: item.Description,
			Category:    item.Category,
		}
	}
	checked := c.Checked
	if checked == nil {
		checked = make([]bool, len(items))
	}
	return ChecklistDTO{
		Day:     c.Day.String(),
		Items:   items,
		Checked: checked,
		Scored:  string(c.Scored),
	}
}

func toBreathDTO(b recovery.BreathDay) BreathDTO {
	return BreathDTO{Day: b.Day.String(), Count: b.Count, Scored: b.Scored}
}
