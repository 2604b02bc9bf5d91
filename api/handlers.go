/*
handlers.go - HTTP API handlers for the recovery tracker

PURPOSE:
  Exposes the tracker via REST API. Handles HTTP request/response, JSON
  serialization, and delegates to the domain engines.

ENDPOINTS:
  Setup & auth:
    GET    /api/health                 Liveness probe
    GET    /api/setup/status           First-run check
    POST   /api/auth/signup            Create account (first one is admin)
    POST   /api/auth/login             Authenticate, get bearer token

  Profile:
    GET    /api/me                     Own profile
    PUT    /api/me                     Edit profile / PIN

  Daily log & journal:
    POST   /api/logs/daily             Record clean/use day (idempotent award)
    GET    /api/logs                   Log history
    GET    /api/logs/streak            Derived streaks
    GET    /api/journal/today          Today's journal
    PUT    /api/journal/today          Write today's journal (+1 once)
    GET    /api/journal                Journal history

  Bank & savings:
    GET    /api/bank/summary           Derived point balance + history
    GET    /api/bank/savings           Derived money state + history

  Prizes:
    GET/POST /api/prizes               Catalog
    PUT/DELETE /api/prizes/{id}        Edit / remove
    POST   /api/prizes/{id}/purchase   Atomic check-and-debit
    POST   /api/prizes/{id}/restock    Make purchasable again
    GET    /api/purchases              Redemption history

  Motivation:
    GET    /api/motivation/quotes      Today's quote rotation
    GET    /api/motivation/quotes/random
    GET    /api/checklist              Today's checklist (settles elapsed days)
    PUT    /api/checklist              Update item state
    POST   /api/checklist/score        Explicit day result
    GET    /api/breathing              Today's session count
    POST   /api/breathing/sessions     Record a completed session

  Admin:
    GET    /api/admin/users            List accounts
    POST   /api/admin/users/{id}/set-points  Balance override (audited)
    POST   /api/admin/users/{id}/reset-pin   Replace a lost PIN
    DELETE /api/admin/users/{id}       Delete account + all data
    POST   /api/admin/reset            Wipe everything

ERROR HANDLING:
  Domain errors map to HTTP status by classification:
  - 400: Validation errors, insufficient points
  - 401: Missing/invalid token, wrong PIN
  - 403: Non-admin on admin routes
  - 404: Resource not found
  - 409: Conflict (already purchased)
  - 500: Storage and internal errors

SEE ALSO:
  - dto.go: Request/response data structures
  - auth.go: Tokens, PIN hashing, middleware
  - server.go: Router setup and middleware
*/
package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"regexp"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/motivation"
	"github.com/cleanslate/tracker/recovery"
)

// Quotes returned per day by the rotation endpoint.
const quotesPerDay = 6

var usernameRe = regexp.MustCompile(`^[a-z0-9_]{3,30}$`)

// =============================================================================
// HANDLER CONTEXT
// =============================================================================

// Handler holds all dependencies for HTTP handlers.
type Handler struct {
	Store     recovery.Store
	JWTSecret string

	Logs      *recovery.DailyLogEngine
	Prizes    *recovery.PrizeShop
	Checklist *recovery.Checklist
	Breathing *recovery.Breathing
	Bank      *recovery.Bank
}

// NewHandler creates a handler wired to the given store.
func NewHandler(store recovery.Store, jwtSecret string) *Handler {
	return &Handler{
		Store:     store,
		JWTSecret: jwtSecret,
		Logs:      recovery.NewDailyLogEngine(store),
		Prizes:    recovery.NewPrizeShop(store),
		Checklist: recovery.NewChecklist(store),
		Breathing: recovery.NewBreathing(store),
		Bank:      recovery.NewBank(store),
	}
}

// =============================================================================
// SETUP & AUTH
// =============================================================================

// Health is the liveness probe.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// SetupStatus tells a fresh client whether any account exists yet.
func (h *Handler) SetupStatus(w http.ResponseWriter, r *http.Request) {
	count, err := h.Store.CountUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to check setup", err)
		return
	}
	writeJSON(w, http.StatusOK, SetupStatusDTO{NeedsSetup: count == 0, UserCount: count})
}

// Signup creates an account. The first account becomes the admin.
func (h *Handler) Signup(w http.ResponseWriter, r *http.Request) {
	var req SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if !usernameRe.MatchString(req.Username) {
		writeError(w, http.StatusBadRequest,
			"Username must be 3-30 lowercase letters, digits, or underscores", nil)
		return
	}
	if req.Pin != "" && !validPin(req.Pin) {
		writeError(w, http.StatusBadRequest, "PIN must be 4-8 digits", nil)
		return
	}
	if req.WeeklySpendCents < 0 {
		writeError(w, http.StatusBadRequest, "weekly_spend_cents must not be negative", nil)
		return
	}

	startDate := time.Now().UTC()
	if req.StartDate != "" {
		day, err := ledger.ParseDay(req.StartDate)
		if err != nil {
			writeError(w, http.StatusBadRequest, "start_date must be YYYY-MM-DD", err)
			return
		}
		startDate = day.Time
	}

	pinHash := ""
	if req.Pin != "" {
		var err error
		pinHash, err = hashPin(req.Pin)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "Failed to hash PIN", err)
			return
		}
	}

	var user recovery.User
	err := h.Store.WithTx(r.Context(), func(tx recovery.Store) error {
		existing, gerr := tx.GetUserByUsername(r.Context(), req.Username)
		if gerr != nil {
			return gerr
		}
		if existing != nil {
			return &recovery.ValidationError{Field: "username", Message: "already taken"}
		}
		count, cerr := tx.CountUsers(r.Context())
		if cerr != nil {
			return cerr
		}
		user = recovery.User{
			ID:               uuid.NewString(),
			Username:         req.Username,
			FirstName:        req.FirstName,
			LastName:         req.LastName,
			WeeklySpendCents: req.WeeklySpendCents,
			StartDate:        startDate,
			PinHash:          pinHash,
			IsAdmin:          count == 0,
			CreatedAt:        time.Now().UTC(),
		}
		return tx.SaveUser(r.Context(), user)
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create account", err)
		return
	}

	token, err := h.IssueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusCreated, AuthResponse{Token: token, User: toUserDTO(user)})
}

// Login authenticates by username and, when one is set, the PIN.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	user, err := h.Store.GetUserByUsername(r.Context(), req.Username)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to look up user", err)
		return
	}
	// Same response for unknown user and wrong PIN.
	if user == nil || (user.PinHash != "" && !checkPin(user.PinHash, req.Pin)) {
		writeError(w, http.StatusUnauthorized, "Invalid username or PIN", nil)
		return
	}

	token, err := h.IssueToken(user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to issue token", err)
		return
	}
	writeJSON(w, http.StatusOK, AuthResponse{Token: token, User: toUserDTO(*user)})
}

// =============================================================================
// PROFILE
// =============================================================================

// Me returns the caller's profile.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.Store.GetUser(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(*user))
}

// UpdateMe edits the caller's profile. Nil fields stay unchanged; an
// empty pin string clears the PIN.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	var req UpdateProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.WeeklySpendCents != nil && *req.WeeklySpendCents < 0 {
		writeError(w, http.StatusBadRequest, "weekly_spend_cents must not be negative", nil)
		return
	}
	if req.Pin != nil && *req.Pin != "" && !validPin(*req.Pin) {
		writeError(w, http.StatusBadRequest, "PIN must be 4-8 digits", nil)
		return
	}

	var user recovery.User
	err := h.Store.WithTx(r.Context(), func(tx recovery.Store) error {
		u, gerr := tx.GetUser(r.Context(), requestUserID(r))
		if gerr != nil {
			return gerr
		}
		if u == nil {
			return recovery.ErrUserNotFound
		}
		if req.FirstName != nil {
			u.FirstName = *req.FirstName
		}
		if req.LastName != nil {
			u.LastName = *req.LastName
		}
		if req.WeeklySpendCents != nil {
			u.WeeklySpendCents = *req.WeeklySpendCents
		}
		if req.StartDate != nil {
			day, perr := ledger.ParseDay(*req.StartDate)
			if perr != nil {
				return &recovery.ValidationError{Field: "start_date", Message: "must be YYYY-MM-DD"}
			}
			u.StartDate = day.Time
		}
		if req.Pin != nil {
			if *req.Pin == "" {
				u.PinHash = ""
			} else {
				hash, herr := hashPin(*req.Pin)
				if herr != nil {
					return herr
				}
				u.PinHash = hash
			}
		}
		user = *u
		return tx.SaveUser(r.Context(), *u)
	})
	if err != nil {
		h.writeDomainError(w, "Failed to update profile", err)
		return
	}
	writeJSON(w, http.StatusOK, toUserDTO(user))
}

// =============================================================================
// DAILY LOG
// =============================================================================

// SubmitLog records a clean or use day. The award fires exactly once per
// (user, day); corrections update the log without re-awarding.
func (h *Handler) SubmitLog(w http.ResponseWriter, r *http.Request) {
	var req SubmitLogRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	in := recovery.SubmitInput{
		Used:        req.Used,
		Context:     req.Context,
		Paid:        req.Paid,
		AmountCents: req.AmountCents,
	}
	if req.Day != "" {
		day, err := ledger.ParseDay(req.Day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD", err)
			return
		}
		in.Day = day
	}

	userID := requestUserID(r)
	log, already, err := h.Logs.Submit(r.Context(), userID, in)
	if err != nil {
		h.writeDomainError(w, "Failed to record day", err)
		return
	}

	current, err := h.Logs.CurrentStreak(r.Context(), userID, ledger.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive streak", err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}

	writeJSON(w, http.StatusOK, SubmitLogResponse{
		Log:           toDailyLogDTO(*log),
		AlreadyLogged: already,
		CurrentStreak: current,
		LongestStreak: user.LongestStreakDays,
	})
}

// ListLogs returns the caller's daily log history, newest first.
func (h *Handler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logs.History(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list logs", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyLogDTOs(logs))
}

// GetStreak returns the derived current and cached longest streak.
func (h *Handler) GetStreak(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	current, err := h.Logs.CurrentStreak(r.Context(), userID, ledger.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive streak", err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	writeJSON(w, http.StatusOK, StreakDTO{
		CurrentStreak: current,
		LongestStreak: user.LongestStreakDays,
	})
}

// =============================================================================
// JOURNAL
// =============================================================================

// JournalToday returns today's journal entry, empty when unwritten.
func (h *Handler) JournalToday(w http.ResponseWriter, r *http.Request) {
	log, err := h.Logs.LogFor(r.Context(), requestUserID(r), ledger.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load journal", err)
		return
	}
	if log == nil {
		writeJSON(w, http.StatusOK, DailyLogDTO{Day: ledger.Today().String()})
		return
	}
	writeJSON(w, http.StatusOK, toDailyLogDTO(*log))
}

// UpsertJournal writes today's journal and mood. The +1 fires on the
// first empty -> non-empty transition of the day only.
func (h *Handler) UpsertJournal(w http.ResponseWriter, r *http.Request) {
	var req JournalRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}

	today := ledger.Today()
	log, _, err := h.Logs.UpsertJournal(r.Context(), requestUserID(r), today, today,
		recovery.JournalInput{Journal: req.Journal, Mood: req.Mood})
	if err != nil {
		h.writeDomainError(w, "Failed to save journal", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyLogDTO(*log))
}

// JournalHistory returns entries with journal content, newest first.
func (h *Handler) JournalHistory(w http.ResponseWriter, r *http.Request) {
	logs, err := h.Logs.JournalHistory(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list journal", err)
		return
	}
	writeJSON(w, http.StatusOK, toDailyLogDTOs(logs))
}

// =============================================================================
// BANK & SAVINGS
// =============================================================================

// BankSummary returns the derived point balance and full history.
func (h *Handler) BankSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.Bank.Summary(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive balance", err)
		return
	}
	writeJSON(w, http.StatusOK, BankSummaryDTO{
		Balance:      sum.Balance,
		Earned:       sum.Earned,
		Spent:        sum.Spent,
		Transactions: toTransactionDTOs(sum.Transactions),
	})
}

// Savings returns the derived money state and full history.
func (h *Handler) Savings(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	sum, err := h.Bank.Savings(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive savings", err)
		return
	}
	user, err := h.Store.GetUser(r.Context(), userID)
	if err != nil || user == nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	writeJSON(w, http.StatusOK, SavingsSummaryDTO{
		SavedCents: sum.SavedCents,
		SpentCents: sum.SpentCents,
		NetCents:   sum.NetCents,
		NetDollars: ledger.FormatCents(sum.NetCents),
		PerDay:     ledger.PerDaySavedCents(user.WeeklySpendCents),
		Events:     toMoneyEventDTOs(sum.Events),
	})
}

// =============================================================================
// PRIZES
// =============================================================================

// ListPrizes returns the caller's prize catalog, newest first.
func (h *Handler) ListPrizes(w http.ResponseWriter, r *http.Request) {
	prizes, err := h.Prizes.List(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list prizes", err)
		return
	}
	dtos := make([]PrizeDTO, len(prizes))
	for i, p := range prizes {
		dtos[i] = toPrizeDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// CreatePrize adds a prize to the catalog.
func (h *Handler) CreatePrize(w http.ResponseWriter, r *http.Request) {
	var req PrizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := h.Prizes.Create(r.Context(), requestUserID(r), recovery.PrizeInput{
		Name:        req.Name,
		Description: req.Description,
		CostPoints:  req.CostPoints,
	})
	if err != nil {
		h.writeDomainError(w, "Failed to create prize", err)
		return
	}
	writeJSON(w, http.StatusCreated, toPrizeDTO(*p))
}

// UpdatePrize edits a prize's fields.
func (h *Handler) UpdatePrize(w http.ResponseWriter, r *http.Request) {
	var req PrizeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	p, err := h.Prizes.Update(r.Context(), requestUserID(r), chi.URLParam(r, "id"),
		recovery.PrizeInput{
			Name:        req.Name,
			Description: req.Description,
			CostPoints:  req.CostPoints,
		})
	if err != nil {
		h.writeDomainError(w, "Failed to update prize", err)
		return
	}
	writeJSON(w, http.StatusOK, toPrizeDTO(*p))
}

// DeletePrize removes a prize and its purchase history.
func (h *Handler) DeletePrize(w http.ResponseWriter, r *http.Request) {
	if err := h.Prizes.Delete(r.Context(), requestUserID(r), chi.URLParam(r, "id")); err != nil {
		h.writeDomainError(w, "Failed to delete prize", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// PurchasePrize redeems a prize: balance check, purchase row, debit, and
// active=false all commit together or not at all.
func (h *Handler) PurchasePrize(w http.ResponseWriter, r *http.Request) {
	userID := requestUserID(r)
	purchase, prize, err := h.Prizes.Purchase(r.Context(), userID, chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to purchase prize", err)
		return
	}
	balance, err := h.Store.SumPoints(r.Context(), userID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to derive balance", err)
		return
	}
	writeJSON(w, http.StatusOK, PurchaseResponse{
		Purchase: toPurchaseDTO(*purchase),
		Prize:    toPrizeDTO(*prize),
		Balance:  balance,
	})
}

// RestockPrize makes a purchased prize purchasable again. Not a refund.
func (h *Handler) RestockPrize(w http.ResponseWriter, r *http.Request) {
	p, err := h.Prizes.Restock(r.Context(), requestUserID(r), chi.URLParam(r, "id"))
	if err != nil {
		h.writeDomainError(w, "Failed to restock prize", err)
		return
	}
	writeJSON(w, http.StatusOK, toPrizeDTO(*p))
}

// ListPurchases returns the caller's redemption history, newest first.
func (h *Handler) ListPurchases(w http.ResponseWriter, r *http.Request) {
	purchases, err := h.Store.ListPurchases(r.Context(), requestUserID(r))
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list purchases", err)
		return
	}
	dtos := make([]PurchaseDTO, len(purchases))
	for i, p := range purchases {
		dtos[i] = toPurchaseDTO(p)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// =============================================================================
// MOTIVATION
// =============================================================================

// Quotes returns today's deterministic quote rotation.
func (h *Handler) Quotes(w http.ResponseWriter, r *http.Request) {
	n := quotesPerDay
	if raw := r.URL.Query().Get("count"); raw != "" {
		if parsed, err := strconv.Atoi(raw); err == nil && parsed > 0 {
			n = parsed
		}
	}
	writeJSON(w, http.StatusOK, toQuoteDTOs(motivation.ForDay(ledger.Today(), n)))
}

// RandomQuote returns one quote at random.
func (h *Handler) RandomQuote(w http.ResponseWriter, r *http.Request) {
	q := motivation.Random()
	writeJSON(w, http.StatusOK, QuoteDTO{Text: q.Text, Author: q.Author, Source: q.Source})
}

// ChecklistStatus returns today's checklist, settling elapsed days first.
func (h *Handler) ChecklistStatus(w http.ResponseWriter, r *http.Request) {
	row, err := h.Checklist.Status(r.Context(), requestUserID(r), ledger.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, toChecklistDTO(*row))
}

// SetChecklist replaces today's item state; completing every item fires
// the one-time award.
func (h *Handler) SetChecklist(w http.ResponseWriter, r *http.Request) {
	var req SetChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	row, awarded, err := h.Checklist.SetChecked(r.Context(), requestUserID(r),
		ledger.Today(), req.Checked)
	if err != nil {
		h.writeDomainError(w, "Failed to update checklist", err)
		return
	}
	writeJSON(w, http.StatusOK, ChecklistResponse{
		Checklist: toChecklistDTO(*row),
		Awarded:   awarded,
	})
}

// ScoreChecklist applies an explicit complete/missed result for a day.
func (h *Handler) ScoreChecklist(w http.ResponseWriter, r *http.Request) {
	var req ScoreChecklistRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	day := ledger.Today()
	if req.Day != "" {
		parsed, err := ledger.ParseDay(req.Day)
		if err != nil {
			writeError(w, http.StatusBadRequest, "day must be YYYY-MM-DD", err)
			return
		}
		day = parsed
	}
	err := h.Checklist.Score(r.Context(), requestUserID(r), day,
		recovery.ChecklistScore(req.Status))
	if err != nil {
		h.writeDomainError(w, "Failed to score checklist", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// BreathStatus returns today's breathing session count.
func (h *Handler) BreathStatus(w http.ResponseWriter, r *http.Request) {
	row, err := h.Breathing.Status(r.Context(), requestUserID(r), ledger.Today())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load sessions", err)
		return
	}
	writeJSON(w, http.StatusOK, toBreathDTO(*row))
}

// RecordBreath counts a completed session; the third of the day earns +1.
func (h *Handler) RecordBreath(w http.ResponseWriter, r *http.Request) {
	row, awarded, err := h.Breathing.Record(r.Context(), requestUserID(r), ledger.Today())
	if err != nil {
		h.writeDomainError(w, "Failed to record session", err)
		return
	}
	writeJSON(w, http.StatusOK, BreathResponse{Breath: toBreathDTO(*row), Awarded: awarded})
}

// =============================================================================
// ADMIN
// =============================================================================

// ListUsers returns all accounts.
func (h *Handler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.Store.ListUsers(r.Context())
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to list users", err)
		return
	}
	dtos := make([]UserDTO, len(users))
	for i, u := range users {
		dtos[i] = toUserDTO(u)
	}
	writeJSON(w, http.StatusOK, dtos)
}

// SetPoints moves a user's balance to an exact value via one audited
// adjustment entry.
func (h *Handler) SetPoints(w http.ResponseWriter, r *http.Request) {
	var req SetPointsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	result, err := h.Bank.SetPoints(r.Context(), chi.URLParam(r, "id"), req.Points)
	if err != nil {
		h.writeDomainError(w, "Failed to set points", err)
		return
	}
	writeJSON(w, http.StatusOK, SetPointsResponse{
		Previous: result.Previous,
		Balance:  result.Balance,
		Delta:    result.Delta,
	})
}

// ResetPin replaces a user's PIN.
func (h *Handler) ResetPin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Pin string `json:"pin"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", err)
		return
	}
	if req.Pin != "" && !validPin(req.Pin) {
		writeError(w, http.StatusBadRequest, "PIN must be 4-8 digits", nil)
		return
	}

	err := h.Store.WithTx(r.Context(), func(tx recovery.Store) error {
		user, gerr := tx.GetUser(r.Context(), chi.URLParam(r, "id"))
		if gerr != nil {
			return gerr
		}
		if user == nil {
			return recovery.ErrUserNotFound
		}
		if req.Pin == "" {
			user.PinHash = ""
		} else {
			hash, herr := hashPin(req.Pin)
			if herr != nil {
				return herr
			}
			user.PinHash = hash
		}
		return tx.SaveUser(r.Context(), *user)
	})
	if err != nil {
		h.writeDomainError(w, "Failed to reset PIN", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// DeleteUser removes an account and everything it owns.
func (h *Handler) DeleteUser(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	user, err := h.Store.GetUser(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to load user", err)
		return
	}
	if user == nil {
		writeError(w, http.StatusNotFound, "User not found", nil)
		return
	}
	if err := h.Store.DeleteUser(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to delete user", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ResetDatabase wipes all data.
func (h *Handler) ResetDatabase(w http.ResponseWriter, r *http.Request) {
	if err := h.Store.Reset(r.Context()); err != nil {
		writeError(w, http.StatusInternalServerError, "Failed to reset database", err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "reset"})
}

// =============================================================================
// HELPERS
// =============================================================================

// writeDomainError maps a domain error to HTTP status by classification.
func (h *Handler) writeDomainError(w http.ResponseWriter, message string, err error) {
	switch {
	case recovery.IsValidation(err):
		writeError(w, http.StatusBadRequest, message, err)
	case errors.Is(err, recovery.ErrInsufficientPoints):
		writeError(w, http.StatusBadRequest, message, err)
	case recovery.IsNotFound(err):
		writeError(w, http.StatusNotFound, message, err)
	case recovery.IsConflict(err):
		writeError(w, http.StatusConflict, message, err)
	default:
		writeError(w, http.StatusInternalServerError, message, err)
	}
}

func writeJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func writeError(w http.ResponseWriter, status int, message string, err error) {
	resp := ErrorResponse{Error: message}
	if err != nil {
		resp.Details = err.Error()
	}
	writeJSON(w, status, resp)
}
