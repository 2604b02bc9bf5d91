package api_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cleanslate/tracker/api"
	"github.com/cleanslate/tracker/recovery"
	"github.com/cleanslate/tracker/store/sqlite"
)

// =============================================================================
// TEST SETUP
// =============================================================================

func newTestRouter(t *testing.T) (*chi.Mux, *api.Handler) {
	store, err := sqlite.New(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := api.NewHandler(store, "test-secret")
	return api.NewRouter(h, []string{"*"}), h
}

func doJSON(t *testing.T, router http.Handler, method, path, token string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	var out T
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&out), "body: %s", rec.Body.String())
	return out
}

func signup(t *testing.T, router http.Handler, username string) api.AuthResponse {
	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "", api.SignupRequest{
		Username: username,
	})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	return decode[api.AuthResponse](t, rec)
}

// =============================================================================
// SETUP & AUTH TESTS
// =============================================================================

func TestSetupAndSignupFlow(t *testing.T) {
	// GIVEN: A fresh database
	// WHEN: Checking setup, creating two accounts
	// THEN: needs_setup flips; the first account is the admin

	router, _ := newTestRouter(t)

	status := decode[api.SetupStatusDTO](t,
		doJSON(t, router, http.MethodGet, "/api/setup/status", "", nil))
	assert.True(t, status.NeedsSetup)

	first := signup(t, router, "alex_01")
	assert.True(t, first.User.IsAdmin)
	assert.NotEmpty(t, first.Token)

	second := signup(t, router, "sam_02")
	assert.False(t, second.User.IsAdmin)

	status = decode[api.SetupStatusDTO](t,
		doJSON(t, router, http.MethodGet, "/api/setup/status", "", nil))
	assert.False(t, status.NeedsSetup)
	assert.Equal(t, 2, status.UserCount)
}

func TestSignup_Validation(t *testing.T) {
	router, _ := newTestRouter(t)

	// Bad username (uppercase)
	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "Alex"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Taken username
	signup(t, router, "alex_01")
	rec = doJSON(t, router, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "alex_01"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Bad PIN
	rec = doJSON(t, router, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "sam_02", Pin: "12"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLogin_PinChecked(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "alex_01", Pin: "4321"})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "alex_01", Pin: "0000"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodPost, "/api/auth/login", "",
		api.LoginRequest{Username: "alex_01", Pin: "4321"})
	assert.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.AuthResponse](t, rec)
	assert.True(t, resp.User.HasPin)
}

func TestMe_DerivedFields(t *testing.T) {
	// GIVEN: An account with a quit date in the past
	// WHEN: Fetching the profile
	// THEN: days_since_start is derived from the quit date

	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "alex_01", StartDate: "2025-01-01"})
	require.Equal(t, http.StatusCreated, rec.Code, "body: %s", rec.Body.String())
	auth := decode[api.AuthResponse](t, rec)

	me := decode[api.UserDTO](t,
		doJSON(t, router, http.MethodGet, "/api/me", auth.Token, nil))
	assert.Equal(t, "2025-01-01", me.StartDate)
	assert.Greater(t, me.DaysSinceStart, 0)
}

func TestAuth_Required(t *testing.T) {
	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodGet, "/api/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = doJSON(t, router, http.MethodGet, "/api/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdmin_Forbidden(t *testing.T) {
	router, _ := newTestRouter(t)
	signup(t, router, "alex_01") // admin
	user := signup(t, router, "sam_02")

	rec := doJSON(t, router, http.MethodGet, "/api/admin/users", user.Token, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

// =============================================================================
// DAILY LOG ENDPOINT TESTS
// =============================================================================

func TestDailyLog_Endpoint(t *testing.T) {
	// GIVEN: An account
	// WHEN: Submitting today twice
	// THEN: +10 once; the replay reports already_logged

	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01")

	rec := doJSON(t, router, http.MethodPost, "/api/logs/daily", auth.Token,
		api.SubmitLogRequest{Used: false})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	resp := decode[api.SubmitLogResponse](t, rec)
	assert.False(t, resp.AlreadyLogged)
	assert.Equal(t, 1, resp.CurrentStreak)

	rec = doJSON(t, router, http.MethodPost, "/api/logs/daily", auth.Token,
		api.SubmitLogRequest{Used: false})
	require.Equal(t, http.StatusOK, rec.Code)
	resp = decode[api.SubmitLogResponse](t, rec)
	assert.True(t, resp.AlreadyLogged)

	summary := decode[api.BankSummaryDTO](t,
		doJSON(t, router, http.MethodGet, "/api/bank/summary", auth.Token, nil))
	assert.Equal(t, 10, summary.Balance)
	assert.Len(t, summary.Transactions, 1)
}

func TestJournal_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01")

	rec := doJSON(t, router, http.MethodPut, "/api/journal/today", auth.Token,
		api.JournalRequest{Journal: "made it through", Mood: 4})
	require.Equal(t, http.StatusOK, rec.Code)
	log := decode[api.DailyLogDTO](t, rec)
	assert.Equal(t, "made it through", log.Journal)
	assert.Equal(t, 4, log.Mood)

	summary := decode[api.BankSummaryDTO](t,
		doJSON(t, router, http.MethodGet, "/api/bank/summary", auth.Token, nil))
	assert.Equal(t, 1, summary.Balance)
}

func TestSavings_Endpoint(t *testing.T) {
	// GIVEN: A $70/week spend estimate and one clean day
	// WHEN: Fetching savings
	// THEN: $10 saved, reported in cents and as a dollar string

	router, _ := newTestRouter(t)

	rec := doJSON(t, router, http.MethodPost, "/api/auth/signup", "",
		api.SignupRequest{Username: "alex_01", WeeklySpendCents: 7000})
	require.Equal(t, http.StatusCreated, rec.Code)
	auth := decode[api.AuthResponse](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/logs/daily", auth.Token,
		api.SubmitLogRequest{Used: false})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	sum := decode[api.SavingsSummaryDTO](t,
		doJSON(t, router, http.MethodGet, "/api/bank/savings", auth.Token, nil))
	assert.Equal(t, int64(1000), sum.SavedCents)
	assert.Equal(t, int64(1000), sum.NetCents)
	assert.Equal(t, "10.00", sum.NetDollars)
	assert.Equal(t, int64(1000), sum.PerDay)
}

// =============================================================================
// PRIZE ENDPOINT TESTS
// =============================================================================

func TestPrize_PurchaseFlow(t *testing.T) {
	// GIVEN: An admin-funded balance of 100 and a prize costing 30
	// WHEN: Purchasing twice
	// THEN: First succeeds at balance 70; second is a 409

	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01") // admin

	rec := doJSON(t, router, http.MethodPost,
		fmt.Sprintf("/api/admin/users/%s/set-points", auth.User.ID), auth.Token,
		api.SetPointsRequest{Points: 100})
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())

	rec = doJSON(t, router, http.MethodPost, "/api/prizes/", auth.Token,
		api.PrizeRequest{Name: "Movie night", CostPoints: 30})
	require.Equal(t, http.StatusCreated, rec.Code)
	prize := decode[api.PrizeDTO](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/prizes/"+prize.ID+"/purchase", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, "body: %s", rec.Body.String())
	bought := decode[api.PurchaseResponse](t, rec)
	assert.Equal(t, 70, bought.Balance)
	assert.False(t, bought.Prize.Active)

	rec = doJSON(t, router, http.MethodPost, "/api/prizes/"+prize.ID+"/purchase", auth.Token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}

func TestPrize_InsufficientPoints(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01")

	rec := doJSON(t, router, http.MethodPost, "/api/prizes/", auth.Token,
		api.PrizeRequest{Name: "Big reward", CostPoints: 500})
	require.Equal(t, http.StatusCreated, rec.Code)
	prize := decode[api.PrizeDTO](t, rec)

	rec = doJSON(t, router, http.MethodPost, "/api/prizes/"+prize.ID+"/purchase", auth.Token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

// =============================================================================
// MOTIVATION ENDPOINT TESTS
// =============================================================================

func TestChecklist_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01")

	rec := doJSON(t, router, http.MethodGet, "/api/checklist/", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	checklist := decode[api.ChecklistDTO](t, rec)
	require.Len(t, checklist.Items, len(recovery.ChecklistItems))

	checked := make([]bool, len(checklist.Items))
	for i := range checked {
		checked[i] = true
	}
	rec = doJSON(t, router, http.MethodPut, "/api/checklist/", auth.Token,
		api.SetChecklistRequest{Checked: checked})
	require.Equal(t, http.StatusOK, rec.Code)
	resp := decode[api.ChecklistResponse](t, rec)
	assert.True(t, resp.Awarded)
	assert.Equal(t, "complete", resp.Checklist.Scored)
}

func TestBreathing_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01")

	var resp api.BreathResponse
	for i := 0; i < 3; i++ {
		rec := doJSON(t, router, http.MethodPost, "/api/breathing/sessions", auth.Token, nil)
		require.Equal(t, http.StatusOK, rec.Code)
		resp = decode[api.BreathResponse](t, rec)
	}
	assert.Equal(t, 3, resp.Breath.Count)
	assert.True(t, resp.Awarded)
}

func TestQuotes_Endpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	auth := signup(t, router, "alex_01")

	rec := doJSON(t, router, http.MethodGet, "/api/motivation/quotes", auth.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	quotes := decode[[]api.QuoteDTO](t, rec)
	assert.Len(t, quotes, 6)
}

// =============================================================================
// ADMIN ENDPOINT TESTS
// =============================================================================

func TestAdmin_DeleteUser(t *testing.T) {
	router, _ := newTestRouter(t)
	admin := signup(t, router, "alex_01")
	victim := signup(t, router, "sam_02")

	rec := doJSON(t, router, http.MethodDelete, "/api/admin/users/"+victim.User.ID, admin.Token, nil)
	assert.Equal(t, http.StatusNoContent, rec.Code)

	// The deleted user's token no longer resolves to an account.
	rec = doJSON(t, router, http.MethodGet, "/api/me", victim.Token, nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
