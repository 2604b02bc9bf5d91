/*
Package sqlite provides the SQLite-backed implementation of the tracker's
storage interfaces.

PURPOSE:
  Implements recovery.Store (which composes ledger.Store and the per-entity
  stores) over a single SQLite database. One table per entity.

APPEND-ONLY ENFORCEMENT:
  The transactions and money_events tables see INSERTs only. There is no
  UPDATE or DELETE path for ledger rows outside account deletion and the
  admin full reset.

IDEMPOTENCY BACKSTOP:
  Unique indexes on idempotency_key and on (user_id, day) pairs are the
  last line of defense: even if two concurrent requests both pass the
  in-transaction existence check, only one insert can commit. Constraint
  violations are translated to ledger.ErrDuplicateIdempotencyKey.

ATOMIC UNITS:
  WithTx runs a domain closure against a Store bound to one database
  transaction. The engines put every read-then-write decision (award
  gates, purchase balance check, settlement) inside WithTx.

WAL MODE:
  The database is opened with WAL so readers don't block the writer.
  A process-wide RWMutex serializes writers; SQLite allows only one
  writer at a time anyway.

USAGE:
  store, err := sqlite.New("./data/tracker.db")   // ":memory:" for tests
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - recovery/store.go: Interface definitions and the atomicity contract
  - ledger/store/memory.go: In-memory ledger store for unit tests
*/
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/cleanslate/tracker/ledger"
	"github.com/cleanslate/tracker/recovery"
)

// Store implements recovery.Store using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// querier is satisfied by both *sql.DB and *sql.Tx so every query helper
// can run inside or outside a transaction.
type querier interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

// New opens (creating if needed) a SQLite store at the given path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if strings.Contains(dbPath, ":memory:") {
		// Every pooled connection opens its own empty in-memory database,
		// so the pool must be pinned to the one that ran the migration.
		db.SetMaxOpenConns(1)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		username TEXT UNIQUE,
		first_name TEXT,
		last_name TEXT,
		weekly_spend_cents INTEGER NOT NULL DEFAULT 0,
		start_date TEXT,
		longest_streak_days INTEGER NOT NULL DEFAULT 0,
		pin_hash TEXT,
		is_admin BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS daily_logs (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		used BOOLEAN NOT NULL DEFAULT FALSE,
		context TEXT,
		paid BOOLEAN,
		amount_cents INTEGER,
		journal TEXT,
		mood INTEGER,
		created_at TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);

	-- One entry per user per day, enforced by the schema.
	CREATE UNIQUE INDEX IF NOT EXISTS idx_daily_logs_user_day
		ON daily_logs(user_id, day);

	-- Point ledger (append-only)
	CREATE TABLE IF NOT EXISTS transactions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		points INTEGER NOT NULL,
		tx_type TEXT NOT NULL,
		note TEXT,
		day TEXT NOT NULL,
		related_log_id TEXT,
		related_prize_id TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_transactions_user
		ON transactions(user_id, day DESC, created_at DESC);
	CREATE INDEX IF NOT EXISTS idx_transactions_related_log
		ON transactions(related_log_id) WHERE related_log_id IS NOT NULL;

	-- Money ledger (append-only)
	CREATE TABLE IF NOT EXISTS money_events (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		amount_cents INTEGER NOT NULL,
		event_type TEXT NOT NULL,
		note TEXT,
		day TEXT NOT NULL,
		related_log_id TEXT,
		idempotency_key TEXT UNIQUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_money_events_user
		ON money_events(user_id, day DESC, created_at DESC);

	CREATE TABLE IF NOT EXISTS prizes (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		name TEXT NOT NULL,
		description TEXT,
		cost_points INTEGER NOT NULL DEFAULT 0,
		active BOOLEAN NOT NULL DEFAULT TRUE,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_prizes_user ON prizes(user_id);

	CREATE TABLE IF NOT EXISTS purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		prize_id TEXT NOT NULL,
		created_at TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_purchases_user ON purchases(user_id);
	CREATE INDEX IF NOT EXISTS idx_purchases_prize ON purchases(prize_id);

	CREATE TABLE IF NOT EXISTS checklist_days (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		checked_json TEXT NOT NULL DEFAULT '[]',
		scored TEXT NOT NULL DEFAULT ''
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_checklist_days_user_day
		ON checklist_days(user_id, day);

	CREATE TABLE IF NOT EXISTS breath_days (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		day TEXT NOT NULL,
		count INTEGER NOT NULL DEFAULT 0,
		scored BOOLEAN NOT NULL DEFAULT FALSE
	);

	CREATE UNIQUE INDEX IF NOT EXISTS idx_breath_days_user_day
		ON breath_days(user_id, day);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// TRANSACTIONAL UNITS
// =============================================================================

// WithTx executes fn within one database transaction. The Store passed to
// fn is bound to that transaction; if fn returns an error everything rolls
// back, otherwise everything commits together.
func (s *Store) WithTx(ctx context.Context, fn func(recovery.Store) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	if err := fn(&txStore{tx: sqlTx, parent: s}); err != nil {
		return err
	}
	return sqlTx.Commit()
}

// txStore is a Store bound to an open transaction. The parent's write lock
// is held for its whole lifetime (taken by WithTx), so its methods do not
// lock again.
type txStore struct {
	tx     *sql.Tx
	parent *Store
}

// Nested WithTx reuses the already-open transaction.
func (ts *txStore) WithTx(_ context.Context, fn func(recovery.Store) error) error {
	return fn(ts)
}

// =============================================================================
// LEDGER STORE
// =============================================================================

func (s *Store) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendTransaction(ctx, s.db, tx)
}

func (ts *txStore) AppendTransaction(ctx context.Context, tx ledger.Transaction) error {
	return appendTransaction(ctx, ts.tx, tx)
}

func appendTransaction(ctx context.Context, q querier, tx ledger.Transaction) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO transactions
		(id, user_id, points, tx_type, note, day, related_log_id, related_prize_id, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.ID, tx.UserID, tx.Points, tx.Type, tx.Note, tx.Day.String(),
		nullString(tx.RelatedLogID), nullString(tx.RelatedPrizeID),
		nullString(tx.IdempotencyKey), formatTime(tx.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("%w: %v", ledger.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) AppendMoneyEvent(ctx context.Context, ev ledger.MoneyEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return appendMoneyEvent(ctx, s.db, ev)
}

func (ts *txStore) AppendMoneyEvent(ctx context.Context, ev ledger.MoneyEvent) error {
	return appendMoneyEvent(ctx, ts.tx, ev)
}

func appendMoneyEvent(ctx context.Context, q querier, ev ledger.MoneyEvent) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO money_events
		(id, user_id, amount_cents, event_type, note, day, related_log_id, idempotency_key, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.ID, ev.UserID, ev.AmountCents, ev.Type, ev.Note, ev.Day.String(),
		nullString(ev.RelatedLogID), nullString(ev.IdempotencyKey), formatTime(ev.CreatedAt),
	)
	if err != nil {
		if isUniqueConstraintError(err) {
			return ledger.ErrDuplicateIdempotencyKey
		}
		return fmt.Errorf("%w: %v", ledger.ErrTransactionFailed, err)
	}
	return nil
}

func (s *Store) Transactions(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryTransactions(ctx, s.db, userID)
}

func (ts *txStore) Transactions(ctx context.Context, userID string) ([]ledger.Transaction, error) {
	return queryTransactions(ctx, ts.tx, userID)
}

func queryTransactions(ctx context.Context, q querier, userID string) ([]ledger.Transaction, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, points, tx_type, note, day, related_log_id, related_prize_id, idempotency_key, created_at
		FROM transactions
		WHERE user_id = ?
		ORDER BY day DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query transactions: %w", err)
	}
	defer rows.Close()

	var txs []ledger.Transaction
	for rows.Next() {
		var (
			tx                            ledger.Transaction
			day, createdAt                string
			note, logID, prizeID, idemKey sql.NullString
		)
		if err := rows.Scan(&tx.ID, &tx.UserID, &tx.Points, &tx.Type, &note, &day,
			&logID, &prizeID, &idemKey, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan transaction: %w", err)
		}
		tx.Note = note.String
		tx.Day, _ = ledger.ParseDay(day)
		tx.RelatedLogID = logID.String
		tx.RelatedPrizeID = prizeID.String
		tx.IdempotencyKey = idemKey.String
		tx.CreatedAt = parseTime(createdAt)
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

func (s *Store) MoneyEvents(ctx context.Context, userID string) ([]ledger.MoneyEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return queryMoneyEvents(ctx, s.db, userID)
}

func (ts *txStore) MoneyEvents(ctx context.Context, userID string) ([]ledger.MoneyEvent, error) {
	return queryMoneyEvents(ctx, ts.tx, userID)
}

func queryMoneyEvents(ctx context.Context, q querier, userID string) ([]ledger.MoneyEvent, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, amount_cents, event_type, note, day, related_log_id, idempotency_key, created_at
		FROM money_events
		WHERE user_id = ?
		ORDER BY day DESC, created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query money events: %w", err)
	}
	defer rows.Close()

	var evs []ledger.MoneyEvent
	for rows.Next() {
		var (
			ev                   ledger.MoneyEvent
			day, createdAt       string
			note, logID, idemKey sql.NullString
		)
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.AmountCents, &ev.Type, &note, &day,
			&logID, &idemKey, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan money event: %w", err)
		}
		ev.Note = note.String
		ev.Day, _ = ledger.ParseDay(day)
		ev.RelatedLogID = logID.String
		ev.IdempotencyKey = idemKey.String
		ev.CreatedAt = parseTime(createdAt)
		evs = append(evs, ev)
	}
	return evs, rows.Err()
}

func (s *Store) SumPoints(ctx context.Context, userID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return sumPoints(ctx, s.db, userID)
}

func (ts *txStore) SumPoints(ctx context.Context, userID string) (int, error) {
	return sumPoints(ctx, ts.tx, userID)
}

func sumPoints(ctx context.Context, q querier, userID string) (int, error) {
	var sum int
	err := q.QueryRowContext(ctx,
		"SELECT COALESCE(SUM(points), 0) FROM transactions WHERE user_id = ?", userID,
	).Scan(&sum)
	return sum, err
}

func (s *Store) TransactionExists(ctx context.Context, key string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return transactionExists(ctx, s.db, key)
}

func (ts *txStore) TransactionExists(ctx context.Context, key string) (bool, error) {
	return transactionExists(ctx, ts.tx, key)
}

func transactionExists(ctx context.Context, q querier, key string) (bool, error) {
	var count int
	err := q.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM transactions WHERE idempotency_key = ?", key,
	).Scan(&count)
	return count > 0, err
}

// =============================================================================
// USER STORE
// =============================================================================

func (s *Store) GetUser(ctx context.Context, id string) (*recovery.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUserBy(ctx, s.db, "id", id)
}

func (ts *txStore) GetUser(ctx context.Context, id string) (*recovery.User, error) {
	return getUserBy(ctx, ts.tx, "id", id)
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (*recovery.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getUserBy(ctx, s.db, "username", username)
}

func (ts *txStore) GetUserByUsername(ctx context.Context, username string) (*recovery.User, error) {
	return getUserBy(ctx, ts.tx, "username", username)
}

const userColumns = `id, username, first_name, last_name, weekly_spend_cents, start_date,
	longest_streak_days, pin_hash, is_admin, created_at`

func getUserBy(ctx context.Context, q querier, column, value string) (*recovery.User, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+userColumns+" FROM users WHERE "+column+" = ?", value)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*recovery.User, error) {
	var (
		u                              recovery.User
		username, first, last, pinHash sql.NullString
		startDate                      sql.NullString
		createdAt                      string
	)
	err := row.Scan(&u.ID, &username, &first, &last, &u.WeeklySpendCents, &startDate,
		&u.LongestStreakDays, &pinHash, &u.IsAdmin, &createdAt)
	if err != nil {
		return nil, err
	}
	u.Username = username.String
	u.FirstName = first.String
	u.LastName = last.String
	u.PinHash = pinHash.String
	if startDate.Valid {
		u.StartDate = parseTime(startDate.String)
	}
	u.CreatedAt = parseTime(createdAt)
	return &u, nil
}

func (s *Store) SaveUser(ctx context.Context, u recovery.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveUser(ctx, s.db, u)
}

func (ts *txStore) SaveUser(ctx context.Context, u recovery.User) error {
	return saveUser(ctx, ts.tx, u)
}

func saveUser(ctx context.Context, q querier, u recovery.User) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO users
		(id, username, first_name, last_name, weekly_spend_cents, start_date,
		 longest_streak_days, pin_hash, is_admin, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			username = excluded.username,
			first_name = excluded.first_name,
			last_name = excluded.last_name,
			weekly_spend_cents = excluded.weekly_spend_cents,
			start_date = excluded.start_date,
			longest_streak_days = excluded.longest_streak_days,
			pin_hash = excluded.pin_hash,
			is_admin = excluded.is_admin`,
		u.ID, nullString(u.Username), nullString(u.FirstName), nullString(u.LastName),
		u.WeeklySpendCents, nullTime(u.StartDate), u.LongestStreakDays,
		nullString(u.PinHash), u.IsAdmin, formatTime(u.CreatedAt),
	)
	return err
}

func (s *Store) ListUsers(ctx context.Context) ([]recovery.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUsers(ctx, s.db)
}

func (ts *txStore) ListUsers(ctx context.Context) ([]recovery.User, error) {
	return listUsers(ctx, ts.tx)
}

func listUsers(ctx context.Context, q querier) ([]recovery.User, error) {
	rows, err := q.QueryContext(ctx,
		"SELECT "+userColumns+" FROM users ORDER BY created_at ASC")
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []recovery.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}

func (s *Store) CountUsers(ctx context.Context) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return countUsers(ctx, s.db)
}

func (ts *txStore) CountUsers(ctx context.Context) (int, error) {
	return countUsers(ctx, ts.tx)
}

func countUsers(ctx context.Context, q querier) (int, error) {
	var count int
	err := q.QueryRowContext(ctx, "SELECT COUNT(*) FROM users").Scan(&count)
	return count, err
}

func (s *Store) DeleteUser(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := deleteUser(ctx, sqlTx, id); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (ts *txStore) DeleteUser(ctx context.Context, id string) error {
	return deleteUser(ctx, ts.tx, id)
}

// deleteUser cascades to everything the user owns.
func deleteUser(ctx context.Context, q querier, id string) error {
	stmts := []string{
		"DELETE FROM purchases WHERE user_id = ?",
		"DELETE FROM transactions WHERE user_id = ?",
		"DELETE FROM money_events WHERE user_id = ?",
		"DELETE FROM daily_logs WHERE user_id = ?",
		"DELETE FROM checklist_days WHERE user_id = ?",
		"DELETE FROM breath_days WHERE user_id = ?",
		"DELETE FROM prizes WHERE user_id = ?",
		"DELETE FROM users WHERE id = ?",
	}
	for _, stmt := range stmts {
		if _, err := q.ExecContext(ctx, stmt, id); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// DAILY LOG STORE
// =============================================================================

const dailyLogColumns = `id, user_id, day, used, context, paid, amount_cents, journal, mood, created_at, updated_at`

func (s *Store) GetDailyLog(ctx context.Context, userID string, day ledger.Day) (*recovery.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getDailyLog(ctx, s.db, userID, day)
}

func (ts *txStore) GetDailyLog(ctx context.Context, userID string, day ledger.Day) (*recovery.DailyLog, error) {
	return getDailyLog(ctx, ts.tx, userID, day)
}

func getDailyLog(ctx context.Context, q querier, userID string, day ledger.Day) (*recovery.DailyLog, error) {
	row := q.QueryRowContext(ctx,
		"SELECT "+dailyLogColumns+" FROM daily_logs WHERE user_id = ? AND day = ?",
		userID, day.String())
	l, err := scanDailyLog(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return l, nil
}

func scanDailyLog(row rowScanner) (*recovery.DailyLog, error) {
	var (
		l                     recovery.DailyLog
		day, created, updated string
		context, journal      sql.NullString
		paid                  sql.NullBool
		amountCents, mood     sql.NullInt64
	)
	err := row.Scan(&l.ID, &l.UserID, &day, &l.Used, &context, &paid, &amountCents,
		&journal, &mood, &created, &updated)
	if err != nil {
		return nil, err
	}
	l.Day, _ = ledger.ParseDay(day)
	l.Context = context.String
	l.Paid = paid.Valid && paid.Bool
	l.AmountCents = amountCents.Int64
	l.Journal = journal.String
	l.Mood = int(mood.Int64)
	l.CreatedAt = parseTime(created)
	l.UpdatedAt = parseTime(updated)
	return &l, nil
}

func (s *Store) SaveDailyLog(ctx context.Context, l recovery.DailyLog) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveDailyLog(ctx, s.db, l)
}

func (ts *txStore) SaveDailyLog(ctx context.Context, l recovery.DailyLog) error {
	return saveDailyLog(ctx, ts.tx, l)
}

func saveDailyLog(ctx context.Context, q querier, l recovery.DailyLog) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO daily_logs
		(id, user_id, day, used, context, paid, amount_cents, journal, mood, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			used = excluded.used,
			context = excluded.context,
			paid = excluded.paid,
			amount_cents = excluded.amount_cents,
			journal = excluded.journal,
			mood = excluded.mood,
			updated_at = excluded.updated_at`,
		l.ID, l.UserID, l.Day.String(), l.Used, nullString(l.Context),
		l.Paid, nullInt64(l.AmountCents), nullString(l.Journal), nullInt(l.Mood),
		formatTime(l.CreatedAt), formatTime(l.UpdatedAt),
	)
	return err
}

func (s *Store) ListDailyLogs(ctx context.Context, userID string) ([]recovery.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDailyLogs(ctx, s.db, userID, false)
}

func (ts *txStore) ListDailyLogs(ctx context.Context, userID string) ([]recovery.DailyLog, error) {
	return listDailyLogs(ctx, ts.tx, userID, false)
}

func (s *Store) ListJournalLogs(ctx context.Context, userID string) ([]recovery.DailyLog, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listDailyLogs(ctx, s.db, userID, true)
}

func (ts *txStore) ListJournalLogs(ctx context.Context, userID string) ([]recovery.DailyLog, error) {
	return listDailyLogs(ctx, ts.tx, userID, true)
}

func listDailyLogs(ctx context.Context, q querier, userID string, journalOnly bool) ([]recovery.DailyLog, error) {
	query := "SELECT " + dailyLogColumns + " FROM daily_logs WHERE user_id = ?"
	if journalOnly {
		query += " AND journal IS NOT NULL AND journal != ''"
	}
	query += " ORDER BY day DESC"

	rows, err := q.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var logs []recovery.DailyLog
	for rows.Next() {
		l, err := scanDailyLog(rows)
		if err != nil {
			return nil, err
		}
		logs = append(logs, *l)
	}
	return logs, rows.Err()
}

// =============================================================================
// PRIZE STORE
// =============================================================================

func (s *Store) GetPrize(ctx context.Context, userID, prizeID string) (*recovery.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getPrize(ctx, s.db, userID, prizeID)
}

func (ts *txStore) GetPrize(ctx context.Context, userID, prizeID string) (*recovery.Prize, error) {
	return getPrize(ctx, ts.tx, userID, prizeID)
}

func getPrize(ctx context.Context, q querier, userID, prizeID string) (*recovery.Prize, error) {
	var (
		p           recovery.Prize
		description sql.NullString
		createdAt   string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, name, description, cost_points, active, created_at
		FROM prizes WHERE id = ? AND user_id = ?`, prizeID, userID,
	).Scan(&p.ID, &p.UserID, &p.Name, &description, &p.CostPoints, &p.Active, &createdAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	p.Description = description.String
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

func (s *Store) SavePrize(ctx context.Context, p recovery.Prize) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePrize(ctx, s.db, p)
}

func (ts *txStore) SavePrize(ctx context.Context, p recovery.Prize) error {
	return savePrize(ctx, ts.tx, p)
}

func savePrize(ctx context.Context, q querier, p recovery.Prize) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO prizes (id, user_id, name, description, cost_points, active, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			description = excluded.description,
			cost_points = excluded.cost_points,
			active = excluded.active`,
		p.ID, p.UserID, p.Name, nullString(p.Description), p.CostPoints, p.Active,
		formatTime(p.CreatedAt),
	)
	return err
}

func (s *Store) ListPrizes(ctx context.Context, userID string) ([]recovery.Prize, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPrizes(ctx, s.db, userID)
}

func (ts *txStore) ListPrizes(ctx context.Context, userID string) ([]recovery.Prize, error) {
	return listPrizes(ctx, ts.tx, userID)
}

func listPrizes(ctx context.Context, q querier, userID string) ([]recovery.Prize, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, name, description, cost_points, active, created_at
		FROM prizes WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var prizes []recovery.Prize
	for rows.Next() {
		var (
			p           recovery.Prize
			description sql.NullString
			createdAt   string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.Name, &description, &p.CostPoints,
			&p.Active, &createdAt); err != nil {
			return nil, err
		}
		p.Description = description.String
		p.CreatedAt = parseTime(createdAt)
		prizes = append(prizes, p)
	}
	return prizes, rows.Err()
}

func (s *Store) DeletePrize(ctx context.Context, userID, prizeID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer sqlTx.Rollback()

	if err := deletePrize(ctx, sqlTx, userID, prizeID); err != nil {
		return err
	}
	return sqlTx.Commit()
}

func (ts *txStore) DeletePrize(ctx context.Context, userID, prizeID string) error {
	return deletePrize(ctx, ts.tx, userID, prizeID)
}

func deletePrize(ctx context.Context, q querier, userID, prizeID string) error {
	if _, err := q.ExecContext(ctx,
		"DELETE FROM purchases WHERE prize_id = ? AND user_id = ?", prizeID, userID); err != nil {
		return err
	}
	_, err := q.ExecContext(ctx,
		"DELETE FROM prizes WHERE id = ? AND user_id = ?", prizeID, userID)
	return err
}

func (s *Store) SavePurchase(ctx context.Context, p recovery.Purchase) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return savePurchase(ctx, s.db, p)
}

func (ts *txStore) SavePurchase(ctx context.Context, p recovery.Purchase) error {
	return savePurchase(ctx, ts.tx, p)
}

func savePurchase(ctx context.Context, q querier, p recovery.Purchase) error {
	_, err := q.ExecContext(ctx,
		"INSERT INTO purchases (id, user_id, prize_id, created_at) VALUES (?, ?, ?, ?)",
		p.ID, p.UserID, p.PrizeID, formatTime(p.CreatedAt))
	return err
}

func (s *Store) ListPurchases(ctx context.Context, userID string) ([]recovery.Purchase, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listPurchases(ctx, s.db, userID)
}

func (ts *txStore) ListPurchases(ctx context.Context, userID string) ([]recovery.Purchase, error) {
	return listPurchases(ctx, ts.tx, userID)
}

func listPurchases(ctx context.Context, q querier, userID string) ([]recovery.Purchase, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, prize_id, created_at
		FROM purchases WHERE user_id = ? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var purchases []recovery.Purchase
	for rows.Next() {
		var (
			p         recovery.Purchase
			createdAt string
		)
		if err := rows.Scan(&p.ID, &p.UserID, &p.PrizeID, &createdAt); err != nil {
			return nil, err
		}
		p.CreatedAt = parseTime(createdAt)
		purchases = append(purchases, p)
	}
	return purchases, rows.Err()
}

// =============================================================================
// DAILY STATE STORE (checklist + breathing)
// =============================================================================

func (s *Store) GetChecklistDay(ctx context.Context, userID string, day ledger.Day) (*recovery.ChecklistDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getChecklistDay(ctx, s.db, userID, day)
}

func (ts *txStore) GetChecklistDay(ctx context.Context, userID string, day ledger.Day) (*recovery.ChecklistDay, error) {
	return getChecklistDay(ctx, ts.tx, userID, day)
}

func getChecklistDay(ctx context.Context, q querier, userID string, day ledger.Day) (*recovery.ChecklistDay, error) {
	var (
		c           recovery.ChecklistDay
		dayStr      string
		checkedJSON string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, day, checked_json, scored
		FROM checklist_days WHERE user_id = ? AND day = ?`, userID, day.String(),
	).Scan(&c.ID, &c.UserID, &dayStr, &checkedJSON, &c.Scored)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	c.Day, _ = ledger.ParseDay(dayStr)
	if err := json.Unmarshal([]byte(checkedJSON), &c.Checked); err != nil {
		return nil, fmt.Errorf("failed to decode checklist state: %w", err)
	}
	return &c, nil
}

func (s *Store) SaveChecklistDay(ctx context.Context, c recovery.ChecklistDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveChecklistDay(ctx, s.db, c)
}

func (ts *txStore) SaveChecklistDay(ctx context.Context, c recovery.ChecklistDay) error {
	return saveChecklistDay(ctx, ts.tx, c)
}

func saveChecklistDay(ctx context.Context, q querier, c recovery.ChecklistDay) error {
	checkedJSON, err := json.Marshal(c.Checked)
	if err != nil {
		return err
	}
	_, err = q.ExecContext(ctx, `
		INSERT INTO checklist_days (id, user_id, day, checked_json, scored)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			checked_json = excluded.checked_json,
			scored = excluded.scored`,
		c.ID, c.UserID, c.Day.String(), string(checkedJSON), string(c.Scored))
	return err
}

func (s *Store) ListUnscoredChecklistDays(ctx context.Context, userID string, before ledger.Day) ([]recovery.ChecklistDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return listUnscoredChecklistDays(ctx, s.db, userID, before)
}

func (ts *txStore) ListUnscoredChecklistDays(ctx context.Context, userID string, before ledger.Day) ([]recovery.ChecklistDay, error) {
	return listUnscoredChecklistDays(ctx, ts.tx, userID, before)
}

func listUnscoredChecklistDays(ctx context.Context, q querier, userID string, before ledger.Day) ([]recovery.ChecklistDay, error) {
	rows, err := q.QueryContext(ctx, `
		SELECT id, user_id, day, checked_json, scored
		FROM checklist_days
		WHERE user_id = ? AND day < ? AND scored = ''
		ORDER BY day ASC`, userID, before.String())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var days []recovery.ChecklistDay
	for rows.Next() {
		var (
			c           recovery.ChecklistDay
			dayStr      string
			checkedJSON string
		)
		if err := rows.Scan(&c.ID, &c.UserID, &dayStr, &checkedJSON, &c.Scored); err != nil {
			return nil, err
		}
		c.Day, _ = ledger.ParseDay(dayStr)
		if err := json.Unmarshal([]byte(checkedJSON), &c.Checked); err != nil {
			return nil, fmt.Errorf("failed to decode checklist state: %w", err)
		}
		days = append(days, c)
	}
	return days, rows.Err()
}

func (s *Store) GetBreathDay(ctx context.Context, userID string, day ledger.Day) (*recovery.BreathDay, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return getBreathDay(ctx, s.db, userID, day)
}

func (ts *txStore) GetBreathDay(ctx context.Context, userID string, day ledger.Day) (*recovery.BreathDay, error) {
	return getBreathDay(ctx, ts.tx, userID, day)
}

func getBreathDay(ctx context.Context, q querier, userID string, day ledger.Day) (*recovery.BreathDay, error) {
	var (
		b      recovery.BreathDay
		dayStr string
	)
	err := q.QueryRowContext(ctx, `
		SELECT id, user_id, day, count, scored
		FROM breath_days WHERE user_id = ? AND day = ?`, userID, day.String(),
	).Scan(&b.ID, &b.UserID, &dayStr, &b.Count, &b.Scored)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	b.Day, _ = ledger.ParseDay(dayStr)
	return &b, nil
}

func (s *Store) SaveBreathDay(ctx context.Context, b recovery.BreathDay) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return saveBreathDay(ctx, s.db, b)
}

func (ts *txStore) SaveBreathDay(ctx context.Context, b recovery.BreathDay) error {
	return saveBreathDay(ctx, ts.tx, b)
}

func saveBreathDay(ctx context.Context, q querier, b recovery.BreathDay) error {
	_, err := q.ExecContext(ctx, `
		INSERT INTO breath_days (id, user_id, day, count, scored)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(user_id, day) DO UPDATE SET
			count = excluded.count,
			scored = excluded.scored`,
		b.ID, b.UserID, b.Day.String(), b.Count, b.Scored)
	return err
}

// =============================================================================
// RESET
// =============================================================================

// Reset wipes all user data. Admin full reset only.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return reset(ctx, s.db)
}

func (ts *txStore) Reset(ctx context.Context) error {
	return reset(ctx, ts.tx)
}

func reset(ctx context.Context, q querier) error {
	tables := []string{
		"purchases", "transactions", "money_events", "daily_logs",
		"checklist_days", "breath_days", "prizes", "users",
	}
	for _, table := range tables {
		if _, err := q.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return err
		}
	}
	return nil
}

// =============================================================================
// HELPERS
// =============================================================================

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullInt64(v int64) sql.NullInt64 {
	if v == 0 {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: v, Valid: true}
}

func nullInt(v int) sql.NullInt64 {
	return nullInt64(int64(v))
}

func nullTime(t time.Time) sql.NullString {
	if t.IsZero() {
		return sql.NullString{}
	}
	return sql.NullString{String: formatTime(t), Valid: true}
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.UTC().Format(time.RFC3339)
}

func parseTime(s string) time.Time {
	t, _ := time.Parse(time.RFC3339, s)
	return t
}

func isUniqueConstraintError(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// Interface conformance checks.
var (
	_ recovery.Store = (*Store)(nil)
	_ recovery.Store = (*txStore)(nil)
)
