package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/ashureev/skripsi-cepat/internal/domain"
	_ "modernc.org/sqlite"
)

// SQLiteStore implements Repository using SQLite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite creates a new SQLite-backed repository.
func NewSQLite(dbPath string) (Repository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create database directory: %w", err)
	}

	// Open database with WAL mode for better concurrency.
	dsn := dbPath + "?_journal=WAL&_sync=NORMAL&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(25)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.initSchema(); err != nil {
		return nil, fmt.Errorf("initialize schema: %w", err)
	}

	return store, nil
}

func (s *SQLiteStore) initSchema() error {
	query := `
	PRAGMA busy_timeout = 5000;
	CREATE TABLE IF NOT EXISTS users (
		user_id TEXT PRIMARY KEY,
		email TEXT,
		fakultas TEXT,
		jurusan TEXT,
		peminatan TEXT,
		last_seen_at INTEGER NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS funnel_sessions (
		user_id TEXT PRIMARY KEY,
		state_json TEXT NOT NULL,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS subscriptions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		payment_date INTEGER NOT NULL,
		expiry_date INTEGER NOT NULL,
		amount INTEGER NOT NULL,
		status TEXT NOT NULL,
		transaction_id TEXT,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_user ON subscriptions(user_id, created_at);
	CREATE INDEX IF NOT EXISTS idx_subscriptions_overdue ON subscriptions(expiry_date) WHERE status = 'active';

	CREATE TABLE IF NOT EXISTS orders (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		purpose TEXT NOT NULL,
		section TEXT,
		amount INTEGER NOT NULL,
		email TEXT NOT NULL,
		status TEXT NOT NULL,
		simulated INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS thesis_drafts (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		subscription_id TEXT NOT NULL,
		title TEXT NOT NULL,
		fakultas TEXT NOT NULL,
		jurusan TEXT NOT NULL,
		peminatan TEXT,
		sections_json TEXT NOT NULL DEFAULT '{}',
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_thesis_user ON thesis_drafts(user_id, created_at);

	CREATE TABLE IF NOT EXISTS chapters (
		id TEXT PRIMARY KEY,
		thesis_id TEXT NOT NULL,
		section TEXT NOT NULL,
		content TEXT NOT NULL DEFAULT '',
		revision_count INTEGER NOT NULL DEFAULT 5,
		is_complete INTEGER NOT NULL DEFAULT 0,
		created_at INTEGER NOT NULL,
		updated_at INTEGER NOT NULL,
		UNIQUE(thesis_id, section)
	);

	CREATE TABLE IF NOT EXISTS revision_purchases (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		chapter_id TEXT NOT NULL,
		amount INTEGER NOT NULL,
		revisions_added INTEGER NOT NULL,
		transaction_id TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE TABLE IF NOT EXISTS revision_history (
		id TEXT PRIMARY KEY,
		chapter_id TEXT NOT NULL,
		feedback TEXT NOT NULL,
		previous_content TEXT NOT NULL,
		new_content TEXT NOT NULL,
		created_at INTEGER NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_revision_history_chapter ON revision_history(chapter_id, created_at);
	`
	if _, err := s.db.Exec(query); err != nil {
		return fmt.Errorf("create schema: %w", err)
	}
	return nil
}

// Ping verifies database connectivity.
func (s *SQLiteStore) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close closes the database connection.
func (s *SQLiteStore) Close() error {
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("close database: %w", err)
	}
	return nil
}

// GetUser retrieves a user by their user ID.
func (s *SQLiteStore) GetUser(ctx context.Context, userID string) (*domain.User, error) {
	query := `
		SELECT user_id, email, fakultas, jurusan, peminatan,
		       last_seen_at, created_at, updated_at
		FROM users WHERE user_id = ?`

	row := s.db.QueryRowContext(ctx, query, userID)

	var user domain.User
	var email, fakultas, jurusan, peminatan sql.NullString
	var lastSeen, createdAt, updatedAt int64

	err := row.Scan(
		&user.UserID, &email, &fakultas, &jurusan, &peminatan,
		&lastSeen, &createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan user row: %w", err)
	}

	user.Email = email.String
	user.Fakultas = fakultas.String
	user.Jurusan = jurusan.String
	user.Peminatan = peminatan.String
	user.LastSeenAt = time.Unix(lastSeen, 0)
	user.CreatedAt = time.Unix(createdAt, 0)
	user.UpdatedAt = time.Unix(updatedAt, 0)

	return &user, nil
}

// UpsertUser creates or updates a user record.
func (s *SQLiteStore) UpsertUser(ctx context.Context, user *domain.User) error {
	query := `
	INSERT INTO users (user_id, email, fakultas, jurusan, peminatan, last_seen_at, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		email = COALESCE(NULLIF(excluded.email, ''), users.email),
		fakultas = COALESCE(NULLIF(excluded.fakultas, ''), users.fakultas),
		jurusan = COALESCE(NULLIF(excluded.jurusan, ''), users.jurusan),
		peminatan = COALESCE(NULLIF(excluded.peminatan, ''), users.peminatan),
		last_seen_at = excluded.last_seen_at,
		updated_at = excluded.updated_at`

	_, err := s.db.ExecContext(ctx, query,
		user.UserID, user.Email, user.Fakultas, user.Jurusan, user.Peminatan,
		user.LastSeenAt.Unix(), user.CreatedAt.Unix(), user.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("upsert user: %w", err)
	}
	return nil
}

// UpdateLastSeen updates the last_seen_at timestamp for a user.
func (s *SQLiteStore) UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error {
	query := `UPDATE users SET last_seen_at = ?, updated_at = ? WHERE user_id = ?`
	result, err := s.db.ExecContext(ctx, query, lastSeen.Unix(), time.Now().Unix(), userID)
	if err != nil {
		return fmt.Errorf("update last_seen: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		slog.Warn("UpdateLastSeen affected 0 rows", "user_id", userID)
	}

	return nil
}

// GetFunnelSnapshot returns the serialized funnel state for a session.
func (s *SQLiteStore) GetFunnelSnapshot(ctx context.Context, userID string) ([]byte, error) {
	var stateJSON string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json FROM funnel_sessions WHERE user_id = ?`, userID,
	).Scan(&stateJSON)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan funnel snapshot: %w", err)
	}
	return []byte(stateJSON), nil
}

// UpsertFunnelSnapshot writes the serialized funnel state for a session.
func (s *SQLiteStore) UpsertFunnelSnapshot(ctx context.Context, userID string, blob []byte) error {
	now := time.Now().Unix()
	query := `
	INSERT INTO funnel_sessions (user_id, state_json, created_at, updated_at)
	VALUES (?, ?, ?, ?)
	ON CONFLICT(user_id) DO UPDATE SET
		state_json = excluded.state_json,
		updated_at = excluded.updated_at`

	if _, err := s.db.ExecContext(ctx, query, userID, string(blob), now, now); err != nil {
		return fmt.Errorf("upsert funnel snapshot: %w", err)
	}
	return nil
}

// GetLatestSubscription returns the most recent subscription row for a user.
func (s *SQLiteStore) GetLatestSubscription(ctx context.Context, userID string) (*domain.Subscription, error) {
	query := `
		SELECT id, user_id, payment_date, expiry_date, amount, status, transaction_id, created_at
		FROM subscriptions WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, userID)

	var sub domain.Subscription
	var txID sql.NullString
	var payment, expiry, createdAt int64
	var status string

	err := row.Scan(&sub.ID, &sub.UserID, &payment, &expiry, &sub.Amount, &status, &txID, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan subscription row: %w", err)
	}

	sub.PaymentDate = time.Unix(payment, 0)
	sub.ExpiryDate = time.Unix(expiry, 0)
	sub.Status = domain.SubscriptionStatus(status)
	sub.TransactionID = txID.String
	sub.CreatedAt = time.Unix(createdAt, 0)

	return &sub, nil
}

// InsertSubscription appends a new subscription row.
func (s *SQLiteStore) InsertSubscription(ctx context.Context, sub *domain.Subscription) error {
	query := `
	INSERT INTO subscriptions (id, user_id, payment_date, expiry_date, amount, status, transaction_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		sub.ID, sub.UserID, sub.PaymentDate.Unix(), sub.ExpiryDate.Unix(),
		sub.Amount, string(sub.Status), sub.TransactionID, sub.CreatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert subscription: %w", err)
	}
	return nil
}

// UpdateSubscriptionStatus transitions a subscription's status.
func (s *SQLiteStore) UpdateSubscriptionStatus(ctx context.Context, id string, status domain.SubscriptionStatus) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = ? WHERE id = ?`, string(status), id)
	if err != nil {
		return fmt.Errorf("update subscription status: %w", err)
	}
	return nil
}

// ExpireOverdueSubscriptions marks overdue active subscriptions expired.
func (s *SQLiteStore) ExpireOverdueSubscriptions(ctx context.Context, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE subscriptions SET status = 'expired' WHERE status = 'active' AND expiry_date <= ?`,
		now.Unix())
	if err != nil {
		return 0, fmt.Errorf("expire overdue subscriptions: %w", err)
	}
	return result.RowsAffected()
}

// InsertOrder records a new payment order.
func (s *SQLiteStore) InsertOrder(ctx context.Context, order *domain.Order) error {
	query := `
	INSERT INTO orders (id, user_id, purpose, section, amount, email, status, simulated, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	simulated := 0
	if order.Simulated {
		simulated = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		order.ID, order.UserID, string(order.Purpose), string(order.Section),
		order.Amount, order.Email, string(order.Status), simulated,
		order.CreatedAt.Unix(), order.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}
	return nil
}

// GetOrder retrieves an order by id.
func (s *SQLiteStore) GetOrder(ctx context.Context, id string) (*domain.Order, error) {
	query := `
		SELECT id, user_id, purpose, section, amount, email, status, simulated, created_at, updated_at
		FROM orders WHERE id = ?`

	row := s.db.QueryRowContext(ctx, query, id)

	var order domain.Order
	var purpose, section, status string
	var simulated int
	var createdAt, updatedAt int64

	err := row.Scan(&order.ID, &order.UserID, &purpose, &section, &order.Amount,
		&order.Email, &status, &simulated, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan order row: %w", err)
	}

	order.Purpose = domain.OrderPurpose(purpose)
	order.Section = domain.Section(section)
	order.Status = domain.OrderStatus(status)
	order.Simulated = simulated != 0
	order.CreatedAt = time.Unix(createdAt, 0)
	order.UpdatedAt = time.Unix(updatedAt, 0)

	return &order, nil
}

// UpdateOrderStatus transitions an order's status.
func (s *SQLiteStore) UpdateOrderStatus(ctx context.Context, id string, status domain.OrderStatus) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE orders SET status = ?, updated_at = ? WHERE id = ?`,
		string(status), time.Now().Unix(), id)
	if err != nil {
		return fmt.Errorf("update order status: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("order %s: %w", id, domain.ErrNotFound)
	}
	return nil
}

// InsertThesis creates a thesis draft row.
func (s *SQLiteStore) InsertThesis(ctx context.Context, draft *domain.ThesisDraft) error {
	query := `
	INSERT INTO thesis_drafts (id, user_id, subscription_id, title, fakultas, jurusan, peminatan, sections_json, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`

	sectionsJSON := draft.SectionsJSON
	if sectionsJSON == "" {
		sectionsJSON = "{}"
	}
	_, err := s.db.ExecContext(ctx, query,
		draft.ID, draft.UserID, draft.SubscriptionID, draft.Title,
		draft.Fakultas, draft.Jurusan, draft.Peminatan, sectionsJSON,
		draft.CreatedAt.Unix(), draft.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert thesis draft: %w", err)
	}
	return nil
}

// GetThesisByUser returns the user's most recent thesis draft.
func (s *SQLiteStore) GetThesisByUser(ctx context.Context, userID string) (*domain.ThesisDraft, error) {
	query := `
		SELECT id, user_id, subscription_id, title, fakultas, jurusan, peminatan, sections_json, created_at, updated_at
		FROM thesis_drafts WHERE user_id = ?
		ORDER BY created_at DESC, id DESC LIMIT 1`

	row := s.db.QueryRowContext(ctx, query, userID)

	var draft domain.ThesisDraft
	var peminatan sql.NullString
	var createdAt, updatedAt int64

	err := row.Scan(&draft.ID, &draft.UserID, &draft.SubscriptionID, &draft.Title,
		&draft.Fakultas, &draft.Jurusan, &peminatan, &draft.SectionsJSON,
		&createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scan thesis row: %w", err)
	}

	draft.Peminatan = peminatan.String
	draft.CreatedAt = time.Unix(createdAt, 0)
	draft.UpdatedAt = time.Unix(updatedAt, 0)

	return &draft, nil
}

// SaveSectionsSnapshot stores the denormalized sections map on the draft.
func (s *SQLiteStore) SaveSectionsSnapshot(ctx context.Context, thesisID string, sectionsJSON string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE thesis_drafts SET sections_json = ?, updated_at = ? WHERE id = ?`,
		sectionsJSON, time.Now().Unix(), thesisID)
	if err != nil {
		return fmt.Errorf("save sections snapshot: %w", err)
	}
	return nil
}

// InsertChapter creates a per-section chapter row.
func (s *SQLiteStore) InsertChapter(ctx context.Context, ch *domain.Chapter) error {
	query := `
	INSERT INTO chapters (id, thesis_id, section, content, revision_count, is_complete, created_at, updated_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?)`

	complete := 0
	if ch.IsComplete {
		complete = 1
	}
	_, err := s.db.ExecContext(ctx, query,
		ch.ID, ch.ThesisID, string(ch.Section), ch.Content,
		ch.RevisionCount, complete, ch.CreatedAt.Unix(), ch.UpdatedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert chapter: %w", err)
	}
	return nil
}

// GetChapter returns the chapter row for one section of a draft.
func (s *SQLiteStore) GetChapter(ctx context.Context, thesisID string, section domain.Section) (*domain.Chapter, error) {
	query := `
		SELECT id, thesis_id, section, content, revision_count, is_complete, created_at, updated_at
		FROM chapters WHERE thesis_id = ? AND section = ?`

	row := s.db.QueryRowContext(ctx, query, thesisID, string(section))

	var ch domain.Chapter
	var sec string
	var complete int
	var createdAt, updatedAt int64

	err := row.Scan(&ch.ID, &ch.ThesisID, &sec, &ch.Content,
		&ch.RevisionCount, &complete, &createdAt, &updatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("chapter %s/%s: %w", thesisID, section, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("scan chapter row: %w", err)
	}

	ch.Section = domain.Section(sec)
	ch.IsComplete = complete != 0
	ch.CreatedAt = time.Unix(createdAt, 0)
	ch.UpdatedAt = time.Unix(updatedAt, 0)

	return &ch, nil
}

// UpdateChapterContent replaces a chapter's content.
func (s *SQLiteStore) UpdateChapterContent(ctx context.Context, chapterID string, content string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET content = ?, updated_at = ? WHERE id = ?`,
		content, time.Now().Unix(), chapterID)
	if err != nil {
		return fmt.Errorf("update chapter content: %w", err)
	}
	return nil
}

// CompleteChapter sets a chapter's completion flag.
func (s *SQLiteStore) CompleteChapter(ctx context.Context, chapterID string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET is_complete = 1, updated_at = ? WHERE id = ?`,
		time.Now().Unix(), chapterID)
	if err != nil {
		return fmt.Errorf("complete chapter: %w", err)
	}
	return nil
}

// GetRevisionCount returns a chapter's remaining revision quota.
func (s *SQLiteStore) GetRevisionCount(ctx context.Context, chapterID string) (int, error) {
	var count int
	err := s.db.QueryRowContext(ctx,
		`SELECT revision_count FROM chapters WHERE id = ?`, chapterID,
	).Scan(&count)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	if err != nil {
		return 0, fmt.Errorf("scan revision count: %w", err)
	}
	return count, nil
}

// DecrementRevisionCount decrements a chapter's quota by one. The guard in
// the WHERE clause makes the zero-quota case fail instead of clamping.
func (s *SQLiteStore) DecrementRevisionCount(ctx context.Context, chapterID string) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET revision_count = revision_count - 1, updated_at = ?
		 WHERE id = ? AND revision_count > 0`,
		time.Now().Unix(), chapterID)
	if err != nil {
		return 0, fmt.Errorf("decrement revision count: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrQuotaExhausted)
	}
	return s.GetRevisionCount(ctx, chapterID)
}

// AddRevisions credits n revisions to a chapter.
func (s *SQLiteStore) AddRevisions(ctx context.Context, chapterID string, n int) (int, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE chapters SET revision_count = revision_count + ?, updated_at = ? WHERE id = ?`,
		n, time.Now().Unix(), chapterID)
	if err != nil {
		return 0, fmt.Errorf("add revisions: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("get rows affected: %w", err)
	}
	if rows == 0 {
		return 0, fmt.Errorf("chapter %s: %w", chapterID, domain.ErrNotFound)
	}
	return s.GetRevisionCount(ctx, chapterID)
}

// InsertRevisionPurchase appends a top-up purchase record.
func (s *SQLiteStore) InsertRevisionPurchase(ctx context.Context, p *domain.RevisionPurchase) error {
	query := `
	INSERT INTO revision_purchases (id, user_id, chapter_id, amount, revisions_added, transaction_id, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		p.ID, p.UserID, p.ChapterID, p.Amount, p.RevisionsAdded, p.TransactionID, p.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert revision purchase: %w", err)
	}
	return nil
}

// InsertRevisionRecord appends a revision history entry.
func (s *SQLiteStore) InsertRevisionRecord(ctx context.Context, rec *domain.RevisionRecord) error {
	query := `
	INSERT INTO revision_history (id, chapter_id, feedback, previous_content, new_content, created_at)
	VALUES (?, ?, ?, ?, ?, ?)`

	_, err := s.db.ExecContext(ctx, query,
		rec.ID, rec.ChapterID, rec.Feedback, rec.PreviousContent, rec.NewContent, rec.CreatedAt.Unix())
	if err != nil {
		return fmt.Errorf("insert revision record: %w", err)
	}
	return nil
}

// ListRevisionRecords returns a chapter's revision history, newest first.
func (s *SQLiteStore) ListRevisionRecords(ctx context.Context, chapterID string) ([]*domain.RevisionRecord, error) {
	query := `
		SELECT id, chapter_id, feedback, previous_content, new_content, created_at
		FROM revision_history WHERE chapter_id = ?
		ORDER BY created_at DESC, id DESC`

	rows, err := s.db.QueryContext(ctx, query, chapterID)
	if err != nil {
		return nil, fmt.Errorf("query revision history: %w", err)
	}
	defer func() {
		if closeErr := rows.Close(); closeErr != nil {
			slog.Warn("failed to close revision history rows", "error", closeErr)
		}
	}()

	var records []*domain.RevisionRecord
	for rows.Next() {
		var rec domain.RevisionRecord
		var createdAt int64
		if err := rows.Scan(&rec.ID, &rec.ChapterID, &rec.Feedback,
			&rec.PreviousContent, &rec.NewContent, &createdAt); err != nil {
			return nil, fmt.Errorf("scan revision history row: %w", err)
		}
		rec.CreatedAt = time.Unix(createdAt, 0)
		records = append(records, &rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate revision history: %w", err)
	}

	return records, nil
}
