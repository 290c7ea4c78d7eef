package store

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver
)

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id            TEXT PRIMARY KEY,
	username      TEXT NOT NULL UNIQUE,
	password_hash TEXT NOT NULL,
	is_admin      INTEGER NOT NULL DEFAULT 0,
	team_id       TEXT NOT NULL DEFAULT '',
	created_at    DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS teams (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS meetings (
	id           TEXT PRIMARY KEY,
	title        TEXT NOT NULL,
	date         TEXT NOT NULL,
	summary      TEXT NOT NULL DEFAULT '',
	processed_by TEXT NOT NULL DEFAULT '',
	created_at   DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS tasks (
	id                       TEXT PRIMARY KEY,
	meeting_id               TEXT NOT NULL DEFAULT '',
	assignee_id              TEXT NOT NULL,
	description              TEXT NOT NULL,
	status                   TEXT NOT NULL,
	priority                 INTEGER NOT NULL DEFAULT 0,
	effort_tag               TEXT NOT NULL DEFAULT '',
	confidence               REAL NOT NULL DEFAULT 0,
	needs_priority_review    INTEGER NOT NULL DEFAULT 0,
	is_approved              INTEGER NOT NULL DEFAULT 0,
	progress                 INTEGER NOT NULL DEFAULT 0,
	story_points             INTEGER NOT NULL DEFAULT 0,
	is_blocked               INTEGER NOT NULL DEFAULT 0,
	blocker_reason           TEXT NOT NULL DEFAULT '',
	is_potential_risk        INTEGER NOT NULL DEFAULT 0,
	risk_reason              TEXT NOT NULL DEFAULT '',
	due_date                 TEXT NOT NULL DEFAULT '',
	suggested_focus_time     DATETIME,
	submitted_at             DATETIME,
	submission_notes         TEXT NOT NULL DEFAULT '',
	submission_url           TEXT NOT NULL DEFAULT '',
	verified_at              DATETIME,
	verified_by              TEXT NOT NULL DEFAULT '',
	verification_notes       TEXT NOT NULL DEFAULT '',
	verification_deadline_at DATETIME,
	sla_breached             INTEGER NOT NULL DEFAULT 0,
	bundle_id                TEXT NOT NULL DEFAULT '',
	workcycle_id             TEXT NOT NULL DEFAULT '',
	version                  INTEGER NOT NULL DEFAULT 0,
	created_at               DATETIME NOT NULL,
	updated_at               DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS workcycles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	goal       TEXT NOT NULL DEFAULT '',
	starts_on  TEXT NOT NULL DEFAULT '',
	ends_on    TEXT NOT NULL DEFAULT '',
	created_by TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS bundles (
	id         TEXT PRIMARY KEY,
	name       TEXT NOT NULL,
	created_by TEXT NOT NULL,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS notifications (
	id         TEXT PRIMARY KEY,
	user_id    TEXT NOT NULL,
	task_id    TEXT NOT NULL DEFAULT '',
	message    TEXT NOT NULL,
	read       INTEGER NOT NULL DEFAULT 0,
	created_at DATETIME NOT NULL
);

CREATE TABLE IF NOT EXISTS snapshots (
	id               TEXT PRIMARY KEY,
	workcycle_id     TEXT NOT NULL,
	remaining_points INTEGER NOT NULL,
	remaining_tasks  INTEGER NOT NULL,
	taken_at         DATETIME NOT NULL
);
`

// Store persists all Minuteman entities in a SQLite database.
type Store struct {
	db *sql.DB
}

// Open opens (or creates) a SQLite database at dbPath and ensures the
// schema exists. The caller is responsible for calling Close.
func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %s: %w", dbPath, err)
	}
	db.SetMaxOpenConns(1) // prevent SQLITE_BUSY
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close releases the underlying database connection.
func (s *Store) Close() error { return s.db.Close() }

func newID() string { return uuid.New().String() }

// --- Users ---

// CreateUser persists a new user and sets its ID and CreatedAt.
func (s *Store) CreateUser(ctx context.Context, u *User) error {
	u.ID = newID()
	u.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (id, username, password_hash, is_admin, team_id, created_at)
		 VALUES (?,?,?,?,?,?)`,
		u.ID, u.Username, u.PasswordHash, boolInt(u.IsAdmin), u.TeamID, u.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert user: %w", err)
	}
	return nil
}

// GetUser retrieves a user by ID.
func (s *Store) GetUser(ctx context.Context, id string) (*User, error) {
	return s.scanUserRow(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_admin, team_id, created_at FROM users WHERE id=?`, id))
}

// GetUserByUsername retrieves a user by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*User, error) {
	return s.scanUserRow(s.db.QueryRowContext(ctx,
		`SELECT id, username, password_hash, is_admin, team_id, created_at FROM users WHERE username=?`, username))
}

// GetOrCreateUser returns the user with the given username, creating a
// non-admin account with the supplied password hash when none exists.
// This is the explicit lookup-or-create collaborator behind lazy assignee
// creation during extraction.
func (s *Store) GetOrCreateUser(ctx context.Context, username, passwordHash string) (*User, error) {
	u, err := s.GetUserByUsername(ctx, username)
	if err == nil {
		return u, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	u = &User{Username: username, PasswordHash: passwordHash}
	if err := s.CreateUser(ctx, u); err != nil {
		return nil, err
	}
	return u, nil
}

// ListUsers returns all users ordered by username.
func (s *Store) ListUsers(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, username, password_hash, is_admin, team_id, created_at FROM users ORDER BY username ASC`)
	if err != nil {
		return nil, fmt.Errorf("list users: %w", err)
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := s.scanUserRow(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, u)
	}
	return users, rows.Err()
}

// CountUsers returns the total number of users.
func (s *Store) CountUsers(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM users`).Scan(&n); err != nil {
		return 0, fmt.Errorf("count users: %w", err)
	}
	return n, nil
}

func (s *Store) scanUserRow(row scanner) (*User, error) {
	var u User
	var isAdmin int
	err := row.Scan(&u.ID, &u.Username, &u.PasswordHash, &isAdmin, &u.TeamID, &u.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	u.IsAdmin = isAdmin != 0
	return &u, nil
}

// --- Teams ---

// CreateTeam persists a new team.
func (s *Store) CreateTeam(ctx context.Context, t *Team) error {
	t.ID = newID()
	t.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO teams (id, name, created_at) VALUES (?,?,?)`,
		t.ID, t.Name, t.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert team: %w", err)
	}
	return nil
}

// ListTeams returns all teams ordered by name.
func (s *Store) ListTeams(ctx context.Context) ([]*Team, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, name, created_at FROM teams ORDER BY name ASC`)
	if err != nil {
		return nil, fmt.Errorf("list teams: %w", err)
	}
	defer rows.Close()

	var teams []*Team
	for rows.Next() {
		var t Team
		if err := rows.Scan(&t.ID, &t.Name, &t.CreatedAt); err != nil {
			return nil, err
		}
		teams = append(teams, &t)
	}
	return teams, rows.Err()
}

// --- Meetings ---

// CreateMeeting persists a new meeting.
func (s *Store) CreateMeeting(ctx context.Context, m *Meeting) error {
	m.ID = newID()
	m.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO meetings (id, title, date, summary, processed_by, created_at)
		 VALUES (?,?,?,?,?,?)`,
		m.ID, m.Title, m.Date, m.Summary, m.ProcessedBy, m.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert meeting: %w", err)
	}
	return nil
}

// GetMeeting retrieves a meeting by ID.
func (s *Store) GetMeeting(ctx context.Context, id string) (*Meeting, error) {
	var m Meeting
	err := s.db.QueryRowContext(ctx,
		`SELECT id, title, date, summary, processed_by, created_at FROM meetings WHERE id=?`, id).
		Scan(&m.ID, &m.Title, &m.Date, &m.Summary, &m.ProcessedBy, &m.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// UpdateMeetingSummary replaces a meeting's summary text. Meetings are
// otherwise immutable after creation.
func (s *Store) UpdateMeetingSummary(ctx context.Context, id, summary string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE meetings SET summary=? WHERE id=?`, summary, id)
	if err != nil {
		return fmt.Errorf("update meeting summary: %w", err)
	}
	return checkAffected(res)
}

// ListMeetings returns all meetings, most recent date first.
func (s *Store) ListMeetings(ctx context.Context) ([]*Meeting, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, title, date, summary, processed_by, created_at FROM meetings ORDER BY date DESC`)
	if err != nil {
		return nil, fmt.Errorf("list meetings: %w", err)
	}
	defer rows.Close()

	var meetings []*Meeting
	for rows.Next() {
		var m Meeting
		if err := rows.Scan(&m.ID, &m.Title, &m.Date, &m.Summary, &m.ProcessedBy, &m.CreatedAt); err != nil {
			return nil, err
		}
		meetings = append(meetings, &m)
	}
	return meetings, rows.Err()
}

// CountMeetingsSince returns the number of meetings created at or after t.
func (s *Store) CountMeetingsSince(ctx context.Context, t time.Time) (int, error) {
	var n int
	err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM meetings WHERE created_at >= ?`, t).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("count meetings: %w", err)
	}
	return n, nil
}

// --- Notifications ---

// CreateNotification persists a new notification.
func (s *Store) CreateNotification(ctx context.Context, n *Notification) error {
	n.ID = newID()
	n.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO notifications (id, user_id, task_id, message, read, created_at)
		 VALUES (?,?,?,?,?,?)`,
		n.ID, n.UserID, n.TaskID, n.Message, boolInt(n.Read), n.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert notification: %w", err)
	}
	return nil
}

// ListNotifications returns a user's notifications, newest first.
func (s *Store) ListNotifications(ctx context.Context, userID string) ([]*Notification, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, task_id, message, read, created_at
		 FROM notifications WHERE user_id=? ORDER BY created_at DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list notifications: %w", err)
	}
	defer rows.Close()

	var out []*Notification
	for rows.Next() {
		var n Notification
		var read int
		if err := rows.Scan(&n.ID, &n.UserID, &n.TaskID, &n.Message, &read, &n.CreatedAt); err != nil {
			return nil, err
		}
		n.Read = read != 0
		out = append(out, &n)
	}
	return out, rows.Err()
}

// MarkNotificationRead flags a notification as read. The userID guard
// prevents marking another user's notifications.
func (s *Store) MarkNotificationRead(ctx context.Context, id, userID string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE notifications SET read=1 WHERE id=? AND user_id=?`, id, userID)
	if err != nil {
		return fmt.Errorf("mark notification read: %w", err)
	}
	return checkAffected(res)
}

// --- WorkCycles ---

// CreateWorkCycle persists a new work cycle.
func (s *Store) CreateWorkCycle(ctx context.Context, wc *WorkCycle) error {
	wc.ID = newID()
	wc.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO workcycles (id, name, goal, starts_on, ends_on, created_by, created_at)
		 VALUES (?,?,?,?,?,?,?)`,
		wc.ID, wc.Name, wc.Goal, wc.StartsOn, wc.EndsOn, wc.CreatedBy, wc.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert workcycle: %w", err)
	}
	return nil
}

// GetWorkCycle retrieves a work cycle by ID.
func (s *Store) GetWorkCycle(ctx context.Context, id string) (*WorkCycle, error) {
	var wc WorkCycle
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, goal, starts_on, ends_on, created_by, created_at FROM workcycles WHERE id=?`, id).
		Scan(&wc.ID, &wc.Name, &wc.Goal, &wc.StartsOn, &wc.EndsOn, &wc.CreatedBy, &wc.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &wc, nil
}

// ListWorkCycles returns all work cycles, newest first.
func (s *Store) ListWorkCycles(ctx context.Context) ([]*WorkCycle, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, goal, starts_on, ends_on, created_by, created_at
		 FROM workcycles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list workcycles: %w", err)
	}
	defer rows.Close()

	var out []*WorkCycle
	for rows.Next() {
		var wc WorkCycle
		if err := rows.Scan(&wc.ID, &wc.Name, &wc.Goal, &wc.StartsOn, &wc.EndsOn, &wc.CreatedBy, &wc.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &wc)
	}
	return out, rows.Err()
}

// --- Bundles ---

// CreateBundle persists a new bundle group.
func (s *Store) CreateBundle(ctx context.Context, b *BundleGroup) error {
	b.ID = newID()
	b.CreatedAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO bundles (id, name, created_by, created_at) VALUES (?,?,?,?)`,
		b.ID, b.Name, b.CreatedBy, b.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("insert bundle: %w", err)
	}
	return nil
}

// GetBundle retrieves a bundle group by ID.
func (s *Store) GetBundle(ctx context.Context, id string) (*BundleGroup, error) {
	var b BundleGroup
	err := s.db.QueryRowContext(ctx,
		`SELECT id, name, created_by, created_at FROM bundles WHERE id=?`, id).
		Scan(&b.ID, &b.Name, &b.CreatedBy, &b.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

// ListBundles returns all bundle groups, newest first.
func (s *Store) ListBundles(ctx context.Context) ([]*BundleGroup, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, created_by, created_at FROM bundles ORDER BY created_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list bundles: %w", err)
	}
	defer rows.Close()

	var out []*BundleGroup
	for rows.Next() {
		var b BundleGroup
		if err := rows.Scan(&b.ID, &b.Name, &b.CreatedBy, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, &b)
	}
	return out, rows.Err()
}

// --- Snapshots ---

// CreateSnapshot appends a progress snapshot. Snapshots are never updated.
func (s *Store) CreateSnapshot(ctx context.Context, sn *ProgressSnapshot) error {
	sn.ID = newID()
	sn.TakenAt = time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (id, workcycle_id, remaining_points, remaining_tasks, taken_at)
		 VALUES (?,?,?,?,?)`,
		sn.ID, sn.WorkCycleID, sn.RemainingPoints, sn.RemainingTasks, sn.TakenAt,
	)
	if err != nil {
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// ListSnapshots returns a work cycle's snapshots in chronological order.
func (s *Store) ListSnapshots(ctx context.Context, workCycleID string) ([]*ProgressSnapshot, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, workcycle_id, remaining_points, remaining_tasks, taken_at
		 FROM snapshots WHERE workcycle_id=? ORDER BY taken_at ASC`, workCycleID)
	if err != nil {
		return nil, fmt.Errorf("list snapshots: %w", err)
	}
	defer rows.Close()

	var out []*ProgressSnapshot
	for rows.Next() {
		var sn ProgressSnapshot
		if err := rows.Scan(&sn.ID, &sn.WorkCycleID, &sn.RemainingPoints, &sn.RemainingTasks, &sn.TakenAt); err != nil {
			return nil, err
		}
		out = append(out, &sn)
	}
	return out, rows.Err()
}

// --- helpers ---

// scanner abstracts sql.Row and sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

func checkAffected(res sql.Result) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return ErrNotFound
	}
	return nil
}

func boolInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullTime(t *time.Time) any {
	if t == nil {
		return nil
	}
	return *t
}
