package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bunchup/bunchup/internal/model"
	"github.com/bunchup/bunchup/internal/store"

	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec("PRAGMA foreign_keys = ON;"); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := applySchema(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// migrations is an ordered list of SQL migrations.
// Each migration runs exactly once, tracked by schema_version table.
var migrations = []string{
	// Migration 1: Initial schema
	`
CREATE TABLE IF NOT EXISTS users (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	username TEXT NOT NULL,
	password_hash TEXT NOT NULL,
	role TEXT NOT NULL DEFAULT 'member',
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_users_username ON users(username);

CREATE TABLE IF NOT EXISTS unions (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	name TEXT NOT NULL,
	description TEXT,
	industry TEXT,
	tags TEXT,
	created_at INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_unions_name ON unions(name);

CREATE TABLE IF NOT EXISTS union_members (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	union_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	joined_at INTEGER NOT NULL,
	FOREIGN KEY(union_id) REFERENCES unions(id),
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_union_members_unique ON union_members(union_id, user_id);

CREATE TABLE IF NOT EXISTS posts (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	content TEXT NOT NULL,
	union_id INTEGER,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(union_id) REFERENCES unions(id)
);
CREATE INDEX IF NOT EXISTS idx_posts_union ON posts(union_id, created_at DESC);

CREATE TABLE IF NOT EXISTS comments (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	content TEXT NOT NULL,
	created_at INTEGER NOT NULL,
	updated_at INTEGER NOT NULL,
	FOREIGN KEY(post_id) REFERENCES posts(id),
	FOREIGN KEY(user_id) REFERENCES users(id)
);
CREATE INDEX IF NOT EXISTS idx_comments_post ON comments(post_id);

CREATE TABLE IF NOT EXISTS feedbacks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	post_id INTEGER,
	user_id INTEGER,
	anonymous INTEGER NOT NULL DEFAULT 0,
	message TEXT NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_feedbacks_post ON feedbacks(post_id);

CREATE TABLE IF NOT EXISTS events (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	title TEXT NOT NULL,
	description TEXT,
	location TEXT,
	start_time INTEGER NOT NULL,
	end_time INTEGER,
	union_id INTEGER,
	creator_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_events_start ON events(start_time DESC);

CREATE TABLE IF NOT EXISTS event_attendees (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	event_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(event_id) REFERENCES events(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_event_attendees_unique ON event_attendees(event_id, user_id);

CREATE TABLE IF NOT EXISTS polls (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	question TEXT NOT NULL,
	union_id INTEGER,
	created_at INTEGER NOT NULL
);

CREATE TABLE IF NOT EXISTS poll_options (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	poll_id INTEGER NOT NULL,
	text TEXT NOT NULL,
	FOREIGN KEY(poll_id) REFERENCES polls(id)
);
CREATE INDEX IF NOT EXISTS idx_poll_options_poll ON poll_options(poll_id);

CREATE TABLE IF NOT EXISTS poll_votes (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	poll_id INTEGER NOT NULL,
	option_id INTEGER NOT NULL,
	user_id INTEGER NOT NULL,
	created_at INTEGER NOT NULL,
	FOREIGN KEY(option_id) REFERENCES poll_options(id)
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_poll_votes_unique ON poll_votes(poll_id, user_id);
`,
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS schema_version (
			version INTEGER PRIMARY KEY
		)
	`); err != nil {
		return err
	}

	var currentVersion int
	row := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_version`)
	if err := row.Scan(&currentVersion); err != nil {
		return err
	}

	for i := currentVersion; i < len(migrations); i++ {
		if _, err := db.Exec(migrations[i]); err != nil {
			return fmt.Errorf("migration %d failed: %w", i+1, err)
		}
		if _, err := db.Exec(`INSERT INTO schema_version (version) VALUES (?)`, i+1); err != nil {
			return fmt.Errorf("failed to record migration %d: %w", i+1, err)
		}
	}

	return nil
}

func (s *Store) CreateUser(ctx context.Context, user *model.User, passwordHash string) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO users (username, password_hash, role, created_at)
VALUES (?, ?, ?, ?)
`, user.Username, passwordHash, string(user.Role), user.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrDuplicateName
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetUser(ctx context.Context, id int64) (model.User, error) {
	var u model.User
	var role string
	var created int64
	err := s.db.QueryRowContext(ctx, `
SELECT id, username, role, created_at FROM users WHERE id = ?
`, id).Scan(&u.ID, &u.Username, &role, &created)
	if err != nil {
		return model.User{}, notFound(err)
	}
	u.Role = model.Role(role)
	u.CreatedAt = unixTime(created)
	return u, nil
}

func (s *Store) GetUserByUsername(ctx context.Context, username string) (model.User, string, error) {
	var u model.User
	var role, hash string
	var created int64
	err := s.db.QueryRowContext(ctx, `
SELECT id, username, role, created_at, password_hash FROM users WHERE username = ?
`, username).Scan(&u.ID, &u.Username, &role, &created, &hash)
	if err != nil {
		return model.User{}, "", notFound(err)
	}
	u.Role = model.Role(role)
	u.CreatedAt = unixTime(created)
	return u, hash, nil
}

const unionColumns = `
SELECT u.id, u.name, u.description, u.industry, u.tags, u.created_at,
	(SELECT COUNT(*) FROM union_members m WHERE m.union_id = u.id),
	EXISTS(SELECT 1 FROM union_members m WHERE m.union_id = u.id AND m.user_id = ?)
FROM unions u
`

func (s *Store) CreateUnion(ctx context.Context, union *model.Union) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO unions (name, description, industry, tags, created_at)
VALUES (?, ?, ?, ?, ?)
`, union.Name, nullString(union.Description), nullString(union.Industry), nullString(union.Tags), union.CreatedAt.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return 0, store.ErrDuplicateName
		}
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetUnion(ctx context.Context, id, viewerID int64) (model.Union, error) {
	row := s.db.QueryRowContext(ctx, unionColumns+`WHERE u.id = ?`, viewerID, id)
	return scanUnion(row)
}

func (s *Store) ListUnions(ctx context.Context, opts store.UnionListOpts) ([]model.Union, error) {
	var where []string
	args := []any{opts.ViewerID}
	if opts.Industry != "" {
		where = append(where, "u.industry = ?")
		args = append(args, opts.Industry)
	}
	if opts.Search != "" {
		like := "%" + strings.ToLower(opts.Search) + "%"
		where = append(where, "(LOWER(u.name) LIKE ? OR LOWER(COALESCE(u.description, '')) LIKE ? OR LOWER(COALESCE(u.tags, '')) LIKE ?)")
		args = append(args, like, like, like)
	}
	query := unionColumns
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY u.id LIMIT ? OFFSET ?"
	args = append(args, clamp(opts.Limit, 1, 500), max(opts.Skip, 0))

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var unions []model.Union
	for rows.Next() {
		u, err := scanUnion(rows)
		if err != nil {
			return nil, err
		}
		unions = append(unions, u)
	}
	return unions, rows.Err()
}

func (s *Store) ListIndustries(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT DISTINCT industry FROM unions
WHERE industry IS NOT NULL AND industry != ''
ORDER BY industry
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	industries := []string{}
	for rows.Next() {
		var industry string
		if err := rows.Scan(&industry); err != nil {
			return nil, err
		}
		industries = append(industries, industry)
	}
	return industries, rows.Err()
}

func (s *Store) AddMember(ctx context.Context, unionID, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO union_members (union_id, user_id, joined_at) VALUES (?, ?, ?)
`, unionID, userID, at.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateMember
		}
		return err
	}
	return nil
}

func (s *Store) RemoveMember(ctx context.Context, unionID, userID int64) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM union_members WHERE union_id = ? AND user_id = ?
`, unionID, userID)
	return affected(res, err)
}

func (s *Store) ListMembers(ctx context.Context, unionID int64, skip, limit int) ([]model.Member, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT u.id, u.username, u.role
FROM union_members m
JOIN users u ON u.id = m.user_id
WHERE m.union_id = ?
ORDER BY m.id
LIMIT ? OFFSET ?
`, unionID, clamp(limit, 1, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	members := []model.Member{}
	for rows.Next() {
		var m model.Member
		var role string
		if err := rows.Scan(&m.ID, &m.Username, &role); err != nil {
			return nil, err
		}
		m.Role = model.Role(role)
		members = append(members, m)
	}
	return members, rows.Err()
}

func (s *Store) CreatePost(ctx context.Context, post *model.Post) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO posts (title, content, union_id, created_at) VALUES (?, ?, ?, ?)
`, post.Title, post.Content, nullInt64(post.UnionID), post.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetPost(ctx context.Context, id int64) (model.Post, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, title, content, union_id, created_at FROM posts WHERE id = ?
`, id)
	return scanPost(row)
}

func (s *Store) ListPostsByUnion(ctx context.Context, unionID int64, skip, limit int) ([]model.Post, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, title, content, union_id, created_at FROM posts
WHERE union_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`, unionID, clamp(limit, 1, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	posts := []model.Post{}
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, p)
	}
	return posts, rows.Err()
}

const commentColumns = `
SELECT c.id, c.content, c.post_id, c.user_id, COALESCE(u.username, ''), c.created_at, c.updated_at
FROM comments c
LEFT JOIN users u ON u.id = c.user_id
`

func (s *Store) CreateComment(ctx context.Context, comment *model.Comment) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO comments (post_id, user_id, content, created_at, updated_at) VALUES (?, ?, ?, ?, ?)
`, comment.PostID, comment.UserID, comment.Content, comment.CreatedAt.Unix(), comment.UpdatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetComment(ctx context.Context, id int64) (model.Comment, error) {
	return scanComment(s.db.QueryRowContext(ctx, commentColumns+`WHERE c.id = ?`, id))
}

func (s *Store) ListComments(ctx context.Context, postID int64, skip, limit int) ([]model.Comment, error) {
	rows, err := s.db.QueryContext(ctx, commentColumns+`
WHERE c.post_id = ?
ORDER BY c.created_at, c.id
LIMIT ? OFFSET ?
`, postID, clamp(limit, 1, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	comments := []model.Comment{}
	for rows.Next() {
		c, err := scanComment(rows)
		if err != nil {
			return nil, err
		}
		comments = append(comments, c)
	}
	return comments, rows.Err()
}

func (s *Store) UpdateComment(ctx context.Context, id int64, content string, at time.Time) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE comments SET content = ?, updated_at = ? WHERE id = ?
`, content, at.Unix(), id)
	return affected(res, err)
}

func (s *Store) DeleteComment(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM comments WHERE id = ?`, id)
	return affected(res, err)
}

func (s *Store) CreateFeedback(ctx context.Context, fb *model.Feedback, userID *int64) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO feedbacks (post_id, user_id, anonymous, message, created_at) VALUES (?, ?, ?, ?, ?)
`, nullInt64(fb.PostID), nullInt64(userID), boolToInt(fb.Anonymous), fb.Message, fb.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetFeedback(ctx context.Context, id int64) (model.Feedback, error) {
	row := s.db.QueryRowContext(ctx, `
SELECT id, post_id, anonymous, message, created_at FROM feedbacks WHERE id = ?
`, id)
	return scanFeedback(row)
}

func (s *Store) ListFeedbackByPost(ctx context.Context, postID int64, skip, limit int) ([]model.Feedback, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, post_id, anonymous, message, created_at FROM feedbacks
WHERE post_id = ?
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`, postID, clamp(limit, 1, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []model.Feedback{}
	for rows.Next() {
		fb, err := scanFeedback(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, fb)
	}
	return out, rows.Err()
}

const eventColumns = `
SELECT e.id, e.title, e.description, e.location, e.start_time, e.end_time, e.union_id,
	e.creator_id, COALESCE(u.username, ''), e.created_at,
	(SELECT COUNT(*) FROM event_attendees a WHERE a.event_id = e.id)
FROM events e
LEFT JOIN users u ON u.id = e.creator_id
`

func (s *Store) CreateEvent(ctx context.Context, ev *model.Event) (int64, error) {
	res, err := s.db.ExecContext(ctx, `
INSERT INTO events (title, description, location, start_time, end_time, union_id, creator_id, created_at)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)
`, ev.Title, nullString(ev.Description), nullString(ev.Location), ev.StartTime.Unix(), nullTime(ev.EndTime), nullInt64(ev.UnionID), ev.CreatorID, ev.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func (s *Store) GetEvent(ctx context.Context, id int64) (model.Event, error) {
	return scanEvent(s.db.QueryRowContext(ctx, eventColumns+`WHERE e.id = ?`, id))
}

func (s *Store) ListEvents(ctx context.Context, skip, limit int) ([]model.Event, error) {
	rows, err := s.db.QueryContext(ctx, eventColumns+`
ORDER BY e.start_time DESC, e.id DESC
LIMIT ? OFFSET ?
`, clamp(limit, 1, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	events := []model.Event{}
	for rows.Next() {
		ev, err := scanEvent(rows)
		if err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}

func (s *Store) UpdateEvent(ctx context.Context, ev *model.Event) error {
	res, err := s.db.ExecContext(ctx, `
UPDATE events SET title = ?, description = ?, location = ?, start_time = ?, end_time = ?, union_id = ?
WHERE id = ?
`, ev.Title, nullString(ev.Description), nullString(ev.Location), ev.StartTime.Unix(), nullTime(ev.EndTime), nullInt64(ev.UnionID), ev.ID)
	return affected(res, err)
}

func (s *Store) DeleteEvent(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM event_attendees WHERE event_id = ?`, id); err != nil {
		return err
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM events WHERE id = ?`, id)
	if err = affected(res, err); err != nil {
		return err
	}
	return tx.Commit()
}

func (s *Store) AddAttendee(ctx context.Context, eventID, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO event_attendees (event_id, user_id, created_at) VALUES (?, ?, ?)
`, eventID, userID, at.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateRSVP
		}
		return err
	}
	return nil
}

func (s *Store) RemoveAttendee(ctx context.Context, eventID, userID int64) error {
	res, err := s.db.ExecContext(ctx, `
DELETE FROM event_attendees WHERE event_id = ? AND user_id = ?
`, eventID, userID)
	return affected(res, err)
}

func (s *Store) ListAttendees(ctx context.Context, eventID int64) ([]model.Attendee, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT a.user_id, COALESCE(u.username, '')
FROM event_attendees a
LEFT JOIN users u ON u.id = a.user_id
WHERE a.event_id = ?
ORDER BY a.id
`, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attendees := []model.Attendee{}
	for rows.Next() {
		var a model.Attendee
		if err := rows.Scan(&a.UserID, &a.Username); err != nil {
			return nil, err
		}
		attendees = append(attendees, a)
	}
	return attendees, rows.Err()
}

func (s *Store) CreatePoll(ctx context.Context, poll *model.Poll) (id int64, err error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `
INSERT INTO polls (question, union_id, created_at) VALUES (?, ?, ?)
`, poll.Question, nullInt64(poll.UnionID), poll.CreatedAt.Unix())
	if err != nil {
		return 0, err
	}
	id, err = res.LastInsertId()
	if err != nil {
		return 0, err
	}

	for i := range poll.Options {
		res, err = tx.ExecContext(ctx, `INSERT INTO poll_options (poll_id, text) VALUES (?, ?)`, id, poll.Options[i].Text)
		if err != nil {
			return 0, err
		}
		optID, err := res.LastInsertId()
		if err != nil {
			return 0, err
		}
		poll.Options[i].ID = optID
		poll.Options[i].PollID = id
	}

	if err = tx.Commit(); err != nil {
		return 0, err
	}
	poll.ID = id
	return id, nil
}

func (s *Store) GetPoll(ctx context.Context, id int64) (model.Poll, error) {
	var p model.Poll
	var unionID sql.NullInt64
	var created int64
	err := s.db.QueryRowContext(ctx, `
SELECT id, question, union_id, created_at FROM polls WHERE id = ?
`, id).Scan(&p.ID, &p.Question, &unionID, &created)
	if err != nil {
		return model.Poll{}, notFound(err)
	}
	p.UnionID = int64Ptr(unionID)
	p.CreatedAt = unixTime(created)
	p.Options, err = s.pollOptions(ctx, p.ID)
	if err != nil {
		return model.Poll{}, err
	}
	return p, nil
}

func (s *Store) ListPolls(ctx context.Context, skip, limit int) ([]model.Poll, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, question, union_id, created_at FROM polls
ORDER BY created_at DESC, id DESC
LIMIT ? OFFSET ?
`, clamp(limit, 1, 500), max(skip, 0))
	if err != nil {
		return nil, err
	}

	polls := []model.Poll{}
	for rows.Next() {
		var p model.Poll
		var unionID sql.NullInt64
		var created int64
		if err := rows.Scan(&p.ID, &p.Question, &unionID, &created); err != nil {
			rows.Close()
			return nil, err
		}
		p.UnionID = int64Ptr(unionID)
		p.CreatedAt = unixTime(created)
		polls = append(polls, p)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range polls {
		if polls[i].Options, err = s.pollOptions(ctx, polls[i].ID); err != nil {
			return nil, err
		}
	}
	return polls, nil
}

func (s *Store) pollOptions(ctx context.Context, pollID int64) ([]model.PollOption, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT id, poll_id, text FROM poll_options WHERE poll_id = ? ORDER BY id
`, pollID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	options := []model.PollOption{}
	for rows.Next() {
		var o model.PollOption
		if err := rows.Scan(&o.ID, &o.PollID, &o.Text); err != nil {
			return nil, err
		}
		options = append(options, o)
	}
	return options, rows.Err()
}

func (s *Store) GetPollOption(ctx context.Context, pollID, optionID int64) (model.PollOption, error) {
	var o model.PollOption
	err := s.db.QueryRowContext(ctx, `
SELECT id, poll_id, text FROM poll_options WHERE id = ? AND poll_id = ?
`, optionID, pollID).Scan(&o.ID, &o.PollID, &o.Text)
	if err != nil {
		return model.PollOption{}, notFound(err)
	}
	return o, nil
}

func (s *Store) CreateVote(ctx context.Context, pollID, optionID, userID int64, at time.Time) error {
	_, err := s.db.ExecContext(ctx, `
INSERT INTO poll_votes (poll_id, option_id, user_id, created_at) VALUES (?, ?, ?, ?)
`, pollID, optionID, userID, at.Unix())
	if err != nil {
		if isUniqueViolation(err) {
			return store.ErrDuplicateVote
		}
		return err
	}
	return nil
}

func (s *Store) PollResults(ctx context.Context, pollID int64) (model.PollResults, error) {
	var res model.PollResults
	err := s.db.QueryRowContext(ctx, `SELECT id, question FROM polls WHERE id = ?`, pollID).Scan(&res.PollID, &res.Question)
	if err != nil {
		return model.PollResults{}, notFound(err)
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT o.id, o.text, COUNT(v.id)
FROM poll_options o
LEFT JOIN poll_votes v ON v.option_id = o.id
WHERE o.poll_id = ?
GROUP BY o.id, o.text
ORDER BY o.id
`, pollID)
	if err != nil {
		return model.PollResults{}, err
	}
	defer rows.Close()

	res.Results = []model.PollResultOption{}
	for rows.Next() {
		var o model.PollResultOption
		if err := rows.Scan(&o.OptionID, &o.Text, &o.Votes); err != nil {
			return model.PollResults{}, err
		}
		res.Results = append(res.Results, o)
	}
	return res, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanUnion(row scanner) (model.Union, error) {
	var u model.Union
	var desc, industry, tags sql.NullString
	var created int64
	var isMember int
	if err := row.Scan(&u.ID, &u.Name, &desc, &industry, &tags, &created, &u.MemberCount, &isMember); err != nil {
		return model.Union{}, notFound(err)
	}
	u.Description = strPtr(desc)
	u.Industry = strPtr(industry)
	u.Tags = strPtr(tags)
	u.CreatedAt = unixTime(created)
	u.IsMember = isMember == 1
	return u, nil
}

func scanPost(row scanner) (model.Post, error) {
	var p model.Post
	var unionID sql.NullInt64
	var created int64
	if err := row.Scan(&p.ID, &p.Title, &p.Content, &unionID, &created); err != nil {
		return model.Post{}, notFound(err)
	}
	p.UnionID = int64Ptr(unionID)
	p.CreatedAt = unixTime(created)
	return p, nil
}

func scanComment(row scanner) (model.Comment, error) {
	var c model.Comment
	var created, updated int64
	if err := row.Scan(&c.ID, &c.Content, &c.PostID, &c.UserID, &c.User.Username, &created, &updated); err != nil {
		return model.Comment{}, notFound(err)
	}
	c.User.ID = c.UserID
	c.CreatedAt = unixTime(created)
	c.UpdatedAt = unixTime(updated)
	return c, nil
}

func scanFeedback(row scanner) (model.Feedback, error) {
	var fb model.Feedback
	var postID sql.NullInt64
	var anonymous int
	var created int64
	if err := row.Scan(&fb.ID, &postID, &anonymous, &fb.Message, &created); err != nil {
		return model.Feedback{}, notFound(err)
	}
	fb.PostID = int64Ptr(postID)
	fb.Anonymous = anonymous == 1
	fb.CreatedAt = unixTime(created)
	return fb, nil
}

func scanEvent(row scanner) (model.Event, error) {
	var ev model.Event
	var desc, location sql.NullString
	var start, created int64
	var end, unionID sql.NullInt64
	if err := row.Scan(&ev.ID, &ev.Title, &desc, &location, &start, &end, &unionID,
		&ev.CreatorID, &ev.Creator.Username, &created, &ev.AttendeeCount); err != nil {
		return model.Event{}, notFound(err)
	}
	ev.Description = strPtr(desc)
	ev.Location = strPtr(location)
	ev.StartTime = unixTime(start)
	if end.Valid {
		t := unixTime(end.Int64)
		ev.EndTime = &t
	}
	ev.UnionID = int64Ptr(unionID)
	ev.Creator.ID = ev.CreatorID
	ev.CreatedAt = unixTime(created)
	return ev, nil
}

func notFound(err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return store.ErrNotFound
	}
	return err
}

func affected(res sql.Result, err error) error {
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

func unixTime(sec int64) model.Timestamp {
	return model.NewTimestamp(time.Unix(sec, 0))
}

func clamp(v, min, max int) int {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

func nullString(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func strPtr(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nullInt64(p *int64) any {
	if p == nil {
		return nil
	}
	return *p
}

func int64Ptr(n sql.NullInt64) *int64 {
	if !n.Valid {
		return nil
	}
	v := n.Int64
	return &v
}

func nullTime(t *model.Timestamp) any {
	if t == nil || t.IsZero() {
		return nil
	}
	return t.Unix()
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	msg := err.Error()
	return strings.Contains(msg, "UNIQUE constraint failed") || strings.Contains(msg, "PRIMARY KEY")
}
