package storage

import (
	"context"
	"database/sql"
	"strings"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"relay/infrastructure"
	"relay/internal/user"
)

const uniqueViolation = "23505"

const userColumns = `id, email, full_name, password_hash, profile_pic, created_at, updated_at`

type PostgresStorage struct {
	db *sqlx.DB
}

func NewUserPostgresStorage(db *sqlx.DB) *PostgresStorage {
	return &PostgresStorage{db: db}
}

func (s *PostgresStorage) Create(ctx context.Context, u *user.User) error {
	row := toUserRow(u)
	row.Email = strings.ToLower(row.Email)
	_, err := s.db.NamedExecContext(ctx, `
		INSERT INTO users (`+userColumns+`)
		VALUES (:id, :email, :full_name, :password_hash, :profile_pic, :created_at, :updated_at)`, row)
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == uniqueViolation {
		return infrastructure.ErrUserAlreadyExists
	}
	return errors.Wrap(err, "userStorage.Create")
}

func (s *PostgresStorage) ByID(ctx context.Context, id uuid.UUID) (*user.User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (s *PostgresStorage) ByEmail(ctx context.Context, email string) (*user.User, error) {
	return s.one(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, strings.ToLower(email))
}

func (s *PostgresStorage) one(ctx context.Context, query string, arg interface{}) (*user.User, error) {
	var row userRow
	err := s.db.GetContext(ctx, &row, query, arg)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, infrastructure.ErrUserNotFound
	}
	if err != nil {
		return nil, errors.Wrap(err, "userStorage.one")
	}
	return row.toUser(), nil
}

func (s *PostgresStorage) ByIDs(ctx context.Context, ids []uuid.UUID) ([]*user.User, error) {
	if len(ids) == 0 {
		return []*user.User{}, nil
	}
	var rows []userRow
	err := s.db.SelectContext(ctx, &rows,
		`SELECT `+userColumns+` FROM users WHERE id = ANY($1::uuid[]) ORDER BY full_name, id`,
		pq.Array(idStrings(ids)))
	if err != nil {
		return nil, errors.Wrap(err, "userStorage.ByIDs")
	}
	users := make([]*user.User, 0, len(rows))
	for i := range rows {
		users = append(users, rows[i].toUser())
	}
	return users, nil
}

func (s *PostgresStorage) UpdatePassword(ctx context.Context, id uuid.UUID, hash string) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, hash)
	if err != nil {
		return errors.Wrap(err, "userStorage.UpdatePassword")
	}
	return expectOne(res)
}

func (s *PostgresStorage) UpdateProfilePic(ctx context.Context, id uuid.UUID, url string) (*user.User, error) {
	res, err := s.db.ExecContext(ctx,
		`UPDATE users SET profile_pic = $2, updated_at = now() WHERE id = $1`, id, url)
	if err != nil {
		return nil, errors.Wrap(err, "userStorage.UpdateProfilePic")
	}
	if err := expectOne(res); err != nil {
		return nil, err
	}
	return s.ByID(ctx, id)
}

func (s *PostgresStorage) Relation(ctx context.Context, a, b uuid.UUID) (user.Relation, error) {
	return relation(ctx, s.db, a, b)
}

func (s *PostgresStorage) Related(ctx context.Context, id uuid.UUID, kind user.Kind) ([]uuid.UUID, error) {
	var query string
	switch kind {
	case user.KindContacts:
		query = `SELECT CASE WHEN user_low = $1 THEN user_high ELSE user_low END
			FROM relationships WHERE (user_low = $1 OR user_high = $1) AND state = 'contact'`
	case user.KindIncoming:
		query = `SELECT requester FROM relationships
			WHERE (user_low = $1 OR user_high = $1) AND state = 'pending' AND requester <> $1`
	case user.KindOutgoing:
		query = `SELECT CASE WHEN user_low = $1 THEN user_high ELSE user_low END
			FROM relationships WHERE state = 'pending' AND requester = $1`
	case user.KindBlocked:
		query = `SELECT blocked_id FROM blocks WHERE blocker_id = $1`
	default:
		return nil, errors.Errorf("userStorage.Related: unknown kind %d", kind)
	}

	ids := []uuid.UUID{}
	if err := s.db.SelectContext(ctx, &ids, query, id); err != nil {
		return nil, errors.Wrap(err, "userStorage.Related")
	}
	return ids, nil
}

func (s *PostgresStorage) IsBlocked(ctx context.Context, blocker, blocked uuid.UUID) (bool, error) {
	return isBlocked(ctx, s.db, blocker, blocked)
}

func (s *PostgresStorage) Atomically(ctx context.Context, ids []uuid.UUID, fn func(tx user.Tx) error) error {
	return infrastructure.WithTransaction(ctx, s.db, func(tx *sqlx.Tx) error {
		var locked []uuid.UUID
		err := tx.SelectContext(ctx, &locked,
			`SELECT id FROM users WHERE id = ANY($1::uuid[]) ORDER BY id FOR UPDATE`,
			pq.Array(idStrings(ids)))
		if err != nil {
			return errors.Wrap(err, "userStorage.Atomically: lock users")
		}
		found := make(map[uuid.UUID]bool, len(locked))
		for _, id := range locked {
			found[id] = true
		}
		return fn(&postgresTx{ctx: ctx, tx: tx, found: found})
	})
}

type postgresTx struct {
	ctx   context.Context
	tx    *sqlx.Tx
	found map[uuid.UUID]bool
}

func (t *postgresTx) Exists(id uuid.UUID) bool {
	return t.found[id]
}

func (t *postgresTx) Relation(a, b uuid.UUID) (user.Relation, error) {
	return relation(t.ctx, t.tx, a, b)
}

func (t *postgresTx) SetRelation(a, b uuid.UUID, rel user.Relation) error {
	pair := user.NewPair(a, b)
	if rel.State == user.StateNone {
		_, err := t.tx.ExecContext(t.ctx,
			`DELETE FROM relationships WHERE user_low = $1 AND user_high = $2`, pair.Low, pair.High)
		return errors.Wrap(err, "userStorage.SetRelation: delete")
	}
	row := fromRelation(rel)
	_, err := t.tx.ExecContext(t.ctx, `
		INSERT INTO relationships (user_low, user_high, state, requester, updated_at)
		VALUES ($1, $2, $3, $4, now())
		ON CONFLICT (user_low, user_high)
		DO UPDATE SET state = EXCLUDED.state, requester = EXCLUDED.requester, updated_at = now()`,
		pair.Low, pair.High, row.State, row.Requester)
	return errors.Wrap(err, "userStorage.SetRelation: upsert")
}

func (t *postgresTx) IsBlocked(blocker, blocked uuid.UUID) (bool, error) {
	return isBlocked(t.ctx, t.tx, blocker, blocked)
}

func (t *postgresTx) SetBlocked(blocker, blocked uuid.UUID, on bool) error {
	if on {
		_, err := t.tx.ExecContext(t.ctx, `
			INSERT INTO blocks (blocker_id, blocked_id) VALUES ($1, $2)
			ON CONFLICT DO NOTHING`, blocker, blocked)
		return errors.Wrap(err, "userStorage.SetBlocked: insert")
	}
	_, err := t.tx.ExecContext(t.ctx,
		`DELETE FROM blocks WHERE blocker_id = $1 AND blocked_id = $2`, blocker, blocked)
	return errors.Wrap(err, "userStorage.SetBlocked: delete")
}

func relation(ctx context.Context, q sqlx.QueryerContext, a, b uuid.UUID) (user.Relation, error) {
	pair := user.NewPair(a, b)
	var row relationRow
	err := sqlx.GetContext(ctx, q, &row,
		`SELECT state, requester FROM relationships WHERE user_low = $1 AND user_high = $2`,
		pair.Low, pair.High)
	if errors.Is(err, sql.ErrNoRows) {
		return user.NoRelation, nil
	}
	if err != nil {
		return user.NoRelation, errors.Wrap(err, "userStorage.Relation")
	}
	return row.toRelation(), nil
}

func isBlocked(ctx context.Context, q sqlx.QueryerContext, blocker, blocked uuid.UUID) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, q, &exists,
		`SELECT EXISTS (SELECT 1 FROM blocks WHERE blocker_id = $1 AND blocked_id = $2)`,
		blocker, blocked)
	return exists, errors.Wrap(err, "userStorage.IsBlocked")
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return errors.Wrap(err, "rows affected")
	}
	if n == 0 {
		return infrastructure.ErrUserNotFound
	}
	return nil
}

func idStrings(ids []uuid.UUID) []string {
	out := make([]string, len(ids))
	for i, id := range ids {
		out[i] = id.String()
	}
	return out
}
