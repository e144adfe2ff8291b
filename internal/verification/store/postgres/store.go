// Package postgres is the PostgreSQL storage backend.
package postgres

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"time"

	"joingate/internal/verification/models"
	id "joingate/pkg/domain"
	"joingate/pkg/platform/sentinel"
)

//go:embed schema.sql
var schema string

// Store implements ports.Store on database/sql with the lib/pq driver.
type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the tables if they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("apply schema: %w", err)
	}
	return nil
}

const policyColumns = `group_id, mode, captcha_length, timeout_seconds, skip_if_member,
	waiting_msg, approve_msg, reject_msg, timeout_msg`

func (s *Store) GetPolicy(ctx context.Context, groupID id.GroupID) (*models.GroupPolicy, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+policyColumns+` FROM group_policies WHERE group_id = $1`, int64(groupID))
	p, err := scanPolicy(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, sentinel.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get policy: %w", err)
	}
	return &p, nil
}

func (s *Store) SavePolicy(ctx context.Context, p models.GroupPolicy) error {
	query := `
		INSERT INTO group_policies (` + policyColumns + `, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, now())
		ON CONFLICT (group_id) DO UPDATE SET
			mode = EXCLUDED.mode,
			captcha_length = EXCLUDED.captcha_length,
			timeout_seconds = EXCLUDED.timeout_seconds,
			skip_if_member = EXCLUDED.skip_if_member,
			waiting_msg = EXCLUDED.waiting_msg,
			approve_msg = EXCLUDED.approve_msg,
			reject_msg = EXCLUDED.reject_msg,
			timeout_msg = EXCLUDED.timeout_msg,
			updated_at = now()
	`
	_, err := s.db.ExecContext(ctx, query,
		int64(p.GroupID), string(p.Mode), p.CaptchaLength, p.TimeoutSeconds(), p.SkipIfMember,
		p.WaitingMsg, p.ApproveMsg, p.RejectMsg, p.TimeoutMsg,
	)
	if err != nil {
		return fmt.Errorf("save policy: %w", err)
	}
	return nil
}

func (s *Store) ListPolicies(ctx context.Context) ([]models.GroupPolicy, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+policyColumns+` FROM group_policies ORDER BY group_id`)
	if err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	defer rows.Close()

	var out []models.GroupPolicy
	for rows.Next() {
		p, err := scanPolicy(rows)
		if err != nil {
			return nil, fmt.Errorf("scan policy: %w", err)
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list policies: %w", err)
	}
	return out, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanPolicy(row scanner) (models.GroupPolicy, error) {
	var (
		p       models.GroupPolicy
		groupID int64
		mode    string
		timeout int
	)
	err := row.Scan(&groupID, &mode, &p.CaptchaLength, &timeout, &p.SkipIfMember,
		&p.WaitingMsg, &p.ApproveMsg, &p.RejectMsg, &p.TimeoutMsg)
	if err != nil {
		return models.GroupPolicy{}, err
	}
	p.GroupID = id.GroupID(groupID)
	p.Timeout = time.Duration(timeout) * time.Second
	// Rows written by older deployments may carry the legacy mode name.
	if parsed, err := models.ParseMode(mode); err == nil {
		p.Mode = parsed
	} else {
		p.Mode = models.Mode(mode)
	}
	return p, nil
}

func (s *Store) IsWhitelisted(ctx context.Context, userID id.UserID) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM whitelist WHERE user_id = $1)`, userID)
}

func (s *Store) AddWhitelist(ctx context.Context, entry models.WhitelistEntry) error {
	return s.upsertUser(ctx, "whitelist", entry.UserID, entry.Remark, entry.CreatedAt)
}

func (s *Store) RemoveWhitelist(ctx context.Context, userID id.UserID) error {
	return s.deleteUser(ctx, "whitelist", userID)
}

func (s *Store) ListWhitelist(ctx context.Context) ([]models.WhitelistEntry, error) {
	var out []models.WhitelistEntry
	err := s.listUsers(ctx, "whitelist", func(userID int64, remark string, createdAt time.Time) {
		out = append(out, models.WhitelistEntry{UserID: id.UserID(userID), Remark: remark, CreatedAt: createdAt})
	})
	return out, err
}

func (s *Store) IsOperator(ctx context.Context, userID id.UserID) (bool, error) {
	return s.exists(ctx, `SELECT EXISTS (SELECT 1 FROM operators WHERE user_id = $1)`, userID)
}

func (s *Store) AddOperator(ctx context.Context, op models.Operator) error {
	return s.upsertUser(ctx, "operators", op.UserID, op.Remark, op.CreatedAt)
}

func (s *Store) RemoveOperator(ctx context.Context, userID id.UserID) error {
	return s.deleteUser(ctx, "operators", userID)
}

func (s *Store) ListOperators(ctx context.Context) ([]models.Operator, error) {
	var out []models.Operator
	err := s.listUsers(ctx, "operators", func(userID int64, remark string, createdAt time.Time) {
		out = append(out, models.Operator{UserID: id.UserID(userID), Remark: remark, CreatedAt: createdAt})
	})
	return out, err
}

func (s *Store) exists(ctx context.Context, query string, userID id.UserID) (bool, error) {
	var ok bool
	if err := s.db.QueryRowContext(ctx, query, int64(userID)).Scan(&ok); err != nil {
		return false, fmt.Errorf("lookup user: %w", err)
	}
	return ok, nil
}

// upsertUser keeps created_at from the first insert. table is one of the
// fixed table names above, never caller input.
func (s *Store) upsertUser(ctx context.Context, table string, userID id.UserID, remark string, createdAt time.Time) error {
	query := `
		INSERT INTO ` + table + ` (user_id, remark, created_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (user_id) DO UPDATE SET remark = EXCLUDED.remark
	`
	if _, err := s.db.ExecContext(ctx, query, int64(userID), remark, createdAt); err != nil {
		return fmt.Errorf("add to %s: %w", table, err)
	}
	return nil
}

func (s *Store) deleteUser(ctx context.Context, table string, userID id.UserID) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM `+table+` WHERE user_id = $1`, int64(userID))
	if err != nil {
		return fmt.Errorf("remove from %s: %w", table, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("remove from %s: %w", table, err)
	}
	if n == 0 {
		return sentinel.ErrNotFound
	}
	return nil
}

func (s *Store) listUsers(ctx context.Context, table string, each func(int64, string, time.Time)) error {
	rows, err := s.db.QueryContext(ctx, `SELECT user_id, remark, created_at FROM `+table+` ORDER BY user_id`)
	if err != nil {
		return fmt.Errorf("list %s: %w", table, err)
	}
	defer rows.Close()
	for rows.Next() {
		var (
			userID    int64
			remark    string
			createdAt time.Time
		)
		if err := rows.Scan(&userID, &remark, &createdAt); err != nil {
			return fmt.Errorf("scan %s: %w", table, err)
		}
		each(userID, remark, createdAt)
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("list %s: %w", table, err)
	}
	return nil
}

func (s *Store) AppendAudit(ctx context.Context, rec *models.AuditRecord) error {
	err := s.db.QueryRowContext(ctx, `
		INSERT INTO verify_records (group_id, user_id, type, result, created_at)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id
	`, int64(rec.GroupID), int64(rec.UserID), string(rec.Type), string(rec.Result), rec.CreatedAt).Scan(&rec.ID)
	if err != nil {
		return fmt.Errorf("append audit: %w", err)
	}
	return nil
}

// ListAudit filters on zero-means-any parameters so one statement serves
// every combination.
func (s *Store) ListAudit(ctx context.Context, filter models.AuditFilter) ([]models.AuditRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, group_id, user_id, type, result, created_at
		FROM verify_records
		WHERE ($1::bigint = 0 OR group_id = $1::bigint)
		  AND ($2::bigint = 0 OR user_id = $2::bigint)
		ORDER BY id DESC
		LIMIT $3
	`, int64(filter.GroupID), int64(filter.UserID), filter.EffectiveLimit())
	if err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	defer rows.Close()

	var out []models.AuditRecord
	for rows.Next() {
		var (
			rec             models.AuditRecord
			groupID, userID int64
			recType, result string
		)
		if err := rows.Scan(&rec.ID, &groupID, &userID, &recType, &result, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan audit: %w", err)
		}
		rec.GroupID = id.GroupID(groupID)
		rec.UserID = id.UserID(userID)
		rec.Type = models.AuditType(recType)
		rec.Result = models.AuditResult(result)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list audit: %w", err)
	}
	return out, nil
}
