package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"support-bot/internal/domain"
)

// SessionRepository abstrae el almacen de sesiones con semantica
// read-modify-write. Save usa chequeo optimista de version: falla con
// ErrVersionConflict si la sesion fue mutada desde la lectura.
type SessionRepository interface {
	GetByToken(ctx context.Context, token string) (domain.Session, error)
	Create(ctx context.Context, session domain.Session) error
	Save(ctx context.Context, session domain.Session) error
	List(ctx context.Context, status string, limit, offset int) ([]domain.Session, error)
}

type PgSessionRepository struct {
	pool *pgxpool.Pool
}

func NewPgSessionRepository(pool *pgxpool.Pool) *PgSessionRepository {
	return &PgSessionRepository{pool: pool}
}

func (r *PgSessionRepository) GetByToken(ctx context.Context, token string) (domain.Session, error) {
	const query = `
		SELECT token, user_id, status, messages, last_user_question, escalation_note, version, created_at, updated_at
		FROM sessions
		WHERE token = $1
	`
	var (
		session  domain.Session
		userID   *string
		note     *string
		question *string
		rawMsgs  []byte
	)
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&session.Token,
		&userID,
		&session.Status,
		&rawMsgs,
		&question,
		&note,
		&session.Version,
		&session.CreatedAt,
		&session.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Session{}, ErrNotFound
	}
	if err != nil {
		return domain.Session{}, err
	}
	if userID != nil {
		session.UserID = *userID
	}
	if question != nil {
		session.LastUserQuestion = *question
	}
	if note != nil {
		session.EscalationNote = *note
	}
	if len(rawMsgs) > 0 {
		if err := json.Unmarshal(rawMsgs, &session.Messages); err != nil {
			return domain.Session{}, fmt.Errorf("decode messages: %w", err)
		}
	}
	return session, nil
}

func (r *PgSessionRepository) Create(ctx context.Context, session domain.Session) error {
	const query = `
		INSERT INTO sessions (token, user_id, status, messages, last_user_question, escalation_note, version, created_at, updated_at)
		VALUES ($1, NULLIF($2, ''), $3, $4, NULLIF($5, ''), NULLIF($6, ''), $7, $8, $9)
	`
	rawMsgs, err := encodeMessages(session.Messages)
	if err != nil {
		return err
	}
	_, err = r.pool.Exec(ctx, query,
		session.Token,
		session.UserID,
		session.Status,
		rawMsgs,
		session.LastUserQuestion,
		session.EscalationNote,
		session.Version,
		session.CreatedAt,
		session.UpdatedAt,
	)
	return err
}

func (r *PgSessionRepository) Save(ctx context.Context, session domain.Session) error {
	const query = `
		UPDATE sessions
		SET status = $3,
		    messages = $4,
		    last_user_question = NULLIF($5, ''),
		    escalation_note = NULLIF($6, ''),
		    version = version + 1,
		    updated_at = $7
		WHERE token = $1 AND version = $2
	`
	rawMsgs, err := encodeMessages(session.Messages)
	if err != nil {
		return err
	}
	tag, err := r.pool.Exec(ctx, query,
		session.Token,
		session.Version,
		session.Status,
		rawMsgs,
		session.LastUserQuestion,
		session.EscalationNote,
		session.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrVersionConflict
	}
	return nil
}

func (r *PgSessionRepository) List(ctx context.Context, status string, limit, offset int) ([]domain.Session, error) {
	const query = `
		SELECT token, user_id, status, messages, last_user_question, escalation_note, version, created_at, updated_at
		FROM sessions
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.pool.Query(ctx, query, status, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []domain.Session
	for rows.Next() {
		var (
			session  domain.Session
			userID   *string
			note     *string
			question *string
			rawMsgs  []byte
		)
		err = rows.Scan(
			&session.Token,
			&userID,
			&session.Status,
			&rawMsgs,
			&question,
			&note,
			&session.Version,
			&session.CreatedAt,
			&session.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if userID != nil {
			session.UserID = *userID
		}
		if question != nil {
			session.LastUserQuestion = *question
		}
		if note != nil {
			session.EscalationNote = *note
		}
		if len(rawMsgs) > 0 {
			if err := json.Unmarshal(rawMsgs, &session.Messages); err != nil {
				return nil, fmt.Errorf("decode messages: %w", err)
			}
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}

func encodeMessages(messages []domain.Message) ([]byte, error) {
	if messages == nil {
		messages = []domain.Message{}
	}
	raw, err := json.Marshal(messages)
	if err != nil {
		return nil, fmt.Errorf("encode messages: %w", err)
	}
	return raw, nil
}
