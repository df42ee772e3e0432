package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"support-bot/internal/domain"
)

// FaqFilter acota el listado administrativo de entradas.
type FaqFilter struct {
	Query     string
	Tag       string
	Category  string
	Published *bool
	Limit     int
	Offset    int
}

// FaqRepository abstrae el almacen de la base de conocimiento.
// Las entradas se borran con flag (soft delete), nunca fisicamente.
type FaqRepository interface {
	ListPublished(ctx context.Context) ([]domain.Faq, error)
	List(ctx context.Context, filter FaqFilter) ([]domain.Faq, int, error)
	GetByID(ctx context.Context, id string) (domain.Faq, error)
	Create(ctx context.Context, faq domain.Faq) error
	Update(ctx context.Context, faq domain.Faq) error
	AddHistory(ctx context.Context, entry domain.FaqHistory) error
	ListHistory(ctx context.Context, faqID string, limit int) ([]domain.FaqHistory, error)
}

type PgFaqRepository struct {
	pool *pgxpool.Pool
}

func NewPgFaqRepository(pool *pgxpool.Pool) *PgFaqRepository {
	return &PgFaqRepository{pool: pool}
}

const faqColumns = `id, question, answer, tags, category, published, deleted, version, created_by, updated_by, created_at, updated_at`

func (r *PgFaqRepository) ListPublished(ctx context.Context) ([]domain.Faq, error) {
	query := `
		SELECT ` + faqColumns + `
		FROM faqs
		WHERE published = TRUE AND deleted = FALSE
		ORDER BY created_at ASC
	`
	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanFaqs(rows)
}

func (r *PgFaqRepository) List(ctx context.Context, filter FaqFilter) ([]domain.Faq, int, error) {
	if filter.Limit <= 0 {
		filter.Limit = 20
	}
	query := `
		SELECT ` + faqColumns + `
		FROM faqs
		WHERE deleted = FALSE
		  AND ($1 = '' OR question ILIKE '%' || $1 || '%' OR answer ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR $2 = ANY(tags))
		  AND ($3 = '' OR category = $3)
		  AND ($4::boolean IS NULL OR published = $4)
		ORDER BY updated_at DESC
		LIMIT $5 OFFSET $6
	`
	rows, err := r.pool.Query(ctx, query,
		filter.Query, filter.Tag, filter.Category, filter.Published, filter.Limit, filter.Offset)
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()
	faqs, err := scanFaqs(rows)
	if err != nil {
		return nil, 0, err
	}

	const countQuery = `
		SELECT COUNT(*)
		FROM faqs
		WHERE deleted = FALSE
		  AND ($1 = '' OR question ILIKE '%' || $1 || '%' OR answer ILIKE '%' || $1 || '%')
		  AND ($2 = '' OR $2 = ANY(tags))
		  AND ($3 = '' OR category = $3)
		  AND ($4::boolean IS NULL OR published = $4)
	`
	var total int
	if err := r.pool.QueryRow(ctx, countQuery, filter.Query, filter.Tag, filter.Category, filter.Published).Scan(&total); err != nil {
		return nil, 0, err
	}
	return faqs, total, nil
}

func (r *PgFaqRepository) GetByID(ctx context.Context, id string) (domain.Faq, error) {
	query := `
		SELECT ` + faqColumns + `
		FROM faqs
		WHERE id = $1 AND deleted = FALSE
	`
	var faq domain.Faq
	var createdBy, updatedBy *string
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&faq.ID, &faq.Question, &faq.Answer, &faq.Tags, &faq.Category,
		&faq.Published, &faq.Deleted, &faq.Version, &createdBy, &updatedBy,
		&faq.CreatedAt, &faq.UpdatedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Faq{}, ErrNotFound
	}
	if err != nil {
		return domain.Faq{}, err
	}
	if createdBy != nil {
		faq.CreatedBy = *createdBy
	}
	if updatedBy != nil {
		faq.UpdatedBy = *updatedBy
	}
	return faq, nil
}

func (r *PgFaqRepository) Create(ctx context.Context, faq domain.Faq) error {
	const query = `
		INSERT INTO faqs (id, question, answer, tags, category, published, deleted, version, created_by, updated_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, NULLIF($9, ''), NULLIF($10, ''), $11, $12)
	`
	_, err := r.pool.Exec(ctx, query,
		faq.ID, faq.Question, faq.Answer, faq.Tags, faq.Category,
		faq.Published, faq.Deleted, faq.Version, faq.CreatedBy, faq.UpdatedBy,
		faq.CreatedAt, faq.UpdatedAt,
	)
	return err
}

func (r *PgFaqRepository) Update(ctx context.Context, faq domain.Faq) error {
	const query = `
		UPDATE faqs
		SET question = $2, answer = $3, tags = $4, category = $5,
		    published = $6, deleted = $7, version = $8, updated_by = NULLIF($9, ''), updated_at = $10
		WHERE id = $1
	`
	tag, err := r.pool.Exec(ctx, query,
		faq.ID, faq.Question, faq.Answer, faq.Tags, faq.Category,
		faq.Published, faq.Deleted, faq.Version, faq.UpdatedBy, faq.UpdatedAt,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *PgFaqRepository) AddHistory(ctx context.Context, entry domain.FaqHistory) error {
	const query = `
		INSERT INTO faq_history (id, faq_id, snapshot, changed_by, created_at)
		VALUES ($1, $2, $3, NULLIF($4, ''), $5)
	`
	_, err := r.pool.Exec(ctx, query, entry.ID, entry.FaqID, entry.Snapshot, entry.ChangedBy, entry.CreatedAt)
	return err
}

func (r *PgFaqRepository) ListHistory(ctx context.Context, faqID string, limit int) ([]domain.FaqHistory, error) {
	if limit <= 0 {
		limit = 20
	}
	const query = `
		SELECT id, faq_id, snapshot, changed_by, created_at
		FROM faq_history
		WHERE faq_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`
	rows, err := r.pool.Query(ctx, query, faqID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var history []domain.FaqHistory
	for rows.Next() {
		var entry domain.FaqHistory
		var changedBy *string
		if err := rows.Scan(&entry.ID, &entry.FaqID, &entry.Snapshot, &changedBy, &entry.CreatedAt); err != nil {
			return nil, err
		}
		if changedBy != nil {
			entry.ChangedBy = *changedBy
		}
		history = append(history, entry)
	}
	return history, rows.Err()
}

func scanFaqs(rows pgx.Rows) ([]domain.Faq, error) {
	var faqs []domain.Faq
	for rows.Next() {
		var faq domain.Faq
		var createdBy, updatedBy *string
		err := rows.Scan(
			&faq.ID, &faq.Question, &faq.Answer, &faq.Tags, &faq.Category,
			&faq.Published, &faq.Deleted, &faq.Version, &createdBy, &updatedBy,
			&faq.CreatedAt, &faq.UpdatedAt,
		)
		if err != nil {
			return nil, err
		}
		if createdBy != nil {
			faq.CreatedBy = *createdBy
		}
		if updatedBy != nil {
			faq.UpdatedBy = *updatedBy
		}
		faqs = append(faqs, faq)
	}
	return faqs, rows.Err()
}
