package postgres

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"go.opentelemetry.io/otel"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// QuestionRepo persists generated questions.
type QuestionRepo struct{ Pool PgxPool }

// NewQuestionRepo constructs a QuestionRepo with the given pool.
func NewQuestionRepo(p PgxPool) *QuestionRepo { return &QuestionRepo{Pool: p} }

const questionColumns = `id, user_id, title, content, qtype, options, correct_answers, answer, status, unique_hash, source, created_at, updated_at`

func scanQuestion(row pgx.Row) (domain.Question, error) {
	var q domain.Question
	err := row.Scan(&q.ID, &q.UserID, &q.Title, &q.Content, &q.Type, &q.Options,
		&q.CorrectAnswers, &q.Answer, &q.Status, &q.UniqueHash, &q.Source, &q.CreatedAt, &q.UpdatedAt)
	return q, err
}

// CreatePendingIfNotExists inserts a pending question unless one with the
// same unique_hash already exists; either way it returns the stored row.
func (r *QuestionRepo) CreatePendingIfNotExists(ctx domain.Context, q domain.Question) (domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.CreatePendingIfNotExists")
	defer span.End()
	id := q.ID
	if id == "" {
		id = uuid.New().String()
	}
	ins := `INSERT INTO questions (id, user_id, title, content, qtype, options, correct_answers, answer, status, unique_hash, source, created_at)
	VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12)
	ON CONFLICT (unique_hash) DO NOTHING`
	_, err := r.Pool.Exec(ctx, ins, id, q.UserID, q.Title, q.Content, q.Type, q.Options,
		q.CorrectAnswers, q.Answer, domain.QuestionPending, q.UniqueHash, q.Source, time.Now().UTC())
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=question.create: %w", err)
	}
	sel := `SELECT ` + questionColumns + ` FROM questions WHERE unique_hash=$1`
	out, err := scanQuestion(r.Pool.QueryRow(ctx, sel, q.UniqueHash))
	if err != nil {
		return domain.Question{}, fmt.Errorf("op=question.create: %w", err)
	}
	return out, nil
}

// ListByUser returns a user's questions, most recently updated first.
func (r *QuestionRepo) ListByUser(ctx domain.Context, userID string) ([]domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.ListByUser")
	defer span.End()
	q := `SELECT ` + questionColumns + ` FROM questions WHERE user_id=$1 ORDER BY COALESCE(updated_at, created_at) DESC`
	rows, err := r.Pool.Query(ctx, q, userID)
	if err != nil {
		return nil, fmt.Errorf("op=question.list: %w", err)
	}
	defer rows.Close()
	var out []domain.Question
	for rows.Next() {
		item, err := scanQuestion(rows)
		if err != nil {
			return nil, fmt.Errorf("op=question.list: %w", err)
		}
		out = append(out, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("op=question.list: %w", err)
	}
	return out, nil
}

// FindByID loads a question by id.
func (r *QuestionRepo) FindByID(ctx domain.Context, id string) (domain.Question, error) {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.FindByID")
	defer span.End()
	q := `SELECT ` + questionColumns + ` FROM questions WHERE id=$1`
	out, err := scanQuestion(r.Pool.QueryRow(ctx, q, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Question{}, fmt.Errorf("op=question.get: %w", domain.ErrNotFound)
		}
		return domain.Question{}, fmt.Errorf("op=question.get: %w", err)
	}
	return out, nil
}

// Update replaces the editable fields of a question.
func (r *QuestionRepo) Update(ctx domain.Context, q domain.Question) error {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Update")
	defer span.End()
	upd := `UPDATE questions SET title=$2, content=$3, qtype=$4, options=$5, correct_answers=$6, answer=$7, updated_at=$8 WHERE id=$1`
	_, err := r.Pool.Exec(ctx, upd, q.ID, q.Title, q.Content, q.Type, q.Options, q.CorrectAnswers, q.Answer, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=question.update: %w", err)
	}
	return nil
}

// SetStatus transitions a question's curation status.
func (r *QuestionRepo) SetStatus(ctx domain.Context, id string, status domain.QuestionStatus) error {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.SetStatus")
	defer span.End()
	q := `UPDATE questions SET status=$2, updated_at=$3 WHERE id=$1`
	_, err := r.Pool.Exec(ctx, q, id, status, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("op=question.set_status: %w", err)
	}
	return nil
}

// Delete removes a question.
func (r *QuestionRepo) Delete(ctx domain.Context, id string) error {
	tracer := otel.Tracer("repo.questions")
	ctx, span := tracer.Start(ctx, "questions.Delete")
	defer span.End()
	_, err := r.Pool.Exec(ctx, `DELETE FROM questions WHERE id=$1`, id)
	if err != nil {
		return fmt.Errorf("op=question.delete: %w", err)
	}
	return nil
}
