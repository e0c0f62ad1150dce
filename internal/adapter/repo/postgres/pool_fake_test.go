package postgres_test

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/fairyhunter13/ai-quiz-scorer/internal/domain"
)

// fakePool implements postgres.PgxPool with canned responses while
// recording issued SQL and arguments.
type fakePool struct {
	execSQL  []string
	execArgs [][]any
	execErr  error

	queryRowSQL  []string
	queryRowArgs [][]any
	row          pgx.Row

	querySQL []string
	rows     pgx.Rows
	queryErr error
}

func (p *fakePool) Exec(_ context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	p.execSQL = append(p.execSQL, sql)
	p.execArgs = append(p.execArgs, args)
	return pgconn.CommandTag{}, p.execErr
}

func (p *fakePool) QueryRow(_ context.Context, sql string, args ...any) pgx.Row {
	p.queryRowSQL = append(p.queryRowSQL, sql)
	p.queryRowArgs = append(p.queryRowArgs, args)
	return p.row
}

func (p *fakePool) Query(_ context.Context, sql string, _ ...any) (pgx.Rows, error) {
	p.querySQL = append(p.querySQL, sql)
	return p.rows, p.queryErr
}

// jobRow scans a ScoreJob into the column order used by the repo.
type jobRow struct {
	job domain.ScoreJob
	err error
}

func (r jobRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.job.ID
	*(dest[1].(*string)) = r.job.Key
	*(dest[2].(*string)) = r.job.Question
	*(dest[3].(*string)) = r.job.ReferenceAnswer
	*(dest[4].(*string)) = r.job.UserAnswer
	*(dest[5].(*domain.JobStatus)) = r.job.Status
	*(dest[6].(**float64)) = r.job.Score
	*(dest[7].(*string)) = r.job.Analysis
	*(dest[8].(*string)) = r.job.Error
	*(dest[9].(*time.Time)) = r.job.CreatedAt
	*(dest[10].(**time.Time)) = r.job.UpdatedAt
	return nil
}

// questionRow scans a Question into the column order used by the repo.
type questionRow struct {
	q   domain.Question
	err error
}

func (r questionRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.q.ID
	*(dest[1].(*string)) = r.q.UserID
	*(dest[2].(*string)) = r.q.Title
	*(dest[3].(*string)) = r.q.Content
	*(dest[4].(*string)) = r.q.Type
	*(dest[5].(*[]string)) = r.q.Options
	*(dest[6].(*[]string)) = r.q.CorrectAnswers
	*(dest[7].(*string)) = r.q.Answer
	*(dest[8].(*domain.QuestionStatus)) = r.q.Status
	*(dest[9].(*string)) = r.q.UniqueHash
	*(dest[10].(*string)) = r.q.Source
	*(dest[11].(*time.Time)) = r.q.CreatedAt
	*(dest[12].(**time.Time)) = r.q.UpdatedAt
	return nil
}

// userRow scans a User into the column order used by the repo.
type userRow struct {
	u   domain.User
	err error
}

func (r userRow) Scan(dest ...any) error {
	if r.err != nil {
		return r.err
	}
	*(dest[0].(*string)) = r.u.ID
	*(dest[1].(*string)) = r.u.Audience
	*(dest[2].(*string)) = r.u.Username
	*(dest[3].(*string)) = r.u.PasswordHash
	*(dest[4].(*time.Time)) = r.u.CreatedAt
	return nil
}

// jobRows is a minimal pgx.Rows over preloaded jobs.
type jobRows struct {
	jobs []domain.ScoreJob
	idx  int
}

func (r *jobRows) Close()                                       {}
func (r *jobRows) Err() error                                   { return nil }
func (r *jobRows) CommandTag() pgconn.CommandTag                { return pgconn.CommandTag{} }
func (r *jobRows) FieldDescriptions() []pgconn.FieldDescription { return nil }
func (r *jobRows) Next() bool {
	if r.idx >= len(r.jobs) {
		return false
	}
	r.idx++
	return true
}
func (r *jobRows) Scan(dest ...any) error {
	return jobRow{job: r.jobs[r.idx-1]}.Scan(dest...)
}
func (r *jobRows) Values() ([]any, error) { return nil, nil }
func (r *jobRows) RawValues() [][]byte    { return nil }
func (r *jobRows) Conn() *pgx.Conn        { return nil }
