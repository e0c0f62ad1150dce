// Package domain holds entities, sentinel errors, and the ports the
// adapters implement.
package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// Error taxonomy (sentinels)
var (
	ErrInvalidArgument = errors.New("invalid argument")
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("conflict")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrUpstream        = errors.New("upstream error")
	ErrInternal        = errors.New("internal error")
)

// UpstreamError carries the HTTP status and body snippet of a failed call to
// the scoring/generation upstream. errors.Is(err, ErrUpstream) matches it.
type UpstreamError struct {
	StatusCode int
	Body       string
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("upstream status %d: %s", e.StatusCode, e.Body)
}

// Is reports ErrUpstream so callers can match with errors.Is.
func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// JobStatus is the scoring job state machine: pending -> processing -> {done|error}.
// Transitions are monotonic; terminal states never change.
type JobStatus string

const (
	JobPending    JobStatus = "pending"
	JobProcessing JobStatus = "processing"
	JobDone       JobStatus = "done"
	JobError      JobStatus = "error"
)

// ScoreJob is one submitted answer awaiting or holding a score. Key is the
// correlation key (a session/chat id) used for notification routing and
// client polling.
type ScoreJob struct {
	ID              string
	Key             string
	Question        string
	ReferenceAnswer string
	UserAnswer      string
	Status          JobStatus
	Score           *float64
	Analysis        string
	Error           string
	CreatedAt       time.Time
	UpdatedAt       *time.Time
}

// QuestionStatus enumerates curation states for generated questions.
type QuestionStatus string

const (
	QuestionPending  QuestionStatus = "pending"
	QuestionApproved QuestionStatus = "approved"
	QuestionRejected QuestionStatus = "rejected"
)

// Question is a generated quiz question awaiting curation.
type Question struct {
	ID             string
	UserID         string
	Title          string
	Content        string
	Type           string // choice | blank | subjective
	Options        []string
	CorrectAnswers []string
	Answer         string
	Status         QuestionStatus
	UniqueHash     string
	Source         string
	CreatedAt      time.Time
	UpdatedAt      *time.Time
}

// Audience separates back-office accounts from quiz-taking clients.
const (
	AudienceAdmin  = "admin"
	AudienceClient = "client"
)

// User is a registered account (admin or client audience).
type User struct {
	ID           string
	Audience     string
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// Repositories (ports)

// JobRepository owns all ScoreJob persistence. ClaimNextPending must be a
// single atomic conditional update so concurrent claimers can never receive
// the same job; it returns (nil, nil) when no pending job exists.
// CompleteJob and FailJob are fire-and-forget for unknown ids.
type JobRepository interface {
	Enqueue(ctx Context, j ScoreJob) (string, error)
	ClaimNextPending(ctx Context) (*ScoreJob, error)
	CompleteJob(ctx Context, id string, score float64, analysis string) error
	FailJob(ctx Context, id string, errMsg string) error
	FindLatestDoneByKey(ctx Context, key string) (*ScoreJob, error)
	FindByID(ctx Context, id string) (ScoreJob, error)
	FindStaleProcessing(ctx Context, cutoff time.Time, limit int) ([]ScoreJob, error)
}

type QuestionRepository interface {
	CreatePendingIfNotExists(ctx Context, q Question) (Question, error)
	ListByUser(ctx Context, userID string) ([]Question, error)
	FindByID(ctx Context, id string) (Question, error)
	Update(ctx Context, q Question) error
	SetStatus(ctx Context, id string, status QuestionStatus) error
	Delete(ctx Context, id string) error
}

type UserRepository interface {
	Create(ctx Context, u User) (string, error)
	FindByUsername(ctx Context, audience, username string) (User, error)
}

// Scorer (port): one outbound call to the external scoring app.
type Scorer interface {
	Score(ctx Context, key, question, referenceAnswer, userAnswer string) (float64, string, error)
}

// QuestionGenerator (port): one outbound call to the question-generation app.
type QuestionGenerator interface {
	GenerateQuestion(ctx Context, prompt string) (string, error)
}

// Subscription is one live listener queue on the notifier. The channel is
// closed after Unsubscribe; a slow consumer loses oldest messages first.
type Subscription interface {
	C() <-chan []byte
}

// Notifier is the transient, at-most-once broadcast bridging the worker's
// completion events to connected clients. Durability lives in the job store;
// messages published with no subscriber are dropped.
type Notifier interface {
	Subscribe(key string) Subscription
	Unsubscribe(key string, sub Subscription)
	Publish(ctx Context, key string, message []byte)
}

// ScoreEvent is the payload published on job completion or failure.
type ScoreEvent struct {
	Type      string    `json:"type"` // done | error
	ID        string    `json:"id"`
	Key       string    `json:"key"`
	Score     *float64  `json:"score,omitempty"`
	Analysis  string    `json:"analysis,omitempty"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Context aliases context.Context; adapters and usecases pass it through.
type Context = context.Context
