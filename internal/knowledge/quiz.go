package knowledge

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/yunhan0/recall/internal/fault"
)

// SaveQuizSession persists a session and its questions atomically.
func (s *Store) SaveQuizSession(ctx context.Context, session QuizSession) (QuizSession, error) {
	if session.ID == uuid.Nil {
		session.ID = uuid.New()
	}
	if len(session.Questions) == 0 {
		return QuizSession{}, fault.Validationf("quiz session must contain at least one question")
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return QuizSession{}, fmt.Errorf("beginning quiz transaction: %w", err)
	}
	defer func() {
		_ = tx.Rollback(ctx)
	}()

	err = tx.QueryRow(ctx,
		`INSERT INTO quiz_sessions (id, title, category)
		 VALUES ($1, $2, $3)
		 RETURNING created_at`,
		session.ID, session.Title, session.Category).Scan(&session.CreatedAt)
	if err != nil {
		return QuizSession{}, fmt.Errorf("inserting quiz session: %w", err)
	}

	batch := &pgx.Batch{}
	for i := range session.Questions {
		q := &session.Questions[i]
		if q.ID == uuid.Nil {
			q.ID = uuid.New()
		}
		q.Position = i + 1
		if q.Options == nil {
			q.Options = []string{}
		}
		batch.Queue(
			`INSERT INTO quiz_questions (id, session_id, position, prompt, options, answer, explanation)
			 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			q.ID, session.ID, q.Position, q.Prompt, q.Options, q.Answer, q.Explanation)
	}

	results := tx.SendBatch(ctx, batch)
	for range session.Questions {
		if _, err := results.Exec(); err != nil {
			_ = results.Close()
			return QuizSession{}, fmt.Errorf("inserting quiz question: %w", err)
		}
	}
	if err := results.Close(); err != nil {
		return QuizSession{}, fmt.Errorf("closing quiz question batch: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return QuizSession{}, fmt.Errorf("committing quiz session: %w", err)
	}

	s.logger.Debug("saved quiz session", "id", session.ID, "questions", len(session.Questions))
	return session, nil
}

// GetQuizSession returns a session with its questions in position order.
func (s *Store) GetQuizSession(ctx context.Context, id uuid.UUID) (QuizSession, error) {
	var session QuizSession
	err := s.pool.QueryRow(ctx,
		`SELECT id, title, category, created_at FROM quiz_sessions WHERE id = $1`,
		id).Scan(&session.ID, &session.Title, &session.Category, &session.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuizSession{}, fault.NotFoundf("quiz session %s not found", id)
	}
	if err != nil {
		return QuizSession{}, fmt.Errorf("fetching quiz session %s: %w", id, err)
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, position, prompt, options, answer, explanation
		 FROM quiz_questions
		 WHERE session_id = $1
		 ORDER BY position`,
		id)
	if err != nil {
		return QuizSession{}, fmt.Errorf("fetching quiz questions: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var q QuizQuestion
		if err := rows.Scan(&q.ID, &q.Position, &q.Prompt, &q.Options, &q.Answer, &q.Explanation); err != nil {
			return QuizSession{}, fmt.Errorf("scanning quiz question: %w", err)
		}
		session.Questions = append(session.Questions, q)
	}
	if err := rows.Err(); err != nil {
		return QuizSession{}, fmt.Errorf("reading quiz questions: %w", err)
	}
	return session, nil
}

// ListQuizSessions returns sessions newest first, without questions. A
// non-empty category filters to sessions in that category, ignoring case.
func (s *Store) ListQuizSessions(ctx context.Context, category string) ([]QuizSession, error) {
	category = strings.TrimSpace(category)

	var (
		rows pgx.Rows
		err  error
	)
	if category == "" {
		rows, err = s.pool.Query(ctx,
			`SELECT id, title, category, created_at FROM quiz_sessions ORDER BY created_at DESC`)
	} else {
		rows, err = s.pool.Query(ctx,
			`SELECT id, title, category, created_at
			 FROM quiz_sessions
			 WHERE lower(category) = lower($1)
			 ORDER BY created_at DESC`,
			category)
	}
	if err != nil {
		return nil, fmt.Errorf("listing quiz sessions: %w", err)
	}
	defer rows.Close()

	var sessions []QuizSession
	for rows.Next() {
		var session QuizSession
		if err := rows.Scan(&session.ID, &session.Title, &session.Category, &session.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning quiz session: %w", err)
		}
		sessions = append(sessions, session)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("reading quiz sessions: %w", err)
	}
	return sessions, nil
}

// DeleteQuizSession removes a session, its questions, and its attempts.
func (s *Store) DeleteQuizSession(ctx context.Context, id uuid.UUID) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM quiz_sessions WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting quiz session %s: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return fault.NotFoundf("quiz session %s not found", id)
	}
	return nil
}

// RecordAttempt grades a submitted answer against the stored question and
// persists the attempt.
func (s *Store) RecordAttempt(ctx context.Context, sessionID, questionID uuid.UUID, userInput string) (QuizAttempt, error) {
	var answer string
	err := s.pool.QueryRow(ctx,
		`SELECT answer FROM quiz_questions WHERE id = $1 AND session_id = $2`,
		questionID, sessionID).Scan(&answer)
	if errors.Is(err, pgx.ErrNoRows) {
		return QuizAttempt{}, fault.NotFoundf("question %s not found in quiz session %s", questionID, sessionID)
	}
	if err != nil {
		return QuizAttempt{}, fmt.Errorf("fetching question answer: %w", err)
	}

	attempt := QuizAttempt{
		ID:         uuid.New(),
		SessionID:  sessionID,
		QuestionID: questionID,
		UserInput:  userInput,
		IsCorrect:  gradeAnswer(answer, userInput),
	}

	err = s.pool.QueryRow(ctx,
		`INSERT INTO quiz_attempts (id, session_id, question_id, user_input, is_correct)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING answered_at`,
		attempt.ID, attempt.SessionID, attempt.QuestionID, attempt.UserInput, attempt.IsCorrect).
		Scan(&attempt.AnsweredAt)
	if isForeignKeyViolation(err) {
		return QuizAttempt{}, fault.NotFoundf("quiz session %s not found", sessionID)
	}
	if err != nil {
		return QuizAttempt{}, fmt.Errorf("recording quiz attempt: %w", err)
	}
	return attempt, nil
}

// gradeAnswer compares a submission to the expected answer, ignoring case
// and surrounding whitespace.
func gradeAnswer(answer, input string) bool {
	return strings.EqualFold(strings.TrimSpace(answer), strings.TrimSpace(input))
}
