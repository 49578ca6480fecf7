package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hsakai/skillview/backend/events"
	"github.com/hsakai/skillview/backend/models"
)

// ProgressionEngine drives the question/answer lifecycle of a session:
// which question is current, whether the interview is complete, and the
// session status transitions that follow from persisted state.
type ProgressionEngine struct {
	store           InterviewStore
	evaluator       ReportGenerator
	tasks           *TaskRunner
	bus             *events.Bus
	evaluationDelay time.Duration
}

func NewProgressionEngine(store InterviewStore, evaluator ReportGenerator, tasks *TaskRunner, bus *events.Bus, evaluationDelay time.Duration) *ProgressionEngine {
	return &ProgressionEngine{
		store:           store,
		evaluator:       evaluator,
		tasks:           tasks,
		bus:             bus,
		evaluationDelay: evaluationDelay,
	}
}

// Progress counts completed answers across the whole session
type Progress struct {
	Completed int `json:"completed"`
	Total     int `json:"total"`
	Remaining int `json:"remaining"`
}

// StartSessionResult is the view returned when an interview starts
type StartSessionResult struct {
	SessionID       string            `json:"session_id"`
	Status          string            `json:"status"`
	CurrentQuestion *models.Question  `json:"current_question"`
	AllQuestions    []models.Question `json:"all_questions"`
	StartedAt       *time.Time        `json:"started_at"`
}

// CompleteAnswerResult is the view returned after an answer completes
type CompleteAnswerResult struct {
	NextQuestion        *models.Question `json:"next_question,omitempty"`
	IsInterviewComplete bool             `json:"is_interview_complete"`
	Message             string           `json:"message"`
	Progress            Progress         `json:"progress"`
}

// StartSession transitions a session to in_progress (idempotently if it
// already is), loads the ordered question set and makes the first question
// current by lazily creating its answer.
func (p *ProgressionEngine) StartSession(ctx context.Context, userID string, sessionID string) (*StartSessionResult, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrValidation)
	}

	session, err := p.store.GetInterviewSessionForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session not found or not owned by user", ErrValidation)
	}
	if session.Status != models.SessionStatusPending && session.Status != models.SessionStatusInProgress {
		return nil, fmt.Errorf("%w: cannot start a %s session", ErrValidation, session.Status)
	}

	if session.Status == models.SessionStatusPending {
		now := time.Now()
		session.Status = models.SessionStatusInProgress
		session.StartedAt = &now
		if err := p.store.UpdateInterviewSession(ctx, session); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		slog.Info("Interview session started", "session_id", sessionID, "user_id", userID)
	}

	questions, err := p.store.GetQuestionsOrdered(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no questions found for this session", ErrValidation)
	}

	current := &questions[0]
	if err := p.makeCurrent(ctx, current); err != nil {
		return nil, err
	}

	return &StartSessionResult{
		SessionID:       session.ID,
		Status:          session.Status,
		CurrentQuestion: current,
		AllQuestions:    questions,
		StartedAt:       session.StartedAt,
	}, nil
}

// CompleteAnswer marks the question's answer complete, derives the next
// question or interview completion from question order, and on completion
// transitions the session and triggers the background evaluation.
func (p *ProgressionEngine) CompleteAnswer(ctx context.Context, userID string, sessionID string, questionID string) (*CompleteAnswerResult, error) {
	if sessionID == "" || questionID == "" {
		return nil, fmt.Errorf("%w: session ID and question ID are required", ErrValidation)
	}

	session, err := p.store.GetInterviewSessionForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}

	// Loading by (id, session) also rejects questions of other sessions.
	question, err := p.store.GetQuestionBySession(ctx, questionID, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if question == nil {
		return nil, fmt.Errorf("%w: question %s in session %s", ErrNotFound, questionID, sessionID)
	}

	answer, err := p.store.GetAnswerByQuestion(ctx, questionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if answer != nil {
		now := time.Now()
		answer.Status = models.AnswerStatusCompleted
		answer.CompletedAt = &now
		if err := p.store.UpdateAnswer(ctx, answer); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
	} else {
		// A current question should always have a lazily created answer; a
		// missing one suggests a lost write upstream.
		slog.Warn("Answer record missing at completion", "session_id", sessionID, "question_id", questionID)
	}

	questions, err := p.store.GetQuestionsOrdered(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	var next *models.Question
	for i := range questions {
		if questions[i].ID == questionID && i+1 < len(questions) {
			next = &questions[i+1]
			break
		}
	}
	complete := next == nil

	completedCount, err := p.store.CountCompletedAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	progress := Progress{
		Completed: int(completedCount),
		Total:     len(questions),
		Remaining: len(questions) - int(completedCount),
	}

	result := &CompleteAnswerResult{
		IsInterviewComplete: complete,
		Progress:            progress,
	}

	if complete {
		now := time.Now()
		session.Status = models.SessionStatusCompleted
		session.CompletedAt = &now
		if err := p.store.UpdateInterviewSession(ctx, session); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInternal, err)
		}
		slog.Info("Interview session completed", "session_id", sessionID, "user_id", userID, "questions", len(questions))

		// Fire-and-forget: the caller's response never waits on, or sees
		// failures of, the evaluation.
		p.tasks.Submit("evaluation-report", sessionID, p.evaluationDelay, func(taskCtx context.Context) error {
			_, genErr := p.evaluator.GenerateEvaluationReport(taskCtx, sessionID)
			return genErr
		})

		result.Message = "Interview complete. Evaluation report generation has started."
	} else {
		if err := p.makeCurrent(ctx, next); err != nil {
			return nil, err
		}
		result.NextQuestion = next
		result.Message = "Answer recorded. The next question is ready."
	}

	if p.bus != nil {
		p.bus.PublishProgress(events.ProgressEvent{
			SessionID:         sessionID,
			Completed:         progress.Completed,
			Total:             progress.Total,
			Remaining:         progress.Remaining,
			InterviewComplete: complete,
			Timestamp:         time.Now(),
		})
	}

	return result, nil
}

// CancelSession moves a pending or in-progress session to cancelled
func (p *ProgressionEngine) CancelSession(ctx context.Context, userID string, sessionID string) (*models.InterviewSession, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrValidation)
	}

	session, err := p.store.GetInterviewSessionForUser(ctx, sessionID, userID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.Status == models.SessionStatusCompleted || session.Status == models.SessionStatusCancelled {
		return nil, fmt.Errorf("%w: cannot cancel a %s session", ErrValidation, session.Status)
	}

	session.Status = models.SessionStatusCancelled
	if err := p.store.UpdateInterviewSession(ctx, session); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	slog.Info("Interview session cancelled", "session_id", sessionID, "user_id", userID)
	return session, nil
}

// makeCurrent ensures the question has an in-progress answer: creates an
// empty one if none exists, or resets a stray status back to in_progress.
// Idempotent for an answer already in progress.
func (p *ProgressionEngine) makeCurrent(ctx context.Context, question *models.Question) error {
	answer, err := p.store.GetAnswerByQuestion(ctx, question.ID)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInternal, err)
	}

	if answer == nil {
		answer = &models.Answer{
			QuestionID: question.ID,
			Status:     models.AnswerStatusInProgress,
			StartedAt:  time.Now(),
		}
		if err := p.store.CreateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
		return nil
	}

	if answer.Status != models.AnswerStatusInProgress {
		answer.Status = models.AnswerStatusInProgress
		if err := p.store.UpdateAnswer(ctx, answer); err != nil {
			return fmt.Errorf("%w: %v", ErrInternal, err)
		}
	}
	return nil
}
