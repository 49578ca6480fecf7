package services

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsakai/skillview/backend/events"
	"github.com/hsakai/skillview/backend/models"
)

// fakeStore is an in-memory InterviewStore for engine tests
type fakeStore struct {
	mu        sync.Mutex
	sessions  map[string]*models.InterviewSession
	questions []models.Question
	answers   map[string]*models.Answer
	profiles  map[string]*models.SkillProfile
	reports   []models.EvaluationReport
	nextID    int
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		sessions: make(map[string]*models.InterviewSession),
		answers:  make(map[string]*models.Answer),
		profiles: make(map[string]*models.SkillProfile),
	}
}

func (f *fakeStore) GetInterviewSession(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (f *fakeStore) GetInterviewSessionForUser(ctx context.Context, sessionID string, userID string) (*models.InterviewSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	session, ok := f.sessions[sessionID]
	if !ok || session.UserID != userID {
		return nil, nil
	}
	copied := *session
	return &copied, nil
}

func (f *fakeStore) UpdateInterviewSession(ctx context.Context, session *models.InterviewSession) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *session
	f.sessions[session.ID] = &copied
	return nil
}

func (f *fakeStore) GetQuestionBySession(ctx context.Context, questionID string, sessionID string) (*models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.questions {
		if f.questions[i].ID == questionID && f.questions[i].SessionID == sessionID {
			copied := f.questions[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetQuestionsOrdered(ctx context.Context, sessionID string) ([]models.Question, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.Question
	for _, q := range f.questions {
		if q.SessionID == sessionID {
			result = append(result, q)
		}
	}
	return result, nil
}

func (f *fakeStore) GetQuestionsWithAnswers(ctx context.Context, sessionID string) ([]models.Question, error) {
	questions, _ := f.GetQuestionsOrdered(ctx, sessionID)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range questions {
		if answer, ok := f.answers[questions[i].ID]; ok {
			copied := *answer
			questions[i].Answer = &copied
		}
	}
	return questions, nil
}

func (f *fakeStore) GetAnswerByQuestion(ctx context.Context, questionID string) (*models.Answer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	answer, ok := f.answers[questionID]
	if !ok {
		return nil, nil
	}
	copied := *answer
	return &copied, nil
}

func (f *fakeStore) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.answers[answer.QuestionID]; exists {
		return fmt.Errorf("answer already exists for question %s", answer.QuestionID)
	}
	f.nextID++
	answer.ID = fmt.Sprintf("answer-%d", f.nextID)
	copied := *answer
	f.answers[answer.QuestionID] = &copied
	return nil
}

func (f *fakeStore) UpdateAnswer(ctx context.Context, answer *models.Answer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	copied := *answer
	f.answers[answer.QuestionID] = &copied
	return nil
}

func (f *fakeStore) CountCompletedAnswers(ctx context.Context, sessionID string) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var count int64
	for _, q := range f.questions {
		if q.SessionID != sessionID {
			continue
		}
		if answer, ok := f.answers[q.ID]; ok && answer.Status == models.AnswerStatusCompleted {
			count++
		}
	}
	return count, nil
}

func (f *fakeStore) GetSkillProfile(ctx context.Context, profileID string) (*models.SkillProfile, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	profile, ok := f.profiles[profileID]
	if !ok {
		return nil, nil
	}
	copied := *profile
	return &copied, nil
}

func (f *fakeStore) CreateEvaluationReport(ctx context.Context, report *models.EvaluationReport) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	report.ID = fmt.Sprintf("report-%d", f.nextID)
	report.CreatedAt = time.Now()
	f.reports = append(f.reports, *report)
	return nil
}

func (f *fakeStore) GetEvaluationReport(ctx context.Context, reportID string) (*models.EvaluationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.reports {
		if f.reports[i].ID == reportID {
			copied := f.reports[i]
			return &copied, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) GetEvaluationReportsBySession(ctx context.Context, sessionID string) ([]models.EvaluationReport, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var result []models.EvaluationReport
	// Newest first
	for i := len(f.reports) - 1; i >= 0; i-- {
		if f.reports[i].SessionID == sessionID {
			result = append(result, f.reports[i])
		}
	}
	return result, nil
}

// fakeEvaluator counts how many times evaluation is triggered
type fakeEvaluator struct {
	calls atomic.Int64
}

func (f *fakeEvaluator) GenerateEvaluationReport(ctx context.Context, sessionID string) (*models.EvaluationReport, error) {
	f.calls.Add(1)
	return &models.EvaluationReport{SessionID: sessionID}, nil
}

func seedSession(store *fakeStore, userID, sessionID, status string, questionCount int) {
	store.sessions[sessionID] = &models.InterviewSession{
		ID:        sessionID,
		UserID:    userID,
		ProfileID: "profile-1",
		Status:    status,
	}
	for i := 1; i <= questionCount; i++ {
		store.questions = append(store.questions, models.Question{
			ID:        fmt.Sprintf("%s-q%d", sessionID, i),
			SessionID: sessionID,
			Type:      models.QuestionTypeTechnical,
			Order:     i,
			Content:   fmt.Sprintf("Question %d", i),
		})
	}
}

func newTestEngine(store *fakeStore) (*ProgressionEngine, *fakeEvaluator, *TaskRunner) {
	evaluator := &fakeEvaluator{}
	runner := NewTaskRunner(events.NewBus())
	engine := NewProgressionEngine(store, evaluator, runner, events.NewBus(), 0)
	return engine, evaluator, runner
}

func TestStartSessionTransitionsPending(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusPending, 3)
	engine, _, _ := newTestEngine(store)

	result, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusInProgress, result.Status)
	assert.NotNil(t, result.StartedAt)
	require.NotNil(t, result.CurrentQuestion)
	assert.Equal(t, 1, result.CurrentQuestion.Order)
	assert.Len(t, result.AllQuestions, 3)

	// The first question's answer is created lazily
	answer := store.answers["session-1-q1"]
	require.NotNil(t, answer)
	assert.Equal(t, models.AnswerStatusInProgress, answer.Status)
	assert.False(t, answer.StartedAt.IsZero())
}

func TestStartSessionIdempotentWhenInProgress(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusPending, 2)
	engine, _, _ := newTestEngine(store)

	_, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)
	first := *store.answers["session-1-q1"]

	result, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)

	assert.Equal(t, models.SessionStatusInProgress, result.Status)
	assert.Equal(t, first.ID, store.answers["session-1-q1"].ID)
}

func TestStartSessionRejections(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "completed", models.SessionStatusCompleted, 2)
	seedSession(store, "user-1", "cancelled", models.SessionStatusCancelled, 2)
	seedSession(store, "user-1", "empty", models.SessionStatusPending, 0)
	seedSession(store, "someone-else", "not-mine", models.SessionStatusPending, 2)
	engine, _, _ := newTestEngine(store)

	tests := []struct {
		name      string
		sessionID string
	}{
		{"missing session ID", ""},
		{"completed session", "completed"},
		{"cancelled session", "cancelled"},
		{"session without questions", "empty"},
		{"session owned by another user", "not-mine"},
		{"unknown session", "nope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := engine.StartSession(context.Background(), "user-1", tt.sessionID)
			assert.ErrorIs(t, err, ErrValidation)
		})
	}
}

func TestCompleteAnswerAdvancesToNextQuestion(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusPending, 3)
	engine, evaluator, runner := newTestEngine(store)

	_, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)

	result, err := engine.CompleteAnswer(context.Background(), "user-1", "session-1", "session-1-q1")
	require.NoError(t, err)

	assert.False(t, result.IsInterviewComplete)
	require.NotNil(t, result.NextQuestion)
	assert.Equal(t, 2, result.NextQuestion.Order)
	assert.Equal(t, Progress{Completed: 1, Total: 3, Remaining: 2}, result.Progress)

	// Completed answer stamped, next answer created
	assert.Equal(t, models.AnswerStatusCompleted, store.answers["session-1-q1"].Status)
	assert.NotNil(t, store.answers["session-1-q1"].CompletedAt)
	require.NotNil(t, store.answers["session-1-q2"])
	assert.Equal(t, models.AnswerStatusInProgress, store.answers["session-1-q2"].Status)

	// Session still running, no evaluation yet
	assert.Equal(t, models.SessionStatusInProgress, store.sessions["session-1"].Status)
	runner.Wait()
	assert.Equal(t, int64(0), evaluator.calls.Load())
}

func TestCompleteAnswerFinalQuestionCompletesInterview(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusPending, 2)
	engine, evaluator, runner := newTestEngine(store)

	_, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)

	_, err = engine.CompleteAnswer(context.Background(), "user-1", "session-1", "session-1-q1")
	require.NoError(t, err)

	result, err := engine.CompleteAnswer(context.Background(), "user-1", "session-1", "session-1-q2")
	require.NoError(t, err)

	assert.True(t, result.IsInterviewComplete)
	assert.Nil(t, result.NextQuestion)
	assert.Contains(t, result.Message, "Evaluation report generation has started")
	assert.Equal(t, Progress{Completed: 2, Total: 2, Remaining: 0}, result.Progress)

	session := store.sessions["session-1"]
	assert.Equal(t, models.SessionStatusCompleted, session.Status)
	assert.NotNil(t, session.CompletedAt)

	// Exactly one background evaluation fires
	runner.Wait()
	assert.Equal(t, int64(1), evaluator.calls.Load())
}

func TestCompleteAnswerPublishesProgress(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusPending, 2)

	bus := events.NewBus()
	progress, cancel := bus.SubscribeProgress()
	defer cancel()

	engine := NewProgressionEngine(store, &fakeEvaluator{}, NewTaskRunner(bus), bus, 0)

	_, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)
	_, err = engine.CompleteAnswer(context.Background(), "user-1", "session-1", "session-1-q1")
	require.NoError(t, err)

	select {
	case event := <-progress:
		assert.Equal(t, "session-1", event.SessionID)
		assert.Equal(t, 1, event.Completed)
		assert.Equal(t, 2, event.Total)
		assert.False(t, event.InterviewComplete)
	case <-time.After(time.Second):
		t.Fatal("expected a progress event")
	}
}

func TestCompleteAnswerRejectsForeignQuestion(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusPending, 2)
	seedSession(store, "user-1", "session-2", models.SessionStatusPending, 2)
	engine, _, _ := newTestEngine(store)

	_, err := engine.StartSession(context.Background(), "user-1", "session-1")
	require.NoError(t, err)

	// A question from another session must not complete against this one
	_, err = engine.CompleteAnswer(context.Background(), "user-1", "session-1", "session-2-q1")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = engine.CompleteAnswer(context.Background(), "user-1", "missing", "session-1-q1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCompleteAnswerToleratesMissingAnswerRecord(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "session-1", models.SessionStatusInProgress, 1)
	engine, evaluator, runner := newTestEngine(store)

	// No answer was ever created for the question
	result, err := engine.CompleteAnswer(context.Background(), "user-1", "session-1", "session-1-q1")
	require.NoError(t, err)

	assert.True(t, result.IsInterviewComplete)
	assert.Equal(t, 0, result.Progress.Completed)

	runner.Wait()
	assert.Equal(t, int64(1), evaluator.calls.Load())
}

func TestCancelSession(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "pending", models.SessionStatusPending, 1)
	seedSession(store, "user-1", "running", models.SessionStatusInProgress, 1)
	seedSession(store, "user-1", "done", models.SessionStatusCompleted, 1)
	engine, _, _ := newTestEngine(store)

	for _, sessionID := range []string{"pending", "running"} {
		session, err := engine.CancelSession(context.Background(), "user-1", sessionID)
		require.NoError(t, err)
		assert.Equal(t, models.SessionStatusCancelled, session.Status)
	}

	_, err := engine.CancelSession(context.Background(), "user-1", "done")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = engine.CancelSession(context.Background(), "user-1", "pending")
	assert.ErrorIs(t, err, ErrValidation)
}
