package services

import (
	"context"

	"github.com/hsakai/skillview/backend/models"
)

// InterviewStore is the persistence boundary the progression and evaluation
// engines work against. *repository.GORMRepository satisfies it; tests use
// in-memory fakes.
type InterviewStore interface {
	GetInterviewSession(ctx context.Context, sessionID string) (*models.InterviewSession, error)
	GetInterviewSessionForUser(ctx context.Context, sessionID string, userID string) (*models.InterviewSession, error)
	UpdateInterviewSession(ctx context.Context, session *models.InterviewSession) error

	GetQuestionBySession(ctx context.Context, questionID string, sessionID string) (*models.Question, error)
	GetQuestionsOrdered(ctx context.Context, sessionID string) ([]models.Question, error)
	GetQuestionsWithAnswers(ctx context.Context, sessionID string) ([]models.Question, error)

	GetAnswerByQuestion(ctx context.Context, questionID string) (*models.Answer, error)
	CreateAnswer(ctx context.Context, answer *models.Answer) error
	UpdateAnswer(ctx context.Context, answer *models.Answer) error
	CountCompletedAnswers(ctx context.Context, sessionID string) (int64, error)

	GetSkillProfile(ctx context.Context, profileID string) (*models.SkillProfile, error)

	CreateEvaluationReport(ctx context.Context, report *models.EvaluationReport) error
	GetEvaluationReport(ctx context.Context, reportID string) (*models.EvaluationReport, error)
	GetEvaluationReportsBySession(ctx context.Context, sessionID string) ([]models.EvaluationReport, error)
}

// ReportGenerator is the evaluation entry point the progression engine
// triggers in the background once an interview completes.
type ReportGenerator interface {
	GenerateEvaluationReport(ctx context.Context, sessionID string) (*models.EvaluationReport, error)
}
