package services

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsakai/skillview/backend/models"
)

// stubGenerator returns the same response (or error) for every prompt
type stubGenerator struct {
	response string
	err      error
	calls    atomic.Int64
}

func (s *stubGenerator) Generate(ctx context.Context, prompt string) (string, error) {
	s.calls.Add(1)
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func (s *stubGenerator) ModelName() string { return "stub-model" }

// allScoresJSON carries every sub-score key so one response satisfies all
// four category evaluators
const allScoresJSON = `{
	"frontend": 90, "backend": 85, "database": 80, "infrastructure": 75, "architecture": 70,
	"communication": 88, "problemSolving": 82, "teamwork": 84, "leadership": 78, "learning": 86,
	"accuracy": 81, "detail": 79, "clarity": 83, "structure": 77,
	"projectScale": 72, "responsibility": 74, "achievements": 76, "relevance": 71
}`

func newTestOrchestrator(store *fakeStore, generator Generator) *EvaluationOrchestrator {
	return NewEvaluationOrchestrator(store, generator, NewInsightSynthesizer(generator), NewHTMLReportRenderer())
}

func seedCompletedSession(store *fakeStore, sessionID string, answers []string) {
	seedSession(store, "user-1", sessionID, models.SessionStatusCompleted, len(answers))
	store.profiles["profile-1"] = &models.SkillProfile{
		ID:     "profile-1",
		UserID: "user-1",
		Title:  "Backend Developer",
		Skills: []models.Skill{{Name: "Go", Category: "backend", Level: "advanced", Years: 4}},
	}
	for i, content := range answers {
		question := store.questions[len(store.questions)-len(answers)+i]
		store.answers[question.ID] = &models.Answer{
			ID:         question.ID + "-answer",
			QuestionID: question.ID,
			Content:    content,
			Confidence: 0.8,
			Status:     models.AnswerStatusCompleted,
		}
	}
}

func TestDetermineGrade(t *testing.T) {
	tests := []struct {
		score float64
		grade string
	}{
		{95, "A"},
		{90, "A"},
		{89.9, "B"},
		{85, "B"},
		{80, "B"},
		{75, "C"},
		{70, "C"},
		{65, "D"},
		{60, "D"},
		{59.9, "E"},
		{40, "E"},
		{0, "E"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.grade, DetermineGrade(tt.score), "score %.1f", tt.score)
	}
}

func TestCalculateOverallScore(t *testing.T) {
	uniform := func(v float64) (models.TechnicalScores, models.SoftSkillScores, models.QualityScores, models.ExperienceScores) {
		return models.TechnicalScores{Frontend: v, Backend: v, Database: v, Infrastructure: v, Architecture: v},
			models.SoftSkillScores{Communication: v, ProblemSolving: v, Teamwork: v, Leadership: v, Learning: v},
			models.QualityScores{Accuracy: v, Detail: v, Clarity: v, Structure: v},
			models.ExperienceScores{ProjectScale: v, Responsibility: v, Achievements: v, Relevance: v}
	}

	technical, soft, quality, experience := uniform(80)
	assert.Equal(t, 80.0, CalculateOverallScore(technical, soft, quality, experience))

	// 0.40*90 + 0.25*80 + 0.25*70 + 0.10*60 = 79.5
	technical, _, _, _ = uniform(90)
	_, soft, _, _ = uniform(80)
	_, _, quality, _ = uniform(70)
	_, _, _, experience = uniform(60)
	assert.Equal(t, 79.5, CalculateOverallScore(technical, soft, quality, experience))
}

func TestGenerateEvaluationReportRequiresCompletedSession(t *testing.T) {
	store := newFakeStore()
	seedSession(store, "user-1", "running", models.SessionStatusInProgress, 2)
	orchestrator := newTestOrchestrator(store, &stubGenerator{response: allScoresJSON})

	_, err := orchestrator.GenerateEvaluationReport(context.Background(), "running")
	assert.ErrorIs(t, err, ErrValidation)

	_, err = orchestrator.GenerateEvaluationReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestGenerateEvaluationReportScoresAndMetadata(t *testing.T) {
	store := newFakeStore()
	seedCompletedSession(store, "session-1", []string{
		"I built Go microservices with Postgres behind a REST API.",
		"I led a team of four through a cloud migration to AWS.",
	})
	orchestrator := newTestOrchestrator(store, &stubGenerator{response: allScoresJSON})

	report, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)

	assert.Equal(t, 90.0, report.TechnicalScores.Frontend)
	assert.Equal(t, 88.0, report.SoftSkillScores.Communication)
	assert.Equal(t, 81.0, report.QualityScores.Accuracy)
	assert.Equal(t, 72.0, report.ExperienceScores.ProjectScale)

	expected := CalculateOverallScore(report.TechnicalScores, report.SoftSkillScores, report.QualityScores, report.ExperienceScores)
	assert.Equal(t, expected, report.OverallScore)
	assert.Equal(t, DetermineGrade(expected), report.Grade)

	assert.Equal(t, "stub-model", report.Metadata.ModelUsed)
	assert.Equal(t, 0.85, report.Metadata.ConfidenceScores["overall"])
	assert.False(t, report.Metadata.AnalysisTimestamp.IsZero())

	// The score response is not valid insight JSON, so the narrative comes
	// from the fallback
	assert.NotEmpty(t, report.Strengths)
	assert.Len(t, report.Improvements, 2)
	assert.NotEmpty(t, report.Feedback)
	assert.NotEmpty(t, report.RecommendedPositions)
}

func TestGenerateEvaluationReportFallsBackOnGeneratorFailure(t *testing.T) {
	store := newFakeStore()
	seedCompletedSession(store, "session-1", []string{
		"I use React and TypeScript daily, with Postgres and Docker on AWS.",
	})
	orchestrator := newTestOrchestrator(store, &stubGenerator{err: errors.New("model unavailable")})

	report, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)

	// Fallback scores stay inside the documented bounds
	for _, score := range []float64{
		report.TechnicalScores.Frontend, report.TechnicalScores.Backend,
		report.TechnicalScores.Database, report.TechnicalScores.Infrastructure,
		report.TechnicalScores.Architecture,
		report.SoftSkillScores.Communication, report.SoftSkillScores.Leadership,
		report.ExperienceScores.ProjectScale, report.ExperienceScores.Relevance,
	} {
		assert.GreaterOrEqual(t, score, 0.0)
		assert.LessOrEqual(t, score, 100.0)
	}
	for _, score := range []float64{
		report.QualityScores.Accuracy, report.QualityScores.Detail,
		report.QualityScores.Clarity, report.QualityScores.Structure,
	} {
		assert.GreaterOrEqual(t, score, 50.0)
		assert.LessOrEqual(t, score, 100.0)
	}

	// Keyword hits push the matched areas above the base
	assert.Greater(t, report.TechnicalScores.Frontend, 60.0)
	assert.Greater(t, report.TechnicalScores.Database, 60.0)

	assert.Equal(t, DetermineGrade(report.OverallScore), report.Grade)
	assert.NotEmpty(t, report.Feedback)
}

func TestGenerateEvaluationReportIsAppendOnly(t *testing.T) {
	store := newFakeStore()
	seedCompletedSession(store, "session-1", []string{"An answer about Go services."})
	orchestrator := newTestOrchestrator(store, &stubGenerator{response: allScoresJSON})

	first, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)
	second, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	reports, err := orchestrator.GetReportsBySession(context.Background(), "session-1")
	require.NoError(t, err)
	require.Len(t, reports, 2)
	assert.Equal(t, second.ID, reports[0].ID, "newest report first")
	assert.Equal(t, first.ID, reports[1].ID)
}

func TestGenerateEvaluationReportSkipsIncompleteAnswers(t *testing.T) {
	store := newFakeStore()
	seedCompletedSession(store, "session-1", []string{"First answer.", "Second answer."})
	// Demote the second answer; it must not count as evidence
	store.answers["session-1-q2"].Status = models.AnswerStatusInProgress

	generator := &stubGenerator{response: allScoresJSON}
	orchestrator := newTestOrchestrator(store, generator)

	_, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)

	// 4 category calls plus 1 insight call regardless of evidence size
	assert.Equal(t, int64(5), generator.calls.Load())
}

func TestGetEvaluationReport(t *testing.T) {
	store := newFakeStore()
	seedCompletedSession(store, "session-1", []string{"An answer."})
	orchestrator := newTestOrchestrator(store, &stubGenerator{response: allScoresJSON})

	created, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)

	fetched, err := orchestrator.GetEvaluationReport(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, fetched.ID)

	_, err = orchestrator.GetEvaluationReport(context.Background(), "missing")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = orchestrator.GetEvaluationReport(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestRenderReport(t *testing.T) {
	store := newFakeStore()
	seedCompletedSession(store, "session-1", []string{"An answer."})
	orchestrator := newTestOrchestrator(store, &stubGenerator{response: allScoresJSON})

	created, err := orchestrator.GenerateEvaluationReport(context.Background(), "session-1")
	require.NoError(t, err)

	markup, filename, err := orchestrator.RenderReport(context.Background(), created.ID)
	require.NoError(t, err)
	assert.Contains(t, markup, created.Grade)
	assert.Equal(t, "evaluation-report-"+created.ID+".html", filename)
}
