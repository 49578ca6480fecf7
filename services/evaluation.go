package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sync"
	"time"

	"github.com/hsakai/skillview/backend/models"
)

// Generator is the text generation boundary the evaluators call. The
// ResilientClient satisfies it; tests use scripted fakes.
type Generator interface {
	Generate(ctx context.Context, prompt string) (string, error)
	ModelName() string
}

// ReportRenderer turns a report into markup for download. Rendering details
// (templates, PDF conversion) live outside the evaluation core.
type ReportRenderer interface {
	Render(report *models.EvaluationReport) (markup string, filename string, err error)
}

// Category weights for the overall score; they sum to 1.0
const (
	weightTechnical  = 0.40
	weightSoftSkills = 0.25
	weightQuality    = 0.25
	weightExperience = 0.10
)

// placeholderConfidence is recorded in report metadata; the generator
// boundary exposes no real confidence signal to plumb through.
const placeholderConfidence = 0.85

// EvaluationOrchestrator computes the multi-category AI evaluation of a
// completed session and persists the report. Category failures never escape:
// each category absorbs them with its deterministic fallback scorer.
type EvaluationOrchestrator struct {
	store    InterviewStore
	client   Generator
	insights *InsightSynthesizer
	renderer ReportRenderer
}

func NewEvaluationOrchestrator(store InterviewStore, client Generator, insights *InsightSynthesizer, renderer ReportRenderer) *EvaluationOrchestrator {
	return &EvaluationOrchestrator{
		store:    store,
		client:   client,
		insights: insights,
		renderer: renderer,
	}
}

// GenerateEvaluationReport evaluates a completed session and persists a new
// report row. Reports are append-only: calling twice creates two rows.
func (o *EvaluationOrchestrator) GenerateEvaluationReport(ctx context.Context, sessionID string) (*models.EvaluationReport, error) {
	session, err := o.store.GetInterviewSession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if session == nil {
		return nil, fmt.Errorf("%w: session %s", ErrNotFound, sessionID)
	}
	if session.Status != models.SessionStatusCompleted {
		return nil, fmt.Errorf("%w: cannot generate report for incomplete interview (status %s)", ErrValidation, session.Status)
	}

	profileJSON, err := o.loadProfileJSON(ctx, session.ProfileID)
	if err != nil {
		return nil, err
	}

	questions, err := o.store.GetQuestionsWithAnswers(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}

	evidence := make([]AnswerEvidence, 0, len(questions))
	for _, q := range questions {
		if q.Answer == nil || q.Answer.Status != models.AnswerStatusCompleted {
			continue
		}
		evidence = append(evidence, AnswerEvidence{
			Question:   q.Content,
			Answer:     q.Answer.Content,
			Confidence: q.Answer.Confidence,
		})
	}
	slog.Info("Starting evaluation", "session_id", sessionID, "answers", len(evidence))

	// The four category evaluations are independent; run them concurrently.
	var (
		wg         sync.WaitGroup
		technical  models.TechnicalScores
		softSkills models.SoftSkillScores
		quality    models.QualityScores
		experience models.ExperienceScores
	)
	wg.Add(4)
	go func() { defer wg.Done(); technical = o.evaluateTechnical(ctx, profileJSON, evidence) }()
	go func() { defer wg.Done(); softSkills = o.evaluateSoftSkills(ctx, profileJSON, evidence) }()
	go func() { defer wg.Done(); quality = o.evaluateQuality(ctx, profileJSON, evidence) }()
	go func() { defer wg.Done(); experience = o.evaluateExperience(ctx, profileJSON, evidence) }()
	wg.Wait()

	overall := CalculateOverallScore(technical, softSkills, quality, experience)
	grade := DetermineGrade(overall)

	insights := o.insights.Synthesize(ctx, technical, softSkills, quality, experience, evidence)

	report := &models.EvaluationReport{
		SessionID:            sessionID,
		TechnicalScores:      technical,
		SoftSkillScores:      softSkills,
		QualityScores:        quality,
		ExperienceScores:     experience,
		OverallScore:         overall,
		Grade:                grade,
		Strengths:            insights.Strengths,
		Improvements:         insights.Improvements,
		Feedback:             insights.Feedback,
		RecommendedPositions: insights.Positions,
		Metadata: models.EvaluationMetadata{
			ModelUsed:         o.client.ModelName(),
			AnalysisTimestamp: time.Now(),
			ConfidenceScores:  map[string]float64{"overall": placeholderConfidence},
		},
	}

	if err := o.store.CreateEvaluationReport(ctx, report); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	slog.Info("Evaluation report generated", "session_id", sessionID, "report_id", report.ID, "overall_score", overall, "grade", grade)

	return report, nil
}

// GetEvaluationReport fetches one report by ID
func (o *EvaluationOrchestrator) GetEvaluationReport(ctx context.Context, reportID string) (*models.EvaluationReport, error) {
	if reportID == "" {
		return nil, fmt.Errorf("%w: report ID is required", ErrValidation)
	}
	report, err := o.store.GetEvaluationReport(ctx, reportID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if report == nil {
		return nil, fmt.Errorf("%w: report %s", ErrNotFound, reportID)
	}
	return report, nil
}

// GetReportsBySession returns the session's reports newest first
func (o *EvaluationOrchestrator) GetReportsBySession(ctx context.Context, sessionID string) ([]models.EvaluationReport, error) {
	if sessionID == "" {
		return nil, fmt.Errorf("%w: session ID is required", ErrValidation)
	}
	reports, err := o.store.GetEvaluationReportsBySession(ctx, sessionID)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return reports, nil
}

// RenderReport passes a report through the configured renderer
func (o *EvaluationOrchestrator) RenderReport(ctx context.Context, reportID string) (string, string, error) {
	report, err := o.GetEvaluationReport(ctx, reportID)
	if err != nil {
		return "", "", err
	}
	if o.renderer == nil {
		return "", "", fmt.Errorf("%w: report renderer not configured", ErrValidation)
	}
	markup, filename, err := o.renderer.Render(report)
	if err != nil {
		return "", "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return markup, filename, nil
}

func (o *EvaluationOrchestrator) loadProfileJSON(ctx context.Context, profileID string) (string, error) {
	profile, err := o.store.GetSkillProfile(ctx, profileID)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	if profile == nil {
		// An orphaned profile ref should not block evaluation of the answers.
		slog.Warn("Skill profile missing for evaluation", "profile_id", profileID)
		return "{}", nil
	}

	view := map[string]any{
		"title":   profile.Title,
		"summary": profile.Summary,
		"skills":  profile.Skills,
	}
	encoded, err := json.Marshal(view)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInternal, err)
	}
	return string(encoded), nil
}

// CalculateOverallScore computes the weighted average of the four category
// means, rounded to one decimal.
func CalculateOverallScore(technical models.TechnicalScores, softSkills models.SoftSkillScores, quality models.QualityScores, experience models.ExperienceScores) float64 {
	weighted := weightTechnical*technical.Average() +
		weightSoftSkills*softSkills.Average() +
		weightQuality*quality.Average() +
		weightExperience*experience.Average()
	return math.Round(weighted*10) / 10
}

// DetermineGrade maps an overall score to its recommendation grade.
// Thresholds are inclusive-lower and evaluated top-down.
func DetermineGrade(score float64) string {
	switch {
	case score >= 90:
		return models.GradeA
	case score >= 80:
		return models.GradeB
	case score >= 70:
		return models.GradeC
	case score >= 60:
		return models.GradeD
	default:
		return models.GradeE
	}
}
