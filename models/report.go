package models

import (
	"time"

	"gorm.io/gorm"
)

// Recommendation grades
const (
	GradeA = "A"
	GradeB = "B"
	GradeC = "C"
	GradeD = "D"
	GradeE = "E"
)

// EvaluationReport stores one AI evaluation of a completed session. Reports
// are append-only: generating twice for the same session creates two rows.
type EvaluationReport struct {
	ID                   string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID            string              `gorm:"type:uuid;not null;index" json:"session_id"`
	TechnicalScores      TechnicalScores     `gorm:"serializer:json" json:"technical_scores"`
	SoftSkillScores      SoftSkillScores     `gorm:"serializer:json" json:"soft_skill_scores"`
	QualityScores        QualityScores       `gorm:"serializer:json" json:"quality_scores"`
	ExperienceScores     ExperienceScores    `gorm:"serializer:json" json:"experience_scores"`
	OverallScore         float64             `gorm:"type:decimal(5,2);not null" json:"overall_score"` // 0.0 to 100.0, one decimal
	Grade                string              `gorm:"size:1;not null;check:grade IN ('A', 'B', 'C', 'D', 'E')" json:"grade"`
	Strengths            []string            `gorm:"serializer:json" json:"strengths"`              // at most 3
	Improvements         []string            `gorm:"serializer:json" json:"improvements"`           // at most 2
	Feedback             string              `gorm:"type:text" json:"feedback"`
	RecommendedPositions []string            `gorm:"serializer:json" json:"recommended_positions"` // at most 2
	Metadata             EvaluationMetadata  `gorm:"serializer:json" json:"metadata"`
	CreatedAt            time.Time           `json:"created_at"`
	UpdatedAt            time.Time           `json:"updated_at"`
	DeletedAt            gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Session InterviewSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
}

// TechnicalScores holds the five technical sub-scores, each 0-100
type TechnicalScores struct {
	Frontend       float64 `json:"frontend"`
	Backend        float64 `json:"backend"`
	Database       float64 `json:"database"`
	Infrastructure float64 `json:"infrastructure"`
	Architecture   float64 `json:"architecture"`
}

// SoftSkillScores holds the five soft-skill sub-scores, each 0-100
type SoftSkillScores struct {
	Communication  float64 `json:"communication"`
	ProblemSolving float64 `json:"problemSolving"`
	Teamwork       float64 `json:"teamwork"`
	Leadership     float64 `json:"leadership"`
	Learning       float64 `json:"learning"`
}

// QualityScores holds the four answer-quality sub-scores, each 0-100
type QualityScores struct {
	Accuracy  float64 `json:"accuracy"`
	Detail    float64 `json:"detail"`
	Clarity   float64 `json:"clarity"`
	Structure float64 `json:"structure"`
}

// ExperienceScores holds the four experience sub-scores, each 0-100
type ExperienceScores struct {
	ProjectScale   float64 `json:"projectScale"`
	Responsibility float64 `json:"responsibility"`
	Achievements   float64 `json:"achievements"`
	Relevance      float64 `json:"relevance"`
}

// EvaluationMetadata records how the report was produced
type EvaluationMetadata struct {
	ModelUsed         string             `json:"model_used"`
	AnalysisTimestamp time.Time          `json:"analysis_timestamp"`
	ConfidenceScores  map[string]float64 `json:"confidence_scores"`
}

// Average returns the arithmetic mean of the technical sub-scores
func (s TechnicalScores) Average() float64 {
	return (s.Frontend + s.Backend + s.Database + s.Infrastructure + s.Architecture) / 5
}

// Average returns the arithmetic mean of the soft-skill sub-scores
func (s SoftSkillScores) Average() float64 {
	return (s.Communication + s.ProblemSolving + s.Teamwork + s.Leadership + s.Learning) / 5
}

// Average returns the arithmetic mean of the answer-quality sub-scores
func (s QualityScores) Average() float64 {
	return (s.Accuracy + s.Detail + s.Clarity + s.Structure) / 4
}

// Average returns the arithmetic mean of the experience sub-scores
func (s ExperienceScores) Average() float64 {
	return (s.ProjectScale + s.Responsibility + s.Achievements + s.Relevance) / 4
}
