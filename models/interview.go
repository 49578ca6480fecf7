package models

import (
	"time"

	"gorm.io/gorm"
)

// Session statuses. A session only advances pending -> in_progress -> completed
// (or -> cancelled); CompletedAt is set iff the status is completed.
const (
	SessionStatusPending    = "pending"
	SessionStatusInProgress = "in_progress"
	SessionStatusCompleted  = "completed"
	SessionStatusCancelled  = "cancelled"
)

// Question types
const (
	QuestionTypeSelfIntroduction = "self_introduction"
	QuestionTypeMotivation       = "motivation"
	QuestionTypeTechnical        = "technical"
	QuestionTypeReverse          = "reverse"
)

// Answer statuses
const (
	AnswerStatusInProgress = "in_progress"
	AnswerStatusCompleted  = "completed"
	AnswerStatusFailed     = "failed"
)

// InterviewSession represents one interview attempt, linking a user and a skill profile
type InterviewSession struct {
	ID          string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID      string         `gorm:"type:uuid;not null;index" json:"user_id"`
	ProfileID   string         `gorm:"type:uuid;not null;index" json:"profile_id"`
	Status      string         `gorm:"not null;default:'pending';check:status IN ('pending', 'in_progress', 'completed', 'cancelled')" json:"status"`
	StartedAt   *time.Time     `json:"started_at,omitempty"`
	CompletedAt *time.Time     `json:"completed_at,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User              User               `gorm:"foreignKey:UserID" json:"user,omitempty"`
	Profile           SkillProfile       `gorm:"foreignKey:ProfileID" json:"profile,omitempty"`
	Questions         []Question         `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"questions,omitempty"`
	EvaluationReports []EvaluationReport `gorm:"foreignKey:SessionID;constraint:OnDelete:CASCADE" json:"evaluation_reports,omitempty"`
}

// Question is one prompt belonging to a session. Order values are 1-based and
// contiguous within a session; there is no explicit "next" pointer.
type Question struct {
	ID         string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	SessionID  string         `gorm:"type:uuid;not null;index;uniqueIndex:idx_session_order,priority:1" json:"session_id"`
	Type       string         `gorm:"not null;check:type IN ('self_introduction', 'motivation', 'technical', 'reverse')" json:"type"`
	Order      int            `gorm:"column:question_order;not null;uniqueIndex:idx_session_order,priority:2" json:"order"`
	Content    string         `gorm:"type:text;not null" json:"content"`
	Difficulty string         `gorm:"size:50" json:"difficulty,omitempty"` // easy, medium, hard
	Category   string         `gorm:"size:100" json:"category,omitempty"`  // skill category the question probes
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	Session InterviewSession `gorm:"foreignKey:SessionID" json:"session,omitempty"`
	Answer  *Answer          `gorm:"foreignKey:QuestionID;constraint:OnDelete:CASCADE" json:"answer,omitempty"`
}

// Answer is at most one per question (1:1), created lazily with an empty body
// the first time its question becomes current. CompletedAt is set iff the
// status is completed.
type Answer struct {
	ID                 string              `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	QuestionID         string              `gorm:"type:uuid;not null;uniqueIndex" json:"question_id"`
	Content            string              `gorm:"type:text" json:"content"`
	Confidence         float64             `gorm:"type:decimal(4,3);default:0" json:"confidence"` // 0.0 to 1.0
	TranscriptSegments []TranscriptSegment `gorm:"serializer:json" json:"transcript_segments,omitempty"`
	AudioMetadata      *AudioMetadata      `gorm:"serializer:json" json:"audio_metadata,omitempty"`
	Sentiment          *SentimentAnalysis  `gorm:"serializer:json" json:"sentiment,omitempty"`
	Status             string              `gorm:"not null;default:'in_progress';check:status IN ('in_progress', 'completed', 'failed')" json:"status"`
	StartedAt          time.Time           `gorm:"not null" json:"started_at"`
	CompletedAt        *time.Time          `json:"completed_at,omitempty"`
	CreatedAt          time.Time           `json:"created_at"`
	UpdatedAt          time.Time           `json:"updated_at"`
	DeletedAt          gorm.DeletedAt      `gorm:"index" json:"-"`

	// Relationships
	Question Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

// TranscriptSegment is one timed slice of the spoken answer
type TranscriptSegment struct {
	Text       string  `json:"text"`
	StartMs    int     `json:"start_ms"`
	EndMs      int     `json:"end_ms"`
	Confidence float64 `json:"confidence,omitempty"`
}

// AudioMetadata describes the recorded audio; codec conversion happens upstream
type AudioMetadata struct {
	DurationMs int    `json:"duration_ms"`
	Format     string `json:"format,omitempty"`
	SampleRate int    `json:"sample_rate,omitempty"`
	SizeBytes  int64  `json:"size_bytes,omitempty"`
}

// SentimentAnalysis holds the upstream sentiment pass over the answer
type SentimentAnalysis struct {
	Label     string  `json:"label"` // positive, neutral, negative
	Score     float64 `json:"score"`
	Hesitancy float64 `json:"hesitancy,omitempty"`
}
