package models

import (
	"time"

	"gorm.io/gorm"
)

// SkillProfile holds the extracted content of an uploaded skill sheet.
// File upload and format conversion happen upstream; by the time a profile
// row exists the sheet has already been reduced to text and structured skills.
type SkillProfile struct {
	ID        string         `gorm:"type:uuid;primaryKey;default:gen_random_uuid()" json:"id"`
	UserID    string         `gorm:"type:uuid;not null;index" json:"user_id"`
	Title     string         `gorm:"size:255;not null" json:"title"`
	Summary   string         `gorm:"type:text" json:"summary,omitempty"`
	Skills    []Skill        `gorm:"serializer:json" json:"skills"`
	RawText   string         `gorm:"type:text" json:"raw_text,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`

	// Relationships
	User              User               `gorm:"foreignKey:UserID;constraint:OnDelete:CASCADE" json:"user,omitempty"`
	InterviewSessions []InterviewSession `gorm:"foreignKey:ProfileID" json:"interview_sessions,omitempty"`
}

// Skill is one extracted skill entry of a profile
type Skill struct {
	Name     string  `json:"name"`
	Category string  `json:"category,omitempty"` // e.g. "frontend", "backend", "infrastructure"
	Level    string  `json:"level,omitempty"`    // e.g. "beginner", "intermediate", "expert"
	Years    float64 `json:"years,omitempty"`
}
