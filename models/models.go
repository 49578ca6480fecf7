package models

// This file serves as the central export point for all database models
// Import this package to access all model types

// All models are automatically exported from their respective files:
// - User, RefreshToken from user.go
// - SkillProfile, Skill from profile.go
// - InterviewSession, Question, Answer from interview.go
// - EvaluationReport and its score blocks from report.go

// Database schema overview:
// 1. users - Managed by JWT-based authentication
// 2. skill_profiles - Extracted content of an uploaded skill sheet
// 3. interview_sessions - One interview attempt, linking a user and a skill profile
// 4. questions - The ordered question set of a session; order is the sole sequencing mechanism
// 5. answers - At most one per question, created lazily when a question becomes current
// 6. evaluation_reports - Append-only AI evaluation reports, created after a session completes
