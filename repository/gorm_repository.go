package repository

import (
	"context"
	"log/slog"
	"time"

	"github.com/hsakai/skillview/backend/models"
	"gorm.io/gorm"
)

type GORMRepository struct {
	db *gorm.DB
}

func NewGORMRepository(db *gorm.DB) *GORMRepository {
	return &GORMRepository{db: db}
}

// AutoMigrate runs database migrations
func (r *GORMRepository) AutoMigrate() error {
	return r.db.AutoMigrate(
		&models.User{},
		&models.RefreshToken{},
		&models.SkillProfile{},
		&models.InterviewSession{},
		&models.Question{},
		&models.Answer{},
		&models.EvaluationReport{},
	)
}

// User operations
func (r *GORMRepository) CreateUser(ctx context.Context, user *models.User) error {
	if err := r.db.WithContext(ctx).Create(user).Error; err != nil {
		slog.Error("Failed to create user", "error", err)
		return err
	}
	slog.Info("User created", "user_id", user.ID, "email", user.Email)
	return nil
}

func (r *GORMRepository) GetUserByEmail(ctx context.Context, email string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("email = ?", email).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by email", "error", err, "email", email)
		return nil, err
	}
	return &user, nil
}

func (r *GORMRepository) GetUserByID(ctx context.Context, id string) (*models.User, error) {
	var user models.User
	if err := r.db.WithContext(ctx).Where("id = ?", id).First(&user).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get user by ID", "error", err, "user_id", id)
		return nil, err
	}
	return &user, nil
}

// Token operations
func (r *GORMRepository) CreateRefreshToken(ctx context.Context, token *models.RefreshToken) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		slog.Error("Failed to create refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) GetRefreshToken(ctx context.Context, token string) (*models.RefreshToken, error) {
	var refreshToken models.RefreshToken
	if err := r.db.WithContext(ctx).Where("token = ? AND expires_at > ?", token, time.Now()).First(&refreshToken).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get refresh token", "error", err)
		return nil, err
	}
	return &refreshToken, nil
}

func (r *GORMRepository) DeleteRefreshToken(ctx context.Context, token string) error {
	if err := r.db.WithContext(ctx).Where("token = ?", token).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete refresh token", "error", err)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteAllUserTokens(ctx context.Context, userID string) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&models.RefreshToken{}).Error; err != nil {
		slog.Error("Failed to delete user refresh tokens", "error", err, "user_id", userID)
		return err
	}
	return nil
}

// Skill profile operations
func (r *GORMRepository) CreateSkillProfile(ctx context.Context, profile *models.SkillProfile) error {
	if err := r.db.WithContext(ctx).Create(profile).Error; err != nil {
		slog.Error("Failed to create skill profile", "error", err)
		return err
	}
	slog.Info("Skill profile created", "profile_id", profile.ID, "user_id", profile.UserID)
	return nil
}

func (r *GORMRepository) GetSkillProfiles(ctx context.Context, userID string) ([]models.SkillProfile, error) {
	var profiles []models.SkillProfile
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Find(&profiles).Error
	if err != nil {
		slog.Error("Failed to get skill profiles", "error", err, "user_id", userID)
		return nil, err
	}
	return profiles, nil
}

func (r *GORMRepository) GetSkillProfileByID(ctx context.Context, profileID string, userID string) (*models.SkillProfile, error) {
	var profile models.SkillProfile
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", profileID, userID).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get skill profile", "error", err, "profile_id", profileID, "user_id", userID)
		return nil, err
	}
	return &profile, nil
}

// GetSkillProfile gets a skill profile by ID without a user check
func (r *GORMRepository) GetSkillProfile(ctx context.Context, profileID string) (*models.SkillProfile, error) {
	var profile models.SkillProfile
	err := r.db.WithContext(ctx).Where("id = ?", profileID).First(&profile).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get skill profile", "error", err, "profile_id", profileID)
		return nil, err
	}
	return &profile, nil
}

func (r *GORMRepository) UpdateSkillProfile(ctx context.Context, profile *models.SkillProfile) error {
	if err := r.db.WithContext(ctx).Save(profile).Error; err != nil {
		slog.Error("Failed to update skill profile", "error", err, "profile_id", profile.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteSkillProfile(ctx context.Context, profileID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", profileID).Delete(&models.SkillProfile{}).Error; err != nil {
		slog.Error("Failed to delete skill profile", "error", err, "profile_id", profileID)
		return err
	}
	slog.Info("Skill profile deleted", "profile_id", profileID)
	return nil
}

// Interview session operations
func (r *GORMRepository) CreateInterviewSession(ctx context.Context, session *models.InterviewSession) error {
	if err := r.db.WithContext(ctx).Create(session).Error; err != nil {
		slog.Error("Failed to create interview session", "error", err)
		return err
	}
	slog.Info("Interview session created", "session_id", session.ID, "user_id", session.UserID)
	return nil
}

func (r *GORMRepository) GetInterviewSessions(ctx context.Context, userID string) ([]models.InterviewSession, error) {
	var sessions []models.InterviewSession
	err := r.db.WithContext(ctx).Where("user_id = ?", userID).Order("created_at DESC").Preload("Profile").Find(&sessions).Error
	if err != nil {
		slog.Error("Failed to get interview sessions", "error", err, "user_id", userID)
		return nil, err
	}
	return sessions, nil
}

// GetInterviewSession gets an interview session by ID without a user check
func (r *GORMRepository) GetInterviewSession(ctx context.Context, sessionID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).Where("id = ?", sessionID).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview session", "error", err, "session_id", sessionID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetInterviewSessionForUser(ctx context.Context, sessionID string, userID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).Where("id = ? AND user_id = ?", sessionID, userID).First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview session for user", "error", err, "session_id", sessionID, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) GetInterviewSessionWithDetails(ctx context.Context, sessionID string, userID string) (*models.InterviewSession, error) {
	var session models.InterviewSession
	err := r.db.WithContext(ctx).
		Where("id = ? AND user_id = ?", sessionID, userID).
		Preload("Profile").
		Preload("Questions", func(db *gorm.DB) *gorm.DB {
			return db.Order("questions.question_order ASC")
		}).
		Preload("Questions.Answer").
		Preload("EvaluationReports").
		First(&session).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get interview session with details", "error", err, "session_id", sessionID, "user_id", userID)
		return nil, err
	}
	return &session, nil
}

func (r *GORMRepository) UpdateInterviewSession(ctx context.Context, session *models.InterviewSession) error {
	if err := r.db.WithContext(ctx).Save(session).Error; err != nil {
		slog.Error("Failed to update interview session", "error", err, "session_id", session.ID)
		return err
	}
	return nil
}

func (r *GORMRepository) DeleteInterviewSession(ctx context.Context, sessionID string) error {
	if err := r.db.WithContext(ctx).Where("id = ?", sessionID).Delete(&models.InterviewSession{}).Error; err != nil {
		slog.Error("Failed to delete interview session", "error", err, "session_id", sessionID)
		return err
	}
	slog.Info("Interview session deleted", "session_id", sessionID)
	return nil
}

// Question operations
func (r *GORMRepository) CreateQuestions(ctx context.Context, questions []models.Question) error {
	if err := r.db.WithContext(ctx).Create(&questions).Error; err != nil {
		slog.Error("Failed to create questions", "error", err, "count", len(questions))
		return err
	}
	slog.Info("Questions created", "count", len(questions))
	return nil
}

// GetQuestionBySession loads a question by (id, session) so a question
// belonging to a different session reads as not found.
func (r *GORMRepository) GetQuestionBySession(ctx context.Context, questionID string, sessionID string) (*models.Question, error) {
	var question models.Question
	err := r.db.WithContext(ctx).Where("id = ? AND session_id = ?", questionID, sessionID).First(&question).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get question", "error", err, "question_id", questionID, "session_id", sessionID)
		return nil, err
	}
	return &question, nil
}

// GetQuestionsOrdered loads all questions of a session ordered by their turn
// order, with creation time as a tiebreak.
func (r *GORMRepository) GetQuestionsOrdered(ctx context.Context, sessionID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("question_order ASC, created_at ASC").Find(&questions).Error
	if err != nil {
		slog.Error("Failed to get questions", "error", err, "session_id", sessionID)
		return nil, err
	}
	return questions, nil
}

// GetQuestionsWithAnswers loads the ordered question set with answers preloaded
func (r *GORMRepository) GetQuestionsWithAnswers(ctx context.Context, sessionID string) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.WithContext(ctx).
		Where("session_id = ?", sessionID).
		Order("question_order ASC, created_at ASC").
		Preload("Answer").
		Find(&questions).Error
	if err != nil {
		slog.Error("Failed to get questions with answers", "error", err, "session_id", sessionID)
		return nil, err
	}
	return questions, nil
}

// Answer operations
func (r *GORMRepository) CreateAnswer(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Create(answer).Error; err != nil {
		slog.Error("Failed to create answer", "error", err, "question_id", answer.QuestionID)
		return err
	}
	slog.Info("Answer created", "answer_id", answer.ID, "question_id", answer.QuestionID)
	return nil
}

func (r *GORMRepository) GetAnswerByQuestion(ctx context.Context, questionID string) (*models.Answer, error) {
	var answer models.Answer
	err := r.db.WithContext(ctx).Where("question_id = ?", questionID).First(&answer).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get answer", "error", err, "question_id", questionID)
		return nil, err
	}
	return &answer, nil
}

func (r *GORMRepository) UpdateAnswer(ctx context.Context, answer *models.Answer) error {
	if err := r.db.WithContext(ctx).Save(answer).Error; err != nil {
		slog.Error("Failed to update answer", "error", err, "answer_id", answer.ID)
		return err
	}
	return nil
}

// CountCompletedAnswers counts completed answers across the whole session
func (r *GORMRepository) CountCompletedAnswers(ctx context.Context, sessionID string) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Answer{}).
		Joins("JOIN questions ON questions.id = answers.question_id").
		Where("questions.session_id = ? AND answers.status = ?", sessionID, models.AnswerStatusCompleted).
		Count(&count).Error
	if err != nil {
		slog.Error("Failed to count completed answers", "error", err, "session_id", sessionID)
		return 0, err
	}
	return count, nil
}

// Evaluation report operations
func (r *GORMRepository) CreateEvaluationReport(ctx context.Context, report *models.EvaluationReport) error {
	if err := r.db.WithContext(ctx).Create(report).Error; err != nil {
		slog.Error("Failed to create evaluation report", "error", err, "session_id", report.SessionID)
		return err
	}
	slog.Info("Evaluation report created", "report_id", report.ID, "session_id", report.SessionID, "grade", report.Grade)
	return nil
}

func (r *GORMRepository) GetEvaluationReport(ctx context.Context, reportID string) (*models.EvaluationReport, error) {
	var report models.EvaluationReport
	err := r.db.WithContext(ctx).Where("id = ?", reportID).First(&report).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		slog.Error("Failed to get evaluation report", "error", err, "report_id", reportID)
		return nil, err
	}
	return &report, nil
}

// GetEvaluationReportsBySession returns the session's reports newest first
func (r *GORMRepository) GetEvaluationReportsBySession(ctx context.Context, sessionID string) ([]models.EvaluationReport, error) {
	var reports []models.EvaluationReport
	err := r.db.WithContext(ctx).Where("session_id = ?", sessionID).Order("created_at DESC").Find(&reports).Error
	if err != nil {
		slog.Error("Failed to get evaluation reports", "error", err, "session_id", sessionID)
		return nil, err
	}
	return reports, nil
}
