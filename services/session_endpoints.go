package services

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/hsakai/skillview/backend/events"
	"github.com/hsakai/skillview/backend/models"
	"github.com/hsakai/skillview/backend/repository"
)

type SessionEndpoints struct {
	repo      *repository.GORMRepository
	engine    *ProgressionEngine
	questions *QuestionGenerator
	bus       *events.Bus
}

type CreateSessionRequest struct {
	ProfileID      string `json:"profile_id"`
	TechnicalCount int    `json:"technical_count"`
}

type SaveAnswerRequest struct {
	Content            string                     `json:"content"`
	Confidence         *float64                   `json:"confidence,omitempty"`
	TranscriptSegments []models.TranscriptSegment `json:"transcript_segments,omitempty"`
	AudioMetadata      *models.AudioMetadata      `json:"audio_metadata,omitempty"`
	Final              bool                       `json:"final"`
}

func NewSessionEndpoints(repo *repository.GORMRepository, engine *ProgressionEngine, questions *QuestionGenerator, bus *events.Bus) *SessionEndpoints {
	return &SessionEndpoints{
		repo:      repo,
		engine:    engine,
		questions: questions,
		bus:       bus,
	}
}

func (e *SessionEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", e.CreateSessionHandler)
		r.Get("/", e.GetSessionsHandler)
		r.Get("/{id}", e.GetSessionHandler)
		r.Post("/{id}/start", e.StartSessionHandler)
		r.Post("/{id}/cancel", e.CancelSessionHandler)
		r.Delete("/{id}", e.DeleteSessionHandler)
		r.Put("/{id}/questions/{questionID}/answer", e.SaveAnswerHandler)
		r.Post("/{id}/questions/{questionID}/complete", e.CompleteAnswerHandler)
	})
}

func (e *SessionEndpoints) CreateSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req CreateSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	profile, err := e.repo.GetSkillProfileByID(r.Context(), req.ProfileID, user.ID)
	if err != nil {
		slog.Error("Failed to get skill profile", "error", err, "profile_id", req.ProfileID)
		http.Error(w, "Failed to validate profile", http.StatusInternalServerError)
		return
	}
	if profile == nil {
		http.Error(w, "Skill profile not found", http.StatusNotFound)
		return
	}

	session := models.InterviewSession{
		ID:        uuid.New().String(),
		UserID:    user.ID,
		ProfileID: profile.ID,
		Status:    models.SessionStatusPending,
	}
	if err := e.repo.CreateInterviewSession(r.Context(), &session); err != nil {
		slog.Error("Failed to create interview session", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create session", http.StatusInternalServerError)
		return
	}

	questions := e.questions.GenerateQuestions(r.Context(), profile, req.TechnicalCount)
	for i := range questions {
		questions[i].ID = uuid.New().String()
		questions[i].SessionID = session.ID
	}
	if err := e.repo.CreateQuestions(r.Context(), questions); err != nil {
		slog.Error("Failed to create questions", "error", err, "session_id", session.ID)
		http.Error(w, "Failed to create session questions", http.StatusInternalServerError)
		return
	}
	session.Questions = questions

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
		"message": "Session created successfully",
	})

	slog.Info("Interview session created", "session_id", session.ID, "user_id", user.ID, "questions", len(questions))
}

func (e *SessionEndpoints) GetSessionsHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessions, err := e.repo.GetInterviewSessions(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get interview sessions", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get sessions", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"sessions": sessions,
		"count":    len(sessions),
	})
}

func (e *SessionEndpoints) GetSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	if sessionID == "" {
		http.Error(w, "Session ID is required", http.StatusBadRequest)
		return
	}

	session, err := e.repo.GetInterviewSessionWithDetails(r.Context(), sessionID, user.ID)
	if err != nil {
		slog.Error("Failed to get interview session", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
	})
}

func (e *SessionEndpoints) StartSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	result, err := e.engine.StartSession(r.Context(), user.ID, sessionID)
	if err != nil {
		slog.Error("Failed to start interview session", "error", err, "session_id", sessionID, "user_id", user.ID)
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)

	slog.Info("Interview session started", "session_id", sessionID, "user_id", user.ID)
}

func (e *SessionEndpoints) SaveAnswerHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	questionID := chi.URLParam(r, "questionID")

	var req SaveAnswerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	session, err := e.repo.GetInterviewSessionForUser(r.Context(), sessionID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	question, err := e.repo.GetQuestionBySession(r.Context(), questionID, sessionID)
	if err != nil {
		http.Error(w, "Failed to get question", http.StatusInternalServerError)
		return
	}
	if question == nil {
		http.Error(w, "Question not found", http.StatusNotFound)
		return
	}

	answer, err := e.repo.GetAnswerByQuestion(r.Context(), questionID)
	if err != nil {
		http.Error(w, "Failed to get answer", http.StatusInternalServerError)
		return
	}
	if answer == nil {
		answer = &models.Answer{
			QuestionID: questionID,
			Status:     models.AnswerStatusInProgress,
			StartedAt:  time.Now(),
		}
		if err := e.repo.CreateAnswer(r.Context(), answer); err != nil {
			slog.Error("Failed to create answer", "error", err, "question_id", questionID)
			http.Error(w, "Failed to save answer", http.StatusInternalServerError)
			return
		}
	}

	answer.Content = req.Content
	if req.Confidence != nil {
		answer.Confidence = *req.Confidence
	}
	if req.TranscriptSegments != nil {
		answer.TranscriptSegments = req.TranscriptSegments
	}
	if req.AudioMetadata != nil {
		answer.AudioMetadata = req.AudioMetadata
	}

	if err := e.repo.UpdateAnswer(r.Context(), answer); err != nil {
		slog.Error("Failed to update answer", "error", err, "answer_id", answer.ID)
		http.Error(w, "Failed to save answer", http.StatusInternalServerError)
		return
	}

	e.bus.PublishTranscription(events.TranscriptionEvent{
		SessionID:  sessionID,
		QuestionID: questionID,
		Text:       req.Content,
		Final:      req.Final,
		Timestamp:  time.Now(),
	})

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"answer": answer,
	})
}

func (e *SessionEndpoints) CompleteAnswerHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	questionID := chi.URLParam(r, "questionID")

	result, err := e.engine.CompleteAnswer(r.Context(), user.ID, sessionID, questionID)
	if err != nil {
		slog.Error("Failed to complete answer", "error", err, "session_id", sessionID, "question_id", questionID)
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(result)

	slog.Info("Answer completed", "session_id", sessionID, "question_id", questionID, "interview_complete", result.IsInterviewComplete)
}

func (e *SessionEndpoints) CancelSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.engine.CancelSession(r.Context(), user.ID, sessionID)
	if err != nil {
		slog.Error("Failed to cancel session", "error", err, "session_id", sessionID)
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"session": session,
		"message": "Session cancelled",
	})
}

func (e *SessionEndpoints) DeleteSessionHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	sessionID := chi.URLParam(r, "id")
	session, err := e.repo.GetInterviewSessionForUser(r.Context(), sessionID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return
	}

	if err := e.repo.DeleteInterviewSession(r.Context(), sessionID); err != nil {
		slog.Error("Failed to delete session", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to delete session", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Session deleted",
	})

	slog.Info("Interview session deleted", "session_id", sessionID, "user_id", user.ID)
}
