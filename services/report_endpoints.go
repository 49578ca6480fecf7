package services

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsakai/skillview/backend/models"
	"github.com/hsakai/skillview/backend/repository"
)

type ReportEndpoints struct {
	repo      *repository.GORMRepository
	evaluator *EvaluationOrchestrator
}

func NewReportEndpoints(repo *repository.GORMRepository, evaluator *EvaluationOrchestrator) *ReportEndpoints {
	return &ReportEndpoints{
		repo:      repo,
		evaluator: evaluator,
	}
}

func (e *ReportEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/sessions/{id}/reports", func(r chi.Router) {
		r.Post("/", e.GenerateReportHandler)
		r.Get("/", e.GetReportsBySessionHandler)
	})
	r.Route("/reports", func(r chi.Router) {
		r.Get("/{id}", e.GetReportHandler)
		r.Get("/{id}/download", e.DownloadReportHandler)
	})
}

// ownedSession verifies the session belongs to the authenticated user
func (e *ReportEndpoints) ownedSession(w http.ResponseWriter, r *http.Request, sessionID string) *models.InterviewSession {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return nil
	}

	session, err := e.repo.GetInterviewSessionForUser(r.Context(), sessionID, user.ID)
	if err != nil {
		http.Error(w, "Failed to get session", http.StatusInternalServerError)
		return nil
	}
	if session == nil {
		http.Error(w, "Session not found", http.StatusNotFound)
		return nil
	}

	return session
}

func (e *ReportEndpoints) GenerateReportHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if e.ownedSession(w, r, sessionID) == nil {
		return
	}

	report, err := e.evaluator.GenerateEvaluationReport(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to generate evaluation report", "error", err, "session_id", sessionID)
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"report":  report,
		"message": "Evaluation report generated",
	})

	slog.Info("Evaluation report generated", "report_id", report.ID, "session_id", sessionID)
}

func (e *ReportEndpoints) GetReportsBySessionHandler(w http.ResponseWriter, r *http.Request) {
	sessionID := chi.URLParam(r, "id")
	if e.ownedSession(w, r, sessionID) == nil {
		return
	}

	reports, err := e.evaluator.GetReportsBySession(r.Context(), sessionID)
	if err != nil {
		slog.Error("Failed to get evaluation reports", "error", err, "session_id", sessionID)
		http.Error(w, "Failed to get reports", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"reports": reports,
		"count":   len(reports),
	})
}

// ownedReport fetches the report and verifies ownership through its session
func (e *ReportEndpoints) ownedReport(w http.ResponseWriter, r *http.Request, reportID string) *models.EvaluationReport {
	report, err := e.evaluator.GetEvaluationReport(r.Context(), reportID)
	if err != nil {
		http.Error(w, err.Error(), HTTPStatus(err))
		return nil
	}

	if e.ownedSession(w, r, report.SessionID) == nil {
		return nil
	}

	return report
}

func (e *ReportEndpoints) GetReportHandler(w http.ResponseWriter, r *http.Request) {
	report := e.ownedReport(w, r, chi.URLParam(r, "id"))
	if report == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"report": report,
	})
}

func (e *ReportEndpoints) DownloadReportHandler(w http.ResponseWriter, r *http.Request) {
	report := e.ownedReport(w, r, chi.URLParam(r, "id"))
	if report == nil {
		return
	}

	markup, filename, err := e.evaluator.RenderReport(r.Context(), report.ID)
	if err != nil {
		slog.Error("Failed to render evaluation report", "error", err, "report_id", report.ID)
		http.Error(w, err.Error(), HTTPStatus(err))
		return
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write([]byte(markup))
}
