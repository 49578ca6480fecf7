package services

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/hsakai/skillview/backend/models"
	"github.com/hsakai/skillview/backend/repository"
)

type ProfileEndpoints struct {
	repo *repository.GORMRepository
}

type ProfileRequest struct {
	Title   string         `json:"title"`
	Summary string         `json:"summary"`
	Skills  []models.Skill `json:"skills"`
	RawText string         `json:"raw_text"`
}

func NewProfileEndpoints(repo *repository.GORMRepository) *ProfileEndpoints {
	return &ProfileEndpoints{repo: repo}
}

func (e *ProfileEndpoints) RegisterRoutes(r chi.Router) {
	r.Route("/profiles", func(r chi.Router) {
		r.Post("/", e.CreateProfileHandler)
		r.Get("/", e.GetProfilesHandler)
		r.Get("/{id}", e.GetProfileHandler)
		r.Put("/{id}", e.UpdateProfileHandler)
		r.Delete("/{id}", e.DeleteProfileHandler)
	})
}

func (e *ProfileEndpoints) CreateProfileHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	if req.Title == "" {
		http.Error(w, "Title is required", http.StatusBadRequest)
		return
	}

	profile := models.SkillProfile{
		UserID:  user.ID,
		Title:   req.Title,
		Summary: req.Summary,
		Skills:  req.Skills,
		RawText: req.RawText,
	}

	if err := e.repo.CreateSkillProfile(r.Context(), &profile); err != nil {
		slog.Error("Failed to create skill profile", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to create profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(map[string]interface{}{
		"profile": profile,
		"message": "Profile created successfully",
	})

	slog.Info("Skill profile created", "profile_id", profile.ID, "user_id", user.ID)
}

func (e *ProfileEndpoints) GetProfilesHandler(w http.ResponseWriter, r *http.Request) {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return
	}

	profiles, err := e.repo.GetSkillProfiles(r.Context(), user.ID)
	if err != nil {
		slog.Error("Failed to get skill profiles", "error", err, "user_id", user.ID)
		http.Error(w, "Failed to get profiles", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"profiles": profiles,
		"count":    len(profiles),
	})
}

// getOwnedProfile loads a profile scoped to the authenticated user
func (e *ProfileEndpoints) getOwnedProfile(w http.ResponseWriter, r *http.Request) *models.SkillProfile {
	user, ok := r.Context().Value("user").(*models.User)
	if !ok {
		http.Error(w, "User not found in context", http.StatusInternalServerError)
		return nil
	}

	profileID := chi.URLParam(r, "id")
	profile, err := e.repo.GetSkillProfileByID(r.Context(), profileID, user.ID)
	if err != nil {
		slog.Error("Failed to get skill profile", "error", err, "profile_id", profileID)
		http.Error(w, "Failed to get profile", http.StatusInternalServerError)
		return nil
	}
	if profile == nil {
		http.Error(w, "Profile not found", http.StatusNotFound)
		return nil
	}

	return profile
}

func (e *ProfileEndpoints) GetProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile := e.getOwnedProfile(w, r)
	if profile == nil {
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"profile": profile,
	})
}

func (e *ProfileEndpoints) UpdateProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile := e.getOwnedProfile(w, r)
	if profile == nil {
		return
	}

	var req ProfileRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if req.Title != "" {
		profile.Title = req.Title
	}
	if req.Summary != "" {
		profile.Summary = req.Summary
	}
	if req.Skills != nil {
		profile.Skills = req.Skills
	}
	if req.RawText != "" {
		profile.RawText = req.RawText
	}

	if err := e.repo.UpdateSkillProfile(r.Context(), profile); err != nil {
		slog.Error("Failed to update skill profile", "error", err, "profile_id", profile.ID)
		http.Error(w, "Failed to update profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"profile": profile,
		"message": "Profile updated successfully",
	})
}

func (e *ProfileEndpoints) DeleteProfileHandler(w http.ResponseWriter, r *http.Request) {
	profile := e.getOwnedProfile(w, r)
	if profile == nil {
		return
	}

	if err := e.repo.DeleteSkillProfile(r.Context(), profile.ID); err != nil {
		slog.Error("Failed to delete skill profile", "error", err, "profile_id", profile.ID)
		http.Error(w, "Failed to delete profile", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{
		"message": "Profile deleted successfully",
	})

	slog.Info("Skill profile deleted", "profile_id", profile.ID)
}
