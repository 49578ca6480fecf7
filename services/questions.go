package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hsakai/skillview/backend/models"
)

const defaultTechnicalQuestionCount = 3

// QuestionGenerator builds the ordered question set of a new session from
// the candidate's skill profile. The set always opens with a
// self-introduction, follows with motivation and technical questions, and
// closes with a reverse question.
type QuestionGenerator struct {
	client Generator
}

func NewQuestionGenerator(client Generator) *QuestionGenerator {
	return &QuestionGenerator{client: client}
}

// GenerateQuestions returns a contiguous 1-based ordered question set for
// the profile. Generation failures fall back to a fixed default set so a
// session can always be created.
func (g *QuestionGenerator) GenerateQuestions(ctx context.Context, profile *models.SkillProfile, technicalCount int) []models.Question {
	if technicalCount <= 0 {
		technicalCount = defaultTechnicalQuestionCount
	}

	generated, err := g.generate(ctx, profile, technicalCount)
	if err != nil {
		slog.Warn("Question generation failed, using default set", "profile_id", profile.ID, "error", err)
		generated = defaultQuestionSet(profile)
	}

	for i := range generated {
		generated[i].Order = i + 1
	}
	return generated
}

func (g *QuestionGenerator) generate(ctx context.Context, profile *models.SkillProfile, technicalCount int) ([]models.Question, error) {
	skills, err := json.Marshal(profile.Skills)
	if err != nil {
		return nil, err
	}

	var b strings.Builder
	b.WriteString("You are a technical interviewer preparing a mock interview.\n\n")
	fmt.Fprintf(&b, "Candidate summary: %s\nCandidate skills (JSON): %s\n\n", profile.Summary, string(skills))
	fmt.Fprintf(&b, `Produce the interview question list as a JSON array. Requirements:
- first question has type "self_introduction"
- second has type "motivation"
- then %d questions of type "technical", each probing one of the candidate's skills
- last question has type "reverse" (inviting the candidate's own questions)
Each element: {"type": "...", "content": "...", "difficulty": "easy|medium|hard", "category": "skill area"}.
Respond with ONLY the JSON array.
`, technicalCount)

	response, err := g.client.Generate(ctx, b.String())
	if err != nil {
		return nil, err
	}

	var parsed []struct {
		Type       string `json:"type"`
		Content    string `json:"content"`
		Difficulty string `json:"difficulty"`
		Category   string `json:"category"`
	}
	if err := json.Unmarshal([]byte(stripCodeFence(response)), &parsed); err != nil {
		slog.Error("Failed to parse generated questions", "error", err, "response", truncate(response, 200))
		return nil, fmt.Errorf("%w: unparsable question response: %v", ErrGeneration, err)
	}
	if len(parsed) == 0 {
		return nil, fmt.Errorf("%w: empty question set", ErrGeneration)
	}

	questions := make([]models.Question, 0, len(parsed))
	for _, q := range parsed {
		if !validQuestionType(q.Type) || strings.TrimSpace(q.Content) == "" {
			continue
		}
		questions = append(questions, models.Question{
			Type:       q.Type,
			Content:    q.Content,
			Difficulty: q.Difficulty,
			Category:   q.Category,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%w: no usable questions in response", ErrGeneration)
	}
	return questions, nil
}

func validQuestionType(questionType string) bool {
	switch questionType {
	case models.QuestionTypeSelfIntroduction, models.QuestionTypeMotivation, models.QuestionTypeTechnical, models.QuestionTypeReverse:
		return true
	}
	return false
}

// defaultQuestionSet is the fixed fallback when generation is unavailable
func defaultQuestionSet(profile *models.SkillProfile) []models.Question {
	technicalTopic := "a technology you know well"
	if len(profile.Skills) > 0 {
		technicalTopic = profile.Skills[0].Name
	}

	return []models.Question{
		{
			Type:       models.QuestionTypeSelfIntroduction,
			Content:    "Please introduce yourself and walk through your background.",
			Difficulty: "easy",
		},
		{
			Type:       models.QuestionTypeMotivation,
			Content:    "What motivates you in your work, and what kind of role are you looking for?",
			Difficulty: "easy",
		},
		{
			Type:       models.QuestionTypeTechnical,
			Content:    fmt.Sprintf("Tell me about a project where you used %s. What was your role and what problems did you solve?", technicalTopic),
			Difficulty: "medium",
			Category:   technicalTopic,
		},
		{
			Type:       models.QuestionTypeTechnical,
			Content:    "Describe the most difficult technical problem you have debugged. How did you approach it?",
			Difficulty: "medium",
		},
		{
			Type:       models.QuestionTypeReverse,
			Content:    "Do you have any questions for me about the team or the role?",
			Difficulty: "easy",
		},
	}
}
