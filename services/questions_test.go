package services

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hsakai/skillview/backend/models"
)

func testProfile() *models.SkillProfile {
	return &models.SkillProfile{
		ID:      "profile-1",
		Title:   "Backend Developer",
		Summary: "Four years of Go services.",
		Skills:  []models.Skill{{Name: "Go", Category: "backend", Level: "advanced", Years: 4}},
	}
}

func TestGenerateQuestionsFromResponse(t *testing.T) {
	generator := NewQuestionGenerator(&stubGenerator{response: "```json\n" + `[
		{"type": "self_introduction", "content": "Introduce yourself.", "difficulty": "easy"},
		{"type": "motivation", "content": "Why this role?", "difficulty": "easy"},
		{"type": "technical", "content": "How does Go's scheduler work?", "difficulty": "hard", "category": "Go"},
		{"type": "reverse", "content": "Any questions for me?", "difficulty": "easy"}
	]` + "\n```"})

	questions := generator.GenerateQuestions(context.Background(), testProfile(), 1)
	require.Len(t, questions, 4)

	// Orders are contiguous and 1-based
	for i, q := range questions {
		assert.Equal(t, i+1, q.Order)
	}
	assert.Equal(t, models.QuestionTypeSelfIntroduction, questions[0].Type)
	assert.Equal(t, models.QuestionTypeReverse, questions[3].Type)
	assert.Equal(t, "Go", questions[2].Category)
}

func TestGenerateQuestionsFiltersInvalidEntries(t *testing.T) {
	generator := NewQuestionGenerator(&stubGenerator{response: `[
		{"type": "self_introduction", "content": "Introduce yourself."},
		{"type": "riddle", "content": "An unsupported type."},
		{"type": "technical", "content": "   "},
		{"type": "reverse", "content": "Any questions?"}
	]`})

	questions := generator.GenerateQuestions(context.Background(), testProfile(), 1)
	require.Len(t, questions, 2)
	assert.Equal(t, models.QuestionTypeSelfIntroduction, questions[0].Type)
	assert.Equal(t, 1, questions[0].Order)
	assert.Equal(t, models.QuestionTypeReverse, questions[1].Type)
	assert.Equal(t, 2, questions[1].Order)
}

func TestGenerateQuestionsFallsBackToDefaultSet(t *testing.T) {
	tests := []struct {
		name      string
		generator Generator
	}{
		{"generator error", &stubGenerator{err: errors.New("unavailable")}},
		{"unparsable response", &stubGenerator{response: "not json"}},
		{"empty array", &stubGenerator{response: "[]"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator := NewQuestionGenerator(tt.generator)
			questions := generator.GenerateQuestions(context.Background(), testProfile(), 2)

			require.Len(t, questions, 5)
			assert.Equal(t, models.QuestionTypeSelfIntroduction, questions[0].Type)
			assert.Equal(t, models.QuestionTypeMotivation, questions[1].Type)
			assert.Equal(t, models.QuestionTypeTechnical, questions[2].Type)
			assert.Contains(t, questions[2].Content, "Go")
			assert.Equal(t, models.QuestionTypeReverse, questions[4].Type)
			for i, q := range questions {
				assert.Equal(t, i+1, q.Order)
			}
		})
	}
}
