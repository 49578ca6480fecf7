package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hsakai/skillview/backend/models"
)

const (
	maxStrengths    = 3
	maxImprovements = 2
	maxPositions    = 2
)

// Insights is the free-text portion of an evaluation report
type Insights struct {
	Strengths    []string
	Improvements []string
	Feedback     string
	Positions    []string
}

// InsightSynthesizer produces strengths, improvements, feedback and position
// recommendations from the four category score blocks, with a deterministic
// fallback when generation or parsing fails.
type InsightSynthesizer struct {
	client Generator
}

func NewInsightSynthesizer(client Generator) *InsightSynthesizer {
	return &InsightSynthesizer{client: client}
}

// Synthesize never fails: any generation or parse error routes to the
// deterministic fallback.
func (s *InsightSynthesizer) Synthesize(ctx context.Context, technical models.TechnicalScores, softSkills models.SoftSkillScores, quality models.QualityScores, experience models.ExperienceScores, evidence []AnswerEvidence) Insights {
	prompt := s.buildPrompt(technical, softSkills, quality, experience, evidence)

	response, err := s.client.Generate(ctx, prompt)
	if err != nil {
		slog.Warn("Insight generation failed, using fallback", "error", err)
		return fallbackInsights(technical, softSkills)
	}

	// Unlike the category evaluators this path expects bare JSON; a fenced
	// response fails the parse and takes the fallback.
	var parsed struct {
		Strengths            []string `json:"strengths"`
		AreasForImprovement  []string `json:"areasForImprovement"`
		DetailedFeedback     string   `json:"detailedFeedback"`
		RecommendedPositions []string `json:"recommendedPositions"`
	}
	if err := json.Unmarshal([]byte(response), &parsed); err != nil {
		slog.Error("Failed to parse insight response, using fallback", "error", err, "response", truncate(response, 200))
		return fallbackInsights(technical, softSkills)
	}

	return Insights{
		Strengths:    truncateList(parsed.Strengths, maxStrengths),
		Improvements: truncateList(parsed.AreasForImprovement, maxImprovements),
		Feedback:     parsed.DetailedFeedback,
		Positions:    truncateList(parsed.RecommendedPositions, maxPositions),
	}
}

func (s *InsightSynthesizer) buildPrompt(technical models.TechnicalScores, softSkills models.SoftSkillScores, quality models.QualityScores, experience models.ExperienceScores, evidence []AnswerEvidence) string {
	var b strings.Builder
	b.WriteString("You are a senior technical interviewer writing the narrative section of an evaluation report.\n\n")
	fmt.Fprintf(&b, "Category scores:\n")
	fmt.Fprintf(&b, "- technical: frontend %.0f, backend %.0f, database %.0f, infrastructure %.0f, architecture %.0f\n",
		technical.Frontend, technical.Backend, technical.Database, technical.Infrastructure, technical.Architecture)
	fmt.Fprintf(&b, "- soft skills: communication %.0f, problem solving %.0f, teamwork %.0f, leadership %.0f, learning %.0f\n",
		softSkills.Communication, softSkills.ProblemSolving, softSkills.Teamwork, softSkills.Leadership, softSkills.Learning)
	fmt.Fprintf(&b, "- answer quality: accuracy %.0f, detail %.0f, clarity %.0f, structure %.0f\n",
		quality.Accuracy, quality.Detail, quality.Clarity, quality.Structure)
	fmt.Fprintf(&b, "- experience: project scale %.0f, responsibility %.0f, achievements %.0f, relevance %.0f\n",
		experience.ProjectScale, experience.Responsibility, experience.Achievements, experience.Relevance)

	b.WriteString("\nInterview answers:\n")
	for i, e := range evidence {
		fmt.Fprintf(&b, "Q%d: %s\nA%d: %s\n", i+1, e.Question, i+1, e.Answer)
	}

	fmt.Fprintf(&b, `
Respond with ONLY a JSON object, no code fences, of the form:
{"strengths": [up to %d short strings], "areasForImprovement": [up to %d short strings], "detailedFeedback": "one paragraph", "recommendedPositions": [up to %d position titles]}
`, maxStrengths, maxImprovements, maxPositions)
	return b.String()
}

// fallbackInsights derives deterministic insights from the score blocks alone
func fallbackInsights(technical models.TechnicalScores, softSkills models.SoftSkillScores) Insights {
	strengths := []string{"Technical fundamentals are solid"}
	positions := []string{}

	if technical.Average() > 80 {
		strengths = append(strengths, "High technical skill across the stack")
		positions = append(positions, "Senior Developer")
	}
	if softSkills.Average() > 80 {
		strengths = append(strengths, "Excellent communication")
		positions = append(positions, "Tech Lead")
	}
	strengths = append(strengths, "Shows strong motivation to keep learning")

	feedback := "The interview shows room to grow in technical depth. Focused practice on core topics and more concrete project stories would strengthen future interviews."
	if technical.Average() > 70 {
		feedback = "The interview shows a dependable technical base. Building on it with more structured answers and concrete outcomes would make the candidate stand out."
	}

	if len(positions) == 0 {
		positions = append(positions, "Software Engineer")
	}

	return Insights{
		Strengths: truncateList(strengths, maxStrengths),
		Improvements: []string{
			"Support answers with concrete numbers and outcomes",
			"Structure longer answers around situation, action and result",
		},
		Feedback:  feedback,
		Positions: truncateList(positions, maxPositions),
	}
}

func truncateList(values []string, limit int) []string {
	if len(values) <= limit {
		return values
	}
	return values[:limit]
}
