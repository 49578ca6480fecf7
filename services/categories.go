package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand"
	"strings"

	"github.com/hsakai/skillview/backend/models"
)

// AnswerEvidence is one (question, answer, confidence) triple fed to the
// category evaluators.
type AnswerEvidence struct {
	Question   string
	Answer     string
	Confidence float64
}

const (
	fallbackBase      = 60.0
	fallbackPerHit    = 8.0
	fallbackCap       = 95.0
	defaultTechnical  = 70.0
	defaultSoftSkill  = 70.0
	defaultQuality    = 70.0
	defaultExperience = 65.0
)

// Keyword lists for the deterministic fallback scorers
var (
	frontendKeywords       = []string{"react", "vue", "angular", "javascript", "typescript", "html", "css"}
	backendKeywords        = []string{"go", "java", "python", "node", "api", "rest", "grpc", "microservice"}
	databaseKeywords       = []string{"sql", "postgres", "mysql", "redis", "mongodb", "index", "transaction"}
	infrastructureKeywords = []string{"aws", "gcp", "azure", "docker", "kubernetes", "terraform", "ci/cd", "linux"}
	architectureKeywords   = []string{"architecture", "design", "scalab", "pattern", "domain", "distributed"}
	experienceKeywords     = []string{"experience", "project", "led", "team", "responsib", "launch", "deliver"}
)

// evaluateTechnical scores the five technical sub-categories via generation,
// falling back to keyword heuristics on any generation or parse failure.
func (o *EvaluationOrchestrator) evaluateTechnical(ctx context.Context, profileJSON string, evidence []AnswerEvidence) models.TechnicalScores {
	prompt := buildCategoryPrompt("technical skill", profileJSON, evidence,
		[]string{"frontend", "backend", "database", "infrastructure", "architecture"},
		"Rate the candidate's demonstrated depth per area.")

	scores, err := o.generateScores(ctx, prompt,
		[]string{"frontend", "backend", "database", "infrastructure", "architecture"}, defaultTechnical)
	if err != nil {
		slog.Warn("Technical evaluation fell back to keyword heuristic", "error", err)
		text := combinedAnswerText(evidence)
		return models.TechnicalScores{
			Frontend:       keywordScore(text, frontendKeywords),
			Backend:        keywordScore(text, backendKeywords),
			Database:       keywordScore(text, databaseKeywords),
			Infrastructure: keywordScore(text, infrastructureKeywords),
			Architecture:   keywordScore(text, architectureKeywords),
		}
	}

	return models.TechnicalScores{
		Frontend:       scores["frontend"],
		Backend:        scores["backend"],
		Database:       scores["database"],
		Infrastructure: scores["infrastructure"],
		Architecture:   scores["architecture"],
	}
}

// evaluateSoftSkills scores the five soft-skill sub-categories; its fallback
// derives a base from average answer length and confidence instead of
// keywords.
func (o *EvaluationOrchestrator) evaluateSoftSkills(ctx context.Context, profileJSON string, evidence []AnswerEvidence) models.SoftSkillScores {
	prompt := buildCategoryPrompt("soft skill", profileJSON, evidence,
		[]string{"communication", "problemSolving", "teamwork", "leadership", "learning"},
		"Rate how the candidate communicates, reasons and collaborates.")

	scores, err := o.generateScores(ctx, prompt,
		[]string{"communication", "problemSolving", "teamwork", "leadership", "learning"}, defaultSoftSkill)
	if err != nil {
		slog.Warn("Soft-skill evaluation fell back to length heuristic", "error", err)
		base := fallbackBase + averageAnswerLength(evidence)/100 + averageConfidence(evidence)*20
		return models.SoftSkillScores{
			Communication:  clampScore(base + jitter(5)),
			ProblemSolving: clampScore(base + jitter(5)),
			Teamwork:       clampScore(base + jitter(5)),
			Leadership:     clampScore(base - 10 + jitter(5)),
			Learning:       clampScore(base + jitter(5)),
		}
	}

	return models.SoftSkillScores{
		Communication:  scores["communication"],
		ProblemSolving: scores["problemSolving"],
		Teamwork:       scores["teamwork"],
		Leadership:     scores["leadership"],
		Learning:       scores["learning"],
	}
}

// evaluateQuality scores the four answer-quality sub-categories
func (o *EvaluationOrchestrator) evaluateQuality(ctx context.Context, profileJSON string, evidence []AnswerEvidence) models.QualityScores {
	prompt := buildCategoryPrompt("answer quality", profileJSON, evidence,
		[]string{"accuracy", "detail", "clarity", "structure"},
		"Rate the factual accuracy, depth, clarity and structure of the answers themselves.")

	scores, err := o.generateScores(ctx, prompt,
		[]string{"accuracy", "detail", "clarity", "structure"}, defaultQuality)
	if err != nil {
		slog.Warn("Quality evaluation fell back to confidence heuristic", "error", err)
		base := 65 + averageConfidence(evidence)*25 + min(15, averageAnswerLength(evidence)/50)
		floor := func(v float64) float64 {
			if v < 50 {
				return 50
			}
			return clampScore(v)
		}
		return models.QualityScores{
			Accuracy:  floor(base + jitter(5)),
			Detail:    floor(base + jitter(5)),
			Clarity:   floor(base + jitter(5)),
			Structure: floor(base + jitter(5)),
		}
	}

	return models.QualityScores{
		Accuracy:  scores["accuracy"],
		Detail:    scores["detail"],
		Clarity:   scores["clarity"],
		Structure: scores["structure"],
	}
}

// evaluateExperience scores the four experience sub-categories
func (o *EvaluationOrchestrator) evaluateExperience(ctx context.Context, profileJSON string, evidence []AnswerEvidence) models.ExperienceScores {
	prompt := buildCategoryPrompt("practical experience", profileJSON, evidence,
		[]string{"projectScale", "responsibility", "achievements", "relevance"},
		"Rate the scale, ownership, results and relevance of the experience described.")

	scores, err := o.generateScores(ctx, prompt,
		[]string{"projectScale", "responsibility", "achievements", "relevance"}, defaultExperience)
	if err != nil {
		slog.Warn("Experience evaluation fell back to keyword heuristic", "error", err)
		text := combinedAnswerText(evidence)
		base := keywordScore(text, experienceKeywords)
		return models.ExperienceScores{
			ProjectScale:   clampScore(base + jitter(15)),
			Responsibility: clampScore(base + jitter(10)),
			Achievements:   clampScore(base + jitter(7)),
			Relevance:      clampScore(base + jitter(10)),
		}
	}

	return models.ExperienceScores{
		ProjectScale:   scores["projectScale"],
		Responsibility: scores["responsibility"],
		Achievements:   scores["achievements"],
		Relevance:      scores["relevance"],
	}
}

// generateScores runs one category generation call and parses the JSON
// object of sub-scores, stripping any markdown code fence, clamping every
// value into [0,100] and substituting the default for missing fields.
func (o *EvaluationOrchestrator) generateScores(ctx context.Context, prompt string, keys []string, defaultScore float64) (map[string]float64, error) {
	response, err := o.client.Generate(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var raw map[string]json.Number
	cleaned := stripCodeFence(response)
	if err := json.Unmarshal([]byte(cleaned), &raw); err != nil {
		slog.Error("Failed to parse category scores", "error", err, "response", truncate(response, 200))
		return nil, fmt.Errorf("%w: unparsable category response: %v", ErrGeneration, err)
	}

	scores := make(map[string]float64, len(keys))
	for _, key := range keys {
		value, ok := raw[key]
		if !ok {
			scores[key] = defaultScore
			continue
		}
		parsed, err := value.Float64()
		if err != nil {
			scores[key] = defaultScore
			continue
		}
		scores[key] = clampScore(parsed)
	}
	return scores, nil
}

func buildCategoryPrompt(category string, profileJSON string, evidence []AnswerEvidence, keys []string, guidance string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are a senior technical interviewer evaluating a mock interview.\n\n")
	fmt.Fprintf(&b, "Candidate skill profile (JSON):\n%s\n\n", profileJSON)
	b.WriteString("Interview answers:\n")
	for i, e := range evidence {
		fmt.Fprintf(&b, "Q%d: %s\nA%d (confidence %.2f): %s\n", i+1, e.Question, i+1, e.Confidence, e.Answer)
	}
	fmt.Fprintf(&b, "\nEvaluate the candidate's %s. %s\n", category, guidance)
	fmt.Fprintf(&b, "Respond with ONLY a JSON object containing the keys %s, each an integer score from 0 to 100. No prose.\n",
		strings.Join(keys, ", "))
	return b.String()
}

// keywordScore starts from the fallback base and adds points per matched
// keyword (case-insensitive substring), capped.
func keywordScore(text string, keywords []string) float64 {
	score := fallbackBase
	lowered := strings.ToLower(text)
	for _, keyword := range keywords {
		if strings.Contains(lowered, keyword) {
			score += fallbackPerHit
		}
	}
	if score > fallbackCap {
		return fallbackCap
	}
	return score
}

func combinedAnswerText(evidence []AnswerEvidence) string {
	parts := make([]string, 0, len(evidence))
	for _, e := range evidence {
		parts = append(parts, e.Answer)
	}
	return strings.Join(parts, "\n")
}

func averageAnswerLength(evidence []AnswerEvidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	total := 0
	for _, e := range evidence {
		total += len(e.Answer)
	}
	return float64(total) / float64(len(evidence))
}

func averageConfidence(evidence []AnswerEvidence) float64 {
	if len(evidence) == 0 {
		return 0
	}
	total := 0.0
	for _, e := range evidence {
		total += e.Confidence
	}
	return total / float64(len(evidence))
}

// jitter returns a uniform random value in [-magnitude, magnitude]
func jitter(magnitude float64) float64 {
	return (rand.Float64()*2 - 1) * magnitude
}

func clampScore(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 100 {
		return 100
	}
	return score
}

// stripCodeFence removes a surrounding markdown code fence if present
func stripCodeFence(response string) string {
	trimmed := strings.TrimSpace(response)
	if !strings.HasPrefix(trimmed, "```") {
		return trimmed
	}
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(strings.TrimSpace(trimmed), "```")
	return strings.TrimSpace(trimmed)
}

func truncate(s string, limit int) string {
	if len(s) <= limit {
		return s
	}
	return s[:limit] + "..."
}
