package services

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/hsakai/skillview/backend/models"
)

// HTMLReportRenderer is the default ReportRenderer: a single self-contained
// HTML page suitable for download or PDF conversion downstream.
type HTMLReportRenderer struct {
	tmpl *template.Template
}

var reportTemplate = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"><title>Interview Evaluation Report</title></head>
<body>
<h1>Interview Evaluation Report</h1>
<p>Overall score: <strong>{{printf "%.1f" .OverallScore}}</strong> (grade {{.Grade}})</p>

<h2>Technical</h2>
<ul>
<li>Frontend: {{printf "%.0f" .TechnicalScores.Frontend}}</li>
<li>Backend: {{printf "%.0f" .TechnicalScores.Backend}}</li>
<li>Database: {{printf "%.0f" .TechnicalScores.Database}}</li>
<li>Infrastructure: {{printf "%.0f" .TechnicalScores.Infrastructure}}</li>
<li>Architecture: {{printf "%.0f" .TechnicalScores.Architecture}}</li>
</ul>

<h2>Soft skills</h2>
<ul>
<li>Communication: {{printf "%.0f" .SoftSkillScores.Communication}}</li>
<li>Problem solving: {{printf "%.0f" .SoftSkillScores.ProblemSolving}}</li>
<li>Teamwork: {{printf "%.0f" .SoftSkillScores.Teamwork}}</li>
<li>Leadership: {{printf "%.0f" .SoftSkillScores.Leadership}}</li>
<li>Learning: {{printf "%.0f" .SoftSkillScores.Learning}}</li>
</ul>

<h2>Answer quality</h2>
<ul>
<li>Accuracy: {{printf "%.0f" .QualityScores.Accuracy}}</li>
<li>Detail: {{printf "%.0f" .QualityScores.Detail}}</li>
<li>Clarity: {{printf "%.0f" .QualityScores.Clarity}}</li>
<li>Structure: {{printf "%.0f" .QualityScores.Structure}}</li>
</ul>

<h2>Experience</h2>
<ul>
<li>Project scale: {{printf "%.0f" .ExperienceScores.ProjectScale}}</li>
<li>Responsibility: {{printf "%.0f" .ExperienceScores.Responsibility}}</li>
<li>Achievements: {{printf "%.0f" .ExperienceScores.Achievements}}</li>
<li>Relevance: {{printf "%.0f" .ExperienceScores.Relevance}}</li>
</ul>

<h2>Strengths</h2>
<ul>{{range .Strengths}}<li>{{.}}</li>{{end}}</ul>

<h2>Areas for improvement</h2>
<ul>{{range .Improvements}}<li>{{.}}</li>{{end}}</ul>

<h2>Feedback</h2>
<p>{{.Feedback}}</p>

<h2>Recommended positions</h2>
<ul>{{range .RecommendedPositions}}<li>{{.}}</li>{{end}}</ul>

<p><small>Generated by {{.Metadata.ModelUsed}} at {{.Metadata.AnalysisTimestamp.Format "2006-01-02 15:04"}}</small></p>
</body>
</html>
`))

func NewHTMLReportRenderer() *HTMLReportRenderer {
	return &HTMLReportRenderer{tmpl: reportTemplate}
}

func (r *HTMLReportRenderer) Render(report *models.EvaluationReport) (string, string, error) {
	var b strings.Builder
	if err := r.tmpl.Execute(&b, report); err != nil {
		return "", "", err
	}
	filename := fmt.Sprintf("evaluation-report-%s.html", report.ID)
	return b.String(), filename, nil
}
