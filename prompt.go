package careerforge

import (
	"fmt"
	"strings"

	"github.com/careerforge/careerforge/models"
)

const basePrompt = `You are CareerForge, a career guidance assistant for students and early-career professionals.
Give practical, specific advice about careers, skills, job searching, interviews, resumes and professional growth.
Be encouraging but honest. Keep answers focused and use short lists where they help.
If a question is outside career development, answer briefly and steer back to the user's goals.`

const documentPrompt = `The user has shared a document (for example a resume, cover letter or job description).
Base your answer on its content, quote the parts you refer to, and suggest concrete improvements.`

// SystemPrompt builds the instructions sent with every chat turn.
func SystemPrompt(uc models.UserContext) string {
	var b strings.Builder
	b.WriteString(basePrompt)

	var about []string
	if name := strings.TrimSpace(uc.UserName); name != "" {
		about = append(about, fmt.Sprintf("Name: %s", name))
	}
	if role := strings.TrimSpace(uc.UserRole); role != "" {
		about = append(about, fmt.Sprintf("Role: %s", role))
	}
	if bio := strings.TrimSpace(uc.UserBio); bio != "" {
		about = append(about, fmt.Sprintf("Background: %s", bio))
	}
	if len(about) > 0 {
		b.WriteString("\n\nAbout the user:\n")
		for _, line := range about {
			b.WriteString("- ")
			b.WriteString(line)
			b.WriteString("\n")
		}
	}

	if uc.TaskType == models.TaskDocument {
		b.WriteString("\n\n")
		b.WriteString(documentPrompt)
	}
	return strings.TrimRight(b.String(), "\n")
}
