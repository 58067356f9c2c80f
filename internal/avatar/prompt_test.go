package avatar

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepview/prepview/internal/models"
)

func TestGreeting_NamesCompanyAndRole(t *testing.T) {
	g := Greeting(testConfig())
	assert.Contains(t, g, "your interviewer from Acme")
	assert.Contains(t, g, "Backend Engineer position")
}

func TestInterviewContext_TruncatesCandidateMaterials(t *testing.T) {
	cfg := testConfig()
	cfg.Resume = strings.Repeat("r", 2000)
	cfg.JobDescription = strings.Repeat("j", 2000)

	ctx := InterviewContext(cfg)
	assert.Contains(t, ctx, "Resume: "+strings.Repeat("r", contextCharBudget)+"\n")
	assert.NotContains(t, ctx, strings.Repeat("r", contextCharBudget+1))
	assert.Contains(t, ctx, "Job Description: "+strings.Repeat("j", contextCharBudget)+"\n")
}

func TestInterviewContext_SelectsInstructionsByType(t *testing.T) {
	cfg := testConfig()

	cfg.InterviewType = models.InterviewTechnical
	assert.Contains(t, InterviewContext(cfg), "TECHNICAL INTERVIEW FOCUS")

	cfg.InterviewType = models.InterviewBehavioral
	assert.Contains(t, InterviewContext(cfg), "STAR METHOD")

	cfg.InterviewType = models.InterviewSystemDesign
	assert.Contains(t, InterviewContext(cfg), "SYSTEM DESIGN INTERVIEW FOCUS")

	// unknown types fall back to technical
	cfg.InterviewType = models.InterviewType("Casual")
	assert.Contains(t, InterviewContext(cfg), "TECHNICAL INTERVIEW FOCUS")
}

func TestInterviewContext_CarriesFabricationRules(t *testing.T) {
	ctx := InterviewContext(testConfig())
	assert.Contains(t, ctx, "NO FABRICATION")
	assert.Contains(t, ctx, "Never mention you are an AI")
	assert.Contains(t, ctx, "This is a 30-minute interview.")
}

func TestInterviewContext_OmitsEmptyNotes(t *testing.T) {
	cfg := testConfig()
	assert.NotContains(t, InterviewContext(cfg), "Additional Notes:")

	cfg.AdditionalNotes = "prefers pair programming"
	assert.Contains(t, InterviewContext(cfg), "Additional Notes: prefers pair programming")
}
