package interview

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/transcript"
)

func TestSummaryIncludesDurationRoleAndCompany(t *testing.T) {
	cfg := testConfig()
	s := Summary(nil, cfg, 25*60)

	assert.Contains(t, s, "25 minute technical interview")
	assert.Contains(t, s, "Backend Engineer position at Acme")
	assert.Contains(t, s, "No candidate responses were recorded.")
}

func TestSummaryCountsUserTurns(t *testing.T) {
	entries := []transcript.Entry{
		{Speaker: transcript.SpeakerAgent, Content: "hello"},
		{Speaker: transcript.SpeakerUser, Content: "hi"},
		{Speaker: transcript.SpeakerUser, Content: "my answer"},
	}
	s := Summary(entries, testConfig(), 600)

	assert.Contains(t, s, "The candidate responded 2 times.")
}

func TestSummaryRoundsSubMinuteSessionsUp(t *testing.T) {
	s := Summary(nil, testConfig(), 30)
	assert.Contains(t, s, "1 minute")
}

func TestSummaryPerTypeDetail(t *testing.T) {
	cfg := testConfig()

	cfg.InterviewType = models.InterviewBehavioral
	assert.Contains(t, Summary(nil, cfg, 60), "past experiences")

	cfg.InterviewType = models.InterviewSystemDesign
	assert.Contains(t, Summary(nil, cfg, 60), "system design discussion")
}
