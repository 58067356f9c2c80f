package interview

import (
	"fmt"
	"strings"

	"github.com/prepview/prepview/internal/models"
	"github.com/prepview/prepview/internal/transcript"
)

// Summary produces the one-paragraph session summary stored with the
// interview record. It is text-template based; no model calls.
func Summary(entries []transcript.Entry, cfg models.InterviewConfig, elapsedSeconds int) string {
	minutes := elapsedSeconds / 60
	if minutes < 1 {
		minutes = 1
	}

	base := fmt.Sprintf("Completed a %d minute %s interview for the %s position at %s.",
		minutes, strings.ToLower(string(cfg.InterviewType)), cfg.Role, cfg.Company)

	userTurns := 0
	for _, e := range entries {
		if e.Speaker == transcript.SpeakerUser {
			userTurns++
		}
	}

	var detail string
	switch cfg.InterviewType {
	case models.InterviewTechnical:
		detail = "The session covered technical questions drawn from the role requirements."
	case models.InterviewBehavioral:
		detail = "The session explored past experiences and situational responses."
	case models.InterviewSystemDesign:
		detail = "The session worked through an open-ended system design discussion."
	}

	parts := []string{base}
	if detail != "" {
		parts = append(parts, detail)
	}
	if userTurns > 0 {
		parts = append(parts, fmt.Sprintf("The candidate responded %d times.", userTurns))
	} else {
		parts = append(parts, "No candidate responses were recorded.")
	}
	return strings.Join(parts, " ")
}
