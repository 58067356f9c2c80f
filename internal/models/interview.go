package models

type InterviewType string

const (
	InterviewTechnical    InterviewType = "Technical"
	InterviewBehavioral   InterviewType = "Behavioral"
	InterviewSystemDesign InterviewType = "System Design"
)

func (t InterviewType) Valid() bool {
	switch t {
	case InterviewTechnical, InterviewBehavioral, InterviewSystemDesign:
		return true
	}
	return false
}

// InterviewConfig is the form payload a candidate submits to start a mock
// interview. It is immutable once a session has been started with it.
type InterviewConfig struct {
	Role            string        `json:"role"`
	Company         string        `json:"company"`
	InterviewType   InterviewType `json:"interview_type"`
	DurationMinutes int           `json:"duration"`
	Resume          string        `json:"resume"`
	JobDescription  string        `json:"job_description"`
	AdditionalNotes string        `json:"additional_notes,omitempty"`
	UserID          string        `json:"user_id"`
}
