package model

// DeadlineType classifies a deadline record.
type DeadlineType string

const (
	TypeAssignment    DeadlineType = "ga"
	TypeExam          DeadlineType = "exam"
	TypeMilestone     DeadlineType = "milestone"
	TypePracticalExam DeadlineType = "oppe"
	TypeSubmission    DeadlineType = "kaggle"
	TypePeerReview    DeadlineType = "kaggle_review"
	TypeForm          DeadlineType = "form"
	TypeProject       DeadlineType = "project"
	TypeRemoteExam    DeadlineType = "roe"
	TypeQuiz          DeadlineType = "quiz"
	TypeEndTerm       DeadlineType = "endterm"
	TypeExtraActivity DeadlineType = "extra_activity"
	TypePracticeTest  DeadlineType = "bpt"
	TypeCustom        DeadlineType = "custom"
)

var typeLabels = map[DeadlineType]string{
	TypeAssignment:    "Graded Assignment",
	TypeExam:          "Exam",
	TypeMilestone:     "Milestone",
	TypePracticalExam: "OPPE",
	TypeSubmission:    "Kaggle",
	TypePeerReview:    "Peer Review",
	TypeForm:          "Form",
	TypeProject:       "Project",
	TypeRemoteExam:    "ROE",
	TypeQuiz:          "Quiz",
	TypeEndTerm:       "End Term",
	TypeExtraActivity: "Extra Activity",
	TypePracticeTest:  "BPT",
}

func (t DeadlineType) IsValid() bool {
	if t == TypeCustom {
		return true
	}
	_, ok := typeLabels[t]
	return ok
}

// Label is the display name; custom and unknown types read as "Task".
func (t DeadlineType) Label() string {
	if label, ok := typeLabels[t]; ok {
		return label
	}
	return "Task"
}

const (
	// HighestPriority is used for exams and end terms, LowestPriority for routine assignments.
	HighestPriority = 1
	LowestPriority  = 5
	CustomPriority  = 3
)

// CustomIDPrefix starts every user-created deadline id.
const CustomIDPrefix = "custom-"

// Deadline is a single dated item on the dashboard. Catalog records are never mutated.
type Deadline struct {
	ID          string       `json:"id"`
	Title       string       `json:"title"`
	Subject     Subject      `json:"subject"`
	Type        DeadlineType `json:"type"`
	Date        Date         `json:"date"`
	Description string       `json:"description,omitempty"`
	Priority    int          `json:"priority"`
	IsCustom    bool         `json:"isCustom,omitempty"`
}

// AppliesTo reports whether the record belongs to subject, either directly or via ALL.
func (d Deadline) AppliesTo(subject Subject) bool {
	return d.Subject == SubjectAll || d.Subject == subject
}
