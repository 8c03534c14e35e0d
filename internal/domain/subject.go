package domain

import "fmt"

// Subject identifies one of the four exam curriculum areas the corpus is
// partitioned by.
type Subject string

const (
	SubjectEngineeringEconomics      Subject = "engineering-economics"
	SubjectElectromechanicalPractice Subject = "electromechanical-practice"
	SubjectLawAndRegulation          Subject = "law-and-regulation"
	SubjectProjectManagement         Subject = "project-management"
)

// Subjects lists every valid subject in a fixed order.
func Subjects() []Subject {
	return []Subject{
		SubjectEngineeringEconomics,
		SubjectElectromechanicalPractice,
		SubjectLawAndRegulation,
		SubjectProjectManagement,
	}
}

// IsValid reports whether s is one of the known subjects.
func (s Subject) IsValid() bool {
	switch s {
	case SubjectEngineeringEconomics,
		SubjectElectromechanicalPractice,
		SubjectLawAndRegulation,
		SubjectProjectManagement:
		return true
	}
	return false
}

func (s Subject) String() string {
	return string(s)
}

// ParseSubject validates a raw subject string. The empty string is not a
// subject; callers expressing "no filter" should pass a nil *Subject instead.
func ParseSubject(raw string) (Subject, error) {
	s := Subject(raw)
	if !s.IsValid() {
		return "", fmt.Errorf("%w: unknown subject %q", ErrInvalidSubject, raw)
	}
	return s, nil
}
