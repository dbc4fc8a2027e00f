// internal/canvas/types.go
package canvas

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

// Course is the shaped view of an enrolled course.
type Course struct {
	ID              int64  `json:"id"`
	Name            string `json:"name"`
	CourseCode      string `json:"course_code"`
	EnrollmentState string `json:"enrollment_state"`
	IsFavorite      bool   `json:"is_favorite"`
}

// Assignment is the shaped view of a Canvas assignment. DueAt is nil when the
// assignment has no due date.
type Assignment struct {
	ID               int64      `json:"id"`
	CourseID         int64      `json:"course_id"`
	CourseName       string     `json:"course_name,omitempty"`
	Name             string     `json:"name"`
	DueAt            *time.Time `json:"due_at"`
	HTMLURL          string     `json:"html_url"`
	PointsPossible   *float64   `json:"points_possible"`
	SubmissionStatus *string    `json:"submission_status"`
}

// TodoItem is one entry of the user's todo list.
type TodoItem struct {
	Assignment        Assignment `json:"assignment"`
	CourseID          int64      `json:"course_id"`
	Type              string     `json:"type"`
	NeedsGradingCount int        `json:"needs_grading_count"`
}

// Diagnostic records a non-fatal per-course failure during fan-out.
type Diagnostic struct {
	CourseID   int64     `json:"course_id"`
	CourseName string    `json:"course_name"`
	Kind       ErrorKind `json:"kind"`
	Message    string    `json:"message"`
}

// UpcomingAssignments is the result of a cross-course upcoming query.
type UpcomingAssignments struct {
	Assignments []Assignment `json:"assignments"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// MissingAssignments is the result of a cross-course missing-work query.
type MissingAssignments struct {
	Assignments []Assignment `json:"assignments"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// --- upstream payloads ---

type rawEnrollment struct {
	Type            string `json:"type"`
	EnrollmentState string `json:"enrollment_state"`
}

type rawCourse struct {
	ID          int64           `json:"id"`
	Name        string          `json:"name"`
	CourseCode  string          `json:"course_code"`
	IsFavorite  bool            `json:"is_favorite"`
	Enrollments []rawEnrollment `json:"enrollments"`
}

type rawSubmission struct {
	WorkflowState string `json:"workflow_state"`
}

type rawAssignment struct {
	ID             int64          `json:"id"`
	CourseID       int64          `json:"course_id"`
	Name           string         `json:"name"`
	DueAt          *string        `json:"due_at"`
	HTMLURL        string         `json:"html_url"`
	PointsPossible *float64       `json:"points_possible"`
	Submission     *rawSubmission `json:"submission"`
}

type rawQuiz struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	DueAt          *string  `json:"due_at"`
	HTMLURL        string   `json:"html_url"`
	PointsPossible *float64 `json:"points_possible"`
}

type rawTodo struct {
	Type              string         `json:"type"`
	CourseID          int64          `json:"course_id"`
	ContextCode       string         `json:"context_code"`
	HTMLURL           string         `json:"html_url"`
	NeedsGradingCount int            `json:"needs_grading_count"`
	Assignment        *rawAssignment `json:"assignment"`
	Quiz              *rawQuiz       `json:"quiz"`
}

// courseURLPattern matches the course segment of a Canvas page URL.
var courseURLPattern = regexp.MustCompile(`/courses/([0-9]+)(?:[/?#]|$)`)

// courseIDFromContextCode reads ids from context codes such as "course_42".
func courseIDFromContextCode(code string) int64 {
	rest, ok := strings.CutPrefix(strings.TrimSpace(code), "course_")
	if !ok {
		return 0
	}
	id, err := strconv.ParseInt(rest, 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// courseIDFromURL reads the id from a ".../courses/42/..." URL.
func courseIDFromURL(u string) int64 {
	m := courseURLPattern.FindStringSubmatch(u)
	if m == nil {
		return 0
	}
	id, err := strconv.ParseInt(m[1], 10, 64)
	if err != nil || id <= 0 {
		return 0
	}
	return id
}

// newCourse shapes a raw course; ok is false for placeholder records without a name.
func newCourse(raw rawCourse) (Course, bool) {
	name := strings.TrimSpace(raw.Name)
	if name == "" {
		return Course{}, false
	}
	state := "active"
	if len(raw.Enrollments) > 0 && raw.Enrollments[0].EnrollmentState != "" {
		state = raw.Enrollments[0].EnrollmentState
	}
	return Course{
		ID:              raw.ID,
		Name:            name,
		CourseCode:      raw.CourseCode,
		EnrollmentState: state,
		IsFavorite:      raw.IsFavorite,
	}, true
}

// newAssignment shapes a raw assignment, falling back to courseID when the
// payload does not carry its own course id.
func newAssignment(raw rawAssignment, courseID int64) (Assignment, error) {
	due, err := ParseTimestamp(raw.DueAt)
	if err != nil {
		return Assignment{}, err
	}
	a := Assignment{
		ID:             raw.ID,
		CourseID:       raw.CourseID,
		Name:           raw.Name,
		DueAt:          due,
		HTMLURL:        raw.HTMLURL,
		PointsPossible: raw.PointsPossible,
	}
	if a.CourseID == 0 {
		a.CourseID = courseID
	}
	if raw.Submission != nil && raw.Submission.WorkflowState != "" {
		state := raw.Submission.WorkflowState
		a.SubmissionStatus = &state
	}
	return a, nil
}

func newAssignments(raws []rawAssignment, courseID int64) ([]Assignment, error) {
	out := make([]Assignment, 0, len(raws))
	for _, raw := range raws {
		a, err := newAssignment(raw, courseID)
		if err != nil {
			return nil, err
		}
		out = append(out, a)
	}
	return out, nil
}
