// internal/canvas/extras.go
package canvas

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"time"
)

// CalendarEvent is an upcoming calendar entry.
type CalendarEvent struct {
	Title        string     `json:"title"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	Type         string     `json:"type"`
	Description  string     `json:"description"`
	LocationName string     `json:"location_name"`
	HTMLURL      string     `json:"html_url"`
	ContextCode  string     `json:"context_code"`
}

// Announcement is a course announcement.
type Announcement struct {
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	PostedAt    *time.Time `json:"posted_at"`
	Author      string     `json:"author"`
	ContextCode string     `json:"context_code"`
	HTMLURL     string     `json:"html_url"`
}

// Grade summarises one student enrollment's scores.
type Grade struct {
	CourseID             int64    `json:"course_id"`
	CurrentScore         *float64 `json:"current_score"`
	FinalScore           *float64 `json:"final_score"`
	CurrentGrade         *string  `json:"current_grade"`
	FinalGrade           *string  `json:"final_grade"`
	UnpostedCurrentScore *float64 `json:"unposted_current_score"`
	UnpostedCurrentGrade *string  `json:"unposted_current_grade"`
}

// RubricCriterion is one row of an assignment rubric.
type RubricCriterion struct {
	ID          string  `json:"id"`
	Description string  `json:"description"`
	Points      float64 `json:"points"`
}

// AssignmentDetails is the full view of one assignment.
type AssignmentDetails struct {
	Assignment
	Description             string            `json:"description"`
	SubmissionTypes         []string          `json:"submission_types"`
	AllowedAttempts         *int              `json:"allowed_attempts"`
	GradingType             string            `json:"grading_type"`
	Rubric                  []RubricCriterion `json:"rubric"`
	HasSubmittedSubmissions bool              `json:"has_submitted_submissions"`
}

// Submission is the caller's own submission for an assignment.
type Submission struct {
	ID            int64      `json:"id"`
	AssignmentID  int64      `json:"assignment_id"`
	SubmittedAt   *time.Time `json:"submitted_at"`
	WorkflowState string     `json:"workflow_state"`
	Grade         *string    `json:"grade"`
	Score         *float64   `json:"score"`
	Attempt       *int       `json:"attempt"`
	Late          bool       `json:"late"`
	Missing       bool       `json:"missing"`
	Excused       bool       `json:"excused"`
	PreviewURL    string     `json:"preview_url"`
}

// ModuleItem is one entry inside a course module.
type ModuleItem struct {
	ID       int64  `json:"id"`
	Title    string `json:"title"`
	Type     string `json:"type"`
	HTMLURL  string `json:"html_url"`
	Position int    `json:"position"`
}

// Module is a course module with its items.
type Module struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Position int          `json:"position"`
	UnlockAt *time.Time   `json:"unlock_at"`
	State    string       `json:"state"`
	Items    []ModuleItem `json:"items"`
}

// Syllabus is a course's syllabus body plus scheduling metadata.
type Syllabus struct {
	CourseID     int64      `json:"course_id"`
	CourseName   string     `json:"course_name"`
	CourseCode   string     `json:"course_code"`
	SyllabusBody string     `json:"syllabus_body"`
	StartAt      *time.Time `json:"start_at"`
	EndAt        *time.Time `json:"end_at"`
	TimeZone     string     `json:"time_zone"`
}

// Conversation is an inbox thread.
type Conversation struct {
	ID            int64      `json:"id"`
	Subject       string     `json:"subject"`
	LastMessage   string     `json:"last_message"`
	LastMessageAt *time.Time `json:"last_message_at"`
	MessageCount  int        `json:"message_count"`
	Participants  []string   `json:"participants"`
	ContextName   string     `json:"context_name"`
}

// CalendarEvents returns events starting within the next daysAhead days.
func (c *Client) CalendarEvents(ctx context.Context, daysAhead int) ([]CalendarEvent, error) {
	if daysAhead < 0 || daysAhead > MaxDaysAhead {
		return nil, invalidArgument("days_ahead must be between 0 and %d (got %d)", MaxDaysAhead, daysAhead)
	}
	now := c.Now()
	query := url.Values{}
	query.Set("start_date", now.Format(time.RFC3339))
	query.Set("end_date", now.Add(time.Duration(daysAhead)*24*time.Hour).Format(time.RFC3339))
	query.Set("per_page", "100")

	var raws []struct {
		Title        string  `json:"title"`
		StartAt      *string `json:"start_at"`
		EndAt        *string `json:"end_at"`
		Type         string  `json:"type"`
		Description  string  `json:"description"`
		LocationName string  `json:"location_name"`
		HTMLURL      string  `json:"html_url"`
		ContextCode  string  `json:"context_code"`
	}
	if err := c.GetInto(ctx, "calendar_events", query, &raws); err != nil {
		return nil, err
	}

	events := make([]CalendarEvent, 0, len(raws))
	for _, raw := range raws {
		start, err := ParseTimestamp(raw.StartAt)
		if err != nil {
			return nil, err
		}
		end, err := ParseTimestamp(raw.EndAt)
		if err != nil {
			return nil, err
		}
		events = append(events, CalendarEvent{
			Title:        raw.Title,
			StartAt:      start,
			EndAt:        end,
			Type:         raw.Type,
			Description:  raw.Description,
			LocationName: raw.LocationName,
			HTMLURL:      raw.HTMLURL,
			ContextCode:  raw.ContextCode,
		})
	}
	return events, nil
}

// Announcements returns announcements posted in the last daysBack days across active courses.
func (c *Client) Announcements(ctx context.Context, daysBack int) ([]Announcement, error) {
	if daysBack < 0 || daysBack > MaxDaysAhead {
		return nil, invalidArgument("days_back must be between 0 and %d (got %d)", MaxDaysAhead, daysBack)
	}
	courses, err := c.activeCourses(ctx, false)
	if err != nil {
		return nil, err
	}
	if len(courses) == 0 {
		return []Announcement{}, nil
	}

	now := c.Now()
	query := url.Values{}
	for _, course := range courses {
		query.Add("context_codes[]", fmt.Sprintf("course_%d", course.ID))
	}
	query.Set("start_date", now.Add(-time.Duration(daysBack)*24*time.Hour).Format(time.RFC3339))
	query.Set("end_date", now.Format(time.RFC3339))
	query.Set("per_page", "50")

	var raws []struct {
		Title       string  `json:"title"`
		Message     string  `json:"message"`
		PostedAt    *string `json:"posted_at"`
		ContextCode string  `json:"context_code"`
		HTMLURL     string  `json:"html_url"`
		Author      struct {
			DisplayName string `json:"display_name"`
		} `json:"author"`
	}
	if err := c.GetInto(ctx, "announcements", query, &raws); err != nil {
		return nil, err
	}

	out := make([]Announcement, 0, len(raws))
	for _, raw := range raws {
		posted, err := ParseTimestamp(raw.PostedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, Announcement{
			Title:       raw.Title,
			Message:     raw.Message,
			PostedAt:    posted,
			Author:      raw.Author.DisplayName,
			ContextCode: raw.ContextCode,
			HTMLURL:     raw.HTMLURL,
		})
	}
	return out, nil
}

// Grades returns student enrollment scores, for one course when courseID is
// positive and for every active enrollment otherwise.
func (c *Client) Grades(ctx context.Context, courseID int64) ([]Grade, error) {
	if courseID < 0 {
		return nil, invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Add("include[]", "total_scores")
	query.Add("include[]", "current_grading_period_scores")

	path := "users/self/enrollments"
	if courseID > 0 {
		path = fmt.Sprintf("courses/%d/enrollments", courseID)
		query.Set("user_id", "self")
	}

	var raws []struct {
		Type     string `json:"type"`
		CourseID int64  `json:"course_id"`
		Grades   struct {
			CurrentScore         *float64 `json:"current_score"`
			FinalScore           *float64 `json:"final_score"`
			CurrentGrade         *string  `json:"current_grade"`
			FinalGrade           *string  `json:"final_grade"`
			UnpostedCurrentScore *float64 `json:"unposted_current_score"`
			UnpostedCurrentGrade *string  `json:"unposted_current_grade"`
		} `json:"grades"`
	}
	if err := c.GetInto(ctx, path, query, &raws); err != nil {
		return nil, err
	}

	grades := make([]Grade, 0, len(raws))
	for _, raw := range raws {
		if raw.Type != "StudentEnrollment" {
			continue
		}
		grades = append(grades, Grade{
			CourseID:             raw.CourseID,
			CurrentScore:         raw.Grades.CurrentScore,
			FinalScore:           raw.Grades.FinalScore,
			CurrentGrade:         raw.Grades.CurrentGrade,
			FinalGrade:           raw.Grades.FinalGrade,
			UnpostedCurrentScore: raw.Grades.UnpostedCurrentScore,
			UnpostedCurrentGrade: raw.Grades.UnpostedCurrentGrade,
		})
	}
	return grades, nil
}

func validateIDs(courseID, assignmentID int64) error {
	if courseID <= 0 {
		return invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}
	if assignmentID <= 0 {
		return invalidArgument("assignment_id must be a positive integer (got %d)", assignmentID)
	}
	return nil
}

// AssignmentDetails returns one assignment including its description and rubric.
func (c *Client) AssignmentDetails(ctx context.Context, courseID, assignmentID int64) (AssignmentDetails, error) {
	if err := validateIDs(courseID, assignmentID); err != nil {
		return AssignmentDetails{}, err
	}
	query := url.Values{}
	query.Add("include[]", "submission")
	query.Add("include[]", "rubric_assessment")

	var raw struct {
		rawAssignment
		Description             string            `json:"description"`
		SubmissionTypes         []string          `json:"submission_types"`
		AllowedAttempts         *int              `json:"allowed_attempts"`
		GradingType             string            `json:"grading_type"`
		Rubric                  []RubricCriterion `json:"rubric"`
		HasSubmittedSubmissions bool              `json:"has_submitted_submissions"`
	}
	path := fmt.Sprintf("courses/%d/assignments/%d", courseID, assignmentID)
	if err := c.GetInto(ctx, path, query, &raw); err != nil {
		return AssignmentDetails{}, err
	}

	base, err := newAssignment(raw.rawAssignment, courseID)
	if err != nil {
		return AssignmentDetails{}, err
	}
	details := AssignmentDetails{
		Assignment:              base,
		Description:             raw.Description,
		SubmissionTypes:         raw.SubmissionTypes,
		AllowedAttempts:         raw.AllowedAttempts,
		GradingType:             raw.GradingType,
		Rubric:                  raw.Rubric,
		HasSubmittedSubmissions: raw.HasSubmittedSubmissions,
	}
	if details.SubmissionTypes == nil {
		details.SubmissionTypes = []string{}
	}
	if details.Rubric == nil {
		details.Rubric = []RubricCriterion{}
	}
	return details, nil
}

// SubmissionStatus returns the caller's own submission for an assignment.
func (c *Client) SubmissionStatus(ctx context.Context, courseID, assignmentID int64) (Submission, error) {
	if err := validateIDs(courseID, assignmentID); err != nil {
		return Submission{}, err
	}
	query := url.Values{}
	query.Add("include[]", "submission_history")

	var raw struct {
		ID            int64    `json:"id"`
		AssignmentID  int64    `json:"assignment_id"`
		SubmittedAt   *string  `json:"submitted_at"`
		WorkflowState string   `json:"workflow_state"`
		Grade         *string  `json:"grade"`
		Score         *float64 `json:"score"`
		Attempt       *int     `json:"attempt"`
		Late          bool     `json:"late"`
		Missing       bool     `json:"missing"`
		Excused       bool     `json:"excused"`
		PreviewURL    string   `json:"preview_url"`
	}
	path := fmt.Sprintf("courses/%d/assignments/%d/submissions/self", courseID, assignmentID)
	if err := c.GetInto(ctx, path, query, &raw); err != nil {
		return Submission{}, err
	}
	submitted, err := ParseTimestamp(raw.SubmittedAt)
	if err != nil {
		return Submission{}, err
	}
	return Submission{
		ID:            raw.ID,
		AssignmentID:  raw.AssignmentID,
		SubmittedAt:   submitted,
		WorkflowState: raw.WorkflowState,
		Grade:         raw.Grade,
		Score:         raw.Score,
		Attempt:       raw.Attempt,
		Late:          raw.Late,
		Missing:       raw.Missing,
		Excused:       raw.Excused,
		PreviewURL:    raw.PreviewURL,
	}, nil
}

// CourseModules returns a course's modules ordered by position.
func (c *Client) CourseModules(ctx context.Context, courseID int64) ([]Module, error) {
	if courseID <= 0 {
		return nil, invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}
	query := url.Values{}
	query.Add("include[]", "items")
	query.Set("per_page", "100")

	var raws []struct {
		ID       int64        `json:"id"`
		Name     string       `json:"name"`
		Position int          `json:"position"`
		UnlockAt *string      `json:"unlock_at"`
		State    string       `json:"state"`
		Items    []ModuleItem `json:"items"`
	}
	if err := c.GetInto(ctx, fmt.Sprintf("courses/%d/modules", courseID), query, &raws); err != nil {
		return nil, err
	}

	modules := make([]Module, 0, len(raws))
	for _, raw := range raws {
		unlock, err := ParseTimestamp(raw.UnlockAt)
		if err != nil {
			return nil, err
		}
		items := raw.Items
		if items == nil {
			items = []ModuleItem{}
		}
		slices.SortStableFunc(items, func(a, b ModuleItem) int { return cmp.Compare(a.Position, b.Position) })
		modules = append(modules, Module{
			ID:       raw.ID,
			Name:     raw.Name,
			Position: raw.Position,
			UnlockAt: unlock,
			State:    raw.State,
			Items:    items,
		})
	}
	slices.SortStableFunc(modules, func(a, b Module) int { return cmp.Compare(a.Position, b.Position) })
	return modules, nil
}

// CourseSyllabus returns a course's syllabus.
func (c *Client) CourseSyllabus(ctx context.Context, courseID int64) (Syllabus, error) {
	if courseID <= 0 {
		return Syllabus{}, invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}
	query := url.Values{}
	query.Add("include[]", "syllabus_body")

	var raw struct {
		ID           int64   `json:"id"`
		Name         string  `json:"name"`
		CourseCode   string  `json:"course_code"`
		SyllabusBody string  `json:"syllabus_body"`
		StartAt      *string `json:"start_at"`
		EndAt        *string `json:"end_at"`
		TimeZone     string  `json:"time_zone"`
	}
	if err := c.GetInto(ctx, fmt.Sprintf("courses/%d", courseID), query, &raw); err != nil {
		return Syllabus{}, err
	}
	start, err := ParseTimestamp(raw.StartAt)
	if err != nil {
		return Syllabus{}, err
	}
	end, err := ParseTimestamp(raw.EndAt)
	if err != nil {
		return Syllabus{}, err
	}
	return Syllabus{
		CourseID:     raw.ID,
		CourseName:   raw.Name,
		CourseCode:   raw.CourseCode,
		SyllabusBody: raw.SyllabusBody,
		StartAt:      start,
		EndAt:        end,
		TimeZone:     raw.TimeZone,
	}, nil
}

// UnreadMessages returns unread inbox conversations.
func (c *Client) UnreadMessages(ctx context.Context) ([]Conversation, error) {
	query := url.Values{}
	query.Set("scope", "unread")
	query.Set("per_page", "50")

	var raws []struct {
		ID            int64   `json:"id"`
		Subject       string  `json:"subject"`
		LastMessage   string  `json:"last_message"`
		LastMessageAt *string `json:"last_message_at"`
		MessageCount  int     `json:"message_count"`
		ContextName   string  `json:"context_name"`
		Participants  []struct {
			Name string `json:"name"`
		} `json:"participants"`
	}
	if err := c.GetInto(ctx, "conversations", query, &raws); err != nil {
		return nil, err
	}

	out := make([]Conversation, 0, len(raws))
	for _, raw := range raws {
		last, err := ParseTimestamp(raw.LastMessageAt)
		if err != nil {
			return nil, err
		}
		names := make([]string, 0, len(raw.Participants))
		for _, p := range raw.Participants {
			names = append(names, p.Name)
		}
		out = append(out, Conversation{
			ID:            raw.ID,
			Subject:       raw.Subject,
			LastMessage:   raw.LastMessage,
			LastMessageAt: last,
			MessageCount:  raw.MessageCount,
			Participants:  names,
			ContextName:   raw.ContextName,
		})
	}
	return out, nil
}
