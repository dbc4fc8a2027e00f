// internal/canvas/activity.go
package canvas

import (
	"context"
	"fmt"
	"net/url"
	"time"
)

const (
	// maxDiscussionCourses and maxTopicsPerCourse cap the cross-course
	// discussion digest so one call stays small.
	maxDiscussionCourses = 5
	maxTopicsPerCourse   = 3
)

// Quiz is the shaped view of a course quiz.
type Quiz struct {
	ID             int64      `json:"id"`
	CourseID       int64      `json:"course_id"`
	CourseName     string     `json:"course_name,omitempty"`
	Title          string     `json:"title"`
	Description    string     `json:"description"`
	DueAt          *time.Time `json:"due_at"`
	LockAt         *time.Time `json:"lock_at"`
	UnlockAt       *time.Time `json:"unlock_at"`
	PointsPossible *float64   `json:"points_possible"`
	QuestionCount  int        `json:"question_count"`
	TimeLimit      *int       `json:"time_limit"`
	HTMLURL        string     `json:"html_url"`
}

// QuizList is the result of a quiz query, with diagnostics for courses that
// could not be read.
type QuizList struct {
	Quizzes     []Quiz       `json:"quizzes"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Discussion is the shaped view of a discussion topic.
type Discussion struct {
	ID             int64      `json:"id"`
	CourseID       int64      `json:"course_id"`
	CourseName     string     `json:"course_name,omitempty"`
	Title          string     `json:"title"`
	Message        string     `json:"message"`
	PostedAt       *time.Time `json:"posted_at"`
	DiscussionType string     `json:"discussion_type"`
	UnreadCount    int        `json:"unread_count"`
	HTMLURL        string     `json:"html_url"`
}

// DiscussionList is the result of a discussion query.
type DiscussionList struct {
	Discussions []Discussion `json:"discussions"`
	Diagnostics []Diagnostic `json:"diagnostics"`
}

// Notification is one entry of the user's activity stream.
type Notification struct {
	ID          int64      `json:"id"`
	Title       string     `json:"title"`
	Message     string     `json:"message"`
	Type        string     `json:"type"`
	CreatedAt   *time.Time `json:"created_at"`
	HTMLURL     string     `json:"html_url"`
	ContextType string     `json:"context_type"`
}

type rawQuizDetail struct {
	ID             int64    `json:"id"`
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	DueAt          *string  `json:"due_at"`
	LockAt         *string  `json:"lock_at"`
	UnlockAt       *string  `json:"unlock_at"`
	PointsPossible *float64 `json:"points_possible"`
	QuestionCount  int      `json:"question_count"`
	TimeLimit      *int     `json:"time_limit"`
	HTMLURL        string   `json:"html_url"`
}

type rawDiscussion struct {
	ID             int64   `json:"id"`
	Title          string  `json:"title"`
	Message        string  `json:"message"`
	PostedAt       *string `json:"posted_at"`
	DiscussionType string  `json:"discussion_type"`
	UnreadCount    int     `json:"unread_count"`
	HTMLURL        string  `json:"html_url"`
}

// courseQuizzes lists one course's quizzes in upstream order.
func (c *Client) courseQuizzes(ctx context.Context, course Course) ([]Quiz, error) {
	query := url.Values{}
	query.Set("per_page", "100")

	var raws []rawQuizDetail
	if err := c.GetInto(ctx, fmt.Sprintf("courses/%d/quizzes", course.ID), query, &raws); err != nil {
		return nil, err
	}

	quizzes := make([]Quiz, 0, len(raws))
	for _, raw := range raws {
		due, err := ParseTimestamp(raw.DueAt)
		if err != nil {
			return nil, err
		}
		lock, err := ParseTimestamp(raw.LockAt)
		if err != nil {
			return nil, err
		}
		unlock, err := ParseTimestamp(raw.UnlockAt)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, Quiz{
			ID:             raw.ID,
			CourseID:       course.ID,
			CourseName:     course.Name,
			Title:          raw.Title,
			Description:    raw.Description,
			DueAt:          due,
			LockAt:         lock,
			UnlockAt:       unlock,
			PointsPossible: raw.PointsPossible,
			QuestionCount:  raw.QuestionCount,
			TimeLimit:      raw.TimeLimit,
			HTMLURL:        raw.HTMLURL,
		})
	}
	return quizzes, nil
}

// Quizzes returns one course's quizzes when courseID is positive. Otherwise
// it collects quizzes from every active course, recording courses that fail
// as diagnostics.
func (c *Client) Quizzes(ctx context.Context, courseID int64) (QuizList, error) {
	if courseID < 0 {
		return QuizList{}, invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}
	if courseID > 0 {
		quizzes, err := c.courseQuizzes(ctx, Course{ID: courseID})
		if err != nil {
			return QuizList{}, err
		}
		return QuizList{Quizzes: quizzes, Diagnostics: []Diagnostic{}}, nil
	}

	courses, err := c.activeCourses(ctx, false)
	if err != nil {
		return QuizList{}, err
	}
	quizzes, diagnostics, err := fanOut(ctx, c.maxConcurrency, courses, c.courseQuizzes)
	if err != nil {
		return QuizList{}, err
	}
	return QuizList{Quizzes: quizzes, Diagnostics: diagnostics}, nil
}

// courseDiscussions lists up to limit topics of one course; limit <= 0 means all.
func (c *Client) courseDiscussions(ctx context.Context, course Course, limit int) ([]Discussion, error) {
	query := url.Values{}
	query.Set("per_page", "50")

	var raws []rawDiscussion
	if err := c.GetInto(ctx, fmt.Sprintf("courses/%d/discussion_topics", course.ID), query, &raws); err != nil {
		return nil, err
	}
	if limit > 0 && len(raws) > limit {
		raws = raws[:limit]
	}

	topics := make([]Discussion, 0, len(raws))
	for _, raw := range raws {
		posted, err := ParseTimestamp(raw.PostedAt)
		if err != nil {
			return nil, err
		}
		topics = append(topics, Discussion{
			ID:             raw.ID,
			CourseID:       course.ID,
			CourseName:     course.Name,
			Title:          raw.Title,
			Message:        raw.Message,
			PostedAt:       posted,
			DiscussionType: raw.DiscussionType,
			UnreadCount:    raw.UnreadCount,
			HTMLURL:        raw.HTMLURL,
		})
	}
	return topics, nil
}

// Discussions returns every topic of one course when courseID is positive.
// Otherwise it returns a digest: the first three topics of each of the first
// five active courses.
func (c *Client) Discussions(ctx context.Context, courseID int64) (DiscussionList, error) {
	if courseID < 0 {
		return DiscussionList{}, invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}
	if courseID > 0 {
		topics, err := c.courseDiscussions(ctx, Course{ID: courseID}, 0)
		if err != nil {
			return DiscussionList{}, err
		}
		return DiscussionList{Discussions: topics, Diagnostics: []Diagnostic{}}, nil
	}

	courses, err := c.activeCourses(ctx, false)
	if err != nil {
		return DiscussionList{}, err
	}
	if len(courses) > maxDiscussionCourses {
		courses = courses[:maxDiscussionCourses]
	}
	topics, diagnostics, err := fanOut(ctx, c.maxConcurrency, courses, func(ctx context.Context, course Course) ([]Discussion, error) {
		return c.courseDiscussions(ctx, course, maxTopicsPerCourse)
	})
	if err != nil {
		return DiscussionList{}, err
	}
	return DiscussionList{Discussions: topics, Diagnostics: diagnostics}, nil
}

// Notifications returns the user's activity stream in upstream order.
func (c *Client) Notifications(ctx context.Context) ([]Notification, error) {
	query := url.Values{}
	query.Set("per_page", "50")

	var raws []struct {
		ID          int64   `json:"id"`
		Title       string  `json:"title"`
		Message     string  `json:"message"`
		Type        string  `json:"type"`
		CreatedAt   *string `json:"created_at"`
		HTMLURL     string  `json:"html_url"`
		ContextType string  `json:"context_type"`
	}
	if err := c.GetInto(ctx, "users/self/activity_stream", query, &raws); err != nil {
		return nil, err
	}

	out := make([]Notification, 0, len(raws))
	for _, raw := range raws {
		created, err := ParseTimestamp(raw.CreatedAt)
		if err != nil {
			return nil, err
		}
		out = append(out, Notification{
			ID:          raw.ID,
			Title:       raw.Title,
			Message:     raw.Message,
			Type:        raw.Type,
			CreatedAt:   created,
			HTMLURL:     raw.HTMLURL,
			ContextType: raw.ContextType,
		})
	}
	return out, nil
}
