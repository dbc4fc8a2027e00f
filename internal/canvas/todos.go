// internal/canvas/todos.go
package canvas

import (
	"context"
	"net/url"
)

// Todos returns the user's todo list in upstream order. The nested
// assignment of every item carries the resolved course id.
func (c *Client) Todos(ctx context.Context) ([]TodoItem, error) {
	query := url.Values{}
	query.Set("per_page", "100")

	var raws []rawTodo
	if err := c.GetInto(ctx, "users/self/todo", query, &raws); err != nil {
		return nil, err
	}

	items := make([]TodoItem, 0, len(raws))
	for _, raw := range raws {
		item, ok, err := newTodoItem(raw)
		if err != nil {
			return nil, err
		}
		if ok {
			items = append(items, item)
		}
	}
	return items, nil
}

// newTodoItem flattens one raw todo entry. Entries carrying neither an
// assignment nor a quiz, or whose course cannot be resolved, are skipped.
func newTodoItem(raw rawTodo) (TodoItem, bool, error) {
	var nested rawAssignment
	switch {
	case raw.Assignment != nil:
		nested = *raw.Assignment
	case raw.Quiz != nil:
		nested = rawAssignment{
			ID:             raw.Quiz.ID,
			Name:           raw.Quiz.Title,
			DueAt:          raw.Quiz.DueAt,
			HTMLURL:        raw.Quiz.HTMLURL,
			PointsPossible: raw.Quiz.PointsPossible,
		}
	default:
		return TodoItem{}, false, nil
	}

	assignment, err := newAssignment(nested, todoCourseID(raw, nested))
	if err != nil {
		return TodoItem{}, false, err
	}
	if assignment.CourseID <= 0 {
		return TodoItem{}, false, nil
	}
	return TodoItem{
		Assignment:        assignment,
		CourseID:          assignment.CourseID,
		Type:              raw.Type,
		NeedsGradingCount: raw.NeedsGradingCount,
	}, true, nil
}

// todoCourseID resolves the course of a todo entry whose nested assignment
// does not name one: the entry's own course_id, then its context code, then
// the course segment of either html_url.
func todoCourseID(raw rawTodo, nested rawAssignment) int64 {
	for _, id := range []int64{
		raw.CourseID,
		courseIDFromContextCode(raw.ContextCode),
		courseIDFromURL(nested.HTMLURL),
		courseIDFromURL(raw.HTMLURL),
	} {
		if id > 0 {
			return id
		}
	}
	return 0
}
