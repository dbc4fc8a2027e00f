// internal/canvas/courses.go
package canvas

import (
	"context"
	"net/url"
)

// activeCourses lists the user's actively enrolled courses, dropping placeholder records.
func (c *Client) activeCourses(ctx context.Context, includeFavorites bool) ([]Course, error) {
	query := url.Values{}
	query.Set("enrollment_state", "active")
	query.Set("per_page", "100")
	if includeFavorites {
		query.Add("include[]", "favorites")
	}

	var raws []rawCourse
	if err := c.GetInto(ctx, "courses", query, &raws); err != nil {
		return nil, err
	}

	courses := make([]Course, 0, len(raws))
	for _, raw := range raws {
		if course, ok := newCourse(raw); ok {
			courses = append(courses, course)
		}
	}
	return courses, nil
}

// DashboardCourses returns the user's active courses in upstream order.
func (c *Client) DashboardCourses(ctx context.Context) ([]Course, error) {
	return c.activeCourses(ctx, true)
}
