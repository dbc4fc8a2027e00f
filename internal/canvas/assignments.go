// internal/canvas/assignments.go
package canvas

import (
	"cmp"
	"context"
	"fmt"
	"net/url"
	"slices"
	"strings"

	"golang.org/x/sync/errgroup"
)

// MaxDaysAhead is the widest look-ahead window accepted by UpcomingAssignments.
const MaxDaysAhead = 365

// courseAssignments fetches and shapes every assignment of one course.
func (c *Client) courseAssignments(ctx context.Context, courseID int64, extra url.Values) ([]Assignment, error) {
	query := url.Values{}
	query.Set("per_page", "100")
	query.Add("include[]", "submission")
	for k, vs := range extra {
		for _, v := range vs {
			query.Add(k, v)
		}
	}

	var raws []rawAssignment
	if err := c.GetInto(ctx, fmt.Sprintf("courses/%d/assignments", courseID), query, &raws); err != nil {
		return nil, err
	}
	return newAssignments(raws, courseID)
}

// courseResult is one fan-out slot.
type courseResult[T any] struct {
	items []T
	err   error
}

// fanOut runs fetch for every course, at most limit at a time. Per-course
// failures become diagnostics; only cancellation of ctx aborts the whole
// call. Results keep course order.
func fanOut[T any](ctx context.Context, limit int, courses []Course, fetch func(context.Context, Course) ([]T, error)) ([]T, []Diagnostic, error) {
	results := make([]courseResult[T], len(courses))

	var g errgroup.Group
	g.SetLimit(limit)
	for i, course := range courses {
		g.Go(func() error {
			if ctx.Err() != nil {
				results[i].err = ctx.Err()
				return nil
			}
			items, err := fetch(ctx, course)
			results[i] = courseResult[T]{items: items, err: err}
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		return nil, nil, upstreamError("aggregation cancelled", err)
	}

	merged := []T{}
	diagnostics := []Diagnostic{}
	for i, res := range results {
		if res.err != nil {
			diagnostics = append(diagnostics, Diagnostic{
				CourseID:   courses[i].ID,
				CourseName: courses[i].Name,
				Kind:       KindPartialFailure,
				Message:    res.err.Error(),
			})
			continue
		}
		merged = append(merged, res.items...)
	}
	return merged, diagnostics, nil
}

// tagCourse stamps the owning course onto assignments from a per-course listing.
func tagCourse(as []Assignment, course Course) []Assignment {
	for i := range as {
		as[i].CourseID = course.ID
		as[i].CourseName = course.Name
	}
	return as
}

// UpcomingAssignments returns assignments due within daysAhead days across all
// active courses, sorted by due date, course name, then assignment name.
func (c *Client) UpcomingAssignments(ctx context.Context, daysAhead int) (UpcomingAssignments, error) {
	if daysAhead < 0 || daysAhead > MaxDaysAhead {
		return UpcomingAssignments{}, invalidArgument("days_ahead must be between 0 and %d (got %d)", MaxDaysAhead, daysAhead)
	}
	courses, err := c.activeCourses(ctx, false)
	if err != nil {
		return UpcomingAssignments{}, err
	}

	now := c.Now()
	merged, diagnostics, err := fanOut(ctx, c.maxConcurrency, courses, func(ctx context.Context, course Course) ([]Assignment, error) {
		query := url.Values{}
		query.Set("order_by", "due_at")
		all, err := c.courseAssignments(ctx, course.ID, query)
		if err != nil {
			return nil, err
		}
		kept := all[:0]
		for _, a := range all {
			if WithinWindow(a.DueAt, now, daysAhead) {
				kept = append(kept, a)
			}
		}
		return tagCourse(kept, course), nil
	})
	if err != nil {
		return UpcomingAssignments{}, err
	}

	slices.SortStableFunc(merged, compareAcrossCourses)
	return UpcomingAssignments{Assignments: merged, Diagnostics: diagnostics}, nil
}

// MissingAssignments returns work Canvas flags as missing across all active courses.
func (c *Client) MissingAssignments(ctx context.Context) (MissingAssignments, error) {
	courses, err := c.activeCourses(ctx, false)
	if err != nil {
		return MissingAssignments{}, err
	}
	merged, diagnostics, err := fanOut(ctx, c.maxConcurrency, courses, func(ctx context.Context, course Course) ([]Assignment, error) {
		query := url.Values{}
		query.Set("bucket", "missing")
		all, err := c.courseAssignments(ctx, course.ID, query)
		if err != nil {
			return nil, err
		}
		return tagCourse(all, course), nil
	})
	if err != nil {
		return MissingAssignments{}, err
	}
	slices.SortStableFunc(merged, compareAcrossCourses)
	return MissingAssignments{Assignments: merged, Diagnostics: diagnostics}, nil
}

// CourseAssignments returns one course's assignments in the requested bucket.
// The bucket is validated before any request is made.
func (c *Client) CourseAssignments(ctx context.Context, courseID int64, bucket string) ([]Assignment, error) {
	b, err := ParseBucket(bucket)
	if err != nil {
		return nil, err
	}
	if courseID <= 0 {
		return nil, invalidArgument("course_id must be a positive integer (got %d)", courseID)
	}

	all, err := c.courseAssignments(ctx, courseID, nil)
	if err != nil {
		return nil, err
	}

	now := c.Now()
	kept := make([]Assignment, 0, len(all))
	for _, a := range all {
		if Classify(a.DueAt, now) == b {
			kept = append(kept, a)
		}
	}

	switch b {
	case BucketUpcoming:
		slices.SortStableFunc(kept, func(x, y Assignment) int {
			return cmp.Or(compareDue(x.DueAt, y.DueAt), compareNames(x, y))
		})
	case BucketPast:
		slices.SortStableFunc(kept, func(x, y Assignment) int {
			return cmp.Or(compareDue(y.DueAt, x.DueAt), compareNames(x, y))
		})
	case BucketUndated:
		slices.SortStableFunc(kept, compareNames)
	}
	return kept, nil
}

func compareNames(x, y Assignment) int {
	return cmp.Or(
		strings.Compare(x.Name, y.Name),
		cmp.Compare(x.ID, y.ID),
	)
}

func compareAcrossCourses(x, y Assignment) int {
	return cmp.Or(
		compareDue(x.DueAt, y.DueAt),
		strings.Compare(x.CourseName, y.CourseName),
		compareNames(x, y),
	)
}
