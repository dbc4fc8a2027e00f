// internal/tools/canvas_tools.go
package tools

import (
	"context"

	"github.com/mwiater/canvasmcp/internal/canvas"
)

// Tool names exposed over MCP.
const (
	UpcomingAssignmentsName = "get_upcoming_assignments"
	TodosName               = "get_todos"
	DashboardCoursesName    = "get_dashboard_courses"
	CourseAssignmentsName   = "get_course_assignments"
	CalendarEventsName      = "get_calendar_events"
	AnnouncementsName       = "get_course_announcements"
	GradesName              = "get_grades"
	MissingAssignmentsName  = "get_missing_assignments"
	AssignmentDetailsName   = "get_assignment_details"
	SubmissionStatusName    = "get_submission_status"
	CourseModulesName       = "get_course_modules"
	CourseSyllabusName      = "get_course_syllabus"
	UnreadMessagesName      = "get_unread_messages"
	QuizzesName             = "get_quizzes"
	DiscussionsName         = "get_discussions"
	NotificationsName       = "get_notifications"
)

const (
	defaultCalendarDays     = 14
	defaultAnnouncementDays = 7
)

// clientFunc is a tool body that runs against a per-call Canvas client.
type clientFunc func(ctx context.Context, client *canvas.Client, args map[string]any) (any, error)

// withClient turns fn into a Handler that builds the client from the call's
// credentials and renders the result as JSON text.
func (r *Registry) withClient(fn clientFunc) Handler {
	return func(ctx context.Context, args map[string]any) ([]ContentPart, error) {
		client, err := r.newClient(args)
		if err != nil {
			return nil, err
		}
		result, err := fn(ctx, client, args)
		if err != nil {
			return nil, err
		}
		return TextContent(result)
	}
}

func (r *Registry) canvasTools() []Tool {
	bucketProperty := map[string]any{
		"type":        "string",
		"enum":        bucketNames(),
		"description": "Which assignments to return: upcoming (default), past or undated.",
	}
	courseID := idProperty("Canvas course id.")
	assignmentID := idProperty("Canvas assignment id.")

	return []Tool{
		{
			Definition: Definition{
				Name:        UpcomingAssignmentsName,
				Description: "List assignments due within the next days_ahead days across all active courses, sorted by due date.",
				InputSchema: objectSchema(map[string]any{
					"days_ahead": integerProperty("Look-ahead window in days (default 7).", 0, canvas.MaxDaysAhead),
				}),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				days, err := intArg(args, "days_ahead", int64(r.deps.DefaultDaysAhead))
				if err != nil {
					return nil, err
				}
				return c.UpcomingAssignments(ctx, int(days))
			}),
		},
		{
			Definition: Definition{
				Name:        TodosName,
				Description: "List the user's Canvas todo items in the order Canvas returns them.",
				InputSchema: objectSchema(nil),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, _ map[string]any) (any, error) {
				return c.Todos(ctx)
			}),
		},
		{
			Definition: Definition{
				Name:        DashboardCoursesName,
				Description: "List the user's active courses with favourite status.",
				InputSchema: objectSchema(nil),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, _ map[string]any) (any, error) {
				return c.DashboardCourses(ctx)
			}),
		},
		{
			Definition: Definition{
				Name:        CourseAssignmentsName,
				Description: "List one course's assignments in a bucket: upcoming (due ascending), past (due descending) or undated (by name).",
				InputSchema: objectSchema(map[string]any{
					"course_id": courseID,
					"bucket":    bucketProperty,
				}, "course_id"),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				id, err := intArg(args, "course_id", 0)
				if err != nil {
					return nil, err
				}
				bucket := stringArg(args, "bucket")
				if bucket == "" {
					bucket = string(canvas.BucketUpcoming)
				}
				return c.CourseAssignments(ctx, id, bucket)
			}),
		},
		{
			Definition: Definition{
				Name:        CalendarEventsName,
				Description: "List calendar events starting within the next days_ahead days.",
				InputSchema: objectSchema(map[string]any{
					"days_ahead": integerProperty("Look-ahead window in days (default 14).", 0, canvas.MaxDaysAhead),
				}),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				days, err := intArg(args, "days_ahead", defaultCalendarDays)
				if err != nil {
					return nil, err
				}
				return c.CalendarEvents(ctx, int(days))
			}),
		},
		{
			Definition: Definition{
				Name:        AnnouncementsName,
				Description: "List announcements posted in the last days_back days across active courses.",
				InputSchema: objectSchema(map[string]any{
					"days_back": integerProperty("Look-back window in days (default 7).", 0, canvas.MaxDaysAhead),
				}),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				days, err := intArg(args, "days_back", defaultAnnouncementDays)
				if err != nil {
					return nil, err
				}
				return c.Announcements(ctx, int(days))
			}),
		},
		{
			Definition: Definition{
				Name:        GradesName,
				Description: "Show current and final scores, for one course when course_id is given and for every active course otherwise.",
				InputSchema: objectSchema(map[string]any{"course_id": courseID}),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				id, err := intArg(args, "course_id", 0)
				if err != nil {
					return nil, err
				}
				return c.Grades(ctx, id)
			}),
		},
		{
			Definition: Definition{
				Name:        MissingAssignmentsName,
				Description: "List assignments Canvas marks as missing across all active courses.",
				InputSchema: objectSchema(nil),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, _ map[string]any) (any, error) {
				return c.MissingAssignments(ctx)
			}),
		},
		{
			Definition: Definition{
				Name:        AssignmentDetailsName,
				Description: "Show one assignment's description, submission types, attempts and rubric.",
				InputSchema: objectSchema(map[string]any{
					"course_id":     courseID,
					"assignment_id": assignmentID,
				}, "course_id", "assignment_id"),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				courseID, assignmentID, err := courseAndAssignment(args)
				if err != nil {
					return nil, err
				}
				return c.AssignmentDetails(ctx, courseID, assignmentID)
			}),
		},
		{
			Definition: Definition{
				Name:        SubmissionStatusName,
				Description: "Show the user's own submission for one assignment.",
				InputSchema: objectSchema(map[string]any{
					"course_id":     courseID,
					"assignment_id": assignmentID,
				}, "course_id", "assignment_id"),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				courseID, assignmentID, err := courseAndAssignment(args)
				if err != nil {
					return nil, err
				}
				return c.SubmissionStatus(ctx, courseID, assignmentID)
			}),
		},
		{
			Definition: Definition{
				Name:        CourseModulesName,
				Description: "List a course's modules and their items in course order.",
				InputSchema: objectSchema(map[string]any{"course_id": courseID}, "course_id"),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				id, err := intArg(args, "course_id", 0)
				if err != nil {
					return nil, err
				}
				return c.CourseModules(ctx, id)
			}),
		},
		{
			Definition: Definition{
				Name:        CourseSyllabusName,
				Description: "Show a course's syllabus body.",
				InputSchema: objectSchema(map[string]any{"course_id": courseID}, "course_id"),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				id, err := intArg(args, "course_id", 0)
				if err != nil {
					return nil, err
				}
				return c.CourseSyllabus(ctx, id)
			}),
		},
		{
			Definition: Definition{
				Name:        UnreadMessagesName,
				Description: "List unread inbox conversations.",
				InputSchema: objectSchema(nil),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, _ map[string]any) (any, error) {
				return c.UnreadMessages(ctx)
			}),
		},
		{
			Definition: Definition{
				Name:        QuizzesName,
				Description: "List quizzes for one course, or for every active course when course_id is omitted. Courses that fail are reported in diagnostics.",
				InputSchema: objectSchema(map[string]any{"course_id": courseID}),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				id, err := intArg(args, "course_id", 0)
				if err != nil {
					return nil, err
				}
				return c.Quizzes(ctx, id)
			}),
		},
		{
			Definition: Definition{
				Name:        DiscussionsName,
				Description: "List discussion topics for one course, or the latest three topics of the first five active courses when course_id is omitted.",
				InputSchema: objectSchema(map[string]any{"course_id": courseID}),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, args map[string]any) (any, error) {
				id, err := intArg(args, "course_id", 0)
				if err != nil {
					return nil, err
				}
				return c.Discussions(ctx, id)
			}),
		},
		{
			Definition: Definition{
				Name:        NotificationsName,
				Description: "List recent entries from the user's activity stream.",
				InputSchema: objectSchema(nil),
			},
			Handler: r.withClient(func(ctx context.Context, c *canvas.Client, _ map[string]any) (any, error) {
				return c.Notifications(ctx)
			}),
		},
	}
}

// bucketNames lists the accepted bucket values for the schema enum.
func bucketNames() []string {
	names := make([]string, 0, len(canvas.Buckets))
	for _, b := range canvas.Buckets {
		names = append(names, string(b))
	}
	return names
}

func courseAndAssignment(args map[string]any) (int64, int64, error) {
	courseID, err := intArg(args, "course_id", 0)
	if err != nil {
		return 0, 0, err
	}
	assignmentID, err := intArg(args, "assignment_id", 0)
	if err != nil {
		return 0, 0, err
	}
	return courseID, assignmentID, nil
}
