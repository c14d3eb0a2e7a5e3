package remote

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/coursesync/syncengine/internal/store"
)

// Remote property keys, literal on the wire (see the protocol notes this
// package is grounded on).
const (
	propCourseTitle  = "授業名"
	propTodoTitle    = "課題名"
	propSemester     = "セメスター"
	propDayOfWeek    = "曜日"
	propPeriod       = "時限"
	propRoom         = "教室"
	propInstructor   = "担当教員"
	propCourseIDMir  = "course_id"
	propTodoIDMir    = "todo_id"
	propRelation     = "授業"
	propDueDate      = "締め切り"
	propProgress     = "進捗"
	propIsArchived   = "is_archived"
	propUpdatedAt    = "updated_at"
	semesterJoinSep  = ", "
)

type richTextRun struct {
	PlainText string `json:"plain_text"`
}

type titleProperty struct {
	Title []richTextRun `json:"title"`
}

type richTextProperty struct {
	RichText []richTextRun `json:"rich_text"`
}

type selectOption struct {
	Name string `json:"name"`
}

type selectProperty struct {
	Select *selectOption `json:"select"`
}

type multiSelectProperty struct {
	MultiSelect []selectOption `json:"multi_select"`
}

type statusProperty struct {
	Status *selectOption `json:"status"`
}

type dateValue struct {
	Start string `json:"start"`
}

type dateProperty struct {
	Date *dateValue `json:"date"`
}

type relationRef struct {
	ID string `json:"id"`
}

type relationProperty struct {
	Relation []relationRef `json:"relation"`
}

type checkboxProperty struct {
	Checkbox bool `json:"checkbox"`
}

type lastEditedTimeProperty struct {
	LastEditedTime string `json:"last_edited_time"`
}

// pageDTO is one record as returned by the remote's query endpoint.
type pageDTO struct {
	ID         string                     `json:"id"`
	Properties map[string]json.RawMessage `json:"properties"`
}

type queryResponse struct {
	Results    []pageDTO `json:"results"`
	HasMore    bool      `json:"has_more"`
	NextCursor *string   `json:"next_cursor"`
}

type queryRequest struct {
	StartCursor string `json:"start_cursor,omitempty"`
}

func concatRichText(raw json.RawMessage) string {
	var rt richTextProperty
	if err := json.Unmarshal(raw, &rt); err != nil {
		return ""
	}
	var b strings.Builder
	for _, run := range rt.RichText {
		b.WriteString(run.PlainText)
	}
	return b.String()
}

func concatTitle(raw json.RawMessage) string {
	var t titleProperty
	if err := json.Unmarshal(raw, &t); err != nil {
		return ""
	}
	var b strings.Builder
	for _, run := range t.Title {
		b.WriteString(run.PlainText)
	}
	return b.String()
}

func selectName(raw json.RawMessage) string {
	var s selectProperty
	if err := json.Unmarshal(raw, &s); err != nil || s.Select == nil {
		return ""
	}
	return s.Select.Name
}

func statusName(raw json.RawMessage) string {
	var s statusProperty
	if err := json.Unmarshal(raw, &s); err != nil || s.Status == nil {
		return ""
	}
	return s.Status.Name
}

func multiSelectJoined(raw json.RawMessage) string {
	var m multiSelectProperty
	if err := json.Unmarshal(raw, &m); err != nil {
		return ""
	}
	names := make([]string, len(m.MultiSelect))
	for i, o := range m.MultiSelect {
		names[i] = o.Name
	}
	return strings.Join(names, semesterJoinSep)
}

func dateStart(raw json.RawMessage) string {
	var d dateProperty
	if err := json.Unmarshal(raw, &d); err != nil || d.Date == nil {
		return ""
	}
	// preserve only the date portion for due_date; a date-time value on the
	// wire is truncated at the first "T".
	if idx := strings.Index(d.Date.Start, "T"); idx >= 0 {
		return d.Date.Start[:idx]
	}
	return d.Date.Start
}

func lastEditedTime(raw json.RawMessage) string {
	var l lastEditedTimeProperty
	if err := json.Unmarshal(raw, &l); err != nil {
		return ""
	}
	return l.LastEditedTime
}

func checkboxValue(raw json.RawMessage) bool {
	var c checkboxProperty
	if err := json.Unmarshal(raw, &c); err != nil {
		return false
	}
	return c.Checkbox
}

func relationTargetID(raw json.RawMessage) string {
	var r relationProperty
	if err := json.Unmarshal(raw, &r); err != nil || len(r.Relation) == 0 {
		return ""
	}
	return r.Relation[0].ID
}

func optionalString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// courseFromPage converts a remote page into a Course. Remote identifiers
// are canonical UUIDs; the page id is used directly as Course.id without
// modification.
func courseFromPage(p pageDTO) *store.Course {
	c := &store.Course{
		ID:         p.ID,
		Title:      concatTitle(p.Properties[propCourseTitle]),
		Semester:   multiSelectJoined(p.Properties[propSemester]),
		DayOfWeek:  selectName(p.Properties[propDayOfWeek]),
		IsArchived: checkboxValue(p.Properties[propIsArchived]),
		UpdatedAt:  lastEditedTime(p.Properties[propUpdatedAt]),
	}
	if period, err := strconv.Atoi(selectName(p.Properties[propPeriod])); err == nil {
		c.Period = period
	}
	c.Room = optionalString(concatRichText(p.Properties[propRoom]))
	c.Instructor = optionalString(concatRichText(p.Properties[propInstructor]))
	return c
}

// todoFromPage converts a remote page into a Todo, resolving the relation
// property to a flat course_id.
func todoFromPage(p pageDTO) *store.Todo {
	t := &store.Todo{
		ID:         p.ID,
		Title:      concatTitle(p.Properties[propTodoTitle]),
		DueDate:    dateStart(p.Properties[propDueDate]),
		Status:     store.TodoStatus(statusName(p.Properties[propProgress])),
		CourseID:   relationTargetID(p.Properties[propRelation]),
		IsArchived: checkboxValue(p.Properties[propIsArchived]),
		UpdatedAt:  lastEditedTime(p.Properties[propUpdatedAt]),
	}
	return t
}

// coursePatchProperties builds the properties payload for PATCH
// /v1/pages/{id}, omitting updated_at (last-edited-time is remote-managed).
func coursePatchProperties(c *store.Course) map[string]interface{} {
	props := map[string]interface{}{
		propCourseTitle: titleProperty{Title: []richTextRun{{PlainText: c.Title}}},
		propSemester:    multiSelectFromJoined(c.Semester),
		propDayOfWeek:   selectProperty{Select: &selectOption{Name: c.DayOfWeek}},
		propPeriod:      selectProperty{Select: &selectOption{Name: strconv.Itoa(c.Period)}},
		propCourseIDMir: richTextProperty{RichText: []richTextRun{{PlainText: c.ID}}},
		propIsArchived:  checkboxProperty{Checkbox: c.IsArchived},
	}
	if c.Room != nil {
		props[propRoom] = richTextProperty{RichText: []richTextRun{{PlainText: *c.Room}}}
	}
	if c.Instructor != nil {
		props[propInstructor] = richTextProperty{RichText: []richTextRun{{PlainText: *c.Instructor}}}
	}
	return props
}

// todoPatchProperties builds the properties payload for PATCH
// /v1/pages/{id}, writing the relation from course_id and the todo's own id
// into the todo_id rich-text mirror.
func todoPatchProperties(t *store.Todo) map[string]interface{} {
	return map[string]interface{}{
		propTodoTitle:  titleProperty{Title: []richTextRun{{PlainText: t.Title}}},
		propDueDate:    dateProperty{Date: &dateValue{Start: t.DueDate}},
		propProgress:   statusProperty{Status: &selectOption{Name: string(t.Status)}},
		propTodoIDMir:  richTextProperty{RichText: []richTextRun{{PlainText: t.ID}}},
		propRelation:   relationProperty{Relation: []relationRef{{ID: t.CourseID}}},
		propIsArchived: checkboxProperty{Checkbox: t.IsArchived},
	}
}

func multiSelectFromJoined(joined string) multiSelectProperty {
	if joined == "" {
		return multiSelectProperty{}
	}
	parts := strings.Split(joined, semesterJoinSep)
	opts := make([]selectOption, len(parts))
	for i, p := range parts {
		opts[i] = selectOption{Name: p}
	}
	return multiSelectProperty{MultiSelect: opts}
}

func pageNotFoundError(id string) error {
	return fmt.Errorf("remote: page %s not found", id)
}
