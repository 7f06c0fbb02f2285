package notion

import (
	"fmt"
	"strings"

	"strava-workout-sync/internal/workout"
)

// Database property names
const (
	PropName            = "Activity Name"
	PropDate            = "Date"
	PropType            = "Activity Type"
	PropStartTime       = "Start Time"
	PropDuration        = "Duration"
	PropDistance        = "Distance"
	PropActivityID      = "Activity ID"
	PropCalendarCreated = "Calendar Created"
)

type textContent struct {
	Content string `json:"content"`
}

type richText struct {
	Text      textContent `json:"text"`
	PlainText string      `json:"plain_text,omitempty"`
}

func (r richText) String() string {
	if r.PlainText != "" {
		return r.PlainText
	}
	return r.Text.Content
}

type selectOption struct {
	Name string `json:"name"`
}

type dateValue struct {
	Start string `json:"start"`
}

type property struct {
	Title    []richText    `json:"title,omitempty"`
	RichText []richText    `json:"rich_text,omitempty"`
	Select   *selectOption `json:"select,omitempty"`
	Date     *dateValue    `json:"date,omitempty"`
	Number   *float64      `json:"number,omitempty"`
	Checkbox *bool         `json:"checkbox,omitempty"`
}

type page struct {
	ID         string              `json:"id"`
	Properties map[string]property `json:"properties"`
}

type queryResponse struct {
	Results    []page  `json:"results"`
	HasMore    bool    `json:"has_more"`
	NextCursor *string `json:"next_cursor"`
}

type database struct {
	ID    string     `json:"id"`
	Title []richText `json:"title"`
}

func joinText(parts []richText) string {
	var sb strings.Builder
	for _, p := range parts {
		sb.WriteString(p.String())
	}
	return sb.String()
}

func text(s string) []richText {
	return []richText{{Text: textContent{Content: s}}}
}

func number(f float64) *float64 { return &f }

func checkbox(b bool) *bool { return &b }

// recordProperties renders a record as page properties
func recordProperties(r *workout.Record) map[string]property {
	return map[string]property{
		PropName:            {Title: text(r.Name)},
		PropDate:            {Date: &dateValue{Start: r.Date}},
		PropType:            {Select: &selectOption{Name: r.Type}},
		PropStartTime:       {RichText: text(r.StartTimeLocal)},
		PropDuration:        {Number: number(float64(r.DurationMinutes))},
		PropDistance:        {Number: number(r.DistanceMiles)},
		PropActivityID:      {Number: number(float64(r.ActivityID))},
		PropCalendarCreated: {Checkbox: checkbox(r.CalendarCreated)},
	}
}

// pageRecord reads a record back from a page
func pageRecord(p page) (*workout.Record, error) {
	id, ok := p.Properties[PropActivityID]
	if !ok || id.Number == nil {
		return nil, fmt.Errorf("page %s has no %q", p.ID, PropActivityID)
	}

	r := &workout.Record{
		ID:             p.ID,
		ActivityID:     int64(*id.Number),
		Name:           joinText(p.Properties[PropName].Title),
		StartTimeLocal: joinText(p.Properties[PropStartTime].RichText),
	}
	if s := p.Properties[PropType].Select; s != nil {
		r.Type = s.Name
	}
	if d := p.Properties[PropDate].Date; d != nil {
		r.Date = d.Start
	}
	if n := p.Properties[PropDuration].Number; n != nil {
		r.DurationMinutes = int(*n)
	}
	if n := p.Properties[PropDistance].Number; n != nil {
		r.DistanceMiles = *n
	}
	if c := p.Properties[PropCalendarCreated].Checkbox; c != nil {
		r.CalendarCreated = *c
	}
	return r, nil
}
