package export

import (
	"fmt"
	"time"

	ics "github.com/arran4/golang-ical"
)

// CalendarEvent is a single timed block in an iCalendar export.
type CalendarEvent struct {
	UID         string
	Summary     string
	Description string
	Start       time.Time
	End         time.Time
}

// ICSExporter renders calendar events as an RFC 5545 document.
type ICSExporter struct {
	productID string
}

// NewICSExporter constructs an ICS exporter.
func NewICSExporter() *ICSExporter {
	return &ICSExporter{productID: "-//course-scheduler-api//schedule export//EN"}
}

// ContentType returns the MIME type of the rendered output.
func (e *ICSExporter) ContentType() string { return "text/calendar; charset=utf-8" }

// Extension returns the file extension used for downloads.
func (e *ICSExporter) Extension() string { return "ics" }

// Render serialises events. Times are written as floating local times since
// schedule dates carry no zone.
func (e *ICSExporter) Render(name string, events []CalendarEvent) ([]byte, error) {
	cal := ics.NewCalendarFor(e.productID)
	cal.SetMethod(ics.MethodPublish)
	if name != "" {
		cal.SetName(name)
		cal.SetXWRCalName(name)
	}

	stamp := time.Now().UTC()
	for _, ev := range events {
		if ev.UID == "" {
			return nil, fmt.Errorf("ics event %q has no uid", ev.Summary)
		}
		if !ev.End.After(ev.Start) {
			return nil, fmt.Errorf("ics event %s ends before it starts", ev.UID)
		}
		event := cal.AddEvent(ev.UID)
		event.SetDtStampTime(stamp)
		event.SetProperty(ics.ComponentPropertyDtStart, ev.Start.Format(floatingLayout))
		event.SetProperty(ics.ComponentPropertyDtEnd, ev.End.Format(floatingLayout))
		event.SetSummary(ev.Summary)
		if ev.Description != "" {
			event.SetDescription(ev.Description)
		}
	}

	return []byte(cal.Serialize()), nil
}

const floatingLayout = "20060102T150405"
