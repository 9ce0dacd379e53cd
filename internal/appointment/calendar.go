package appointment

import (
	"fmt"
	"io"
	"time"

	"github.com/emersion/go-ical"
)

const calendarProductID = "-//AppointmentReminder//Appointments//EN"

// WriteCalendar encodes appts as an iCalendar document with one VEVENT each.
func WriteCalendar(w io.Writer, appts []Appointment, stamp time.Time) error {
	cal := ical.NewCalendar()
	cal.Props.SetText(ical.PropVersion, "2.0")
	cal.Props.SetText(ical.PropProductID, calendarProductID)

	for _, a := range appts {
		event := ical.NewEvent()
		event.Props.SetText(ical.PropUID, fmt.Sprintf("appointment-%d@appointment-reminder", a.ID))
		event.Props.SetDateTime(ical.PropDateTimeStamp, stamp.UTC())
		event.Props.SetDateTime(ical.PropDateTimeStart, a.ScheduledTime.UTC())
		event.Props.SetText(ical.PropSummary, a.Subject)
		if a.Status == StatusSent {
			event.Props.SetText(ical.PropDescription, "Reminder sent")
		}
		cal.Children = append(cal.Children, event.Component)
	}
	return ical.NewEncoder(w).Encode(cal)
}
