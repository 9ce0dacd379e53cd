package appointment

import (
	"fmt"
	"time"
)

const (
	// readableLayout renders times as "03:04 PM, January 02" in messages.
	readableLayout = "03:04 PM, January 02"
	// isoLayout is the wall-clock form used in API responses and notices.
	isoLayout = "2006-01-02T15:04:05"
)

// Message is one rendered notification for both channels.
type Message struct {
	EmailSubject string
	EmailBody    string
	SMSBody      string
}

func reminderMessage(a Appointment) Message {
	readable := a.ScheduledTime.Local().Format(readableLayout)
	footer := fmt.Sprintf("\n\nDetails: %s\nTime: %s\n\n(Reminder from Appointment Bot)", a.Subject, readable)
	return Message{
		EmailSubject: fmt.Sprintf("Reminder: %s 🔔", a.Subject),
		EmailBody:    fmt.Sprintf("This is your scheduled reminder for %s.", readable) + footer,
		SMSBody:      fmt.Sprintf("🔔 Reminder! %s at %s", a.Subject, readable),
	}
}

// confirmationMessage acknowledges a booking. Structured bookings echo the
// subject and the date text the user picked; free-text bookings echo the
// whole sentence.
func confirmationMessage(b Booking) Message {
	m := Message{EmailSubject: "Booking Confirmed ✅"}
	if b.Structured {
		m.EmailBody = fmt.Sprintf("Subject: %s\nTime: %s\n\nWe will remind you at the scheduled time.", b.Subject, b.DateText)
		m.SMSBody = fmt.Sprintf("✅ Booked: '%s' for %s.", b.Subject, b.DateText)
		return m
	}
	m.EmailBody = fmt.Sprintf("You have scheduled: '%s'\n\nWe will remind you at the scheduled time.", b.Subject)
	m.SMSBody = fmt.Sprintf("✅ Booked: '%s'. We'll remind you at the time.", b.Subject)
	return m
}

func cancellationMessage(a Appointment) Message {
	return Message{
		EmailSubject: fmt.Sprintf("Cancellation: %s", a.Subject),
		EmailBody: fmt.Sprintf("You have successfully cancelled the appointment: '%s' scheduled for %s.",
			a.Subject, formatISO(a.ScheduledTime)),
		SMSBody: fmt.Sprintf("❌ Cancelled: '%s'", a.Subject),
	}
}

func formatISO(t time.Time) string {
	return t.Local().Format(isoLayout)
}
