package appointment

import "time"

// Status is the lifecycle state of an appointment.
type Status string

const (
	StatusPending   Status = "pending"   // waiting for its scheduled time
	StatusSent      Status = "sent"      // reminder dispatched
	StatusCancelled Status = "cancelled" // soft-deleted by the user
)

// Contact is who gets notified and over which channels.
type Contact struct {
	Email        string `json:"contact_email" bson:"contact_email,omitempty"`
	Phone        string `json:"contact_phone" bson:"contact_phone,omitempty"`
	EmailEnabled bool   `json:"email_notif" bson:"email_notif"`
	SMSEnabled   bool   `json:"sms_notif" bson:"sms_notif"`
}

// WantsEmail reports whether the email channel should fire for this contact.
func (c Contact) WantsEmail() bool { return c.EmailEnabled && c.Email != "" }

// WantsSMS reports whether the SMS channel should fire for this contact.
func (c Contact) WantsSMS() bool { return c.SMSEnabled && c.Phone != "" }

// Appointment is a persisted reminder.
type Appointment struct {
	ID            int64     `json:"id" bson:"_id"`
	Subject       string    `json:"subject" bson:"subject"`
	ScheduledTime time.Time `json:"time" bson:"time"`
	Contact       `bson:",inline"`
	Status        Status    `json:"status" bson:"status"`
	CreatedAt     time.Time `json:"created_at" bson:"created_at"`
}

// Due reports whether a pending appointment should fire at now.
func (a Appointment) Due(now time.Time) bool {
	return a.Status == StatusPending && !a.ScheduledTime.After(now)
}

// NewAppointment carries the caller-supplied fields for Repository.Create.
type NewAppointment struct {
	Subject       string
	ScheduledTime time.Time
	Contact       Contact
}

// ContactFilter narrows ListActive to one contact. Empty fields are ignored;
// an entirely empty filter matches everything.
type ContactFilter struct {
	Email string
	Phone string
}

func (f ContactFilter) Empty() bool { return f.Email == "" && f.Phone == "" }

// Matches reports whether c belongs to the filtered contact (email OR phone).
func (f ContactFilter) Matches(c Contact) bool {
	if f.Empty() {
		return true
	}
	return (f.Email != "" && c.Email == f.Email) || (f.Phone != "" && c.Phone == f.Phone)
}
