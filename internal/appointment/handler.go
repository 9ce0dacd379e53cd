package appointment

import (
	"bytes"
	"errors"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Handler serves the appointment HTTP API.
type Handler struct {
	service *Service
	log     *zap.Logger
}

// NewHandler creates a new Handler.
func NewHandler(service *Service, log *zap.Logger) *Handler {
	return &Handler{service: service, log: log.Named("http")}
}

// ContactRequest carries the recipient and channel preferences of a booking.
type ContactRequest struct {
	Email      string `json:"email"`
	Phone      string `json:"phone"`
	EmailNotif bool   `json:"emailNotif"`
	SMSNotif   bool   `json:"smsNotif"`
}

// ScheduleRequest is either a structured booking (subject + date_str) or a
// free-text message.
type ScheduleRequest struct {
	IsStructured bool           `json:"is_structured"`
	Subject      string         `json:"subject"`
	DateStr      string         `json:"date_str"`
	Message      string         `json:"message"`
	Contact      ContactRequest `json:"contact"`
}

// ScheduleResponse reports the outcome of a booking. ScheduledTime is
// "Immediate" when nothing was stored.
type ScheduleResponse struct {
	Status        string   `json:"status"`
	ID            int64    `json:"id,omitempty"`
	DelaySeconds  float64  `json:"delay_seconds"`
	ScheduledTime string   `json:"scheduled_time"`
	Notifications []string `json:"notifications"`
}

// UpdateRequest replaces the subject and time of an appointment.
type UpdateRequest struct {
	Subject string `json:"subject"`
	DateStr string `json:"date_str"`
}

type statusResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	NewTime string `json:"new_time,omitempty"`
}

func errorJSON(c echo.Context, code int, msg string) error {
	return c.JSON(code, statusResponse{Status: "error", Message: msg})
}

// Schedule books an appointment and sends the booking confirmation.
func (h *Handler) Schedule(c echo.Context) error {
	var req ScheduleRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	if req.IsStructured && strings.TrimSpace(req.Subject) == "" {
		return errorJSON(c, http.StatusBadRequest, "Subject is required")
	}
	if !req.IsStructured && strings.TrimSpace(req.Message) == "" {
		return errorJSON(c, http.StatusBadRequest, "Message is required")
	}

	res, err := h.service.Schedule(c.Request().Context(), BookingRequest{
		Structured: req.IsStructured,
		Subject:    strings.TrimSpace(req.Subject),
		DateText:   strings.TrimSpace(req.DateStr),
		Message:    strings.TrimSpace(req.Message),
		Contact: Contact{
			Email:        strings.TrimSpace(req.Contact.Email),
			Phone:        strings.TrimSpace(req.Contact.Phone),
			EmailEnabled: req.Contact.EmailNotif,
			SMSEnabled:   req.Contact.SMSNotif,
		},
	})
	if err != nil {
		h.log.Error("schedule failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to schedule appointment")
	}

	resp := ScheduleResponse{
		Status:        "success",
		ID:            res.ID,
		DelaySeconds:  res.Delay.Seconds(),
		ScheduledTime: "Immediate",
		Notifications: res.Notifications,
	}
	if !res.Immediate() {
		resp.ScheduledTime = formatISO(res.ScheduledTime)
	}
	return c.JSON(http.StatusOK, resp)
}

// List returns active appointments, optionally filtered by ?email= and ?phone=.
func (h *Handler) List(c echo.Context) error {
	appts, err := h.service.List(c.Request().Context(), filterFromQuery(c))
	if err != nil {
		h.log.Error("list failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to load appointments")
	}
	if appts == nil {
		appts = []Appointment{}
	}
	return c.JSON(http.StatusOK, appts)
}

// Calendar renders the same selection as List as an iCalendar feed.
func (h *Handler) Calendar(c echo.Context) error {
	appts, err := h.service.List(c.Request().Context(), filterFromQuery(c))
	if err != nil {
		h.log.Error("calendar failed", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to load appointments")
	}
	if len(appts) == 0 {
		// a VCALENDAR needs at least one component
		return c.NoContent(http.StatusNoContent)
	}
	var buf bytes.Buffer
	if err := WriteCalendar(&buf, appts, h.service.now()); err != nil {
		h.log.Error("encode calendar", zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to render calendar")
	}
	return c.Blob(http.StatusOK, "text/calendar; charset=utf-8", buf.Bytes())
}

// Cancel soft-deletes an appointment and notifies its contact.
func (h *Handler) Cancel(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid appointment id")
	}
	if _, err := h.service.Cancel(c.Request().Context(), id); err != nil {
		if errors.Is(err, ErrNotFound) {
			return errorJSON(c, http.StatusNotFound, "Appointment not found")
		}
		h.log.Error("cancel failed", zap.Int64("id", id), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to cancel appointment")
	}
	return c.JSON(http.StatusOK, statusResponse{Status: "success", Message: "Appointment cancelled"})
}

// Update replaces the subject and time of an appointment.
func (h *Handler) Update(c echo.Context) error {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid appointment id")
	}
	var req UpdateRequest
	if err := c.Bind(&req); err != nil {
		return errorJSON(c, http.StatusBadRequest, "Invalid request")
	}
	if strings.TrimSpace(req.Subject) == "" {
		return errorJSON(c, http.StatusBadRequest, "Subject is required")
	}

	at, err := h.service.Update(c.Request().Context(), id, req.Subject, req.DateStr)
	switch {
	case errors.Is(err, ErrInvalidTime):
		return errorJSON(c, http.StatusBadRequest, "Invalid date format")
	case errors.Is(err, ErrNotFound):
		return errorJSON(c, http.StatusNotFound, "Appointment not found")
	case err != nil:
		h.log.Error("update failed", zap.Int64("id", id), zap.Error(err))
		return errorJSON(c, http.StatusInternalServerError, "Failed to update appointment")
	}
	return c.JSON(http.StatusOK, statusResponse{
		Status:  "success",
		Message: "Appointment updated",
		NewTime: formatISO(at),
	})
}

// Health reports whether the store is reachable.
func (h *Handler) Health(c echo.Context) error {
	if err := h.service.Ping(c.Request().Context()); err != nil {
		return errorJSON(c, http.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func filterFromQuery(c echo.Context) ContactFilter {
	return ContactFilter{
		Email: strings.TrimSpace(c.QueryParam("email")),
		Phone: strings.TrimSpace(c.QueryParam("phone")),
	}
}
