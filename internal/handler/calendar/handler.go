package calendar

import (
	"fmt"
	"net/http"
	"time"

	ics "github.com/arran4/golang-ical"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/vetdesk/calendar-api/internal/calendar"
	"github.com/vetdesk/calendar-api/internal/handler"
	"github.com/vetdesk/calendar-api/internal/middleware"
	"github.com/vetdesk/calendar-api/internal/model"
	"github.com/vetdesk/calendar-api/internal/repository"
)

// Handler serves the calendar read surface the dashboard consumes:
// view metadata (range, label, grid days), the appointments of the
// visible range, the staff list and an iCalendar export.
type Handler struct {
	appointments repository.AppointmentRepository
	staff        repository.StaffRepository
}

func NewHandler(appointments repository.AppointmentRepository, staff repository.StaffRepository) *Handler {
	return &Handler{appointments: appointments, staff: staff}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.GET("/calendar/view", h.GetView)
	r.GET("/calendar/appointments", h.ListAppointments)
	r.GET("/calendar/staff", h.ListStaff)
	r.GET("/calendar/export.ics", h.ExportICS)
}

// parseViewQuery reads the common view+date query pair. Date defaults
// to today, view to week.
func parseViewQuery(c *gin.Context) (calendar.View, time.Time, error) {
	view := calendar.ViewWeek
	if v := c.Query("view"); v != "" {
		parsed, err := calendar.ParseView(v)
		if err != nil {
			return "", time.Time{}, err
		}
		view = parsed
	}

	anchor := time.Now()
	if d := c.Query("date"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			return "", time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", d)
		}
		anchor = parsed
	}
	return view, anchor, nil
}

func (h *Handler) GetView(c *gin.Context) {
	view, anchor, err := parseViewQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	var selected *time.Time
	if d := c.Query("selected"); d != "" {
		parsed, err := time.Parse("2006-01-02", d)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid selected date"))
			return
		}
		selected = &parsed
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(gin.H{
		"view":  view,
		"range": calendar.ComputeRange(view, anchor),
		"label": calendar.FormatLabel(view, anchor),
		"days":  calendar.EnumerateGridDays(view, anchor, time.Now(), selected),
	}))
}

func (h *Handler) ListAppointments(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing tenant"))
		return
	}

	view, anchor, err := parseViewQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	r := calendar.ComputeRange(view, anchor)
	filters := &model.AppointmentFilters{
		TenantID:  tenantID,
		StartDate: r.Start,
		EndDate:   r.End,
	}

	for _, raw := range c.QueryArray("staff_id") {
		id, err := uuid.Parse(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
			return
		}
		filters.StaffIDs = append(filters.StaffIDs, id)
	}
	if status := c.Query("status"); status != "" {
		filters.Status = model.AppointmentStatus(status)
	}
	if aptType := c.Query("appointment_type"); aptType != "" {
		filters.AppointmentType = aptType
	}

	appointments, err := h.appointments.List(c.Request.Context(), filters)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(appointments))
}

func (h *Handler) ListStaff(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing tenant"))
		return
	}

	staff, err := h.staff.List(c.Request.Context(), tenantID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	c.JSON(http.StatusOK, handler.NewSuccessResponse(staff))
}

// ExportICS renders a staff member's schedule for the requested range
// as an iCalendar feed.
func (h *Handler) ExportICS(c *gin.Context) {
	tenantID, ok := middleware.TenantID(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, handler.NewErrorResponse("missing tenant"))
		return
	}

	staffID, err := uuid.Parse(c.Query("staff_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse("invalid staff ID"))
		return
	}

	view, anchor, err := parseViewQuery(c)
	if err != nil {
		c.JSON(http.StatusBadRequest, handler.NewErrorResponse(err.Error()))
		return
	}

	staff, err := h.staff.Get(c.Request.Context(), staffID)
	if err != nil {
		c.JSON(http.StatusNotFound, handler.NewErrorResponse("staff member not found"))
		return
	}

	r := calendar.ComputeRange(view, anchor)
	appointments, err := h.appointments.List(c.Request.Context(), &model.AppointmentFilters{
		TenantID:  tenantID,
		StartDate: r.Start,
		EndDate:   r.End,
		StaffIDs:  []uuid.UUID{staffID},
	})
	if err != nil {
		c.JSON(http.StatusInternalServerError, handler.NewErrorResponse(err.Error()))
		return
	}

	cal := ics.NewCalendar()
	cal.SetMethod(ics.MethodPublish)
	cal.SetProductId("-//vetdesk//calendar-api//EN")
	cal.SetName(fmt.Sprintf("%s schedule", staff.Name))

	for _, apt := range appointments {
		if apt.Status == model.AppointmentStatusCancelled {
			continue
		}
		event := cal.AddEvent(apt.ID.String())
		event.SetCreatedTime(apt.CreatedAt)
		event.SetModifiedAt(apt.UpdatedAt)
		event.SetStartAt(apt.StartTime)
		event.SetEndAt(apt.EndTime)
		event.SetSummary(apt.Title)
		if apt.Description != nil {
			event.SetDescription(*apt.Description)
		}
	}

	c.Header("Content-Disposition", `attachment; filename="schedule.ics"`)
	c.Data(http.StatusOK, "text/calendar", []byte(cal.Serialize()))
}
