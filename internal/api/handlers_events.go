package api

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

const (
	defaultEventLimit = 200
	maxEventLimit     = 1000
)

// ListEvents handles GET /api/v1/events
//
// Query parameters: from, to (YYYY-MM-DD), type (repeatable or comma
// separated), title, include_inactive, all_schools, limit.
func (h *Handlers) ListEvents(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	from, to, err := dateRange(q)
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	f := database.EventFilter{
		From:       from,
		To:         to,
		Title:      strings.TrimSpace(q.Get("title")),
		ActiveOnly: q.Get("include_inactive") != "true",
		Limit:      defaultEventLimit,
	}

	for _, raw := range q["type"] {
		for _, name := range strings.Split(raw, ",") {
			et, err := database.ParseEventType(name)
			if err != nil {
				WriteBadRequest(w, err.Error())
				return
			}
			f.Types = append(f.Types, et)
		}
	}

	if q.Get("all_schools") != "true" {
		school := SchoolID(r)
		f.School = &school
	}

	if limitStr := q.Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= maxEventLimit {
			f.Limit = l
		}
	}

	events := []database.CalendarEvent{}
	for e, err := range h.events.Find(r.Context(), f) {
		if err != nil {
			h.writeServiceError(w, r, err, "list events")
			return
		}
		events = append(events, e)
	}

	WriteSuccess(w, map[string]any{
		"events": events,
		"count":  len(events),
		"limit":  f.Limit,
	})
}

// createEventRequest is the body of POST /api/v1/events. Exactly one of
// date and bs_date is required.
type createEventRequest struct {
	Title        string `json:"title" validate:"required,max=200"`
	Date         string `json:"date" validate:"required_without=BSDate,excluded_with=BSDate,omitempty,isodate"`
	BSDate       string `json:"bs_date" validate:"omitempty,bsdate"`
	Type         string `json:"type" validate:"required,eventtype"`
	Description  string `json:"description" validate:"max=2000"`
	SchoolID     string `json:"school_id" validate:"max=100"`
	SkipIfExists bool   `json:"skip_if_exists"`
}

func (req createEventRequest) newEvent(createdBy string) (calendar.NewEvent, error) {
	et, err := database.ParseEventType(req.Type)
	if err != nil {
		return calendar.NewEvent{}, err
	}

	var date database.Date
	if req.Date != "" {
		date, err = database.ParseDate(req.Date)
		if err != nil {
			return calendar.NewEvent{}, err
		}
	} else {
		bs, err := nepali.Parse(req.BSDate)
		if err != nil {
			return calendar.NewEvent{}, err
		}
		t, err := bs.ToAD()
		if err != nil {
			return calendar.NewEvent{}, err
		}
		date = database.NewDate(t)
	}

	return calendar.NewEvent{
		Title:       req.Title,
		Date:        date,
		Type:        et,
		Description: req.Description,
		SchoolID:    req.SchoolID,
		CreatedBy:   createdBy,
	}, nil
}

// CreateEvent handles POST /api/v1/events
//
// With skip_if_exists, an event with the same date and title is returned
// instead of adding a second one (200 rather than 201).
func (h *Handlers) CreateEvent(w http.ResponseWriter, r *http.Request) {
	var req createEventRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	n, err := req.newEvent(Actor(r))
	if err != nil {
		h.writeServiceError(w, r, err, "create event")
		return
	}

	if req.SkipIfExists {
		e, created, err := h.events.AddIfMissing(r.Context(), n)
		if err != nil {
			h.writeServiceError(w, r, err, "create event")
			return
		}
		if !created {
			WriteSuccess(w, e)
			return
		}
		WriteCreated(w, e)
		return
	}

	e, err := h.events.Add(r.Context(), n)
	if err != nil {
		h.writeServiceError(w, r, err, "create event")
		return
	}
	WriteCreated(w, e)
}

// DeactivateEvent handles POST /api/v1/events/{id}/deactivate
func (h *Handlers) DeactivateEvent(w http.ResponseWriter, r *http.Request) {
	h.setEventActive(w, r, false)
}

// ActivateEvent handles POST /api/v1/events/{id}/activate
func (h *Handlers) ActivateEvent(w http.ResponseWriter, r *http.Request) {
	h.setEventActive(w, r, true)
}

func (h *Handlers) setEventActive(w http.ResponseWriter, r *http.Request, active bool) {
	ctx := r.Context()

	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		WriteBadRequest(w, "Invalid event ID")
		return
	}

	if err := h.events.SetActive(ctx, id, active); err != nil {
		if database.IsNotFound(err) {
			WriteNotFound(w, "Event not found")
			return
		}
		h.writeServiceError(w, r, err, "update event")
		return
	}

	e, err := h.events.Get(ctx, id)
	if err != nil {
		h.writeServiceError(w, r, err, "get event")
		return
	}
	WriteSuccess(w, e)
}

// replaceCategoryRequest is the body of PUT /api/v1/events/categories/{type}.
type replaceCategoryRequest struct {
	SchoolID string                `json:"school_id" validate:"max=100"`
	Events   []calendar.TableEntry `json:"events" validate:"required"`
}

// ReplaceCategory handles PUT /api/v1/events/categories/{type}
//
// Every event of the type in the given school (or the global events when
// school_id is empty) is swapped for the supplied list in one transaction.
func (h *Handlers) ReplaceCategory(w http.ResponseWriter, r *http.Request) {
	category, err := database.ParseEventType(r.PathValue("type"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	var req replaceCategoryRequest
	if !h.decodeAndValidate(w, r, &req) {
		return
	}

	report, err := h.events.ImportTable(r.Context(), &calendar.Table{
		Category: string(category),
		SchoolID: req.SchoolID,
		Events:   req.Events,
	}, Actor(r))
	if err != nil {
		h.writeServiceError(w, r, err, "replace events")
		return
	}

	WriteSuccess(w, report)
}
