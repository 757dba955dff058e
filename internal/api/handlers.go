package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/zapponejosh/pathshala-api/internal/attendance"
	"github.com/zapponejosh/pathshala-api/internal/calendar"
	"github.com/zapponejosh/pathshala-api/internal/config"
	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/logger"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// Handlers contains all HTTP handlers and their dependencies.
type Handlers struct {
	db         *database.DB
	events     *calendar.EventStore
	classifier *calendar.Classifier
	ledger     *attendance.Ledger
	validator  *Validator
	cfg        *config.Config
	location   *time.Location
	logger     *slog.Logger
}

// NewHandlers creates a new Handlers instance.
func NewHandlers(db *database.DB, cfg *config.Config, logger *slog.Logger) *Handlers {
	classifier := calendar.NewClassifier(db, cfg.RestWeekday())
	return &Handlers{
		db:         db,
		events:     calendar.NewEventStore(db, logger),
		classifier: classifier,
		ledger:     attendance.NewLedger(db, calendar.NewGate(classifier), logger),
		validator:  NewValidator(),
		cfg:        cfg,
		location:   cfg.Location(),
		logger:     logger,
	}
}

// HealthCheck handles GET /health
func (h *Handlers) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	// Check database health
	if err := h.db.Health(ctx); err != nil {
		h.logger.Warn("health check failed", slog.Any("error", err))
		WriteError(w, http.StatusServiceUnavailable, "Database unhealthy", "HEALTH_CHECK_FAILED")
		return
	}

	WriteSuccess(w, map[string]string{
		"status": "healthy",
	})
}

// DateInfo describes one AD date: its BS rendering and how the school
// calendar treats it.
type DateInfo struct {
	Date           database.Date           `json:"date"`
	BS             nepali.Date             `json:"bs"`
	Formats        map[nepali.Style]string `json:"formats"`
	Session        string                  `json:"session"`
	Classification calendar.Classification `json:"classification"`
}

// GetToday handles GET /api/v1/dates/today
func (h *Handlers) GetToday(w http.ResponseWriter, r *http.Request) {
	h.writeDateInfo(w, r, calendar.Today(h.location))
}

// GetDate handles GET /api/v1/dates/{date}
func (h *Handlers) GetDate(w http.ResponseWriter, r *http.Request) {
	dateStr := r.PathValue("date")
	if dateStr == "" {
		WriteBadRequest(w, "Date parameter is required")
		return
	}

	date, err := calendar.ParseDateString(dateStr)
	if err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid date format: %s. Use YYYY-MM-DD", dateStr))
		return
	}

	h.writeDateInfo(w, r, date)
}

func (h *Handlers) writeDateInfo(w http.ResponseWriter, r *http.Request, date database.Date) {
	ctx := r.Context()

	bs, err := nepali.FromAD(date.Time)
	if err != nil {
		h.writeServiceError(w, r, err, "convert date")
		return
	}

	formats := make(map[nepali.Style]string)
	for _, style := range nepali.Styles() {
		s, err := bs.Format(style)
		if err != nil {
			h.writeServiceError(w, r, err, "format date")
			return
		}
		formats[style] = s
	}

	session, err := nepali.SessionLabel(date.Time)
	if err != nil {
		h.writeServiceError(w, r, err, "derive session")
		return
	}

	classification, err := h.classifier.Classify(ctx, SchoolID(r), date)
	if err != nil {
		h.writeServiceError(w, r, err, "classify date")
		return
	}

	WriteSuccess(w, DateInfo{
		Date:           date,
		BS:             bs,
		Formats:        formats,
		Session:        session,
		Classification: classification,
	})
}

// Conversion is the result of converting a date between calendars.
type Conversion struct {
	AD        database.Date `json:"ad"`
	BS        nepali.Date   `json:"bs"`
	Formatted string        `json:"formatted"`
	Style     nepali.Style  `json:"style"`
	Weekday   string        `json:"weekday"`
	Session   string        `json:"session"`
}

// Convert handles GET /api/v1/convert?ad=YYYY-MM-DD or ?bs=YYYY/MM/DD, with
// an optional style for the BS rendering.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	adStr, bsStr := q.Get("ad"), q.Get("bs")
	if (adStr == "") == (bsStr == "") {
		WriteBadRequest(w, "Exactly one of ad or bs is required")
		return
	}

	style, err := nepali.ParseStyle(q.Get("style"))
	if err != nil {
		WriteBadRequest(w, err.Error())
		return
	}

	var ad database.Date
	if adStr != "" {
		ad, err = calendar.ParseDateString(adStr)
		if err != nil {
			WriteBadRequest(w, err.Error())
			return
		}
	} else {
		bs, err := nepali.Parse(bsStr)
		if err != nil {
			h.writeServiceError(w, r, err, "parse BS date")
			return
		}
		t, err := bs.ToAD()
		if err != nil {
			h.writeServiceError(w, r, err, "convert date")
			return
		}
		ad = database.NewDate(t)
	}

	bs, err := nepali.FromAD(ad.Time)
	if err != nil {
		h.writeServiceError(w, r, err, "convert date")
		return
	}
	formatted, err := bs.Format(style)
	if err != nil {
		h.writeServiceError(w, r, err, "format date")
		return
	}
	session, err := nepali.SessionLabel(ad.Time)
	if err != nil {
		h.writeServiceError(w, r, err, "derive session")
		return
	}

	WriteSuccess(w, Conversion{
		AD:        ad,
		BS:        bs,
		Formatted: formatted,
		Style:     style,
		Weekday:   calendar.DayName(ad.Time),
		Session:   session,
	})
}

// GetMonth handles GET /api/v1/calendar/{bsYear}/{bsMonth}
func (h *Handlers) GetMonth(w http.ResponseWriter, r *http.Request) {
	year, err := strconv.Atoi(r.PathValue("bsYear"))
	if err != nil {
		WriteBadRequest(w, "Invalid BS year")
		return
	}
	month, err := strconv.Atoi(r.PathValue("bsMonth"))
	if err != nil {
		WriteBadRequest(w, "Invalid BS month")
		return
	}

	view, err := h.classifier.MonthView(r.Context(), SchoolID(r), year, month)
	if err != nil {
		h.writeServiceError(w, r, err, "build month view")
		return
	}

	WriteSuccess(w, view)
}

// writeServiceError maps errors from the calendar and attendance packages
// to HTTP responses. Anything unrecognised is logged and reported as a 500.
func (h *Handlers) writeServiceError(w http.ResponseWriter, r *http.Request, err error, action string) {
	var invalidDate *calendar.InvalidAttendanceDateError

	switch {
	case errors.As(err, &invalidDate):
		WriteIneligibleDate(w, invalidDate.Error(), string(invalidDate.Reason))
	case errors.Is(err, attendance.ErrDuplicateAttendance), errors.Is(err, database.ErrDuplicate):
		WriteConflict(w, err.Error())
	case errors.Is(err, database.ErrNotFound):
		WriteNotFound(w, "Not found")
	case errors.Is(err, nepali.ErrUnsupportedDateRange):
		WriteError(w, http.StatusBadRequest, err.Error(), "UNSUPPORTED_DATE_RANGE")
	case errors.Is(err, nepali.ErrInvalidDate),
		errors.Is(err, nepali.ErrUnknownFormatStyle),
		errors.Is(err, calendar.ErrInvalidEvent),
		errors.Is(err, attendance.ErrInvalidRecord):
		WriteBadRequest(w, err.Error())
	default:
		logger.Error(r.Context(), "request failed", err, slog.String("action", action))
		WriteInternalError(w, "Failed to "+action)
	}
}

// decodeJSON decodes JSON request body.
func decodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return fmt.Errorf("request body is empty")
	}
	defer r.Body.Close()

	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// decodeAndValidate decodes the body into v and validates it, writing the
// error response itself. It reports whether the handler may continue.
func (h *Handlers) decodeAndValidate(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := decodeJSON(r, v); err != nil {
		WriteBadRequest(w, fmt.Sprintf("Invalid request body: %v", err))
		return false
	}
	if fields := h.validator.Struct(v); fields != nil {
		WriteValidationError(w, fields)
		return false
	}
	return true
}

// optionalDate reads an optional query parameter holding an AD (YYYY-MM-DD)
// or BS (YYYY/MM/DD) date.
func optionalDate(q url.Values, key string) (*database.Date, error) {
	s := q.Get(key)
	if s == "" {
		return nil, nil
	}
	d, err := calendar.ParseAnyDate(s)
	if err != nil {
		return nil, fmt.Errorf("invalid %s: %w", key, err)
	}
	return &d, nil
}

// dateRange reads the optional from/to query parameters.
func dateRange(q url.Values) (from, to *database.Date, err error) {
	if from, err = optionalDate(q, "from"); err != nil {
		return nil, nil, err
	}
	if to, err = optionalDate(q, "to"); err != nil {
		return nil, nil, err
	}
	if from != nil && to != nil && to.Before(from.Time) {
		return nil, nil, errors.New("from must be before or equal to to")
	}
	return from, to, nil
}
