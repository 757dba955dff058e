package calendar

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/zapponejosh/pathshala-api/internal/database"
	"github.com/zapponejosh/pathshala-api/internal/nepali"
)

// Table is an externally published list of dated events for one category,
// such as a year's festival holidays. Dates may be given in AD or BS.
//
//	category: festival
//	events:
//	  - title: Bijaya Dashami
//	    bs_date: 2082/06/16
//	  - title: Laxmi Puja
//	    date: 2025-10-21
type Table struct {
	Category string       `json:"category" yaml:"category"`
	SchoolID string       `json:"school_id,omitempty" yaml:"school_id,omitempty"`
	Events   []TableEntry `json:"events" yaml:"events"`
}

// TableEntry is one row of a Table.
type TableEntry struct {
	Title       string `json:"title" yaml:"title"`
	Date        string `json:"date,omitempty" yaml:"date,omitempty"`       // AD, YYYY-MM-DD
	BSDate      string `json:"bs_date,omitempty" yaml:"bs_date,omitempty"` // BS, YYYY/MM/DD
	Type        string `json:"type,omitempty" yaml:"type,omitempty"`
	Description string `json:"description,omitempty" yaml:"description,omitempty"`
}

// LoadTable reads a table from a .json, .yaml or .yml file.
func LoadTable(path string) (*Table, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read table: %w", err)
	}
	return ParseTable(data, strings.TrimPrefix(filepath.Ext(path), "."))
}

// ParseTable decodes a table in the given format ("json", "yaml" or "yml").
func ParseTable(data []byte, format string) (*Table, error) {
	var t Table
	switch strings.ToLower(format) {
	case "json":
		if err := json.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse JSON table: %w", err)
		}
	case "yaml", "yml":
		if err := yaml.Unmarshal(data, &t); err != nil {
			return nil, fmt.Errorf("parse YAML table: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported table format %q", format)
	}
	return &t, nil
}

// CategoryType returns the table's category as an event type.
func (t *Table) CategoryType() (database.EventType, error) {
	return database.ParseEventType(t.Category)
}

// NewEvents converts the entries to events ready for ReplaceCategory.
// Entries that cannot be converted are returned as item errors and left out.
func (t *Table) NewEvents(createdBy string) ([]NewEvent, []ItemError) {
	events, _, failed := t.convert(createdBy)
	return events, failed
}

// convert is NewEvents plus, for each event, the index of its entry.
func (t *Table) convert(createdBy string) ([]NewEvent, []int, []ItemError) {
	events := make([]NewEvent, 0, len(t.Events))
	origin := make([]int, 0, len(t.Events))
	var failed []ItemError

	for i, entry := range t.Events {
		n, err := entry.newEvent(t.Category, t.SchoolID, createdBy)
		if err != nil {
			failed = append(failed, ItemError{Index: i, Title: entry.Title, Reason: err.Error()})
			continue
		}
		events = append(events, n)
		origin = append(origin, i)
	}
	return events, origin, failed
}

// ImportTable replaces the table's category, within the table's school,
// with its entries. Item errors carry the entry's position in the table.
func (s *EventStore) ImportTable(ctx context.Context, t *Table, createdBy string) (*ReplaceReport, error) {
	category, err := t.CategoryType()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidEvent, err)
	}

	items, origin, failed := t.convert(createdBy)
	report, err := s.ReplaceCategory(ctx, category, t.SchoolID, items)
	if err != nil {
		return nil, err
	}

	for i := range report.Failed {
		report.Failed[i].Index = origin[report.Failed[i].Index]
	}
	report.Failed = append(report.Failed, failed...)
	slices.SortFunc(report.Failed, func(a, b ItemError) int {
		return cmp.Compare(a.Index, b.Index)
	})
	return report, nil
}

func (e TableEntry) newEvent(category, schoolID, createdBy string) (NewEvent, error) {
	typeName := e.Type
	if typeName == "" {
		typeName = category
	}
	et, err := database.ParseEventType(typeName)
	if err != nil {
		return NewEvent{}, err
	}

	var date database.Date
	switch {
	case e.Date != "":
		date, err = database.ParseDate(e.Date)
		if err != nil {
			return NewEvent{}, err
		}
	case e.BSDate != "":
		bs, err := nepali.Parse(e.BSDate)
		if err != nil {
			return NewEvent{}, err
		}
		ad, err := bs.ToAD()
		if err != nil {
			return NewEvent{}, err
		}
		date = database.NewDate(ad)
	default:
		return NewEvent{}, fmt.Errorf("%w: date or bs_date is required", ErrInvalidEvent)
	}

	return NewEvent{
		Title:       e.Title,
		Date:        date,
		Type:        et,
		Description: e.Description,
		SchoolID:    schoolID,
		CreatedBy:   createdBy,
	}, nil
}
