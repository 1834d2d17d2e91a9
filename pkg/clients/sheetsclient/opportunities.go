package sheetsclient

import (
	"context"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/jakechorley/volunteer-match/pkg/db"
)

// Columns that must be present in the opportunities sheet header
var requiredOpportunityFields = []string{
	"ID",
	"Status",
	"Categories",
	"Start date",
	"Max volunteers",
}

// Columns read when present
var optionalOpportunityFields = []string{
	"Title",
	"Latitude",
	"Longitude",
	"Schedule",
	"Recurrence",
	"Slots",
	"Required skills",
	"Skill mode",
	"End date",
	"Current volunteers",
}

var dateLayouts = []string{"2006-01-02", time.RFC3339, "02/01/2006"}

// ValueGetter reads a range of cells from a spreadsheet
type ValueGetter interface {
	GetValues(ctx context.Context, spreadsheetID, sheetRange string) ([][]interface{}, error)
}

// OpportunitySheet reads the opportunity inventory from a spreadsheet tab
type OpportunitySheet struct {
	client        ValueGetter
	spreadsheetID string
	tab           string
	logger        *zap.Logger
}

var _ db.OpportunitySource = (*OpportunitySheet)(nil)

// NewOpportunitySheet creates an opportunity source backed by the given tab
func NewOpportunitySheet(client ValueGetter, spreadsheetID, tab string, logger *zap.Logger) *OpportunitySheet {
	return &OpportunitySheet{
		client:        client,
		spreadsheetID: spreadsheetID,
		tab:           tab,
		logger:        logger,
	}
}

// ListOpportunities retrieves and parses opportunities from the sheet, then
// applies the query. Rows that cannot be parsed are logged and skipped.
func (s *OpportunitySheet) ListOpportunities(ctx context.Context, query db.OpportunityQuery) ([]db.OpportunityRecord, error) {
	values, err := s.client.GetValues(ctx, s.spreadsheetID, s.tab)
	if err != nil {
		return nil, fmt.Errorf("failed to get opportunity data: %w", err)
	}

	if len(values) == 0 {
		return nil, fmt.Errorf("spreadsheet is empty")
	}

	records, rowErrs, err := parseOpportunities(values)
	if err != nil {
		return nil, fmt.Errorf("failed to parse opportunities: %w", err)
	}
	for _, rowErr := range rowErrs {
		s.logger.Warn("Skipping opportunity row", zap.Error(rowErr))
	}

	return filterOpportunities(records, query), nil
}

// filterOpportunities applies a query to parsed records, ordered by ID
func filterOpportunities(records []db.OpportunityRecord, query db.OpportunityQuery) []db.OpportunityRecord {
	wanted := make(map[string]bool, len(query.Categories))
	for _, c := range query.Categories {
		if n := normaliseCategory(c); n != "" {
			wanted[n] = true
		}
	}

	out := make([]db.OpportunityRecord, 0, len(records))
	for _, r := range records {
		if query.ActiveOnly && !strings.EqualFold(strings.TrimSpace(r.Status), "active") {
			continue
		}
		if len(wanted) > 0 && !slices.ContainsFunc(r.Categories, func(c string) bool { return wanted[normaliseCategory(c)] }) {
			continue
		}
		out = append(out, r)
	}

	slices.SortStableFunc(out, func(a, b db.OpportunityRecord) int {
		return strings.Compare(a.ID, b.ID)
	})

	if query.Limit > 0 && len(out) > query.Limit {
		out = out[:query.Limit]
	}
	return out
}

func normaliseCategory(c string) string {
	return strings.ToLower(strings.TrimSpace(c))
}

// parseOpportunities converts raw spreadsheet data into opportunity records.
// A missing required header fails the whole sheet; a bad row is returned as a
// row error and left out.
func parseOpportunities(raw [][]interface{}) ([]db.OpportunityRecord, []error, error) {
	if len(raw) < 1 {
		return nil, nil, fmt.Errorf("no header row found")
	}

	// Build field index map from header row
	fieldIndexes := make(map[string]int)
	headerRow := raw[0]

	findField := func(field string) int {
		for i, cell := range headerRow {
			if cellStr, ok := cell.(string); ok && strings.TrimSpace(cellStr) == field {
				return i
			}
		}
		return -1
	}

	for _, field := range requiredOpportunityFields {
		index := findField(field)
		if index == -1 {
			return nil, nil, fmt.Errorf("missing required field in header: %s", field)
		}
		fieldIndexes[field] = index
	}
	for _, field := range optionalOpportunityFields {
		if index := findField(field); index != -1 {
			fieldIndexes[field] = index
		}
	}

	// Helper to get field value from row
	getField := func(field string, row []interface{}) string {
		index, ok := fieldIndexes[field]
		if !ok {
			return ""
		}
		if index >= len(row) || row[index] == nil {
			return ""
		}
		if str, ok := row[index].(string); ok {
			return strings.TrimSpace(str)
		}
		return fmt.Sprint(row[index])
	}

	records := make([]db.OpportunityRecord, 0, len(raw)-1)
	var rowErrs []error
	for i := 1; i < len(raw); i++ {
		row := raw[i]

		id := getField("ID", row)
		// Skip empty rows (rows with no ID)
		if id == "" {
			continue
		}

		record, err := parseOpportunityRow(id, row, getField)
		if err != nil {
			rowErrs = append(rowErrs, fmt.Errorf("row %d (%s): %w", i+1, id, err))
			continue
		}
		records = append(records, record)
	}

	return records, rowErrs, nil
}

func parseOpportunityRow(id string, row []interface{}, getField func(string, []interface{}) string) (db.OpportunityRecord, error) {
	record := db.OpportunityRecord{
		ID:         id,
		Title:      getField("Title", row),
		Status:     strings.ToLower(getField("Status", row)),
		Categories: splitList(getField("Categories", row), ","),
		Recurrence: getField("Recurrence", row),
		Slots:      splitList(getField("Slots", row), ","),
		SkillMode:  strings.ToLower(getField("Skill mode", row)),
	}

	var err error
	if record.Latitude, err = parseOptionalFloat(getField("Latitude", row)); err != nil {
		return record, fmt.Errorf("invalid latitude: %w", err)
	}
	if record.Longitude, err = parseOptionalFloat(getField("Longitude", row)); err != nil {
		return record, fmt.Errorf("invalid longitude: %w", err)
	}
	if record.Schedule, err = parsePairs(getField("Schedule", row), func(v string) []string { return splitList(v, ",") }); err != nil {
		return record, fmt.Errorf("invalid schedule: %w", err)
	}
	if record.RequiredSkills, err = parsePairs(getField("Required skills", row), strings.ToLower); err != nil {
		return record, fmt.Errorf("invalid required skills: %w", err)
	}

	if record.StartDate, err = parseDate(getField("Start date", row)); err != nil {
		return record, fmt.Errorf("invalid start date: %w", err)
	}
	if end := getField("End date", row); end != "" {
		endDate, err := parseDate(end)
		if err != nil {
			return record, fmt.Errorf("invalid end date: %w", err)
		}
		record.EndDate = &endDate
	}

	if record.MaxVolunteers, err = strconv.Atoi(getField("Max volunteers", row)); err != nil {
		return record, fmt.Errorf("invalid max volunteers: %w", err)
	}
	if current := getField("Current volunteers", row); current != "" {
		if record.CurrentVolunteers, err = strconv.Atoi(current); err != nil {
			return record, fmt.Errorf("invalid current volunteers: %w", err)
		}
	}

	return record, nil
}

// splitList splits a delimited cell, trimming entries and dropping blanks
func splitList(s, sep string) []string {
	if s == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(s, sep) {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// parsePairs parses "key: value; key: value" cells. Keys are lowercased.
func parsePairs[V any](s string, value func(string) V) (map[string]V, error) {
	entries := splitList(s, ";")
	if len(entries) == 0 {
		return nil, nil
	}

	out := make(map[string]V, len(entries))
	for _, entry := range entries {
		key, val, ok := strings.Cut(entry, ":")
		key = strings.ToLower(strings.TrimSpace(key))
		if !ok || key == "" {
			return nil, fmt.Errorf("expected key: value, got %q", entry)
		}
		out[key] = value(strings.TrimSpace(val))
	}
	return out, nil
}

func parseOptionalFloat(s string) (*float64, error) {
	if s == "" {
		return nil, nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil, err
	}
	return &f, nil
}

func parseDate(s string) (time.Time, error) {
	if s == "" {
		return time.Time{}, fmt.Errorf("date is empty")
	}
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}
