// Package models defines the records the console reads from and writes to
// the pipeline backend: leads, board items, marketing visuals and weekly
// reports.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ID is an opaque, server-assigned identifier. The backend emits integers
// but the console never does arithmetic on them, so any JSON scalar is
// accepted and kept as text.
type ID string

func (id ID) String() string { return string(id) }

func (id *ID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*id = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*id = ID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("id must be a string or a number: %w", err)
	}
	*id = ID(n.String())
	return nil
}

// MarshalJSON writes numeric ids back as numbers so PATCH bodies and paths
// look exactly like what the backend produced. Text that is not the
// canonical form of an integer ("007", "+5") stays a string.
func (id ID) MarshalJSON() ([]byte, error) {
	if n, err := strconv.ParseInt(string(id), 10, 64); err == nil && strconv.FormatInt(n, 10) == string(id) {
		return []byte(id), nil
	}
	return json.Marshal(string(id))
}

// Entity is anything kept in a collection snapshot.
type Entity interface {
	EntityID() ID
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

// Timestamp decodes the time formats the backend is known to produce.
// Values without a zone are taken as UTC.
type Timestamp struct {
	time.Time
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if s == "" || s == "null" {
		t.Time = time.Time{}
		return nil
	}
	for _, layout := range timestampLayouts {
		if v, err := time.Parse(layout, s); err == nil {
			t.Time = v.UTC()
			return nil
		}
	}
	return fmt.Errorf("unsupported timestamp %q", s)
}

func (t Timestamp) MarshalJSON() ([]byte, error) {
	if t.IsZero() {
		return []byte("null"), nil
	}
	return json.Marshal(t.Time.Format(time.RFC3339Nano))
}

// Position is a point on the board canvas, in canvas units.
type Position struct {
	X float64 `json:"position_x"`
	Y float64 `json:"position_y"`
}

// BoardItem is a note pinned on the idea board.
type BoardItem struct {
	ID          ID      `json:"id"`
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Color       string  `json:"color"`
	X           float64 `json:"position_x"`
	Y           float64 `json:"position_y"`
	Size        float64 `json:"size,omitempty"`
}

func (b BoardItem) EntityID() ID { return b.ID }

func (b BoardItem) Position() Position { return Position{X: b.X, Y: b.Y} }

// Move sets the item's local position.
func (b *BoardItem) Move(p Position) {
	b.X, b.Y = p.X, p.Y
}

// NewBoardItem is the field set sent when creating a board item.
type NewBoardItem struct {
	Title       string  `json:"title"`
	Description *string `json:"description,omitempty"`
	Category    *string `json:"category,omitempty"`
	Color       string  `json:"color"`
	X           float64 `json:"position_x"`
	Y           float64 `json:"position_y"`
}

// VisualStatus is the lifecycle stage of a marketing visual.
type VisualStatus string

const (
	VisualDraft     VisualStatus = "draft"
	VisualApproved  VisualStatus = "approved"
	VisualGenerated VisualStatus = "generated"
)

// Visual is a marketing visual moving through approval and generation.
type Visual struct {
	ID          ID           `json:"id"`
	Title       string       `json:"title"`
	Subtitle    *string      `json:"subtitle,omitempty"`
	Description *string      `json:"description,omitempty"`
	Status      VisualStatus `json:"status"`
	ImagePath   *string      `json:"image_path,omitempty"`
	CreatedAt   Timestamp    `json:"created_at"`
}

func (v Visual) EntityID() ID { return v.ID }

// NewVisual is the field set sent when creating a visual.
type NewVisual struct {
	Title       string  `json:"title"`
	Subtitle    *string `json:"subtitle,omitempty"`
	Description *string `json:"description,omitempty"`
}

// Report is a weekly business report. Reports are produced by a backend
// job and are read-only for the console.
type Report struct {
	ID             ID        `json:"id"`
	PeriodStart    Timestamp `json:"period_start"`
	PeriodEnd      Timestamp `json:"period_end"`
	TotalLeads     int       `json:"total_leads"`
	TotalBudget    float64   `json:"total_budget"`
	AverageQuality float64   `json:"average_quality"`
	CostPerLead    float64   `json:"cost_per_lead"`
	Alerts         []string  `json:"alerts"`
}

func (r Report) EntityID() ID { return r.ID }

// Lead is an inbound prospect captured by the pipeline. Read-only.
type Lead struct {
	ID           ID        `json:"id"`
	Name         *string   `json:"name,omitempty"`
	Phone        string    `json:"phone"`
	Email        *string   `json:"email,omitempty"`
	Message      *string   `json:"message,omitempty"`
	SMSSent      bool      `json:"sms_sent"`
	WhatsAppSent bool      `json:"whatsapp_sent"`
	CreatedAt    Timestamp `json:"created_at"`
}

func (l Lead) EntityID() ID { return l.ID }

// DisplayName returns the lead's name or a placeholder when it is unknown.
func (l Lead) DisplayName() string {
	if l.Name == nil || strings.TrimSpace(*l.Name) == "" {
		return "(no name)"
	}
	return *l.Name
}

// LeadStats is the aggregate served by the leads summary endpoint.
type LeadStats struct {
	Total          int     `json:"total"`
	SMSSent        int     `json:"sms_sent"`
	WhatsAppSent   int     `json:"whatsapp_sent"`
	AverageQuality float64 `json:"average_quality"`
}

// Deref returns *s or "" for nil.
func Deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Ptr returns nil for an empty string, a pointer to s otherwise.
func Ptr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
