package tapestry

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Kind classifies an attachment
type Kind int

const (
	Image Kind = iota
	Video
)

func (k Kind) String() string {
	if k == Video {
		return "video"
	}
	return "image"
}

// Observation is one journal entry
type Observation struct {
	ID          string
	Date        time.Time
	Title       string
	Author      string
	Notes       string
	Attachments []Attachment
}

// Attachment is one media file of an observation
type Attachment struct {
	URL         string
	Kind        Kind
	ContentType string // as declared by the listing, may be empty
}

// DownloadTask is the unit of work for one attachment
type DownloadTask struct {
	ObservationID    string
	ObservationDate  time.Time
	ObservationTitle string
	Attachment       Attachment
}

// Tasks expands an observation into one task per attachment, in order
func (o Observation) Tasks() []DownloadTask {
	tasks := make([]DownloadTask, 0, len(o.Attachments))
	for _, a := range o.Attachments {
		tasks = append(tasks, DownloadTask{
			ObservationID:    o.ID,
			ObservationDate:  o.Date,
			ObservationTitle: o.Title,
			Attachment:       a,
		})
	}
	return tasks
}

// Payload is the body of a fetched attachment
type Payload struct {
	Data []byte
	// ContentType is sniffed from Data, not taken from response headers
	ContentType string
}

// RawMedia is a media entry exactly as the listing returns it
type RawMedia struct {
	URL         string `json:"url"`
	Type        string `json:"type"`
	ContentType string `json:"content_type"`
}

type listingPage struct {
	Observations []rawObservation `json:"observations"`
	HasMore      *bool            `json:"has_more"`
}

type rawObservation struct {
	ID     flexibleID `json:"id"`
	Title  string     `json:"title"`
	Date   string     `json:"date"`
	Author string     `json:"author"`
	Notes  string     `json:"notes"`
	Media  []RawMedia `json:"media"`
}

// flexibleID accepts both "123" and 123
type flexibleID string

func (f *flexibleID) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*f = ""
		return nil
	}
	if len(data) > 0 && data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*f = flexibleID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("observation id must be a string or number: %w", err)
	}
	*f = flexibleID(n.String())
	return nil
}

// Layouts accepted for observation dates. The last one is what the site
// prints on observation pages.
var dateLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
	"02 Jan 2006 03:04 PM",
	"2 Jan 2006 03:04 PM",
}

func parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognised date %q", s)
}

func (r rawObservation) toObservation() (Observation, error) {
	date, err := parseDate(r.Date)
	if err != nil {
		return Observation{}, fmt.Errorf("observation %s: %w", r.ID, err)
	}
	return Observation{
		ID:          string(r.ID),
		Date:        date,
		Title:       strings.TrimSpace(r.Title),
		Author:      strings.TrimSpace(r.Author),
		Notes:       strings.TrimSpace(r.Notes),
		Attachments: ResolveAttachments(r.Media),
	}, nil
}
