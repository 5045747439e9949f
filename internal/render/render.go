package render

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/template"
	"time"

	"github.com/vukan322/devactivity/internal/core"
	"github.com/vukan322/devactivity/internal/reconcile"
)

// recentLines caps the recent-activity listing in the text summary.
const recentLines = 10

//go:embed templates/summary.txt.tmpl
var summaryTemplate string

var summaryTmpl = template.Must(
	template.New("summary").
		Funcs(template.FuncMap{
			"join": strings.Join,
		}).
		Parse(summaryTemplate),
)

type sources struct {
	Snapshot string `json:"snapshot"`
	Live     string `json:"live"`
}

// Document is what the rendering layer consumes.
type Document struct {
	Handle      string               `json:"handle"`
	RunID       string               `json:"runId"`
	GeneratedAt time.Time            `json:"generatedAt"`
	Today       core.Date            `json:"today"`
	Stats       core.AggregateStats  `json:"stats"`
	Calendar    core.ContributionMap `json:"calendar"`
	Sources     sources              `json:"sources"`
	Failures    []string             `json:"failures,omitempty"`
}

func NewDocument(handle string, r reconcile.Result) Document {
	doc := Document{
		Handle:      handle,
		RunID:       r.RunID,
		GeneratedAt: r.GeneratedAt,
		Today:       r.Today,
		Stats:       r.Stats,
		Calendar:    r.Calendar,
		Sources: sources{
			Snapshot: r.Snapshot.String(),
			Live:     r.Live.String(),
		},
	}
	for _, f := range r.Failures {
		doc.Failures = append(doc.Failures, f.Error())
	}
	return doc
}

func JSON(handle string, r reconcile.Result) ([]byte, error) {
	data, err := json.MarshalIndent(NewDocument(handle, r), "", "  ")
	if err != nil {
		return nil, fmt.Errorf("render json: %w", err)
	}
	return append(data, '\n'), nil
}

type summaryViewModel struct {
	Document
	Snapshot string
	Live     string
	Recent   []core.DailyActivity
}

func Text(handle string, r reconcile.Result) ([]byte, error) {
	doc := NewDocument(handle, r)
	recent := r.Stats.RecentActivity
	if len(recent) > recentLines {
		recent = recent[:recentLines]
	}

	vm := summaryViewModel{
		Document: doc,
		Snapshot: doc.Sources.Snapshot,
		Live:     doc.Sources.Live,
		Recent:   recent,
	}

	var buf bytes.Buffer
	if err := summaryTmpl.Execute(&buf, vm); err != nil {
		return nil, fmt.Errorf("render text: %w", err)
	}
	return buf.Bytes(), nil
}

// Calendar writes one "date count" line per day, oldest first.
func Calendar(w io.Writer, m core.ContributionMap) error {
	for _, d := range core.SortedDates(m) {
		if _, err := fmt.Fprintf(w, "%s %d\n", d, m[d]); err != nil {
			return fmt.Errorf("render calendar: %w", err)
		}
	}
	return nil
}
