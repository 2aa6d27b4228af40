package finance

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// DateLayout is the wire format of period boundaries.
const DateLayout = "2006-01-02"

// Period is an inclusive date range a snapshot was computed for.
type Period struct {
	From time.Time
	To   time.Time
}

// DefaultPeriod spans yesterday to today relative to now.
func DefaultPeriod(now time.Time) Period {
	today := truncateDay(now)
	return Period{From: today.AddDate(0, 0, -1), To: today}
}

// ParsePeriod reads YYYY-MM-DD boundaries, defaulting each missing side.
func ParsePeriod(from, to string, now time.Time) (Period, error) {
	period := DefaultPeriod(now)
	if s := strings.TrimSpace(from); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Period{}, fmt.Errorf("data_inicial: %w", err)
		}
		period.From = t
	}
	if s := strings.TrimSpace(to); s != "" {
		t, err := time.Parse(DateLayout, s)
		if err != nil {
			return Period{}, fmt.Errorf("data_final: %w", err)
		}
		period.To = t
	}
	return period, nil
}

// String renders the period as "from..to".
func (p Period) String() string {
	return p.From.Format(DateLayout) + ".." + p.To.Format(DateLayout)
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Filters are the dashboard query parameters.
type Filters struct {
	Period       Period
	Product      string
	Service      string
	TaskType     string
	Collaborator string
}

// Query encodes the filters using the dashboard parameter names, dropping
// empty values.
func (f Filters) Query() url.Values {
	q := url.Values{}
	if !f.Period.From.IsZero() {
		q.Set("data_inicial", f.Period.From.Format(DateLayout))
	}
	if !f.Period.To.IsZero() {
		q.Set("data_final", f.Period.To.Format(DateLayout))
	}
	set := func(key, value string) {
		if v := strings.TrimSpace(value); v != "" {
			q.Set(key, v)
		}
	}
	set("produto", f.Product)
	set("servico", f.Service)
	set("tipo_tarefa", f.TaskType)
	set("colaborador", f.Collaborator)
	return q
}

// Revenue holds billed amounts and the share of each line in the total.
type Revenue struct {
	Total        float64 `json:"total"`
	Product      float64 `json:"product"`
	Service      float64 `json:"service"`
	ProductShare float64 `json:"product_share"`
	ServiceShare float64 `json:"service_share"`
}

// Profit holds profit amounts, shares and the margin over revenue.
type Profit struct {
	Total        float64 `json:"total"`
	Product      float64 `json:"product"`
	Service      float64 `json:"service"`
	ProductShare float64 `json:"product_share"`
	ServiceShare float64 `json:"service_share"`
	Margin       float64 `json:"margin"`
}

// Summary is the financial snapshot of a user for a period.
type Summary struct {
	UserID  int64     `json:"user_id"`
	From    string    `json:"from"`
	To      string    `json:"to"`
	Revenue Revenue   `json:"revenue"`
	Profit  Profit    `json:"profit"`
	Updated time.Time `json:"updated_at,omitempty"`
}

// Option is one selectable value of a filter form.
type Option struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// FilterOptions lists the choices offered by the dashboard filter form.
type FilterOptions struct {
	Products      []Option `json:"products"`
	Services      []Option `json:"services"`
	Collaborators []Option `json:"collaborators"`
	TaskTypes     []Option `json:"task_types"`
}

// ZeroSummary is the summary shown when no snapshot could be read.
func ZeroSummary(userID int64, period Period) Summary {
	return Summary{
		UserID: userID,
		From:   period.From.Format(DateLayout),
		To:     period.To.Format(DateLayout),
	}
}
