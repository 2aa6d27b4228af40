package ui

import (
	"fmt"
	"html/template"
	"time"

	"github.com/finboard/finboard/internal/dashboard"
	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/finance/svg"
)

// RadialRenderer abstracts circular chart rendering for the dashboard cards.
type RadialRenderer interface {
	Radial(percent int, opts svg.RadialOpts) (template.HTML, error)
}

// RadialFunc adapts a function to RadialRenderer.
type RadialFunc func(percent int, opts svg.RadialOpts) (template.HTML, error)

// Radial implements RadialRenderer.
func (f RadialFunc) Radial(percent int, opts svg.RadialOpts) (template.HTML, error) {
	return f(percent, opts)
}

// CardView is a dashboard card ready for the template.
type CardView struct {
	ID          string
	Label       string
	Group       string
	Caption     string
	Amount      float64
	AmountText  string
	Percent     int
	PercentText string
	Color       string
	Chart       template.HTML
}

// TimingView exposes animation pacing in milliseconds for data attributes.
type TimingView struct {
	CounterMS int64 `json:"counter_ms"`
	ArcMS     int64 `json:"arc_ms"`
	StaggerMS int64 `json:"stagger_ms"`
	ArcLagMS  int64 `json:"arc_lag_ms"`
	StartupMS int64 `json:"startup_ms"`
}

// Tab is a header navigation entry.
type Tab struct {
	Key    string
	Label  string
	URL    string
	Active bool
}

// DashboardViewModel combines everything the dashboard page renders.
type DashboardViewModel struct {
	Filters    finance.Filters
	From       string
	To         string
	Query      string
	Options    finance.FilterOptions
	Revenue    []CardView
	Profit     []CardView
	Updated    time.Time
	StreamURL  string
	RefreshURL string
	ExportURL  string
	Timing     TimingView
	Tabs       []Tab
}

// ToTimingView converts animation timing to milliseconds.
func ToTimingView(t dashboard.Timing) TimingView {
	return TimingView{
		CounterMS: t.CounterDuration.Milliseconds(),
		ArcMS:     t.ArcDuration.Milliseconds(),
		StaggerMS: t.Stagger.Milliseconds(),
		ArcLagMS:  t.ArcLag.Milliseconds(),
		StartupMS: t.StartupDelay.Milliseconds(),
	}
}

// ToCardViews renders a chart for each card and splits them by group.
func ToCardViews(cards []finance.Card, render RadialRenderer) (revenue, profit []CardView, err error) {
	if render == nil {
		return nil, nil, fmt.Errorf("ui: radial renderer missing")
	}
	for _, card := range cards {
		color := "blue"
		if card.Group == "lucro" {
			color = "green"
		}
		chart, err := render.Radial(card.Percent, svg.RadialOpts{
			ID:          card.ID,
			Title:       card.Label,
			Description: card.Caption,
			Color:       color,
		})
		if err != nil {
			return nil, nil, fmt.Errorf("render %s: %w", card.ID, err)
		}
		view := CardView{
			ID:          card.ID,
			Label:       card.Label,
			Group:       card.Group,
			Caption:     card.Caption,
			Amount:      card.Amount,
			AmountText:  finance.FormatBRL(card.Amount),
			Percent:     card.Percent,
			PercentText: dashboard.FormatPercent(card.Percent),
			Color:       color,
			Chart:       chart,
		}
		if card.Group == "lucro" {
			profit = append(profit, view)
		} else {
			revenue = append(revenue, view)
		}
	}
	return revenue, profit, nil
}

// Tabs builds the header navigation with active marked.
func Tabs(active string) []Tab {
	tabs := []Tab{
		{Key: "geral", Label: "Visão Geral", URL: "/dashboard"},
		{Key: "detalhado", Label: "Relatório Detalhado", URL: "/relatorio-tarefas"},
	}
	for i := range tabs {
		tabs[i].Active = tabs[i].Key == active
	}
	return tabs
}

// TabURL resolves a tab key to its page; unknown keys return false.
func TabURL(key string) (string, bool) {
	for _, tab := range Tabs("") {
		if tab.Key == key {
			return tab.URL, true
		}
	}
	return "", false
}
