package ui

import (
	"errors"
	"html/template"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/finboard/finboard/internal/dashboard"
	"github.com/finboard/finboard/internal/finance"
	"github.com/finboard/finboard/internal/finance/svg"
)

func TestToCardViewsSplitsGroups(t *testing.T) {
	summary := finance.Summary{
		Revenue: finance.Revenue{Total: 1000, Product: 600, Service: 400, ProductShare: 60, ServiceShare: 40},
		Profit:  finance.Profit{Total: 760, Product: 360, Service: 400, ProductShare: 47.37, ServiceShare: 52.63, Margin: 76},
	}
	var colors []string
	render := RadialFunc(func(percent int, opts svg.RadialOpts) (template.HTML, error) {
		colors = append(colors, opts.Color)
		return svg.Radial(percent, opts)
	})

	revenue, profit, err := ToCardViews(finance.BuildCards(summary, finance.TotalRevenueFull), render)
	require.NoError(t, err)
	require.Len(t, revenue, 3)
	require.Len(t, profit, 3)
	assert.Equal(t, "blue", revenue[0].Color)
	assert.Equal(t, "green", profit[0].Color)
	assert.Equal(t, "60%", revenue[1].PercentText)
	assert.Contains(t, string(revenue[0].Chart), "circular-chart")
	assert.Equal(t, []string{"blue", "blue", "blue", "green", "green", "green"}, colors)
}

func TestToCardViewsPropagatesRenderError(t *testing.T) {
	render := RadialFunc(func(int, svg.RadialOpts) (template.HTML, error) {
		return "", errors.New("boom")
	})
	_, _, err := ToCardViews([]finance.Card{{ID: "faturamento-total"}}, render)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "faturamento-total")

	if _, _, err := ToCardViews(nil, nil); err == nil {
		t.Fatal("expected error for missing renderer")
	}
}

func TestToTimingViewMilliseconds(t *testing.T) {
	view := ToTimingView(dashboard.Timing{
		CounterDuration: 1200 * time.Millisecond,
		ArcDuration:     1500 * time.Millisecond,
		Stagger:         300 * time.Millisecond,
		ArcLag:          100 * time.Millisecond,
		StartupDelay:    time.Second,
	})
	assert.Equal(t, TimingView{CounterMS: 1200, ArcMS: 1500, StaggerMS: 300, ArcLagMS: 100, StartupMS: 1000}, view)
}

func TestTabsMarkActive(t *testing.T) {
	tabs := Tabs("detalhado")
	require.Len(t, tabs, 2)
	assert.False(t, tabs[0].Active)
	assert.True(t, tabs[1].Active)

	url, ok := TabURL("geral")
	assert.True(t, ok)
	assert.Equal(t, "/dashboard", url)
	_, ok = TabURL("financeiro")
	assert.False(t, ok)
}
