package svg

import (
	"fmt"
	"strings"
	"testing"

	"github.com/finboard/finboard/internal/animation"
)

func TestRadialInitialState(t *testing.T) {
	out, err := Radial(60, RadialOpts{ID: "lucro-total", Title: "Lucro Total", Color: "green"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := string(out)
	if !strings.Contains(html, "class=\"circular-chart green\"") {
		t.Fatalf("expected colour class in %s", html)
	}
	if !strings.Contains(html, "data-widget-id=\"lucro-total\"") || !strings.Contains(html, "data-target=\"60\"") {
		t.Fatalf("expected widget data attributes in %s", html)
	}
	offset := fmt.Sprintf("stroke-dashoffset=\"%.4f\"", animation.Circumference)
	if !strings.Contains(html, offset) {
		t.Fatalf("expected empty arc %s in %s", offset, html)
	}
	if !strings.Contains(html, ">0%</text>") {
		t.Fatalf("expected 0%% label in %s", html)
	}
	if !strings.Contains(html, "lucro-total-radial-title") {
		t.Fatalf("expected title id in %s", html)
	}
}

func TestRadialFinalState(t *testing.T) {
	out, err := Radial(25, RadialOpts{Title: "Faturamento Produto", Final: true})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	html := string(out)
	offset := fmt.Sprintf("stroke-dashoffset=\"%.4f\"", animation.FinalOffset(25))
	if !strings.Contains(html, offset) {
		t.Fatalf("expected final offset %s in %s", offset, html)
	}
	if !strings.Contains(html, ">25%</text>") {
		t.Fatalf("expected 25%% label in %s", html)
	}
	if strings.Contains(html, "data-widget-id") {
		t.Fatalf("unexpected widget id in %s", html)
	}
	if !strings.Contains(html, "circular-chart blue") {
		t.Fatalf("expected default colour in %s", html)
	}
}

func TestRadialEscapesText(t *testing.T) {
	out, err := Radial(10, RadialOpts{Title: "<b>x</b>"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if strings.Contains(string(out), "<b>") {
		t.Fatalf("title not escaped: %s", out)
	}
}

func TestRadialRejectsOutOfRange(t *testing.T) {
	if _, err := Radial(101, RadialOpts{}); err == nil {
		t.Fatalf("expected error for 101")
	}
	if _, err := Radial(-1, RadialOpts{}); err == nil {
		t.Fatalf("expected error for -1")
	}
}
