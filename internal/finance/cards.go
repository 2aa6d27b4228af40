package finance

import (
	"fmt"
	"math"
	"strings"

	"github.com/finboard/finboard/internal/animation"
)

// TotalRevenueMode selects the percentage shown on the total revenue card.
type TotalRevenueMode string

const (
	// TotalRevenueFull always shows 100%.
	TotalRevenueFull TotalRevenueMode = "full"
	// TotalRevenueMargin shows the profit margin.
	TotalRevenueMargin TotalRevenueMode = "margin"
)

// ParseTotalRevenueMode accepts "full" or "margin"; empty means full.
func ParseTotalRevenueMode(s string) (TotalRevenueMode, error) {
	switch TotalRevenueMode(strings.ToLower(strings.TrimSpace(s))) {
	case "", TotalRevenueFull:
		return TotalRevenueFull, nil
	case TotalRevenueMargin:
		return TotalRevenueMargin, nil
	default:
		return "", fmt.Errorf("finance: unknown total revenue mode %q", s)
	}
}

// Card identifiers, in display order.
const (
	CardRevenueTotal   = "faturamento-total"
	CardRevenueProduct = "faturamento-produto"
	CardRevenueService = "faturamento-servico"
	CardProfitTotal    = "lucro-total"
	CardProfitProduct  = "lucro-produto"
	CardProfitService  = "lucro-servico"
)

// Card is one circular chart widget of the dashboard.
type Card struct {
	ID      string  `json:"id"`
	Label   string  `json:"label"`
	Group   string  `json:"group"`
	Amount  float64 `json:"amount"`
	Percent int     `json:"percent"`
	Caption string  `json:"caption"`
}

// BuildCards maps a summary onto the six dashboard cards.
func BuildCards(s Summary, mode TotalRevenueMode) []Card {
	totalPct := 100.0
	totalCaption := "do faturamento"
	if mode == TotalRevenueMargin {
		totalPct = s.Profit.Margin
		totalCaption = "margem de lucro"
	}
	return []Card{
		{ID: CardRevenueTotal, Label: "Faturamento Total", Group: "faturamento", Amount: s.Revenue.Total, Percent: percent(totalPct), Caption: totalCaption},
		{ID: CardRevenueProduct, Label: "Faturamento Produto", Group: "faturamento", Amount: s.Revenue.Product, Percent: percent(s.Revenue.ProductShare), Caption: "do faturamento total"},
		{ID: CardRevenueService, Label: "Faturamento Serviço", Group: "faturamento", Amount: s.Revenue.Service, Percent: percent(s.Revenue.ServiceShare), Caption: "do faturamento total"},
		{ID: CardProfitTotal, Label: "Lucro Total", Group: "lucro", Amount: s.Profit.Total, Percent: percent(s.Profit.Margin), Caption: "margem de lucro"},
		{ID: CardProfitProduct, Label: "Lucro Produto", Group: "lucro", Amount: s.Profit.Product, Percent: percent(s.Profit.ProductShare), Caption: "do lucro total"},
		{ID: CardProfitService, Label: "Lucro Serviço", Group: "lucro", Amount: s.Profit.Service, Percent: percent(s.Profit.ServiceShare), Caption: "do lucro total"},
	}
}

func percent(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return animation.ClampPercent(int(math.Round(math.Max(math.Min(v, 1000), -1000))))
}
