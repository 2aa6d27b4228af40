// Package export serialises dashboard snapshots for download.
package export

import (
	"encoding/csv"
	"io"
	"strconv"

	"github.com/finboard/finboard/internal/finance"
)

// WriteSummaryCSV writes the snapshot amounts for a period.
func WriteSummaryCSV(w io.Writer, summary finance.Summary) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Metrica", "Valor"}); err != nil {
		return err
	}
	records := [][]string{
		{"Periodo inicial", summary.From},
		{"Periodo final", summary.To},
		{"Faturamento Total", formatFloat(summary.Revenue.Total)},
		{"Faturamento Produto", formatFloat(summary.Revenue.Product)},
		{"Faturamento Servico", formatFloat(summary.Revenue.Service)},
		{"Lucro Total", formatFloat(summary.Profit.Total)},
		{"Lucro Produto", formatFloat(summary.Profit.Product)},
		{"Lucro Servico", formatFloat(summary.Profit.Service)},
		{"Margem de Lucro (%)", formatFloat(summary.Profit.Margin)},
	}
	if err := writer.WriteAll(records); err != nil {
		return err
	}
	return writer.Error()
}

// WriteCardsCSV writes one row per dashboard card.
func WriteCardsCSV(w io.Writer, cards []finance.Card) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"Card", "Grupo", "Valor", "Percentual"}); err != nil {
		return err
	}
	for _, card := range cards {
		if err := writer.Write([]string{card.Label, card.Group, formatFloat(card.Amount), strconv.Itoa(card.Percent)}); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
