package finance

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFormatBRL(t *testing.T) {
	assert.Equal(t, "R$ 0,00", FormatBRL(0))
	assert.Equal(t, "R$ 1.234,56", FormatBRL(1234.56))
	assert.Equal(t, "-R$ 10,50", FormatBRL(-10.5))
}

func TestFormatShare(t *testing.T) {
	assert.Equal(t, "12,5%", FormatShare(12.5))
}
