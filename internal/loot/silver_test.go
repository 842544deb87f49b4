package loot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSilverString(t *testing.T) {
	assert.Equal(t, "0.00", Silver(0).String())
	assert.Equal(t, "999.00", Silver(999).String())
	assert.Equal(t, "1.50K", Silver(1500).String())
	assert.Equal(t, "2.35M", Silver(2_350_000).String())
	assert.Equal(t, "7.00B", Silver(7_000_000_000).String())
	assert.Equal(t, "1.00T", Silver(1_000_000_000_000).String())
	assert.Equal(t, "1000.00T", Silver(1_000_000_000_000_000).String())
}

func TestSilverArithmetic(t *testing.T) {
	price := Silver(1_250)
	assert.Equal(t, Silver(8_750), price.Times(7))

	total := Silver(1)
	total += Silver(2)
	assert.Equal(t, Silver(3), total)
}
