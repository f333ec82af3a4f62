package mocks

import (
	"math"
	"math/rand"
	"strconv"

	"github.com/rxtech-lab/argo-realtime/pkg/marketdata/provider"
)

// QuoteGenerator produces provider tables whose prices follow a random walk.
type QuoteGenerator struct {
	rng    *rand.Rand
	config QuoteGeneratorConfig
	prices map[string]float64
	prev   map[string]float64
}

// QuoteGeneratorConfig configures how quotes are generated.
type QuoteGeneratorConfig struct {
	// Columns are the table columns: code, name, price and percent change, in that order.
	Columns [4]string
	// InitialPrice is the starting price of every code
	InitialPrice float64
	// Volatility controls price movement per call (0.01 = 1%)
	Volatility float64
}

// SinaStyleConfig returns a configuration emitting the Sina column names.
func SinaStyleConfig() QuoteGeneratorConfig {
	return QuoteGeneratorConfig{
		Columns:      [4]string{"代码", "名称", "最新价", "涨跌幅"},
		InitialPrice: 100.0,
		Volatility:   0.02,
	}
}

// NewQuoteGenerator creates a generator with the given seed.
// Use a fixed seed for reproducible results in tests.
func NewQuoteGenerator(seed int64, config QuoteGeneratorConfig) *QuoteGenerator {
	return &QuoteGenerator{
		rng:    rand.New(rand.NewSource(seed)),
		config: config,
		prices: make(map[string]float64),
		prev:   make(map[string]float64),
	}
}

// Next moves every code one step and returns the resulting table.
// The percent change is relative to the first price seen for the code.
func (g *QuoteGenerator) Next(codes []string) provider.Table {
	table := provider.NewTable(g.config.Columns[:]...)

	for _, code := range codes {
		price, ok := g.prices[code]
		if !ok {
			price = g.config.InitialPrice
			g.prev[code] = price
		}

		// Box-Muller transform for a normal step
		u1 := g.rng.Float64()
		u2 := g.rng.Float64()
		z := math.Sqrt(-2*math.Log(u1)) * math.Cos(2*math.Pi*u2)

		next := price * (1 + g.config.Volatility*z)
		if next <= 0 {
			next = price * 0.99
		}

		g.prices[code] = next

		pct := (next - g.prev[code]) / g.prev[code] * 100

		table.Append(
			code,
			"TEST "+code,
			strconv.FormatFloat(roundToDecimals(next, 2), 'f', 2, 64),
			strconv.FormatFloat(roundToDecimals(pct, 2), 'f', 2, 64),
		)
	}

	return table
}

// roundToDecimals rounds a float64 to the specified number of decimal places.
func roundToDecimals(val float64, decimals int) float64 {
	pow := math.Pow(10, float64(decimals))
	return math.Round(val*pow) / pow
}
