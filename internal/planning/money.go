package planning

import (
	"math"
	"strings"
)

// Currency identifies the local currency of a destination.
type Currency struct {
	Code   string `json:"code" yaml:"code"`
	Symbol string `json:"symbol" yaml:"symbol"`
}

// Money is a localized, rounded estimate.
type Money struct {
	Estimate int    `json:"estimate" yaml:"estimate"`
	Currency string `json:"currency" yaml:"currency"`
}

// USD is the fallback currency.
var USD = Currency{Code: "USD", Symbol: "$"}

var destinationCurrencies = map[string]Currency{
	"tokyo": {Code: "JPY", Symbol: "¥"},
	"paris": {Code: "EUR", Symbol: "€"},
	"bali":  {Code: "IDR", Symbol: "Rp"},
}

// Conversion from USD baselines, with the rounding unit local prices use.
var (
	usdScale = map[string]float64{"USD": 1.0, "EUR": 0.95, "JPY": 150.0, "IDR": 16000.0}
	unitSize = map[string]int{"USD": 1, "EUR": 1, "JPY": 50, "IDR": 1000}
)

// CurrencyFor looks up the currency for destination. Only exact
// (case-insensitive) city names are known; everything else is USD.
func CurrencyFor(destination string) Currency {
	if c, ok := destinationCurrencies[strings.ToLower(strings.TrimSpace(destination))]; ok {
		return c
	}
	return USD
}

// Converter turns USD baseline amounts into local Money.
type Converter struct {
	currency Currency
	scale    float64
	unit     int
}

// NewConverter returns a converter for c. Unknown codes convert 1:1 with unit 1.
func NewConverter(c Currency) Converter {
	scale, ok := usdScale[c.Code]
	if !ok {
		scale = 1.0
	}
	unit, ok := unitSize[c.Code]
	if !ok {
		unit = 1
	}
	return Converter{currency: c, scale: scale, unit: unit}
}

// Currency returns the target currency.
func (c Converter) Currency() Currency {
	return c.currency
}

// FromUSD converts amount, rounding half-to-even to the currency unit and
// clamping at zero.
func (c Converter) FromUSD(amount float64) Money {
	raw := amount * c.scale
	rounded := math.RoundToEven(raw/float64(c.unit)) * float64(c.unit)
	if rounded < 0 {
		rounded = 0
	}
	return Money{Estimate: int(rounded), Currency: c.currency.Code}
}

// Amount wraps an already-local estimate.
func (c Converter) Amount(estimate int) Money {
	return Money{Estimate: estimate, Currency: c.currency.Code}
}

// Per-category activity cost in USD.
var baselineCosts = map[Category]float64{
	CategoryHiking:      0,
	CategoryWaterSports: 40,
	CategoryOutdoors:    0,
	CategoryWellness:    50,
	CategoryLeisure:     12,
	CategoryParks:       0,
	CategoryMuseum:      18,
	CategoryHistory:     0,
	CategoryArts:        45,
	CategoryFood:        22,
	CategoryClass:       55,
	CategorySightseeing: 0,
}

// BaselineCost returns the USD baseline for category; unknown categories are free.
func BaselineCost(category Category) float64 {
	return baselineCosts[category]
}

// Trip-level USD baselines.
const (
	flightsUSD           = 600
	accommodationNightly = 120
	localTransportDaily  = 12
	foodDaily            = 35
)
