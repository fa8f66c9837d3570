package model

import "math"

// Field selects one numeric column of a RawPoint.
type Field string

const (
	FieldOpen   Field = "abertura"
	FieldHigh   Field = "maxima"
	FieldLow    Field = "minima"
	FieldClose  Field = "fechamento"
	FieldVolume Field = "volume"
)

// RawPoint is one quote observation as sent by the backend. Daily points
// carry only Date; intraday points also carry Time (HH:MM) and Timestamp.
type RawPoint struct {
	Date      string   `json:"data"`
	Time      string   `json:"hora,omitempty"`
	Timestamp string   `json:"timestamp,omitempty"`
	Open      *float64 `json:"abertura"`
	High      *float64 `json:"maxima"`
	Low       *float64 `json:"minima"`
	Close     *float64 `json:"fechamento"`
	Volume    *float64 `json:"volume"`
}

// Value returns the selected field, or NaN when it is missing.
func (p RawPoint) Value(f Field) float64 {
	var v *float64
	switch f {
	case FieldOpen:
		v = p.Open
	case FieldHigh:
		v = p.High
	case FieldLow:
		v = p.Low
	case FieldClose:
		v = p.Close
	case FieldVolume:
		v = p.Volume
	}
	if v == nil {
		return math.NaN()
	}
	return *v
}

// OHLC returns the four price fields, NaN for the missing ones.
func (p RawPoint) OHLC() OHLC {
	return OHLC{
		Open:  p.Value(FieldOpen),
		High:  p.Value(FieldHigh),
		Low:   p.Value(FieldLow),
		Close: p.Value(FieldClose),
	}
}

// OHLC is one candlestick without a time axis.
type OHLC struct {
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// RawDividend is one distribution record from the backend.
type RawDividend struct {
	PaymentDate string   `json:"data_pagamento"`
	RecordDate  string   `json:"data_com"`
	Date        string   `json:"data,omitempty"`
	Amount      *float64 `json:"valor"`
}

// SeriesPoint is a normalized, display-ready observation. Value is NaN when
// the source field was missing.
type SeriesPoint struct {
	Timestamp string
	Value     float64
	Label     string
}

// Series is an ascending sequence of points plus its granularity.
type Series struct {
	Points   []SeriesPoint
	Intraday bool
}

// Values projects the series onto its numeric values.
func (s Series) Values() []float64 {
	out := make([]float64, len(s.Points))
	for i, p := range s.Points {
		out[i] = p.Value
	}
	return out
}

// Len returns the number of points.
func (s Series) Len() int { return len(s.Points) }

// AveragePoint pairs a series point with its trailing moving average.
// Valid is false for the first window-1 points.
type AveragePoint struct {
	SeriesPoint
	Average float64
	Valid   bool
}

// Statistics summarises the finite values of a series.
type Statistics struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Avg   float64 `json:"avg"`
	Total float64 `json:"total"`
	Count int     `json:"count"`
}

// DomainRange is a [Low, High] chart axis.
type DomainRange struct {
	Low  float64 `json:"low"`
	High float64 `json:"high"`
}
