package models

// Requests for the dashboard HTTP endpoints. Defined in domain for consistency and reuse.
//
// Weight and HistoryGrowth are pointers: 0 is a meaningful user choice
// (w=0 means pure historical growth), so the config default is applied only
// when the parameter is absent.

type ValuationRequest struct {
	Symbol        string   `query:"symbol" json:"symbol" validate:"required,min=1,max=12"`
	Weight        *float64 `query:"weight" json:"weight" validate:"omitempty,gte=0,lte=1"`
	HistoryGrowth *float64 `query:"history_growth" json:"history_growth" validate:"omitempty,gte=-1,lte=3"`
}

type ChartRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required,min=1,max=12"`
	Range  string `query:"range" json:"range" default:"5y" validate:"oneof=1mo 3mo 6mo 1y 2y 5y 10y"`
}
