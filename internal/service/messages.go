package service

import (
	"github.com/atlekbai/expansion_explorer/internal/results"
)

type LoginRequest struct {
	User          string `json:"user"`
	Password      string `json:"password"`
	PreviousToken string `json:"previous_token,omitempty"`
}

type LoginResponse struct {
	Token          string `json:"token"`
	User           string `json:"user"`
	AggregateCount int    `json:"aggregate_count"`
}

type LogoutRequest struct {
	Token string `json:"token"`
}

type LogoutResponse struct{}

type ListOptionsRequest struct {
	Token    string `json:"token"`
	DataType string `json:"data_type"`
}

// CategoryOptions lists the selectable labels of one category in display order.
type CategoryOptions struct {
	Category string   `json:"category"`
	Labels   []string `json:"labels"`
}

type ListOptionsResponse struct {
	DataType   string            `json:"data_type"`
	Categories []CategoryOptions `json:"categories"`
}

// QueryRequest is shared by Compile, RunQuery and the plot endpoint.
// Selection is keyed by category name (aggregate, binder, element_or_test,
// boosting, lithium).
type QueryRequest struct {
	Token     string              `json:"token"`
	DataType  string              `json:"data_type"`
	Selection map[string][]string `json:"selection"`
}

type CompileResponse struct {
	SQL    string `json:"sql"`
	Params []any  `json:"params"`
}

type RunQueryResponse struct {
	RowCount   int               `json:"row_count"`
	Message    string            `json:"message"`
	Rows       []results.Row     `json:"rows"`
	Series     []*results.Series `json:"series"`
	XAxisLabel string            `json:"x_axis_label"`
	YAxisLabel string            `json:"y_axis_label"`
}
