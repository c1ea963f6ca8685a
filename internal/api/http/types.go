package http

import (
	"errors"

	"github.com/GriffinCanCode/hquery"
)

// QueryRequest is the body of POST /query. Exactly one of HTML and URL,
// and exactly one of Query and Queries, must be set.
type QueryRequest struct {
	HTML    string            `json:"html"`
	URL     string            `json:"url"`
	Query   string            `json:"query"`
	Queries map[string]string `json:"queries"`
}

// Validate checks the one-of constraints
func (r *QueryRequest) Validate() error {
	switch {
	case r.HTML == "" && r.URL == "":
		return errors.New("one of html or url is required")
	case r.HTML != "" && r.URL != "":
		return errors.New("html and url are mutually exclusive")
	case r.Query == "" && len(r.Queries) == 0:
		return errors.New("one of query or queries is required")
	case r.Query != "" && len(r.Queries) > 0:
		return errors.New("query and queries are mutually exclusive")
	}
	for name, text := range r.Queries {
		if name == "" || text == "" {
			return errors.New("queries entries need a name and a query")
		}
	}
	return nil
}

// QueryResponse carries the result of one query. Node results are
// rendered as outer HTML.
type QueryResponse struct {
	Kind    string   `json:"kind"`
	Count   int      `json:"count"`
	Results []string `json:"results"`
}

func newQueryResponse(res *hquery.Result) QueryResponse {
	items := res.Strings()
	if items == nil {
		items = []string{}
	}
	return QueryResponse{Kind: res.Kind(), Count: res.Len(), Results: items}
}

// NamedResult is one entry of a multi-query response: a result or an
// error, never both
type NamedResult struct {
	*QueryResponse
	Error *ErrorResponse `json:"error,omitempty"`
}

// MultiQueryResponse maps query names to their outcomes
type MultiQueryResponse struct {
	Queries map[string]NamedResult `json:"queries"`
}

// ErrorResponse is returned with every non-2xx status. Kind is one of
// bad_request, lex_error, parse_error, eval_error, load_error,
// fetch_error or rate_limited.
type ErrorResponse struct {
	Error string `json:"error"`
	Kind  string `json:"kind"`
}
