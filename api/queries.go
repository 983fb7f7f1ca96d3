package api

import (
	"net/http"

	"github.com/thisisjab/jitsoql/fault"
	"github.com/thisisjab/jitsoql/soql"
	"github.com/thisisjab/jitsoql/soql/ast"
)

type queryTextRequest struct {
	Query string `json:"query"`
}

func (req queryTextRequest) validate() error {
	if req.Query == "" {
		return fault.New(fault.BadInputCode, "").WithMetadata(fault.FieldErrorsMetadata{
			"query": []string{"This field is required."},
		})
	}
	return nil
}

type variableResponse struct {
	Name         string  `json:"name"`
	DefaultValue *string `json:"defaultValue,omitempty"`
	Quoted       bool    `json:"quoted"`
	Text         string  `json:"text"`
}

func variablesResponse(q *ast.Query) []variableResponse {
	vars := soql.Variables(q)
	out := make([]variableResponse, 0, len(vars))
	for _, v := range vars {
		out = append(out, variableResponse{Name: v.Variable, DefaultValue: v.DefaultValue, Quoted: v.Quoted(), Text: v.TextValue})
	}
	return out
}

// parseQueryHandler returns the tree of a query.
func (s *server) parseQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req queryTextRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}
	if s.returnOnError(w, r, req.validate()) {
		return
	}

	q, err := soql.ParseQuery(req.Query)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    map[string]any{"query": q},
	})
}

type composeRequest struct {
	Query *ast.Query `json:"query"`
}

// composeQueryHandler turns a tree back into query text.
func (s *server) composeQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req composeRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}

	text, err := soql.ComposeQuery(req.Query)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    map[string]any{"query": text},
	})
}

// validateQueryHandler always answers 200; an invalid query is reported in
// the payload.
func (s *server) validateQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req queryTextRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}
	if s.returnOnError(w, r, req.validate()) {
		return
	}

	data := map[string]any{"valid": true}
	if _, err := soql.ParseQuery(req.Query); err != nil {
		data["valid"] = false
		data["error"] = queryErrorResponse(err)
	}

	s.writeJson(w, http.StatusOK, apiResponse{Success: true, Data: data}) //nolint:errcheck
}

// variablesHandler lists the variables a query references.
func (s *server) variablesHandler(w http.ResponseWriter, r *http.Request) {
	var req queryTextRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}
	if s.returnOnError(w, r, req.validate()) {
		return
	}

	q, err := soql.ParseQuery(req.Query)
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    map[string]any{"variables": variablesResponse(q)},
	})
}

type bindRequest struct {
	Query  string            `json:"query"`
	Values map[string]string `json:"values"`
}

// bindQueryHandler substitutes values into a query.
func (s *server) bindQueryHandler(w http.ResponseWriter, r *http.Request) {
	var req bindRequest
	if s.returnOnError(w, r, s.readJson(w, r, &req)) {
		return
	}
	if s.returnOnError(w, r, queryTextRequest{Query: req.Query}.validate()) {
		return
	}

	q, err := soql.ParseQuery(req.Query)
	if s.returnOnError(w, r, err) {
		return
	}

	bound, err := soql.Bind(q, soql.MapResolver(req.Values))
	if s.returnOnError(w, r, err) {
		return
	}

	s.writeJson(w, http.StatusOK, apiResponse{ //nolint:errcheck
		Success: true,
		Data:    map[string]any{"query": bound},
	})
}
