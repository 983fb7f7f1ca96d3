package api

import (
	"errors"
	"net/http"

	"github.com/thisisjab/jitsoql/fault"
)

// returnOnError writes the error response for err, if any, and reports
// whether the handler should stop.
func (s *server) returnOnError(w http.ResponseWriter, r *http.Request, err error) bool {
	if err == nil {
		return false
	}
	s.handleError(w, r, err)
	return true
}

func (s *server) handleError(w http.ResponseWriter, r *http.Request, err error) {
	var f fault.Fault
	if errors.As(err, &f) {
		switch f.Code() {
		case fault.BadInputCode:
			if md, ok := f.Metadata().(fault.FieldErrorsMetadata); ok {
				// This is a 422 error since it's related to specific field
				s.writeError(w, r, http.StatusUnprocessableEntity, apiResponse{
					Success: false,
					Message: f.Message(),
					Metadata: map[string]any{
						"fields": md,
					},
				})
			} else {
				// This is a 400 as it's a bad request with no metadata or unknown metadata
				res := apiResponse{Success: false, Message: f.Message()}
				if f.Metadata() != nil {
					res.Metadata = map[string]any{"context": f.Metadata()}
				}
				s.writeError(w, r, http.StatusBadRequest, res)
			}

		case fault.LexicalCode, fault.StructuralCode:
			// The request was well-formed, the query inside it was not.
			s.writeError(w, r, http.StatusUnprocessableEntity, apiResponse{
				Success:  false,
				Message:  f.Error(),
				Metadata: map[string]any{"query_error": queryErrorResponse(f)},
			})

		case fault.NotFoundCode:
			m := f.Message()
			if m == "" {
				m = "Requested resource not found."
			}

			res := apiResponse{Success: false, Message: m}

			if f.Metadata() != nil {
				res.Metadata = map[string]any{"context": f.Metadata()}
			}

			s.writeError(w, r, http.StatusNotFound, res)

		default:
			s.internalServerError(w, r, f)
		}

		return
	}

	s.internalServerError(w, r, err)
}

type queryError struct {
	Code     fault.Code              `json:"code"`
	Message  string                  `json:"message"`
	Position *fault.PositionMetadata `json:"position,omitempty"`
}

func queryErrorResponse(err error) queryError {
	var f fault.Fault
	if !errors.As(err, &f) {
		return queryError{Code: fault.UnknownCode, Message: err.Error()}
	}

	qe := queryError{Code: f.Code(), Message: f.Message()}
	if pos, ok := f.Position(); ok {
		qe.Position = &pos
	}
	return qe
}

func (s *server) logError(r *http.Request, err error) {
	s.logger.Error("internal server error", "method", r.Method, "path", r.RequestURI, "remote-addr", r.RemoteAddr, "request-id", requestIDFrom(r.Context()), "error", err)
}

func (s *server) writeError(w http.ResponseWriter, r *http.Request, status int, response apiResponse) {
	s.writeJson(w, status, response) //nolint:errcheck
}

func (s *server) internalServerError(w http.ResponseWriter, r *http.Request, err error) {
	s.logError(r, err)
	s.writeError(w, r, http.StatusInternalServerError, apiResponse{Success: false, Message: "Internal server error"})
}
