package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
	"github.com/oceanprotocol/oceanlib/schema"
)

type ValidateDraftResponse struct {
	Valid      bool               `json:"valid"`
	Violations []schema.Violation `json:"violations"`
	Remote     *RemoteValidation  `json:"remote,omitempty"`
}

type RemoteValidation struct {
	Valid  bool           `json:"valid"`
	Hash   string         `json:"hash,omitempty"`
	Errors map[string]any `json:"errors,omitempty"`
}

// handleValidateDraft checks the draft against the embedded schema and, with
// ?remote=true, also asks the metadata cache.
func (s *Server) handleValidateDraft(e echo.Context) error {
	doc, err := s.loadDraft(e)
	if doc == nil {
		return err
	}

	violations, err := schema.Validate(doc)
	if errors.Is(err, ddo.ErrUnsupportedVersion) {
		return helpers.InputError(e, to.StringPtr("UnsupportedVersion"))
	}
	if err != nil {
		s.logger.Error("error validating draft", "did", doc.GetDID(), "error", err)
		return helpers.ServerError(e, nil)
	}

	resp := ValidateDraftResponse{
		Valid:      len(violations) == 0,
		Violations: violations,
	}
	if resp.Violations == nil {
		resp.Violations = []schema.Violation{}
	}

	if e.QueryParam("remote") == "true" {
		res, err := s.aquarius.ValidateRemote(e.Request().Context(), doc)
		if err != nil {
			s.logger.Error("error validating draft remotely", "did", doc.GetDID(), "error", err)
			return helpers.ServerError(e, to.StringPtr("Could not reach metadata cache"))
		}

		resp.Remote = &RemoteValidation{
			Valid:  res.Valid,
			Hash:   res.Hash,
			Errors: res.Errors,
		}
		resp.Valid = resp.Valid && res.Valid
	}

	return e.JSON(200, resp)
}
