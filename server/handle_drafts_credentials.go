package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
)

type DraftCredentialsRequest struct {
	Class   string `json:"class" validate:"required,oneof=allow deny"`
	Address string `json:"address" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=add remove"`
}

type DraftCredentialsResponse struct {
	Allow []string `json:"allow"`
	Deny  []string `json:"deny"`
}

func (s *Server) handleDraftCredentials(e echo.Context) error {
	var req DraftCredentialsRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error binding", "error", err)
		return helpers.InputError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		s.logger.Warn("error validating", "error", err)
		return helpers.InputError(e, nil)
	}

	defer s.draftLocks.lock(e.Param("did"))()

	doc, err := s.loadDraft(e)
	if doc == nil {
		return err
	}

	creds := credentialsOf(doc)
	if creds == nil {
		return helpers.InputError(e, to.StringPtr("UnsupportedVersion"))
	}

	switch req.Action {
	case "add":
		err = creds.AddAddress(req.Class, req.Address)
	case "remove":
		err = creds.RemoveAddress(req.Class, req.Address)
	}
	if errors.Is(err, credentials.ErrMalformedCredential) {
		return helpers.InputError(e, to.StringPtr("MalformedCredential"))
	}
	if err != nil {
		s.logger.Error("error updating credentials", "did", doc.GetDID(), "error", err)
		return helpers.ServerError(e, nil)
	}

	if err := s.drafts.Save(e.Request().Context(), doc); err != nil {
		s.logger.Error("error saving draft", "did", doc.GetDID(), "error", err)
		return helpers.ServerError(e, nil)
	}

	allow, _ := creds.AddressesOfClass(credentials.ClassAllow)
	deny, _ := creds.AddressesOfClass(credentials.ClassDeny)

	return e.JSON(200, DraftCredentialsResponse{
		Allow: allow,
		Deny:  deny,
	})
}
