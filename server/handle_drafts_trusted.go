package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/assets"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
)

type DraftTrustedAlgorithmRequest struct {
	Did    string `json:"did" validate:"required,ocean-did"`
	Action string `json:"action" validate:"required,oneof=add remove"`
}

type DraftTrustedPublisherRequest struct {
	Address string `json:"address" validate:"required"`
	Action  string `json:"action" validate:"required,oneof=add remove"`
}

// draftComputeService loads the draft and the service named in the path.
// Only V4 drafts carry compute services.
func (s *Server) draftComputeService(e echo.Context) (*ddo.Asset, *ddo.Service, error) {
	doc, err := s.loadDraft(e)
	if doc == nil {
		return nil, nil, err
	}

	a, ok := doc.(*ddo.Asset)
	if !ok {
		return nil, nil, helpers.InputError(e, to.StringPtr("UnsupportedVersion"))
	}

	svc := a.ServiceByID(e.Param("serviceId"))
	if svc == nil {
		return nil, nil, helpers.NotFoundError(e, to.StringPtr("ServiceNotFound"))
	}

	return a, svc, nil
}

func (s *Server) trustedError(e echo.Context, err error) error {
	switch {
	case errors.Is(err, assets.ErrNotCompute):
		return helpers.InputError(e, to.StringPtr("NotComputeService"))
	case errors.Is(err, assets.ErrNotTrusted):
		return helpers.InputError(e, to.StringPtr("NotTrusted"))
	case errors.Is(err, assets.ErrAlgoNotResolved):
		return helpers.NotFoundError(e, to.StringPtr("AlgorithmNotFound"))
	case errors.Is(err, assets.ErrNotAlgorithm):
		return helpers.InputError(e, to.StringPtr("NotAnAlgorithm"))
	default:
		s.logger.Error("error updating trusted algorithms", "error", err)
		return helpers.ServerError(e, nil)
	}
}

func (s *Server) handleDraftTrustedAlgorithms(e echo.Context) error {
	var req DraftTrustedAlgorithmRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error binding", "error", err)
		return helpers.InputError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		s.logger.Warn("error validating", "error", err)
		return helpers.InputError(e, nil)
	}

	defer s.draftLocks.lock(e.Param("did"))()

	a, svc, err := s.draftComputeService(e)
	if a == nil {
		return err
	}

	var trusted []ddo.TrustedAlgorithm
	switch req.Action {
	case "add":
		trusted, err = assets.AddPublisherTrustedAlgorithm(e.Request().Context(), svc, ddo.RefDID(req.Did), s.algorithmResolver())
	case "remove":
		trusted, err = assets.RemovePublisherTrustedAlgorithm(svc, req.Did)
	}
	if err != nil {
		return s.trustedError(e, err)
	}

	if err := s.drafts.Save(e.Request().Context(), a); err != nil {
		s.logger.Error("error saving draft", "did", a.ID, "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, map[string]any{
		"publisherTrustedAlgorithms": trusted,
	})
}

func (s *Server) handleDraftTrustedPublishers(e echo.Context) error {
	var req DraftTrustedPublisherRequest
	if err := e.Bind(&req); err != nil {
		s.logger.Error("error binding", "error", err)
		return helpers.InputError(e, nil)
	}

	if err := e.Validate(req); err != nil {
		s.logger.Warn("error validating", "error", err)
		return helpers.InputError(e, nil)
	}

	defer s.draftLocks.lock(e.Param("did"))()

	a, svc, err := s.draftComputeService(e)
	if a == nil {
		return err
	}

	var publishers []string
	switch req.Action {
	case "add":
		publishers, err = assets.AddPublisherTrustedAlgorithmPublisher(svc, req.Address)
	case "remove":
		publishers, err = assets.RemovePublisherTrustedAlgorithmPublisher(svc, req.Address)
	}
	if err != nil {
		return s.trustedError(e, err)
	}

	if err := s.drafts.Save(e.Request().Context(), a); err != nil {
		s.logger.Error("error saving draft", "did", a.ID, "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.JSON(200, map[string]any{
		"publisherTrustedAlgorithmPublishers": publishers,
	})
}
