package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/assets"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
)

const (
	TrustStatusTrusted    = "TRUSTED"
	TrustStatusNotTrusted = "NOT_TRUSTED"
	TrustStatusStale      = "STALE"
)

type VerifyAlgorithmResponse struct {
	Did       string `json:"did"`
	ServiceID string `json:"serviceId"`
	Algorithm string `json:"algorithm"`
	Status    string `json:"status"`
}

// handleVerifyAlgorithm reports whether a published compute service still
// trusts the current content of an algorithm.
func (s *Server) handleVerifyAlgorithm(e echo.Context) error {
	ctx := e.Request().Context()
	did := e.Param("did")
	algoDID := e.Param("algoDid")

	doc, err := s.passport.ResolveDDO(ctx, did)
	if err != nil {
		s.logger.Error("error resolving ddo", "did", did, "error", err)
		return helpers.ServerError(e, to.StringPtr("Could not reach metadata cache"))
	}

	a, ok := doc.(*ddo.Asset)
	if !ok {
		if ddo.IsUnresolved(doc) {
			return helpers.NotFoundError(e, to.StringPtr("AssetNotFound"))
		}
		return helpers.InputError(e, to.StringPtr("UnsupportedVersion"))
	}

	svc := a.ServiceByID(e.Param("serviceId"))
	if svc == nil {
		return helpers.NotFoundError(e, to.StringPtr("ServiceNotFound"))
	}
	if !svc.IsCompute() {
		return helpers.InputError(e, to.StringPtr("NotComputeService"))
	}

	algo, err := s.passport.ResolveDDO(ctx, algoDID)
	if err != nil {
		s.logger.Error("error resolving algorithm", "did", algoDID, "error", err)
		return helpers.ServerError(e, to.StringPtr("Could not reach metadata cache"))
	}
	if ddo.IsUnresolved(algo) {
		return helpers.NotFoundError(e, to.StringPtr("AlgorithmNotFound"))
	}

	resp := VerifyAlgorithmResponse{
		Did:       did,
		ServiceID: svc.ID,
		Algorithm: algoDID,
	}

	same, err := assets.VerifyTrustedAlgorithm(svc, algo)
	switch {
	case errors.Is(err, assets.ErrNotTrusted):
		resp.Status = TrustStatusNotTrusted
	case errors.Is(err, assets.ErrNotAlgorithm):
		return helpers.InputError(e, to.StringPtr("NotAnAlgorithm"))
	case err != nil:
		s.logger.Error("error verifying trusted algorithm", "did", did, "algorithm", algoDID, "error", err)
		return helpers.ServerError(e, nil)
	case same:
		resp.Status = TrustStatusTrusted
	default:
		resp.Status = TrustStatusStale
	}

	return e.JSON(200, resp)
}
