package server

import (
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/aquarius"
	"github.com/oceanprotocol/oceanlib/assets"
	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
)

func (s *Server) handleGetAsset(e echo.Context) error {
	ctx := e.Request().Context()
	if e.QueryParam("skipCache") == "true" {
		ctx = aquarius.WithSkipCache(ctx)
	}

	did := e.Param("did")

	doc, err := s.passport.ResolveDDO(ctx, did)
	if err != nil {
		s.logger.Error("error resolving ddo", "did", did, "error", err)
		return helpers.ServerError(e, to.StringPtr("Could not reach metadata cache"))
	}

	if ddo.IsUnresolved(doc) {
		return helpers.NotFoundError(e, to.StringPtr("AssetNotFound"))
	}

	return e.JSON(200, documentResponse(doc))
}

type IsConsumableResponse struct {
	Did       string                     `json:"did"`
	ServiceID string                     `json:"serviceId,omitempty"`
	Code      credentials.ConsumableCode `json:"code"`
	Status    string                     `json:"status"`
}

func (s *Server) handleIsConsumable(e echo.Context) error {
	ctx := e.Request().Context()
	did := e.Param("did")
	serviceID := e.QueryParam("serviceId")

	doc, err := s.passport.ResolveDDO(ctx, did)
	if err != nil {
		s.logger.Error("error resolving ddo", "did", did, "error", err)
		return helpers.ServerError(e, to.StringPtr("Could not reach metadata cache"))
	}

	if ddo.IsUnresolved(doc) {
		return helpers.NotFoundError(e, to.StringPtr("AssetNotFound"))
	}

	var svc *ddo.Service
	switch d := doc.(type) {
	case *ddo.Asset:
		if serviceID == "" {
			svc = d.ServiceByIndex(0)
		} else {
			svc = d.ServiceByID(serviceID)
		}
		if svc == nil {
			return helpers.NotFoundError(e, to.StringPtr("ServiceNotFound"))
		}
	case *ddo.LegacyAsset:
		return helpers.InputError(e, to.StringPtr("UnsupportedVersion"))
	}

	opts := assets.ConsumableOptions{
		SkipConnectivityCheck: s.config.SkipConnectivity,
		Probe:                 s.provider,
	}
	if addr := e.QueryParam("address"); addr != "" {
		opts.Credential = credentials.AddressCredential(addr)
	}

	code, err := assets.IsConsumable(ctx, doc, svc, opts)
	if errors.Is(err, credentials.ErrMalformedCredential) {
		return helpers.InputError(e, to.StringPtr("MalformedCredential"))
	}
	if err != nil {
		s.logger.Warn("consumability check failed", "did", did, "code", code.String(), "error", err)
	}

	return e.JSON(200, IsConsumableResponse{
		Did:       did,
		ServiceID: svc.ID,
		Code:      code,
		Status:    code.String(),
	})
}
