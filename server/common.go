package server

import (
	"context"
	"errors"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
	"github.com/oceanprotocol/oceanlib/store"
)

// resolverChain asks each resolver in turn and returns the first resolved
// document.
type resolverChain []ddo.Resolver

func (rc resolverChain) ResolveDDO(ctx context.Context, did string) (ddo.Document, error) {
	for _, r := range rc {
		doc, err := r.ResolveDDO(ctx, did)
		if err != nil {
			return nil, err
		}
		if !ddo.IsUnresolved(doc) {
			return doc, nil
		}
	}

	return &ddo.Unresolved{DID: did}, nil
}

// algorithmResolver prefers local drafts over the metadata cache.
func (s *Server) algorithmResolver() ddo.Resolver {
	return resolverChain{s.drafts, s.passport}
}

// loadDraft writes the error response itself and returns a nil document when
// the draft cannot be loaded.
func (s *Server) loadDraft(e echo.Context) (ddo.Document, error) {
	did := e.Param("did")

	doc, err := s.drafts.Get(e.Request().Context(), did)
	if errors.Is(err, store.ErrNotFound) {
		return nil, helpers.NotFoundError(e, to.StringPtr("DraftNotFound"))
	}
	if err != nil {
		s.logger.Error("error loading draft", "did", did, "error", err)
		return nil, helpers.ServerError(e, nil)
	}

	return doc, nil
}

func credentialsOf(doc ddo.Document) *credentials.Credentials {
	switch d := doc.(type) {
	case *ddo.Asset:
		return &d.Credentials
	case *ddo.LegacyAsset:
		return &d.Credentials
	default:
		return nil
	}
}

type DocumentResponse struct {
	Did     string         `json:"did"`
	Version string         `json:"version"`
	Ddo     map[string]any `json:"ddo"`
}

func documentResponse(doc ddo.Document) DocumentResponse {
	return DocumentResponse{
		Did:     doc.GetDID(),
		Version: doc.SchemaVersion(),
		Ddo:     ddo.AsDictionary(doc),
	}
}
