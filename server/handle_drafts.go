package server

import (
	"errors"
	"io"
	"strconv"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
	"github.com/oceanprotocol/oceanlib/store"
)

type DraftListItem struct {
	Did        string `json:"did"`
	ChainID    int64  `json:"chainId"`
	NftAddress string `json:"nftAddress"`
	Version    string `json:"version"`
	UpdatedAt  string `json:"updatedAt"`
}

func (s *Server) handleListDrafts(e echo.Context) error {
	var chainID int64
	if cstr := e.QueryParam("chainId"); cstr != "" {
		c, err := strconv.ParseInt(cstr, 10, 64)
		if err != nil {
			return helpers.InputError(e, to.StringPtr("InvalidChainId"))
		}
		chainID = c
	}

	drafts, err := s.drafts.List(e.Request().Context(), chainID)
	if err != nil {
		s.logger.Error("error listing drafts", "error", err)
		return helpers.ServerError(e, nil)
	}

	items := make([]DraftListItem, 0, len(drafts))
	for _, d := range drafts {
		items = append(items, DraftListItem{
			Did:        d.Did,
			ChainID:    d.ChainID,
			NftAddress: d.NftAddress,
			Version:    d.Version,
			UpdatedAt:  d.UpdatedAt.UTC().Format("2006-01-02T15:04:05Z"),
		})
	}

	return e.JSON(200, map[string]any{
		"drafts": items,
	})
}

// handleImportDraft stores the request body as a draft. The body is a raw
// DDO in either schema family.
func (s *Server) handleImportDraft(e echo.Context) error {
	b, err := io.ReadAll(e.Request().Body)
	if err != nil {
		s.logger.Error("error reading body", "error", err)
		return helpers.ServerError(e, nil)
	}

	doc, err := ddo.Decode(b)
	if errors.Is(err, ddo.ErrUnsupportedVersion) {
		return helpers.InputError(e, to.StringPtr("UnsupportedVersion"))
	}
	if err != nil {
		s.logger.Warn("error decoding draft", "error", err)
		return helpers.InputError(e, to.StringPtr("InvalidDdo"))
	}

	if ddo.IsUnresolved(doc) || doc.GetDID() == "" {
		return helpers.InputError(e, to.StringPtr("MissingDid"))
	}

	unlock := s.draftLocks.lock(doc.GetDID())
	err = s.drafts.Save(e.Request().Context(), doc)
	unlock()
	if err != nil {
		s.logger.Error("error saving draft", "did", doc.GetDID(), "error", err)
		return helpers.ServerError(e, nil)
	}

	s.logger.Info("imported draft", "did", doc.GetDID(), "version", doc.SchemaVersion(), "sub", e.Get("sub"))

	return e.JSON(201, documentResponse(doc))
}

func (s *Server) handleGetDraft(e echo.Context) error {
	doc, err := s.loadDraft(e)
	if doc == nil {
		return err
	}

	return e.JSON(200, documentResponse(doc))
}

func (s *Server) handleDeleteDraft(e echo.Context) error {
	did := e.Param("did")
	defer s.draftLocks.lock(did)()

	err := s.drafts.Delete(e.Request().Context(), did)
	if errors.Is(err, store.ErrNotFound) {
		return helpers.NotFoundError(e, to.StringPtr("DraftNotFound"))
	}
	if err != nil {
		s.logger.Error("error deleting draft", "did", did, "error", err)
		return helpers.ServerError(e, nil)
	}

	return e.NoContent(204)
}
