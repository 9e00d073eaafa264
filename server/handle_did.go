package server

import (
	"strconv"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/labstack/echo/v4"
	"github.com/oceanprotocol/oceanlib/did"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
)

type ComputeDidResponse struct {
	Did        string `json:"did"`
	NftAddress string `json:"nftAddress"`
	ChainID    int64  `json:"chainId"`
}

func (s *Server) handleComputeDid(e echo.Context) error {
	nft := e.QueryParam("nft")
	if nft == "" {
		return helpers.InputError(e, to.StringPtr("MissingNftAddress"))
	}

	chainID := s.config.ChainID
	if cstr := e.QueryParam("chainId"); cstr != "" {
		c, err := strconv.ParseInt(cstr, 10, 64)
		if err != nil || c <= 0 {
			return helpers.InputError(e, to.StringPtr("InvalidChainId"))
		}
		chainID = c
	}

	addr, err := did.ChecksumAddress(nft)
	if err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidNftAddress"))
	}

	id, err := did.ForNFT(addr, chainID)
	if err != nil {
		return helpers.InputError(e, to.StringPtr("InvalidNftAddress"))
	}

	return e.JSON(200, ComputeDidResponse{
		Did:        id,
		NftAddress: addr,
		ChainID:    chainID,
	})
}
