package models

import (
	"time"
)

// Draft is a DDO held locally while it is being edited, before it is
// republished to the metadata cache.
type Draft struct {
	Did        string `gorm:"primaryKey"`
	ChainID    int64  `gorm:"index:idx_draft_chain_nft"`
	NftAddress string `gorm:"index:idx_draft_chain_nft"`
	Version    string
	Value      []byte
	CreatedAt  time.Time
	UpdatedAt  time.Time `gorm:"index:,sort:desc"`
}

// Token is an admin bearer token issued by the admin cli. Only tokens with a
// row here are accepted by the server.
type Token struct {
	Token     string `gorm:"primaryKey"`
	Subject   string `gorm:"index"`
	CreatedAt time.Time
	ExpiresAt time.Time `gorm:"index:,sort:asc"`
}
