package provider

import "fmt"

// FileInfo is one entry of the provider's fileinfo answer.
type FileInfo struct {
	Index         int    `json:"index"`
	Valid         bool   `json:"valid"`
	ContentType   string `json:"contentType,omitempty"`
	ContentLength string `json:"contentLength,omitempty"`
	Type          string `json:"type,omitempty"`
}

type fileInfoRequest struct {
	DID       string `json:"did"`
	ServiceID string `json:"serviceId"`
}

type encryptRequest struct {
	Files      any    `json:"files"`
	NFTAddress string `json:"nftAddress"`
	ChainID    int64  `json:"chainId"`
}

// StatusError is returned when the provider answers with an unexpected
// HTTP status.
type StatusError struct {
	Code int
	Op   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("provider returned status %d for %s", e.Code, e.Op)
}
