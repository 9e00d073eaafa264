// Package assets holds the decisions made over resolved documents: whether
// a service may be consumed, and which algorithms a compute service trusts.
package assets

import (
	"context"
	"errors"
	"fmt"

	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/oceanprotocol/oceanlib/ddo"
)

var (
	ErrNoProbe   = errors.New("connectivity check requested without a probe")
	ErrNoService = errors.New("connectivity check requested without a service")
)

// ConnectivityProbe reports whether the files behind a service are reachable.
type ConnectivityProbe interface {
	CheckFileConnectivity(ctx context.Context, did string, svc *ddo.Service) (bool, error)
}

type ProbeFunc func(ctx context.Context, did string, svc *ddo.Service) (bool, error)

func (f ProbeFunc) CheckFileConnectivity(ctx context.Context, did string, svc *ddo.Service) (bool, error) {
	return f(ctx, did, svc)
}

type ConsumableOptions struct {
	Credential            *credentials.Credential
	SkipConnectivityCheck bool
	Probe                 ConnectivityProbe
}

// IsConsumable returns exactly one code. The disabled check always runs
// first, then connectivity, then credentials.
func IsConsumable(ctx context.Context, doc ddo.Document, svc *ddo.Service, opts ConsumableOptions) (credentials.ConsumableCode, error) {
	if doc.IsDisabled() {
		return credentials.AssetDisabled, nil
	}

	if !opts.SkipConnectivityCheck {
		if opts.Probe == nil {
			return credentials.ConnectivityFail, ErrNoProbe
		}
		if svc == nil {
			return credentials.ConnectivityFail, ErrNoService
		}

		ok, err := opts.Probe.CheckFileConnectivity(ctx, doc.GetDID(), svc)
		if err != nil {
			return credentials.ConnectivityFail, fmt.Errorf("error checking file connectivity: %w", err)
		}
		if !ok {
			return credentials.ConnectivityFail, nil
		}
	}

	creds := doc.GetCredentials()

	required, err := creds.RequiresCredential()
	if err != nil {
		return credentials.OK, err
	}

	if required {
		return creds.ValidateAccess(opts.Credential)
	}

	return credentials.OK, nil
}
