package assets

import (
	"context"
	"errors"
	"testing"

	"github.com/oceanprotocol/oceanlib/credentials"
	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func consumableAsset() *ddo.Asset {
	a := ddo.NewAsset(8996, "0x1")
	a.ID = "did:op:data"
	a.Metadata = map[string]any{"type": "dataset", "name": "data"}
	a.NFT = map[string]any{"state": 0}
	a.Services = []*ddo.Service{{ID: "1", Type: ddo.ServiceTypeAccess, Files: "0xcipher"}}
	return a
}

func staticProbe(ok bool, err error) (ConnectivityProbe, *int) {
	calls := 0
	return ProbeFunc(func(ctx context.Context, did string, svc *ddo.Service) (bool, error) {
		calls++
		return ok, err
	}), &calls
}

func TestIsConsumable_DisabledTakesPrecedence(t *testing.T) {
	a := consumableAsset()
	a.NFT["state"] = 1
	require.NoError(t, a.AddAddressToDenyList("0x123"))

	probe, calls := staticProbe(false, nil)
	code, err := IsConsumable(context.Background(), a, a.Services[0], ConsumableOptions{
		Credential: credentials.AddressCredential("0x123"),
		Probe:      probe,
	})
	require.NoError(t, err)
	assert.Equal(t, credentials.AssetDisabled, code)
	assert.Zero(t, *calls)

	code, err = IsConsumable(context.Background(), &ddo.Unresolved{DID: "did:op:x"}, nil, ConsumableOptions{})
	require.NoError(t, err)
	assert.Equal(t, credentials.AssetDisabled, code)
}

func TestIsConsumable_Connectivity(t *testing.T) {
	ctx := context.Background()
	a := consumableAsset()

	probe, calls := staticProbe(false, nil)
	code, err := IsConsumable(ctx, a, a.Services[0], ConsumableOptions{Probe: probe})
	require.NoError(t, err)
	assert.Equal(t, credentials.ConnectivityFail, code)
	assert.Equal(t, 1, *calls)

	boom := errors.New("boom")
	probe, _ = staticProbe(true, boom)
	code, err = IsConsumable(ctx, a, a.Services[0], ConsumableOptions{Probe: probe})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, credentials.ConnectivityFail, code)

	code, err = IsConsumable(ctx, a, a.Services[0], ConsumableOptions{})
	assert.ErrorIs(t, err, ErrNoProbe)
	assert.Equal(t, credentials.ConnectivityFail, code)

	code, err = IsConsumable(ctx, a, a.Services[0], ConsumableOptions{SkipConnectivityCheck: true})
	require.NoError(t, err)
	assert.Equal(t, credentials.OK, code)
}

func TestIsConsumable_NilService(t *testing.T) {
	ctx := context.Background()
	a := consumableAsset()

	probe, calls := staticProbe(true, nil)
	code, err := IsConsumable(ctx, a, nil, ConsumableOptions{Probe: probe})
	assert.ErrorIs(t, err, ErrNoService)
	assert.Equal(t, credentials.ConnectivityFail, code)
	assert.Zero(t, *calls)

	code, err = IsConsumable(ctx, a, nil, ConsumableOptions{SkipConnectivityCheck: true})
	require.NoError(t, err)
	assert.Equal(t, credentials.OK, code)
}

func TestIsConsumable_Credentials(t *testing.T) {
	ctx := context.Background()
	probe, _ := staticProbe(true, nil)

	allowed := consumableAsset()
	require.NoError(t, allowed.AddAddressToAllowList("0xAbC"))

	denied := consumableAsset()
	require.NoError(t, denied.AddAddressToDenyList("0xbad"))

	tests := []struct {
		name  string
		asset *ddo.Asset
		cred  *credentials.Credential
		want  credentials.ConsumableCode
	}{
		{"no credentials", consumableAsset(), nil, credentials.OK},
		{"in allow list", allowed, credentials.AddressCredential("0xabc"), credentials.OK},
		{"not in allow list", allowed, credentials.AddressCredential("0xdef"), credentials.CredentialNotInAllowList},
		{"in deny list", denied, credentials.AddressCredential("0xBAD"), credentials.CredentialInDenyList},
		{"not in deny list", denied, credentials.AddressCredential("0xgood"), credentials.OK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, err := IsConsumable(ctx, tt.asset, tt.asset.Services[0], ConsumableOptions{
				Credential: tt.cred,
				Probe:      probe,
			})
			require.NoError(t, err)
			assert.Equal(t, tt.want, code)
		})
	}
}

func TestIsConsumable_MalformedCredential(t *testing.T) {
	a := consumableAsset()
	require.NoError(t, a.AddAddressToAllowList("0xabc"))

	_, err := IsConsumable(context.Background(), a, a.Services[0], ConsumableOptions{
		Credential:            &credentials.Credential{Type: credentials.TypeAddress},
		SkipConnectivityCheck: true,
	})
	assert.ErrorIs(t, err, credentials.ErrMalformedCredential)

	a.Credentials = credentials.Credentials{credentials.ClassAllow: {{Type: credentials.TypeAddress}}}
	_, err = IsConsumable(context.Background(), a, a.Services[0], ConsumableOptions{
		Credential:            credentials.AddressCredential("0xabc"),
		SkipConnectivityCheck: true,
	})
	assert.ErrorIs(t, err, credentials.ErrMalformedCredential)
}
