package assets

import (
	"context"
	"os"
	"testing"

	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	legacyAlgoDID             = "did:op:0c184915b07b44c888d468be85a9b28253e80070e5294b1aaed81c2f0264e430"
	legacyFilesChecksum       = "094c9b5f0c2898790c165ee494f74817426bdeac1277fc073131ab87352416ed"
	containerSectionChecksum  = "9702c046d038bfac431c90ac95afdb6aedc4e54a08be975048193e747c33ee63"
	v4CipherFilesChecksum     = "6439ae8c6c9b9e0477b4ab511d9d51a684ee80ed21a84aa0c322bdeb0a9d7aab"
	v4AlgoDID                 = "did:op:v4algo"
	otherPublisherMixedCase   = "0xAbCdEf"
	otherPublisherLowerCase   = "0xabcdef"
	computeServiceID          = "compute_1"
	computeServiceEndpointURL = "https://provider.example.com"
)

type mapResolver map[string]ddo.Document

func (m mapResolver) ResolveDDO(ctx context.Context, did string) (ddo.Document, error) {
	if d, ok := m[did]; ok {
		return d, nil
	}
	return &ddo.Unresolved{DID: did}, nil
}

func loadLegacyAlgo(t *testing.T) *ddo.LegacyAsset {
	t.Helper()
	b, err := os.ReadFile("testdata/algorithm_v3.json")
	require.NoError(t, err)

	doc, err := ddo.Decode(b)
	require.NoError(t, err)
	return doc.(*ddo.LegacyAsset)
}

func v4Algo() *ddo.Asset {
	a := ddo.NewAsset(8996, "0x1")
	a.ID = v4AlgoDID
	a.Metadata = map[string]any{
		"type": "algorithm",
		"algorithm": map[string]any{
			"container": map[string]any{
				"entrypoint": "node $ALGO",
				"image":      "node",
				"tag":        "10",
				"checksum":   "sha256:xyz",
			},
		},
	}
	a.Services = []*ddo.Service{{ID: "0", Type: ddo.ServiceTypeAccess, Files: "0xcipher"}}
	return a
}

func computeService() *ddo.Service {
	return &ddo.Service{
		ID:              computeServiceID,
		Type:            ddo.ServiceTypeCompute,
		ServiceEndpoint: computeServiceEndpointURL,
		Files:           "0xcipher",
		Timeout:         ddo.DefaultServiceTimeout,
		ComputeValues:   ddo.DefaultComputeValues(),
	}
}

func TestGenerateTrustedAlgoDict(t *testing.T) {
	ta, err := GenerateTrustedAlgoDict(loadLegacyAlgo(t))
	require.NoError(t, err)
	assert.Equal(t, ddo.TrustedAlgorithm{
		DID:                      legacyAlgoDID,
		FilesChecksum:            legacyFilesChecksum,
		ContainerSectionChecksum: containerSectionChecksum,
	}, ta)

	ta, err = GenerateTrustedAlgoDict(v4Algo())
	require.NoError(t, err)
	assert.Equal(t, v4CipherFilesChecksum, ta.FilesChecksum)
	assert.Equal(t, containerSectionChecksum, ta.ContainerSectionChecksum)

	dataset := &ddo.Asset{ID: "did:op:data", Metadata: map[string]any{"type": "dataset"}}
	_, err = GenerateTrustedAlgoDict(dataset)
	assert.ErrorIs(t, err, ErrNotAlgorithm)
}

func TestAddPublisherTrustedAlgorithm(t *testing.T) {
	ctx := context.Background()
	legacy := loadLegacyAlgo(t)
	res := mapResolver{legacy.ID: legacy, v4AlgoDID: v4Algo()}
	svc := computeService()

	trusted, err := AddPublisherTrustedAlgorithm(ctx, svc, ddo.RefDID(legacy.ID), res)
	require.NoError(t, err)
	require.Len(t, trusted, 1)
	assert.Equal(t, legacyFilesChecksum, trusted[0].FilesChecksum)

	trusted, err = AddPublisherTrustedAlgorithm(ctx, svc, ddo.RefDID(legacy.ID), res)
	require.NoError(t, err)
	assert.Len(t, trusted, 1)

	trusted, err = AddPublisherTrustedAlgorithm(ctx, svc, ddo.RefDocument(v4Algo()), nil)
	require.NoError(t, err)
	assert.Len(t, trusted, 2)
	assert.Equal(t, []string{legacy.ID, v4AlgoDID}, svc.TrustedAlgorithmDIDs())
}

func TestAddPublisherTrustedAlgorithm_Failures(t *testing.T) {
	ctx := context.Background()
	legacy := loadLegacyAlgo(t)

	access := &ddo.Service{ID: "a", Type: ddo.ServiceTypeAccess}
	_, err := AddPublisherTrustedAlgorithm(ctx, access, ddo.RefDocument(legacy), nil)
	assert.ErrorIs(t, err, ErrNotCompute)

	_, err = AddPublisherTrustedAlgorithm(ctx, computeService(), ddo.RefDID("did:op:missing"), mapResolver{})
	assert.ErrorIs(t, err, ErrAlgoNotResolved)

	stale := mapResolver{"did:op:asked": legacy}
	svc := computeService()
	_, err = AddPublisherTrustedAlgorithm(ctx, svc, ddo.RefDID("did:op:asked"), stale)
	assert.ErrorIs(t, err, ErrAssertion)
	assert.Empty(t, svc.ComputeValues.PublisherTrustedAlgorithms)

	dataset := &ddo.Asset{ID: "did:op:data", Metadata: map[string]any{"type": "dataset"}}
	_, err = AddPublisherTrustedAlgorithm(ctx, computeService(), ddo.RefDocument(dataset), nil)
	assert.ErrorIs(t, err, ErrNotAlgorithm)
}

func TestAddPublisherTrustedAlgorithm_NilComputeValues(t *testing.T) {
	svc := computeService()
	svc.ComputeValues = nil

	trusted, err := AddPublisherTrustedAlgorithm(context.Background(), svc, ddo.RefDocument(v4Algo()), nil)
	require.NoError(t, err)
	assert.Len(t, trusted, 1)
	assert.True(t, svc.ComputeValues.AllowNetworkAccess)
}

func TestRemovePublisherTrustedAlgorithm(t *testing.T) {
	ctx := context.Background()
	svc := computeService()

	_, err := RemovePublisherTrustedAlgorithm(svc, v4AlgoDID)
	assert.ErrorIs(t, err, ErrNotTrusted)

	svc.ComputeValues = nil
	_, err = RemovePublisherTrustedAlgorithm(svc, v4AlgoDID)
	assert.ErrorIs(t, err, ErrNotTrusted)

	svc = computeService()
	_, err = AddPublisherTrustedAlgorithm(ctx, svc, ddo.RefDocument(v4Algo()), nil)
	require.NoError(t, err)
	_, err = AddPublisherTrustedAlgorithm(ctx, svc, ddo.RefDocument(loadLegacyAlgo(t)), nil)
	require.NoError(t, err)

	trusted, err := RemovePublisherTrustedAlgorithm(svc, "did:op:notthere")
	require.NoError(t, err)
	assert.Len(t, trusted, 2)

	trusted, err = RemovePublisherTrustedAlgorithm(svc, v4AlgoDID)
	require.NoError(t, err)
	assert.Equal(t, []string{legacyAlgoDID}, svc.TrustedAlgorithmDIDs())
	assert.Len(t, trusted, 1)
}

func TestTrustedAlgorithmPublishers(t *testing.T) {
	svc := computeService()

	publishers, err := AddPublisherTrustedAlgorithmPublisher(svc, otherPublisherMixedCase)
	require.NoError(t, err)
	assert.Equal(t, []string{otherPublisherLowerCase}, publishers)

	publishers, err = AddPublisherTrustedAlgorithmPublisher(svc, otherPublisherLowerCase)
	require.NoError(t, err)
	assert.Equal(t, []string{otherPublisherLowerCase}, publishers)

	_, err = AddPublisherTrustedAlgorithmPublisher(svc, "0x2")
	require.NoError(t, err)

	publishers, err = RemovePublisherTrustedAlgorithmPublisher(svc, otherPublisherMixedCase)
	require.NoError(t, err)
	assert.Equal(t, []string{"0x2"}, publishers)
	assert.Equal(t, []string{"0x2"}, svc.ComputeValues.PublisherTrustedAlgorithmPublishers)

	access := &ddo.Service{ID: "a", Type: ddo.ServiceTypeAccess}
	_, err = AddPublisherTrustedAlgorithmPublisher(access, "0x2")
	assert.ErrorIs(t, err, ErrNotCompute)
}

func TestRemoveTrustedPublisher_EmptyListFails(t *testing.T) {
	svc := computeService()
	_, err := AddPublisherTrustedAlgorithm(context.Background(), svc, ddo.RefDocument(loadLegacyAlgo(t)), nil)
	require.NoError(t, err)

	_, err = RemovePublisherTrustedAlgorithmPublisher(svc, "0x1")
	assert.ErrorIs(t, err, ErrNotTrusted)
	assert.Contains(t, err.Error(), "is not in trusted algorithm publishers")
}

func TestVerifyTrustedAlgorithm(t *testing.T) {
	svc := computeService()
	algo := v4Algo()

	_, err := VerifyTrustedAlgorithm(svc, algo)
	assert.ErrorIs(t, err, ErrNotTrusted)

	_, err = AddPublisherTrustedAlgorithm(context.Background(), svc, ddo.RefDocument(algo), nil)
	require.NoError(t, err)

	ok, err := VerifyTrustedAlgorithm(svc, algo)
	require.NoError(t, err)
	assert.True(t, ok)

	algo.Metadata["algorithm"].(map[string]any)["container"].(map[string]any)["tag"] = "11"
	ok, err = VerifyTrustedAlgorithm(svc, algo)
	require.NoError(t, err)
	assert.False(t, ok)

	algo.Services[0].Files = "0xother"
	algo.Metadata["algorithm"].(map[string]any)["container"].(map[string]any)["tag"] = "10"
	ok, err = VerifyTrustedAlgorithm(svc, algo)
	require.NoError(t, err)
	assert.False(t, ok)
}
