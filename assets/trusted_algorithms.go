package assets

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/oceanprotocol/oceanlib/ddo"
	"github.com/oceanprotocol/oceanlib/did"
	"github.com/samber/lo"
)

var (
	ErrNotCompute      = errors.New("service is not compute type")
	ErrNotTrusted      = errors.New("not trusted")
	ErrAssertion       = errors.New("trusted algorithm list inconsistent")
	ErrNotAlgorithm    = errors.New("asset has no algorithm container")
	ErrAlgoNotResolved = errors.New("algorithm asset could not be resolved")
)

// GenerateTrustedAlgoDict binds an algorithm did to the checksums of its
// current files and container section. Legacy documents keep both under
// metadata.main; V4 assets fall back to metadata.algorithm and the files of
// their first service.
func GenerateTrustedAlgoDict(algo ddo.Document) (ddo.TrustedAlgorithm, error) {
	md := algo.GetMetadata()

	var files, container any
	if main, ok := md["main"].(map[string]any); ok {
		files = main["files"]
		if alg, ok := main["algorithm"].(map[string]any); ok {
			container = alg["container"]
		}
	} else {
		if alg, ok := md["algorithm"].(map[string]any); ok {
			container = alg["container"]
		}
		if a, ok := algo.(*ddo.Asset); ok && len(a.Services) > 0 {
			files = a.Services[0].Files
		}
	}

	if container == nil {
		return ddo.TrustedAlgorithm{}, fmt.Errorf("%w: %s", ErrNotAlgorithm, algo.GetDID())
	}

	filesJSON, err := did.CanonicalJSON(files)
	if err != nil {
		return ddo.TrustedAlgorithm{}, fmt.Errorf("error encoding algorithm files: %w", err)
	}

	containerJSON, err := did.CanonicalJSON(container)
	if err != nil {
		return ddo.TrustedAlgorithm{}, fmt.Errorf("error encoding algorithm container: %w", err)
	}

	encrypted, _ := md["encryptedFiles"].(string)

	return ddo.TrustedAlgorithm{
		DID:                      algo.GetDID(),
		FilesChecksum:            did.CreateChecksum(encrypted + filesJSON),
		ContainerSectionChecksum: did.CreateChecksum(containerJSON),
	}, nil
}

// AddPublisherTrustedAlgorithm trusts the algorithm behind ref on a compute
// service. An existing entry for the same did is replaced.
func AddPublisherTrustedAlgorithm(ctx context.Context, svc *ddo.Service, ref ddo.AssetRef, res ddo.Resolver) ([]ddo.TrustedAlgorithm, error) {
	if !svc.IsCompute() {
		return nil, ErrNotCompute
	}

	algo, err := ref.Resolve(ctx, res)
	if err != nil {
		return nil, fmt.Errorf("error resolving algorithm %s: %w", ref.DID(), err)
	}
	if ddo.IsUnresolved(algo) {
		return nil, fmt.Errorf("%w: %s", ErrAlgoNotResolved, ref.DID())
	}

	if algo.GetDID() != ref.DID() {
		return nil, fmt.Errorf("%w: resolver returned %s for %s", ErrAssertion, algo.GetDID(), ref.DID())
	}

	if svc.ComputeValues == nil {
		svc.ComputeValues = ddo.DefaultComputeValues()
	}

	trusted := lo.Filter(svc.ComputeValues.PublisherTrustedAlgorithms, func(ta ddo.TrustedAlgorithm, _ int) bool {
		return ta.DID != ref.DID()
	})
	initial := len(trusted)

	entry, err := GenerateTrustedAlgoDict(algo)
	if err != nil {
		return nil, err
	}

	trusted = append(trusted, entry)
	if len(trusted) <= initial {
		return nil, fmt.Errorf("%w: algorithm %s was not added", ErrAssertion, ref.DID())
	}

	svc.ComputeValues.PublisherTrustedAlgorithms = trusted
	return trusted, nil
}

func RemovePublisherTrustedAlgorithm(svc *ddo.Service, algoDID string) ([]ddo.TrustedAlgorithm, error) {
	if svc.ComputeValues == nil || len(svc.ComputeValues.PublisherTrustedAlgorithms) == 0 {
		return nil, fmt.Errorf("%w: algorithm %s is not in trusted algorithms of this asset", ErrNotTrusted, algoDID)
	}

	trusted := lo.Filter(svc.ComputeValues.PublisherTrustedAlgorithms, func(ta ddo.TrustedAlgorithm, _ int) bool {
		return ta.DID != algoDID
	})

	svc.ComputeValues.PublisherTrustedAlgorithms = trusted
	return trusted, nil
}

func AddPublisherTrustedAlgorithmPublisher(svc *ddo.Service, address string) ([]string, error) {
	if !svc.IsCompute() {
		return nil, ErrNotCompute
	}

	if svc.ComputeValues == nil {
		svc.ComputeValues = ddo.DefaultComputeValues()
	}

	address = strings.ToLower(address)
	publishers := lo.Map(svc.ComputeValues.PublisherTrustedAlgorithmPublishers, func(p string, _ int) string {
		return strings.ToLower(p)
	})

	if lo.Contains(publishers, address) {
		return publishers, nil
	}

	initial := len(publishers)
	publishers = append(publishers, address)
	if len(publishers) <= initial {
		return nil, fmt.Errorf("%w: publisher %s was not added", ErrAssertion, address)
	}

	svc.ComputeValues.PublisherTrustedAlgorithmPublishers = publishers
	return publishers, nil
}

func RemovePublisherTrustedAlgorithmPublisher(svc *ddo.Service, address string) ([]string, error) {
	address = strings.ToLower(address)

	if svc.ComputeValues == nil || len(svc.ComputeValues.PublisherTrustedAlgorithmPublishers) == 0 {
		return nil, fmt.Errorf("%w: publisher %s is not in trusted algorithm publishers of this asset", ErrNotTrusted, address)
	}

	publishers := lo.FilterMap(svc.ComputeValues.PublisherTrustedAlgorithmPublishers, func(p string, _ int) (string, bool) {
		p = strings.ToLower(p)
		return p, p != address
	})

	svc.ComputeValues.PublisherTrustedAlgorithmPublishers = publishers
	return publishers, nil
}

// VerifyTrustedAlgorithm recomputes the checksums of algo and compares them
// with the entry recorded on svc. A false result means the algorithm changed
// after it was trusted.
func VerifyTrustedAlgorithm(svc *ddo.Service, algo ddo.Document) (bool, error) {
	if svc.ComputeValues == nil {
		return false, fmt.Errorf("%w: %s", ErrNotTrusted, algo.GetDID())
	}

	recorded, ok := lo.Find(svc.ComputeValues.PublisherTrustedAlgorithms, func(ta ddo.TrustedAlgorithm) bool {
		return ta.DID == algo.GetDID()
	})
	if !ok {
		return false, fmt.Errorf("%w: %s", ErrNotTrusted, algo.GetDID())
	}

	current, err := GenerateTrustedAlgoDict(algo)
	if err != nil {
		return false, err
	}

	return current == recorded, nil
}
