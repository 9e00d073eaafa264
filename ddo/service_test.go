package ddo

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestServiceFromDict(t *testing.T) {
	s, err := ServiceFromDict(map[string]any{
		"id":               "1",
		"type":             "access",
		"serviceEndpoint":  "https://provider",
		"datatokenAddress": "0xdt",
		"files":            "0xcipher",
		"timeout":          3600,
	})
	require.NoError(t, err)

	assert.Equal(t, "https://provider", s.ServiceEndpoint)
	assert.Equal(t, "0xdt", s.Datatoken)
	assert.Equal(t, int64(3600), s.Timeout)
	assert.False(t, s.IsCompute())

	d := s.AsDictionary()
	for _, k := range []string{"id", "type", "serviceEndpoint", "datatokenAddress", "files", "timeout"} {
		assert.Contains(t, d, k)
	}
	for _, k := range []string{"name", "description", "additionalInformation", "consumerParameters", "compute"} {
		assert.NotContains(t, d, k)
	}
}

func TestServiceFromDict_RequiresType(t *testing.T) {
	_, err := ServiceFromDict(map[string]any{"id": "1"})
	assert.ErrorIs(t, err, ErrServiceTypeRequired)

	_, err = Decode([]byte(`{"id":"did:op:1","services":[{"id":"1"}]}`))
	assert.ErrorIs(t, err, ErrServiceTypeRequired)
}

func TestServiceFromDict_ConsumerParameters(t *testing.T) {
	good := map[string]any{
		"name": "n", "type": "text", "label": "l", "required": true, "default": "d", "description": "desc",
	}

	s, err := ServiceFromDict(map[string]any{"type": "access", "consumerParameters": []any{good}})
	require.NoError(t, err)
	require.Len(t, s.ConsumerParameters, 1)
	assert.Equal(t, "n", s.ConsumerParameters[0].Name)
	assert.True(t, s.ConsumerParameters[0].Required)

	tests := []struct {
		name   string
		params any
	}{
		{"not a list", "abc"},
		{"object instead of list", good},
		{"list of strings", []any{"a", "b"}},
		{"missing default", []any{map[string]any{"name": "n", "type": "text", "label": "l", "required": true, "description": "d"}}},
		{"options not a list", []any{withKey(good, "options", "x")}},
		{"unknown type", []any{withKey(good, "type", "date")}},
		{"empty name", []any{withKey(good, "name", "")}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ServiceFromDict(map[string]any{"type": "access", "consumerParameters": tt.params})
			assert.ErrorIs(t, err, ErrInvalidConsumerParameters)
		})
	}
}

func TestService_TrustedAlgorithmDIDs(t *testing.T) {
	s := &Service{Type: ServiceTypeCompute}
	assert.Nil(t, s.TrustedAlgorithmDIDs())

	s.ComputeValues = &ComputeValues{PublisherTrustedAlgorithms: []TrustedAlgorithm{{DID: "did:op:a"}, {DID: "did:op:b"}}}
	assert.Equal(t, []string{"did:op:a", "did:op:b"}, s.TrustedAlgorithmDIDs())
}

func TestComputeValues_NilListsMarshalEmpty(t *testing.T) {
	b, err := json.Marshal(&ComputeValues{AllowNetworkAccess: true})
	require.NoError(t, err)
	assert.JSONEq(t, `{"allowRawAlgorithm":false,"allowNetworkAccess":true,"publisherTrustedAlgorithms":[],"publisherTrustedAlgorithmPublishers":[]}`, string(b))
}

func withKey(m map[string]any, k string, v any) map[string]any {
	out := make(map[string]any, len(m))
	for key, val := range m {
		out[key] = val
	}
	out[k] = v
	return out
}
