package ddo

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/go-playground/validator"
)

var ErrInvalidConsumerParameters = errors.New("invalid consumer parameters")

var consumerParameterKeys = []string{"name", "type", "label", "required", "default", "description"}

var vdtor = validator.New()

// ConsumerParameter describes one input a consumer supplies when ordering
// a service.
type ConsumerParameter struct {
	Name        string           `json:"name" validate:"required"`
	Type        string           `json:"type" validate:"required,oneof=text number boolean select"`
	Label       string           `json:"label" validate:"required"`
	Required    bool             `json:"required"`
	Default     any              `json:"default"`
	Description string           `json:"description"`
	Options     []map[string]any `json:"options,omitempty"`
}

func parseConsumerParameters(raw json.RawMessage) ([]ConsumerParameter, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return nil, nil
	}

	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: consumerParameters must be a list", ErrInvalidConsumerParameters)
	}

	params := make([]ConsumerParameter, 0, len(items))
	for i, item := range items {
		var m map[string]any
		if err := json.Unmarshal(item, &m); err != nil || m == nil {
			return nil, fmt.Errorf("%w: parameter %d is not an object", ErrInvalidConsumerParameters, i)
		}

		for _, k := range consumerParameterKeys {
			if _, ok := m[k]; !ok {
				return nil, fmt.Errorf("%w: parameter %d is missing %q", ErrInvalidConsumerParameters, i, k)
			}
		}

		if opts, ok := m["options"]; ok {
			if _, isList := opts.([]any); !isList {
				return nil, fmt.Errorf("%w: options of parameter %d must be a list", ErrInvalidConsumerParameters, i)
			}
		}

		var p ConsumerParameter
		if err := json.Unmarshal(item, &p); err != nil {
			return nil, fmt.Errorf("%w: parameter %d: %v", ErrInvalidConsumerParameters, i, err)
		}

		if err := p.Validate(); err != nil {
			return nil, fmt.Errorf("%w: parameter %d: %v", ErrInvalidConsumerParameters, i, err)
		}

		params = append(params, p)
	}

	return params, nil
}

func (p ConsumerParameter) Validate() error {
	return vdtor.Struct(p)
}
