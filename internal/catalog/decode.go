package catalog

import (
	"fmt"

	"github.com/mitchellh/mapstructure"
)

// Decode copies a map of named values into the struct pointed to by target,
// matching keys against `algo` struct tags. Numbers are converted between Go
// numeric kinds as needed.
func Decode(values map[string]any, target any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          TagName,
		Result:           target,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return fmt.Errorf("failed to create decoder: %w", err)
	}
	if err := decoder.Decode(values); err != nil {
		return fmt.Errorf("failed to decode values: %w", err)
	}
	return nil
}
