package conftree

import (
	"fmt"
	"reflect"
	"time"

	"github.com/mitchellh/mapstructure"
)

// Decode resolves the tree and unmarshals it into the target struct or
// map pointer, with weak typing and the standard conversion hooks
// (durations, RFC3339 times, comma-separated slices).
func Decode(n Node, target any) error {
	return DecodeSubtree(n, "", target)
}

// DecodeSubtree decodes the configuration under basePath into target.
func DecodeSubtree(n Node, basePath string, target any) error {
	rv := reflect.ValueOf(target)
	if rv.Kind() != reflect.Ptr || rv.IsNil() {
		return fmt.Errorf("decode target must be non-nil pointer, got %T", target)
	}

	sub := n
	if basePath != "" {
		var err error
		sub, err = SelectNode(n, basePath)
		if err != nil {
			return err
		}
	}

	native, err := Export(sub, true)
	if err != nil {
		return err
	}
	sectionMap, ok := native.(map[string]any)
	if !ok {
		return fmt.Errorf("path %q refers to non-mapping value (type %T)", basePath, native)
	}

	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           target,
		TagName:          "conf",
		WeaklyTypedInput: true,
		ZeroFields:       true,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			mapstructure.StringToTimeDurationHookFunc(),
			mapstructure.StringToTimeHookFunc(time.RFC3339),
			mapstructure.StringToSliceHookFunc(","),
		),
	})
	if err != nil {
		return fmt.Errorf("decoder creation failed: %w", err)
	}

	if err := decoder.Decode(sectionMap); err != nil {
		return fmt.Errorf("decode failed for path %q: %w", basePath, err)
	}

	return nil
}

// structToMap converts a struct (or struct pointer) of defaults into a
// nested native map keyed by `conf` tags, falling back to field names.
func structToMap(v any) (map[string]any, error) {
	out := make(map[string]any)
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:  &out,
		TagName: "conf",
	})
	if err != nil {
		return nil, fmt.Errorf("decoder creation failed: %w", err)
	}
	if err := decoder.Decode(v); err != nil {
		return nil, fmt.Errorf("cannot convert %T to a defaults map: %w", v, err)
	}
	return out, nil
}
