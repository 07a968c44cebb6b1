package backlog

import (
	"fmt"

	"github.com/goccy/go-json"
	"github.com/spf13/cast"
)

// FlexInt decodes numbers and numeric strings alike, so hand-edited
// documents with "priority": "3" still sort numerically.
type FlexInt int

func (n *FlexInt) UnmarshalJSON(b []byte) error {
	var raw any
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	return n.set(raw)
}

func (n *FlexInt) UnmarshalYAML(unmarshal func(any) error) error {
	var raw any
	if err := unmarshal(&raw); err != nil {
		return err
	}
	return n.set(raw)
}

func (n *FlexInt) set(raw any) error {
	if s, ok := raw.(string); ok && s == "" {
		*n = 0
		return nil
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return fmt.Errorf("not an integer: %v", raw)
	}
	*n = FlexInt(v)
	return nil
}
