package codec

import (
	"strings"
)

type chain struct {
	stages []Codec
}

// Chain composes stages. Pack runs them in order, Unpack in reverse order.
func Chain(stages ...Codec) Codec {
	return &chain{stages: append([]Codec(nil), stages...)}
}

func (c *chain) Name() string {
	names := make([]string, len(c.stages))
	for i, stage := range c.stages {
		names[i] = stage.Name()
	}
	return strings.Join(names, "+")
}

func (c *chain) Pack(payload any) (any, error) {
	var err error
	packed := payload
	for _, stage := range c.stages {
		if packed, err = stage.Pack(packed); err != nil {
			return nil, err
		}
	}
	return packed, nil
}

func (c *chain) Unpack(packed any) (any, error) {
	var err error
	payload := packed
	for i := len(c.stages) - 1; i >= 0; i-- {
		if payload, err = c.stages[i].Unpack(payload); err != nil {
			return nil, err
		}
	}
	return payload, nil
}
