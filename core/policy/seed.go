package policy

import (
	"io"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	States []NewState `yaml:"states"`
}

// LoadSeed decodes a YAML document of the form `states: [{name: ..., credit_definition: ...}]`.
func LoadSeed(r io.Reader) ([]NewState, error) {
	var f seedFile
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		if err == io.EOF {
			return nil, nil
		}
		return nil, errors.Wrap(err, "decoding states seed")
	}
	return f.States, nil
}
