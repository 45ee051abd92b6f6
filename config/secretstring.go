package config

import (
	yaml "gopkg.in/yaml.v3"
)

// SecretStringValue must be exported - used in tests.
const SecretStringValue = "<secret>"

// SecretString is a type that should be used for fields that should not be visible in logs.
type SecretString string

// Reveal returns actual value, use it only where the secret is consumed.
func (s SecretString) Reveal() string {
	return string(s)
}

// String makes sure secret does not leak through fmt and zap.Stringer.
func (s SecretString) String() string {
	if len(s) == 0 {
		return ""
	}
	return SecretStringValue
}

// GoString covers %#v.
func (s SecretString) GoString() string {
	return `"` + s.String() + `"`
}

// MarshalJSON marshals SecretString to JSON making sure that actual value is not visible.
func (s SecretString) MarshalJSON() ([]byte, error) {
	if len(s) == 0 {
		return []byte("null"), nil
	}
	return []byte("\"" + SecretStringValue + "\""), nil
}

// MarshalYAML marshals SecretString to YAML making sure that actual value is not visible.
func (s SecretString) MarshalYAML() (any, error) {
	if len(s) == 0 {
		return "", nil
	}
	return SecretStringValue, nil
}

// UnmarshalYAML keeps current value when masked placeholder is read back, so
// dumped configuration does not replace real credential with the mask.
func (s *SecretString) UnmarshalYAML(node *yaml.Node) error {
	var v string
	if err := node.Decode(&v); err != nil {
		return err
	}
	if v == SecretStringValue {
		return nil
	}
	*s = SecretString(v)
	return nil
}
