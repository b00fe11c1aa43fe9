package codec

import (
	"encoding/json"

	"gopkg.in/yaml.v3"
)

type (
	Encoder interface {
		Encode(v any) (string, error)
	}

	Decoder interface {
		Decode(string, any) error
	}

	// Codec turns session attribute values into their stored form and back
	Codec interface {
		Encoder
		Decoder
	}

	jsonCodec struct{}

	yamlCodec struct{}
)

var (
	JSON Codec = jsonCodec{}
	YAML Codec = yamlCodec{}
)

// ByName resolves "json" or "yaml", falling back to JSON
func ByName(name string) Codec {
	if name == "yaml" || name == "yml" {
		return YAML
	}
	return JSON
}

func (jsonCodec) Encode(v any) (string, error) {
	bytes, err := json.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func (jsonCodec) Decode(data string, v any) error {
	return json.Unmarshal([]byte(data), v)
}

func (yamlCodec) Encode(v any) (string, error) {
	bytes, err := yaml.Marshal(v)
	if err != nil {
		return "", err
	}

	return string(bytes), nil
}

func (yamlCodec) Decode(data string, v any) error {
	return yaml.Unmarshal([]byte(data), v)
}
