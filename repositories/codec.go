package repositories

import (
	"devconnect/errors"
	"fmt"

	"github.com/fxamacker/cbor/v2"
	"google.golang.org/protobuf/encoding/protojson"
	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"
)

// Badger values are CBOR records; field names double as the schema.
func encode(v any) ([]byte, error) {
	return cbor.Marshal(v)
}

func decode(data []byte, v any) error {
	return cbor.Unmarshal(data, v)
}

// toStruct rejects payloads that are not JSON-compatible documents.
func toStruct(payload map[string]any) (*structpb.Struct, error) {
	s, err := structpb.NewStruct(payload)
	if err != nil {
		return nil, fmt.Errorf("%w: notification payload: %s", errors.ErrValidation, err.Error())
	}
	return s, nil
}

func encodePayload(payload map[string]any) ([]byte, error) {
	s, err := toStruct(payload)
	if err != nil {
		return nil, err
	}
	return proto.Marshal(s)
}

func decodePayload(data []byte) (map[string]any, error) {
	var s structpb.Struct
	if err := proto.Unmarshal(data, &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}

func encodePayloadJSON(payload map[string]any) (string, error) {
	s, err := toStruct(payload)
	if err != nil {
		return "", err
	}
	data, err := protojson.Marshal(s)
	if err != nil {
		return "", err
	}
	return string(data), nil
}

func decodePayloadJSON(data string) (map[string]any, error) {
	var s structpb.Struct
	if err := protojson.Unmarshal([]byte(data), &s); err != nil {
		return nil, err
	}
	return s.AsMap(), nil
}
