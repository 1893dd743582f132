package keystore

import (
	"encoding/base64"
	"fmt"

	"google.golang.org/protobuf/proto"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/idelchi/filevault/internal/encryption"
)

const (
	schemaVersion = 1

	fieldVersion = "version"
	fieldKeys    = "keys"
)

// validateEntry applies the schema rules shared by encoding and decoding.
func validateEntry(id string, key []byte) error {
	if _, err := base64.StdEncoding.DecodeString(id); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidIdentifier, id)
	}

	if len(key) != encryption.KeySize {
		return fmt.Errorf("%w: key for %q has %d bytes, want %d", encryption.ErrKeyLength, id, len(key), encryption.KeySize)
	}

	return nil
}

// encodeEntries serializes the identifier to key mapping.
// Keys are stored base64 encoded and map entries are emitted in sorted order,
// so equal mappings always produce equal bytes. A mapping that decodeEntries
// would reject is refused here, before anything is written.
func encodeEntries(entries map[string][]byte) ([]byte, error) {
	keys := make(map[string]*structpb.Value, len(entries))

	for id, key := range entries {
		if err := validateEntry(id, key); err != nil {
			return nil, fmt.Errorf("encoding key database: %w", err)
		}

		keys[id] = structpb.NewStringValue(base64.StdEncoding.EncodeToString(key))
	}

	doc := &structpb.Struct{
		Fields: map[string]*structpb.Value{
			fieldVersion: structpb.NewNumberValue(schemaVersion),
			fieldKeys:    structpb.NewStructValue(&structpb.Struct{Fields: keys}),
		},
	}

	data, err := proto.MarshalOptions{Deterministic: true}.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encoding key database: %w", err)
	}

	return data, nil
}

// decodeEntries parses and validates a serialized mapping.
// Any structural problem is reported as ErrDatabaseCorrupt.
func decodeEntries(data []byte) (map[string][]byte, error) {
	var doc structpb.Struct
	if err := proto.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrDatabaseCorrupt, err)
	}

	version, ok := doc.GetFields()[fieldVersion]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrDatabaseCorrupt, fieldVersion)
	}

	if _, isNumber := version.GetKind().(*structpb.Value_NumberValue); !isNumber || version.GetNumberValue() != schemaVersion {
		return nil, fmt.Errorf("%w: unsupported schema version %v", ErrDatabaseCorrupt, version.AsInterface())
	}

	keysValue, ok := doc.GetFields()[fieldKeys]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q", ErrDatabaseCorrupt, fieldKeys)
	}

	keys := keysValue.GetStructValue()
	if keys == nil {
		return nil, fmt.Errorf("%w: %q is not a mapping", ErrDatabaseCorrupt, fieldKeys)
	}

	entries := make(map[string][]byte, len(keys.GetFields()))

	for id, value := range keys.GetFields() {
		encoded, isString := value.GetKind().(*structpb.Value_StringValue)
		if !isString {
			return nil, fmt.Errorf("%w: key for %q is not a string", ErrDatabaseCorrupt, id)
		}

		key, err := base64.StdEncoding.DecodeString(encoded.StringValue)
		if err != nil {
			return nil, fmt.Errorf("%w: key for %q: %w", ErrDatabaseCorrupt, id, err)
		}

		if err := validateEntry(id, key); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrDatabaseCorrupt, err)
		}

		entries[id] = key
	}

	return entries, nil
}
