// Copyright (C) 2024 The Prodigy Authors. All Rights Reserved.

package codec

import (
	"bytes"
	"encoding"
	"fmt"
)

// EncodeValue encodes v into bytes. The concrete type of v must be []byte or
// string, or must implement encoding.BinaryMarshaler or
// encoding.TextMarshaler (BinaryMarshaler is preferred if both are
// implemented). A nil v encodes to nil.
//
// This follows the same convention as the marshal helper in
// github.com/creachadair/chirp's handler package.
func EncodeValue(v any) ([]byte, error) {
	switch t := v.(type) {
	case nil:
		return nil, nil
	case []byte:
		return t, nil
	case string:
		return []byte(t), nil
	case encoding.BinaryMarshaler:
		return t.MarshalBinary()
	case encoding.TextMarshaler:
		return t.MarshalText()
	default:
		return nil, fmt.Errorf("codec: cannot encode value of type %T", v)
	}
}

// DecodeValue decodes data into out, which must be a pointer to []byte or
// string, or must implement encoding.BinaryUnmarshaler or
// encoding.TextUnmarshaler (BinaryUnmarshaler is preferred if both are
// implemented).
func DecodeValue(data []byte, out any) error {
	switch t := out.(type) {
	case *[]byte:
		*t = bytes.Clone(data)
	case *string:
		*t = string(data)
	case encoding.BinaryUnmarshaler:
		return t.UnmarshalBinary(data)
	case encoding.TextUnmarshaler:
		return t.UnmarshalText(data)
	default:
		return fmt.Errorf("codec: cannot decode into type %T", out)
	}
	return nil
}
