// Package codec encodes node payloads for tree snapshots.
//
// Snapshots record the codec name in their header and are decoded with the
// codec of that name, so a codec's wire format must never change once its
// name has been used.
package codec

import "fmt"

// Codec encodes/decodes payload values.
// Implementations must be safe for concurrent use.
type Codec interface {
	Marshal(v any) ([]byte, error)
	Unmarshal(data []byte, v any) error
	Name() string
}

// Appender is implemented by codecs that can encode into a caller buffer.
type Appender interface {
	Append(dst []byte, v any) ([]byte, error)
}

// UnknownCodecError is returned by Lookup for names with no built-in codec.
type UnknownCodecError struct {
	Name string
}

func (e *UnknownCodecError) Error() string {
	return fmt.Sprintf("codec: unknown codec %q", e.Name)
}

// ByName returns a built-in codec by its stable name.
func ByName(name string) (Codec, bool) {
	switch name {
	case "json":
		return JSON{}, true
	case "go-json":
		return GoJSON{}, true
	default:
		return nil, false
	}
}

// Lookup is ByName with an error for unknown names.
func Lookup(name string) (Codec, error) {
	c, ok := ByName(name)
	if !ok {
		return nil, &UnknownCodecError{Name: name}
	}
	return c, nil
}

// AppendEncode encodes v with c and appends the bytes to dst.
func AppendEncode(c Codec, dst []byte, v any) ([]byte, error) {
	if a, ok := c.(Appender); ok {
		return a.Append(dst, v)
	}
	b, err := c.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(dst, b...), nil
}

// Default is used for new snapshots when no codec is configured.
var Default Codec = GoJSON{}
