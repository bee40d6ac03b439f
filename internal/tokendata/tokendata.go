// Package tokendata encodes the value stored under an opaque token key.
package tokendata

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"

	"github.com/vmihailenco/msgpack/v5"
)

// ErrCorrupt is returned when a stored value cannot be decoded or carries
// no username.
var ErrCorrupt = errors.New("token data corrupt")

const (
	// EncodingJSON stores {"username":"..."}; readable by redis-cli and the
	// legacy services.
	EncodingJSON = "json"
	// EncodingMsgpack stores a msgpack map with the same field names.
	EncodingMsgpack = "msgpack"
	// EncodingBinary stores a versioned, length-prefixed record.
	EncodingBinary = "binary"
)

// Data is the payload bound to an opaque token.
type Data struct {
	Username string `json:"username" msgpack:"username"`
}

// Codec converts Data to and from its stored form. Implementations are
// stateless and safe for concurrent use.
type Codec interface {
	Name() string
	Encode(Data) ([]byte, error)
	Decode([]byte) (Data, error)
}

// ForName returns the codec registered under name. An empty name selects
// JSON.
func ForName(name string) (Codec, error) {
	switch name {
	case EncodingJSON, "":
		return JSON{}, nil
	case EncodingMsgpack:
		return Msgpack{}, nil
	case EncodingBinary:
		return Binary{}, nil
	default:
		return nil, fmt.Errorf("unknown token data encoding %q", name)
	}
}

// JSON is the default codec.
type JSON struct{}

func (JSON) Name() string { return EncodingJSON }

func (JSON) Encode(d Data) ([]byte, error) {
	return json.Marshal(d)
}

func (JSON) Decode(raw []byte) (Data, error) {
	var d Data
	if err := json.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return checked(d)
}

// Msgpack encodes Data as a msgpack map.
type Msgpack struct{}

func (Msgpack) Name() string { return EncodingMsgpack }

func (Msgpack) Encode(d Data) ([]byte, error) {
	return msgpack.Marshal(&d)
}

func (Msgpack) Decode(raw []byte) (Data, error) {
	var d Data
	if err := msgpack.Unmarshal(raw, &d); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	return checked(d)
}

const binaryFormatVersion = 1

// Binary lays a record out as
//
//	version(1) | usernameLen(2, big endian) | username
//
// Unknown versions and trailing bytes are rejected.
type Binary struct{}

func (Binary) Name() string { return EncodingBinary }

func (Binary) Encode(d Data) ([]byte, error) {
	if len(d.Username) > 0xFFFF {
		return nil, errors.New("username too long")
	}

	var buf bytes.Buffer
	buf.Grow(3 + len(d.Username))
	buf.WriteByte(binaryFormatVersion)
	if err := binary.Write(&buf, binary.BigEndian, uint16(len(d.Username))); err != nil {
		return nil, err
	}
	buf.WriteString(d.Username)
	return buf.Bytes(), nil
}

func (Binary) Decode(raw []byte) (Data, error) {
	reader := bytes.NewReader(raw)

	version, err := reader.ReadByte()
	if err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if version != binaryFormatVersion {
		return Data{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, version)
	}

	var n uint16
	if err := binary.Read(reader, binary.BigEndian, &n); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	username := make([]byte, n)
	if _, err := io.ReadFull(reader, username); err != nil {
		return Data{}, fmt.Errorf("%w: %v", ErrCorrupt, err)
	}
	if reader.Len() != 0 {
		return Data{}, fmt.Errorf("%w: trailing bytes", ErrCorrupt)
	}

	return checked(Data{Username: string(username)})
}

func checked(d Data) (Data, error) {
	if d.Username == "" {
		return Data{}, fmt.Errorf("%w: empty username", ErrCorrupt)
	}
	return d, nil
}
