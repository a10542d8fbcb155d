// Package codec negotiates wire encodings for fetched resources and decodes
// payloads into caller-typed values.
//
// The set of recognized encodings is closed: a structured text format (JSON)
// and two compact binary formats (MessagePack, CBOR), plus Protobuf for
// resources whose Go type is a proto message. Responses carrying any other
// content type are rejected by the fetch layer rather than guessed at.
package codec

import "mime"

// ContentType identifies a recognized wire encoding by its MIME type.
type ContentType string

const (
	JSON     ContentType = "application/json"
	MsgPack  ContentType = "application/msgpack"
	CBOR     ContentType = "application/cbor"
	Protobuf ContentType = "application/x-protobuf"
)

// DefaultAccept is the Accept header sent with resource fetches unless the
// host overrides it. Binary encodings are preferred over JSON.
const DefaultAccept = "application/msgpack, application/cbor;q=0.8, application/json;q=0.5"

// Negotiate maps a Content-Type header value to a recognized ContentType.
// Parameters (charset etc.) are ignored. ok is false for unparseable headers
// and for media types outside the recognized set.
func Negotiate(header string) (ContentType, bool) {
	mt, _, err := mime.ParseMediaType(header)
	if err != nil {
		return "", false
	}
	switch ct := ContentType(mt); ct {
	case JSON, MsgPack, CBOR, Protobuf:
		return ct, true
	}
	return "", false
}
