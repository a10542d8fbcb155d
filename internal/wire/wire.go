package wire

import (
	"bytes"
	"encoding/binary"
	"errors"
)

const (
	version      byte = 1
	kindResponse byte = 1
)

// Limits imposed by the frame layout: header strings carry a u16 length
// prefix, the body a u32. Callers framing untrusted input must check these
// before encoding; EncodeResponse panics past them.
const (
	MaxHeaderLen = 0xFFFF
	MaxBodyLen   = 0xFFFFFFFF
)

var (
	ErrCorrupt = errors.New("fetcher: corrupt entry")
	magic4     = [...]byte{'S', 'E', 'E', 'D'}
)

func hasMagic(b []byte) bool {
	return len(b) >= 4 && bytes.Equal(b[:4], magic4[:])
}

// Response is a cached HTTP response together with its revalidation headers.
// Validators may be empty; the frame stores whatever the origin sent.
type Response struct {
	ETag         string
	LastModified string
	ContentType  string
	Body         []byte
}

// Response: magic(4) | ver(1) | kind(1=response) |
//
//	etagLen(u16 be) | etag | lmLen(u16 be) | lm | ctLen(u16 be) | ct |
//	blen(u32 be) | body(blen)
func EncodeResponse(r Response) []byte {
	if int64(len(r.Body)) > MaxBodyLen {
		panic("fetcher: body too long")
	}

	var buf bytes.Buffer
	buf.Grow(4 + 1 + 1 +
		2 + len(r.ETag) + 2 + len(r.LastModified) + 2 + len(r.ContentType) +
		4 + len(r.Body))

	buf.Write(magic4[:])
	buf.WriteByte(version)
	buf.WriteByte(kindResponse)

	writeStr(&buf, r.ETag)
	writeStr(&buf, r.LastModified)
	writeStr(&buf, r.ContentType)

	var u4 [4]byte
	binary.BigEndian.PutUint32(u4[:], uint32(len(r.Body)))
	buf.Write(u4[:])
	buf.Write(r.Body)

	return buf.Bytes()
}

// DecodeResponse rejects short, mistagged and trailing-garbage input with
// ErrCorrupt. The returned Body aliases b.
func DecodeResponse(b []byte) (Response, error) {
	const hdr = 4 + 1 + 1
	if len(b) < hdr || !hasMagic(b) || b[4] != version || b[5] != kindResponse {
		return Response{}, ErrCorrupt
	}

	off := 6
	var r Response
	var err error
	if r.ETag, off, err = readStr(b, off); err != nil {
		return Response{}, err
	}
	if r.LastModified, off, err = readStr(b, off); err != nil {
		return Response{}, err
	}
	if r.ContentType, off, err = readStr(b, off); err != nil {
		return Response{}, err
	}

	if off+4 > len(b) {
		return Response{}, ErrCorrupt
	}
	blen := int(binary.BigEndian.Uint32(b[off : off+4]))
	off += 4
	if blen < 0 || blen != len(b)-off { // strict framing: no trailing bytes
		return Response{}, ErrCorrupt
	}
	r.Body = b[off : off+blen]
	return r, nil
}

func writeStr(buf *bytes.Buffer, s string) {
	if len(s) > MaxHeaderLen {
		panic("fetcher: header too long")
	}
	var u2 [2]byte
	binary.BigEndian.PutUint16(u2[:], uint16(len(s)))
	buf.Write(u2[:])
	buf.WriteString(s)
}

func readStr(b []byte, off int) (string, int, error) {
	if off+2 > len(b) {
		return "", 0, ErrCorrupt
	}
	n := int(binary.BigEndian.Uint16(b[off : off+2]))
	off += 2
	if n > len(b)-off { // overflow-safe bound check
		return "", 0, ErrCorrupt
	}
	return string(b[off : off+n]), off + n, nil
}
