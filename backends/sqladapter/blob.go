package sqladapter

import (
	"github.com/pthis/soci"
)

// blobBackend keeps the large object in memory, the way file-less drivers
// represent blobs: the whole value travels in the column and the handle
// edits a buffer. Reads and writes past the end follow the contract that
// offset+n <= Len() holds after every successful write.
type blobBackend struct {
	buf []byte
}

// Len implements soci.BlobBackend.
func (b *blobBackend) Len() (int64, error) {
	return int64(len(b.buf)), nil
}

// ReadFromStart implements soci.BlobBackend.
func (b *blobBackend) ReadFromStart(buf []byte, offset int64) (int, error) {
	if offset < 0 || offset > int64(len(b.buf)) {
		return 0, &soci.Error{Category: soci.ErrUsage, Message: "blob read offset out of range"}
	}
	n := copy(buf, b.buf[offset:])
	return n, nil
}

// WriteFromStart implements soci.BlobBackend.
func (b *blobBackend) WriteFromStart(buf []byte, offset int64) (int, error) {
	if offset < 0 {
		return 0, &soci.Error{Category: soci.ErrUsage, Message: "blob write offset out of range"}
	}
	need := int(offset) + len(buf)
	if need > len(b.buf) {
		grown := make([]byte, need)
		copy(grown, b.buf)
		b.buf = grown
	}
	copy(b.buf[offset:], buf)
	return len(buf), nil
}

// Append implements soci.BlobBackend.
func (b *blobBackend) Append(buf []byte) (int, error) {
	b.buf = append(b.buf, buf...)
	return len(buf), nil
}

// Trim implements soci.BlobBackend.
func (b *blobBackend) Trim(newLen int64) error {
	if newLen < 0 || newLen > int64(len(b.buf)) {
		return &soci.Error{Category: soci.ErrUsage, Message: "blob trim length out of range"}
	}
	b.buf = b.buf[:newLen]
	return nil
}

// blobBytes extracts the buffer of a blob bound as a parameter.
func blobBytes(blob *soci.Blob) ([]byte, error) {
	backEnd, ok := blob.Backend().(*blobBackend)
	if !ok {
		return nil, &soci.Error{Category: soci.ErrBind, Message: "blob belongs to a different backend"}
	}
	out := make([]byte, len(backEnd.buf))
	copy(out, backEnd.buf)
	return out, nil
}

// setBlobBytes loads a fetched column value into a blob handle.
func setBlobBytes(blob *soci.Blob, buf []byte) error {
	backEnd, ok := blob.Backend().(*blobBackend)
	if !ok {
		return &soci.Error{Category: soci.ErrBind, Message: "blob belongs to a different backend"}
	}
	backEnd.buf = buf
	return nil
}
