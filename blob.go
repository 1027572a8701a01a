package soci

// Blob is an owning handle to a large object managed by the session's
// backend. The driver-side representation (a file-like object, an
// in-memory buffer) is hidden behind the BlobBackend contract.
type Blob struct {
	backEnd BlobBackend
}

// Backend exposes the driver-side blob for backend-specific extensions.
func (b *Blob) Backend() BlobBackend { return b.backEnd }

// Len returns the current length of the object in bytes.
func (b *Blob) Len() (int64, error) {
	return b.backEnd.Len()
}

// ReadFromStart reads up to len(buf) bytes starting at offset and returns
// the number of bytes read.
func (b *Blob) ReadFromStart(buf []byte, offset int64) (int, error) {
	return b.backEnd.ReadFromStart(buf, offset)
}

// WriteFromStart writes buf at offset, extending the object as needed so
// that offset+len(buf) <= Len() afterwards, and returns the number of
// bytes written.
func (b *Blob) WriteFromStart(buf []byte, offset int64) (int, error) {
	return b.backEnd.WriteFromStart(buf, offset)
}

// Append writes buf at the end of the object.
func (b *Blob) Append(buf []byte) (int, error) {
	return b.backEnd.Append(buf)
}

// Trim truncates the object to newLen bytes.
func (b *Blob) Trim(newLen int64) error {
	return b.backEnd.Trim(newLen)
}
