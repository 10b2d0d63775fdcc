// Package typelib compiles namespace metadata into self-verifying
// binary blobs.
//
// A typelib is a fixed header (magic, format version, sha256 digest)
// followed by a canonically CBOR-encoded namespace. Canonical encoding
// makes compilation deterministic: the same namespace always produces
// the same bytes, so blob equality means metadata equality. Load
// verifies the header and digest before decoding.
package typelib

import (
	"bytes"
	"crypto/sha256"
	"encoding/binary"
	"errors"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/chazu/giro/gi"
)

// Blob format constants.
const (
	formatVersion uint16 = 1

	magicLen  = 8
	digestLen = sha256.Size
	headerLen = magicLen + 2 + digestLen
)

var magic = [magicLen]byte{'G', 'I', 'R', 'O', 'T', 'L', 'I', 'B'}

// Load failure sentinels.
var (
	ErrTruncated          = errors.New("blob shorter than header")
	ErrBadMagic           = errors.New("not a typelib blob")
	ErrUnsupportedVersion = errors.New("unsupported typelib format version")
	ErrDigestMismatch     = errors.New("typelib digest mismatch")
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("typelib: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Compile validates a namespace and encodes it as a typelib blob.
func Compile(ns *gi.Namespace) ([]byte, error) {
	if err := ns.Validate(); err != nil {
		return nil, fmt.Errorf("typelib: compile %s: %w", ns.Name, err)
	}

	payload, err := cborEncMode.Marshal(ns)
	if err != nil {
		return nil, fmt.Errorf("typelib: compile %s: encode: %w", ns.Name, err)
	}
	digest := sha256.Sum256(payload)

	blob := make([]byte, 0, headerLen+len(payload))
	blob = append(blob, magic[:]...)
	blob = binary.BigEndian.AppendUint16(blob, formatVersion)
	blob = append(blob, digest[:]...)
	blob = append(blob, payload...)
	return blob, nil
}

// Load verifies a typelib blob and decodes its namespace.
func Load(blob []byte) (*gi.Namespace, error) {
	if len(blob) < headerLen {
		return nil, fmt.Errorf("typelib: load: %w", ErrTruncated)
	}
	if !bytes.Equal(blob[:magicLen], magic[:]) {
		return nil, fmt.Errorf("typelib: load: %w", ErrBadMagic)
	}
	version := binary.BigEndian.Uint16(blob[magicLen : magicLen+2])
	if version != formatVersion {
		return nil, fmt.Errorf("typelib: load: version %d: %w", version, ErrUnsupportedVersion)
	}

	var declared [digestLen]byte
	copy(declared[:], blob[magicLen+2:headerLen])
	payload := blob[headerLen:]

	if computed := sha256.Sum256(payload); computed != declared {
		return nil, fmt.Errorf("typelib: load: declared %x, computed %x: %w",
			declared, computed, ErrDigestMismatch)
	}

	var ns gi.Namespace
	if err := cbor.Unmarshal(payload, &ns); err != nil {
		return nil, fmt.Errorf("typelib: load: decode: %w", err)
	}
	if err := ns.Validate(); err != nil {
		return nil, fmt.Errorf("typelib: load: %w", err)
	}
	return &ns, nil
}

// Digest returns the content digest a blob declares, after checking
// only the header shape. It does not verify the payload.
func Digest(blob []byte) ([digestLen]byte, error) {
	var d [digestLen]byte
	if len(blob) < headerLen {
		return d, fmt.Errorf("typelib: digest: %w", ErrTruncated)
	}
	if !bytes.Equal(blob[:magicLen], magic[:]) {
		return d, fmt.Errorf("typelib: digest: %w", ErrBadMagic)
	}
	copy(d[:], blob[magicLen+2:headerLen])
	return d, nil
}

// LoadFile reads and loads a typelib blob from disk.
func LoadFile(path string) (*gi.Namespace, error) {
	blob, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("typelib: cannot read %s: %w", path, err)
	}
	ns, err := Load(blob)
	if err != nil {
		return nil, fmt.Errorf("typelib: %s: %w", path, err)
	}
	return ns, nil
}
