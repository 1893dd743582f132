package keystore

import (
	"bytes"
	"fmt"
)

const (
	databaseMagic   = "FVKD"
	databaseVersion = byte(1)
)

const databaseHeaderSize = len(databaseMagic) + 2

// newDatabaseHeader returns the header written in front of the encrypted payload.
// The header doubles as associated data, so it cannot be altered undetected.
func newDatabaseHeader() []byte {
	header := make([]byte, databaseHeaderSize)
	copy(header, databaseMagic)

	header[len(databaseMagic)] = databaseVersion
	header[len(databaseMagic)+1] = 0 // reserved

	return header
}

// splitDatabaseBlob validates the header and returns it along with the payload.
func splitDatabaseBlob(blob []byte) (header, payload []byte, err error) {
	if len(blob) < databaseHeaderSize {
		return nil, nil, fmt.Errorf("%w: database header too short", ErrDatabaseCorrupt)
	}

	header, payload = blob[:databaseHeaderSize], blob[databaseHeaderSize:]

	if !bytes.Equal(header[:len(databaseMagic)], []byte(databaseMagic)) {
		return nil, nil, fmt.Errorf("%w: invalid database magic", ErrDatabaseCorrupt)
	}

	if version := header[len(databaseMagic)]; version != databaseVersion {
		return nil, nil, fmt.Errorf("%w: unsupported database version %d", ErrDatabaseCorrupt, version)
	}

	if reserved := header[len(databaseMagic)+1]; reserved != 0 {
		return nil, nil, fmt.Errorf("%w: unexpected reserved byte %#x", ErrDatabaseCorrupt, reserved)
	}

	return header, payload, nil
}
