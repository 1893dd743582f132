package keystore

import (
	"bytes"
	"crypto/sha256"
	"fmt"
	"io"

	"golang.org/x/crypto/hkdf"

	"github.com/tink-crypto/tink-go/v2/aead"
	"github.com/tink-crypto/tink-go/v2/insecurecleartextkeyset"
	"github.com/tink-crypto/tink-go/v2/keyset"
	gcmpb "github.com/tink-crypto/tink-go/v2/proto/aes_gcm_go_proto"
	tinkpb "github.com/tink-crypto/tink-go/v2/proto/tink_go_proto"
	"github.com/tink-crypto/tink-go/v2/tink"

	"google.golang.org/protobuf/proto"

	"github.com/idelchi/filevault/internal/encryption"
)

const (
	databaseKeyInfo = "filevault/keydb"
	databaseKeySize = 32
	aesGcmTypeURL   = "type.googleapis.com/google.crypto.tink.AesGcmKey"
)

// newDatabaseAEAD derives the database key from the master secret and
// returns the AES-256-GCM primitive that seals the database payload.
func newDatabaseAEAD(master []byte) (tink.AEAD, error) {
	if len(master) != MasterKeySize {
		return nil, fmt.Errorf("%w: master key has %d bytes, want %d",
			encryption.ErrKeyLength, len(master), MasterKeySize)
	}

	key := make([]byte, databaseKeySize)
	if _, err := io.ReadFull(hkdf.New(sha256.New, master, nil, []byte(databaseKeyInfo)), key); err != nil {
		return nil, fmt.Errorf("deriving database key: %w", err)
	}

	kh, err := newAEADKeyHandle(key)
	if err != nil {
		return nil, fmt.Errorf("creating keyset handle: %w", err)
	}

	primitive, err := aead.New(kh)
	if err != nil {
		return nil, fmt.Errorf("creating AEAD: %w", err)
	}

	return primitive, nil
}

// newAEADKeyHandle creates a Tink keyset handle for AES-GCM from raw key bytes.
// The key uses the RAW output prefix, so ciphertexts carry no Tink key id.
func newAEADKeyHandle(key []byte) (*keyset.Handle, error) {
	serializedKey, err := proto.Marshal(&gcmpb.AesGcmKey{
		Version:  0,
		KeyValue: key,
	})
	if err != nil {
		return nil, fmt.Errorf("serializing AesGcmKey: %w", err)
	}

	keySet := &tinkpb.Keyset{
		PrimaryKeyId: 1,
		Key: []*tinkpb.Keyset_Key{
			{
				KeyData: &tinkpb.KeyData{
					TypeUrl:         aesGcmTypeURL,
					Value:           serializedKey,
					KeyMaterialType: tinkpb.KeyData_SYMMETRIC,
				},
				Status:           tinkpb.KeyStatusType_ENABLED,
				KeyId:            1,
				OutputPrefixType: tinkpb.OutputPrefixType_RAW,
			},
		},
	}

	serializedKeyset, err := proto.Marshal(keySet)
	if err != nil {
		return nil, fmt.Errorf("serializing keyset: %w", err)
	}

	kh, err := insecurecleartextkeyset.Read(keyset.NewBinaryReader(bytes.NewReader(serializedKeyset)))
	if err != nil {
		return nil, fmt.Errorf("reading keyset: %w", err)
	}

	return kh, nil
}
