package domain

import (
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
)

// EncryptedBlob is the output of one authenticated encryption call: a random
// IV, the ciphertext, and the authentication tag, held separately.
//
// Two wire forms exist:
//   - a JSON object {"iv","ciphertext","authTag"} with base64 values, used for
//     the wrapped master-key record stored in the OS keychain;
//   - a compact hex string IV||ciphertext||tag, used for per-secret values
//     stored by the metadata database.
type EncryptedBlob struct {
	IV         []byte
	Ciphertext []byte
	Tag        []byte
}

// blobJSON is the persisted JSON shape of an EncryptedBlob. Field names are
// part of the stored-record format and must not change.
type blobJSON struct {
	IV         string `json:"iv"`
	Ciphertext string `json:"ciphertext"`
	AuthTag    string `json:"authTag"`
}

// MarshalJSON encodes the blob as {"iv","ciphertext","authTag"} with
// standard base64 values.
func (b EncryptedBlob) MarshalJSON() ([]byte, error) {
	return json.Marshal(blobJSON{
		IV:         base64.StdEncoding.EncodeToString(b.IV),
		Ciphertext: base64.StdEncoding.EncodeToString(b.Ciphertext),
		AuthTag:    base64.StdEncoding.EncodeToString(b.Tag),
	})
}

// UnmarshalJSON decodes the JSON record form and validates the IV and tag
// lengths. Returns ErrMalformedBlob for anything that cannot round-trip.
func (b *EncryptedBlob) UnmarshalJSON(data []byte) error {
	var raw blobJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return ErrMalformedBlob
	}

	iv, err := base64.StdEncoding.DecodeString(raw.IV)
	if err != nil {
		return ErrMalformedBlob
	}
	ciphertext, err := base64.StdEncoding.DecodeString(raw.Ciphertext)
	if err != nil {
		return ErrMalformedBlob
	}
	tag, err := base64.StdEncoding.DecodeString(raw.AuthTag)
	if err != nil {
		return ErrMalformedBlob
	}

	if len(iv) != NonceSize || len(tag) != TagSize {
		return ErrMalformedBlob
	}

	b.IV = iv
	b.Ciphertext = ciphertext
	b.Tag = tag
	return nil
}

// EncodeHex returns the compact per-secret wire form: hex(IV||ciphertext||tag).
func (b EncryptedBlob) EncodeHex() string {
	raw := make([]byte, 0, len(b.IV)+len(b.Ciphertext)+len(b.Tag))
	raw = append(raw, b.IV...)
	raw = append(raw, b.Ciphertext...)
	raw = append(raw, b.Tag...)
	return hex.EncodeToString(raw)
}

// DecodeHex parses the compact per-secret wire form produced by EncodeHex.
// An empty ciphertext is valid; anything shorter than IV+tag is not.
func DecodeHex(s string) (EncryptedBlob, error) {
	raw, err := hex.DecodeString(s)
	if err != nil {
		return EncryptedBlob{}, ErrMalformedBlob
	}
	if len(raw) < NonceSize+TagSize {
		return EncryptedBlob{}, ErrMalformedBlob
	}

	return EncryptedBlob{
		IV:         raw[:NonceSize],
		Ciphertext: raw[NonceSize : len(raw)-TagSize],
		Tag:        raw[len(raw)-TagSize:],
	}, nil
}
