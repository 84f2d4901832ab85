package encryption

import (
	"fmt"

	"fo-go/internal/config"
	"fo-go/internal/fo"
)

// NewEncryptorFromConfig returns the archive encryptor named by cfg.Type.
// "" and "none" store catalog snapshots in the clear.
func NewEncryptorFromConfig(cfg config.EncryptionConfig) (fo.Encryptor, error) {
	switch cfg.Type {
	case "", "none":
		return NoneEncryptor{}, nil
	case "test":
		return NewTestEncryptor(), nil
	case "age":
		switch {
		case cfg.PublicKeyPath == "" || cfg.PrivateKeyPath == "":
			return nil, fmt.Errorf("archive.encryption: age needs public_key_path and private_key_path")
		case cfg.PublicKeyPath == cfg.PrivateKeyPath:
			return nil, fmt.Errorf("archive.encryption: public and private key paths are the same file")
		}
		return NewAgeEncryptor(cfg), nil
	}
	return nil, fmt.Errorf("archive.encryption: unknown type %q", cfg.Type)
}
