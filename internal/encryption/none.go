package encryption

import (
	"fmt"
	"io"

	"fo-go/internal/fo"
)

// NoneEncryptor stores archives in plaintext. It is selected with
// encryption type "none" for vaults the user already trusts.
type NoneEncryptor struct{}

var _ fo.Encryptor = NoneEncryptor{}

func (NoneEncryptor) Setup(string) error {
	return fmt.Errorf("encryption type \"none\" has no keys")
}

func (NoneEncryptor) Encrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}

func (NoneEncryptor) Unlock(string) (fo.DecryptionContext, error) {
	return plainContext{}, nil
}

func (NoneEncryptor) IsConfigured() bool { return true }

type plainContext struct{}

func (plainContext) Decrypt(r io.Reader, w io.Writer) error {
	if _, err := io.Copy(w, r); err != nil {
		return fmt.Errorf("copying data: %w", err)
	}
	return nil
}
