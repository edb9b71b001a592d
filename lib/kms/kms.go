package kms

import (
	"context"
	"encoding/base64"
	"fmt"

	"google.golang.org/api/cloudkms/v1"
	"google.golang.org/api/option"
)

// Decrypter unwraps secrets that were encrypted with a Cloud KMS CryptoKey.
type Decrypter struct {
	service *cloudkms.Service
}

// New creates a Decrypter. Pass option.WithEndpoint and
// option.WithoutAuthentication to talk to a mock KMS.
func New(ctx context.Context, opts ...option.ClientOption) (*Decrypter, error) {
	service, err := cloudkms.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error creating cloudKMS.service: %w", err)
	}
	return &Decrypter{service: service}, nil
}

// Decrypt decrypts base64 ciphertext with keyName, the full resource name
// projects/*/locations/*/keyRings/*/cryptoKeys/*.
func (d *Decrypter) Decrypt(ctx context.Context, keyName string, ciphertext string) (string, error) {
	req := &cloudkms.DecryptRequest{
		Ciphertext: ciphertext,
	}
	resp, err := d.service.Projects.Locations.KeyRings.CryptoKeys.Decrypt(keyName, req).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("decrypt with %s: %w", keyName, err)
	}
	plaintext, err := base64.StdEncoding.DecodeString(resp.Plaintext)
	if err != nil {
		return "", fmt.Errorf("decode plaintext: %w", err)
	}
	return string(plaintext), nil
}
