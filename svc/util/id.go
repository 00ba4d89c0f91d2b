package util

import (
	"crypto/rand"

	"github.com/pkg/errors"
)

const (
	idChars  = "0123456789ABCDEFGHIJKLMNOPQRSTUVWXYZabcdefghijklmnopqrstuvwxyz"
	IDLength = 12
)

// GenPasteID returns a random 12-character alphanumeric id. The exists
// callback lets the caller retry on the (astronomically rare) collision
// instead of failing the insert.
func GenPasteID(exists func(string) (bool, error)) (string, error) {
	for retry := 0; retry < 5; retry++ {
		id, err := randomID()
		if err != nil {
			return "", err
		}
		exist, err := exists(id)
		if err != nil {
			return "", err
		}
		if !exist {
			return id, nil
		}
	}
	return "", errors.New("id collision after 5 retries")
}
func randomID() (string, error) {
	buf := make([]byte, IDLength)
	if _, err := rand.Read(buf); err != nil {
		return "", errors.Wrap(err, "rand fail")
	}
	// Modulo bias over 62 chars is negligible for opaque handles.
	for i := range buf {
		buf[i] = idChars[int(buf[i])%len(idChars)]
	}
	return string(buf), nil
}
