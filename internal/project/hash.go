package project

import (
	"crypto/sha256"
)

// Digest - фиксированный 256 битный хеш содержимого исходника.
type Digest [32]byte

// Of хеширует содержимое одного файла.
func Of(content []byte) Digest {
	return sha256.Sum256(content)
}

// Combine строит общий хеш: H( first || d1 || d2 ... ).
// Порядок должен быть детерминированным: вызывающий сортирует по URI.
func Combine(first Digest, rest ...Digest) Digest {
	h := sha256.New()
	_, _ = h.Write(first[:])
	for _, d := range rest {
		_, _ = h.Write(d[:])
	}
	var out Digest
	copy(out[:], h.Sum(nil))
	return out
}

// IsZero reports whether the digest was never computed.
func (d Digest) IsZero() bool { return d == Digest{} }
