package utils

import gonanoid "github.com/matoous/go-nanoid/v2"

const (
	IDSize     = 21
	SuffixSize = 6

	idAlphabet = "0123456789abcdefghijklmnopqrstuvwxyz"
)

// NanoID returns a lowercase alphanumeric id of IDSize characters.
func NanoID() string {
	return NanoIDSize(IDSize)
}

func NanoIDSize(size int) string {
	if size <= 0 {
		size = IDSize
	}

	return gonanoid.MustGenerate(idAlphabet, size)
}
