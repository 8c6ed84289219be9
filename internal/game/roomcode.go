package game

import (
	"crypto/rand"
	"io"
	"math/big"
)

const RoomCodeAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateRoomCode draws length characters from RoomCodeAlphabet using r,
// or crypto/rand when r is nil.
func GenerateRoomCode(r io.Reader, length int) (string, error) {
	if r == nil {
		r = rand.Reader
	}
	if length <= 0 {
		length = 5
	}
	max := big.NewInt(int64(len(RoomCodeAlphabet)))
	out := make([]byte, length)
	for i := range out {
		n, err := rand.Int(r, max)
		if err != nil {
			return "", err
		}
		out[i] = RoomCodeAlphabet[n.Int64()]
	}
	return string(out), nil
}
