package timeline

import (
	"encoding/binary"
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// Digest returns the hex BLAKE3-256 hash of the timeline contents. Two
// timelines with the same stamps always share a digest.
func Digest(t *Timeline) string {
	h := blake3.New()
	var buf [24]byte
	for _, s := range t.stamps {
		binary.LittleEndian.PutUint64(buf[0:8], uint64(int64(s.Offset)))
		binary.LittleEndian.PutUint64(buf[8:16], uint64(int64(s.Score.Home)))
		binary.LittleEndian.PutUint64(buf[16:24], uint64(int64(s.Score.Away)))
		_, _ = h.Write(buf[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
