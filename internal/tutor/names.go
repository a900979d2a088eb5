package tutor

import (
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/blake2b"
	"golang.org/x/text/cases"
	"golang.org/x/text/unicode/norm"
)

// topicKey normalizes a topic name for comparison.
func topicKey(name string) string {
	s := norm.NFC.String(strings.TrimSpace(name))
	s = strings.Join(strings.Fields(s), " ")
	// A Caser carries state, so each call gets its own.
	return cases.Fold().String(s)
}

// SameTopic reports whether two topic names refer to the same topic.
func SameTopic(a, b string) bool {
	return topicKey(a) == topicKey(b)
}

// SourceKey hashes the inputs of a domain build. Identical inputs produce the
// same key, so a built domain can be reused.
func SourceKey(in BuildInput) string {
	h, _ := blake2b.New256(nil)

	writeField := func(b []byte) {
		var n [8]byte
		binary.BigEndian.PutUint64(n[:], uint64(len(b)))
		h.Write(n[:])
		h.Write(b)
	}
	writeField([]byte(in.Text))
	writeField([]byte(in.Audience))
	var count [8]byte
	binary.BigEndian.PutUint64(count[:], uint64(in.TopicCount))
	h.Write(count[:])
	for _, doc := range in.Documents {
		sum := blake2b.Sum256(doc.Data)
		writeField([]byte(doc.Name))
		writeField([]byte(doc.MIMEType))
		writeField(sum[:])
	}
	return hex.EncodeToString(h.Sum(nil))
}
