package domain

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
	"unicode/utf8"
)

// Avatar returns a placeholder image URL whose colour and initials derive from the pseudonym.
func Avatar(pseudonym string) string {
	sum := md5.Sum([]byte(pseudonym))
	color := hex.EncodeToString(sum[:])[:6]
	return fmt.Sprintf("https://placehold.co/60x60/%s/ffffff?text=%s", color, initials(pseudonym))
}

func initials(pseudonym string) string {
	var b strings.Builder
	for i := 0; i < 2 && pseudonym != ""; i++ {
		r, size := utf8.DecodeRuneInString(pseudonym)
		b.WriteRune(r)
		pseudonym = pseudonym[size:]
	}
	return strings.ToUpper(b.String())
}
