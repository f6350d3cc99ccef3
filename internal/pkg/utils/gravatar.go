package utils

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"strings"
)

const defaultAvatarSize = 96

// GravatarURL returns the avatar shown on the profile screen. Accounts
// without a Gravatar get the generic "mystery person" image.
func GravatarURL(email string, size int) string {
	if size <= 0 {
		size = defaultAvatarSize
	}
	sum := md5.Sum([]byte(strings.ToLower(strings.TrimSpace(email))))
	return fmt.Sprintf("https://www.gravatar.com/avatar/%s?s=%d&d=mp", hex.EncodeToString(sum[:]), size)
}
