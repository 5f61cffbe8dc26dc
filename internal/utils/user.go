package utils

import (
	"math/rand/v2"

	"golang.org/x/crypto/bcrypt"
)

const MinPasswordLength = 6

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) == nil
}

// GetRandomEmoji returns an emoji used as the default avatar for new accounts.
func GetRandomEmoji() string {
	emojis := GetCommonEmojis()
	return emojis[rand.IntN(len(emojis))]
}

// GetCommonEmojis lists the avatars offered on the profile form.
func GetCommonEmojis() []string {
	return []string{
		"🌱", "🌿", "🍃", "🌾", "🌲", "🌳",
		"🐼", "🦊", "🐨", "🐸", "🦉", "🐯", "🐱", "🐶",
		"😀", "😊", "😎", "🤓", "🧐",
		"⭐", "✨", "🔥", "💡", "🚀", "🎯", "💎",
	}
}
