package utils

import (
	"crypto/rand"
	"math/big"
)

// Caracteres do token de convite: letras maiúsculas e números
const inviteTokenChars = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

const inviteTokenLength = 32

// GenerateInviteToken gera o token aleatório de um convite de tenant.
// Formato: [A-Z0-9]{32}
func GenerateInviteToken() (string, error) {
	result := make([]byte, inviteTokenLength)
	charsetLen := big.NewInt(int64(len(inviteTokenChars)))

	for i := range result {
		idx, err := rand.Int(rand.Reader, charsetLen)
		if err != nil {
			return "", err
		}
		result[i] = inviteTokenChars[idx.Int64()]
	}
	return string(result), nil
}
