package utils

import (
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword cria um hash bcrypt da senha
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPasswordHash verifica se a senha corresponde ao hash
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// NormalizeEmail normaliza um email (lowercase e trim)
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizeDominio normaliza o domínio do tenant (lowercase, sem espaços,
// apenas letras, números, hífens e pontos)
func NormalizeDominio(text string) string {
	d := strings.ToLower(strings.TrimSpace(text))
	d = strings.NewReplacer(" ", "-", "_", "-").Replace(d)

	var result strings.Builder
	for _, r := range d {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') || r == '-' || r == '.' {
			result.WriteRune(r)
		}
	}

	d = result.String()
	for strings.Contains(d, "--") {
		d = strings.ReplaceAll(d, "--", "-")
	}
	return strings.Trim(d, "-.")
}
