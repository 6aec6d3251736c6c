package querycache

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Key é uma lista ordenada de partes, ex. ["veiculos", "list", tenantID, opts].
// Duas chaves são iguais quando todas as partes têm o mesmo JSON.
type Key []any

// sep não aparece em JSON válido (caracteres de controle são escapados)
const sep = "\x00"

func (k Key) parts() []string {
	out := make([]string, len(k))
	for i, p := range k {
		b, err := json.Marshal(p)
		if err != nil {
			b = []byte(fmt.Sprintf("%q", fmt.Sprint(p)))
		}
		out[i] = string(b)
	}
	return out
}

func (k Key) hash() string {
	return strings.Join(k.parts(), sep)
}

// String é a forma legível usada nos logs
func (k Key) String() string {
	return "[" + strings.Join(k.parts(), ",") + "]"
}

// Entity é a primeira parte da chave, usada como label das métricas
func (k Key) Entity() string {
	if len(k) == 0 {
		return ""
	}
	if s, ok := k[0].(string); ok {
		return s
	}
	return fmt.Sprint(k[0])
}

// HasPrefix indica se prefix casa com as primeiras partes de k.
// Prefixo vazio casa com qualquer chave.
func (k Key) HasPrefix(prefix Key) bool {
	return hasPrefix(k.parts(), prefix.parts())
}

func hasPrefix(parts, prefix []string) bool {
	if len(prefix) > len(parts) {
		return false
	}
	for i := range prefix {
		if parts[i] != prefix[i] {
			return false
		}
	}
	return true
}
