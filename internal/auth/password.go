package auth

import (
	"errors"
	"strings"

	"github.com/alexedwards/argon2id"
	"golang.org/x/crypto/bcrypt"
)

var params = &argon2id.Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 1,
	SaltLength:  16,
	KeyLength:   32,
}

// Hash gera um hash Argon2id (inclui os parâmetros dentro do próprio hash).
func Hash(password string) (string, error) {
	return argon2id.CreateHash(password, params)
}

// Verify compara a senha com o hash armazenado. Hashes bcrypt herdados do sistema
// anterior continuam aceitos.
func Verify(password, encodedHash string) (bool, error) {
	switch {
	case encodedHash == "":
		return false, nil
	case strings.HasPrefix(encodedHash, "$argon2id$"):
		return argon2id.ComparePasswordAndHash(password, encodedHash)
	case IsLegacyHash(encodedHash):
		err := bcrypt.CompareHashAndPassword([]byte(encodedHash), []byte(password))
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return false, nil
		}
		if err != nil {
			return false, err
		}
		return true, nil
	default:
		return false, errors.New("formato de hash desconhecido")
	}
}

// IsLegacyHash indica hash bcrypt que deve ser regravado em Argon2id.
func IsLegacyHash(encodedHash string) bool {
	return strings.HasPrefix(encodedHash, "$2a$") || strings.HasPrefix(encodedHash, "$2b$") || strings.HasPrefix(encodedHash, "$2y$")
}
