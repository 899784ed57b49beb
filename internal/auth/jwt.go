package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims representa as informações presentes em um JWT de acesso.
type Claims struct {
	Email string `json:"email"`
	Name  string `json:"name"`
	Admin bool   `json:"admin"`
	jwt.RegisteredClaims
}

// Identity é o recorte do usuário gravado no token.
type Identity struct {
	ID    uuid.UUID
	Email string
	Name  string
	Admin bool
}

// IssuedToken carrega o token assinado e seus metadados.
type IssuedToken struct {
	Token     string
	ID        string
	ExpiresAt time.Time
}

// JWTManager encapsula geração e validação de tokens.
type JWTManager struct {
	secret    []byte
	accessTTL time.Duration
	now       func() time.Time
}

// NewJWTManager cria o gerenciador com segredo e TTL configurados.
func NewJWTManager(secret string, accessTTL time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), accessTTL: accessTTL, now: time.Now}
}

// GenerateAccessToken cria um JWT HS256 para a identidade informada.
func (m *JWTManager) GenerateAccessToken(id Identity) (IssuedToken, error) {
	now := m.now().UTC()
	jti := uuid.NewString()
	expires := now.Add(m.accessTTL)

	claims := Claims{
		Email: id.Email,
		Name:  id.Name,
		Admin: id.Admin,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id.ID.String(),
			ExpiresAt: jwt.NewNumericDate(expires),
			IssuedAt:  jwt.NewNumericDate(now),
			ID:        jti,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return IssuedToken{}, err
	}

	return IssuedToken{Token: signed, ID: jti, ExpiresAt: expires}, nil
}

// ParseAndValidate verifica assinatura e expiração.
func (m *JWTManager) ParseAndValidate(tokenString string) (*Claims, error) {
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.now),
	)

	token, err := parser.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, errors.New("token inválido")
	}
	if _, err := uuid.Parse(claims.Subject); err != nil {
		return nil, errors.New("subject inválido")
	}

	return claims, nil
}

// RevocationKey monta a chave usada para marcar um jti como revogado.
func RevocationKey(jti string) string {
	return "revoked:" + jti
}
