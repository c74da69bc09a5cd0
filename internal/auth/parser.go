package auth

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"

	"github.com/nurpe/freight-sync/internal/model"
)

type Parser struct {
	secret []byte
}

func NewParser(secret string) *Parser {
	return &Parser{secret: []byte(secret)}
}

type claims struct {
	jwt.RegisteredClaims
	UserID int64    `json:"user_id"`
	Name   string   `json:"name"`
	Roles  []string `json:"roles"`
}

// Parse validates the access token and extracts the principal.
func (p *Parser) Parse(tokenString string) (model.Principal, error) {
	var parsed claims
	token, err := jwt.ParseWithClaims(tokenString, &parsed, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return p.secret, nil
	})
	if err != nil {
		return model.Principal{}, err
	}
	if !token.Valid {
		return model.Principal{}, fmt.Errorf("invalid token")
	}
	return model.Principal{
		UserID: parsed.UserID,
		Name:   parsed.Name,
		Roles:  parsed.Roles,
	}, nil
}
