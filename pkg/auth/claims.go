package auth

import (
	"github.com/golang-jwt/jwt/v5"

	"github.com/TThanhhDatt/agent-bot/pkg/enums"
)

// AccessTokenPayload captures the data available when minting a JWT.
type AccessTokenPayload struct {
	// Subject names the operator the token is issued to.
	Subject string
	Role    enums.ActorRole
	JTI     string
}

// AccessTokenClaims represents the typed JWT presented on the admin surface.
type AccessTokenClaims struct {
	Role enums.ActorRole `json:"role"`
	jwt.RegisteredClaims
}
