package token

import "github.com/golang-jwt/jwt/v5"

// AccessClaims builds the claim set for an access token.
func AccessClaims(subject, name, email, role, status string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Name:             name,
		Email:            email,
		Role:             role,
		Status:           status,
	}
}

// RefreshClaims builds the claim set for a refresh token. The session ID
// travels in the registered jti claim.
func RefreshClaims(subject, sessionID string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject, ID: sessionID},
	}
}

// ActionClaims builds the claim set for a short-lived action token, such as
// the one returned by registration.
func ActionClaims(subject, email, action string) Claims {
	return Claims{
		RegisteredClaims: jwt.RegisteredClaims{Subject: subject},
		Email:            email,
		Action:           action,
	}
}
