package service

import (
	"github.com/infrawatch/auth-service/internal/config"
	"github.com/infrawatch/auth-service/internal/notify"
	"github.com/infrawatch/auth-service/internal/otp"
	"github.com/infrawatch/auth-service/internal/repository"
	"github.com/infrawatch/auth-service/internal/token"
)

type Services struct {
	Token        *TokenService
	Verification *VerificationService
}

func NewServices(repos *repository.Repositories, codec *token.Codec, gen otp.Generator, sink notify.Sink, clock Clock, cfg *config.Config) *Services {
	verification := NewVerificationService(repos.User, repos.OTP, gen, sink, clock, cfg)
	return &Services{
		Token:        NewTokenService(repos, verification, codec, clock, cfg),
		Verification: verification,
	}
}
