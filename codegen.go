package goRecover

import (
	"errors"

	"github.com/google/uuid"
	"github.com/nbytelabs/goRecover/internal"
)

// otpGenerator produces fixed-length numeric codes from crypto/rand.
type otpGenerator struct {
	digits int
}

func (g otpGenerator) Generate() (string, error) {
	return internal.NewOTP(g.digits)
}

// alphanumericGenerator produces codes over an unambiguous upper-case alphabet.
type alphanumericGenerator struct {
	length int
}

func (g alphanumericGenerator) Generate() (string, error) {
	return internal.NewAlphanumericCode(g.length)
}

// uuidGenerator produces random UUIDv4 strings. 122 bits of entropy, at the
// cost of codes nobody will type by hand.
type uuidGenerator struct{}

func (uuidGenerator) Generate() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

func newCodeGenerator(cfg CodeConfig) (CodeGenerator, error) {
	switch cfg.Strategy {
	case CodeOTP:
		return otpGenerator{digits: cfg.Digits}, nil
	case CodeAlphanumeric:
		return alphanumericGenerator{length: cfg.Length}, nil
	case CodeUUID:
		return uuidGenerator{}, nil
	default:
		return nil, errors.New("unsupported code strategy")
	}
}
