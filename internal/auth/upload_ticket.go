package auth

import (
	"crypto/rand"
	"errors"
	"fmt"
	"time"

	"nodestore/internal/domain"
	"nodestore/internal/domain/services"

	"github.com/golang-jwt/jwt/v5"
)

const (
	ticketIssuer    = "nodestore/upload"
	minTicketSecret = 32
)

type uploadTicketClaims struct {
	jwt.RegisteredClaims
	NodeID     string `json:"nid"`
	StorageKey string `json:"key"`
	UserID     string `json:"uid"`
}

// TicketSigner implements services.UploadTicketSigner with HS256 JWTs
type TicketSigner struct {
	secret []byte
	now    func() time.Time
}

// NewTicketSigner creates a signer. secret must be at least 32 bytes.
func NewTicketSigner(secret []byte) (*TicketSigner, error) {
	if len(secret) < minTicketSecret {
		return nil, fmt.Errorf("upload ticket secret must be at least %d bytes", minTicketSecret)
	}
	return &TicketSigner{secret: secret, now: time.Now}, nil
}

// RandomTicketSecret returns a fresh secret for processes started without one.
// Tickets signed with it do not survive a restart.
func RandomTicketSecret() ([]byte, error) {
	secret := make([]byte, minTicketSecret)
	if _, err := rand.Read(secret); err != nil {
		return nil, fmt.Errorf("generate ticket secret: %w", err)
	}
	return secret, nil
}

// Sign encodes ticket. The JWT id is the upload id.
func (s *TicketSigner) Sign(ticket *services.UploadTicket) (string, error) {
	claims := uploadTicketClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        ticket.UploadID,
			Issuer:    ticketIssuer,
			IssuedAt:  jwt.NewNumericDate(s.now()),
			ExpiresAt: jwt.NewNumericDate(ticket.ExpiresAt),
		},
		NodeID:     ticket.NodeID,
		StorageKey: ticket.StorageKey,
		UserID:     ticket.UserID,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("sign upload ticket: %w", err)
	}
	return token, nil
}

// Verify decodes a token produced by Sign
func (s *TicketSigner) Verify(token string) (*services.UploadTicket, error) {
	claims := &uploadTicketClaims{}
	_, err := jwt.ParseWithClaims(token, claims,
		func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(ticketIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, fmt.Errorf("%w: upload token expired", domain.ErrValidation)
		}
		return nil, fmt.Errorf("%w: invalid upload token", domain.ErrValidation)
	}

	return &services.UploadTicket{
		UploadID:   claims.ID,
		NodeID:     claims.NodeID,
		StorageKey: claims.StorageKey,
		UserID:     claims.UserID,
		ExpiresAt:  claims.ExpiresAt.Time,
	}, nil
}
