package server

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Azure/go-autorest/autorest/to"
	"github.com/golang-jwt/jwt/v4"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/lestrrat-go/jwx/v2/jwk"
	"github.com/oceanprotocol/oceanlib/internal/helpers"
)

const AdminScope = "ocean.admin"

// TokenStore records issued admin tokens.
type TokenStore interface {
	SaveToken(ctx context.Context, token, subject string, expiresAt time.Time) error
	HasToken(ctx context.Context, token string) (bool, error)
}

func LoadPrivateJwk(path string) (*ecdsa.PrivateKey, error) {
	jwkbytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	key, err := jwk.ParseKey(jwkbytes)
	if err != nil {
		return nil, fmt.Errorf("error parsing jwk: %w", err)
	}

	var pkey ecdsa.PrivateKey
	if err := key.Raw(&pkey); err != nil {
		return nil, fmt.Errorf("jwk is not an ecdsa private key: %w", err)
	}

	return &pkey, nil
}

// IssueAdminToken signs an ES256 admin token and records it in ts. Tokens
// that were never recorded are rejected by the server even when their
// signature is valid.
func IssueAdminToken(ctx context.Context, ts TokenStore, key *ecdsa.PrivateKey, subject string, ttl time.Duration) (string, error) {
	now := time.Now().UTC()
	exp := now.Add(ttl)

	token := jwt.NewWithClaims(jwt.SigningMethodES256, jwt.MapClaims{
		"scope": AdminScope,
		"sub":   subject,
		"iat":   now.Unix(),
		"exp":   exp.Unix(),
		"jti":   uuid.NewString(),
	})

	tokenstr, err := token.SignedString(key)
	if err != nil {
		return "", err
	}

	if err := ts.SaveToken(ctx, tokenstr, subject, exp); err != nil {
		return "", err
	}

	return tokenstr, nil
}

func (s *Server) handleAdminMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(e echo.Context) error {
		authheader := e.Request().Header.Get("authorization")
		if authheader == "" {
			return helpers.UnauthorizedError(e, nil)
		}

		pts := strings.Split(authheader, " ")
		if len(pts) != 2 || !strings.EqualFold(pts[0], "bearer") {
			return helpers.UnauthorizedError(e, to.StringPtr("InvalidToken"))
		}

		tokenstr := pts[1]

		token, err := new(jwt.Parser).Parse(tokenstr, func(t *jwt.Token) (any, error) {
			if _, ok := t.Method.(*jwt.SigningMethodECDSA); !ok {
				return nil, fmt.Errorf("unsupported signing method: %v", t.Header["alg"])
			}

			return s.privateKey.Public(), nil
		})
		if err != nil {
			s.logger.Warn("error parsing jwt", "error", err)
			return helpers.UnauthorizedError(e, to.StringPtr("InvalidToken"))
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok || !token.Valid {
			return helpers.UnauthorizedError(e, to.StringPtr("InvalidToken"))
		}

		if scope, _ := claims["scope"].(string); scope != AdminScope {
			return helpers.UnauthorizedError(e, to.StringPtr("InvalidToken"))
		}

		found, err := s.drafts.HasToken(e.Request().Context(), tokenstr)
		if err != nil {
			s.logger.Error("error getting token from db", "error", err)
			return helpers.ServerError(e, nil)
		}

		if !found {
			return helpers.UnauthorizedError(e, to.StringPtr("InvalidToken"))
		}

		e.Set("sub", claims["sub"])

		return next(e)
	}
}
