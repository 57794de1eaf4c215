package main

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/ONSdigital/sdx-survey-sync/internal/api"
)

const bearerPrefix = "Bearer "

// tokenValidator checks that requests carry an HS256 JWT signed with the
// shared secret. A nil validator lets every request through.
type tokenValidator struct {
	secret []byte
}

func newTokenValidator(secret string) *tokenValidator {
	if secret == "" {
		return nil
	}
	return &tokenValidator{secret: []byte(secret)}
}

// Middleware rejects requests without a valid access token.
func (v *tokenValidator) Middleware(next http.Handler) http.Handler {
	if v == nil {
		return next
	}
	return http.HandlerFunc(func(rw http.ResponseWriter, r *http.Request) {
		if err := v.validate(requestToken(r)); err != nil {
			api.WriteProblemResponse(api.Problem{
				Title:  "Invalid access token",
				Status: http.StatusUnauthorized,
				Detail: err.Error(),
			}, rw)
			return
		}
		next.ServeHTTP(rw, r)
	})
}

func (v *tokenValidator) validate(tokenString string) error {
	if tokenString == "" {
		return errors.New("missing token")
	}
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return v.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithLeeway(30*time.Second))
	if err != nil {
		return err
	}
	if !token.Valid {
		return errors.New("invalid token")
	}
	return nil
}

// requestToken reads the access token from the access_token query parameter,
// falling back to the Authorization header.
func requestToken(r *http.Request) string {
	if token := r.URL.Query().Get("access_token"); token != "" {
		return token
	}
	return strings.TrimSpace(strings.TrimPrefix(r.Header.Get("Authorization"), bearerPrefix))
}
