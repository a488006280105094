package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"boardify-api/domain"
)

func register(users UserService) echo.HandlerFunc {
	return func(c echo.Context) error {
		if !users.RegistrationEnabled() {
			return writeError(c, "register", domain.ErrRegistrationDisabled)
		}
		var creds domain.Credentials
		if err := decodeJSON(c.Request().Body, &creds); err != nil {
			return badRequest(c, "decode_body", "invalid body")
		}
		var u domain.User
		err := timed(c, func() (err error) {
			u, err = users.Register(c.Request().Context(), creds)
			return err
		})
		if err != nil {
			return writeError(c, "register", err)
		}
		return respond(c, http.StatusOK, u)
	}
}

// login takes form fields like an OAuth2 password grant.
func login(users UserService, auth Authenticator) echo.HandlerFunc {
	return func(c echo.Context) error {
		creds := domain.Credentials{
			Username: c.FormValue("username"),
			Password: c.FormValue("password"),
		}
		var u domain.User
		err := timed(c, func() (err error) {
			u, err = users.Authenticate(c.Request().Context(), creds)
			return err
		})
		if err != nil {
			return writeError(c, "auth", err)
		}
		token, _, err := auth.IssueToken(u.Username)
		if err != nil {
			return writeError(c, "issue_token", err)
		}
		return respond(c, http.StatusOK, tokenResponse{AccessToken: token, TokenType: tokenTypeBearer})
	}
}
