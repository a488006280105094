package api

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"boardify-api/domain"
)

func listBoards(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var out []domain.BoardOverview
		err := timed(c, func() (err error) {
			out, err = boards.ListBoards(c.Request().Context())
			return err
		})
		if err != nil {
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, out)
	}
}

func getBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "invalid_id", "invalid board id")
		}
		var out domain.BoardPublic
		err := timed(c, func() (err error) {
			out, err = boards.GetBoard(c.Request().Context(), id)
			return err
		})
		if err != nil {
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, out)
	}
}

func createBoard(boards BoardService, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in domain.BoardCreate
		if err := decodeJSON(c.Request().Body, &in); err != nil {
			return badRequest(c, "decode_body", "invalid body")
		}

		release, err := claimIdempotencyKey(c, deduper, currentUser(c).Username)
		if err != nil {
			return writeError(c, "idempotency", err)
		}

		var out domain.BoardPublic
		err = timed(c, func() (err error) {
			out, err = boards.CreateBoard(c.Request().Context(), in)
			return err
		})
		if err != nil {
			release()
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, out)
	}
}

func updateBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "invalid_id", "invalid board id")
		}
		var upd domain.BoardUpdate
		if err := decodeJSON(c.Request().Body, &upd); err != nil {
			return badRequest(c, "decode_body", "invalid body")
		}

		var out domain.BoardPublic
		err := timed(c, func() (err error) {
			out, err = boards.UpdateBoard(c.Request().Context(), id, upd)
			return err
		})
		if err != nil {
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, out)
	}
}

func deleteBoard(boards BoardService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "invalid_id", "invalid board id")
		}
		err := timed(c, func() error {
			return boards.DeleteBoard(c.Request().Context(), id)
		})
		if err != nil {
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, struct{}{})
	}
}
