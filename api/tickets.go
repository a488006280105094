package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"boardify-api/domain"
)

func createTicket(tickets TicketService, deduper Deduper) echo.HandlerFunc {
	return func(c echo.Context) error {
		boardID, err := uuid.Parse(c.QueryParam("board_id"))
		if err != nil {
			return badRequest(c, "invalid_board_id", "invalid board_id")
		}
		var in domain.TicketCreate
		if err := decodeJSON(c.Request().Body, &in); err != nil {
			return badRequest(c, "decode_body", "invalid body")
		}

		release, err := claimIdempotencyKey(c, deduper, currentUser(c).Username)
		if err != nil {
			return writeError(c, "idempotency", err)
		}

		var out domain.TicketPublic
		err = timed(c, func() (err error) {
			out, err = tickets.CreateTicket(c.Request().Context(), boardID, in)
			return err
		})
		if err != nil {
			release()
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, out)
	}
}

func updateTicket(tickets TicketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "invalid_id", "invalid ticket id")
		}
		var upd domain.TicketUpdate
		if err := decodeJSON(c.Request().Body, &upd); err != nil {
			return badRequest(c, "decode_body", "invalid body")
		}

		var out domain.TicketPublic
		err := timed(c, func() (err error) {
			out, err = tickets.UpdateTicket(c.Request().Context(), id, upd)
			return err
		})
		if err != nil {
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, out)
	}
}

func deleteTicket(tickets TicketService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, ok := pathID(c)
		if !ok {
			return badRequest(c, "invalid_id", "invalid ticket id")
		}
		err := timed(c, func() error {
			return tickets.DeleteTicket(c.Request().Context(), id)
		})
		if err != nil {
			return writeError(c, "storage", err)
		}
		return respond(c, http.StatusOK, struct{}{})
	}
}
