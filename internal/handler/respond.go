// Package handler holds the Echo handlers of the console.  Every response
// is an envelope carrying the data the browser renders and the notices the
// request produced.
package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/hotel-pms-console/internal/calendar"
	"github.com/iliyamo/hotel-pms-console/internal/dashboard"
	"github.com/iliyamo/hotel-pms-console/internal/interaction"
	"github.com/iliyamo/hotel-pms-console/internal/model"
	"github.com/iliyamo/hotel-pms-console/internal/notice"
	"github.com/iliyamo/hotel-pms-console/internal/pmsapi"
	"github.com/iliyamo/hotel-pms-console/internal/repository"
)

// Envelope is the body of every JSON response.
type Envelope struct {
	Data    any             `json:"data,omitempty"`
	Notices []notice.Notice `json:"notices"`
	Error   string          `json:"error,omitempty"`
}

// ok answers 200.  A response that carries an error notice describes a
// partial failure and is marked so the response cache does not keep it.
func ok(c echo.Context, col *notice.Collector, data any) error {
	if col.Count(notice.LevelError) > 0 {
		noStore(c)
	}
	return c.JSON(http.StatusOK, Envelope{Data: data, Notices: col.Notices()})
}

func noStore(c echo.Context) {
	c.Response().Header().Set(echo.HeaderCacheControl, "no-store")
}

// fail maps err to a status and answers with the collected notices.  When
// the failure produced no notice yet, one is added so the operator always
// sees why the request failed.
func fail(c echo.Context, col *notice.Collector, err error) error {
	status := statusFor(err)
	if col.Count(notice.LevelError) == 0 {
		col.Notify(noticeFor(err))
	}
	return c.JSON(status, Envelope{Notices: col.Notices(), Error: errorCode(status)})
}

func statusFor(err error) int {
	var verr model.ValidationError
	var apiErr *pmsapi.APIError
	switch {
	case errors.As(err, &verr):
		return http.StatusUnprocessableEntity
	case errors.Is(err, interaction.ErrBusy), errors.Is(err, interaction.ErrNoGesture):
		return http.StatusConflict
	case errors.Is(err, interaction.ErrBadRequest), errors.Is(err, errBadBody):
		return http.StatusBadRequest
	case errors.Is(err, repository.ErrNotFound), errors.Is(err, calendar.ErrUnknownPanel), errors.Is(err, dashboard.ErrUnknownPage):
		return http.StatusNotFound
	case errors.Is(err, pmsapi.ErrTimeout):
		return http.StatusGatewayTimeout
	case errors.As(err, &apiErr):
		switch apiErr.Status {
		case http.StatusUnauthorized, http.StatusForbidden, http.StatusNotFound, http.StatusConflict, http.StatusUnprocessableEntity:
			return apiErr.Status
		}
		return http.StatusBadGateway
	}
	return http.StatusBadGateway
}

func noticeFor(err error) notice.Notice {
	var verr model.ValidationError
	var apiErr *pmsapi.APIError
	switch {
	case errors.As(err, &verr):
		return notice.New(notice.LevelError, notice.CategoryValidation, verr.Error())
	case pmsapi.IsForbidden(err):
		return notice.New(notice.LevelError, notice.CategoryPermission, "You do not have permission to do that")
	case errors.Is(err, pmsapi.ErrTimeout):
		return notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.ErrTimeout.Error())
	case errors.As(err, &apiErr):
		return notice.New(notice.LevelError, notice.CategoryMutation, pmsapi.Message(err, "The PMS rejected the request"))
	}
	switch statusFor(err) {
	case http.StatusConflict, http.StatusBadRequest, http.StatusNotFound:
		return notice.New(notice.LevelError, notice.CategoryValidation, err.Error())
	}
	return notice.New(notice.LevelError, notice.CategoryMutation, "The PMS could not be reached")
}

func errorCode(status int) string {
	switch status {
	case http.StatusBadRequest:
		return "bad_request"
	case http.StatusUnauthorized:
		return "unauthorized"
	case http.StatusForbidden:
		return "forbidden"
	case http.StatusNotFound:
		return "not_found"
	case http.StatusConflict:
		return "conflict"
	case http.StatusUnprocessableEntity:
		return "validation_failed"
	case http.StatusGatewayTimeout:
		return "upstream_timeout"
	}
	return "upstream_error"
}

var errBadBody = errors.New("malformed request body")

// bind decodes the request body into v.  A decode failure is reported as
// errBadBody with the decoder's reason in the notice.
func bind(c echo.Context, col *notice.Collector, v any) error {
	if err := c.Bind(v); err != nil {
		col.Notify(notice.New(notice.LevelError, notice.CategoryValidation, "Malformed request: "+bindMessage(err)))
		return errBadBody
	}
	return nil
}

func bindMessage(err error) string {
	var he *echo.HTTPError
	if errors.As(err, &he) {
		if s, ok := he.Message.(string); ok {
			return s
		}
	}
	return err.Error()
}
