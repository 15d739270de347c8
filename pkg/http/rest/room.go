package rest

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/dreamcatcher-tech/recorder/pkg/room"
)

type roomController struct {
	room.Service
}

type NameChangeRequest struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

type BroadcastRecordRequest struct {
	Action string `json:"action"`
}

func NewRoomController(service room.Service) roomController {
	return roomController{service}
}

var ErrEmptyID = errors.New("participant id is empty")
var ErrInvalidAction = errors.New("action must be start or stop")

func (rc *roomController) ChangeName(c echo.Context) error {
	// Bind request data
	data := new(NameChangeRequest)
	if err := c.Bind(data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	// Sanitise request. An empty name is allowed; an empty ID is not,
	// since identity is the registry key
	if data.ID == "" {
		return echo.NewHTTPError(http.StatusBadRequest, ErrEmptyID)
	}

	// Call service
	if err := rc.Service.SetName(c.Request().Context(), data.ID, data.Name); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	// Return success
	return c.NoContent(http.StatusOK)
}

func (rc *roomController) BroadcastRecord(c echo.Context) error {
	// Bind request data
	data := new(BroadcastRecordRequest)
	if err := c.Bind(data); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err)
	}

	// Call service
	var err error
	switch data.Action {
	case "start":
		_, err = rc.Service.StartRecording(c.Request().Context())
	case "stop":
		err = rc.Service.StopRecording(c.Request().Context())
	default:
		return echo.NewHTTPError(http.StatusBadRequest, ErrInvalidAction)
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err)
	}

	// Return success
	return c.NoContent(http.StatusOK)
}
