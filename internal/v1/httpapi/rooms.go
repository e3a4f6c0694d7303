// Package httpapi is the thin HTTP/WebSocket adaptor over the room
// coordination engine: room creation, room lookup, YouTube URL resolution,
// and the real-time WebSocket upgrade. None of the engine's own semantics
// live here — every handler either reads room state or hands a decoded
// message straight to the coordinator.
package httpapi

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/listenroom/backend/internal/v1/coordinator"
	"github.com/listenroom/backend/internal/v1/types"
)

// createRoomRequest is tolerated as an empty body: a missing or malformed
// JSON payload is treated the same as {} rather than rejected.
type createRoomRequest struct {
	Name string `json:"name"`
}

type createRoomResponse struct {
	Id   types.RoomIdType `json:"id"`
	Name string           `json:"name"`
}

type roomSummaryResponse struct {
	Id        types.RoomIdType `json:"id"`
	Name      string           `json:"name"`
	UserCount int              `json:"userCount"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// CreateRoom handles POST /api/rooms.
func CreateRoom(co *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req createRoomRequest
		_ = c.ShouldBindJSON(&req) // malformed/missing body is treated as {}

		r := co.CreateRoom(req.Name)
		c.JSON(http.StatusCreated, createRoomResponse{Id: r.Id, Name: r.Name})
	}
}

// GetRoom handles GET /api/rooms/:id.
func GetRoom(co *coordinator.Coordinator) gin.HandlerFunc {
	return func(c *gin.Context) {
		id := types.RoomIdType(c.Param("id"))
		r, ok := co.GetRoom(id)
		if !ok {
			c.JSON(http.StatusNotFound, errorResponse{Error: "Room not found"})
			return
		}

		c.JSON(http.StatusOK, roomSummaryResponse{
			Id:        r.Id,
			Name:      r.Name,
			UserCount: r.UserCount(),
		})
	}
}
