package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/finderapp/lostfound-core/internal/device"
)

// coordinate is a JSON field that accepts a number, a numeric string, a
// blank string, or null. Clients built against the original API send
// coordinates in all four shapes: null and "" mean "no value", "51.5"
// parses as 51.5, and anything else is rejected.
//
// The Set flag records whether the field appeared in the request at
// all, which partial updates need to tell "clear it" from "leave it".
type coordinate struct {
	Set   bool
	Value *float64
}

var errInvalidCoordinate = errors.New("coordinate must be a number, a numeric string, or null")

func (c *coordinate) UnmarshalJSON(data []byte) error {
	c.Set = true

	if bytes.Equal(data, []byte("null")) {
		c.Value = nil
		return nil
	}

	var f float64
	if err := json.Unmarshal(data, &f); err == nil {
		c.Value = &f
		return nil
	}

	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return errInvalidCoordinate
	}
	s = strings.TrimSpace(s)
	if s == "" {
		c.Value = nil
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return errInvalidCoordinate
	}
	c.Value = &f
	return nil
}

// createDeviceRequest is the request body for POST /api/devices.
type createDeviceRequest struct {
	Name        string     `json:"name"`
	Description string     `json:"description"`
	Category    string     `json:"category"`
	Location    string     `json:"location"`
	Status      string     `json:"status"`
	Latitude    coordinate `json:"latitude"`
	Longitude   coordinate `json:"longitude"`
}

// updateDeviceRequest is the request body for PUT /api/devices/{id}.
// Pointer fields distinguish "absent" from "present but empty".
type updateDeviceRequest struct {
	Name        *string    `json:"name"`
	Description *string    `json:"description"`
	Category    *string    `json:"category"`
	Location    *string    `json:"location"`
	Status      *string    `json:"status"`
	Latitude    coordinate `json:"latitude"`
	Longitude   coordinate `json:"longitude"`
}

// updateStatusRequest is the request body for PATCH /api/devices/{id}/status.
type updateStatusRequest struct {
	Status string `json:"status"`
}

// handleListDevices returns the caller's devices, newest first.
func (s *Server) handleListDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.List(r.Context(), currentUser(r).ID)
	if err != nil {
		s.logger.Error("list devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleListAllDevices returns every device in the registry. The
// community listing is how finders match a picked-up item to its owner.
func (s *Server) handleListAllDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.ListAll(r.Context())
	if err != nil {
		s.logger.Error("list all devices failed", "error", err)
		writeInternalError(w, "failed to list devices")
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleCreateDevice registers a new device owned by the caller.
func (s *Server) handleCreateDevice(w http.ResponseWriter, r *http.Request) {
	var req createDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestForBody(w, err)
		return
	}

	created, err := s.devices.Create(r.Context(), currentUser(r).ID, device.CreateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Status:      device.Status(req.Status),
		Latitude:    req.Latitude.Value,
		Longitude:   req.Longitude.Value,
	})
	if err != nil {
		s.writeDeviceError(w, err, "failed to create device")
		return
	}

	writeJSON(w, http.StatusCreated, created)
}

// handleUpdateDevice applies a partial update to a device the caller owns.
func (s *Server) handleUpdateDevice(w http.ResponseWriter, r *http.Request) {
	var req updateDeviceRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestForBody(w, err)
		return
	}

	in := device.UpdateInput{
		Name:        req.Name,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		Latitude:    device.OptionalCoordinate{Set: req.Latitude.Set, Value: req.Latitude.Value},
		Longitude:   device.OptionalCoordinate{Set: req.Longitude.Set, Value: req.Longitude.Value},
	}
	if req.Status != nil {
		status := device.Status(*req.Status)
		in.Status = &status
	}

	updated, err := s.devices.Update(r.Context(), currentUser(r).ID, chi.URLParam(r, "id"), in)
	if err != nil {
		s.writeDeviceError(w, err, "failed to update device")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleUpdateDeviceStatus flips a device between lost and found.
func (s *Server) handleUpdateDeviceStatus(w http.ResponseWriter, r *http.Request) {
	var req updateStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequestForBody(w, err)
		return
	}

	updated, err := s.devices.UpdateStatus(r.Context(), currentUser(r).ID,
		chi.URLParam(r, "id"), device.Status(req.Status))
	if err != nil {
		s.writeDeviceError(w, err, "failed to update device status")
		return
	}

	writeJSON(w, http.StatusOK, updated)
}

// handleDeleteDevice removes a device the caller owns.
func (s *Server) handleDeleteDevice(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if err := s.devices.Delete(r.Context(), currentUser(r).ID, id); err != nil {
		s.writeDeviceError(w, err, "failed to delete device")
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{
		"message": fmt.Sprintf("device %s deleted", id),
	})
}

// handleSearchDevices finds the caller's devices matching ?q= as a
// substring. A blank query returns an empty array, never everything.
func (s *Server) handleSearchDevices(w http.ResponseWriter, r *http.Request) {
	devices, err := s.devices.Search(r.Context(), currentUser(r).ID, r.URL.Query().Get("q"))
	if err != nil {
		s.logger.Error("device search failed", "error", err)
		writeInternalError(w, "search failed")
		return
	}
	writeJSON(w, http.StatusOK, devices)
}

// handleDeviceStats returns the caller's device counts.
func (s *Server) handleDeviceStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, s.devices.Stats(r.Context(), currentUser(r).ID))
}

// handleNearbyDevices returns the caller's devices within a radius of a
// query point: ?latitude=&longitude=&radius_km= (radius optional).
func (s *Server) handleNearbyDevices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	lat, err := strconv.ParseFloat(q.Get("latitude"), 64)
	if err != nil {
		writeValidationError(w, "latitude query parameter is required and must be a number")
		return
	}
	lon, err := strconv.ParseFloat(q.Get("longitude"), 64)
	if err != nil {
		writeValidationError(w, "longitude query parameter is required and must be a number")
		return
	}

	var radiusKm float64
	if raw := q.Get("radius_km"); raw != "" {
		radiusKm, err = strconv.ParseFloat(raw, 64)
		if err != nil || radiusKm <= 0 {
			writeValidationError(w, "radius_km must be a positive number")
			return
		}
	}

	nearby, err := s.devices.Nearby(r.Context(), currentUser(r).ID, lat, lon, radiusKm)
	if err != nil {
		s.logger.Error("nearby query failed", "error", err)
		writeInternalError(w, "nearby query failed")
		return
	}
	writeJSON(w, http.StatusOK, nearby)
}

// writeDeviceError translates device service sentinels to the wire
// taxonomy; anything unrecognised is logged and reported as a 500.
func (s *Server) writeDeviceError(w http.ResponseWriter, err error, fallback string) {
	switch {
	case errors.Is(err, device.ErrDeviceNotFound):
		writeNotFound(w, "device not found")
	case errors.Is(err, device.ErrNotOwner):
		writeForbidden(w, "you do not own this device")
	case errors.Is(err, device.ErrNameRequired):
		writeValidationError(w, "device name is required")
	case errors.Is(err, device.ErrInvalidStatus):
		writeValidationError(w, "status must be 'lost' or 'found'")
	default:
		s.logger.Error("device operation failed", "error", err)
		writeInternalError(w, fallback)
	}
}

// writeBadRequestForBody reports a body decode failure, surfacing the
// coordinate message when that is the cause.
func writeBadRequestForBody(w http.ResponseWriter, err error) {
	if errors.Is(err, errInvalidCoordinate) {
		writeValidationError(w, errInvalidCoordinate.Error())
		return
	}
	writeBadRequest(w, "invalid JSON body")
}
