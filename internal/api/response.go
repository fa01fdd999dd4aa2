package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"journey-tracker/internal/logging"
)

const responseVersion = 2

// ResponseModel is the envelope every endpoint answers with.
type ResponseModel struct {
	Code        int    `json:"code"`
	CurrentTime int64  `json:"currentTime"`
	Data        any    `json:"data"`
	Text        string `json:"text"`
	Version     int    `json:"version"`
}

func (api *API) newResponse(code int, data any, text string) ResponseModel {
	return ResponseModel{
		Code:        code,
		CurrentTime: api.now().UnixMilli(),
		Data:        data,
		Text:        text,
		Version:     responseVersion,
	}
}

func (api *API) sendResponse(w http.ResponseWriter, r *http.Request, response ResponseModel) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(response.Code)
	if err := json.NewEncoder(w).Encode(response); err != nil {
		logging.LogError(api.logger, "failed to encode response", err,
			slog.String("path", r.URL.Path))
	}
}

func (api *API) sendOK(w http.ResponseWriter, r *http.Request, data any) {
	api.sendResponse(w, r, api.newResponse(http.StatusOK, data, "OK"))
}

func (api *API) sendError(w http.ResponseWriter, r *http.Request, code int, text string) {
	api.sendResponse(w, r, api.newResponse(code, nil, text))
}

func (api *API) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	logging.LogError(api.logger, "request failed", err,
		slog.String("component", "http_server"),
		slog.String("path", r.URL.Path))
	api.sendError(w, r, http.StatusInternalServerError, "internal server error")
}
