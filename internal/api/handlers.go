package api

import (
	"fmt"
	"math"
	"net/http"
	"strconv"

	"github.com/julienschmidt/httprouter"

	"journey-tracker/internal/route"
)

// polylineSamples is the number of curve samples per segment in /api/path.
const polylineSamples = 16

type healthResponse struct {
	Status string `json:"status"`
	Ready  bool   `json:"ready"`
}

func (api *API) healthHandler(w http.ResponseWriter, r *http.Request) {
	_, ready := api.tracker.Snapshot()
	api.sendOK(w, r, healthResponse{Status: "ok", Ready: ready})
}

type routeResponse struct {
	Name          string           `json:"name"`
	Unit          string           `json:"unit"`
	TotalDistance float64          `json:"totalDistance"`
	StepsPerUnit  float64          `json:"stepsPerUnit"`
	TotalSteps    float64          `json:"totalSteps"`
	CurveLength   float64          `json:"curveLength"`
	Waypoints     []route.Waypoint `json:"waypoints"`
}

func (api *API) routeHandler(w http.ResponseWriter, r *http.Request) {
	rt := api.tracker.Route()
	api.sendOK(w, r, routeResponse{
		Name:          api.journeyName,
		Unit:          api.unit,
		TotalDistance: rt.TotalDistance(),
		StepsPerUnit:  rt.StepsPerUnit(),
		TotalSteps:    rt.TotalSteps(),
		CurveLength:   api.tracker.Curve().TotalLength(),
		Waypoints:     rt.Waypoints(),
	})
}

type pathResponse struct {
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	SVGPath     string  `json:"svgPath"`
	Polyline    string  `json:"polyline"`
	TotalLength float64 `json:"totalLength"`
}

func (api *API) pathHandler(w http.ResponseWriter, r *http.Request) {
	v := api.viewport
	var err error
	if v.Width, err = dimension(r, "width", v.Width); err != nil {
		api.sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if v.Height, err = dimension(r, "height", v.Height); err != nil {
		api.sendError(w, r, http.StatusBadRequest, err.Error())
		return
	}

	c := api.tracker.Curve()
	api.sendOK(w, r, pathResponse{
		Width:       v.Width,
		Height:      v.Height,
		SVGPath:     c.SVGPath(v),
		Polyline:    c.EncodedPolyline(polylineSamples),
		TotalLength: c.TotalLength(),
	})
}

// dimension reads a positive, finite query parameter, returning def when absent.
func dimension(r *http.Request, name string, def float64) (float64, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return v, nil
}

func (api *API) walkersHandler(w http.ResponseWriter, r *http.Request) {
	snap, ok := api.tracker.Snapshot()
	if !ok {
		api.sendError(w, r, http.StatusServiceUnavailable, "progress not loaded yet")
		return
	}
	api.sendOK(w, r, snap)
}

func (api *API) walkerHandler(w http.ResponseWriter, r *http.Request) {
	name := httprouter.ParamsFromContext(r.Context()).ByName("name")
	status, ok := api.tracker.Walker(name)
	if !ok {
		api.sendError(w, r, http.StatusNotFound, "walker not found")
		return
	}
	api.sendOK(w, r, status)
}

func (api *API) refreshHandler(w http.ResponseWriter, r *http.Request) {
	snap, err := api.tracker.Refresh(r.Context())
	if err != nil {
		api.serverErrorResponse(w, r, err)
		return
	}
	api.sendOK(w, r, snap)
}
