package handlers

import (
	"net/http"

	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/services"
)

// GetBootcamps writes the page prepared by AdvancedResults.
func (h *Handler) GetBootcamps(req Request) (Response, error) {
	return Response{Status: http.StatusOK, Body: req.Results}, nil
}

func (h *Handler) GetBootcamp(req Request) (Response, error) {
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	bootcamp, err := h.Bootcamps.Get(h.ctx(req), id)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, bootcamp), nil
}

func (h *Handler) CreateBootcamp(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	var in models.Bootcamp
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	bootcamp, err := h.Bootcamps.Create(h.ctx(req), ident, in)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusCreated, bootcamp), nil
}

func (h *Handler) UpdateBootcamp(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	var upd services.BootcampUpdate
	if err := req.Bind(&upd); err != nil {
		return Response{}, err
	}
	bootcamp, err := h.Bootcamps.Update(h.ctx(req), ident, id, upd)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, bootcamp), nil
}

func (h *Handler) DeleteBootcamp(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	if err := h.Bootcamps.Delete(h.ctx(req), ident, id); err != nil {
		return Response{}, err
	}
	return empty(), nil
}

// GetBootcampsInRadius lists bootcamps within distance miles of a zipcode.
func (h *Handler) GetBootcampsInRadius(req Request) (Response, error) {
	bootcamps, err := h.Bootcamps.WithinRadius(h.ctx(req), req.Params["zipcode"], req.Params["distance"])
	if err != nil {
		return Response{}, err
	}
	return okList(bootcamps, len(bootcamps)), nil
}
