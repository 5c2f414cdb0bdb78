package handlers

import (
	"net/http"

	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/services"
)

func (h *Handler) GetReviews(req Request) (Response, error) {
	return Response{Status: http.StatusOK, Body: req.Results}, nil
}

func (h *Handler) GetReview(req Request) (Response, error) {
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	review, err := h.Reviews.Get(h.ctx(req), id)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, review), nil
}

func (h *Handler) AddReview(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	bootcampID, err := req.ObjectID("bootcampId")
	if err != nil {
		return Response{}, err
	}
	var in models.Review
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	review, err := h.Reviews.Create(h.ctx(req), ident, bootcampID, in)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusCreated, review), nil
}

func (h *Handler) UpdateReview(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	var upd services.ReviewUpdate
	if err := req.Bind(&upd); err != nil {
		return Response{}, err
	}
	review, err := h.Reviews.Update(h.ctx(req), ident, id, upd)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, review), nil
}

func (h *Handler) DeleteReview(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	if err := h.Reviews.Delete(h.ctx(req), ident, id); err != nil {
		return Response{}, err
	}
	return empty(), nil
}
