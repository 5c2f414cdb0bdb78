package handlers

import (
	"net/http"

	"github.com/prashant564/Courses24-API/services"
)

// User management routes are admin only; the router enforces that.

func (h *Handler) GetUsers(req Request) (Response, error) {
	return Response{Status: http.StatusOK, Body: req.Results}, nil
}

func (h *Handler) GetUser(req Request) (Response, error) {
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	user, err := h.Users.Get(h.ctx(req), id)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, user), nil
}

func (h *Handler) CreateUser(req Request) (Response, error) {
	var in services.UserInput
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	user, err := h.Users.Create(h.ctx(req), in)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusCreated, user), nil
}

func (h *Handler) UpdateUser(req Request) (Response, error) {
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	var upd services.UserUpdate
	if err := req.Bind(&upd); err != nil {
		return Response{}, err
	}
	user, err := h.Users.Update(h.ctx(req), id, upd)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, user), nil
}

func (h *Handler) DeleteUser(req Request) (Response, error) {
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	if err := h.Users.Delete(h.ctx(req), id); err != nil {
		return Response{}, err
	}
	return empty(), nil
}
