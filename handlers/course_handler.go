package handlers

import (
	"net/http"

	"github.com/prashant564/Courses24-API/models"
	"github.com/prashant564/Courses24-API/services"
)

func (h *Handler) GetCourses(req Request) (Response, error) {
	return Response{Status: http.StatusOK, Body: req.Results}, nil
}

func (h *Handler) GetCourse(req Request) (Response, error) {
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	course, err := h.Courses.Get(h.ctx(req), id)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, course), nil
}

// AddCourse creates a course under the bootcamp in the path.
func (h *Handler) AddCourse(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	bootcampID, err := req.ObjectID("bootcampId")
	if err != nil {
		return Response{}, err
	}
	var in models.Course
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	course, err := h.Courses.Create(h.ctx(req), ident, bootcampID, in)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusCreated, course), nil
}

func (h *Handler) UpdateCourse(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	var upd services.CourseUpdate
	if err := req.Bind(&upd); err != nil {
		return Response{}, err
	}
	course, err := h.Courses.Update(h.ctx(req), ident, id, upd)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, course), nil
}

func (h *Handler) DeleteCourse(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	id, err := req.ObjectID("id")
	if err != nil {
		return Response{}, err
	}
	if err := h.Courses.Delete(h.ctx(req), ident, id); err != nil {
		return Response{}, err
	}
	return empty(), nil
}
