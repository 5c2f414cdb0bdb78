package handlers

import (
	"net/http"
	"time"

	"github.com/prashant564/Courses24-API/services"
)

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type passwordChange struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

type emailRequest struct {
	Email string `json:"email"`
}

type passwordRequest struct {
	Password string `json:"password"`
}

func (h *Handler) Register(req Request) (Response, error) {
	var in services.RegisterInput
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	token, err := h.Auth.Register(h.ctx(req), in)
	if err != nil {
		return Response{}, err
	}
	return h.Cookie.tokenResponse(token), nil
}

func (h *Handler) Login(req Request) (Response, error) {
	var in loginRequest
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	token, err := h.Auth.Login(h.ctx(req), in.Email, in.Password)
	if err != nil {
		return Response{}, err
	}
	return h.Cookie.tokenResponse(token), nil
}

// Logout overwrites the token cookie with a placeholder that expires almost
// immediately. Bearer tokens stay valid until they expire.
func (h *Handler) Logout(req Request) (Response, error) {
	resp := empty()
	resp.Cookie = &http.Cookie{
		Name:     "token",
		Value:    "none",
		Path:     "/",
		Expires:  time.Now().Add(10 * time.Second),
		HttpOnly: true,
		Secure:   h.Cookie.Secure,
		SameSite: http.SameSiteLaxMode,
	}
	return resp, nil
}

func (h *Handler) GetMe(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	user, err := h.Auth.Me(h.ctx(req), ident)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, user), nil
}

func (h *Handler) UpdateDetails(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	var upd services.DetailsUpdate
	if err := req.Bind(&upd); err != nil {
		return Response{}, err
	}
	user, err := h.Auth.UpdateDetails(h.ctx(req), ident, upd)
	if err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, user), nil
}

func (h *Handler) UpdatePassword(req Request) (Response, error) {
	ident, err := req.Ident()
	if err != nil {
		return Response{}, err
	}
	var in passwordChange
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	token, err := h.Auth.UpdatePassword(h.ctx(req), ident, in.CurrentPassword, in.NewPassword)
	if err != nil {
		return Response{}, err
	}
	return h.Cookie.tokenResponse(token), nil
}

func (h *Handler) ForgotPassword(req Request) (Response, error) {
	var in emailRequest
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	if err := h.Auth.ForgotPassword(h.ctx(req), in.Email, h.baseURL(req)); err != nil {
		return Response{}, err
	}
	return ok(http.StatusOK, "Email sent"), nil
}

func (h *Handler) ResetPassword(req Request) (Response, error) {
	var in passwordRequest
	if err := req.Bind(&in); err != nil {
		return Response{}, err
	}
	token, err := h.Auth.ResetPassword(h.ctx(req), req.Params["resettoken"], in.Password)
	if err != nil {
		return Response{}, err
	}
	return h.Cookie.tokenResponse(token), nil
}
