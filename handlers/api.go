package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/gorilla/mux"
	"github.com/prashant564/Courses24-API/apperr"
	"github.com/prashant564/Courses24-API/httpkit"
	"github.com/prashant564/Courses24-API/models"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const maxBodyBytes = 1 << 20

// Request is what a handler gets to see of an HTTP request.
type Request struct {
	Params   map[string]string
	Query    url.Values
	Identity *models.Identity
	Results  *models.Results

	http *http.Request
	body io.Reader
}

// Response is what a handler wants written back. Body is encoded as JSON.
type Response struct {
	Status int
	Body   interface{}
	Cookie *http.Cookie
}

// HandlerFunc is a route handler. A returned error is written as an error
// envelope with the status of its apperr.Kind.
type HandlerFunc func(req Request) (Response, error)

type envelope struct {
	Success bool        `json:"success"`
	Count   *int        `json:"count,omitempty"`
	Data    interface{} `json:"data"`
}

type tokenEnvelope struct {
	Success bool   `json:"success"`
	Token   string `json:"token"`
}

func ok(status int, data interface{}) Response {
	return Response{Status: status, Body: envelope{Success: true, Data: data}}
}

func okList(data interface{}, count int) Response {
	return Response{Status: http.StatusOK, Body: envelope{Success: true, Count: &count, Data: data}}
}

func empty() Response {
	return ok(http.StatusOK, struct{}{})
}

// Adapt turns a HandlerFunc into an http.Handler.
func Adapt(fn HandlerFunc) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		req := Request{
			Params: mux.Vars(r),
			Query:  r.URL.Query(),
			http:   r,
			body:   http.MaxBytesReader(w, r.Body, maxBodyBytes),
		}
		if ident, found := httpkit.IdentityFrom(r.Context()); found {
			req.Identity = &ident
		}
		if res, found := httpkit.ResultsFrom(r.Context()); found {
			req.Results = res
		}

		resp, err := fn(req)
		if err != nil {
			httpkit.HandleError(w, r, err)
			return
		}
		if resp.Cookie != nil {
			http.SetCookie(w, resp.Cookie)
		}
		status := resp.Status
		if status == 0 {
			status = http.StatusOK
		}
		httpkit.JSON(w, status, resp.Body)
	})
}

// Bind decodes the JSON body into v. An empty body leaves v unchanged.
func (r Request) Bind(v interface{}) error {
	if r.body == nil {
		return nil
	}
	err := json.NewDecoder(r.body).Decode(v)
	switch {
	case err == nil, errors.Is(err, io.EOF):
		return nil
	default:
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return apperr.BadRequest("Request body too large")
		}
		return apperr.Wrap(apperr.KindBadRequest, "Invalid request body", err)
	}
}

// ObjectID parses a path parameter. Malformed ids are reported like ids
// that match nothing.
func (r Request) ObjectID(name string) (primitive.ObjectID, error) {
	id, err := primitive.ObjectIDFromHex(r.Params[name])
	if err != nil {
		return primitive.NilObjectID, apperr.NotFound("Resource not found")
	}
	return id, nil
}

// Ident returns the authenticated identity; routes using it sit behind
// Protect.
func (r Request) Ident() (models.Identity, error) {
	if r.Identity == nil {
		return models.Identity{}, apperr.Unauthorized("Not authorized to access this route")
	}
	return *r.Identity, nil
}

// BaseURL is the scheme and host the request was addressed to.
func (r Request) BaseURL() string {
	scheme := "http"
	if r.http.TLS != nil || r.http.Header.Get("X-Forwarded-Proto") == "https" {
		scheme = "https"
	}
	return scheme + "://" + r.http.Host
}

// CookieConfig controls the token cookie handed out on login.
type CookieConfig struct {
	Expire time.Duration
	Secure bool
}

func (c CookieConfig) tokenResponse(token string) Response {
	return Response{
		Status: http.StatusOK,
		Body:   tokenEnvelope{Success: true, Token: token},
		Cookie: &http.Cookie{
			Name:     "token",
			Value:    token,
			Path:     "/",
			Expires:  time.Now().Add(c.Expire),
			HttpOnly: true,
			Secure:   c.Secure,
			SameSite: http.SameSiteLaxMode,
		},
	}
}
