package internal

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// Response is what handlers return. Headers stay mutable until WriteTo
// runs, which lets outer middleware attach cookies to any response,
// including ones substituted by the error boundary.
type Response interface {
	StatusCode() int
	Header() http.Header
	WriteTo(w http.ResponseWriter) error
}

type baseResponse struct {
	header http.Header
	status int
}

func newBaseResponse(status int) baseResponse {
	return baseResponse{header: make(http.Header), status: status}
}

func (r *baseResponse) StatusCode() int {
	return r.status
}

func (r *baseResponse) Header() http.Header {
	return r.header
}

func (r *baseResponse) writeHead(w http.ResponseWriter) {
	for key, vals := range r.header {
		for _, v := range vals {
			w.Header().Add(key, v)
		}
	}
	w.WriteHeader(r.status)
}

type jsonResponse struct {
	baseResponse
	body any
}

// JSON returns a response serializing body as JSON.
func JSON(status int, body any) Response {
	r := &jsonResponse{baseResponse: newBaseResponse(status), body: body}
	r.header.Set("Content-Type", "application/json; charset=utf-8")
	return r
}

func (r *jsonResponse) WriteTo(w http.ResponseWriter) error {
	r.writeHead(w)
	return json.NewEncoder(w).Encode(r.body)
}

type textResponse struct {
	baseResponse
	body        string
	contentType string
}

// Text returns a plain-text response.
func Text(status int, body string) Response {
	r := &textResponse{baseResponse: newBaseResponse(status), body: body, contentType: "text/plain; charset=utf-8"}
	r.header.Set("Content-Type", r.contentType)
	return r
}

// HTML returns an HTML response.
func HTML(status int, body string) Response {
	r := &textResponse{baseResponse: newBaseResponse(status), body: body, contentType: "text/html; charset=utf-8"}
	r.header.Set("Content-Type", r.contentType)
	return r
}

func (r *textResponse) WriteTo(w http.ResponseWriter) error {
	r.writeHead(w)
	_, err := fmt.Fprint(w, r.body)
	return err
}

type redirectResponse struct {
	baseResponse
}

// Redirect returns a redirect response. The status must be a 3xx code.
func Redirect(status int, location string) Response {
	r := &redirectResponse{baseResponse: newBaseResponse(status)}
	r.header.Set("Location", location)
	return r
}

func (r *redirectResponse) WriteTo(w http.ResponseWriter) error {
	r.writeHead(w)
	return nil
}

type noContentResponse struct {
	baseResponse
}

// NoContent returns an empty 204 response.
func NoContent() Response {
	return &noContentResponse{baseResponse: newBaseResponse(http.StatusNoContent)}
}

func (r *noContentResponse) WriteTo(w http.ResponseWriter) error {
	r.writeHead(w)
	return nil
}
