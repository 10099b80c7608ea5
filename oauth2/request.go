package oauth2

import (
	"mime"
	"net/http"
	"net/url"
)

// Request is the transport-independent view of an authorization request.
// Body holds form-encoded body fields, Query the URL query.
type Request struct {
	Method string
	Header http.Header
	Query  url.Values
	Body   url.Values
}

// NewRequest builds a Request from an incoming HTTP request, parsing any
// form-encoded body.
func NewRequest(r *http.Request) (*Request, error) {
	if err := r.ParseForm(); err != nil {
		return nil, NewError(InvalidRequest, "Invalid request: malformed request body").Wrap(err)
	}
	return &Request{
		Method: r.Method,
		Header: r.Header.Clone(),
		Query:  r.URL.Query(),
		Body:   r.PostForm,
	}, nil
}

// HeaderValue returns the first value of the named header.
func (r *Request) HeaderValue(name string) string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get(name)
}

// IsContentType reports whether the request body has the given media type,
// ignoring parameters such as charset.
func (r *Request) IsContentType(mediaType string) bool {
	ct := r.HeaderValue("Content-Type")
	if ct == "" {
		return false
	}
	parsed, _, err := mime.ParseMediaType(ct)
	if err != nil {
		return false
	}
	return parsed == mediaType
}

// Response collects the outcome the HTTP layer should render.
type Response struct {
	Status int
	Header http.Header
}

// NewResponse returns an empty 200 response.
func NewResponse() *Response {
	return &Response{Status: http.StatusOK, Header: http.Header{}}
}

// Redirect points the response at location with a 302.
func (r *Response) Redirect(location string) {
	r.SetHeader("Location", location)
	r.Status = http.StatusFound
}

// SetHeader sets a response header.
func (r *Response) SetHeader(name, value string) {
	if r.Header == nil {
		r.Header = http.Header{}
	}
	r.Header.Set(name, value)
}

// Location returns the redirect target, if one was set.
func (r *Response) Location() string {
	if r.Header == nil {
		return ""
	}
	return r.Header.Get("Location")
}
