package function

import (
	"net/http"

	json "github.com/json-iterator/go"
)

// Response is the HTTP response of a route function.
type Response struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
}

// JSON creates a response with v encoded as the JSON body. An encoding
// failure yields a 500 response.
func JSON(status int, v any) *Response {
	body, err := json.Marshal(v)
	if err != nil {
		body, _ = json.Marshal(map[string]string{"error": "failed to encode response"})
		status = http.StatusInternalServerError
	}

	return &Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": []string{"application/json"}},
		Body:       body,
	}
}

// Text creates a plain text response.
func Text(status int, body string) *Response {
	return &Response{
		StatusCode: status,
		Headers:    http.Header{"Content-Type": []string{"text/plain; charset=utf-8"}},
		Body:       []byte(body),
	}
}

// Write writes the response to w.
func (r *Response) Write(w http.ResponseWriter) error {
	for key, values := range r.Headers {
		for _, v := range values {
			w.Header().Add(key, v)
		}
	}

	status := r.StatusCode
	if status == 0 {
		status = http.StatusOK
	}
	w.WriteHeader(status)

	if len(r.Body) == 0 {
		return nil
	}
	_, err := w.Write(r.Body)
	return err
}

// toResponse turns a handler result into a response.
func toResponse(result any) *Response {
	switch r := result.(type) {
	case nil:
		return &Response{StatusCode: http.StatusNoContent}
	case *Response:
		if r == nil {
			return &Response{StatusCode: http.StatusNoContent}
		}
		return r
	case Response:
		return &r
	case string:
		return Text(http.StatusOK, r)
	case []byte:
		return &Response{
			StatusCode: http.StatusOK,
			Headers:    http.Header{"Content-Type": []string{"application/octet-stream"}},
			Body:       r,
		}
	default:
		return JSON(http.StatusOK, r)
	}
}
