package slackapi

import "fmt"

// ValidationError means a required argument was missing for an endpoint.
type ValidationError struct {
	Endpoint string
	Field    string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("missing required argument(s): %s must be provided for %s", e.Field, e.Endpoint)
}

// TransportError means the request could not be sent, or the API answered
// with an HTTP error status.
type TransportError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *TransportError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("failed to send data to the Slack API (%s): status code %d", e.Endpoint, e.StatusCode)
	}
	return fmt.Sprintf("failed to send data to the Slack API (%s): %v", e.Endpoint, e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// ResponseDecodeError means the response body was not a JSON object or array.
type ResponseDecodeError struct {
	Endpoint string
	Body     string
	Err      error
}

func (e *ResponseDecodeError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to process response from the Slack API (%s): %v", e.Endpoint, e.Err)
	}
	return fmt.Sprintf("failed to process response from the Slack API (%s): body %q", e.Endpoint, e.Body)
}

func (e *ResponseDecodeError) Unwrap() error {
	return e.Err
}
