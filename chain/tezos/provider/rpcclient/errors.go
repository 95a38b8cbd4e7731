package rpcclient

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/trilitech/tzgo/rpc"
)

var _ rpc.HTTPError = (*StatusError)(nil)

// StatusError is returned by Fetch when the server answers with a non success status.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Text   string
	Data   []byte
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.URL, e.Code, e.Data)
}

func (e *StatusError) Request() string { return e.Method + " " + e.URL }
func (e *StatusError) Status() string  { return e.Text }
func (e *StatusError) StatusCode() int { return e.Code }
func (e *StatusError) Body() []byte    { return e.Data }

// IsNotFound reports whether err carries a 404 status, either from the node RPC or from Fetch.
func IsNotFound(err error) bool {
	var st rpc.HTTPStatus

	return errors.As(err, &st) && st.StatusCode() == http.StatusNotFound
}
