package html

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/a-h/templ"
)

// CSRFField renders the hidden form field checked by the CSRF middleware.
func CSRFField(token string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := fmt.Fprintf(w, `<input type="hidden" name="_csrf" value="%s">`, templ.EscapeString(token))
		return err
	})
}

// TokenFromRequest reads the CSRF cookie set by the middleware so forms can
// echo it back.
func TokenFromRequest(r *http.Request) string {
	c, err := r.Cookie("X-CSRF-Token")
	if err != nil {
		return ""
	}
	return c.Value
}
