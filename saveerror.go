package stagedit

import (
	"context"
	"errors"
	"html"
	"io"
	"strings"

	"github.com/a-h/templ"
)

// Save-error rendering. Commit failures are the only user-visible error
// kind: they render near the form and disappear on the next field edit.

// SaveErrorMessage returns the user-facing text for the session's save
// error, or "" when there is none. The ErrCommitFailed prefix is stripped;
// the backend's own message is what the user should see.
func (s *Session) SaveErrorMessage() string {
	err := s.SaveError()
	if err == nil {
		return ""
	}
	msg := err.Error()
	if errors.Is(err, ErrCommitFailed) {
		msg = strings.TrimPrefix(msg, ErrCommitFailed.Error()+": ")
	}
	return msg
}

// RenderSaveErrorOOB renders the session's save error as an out-of-band
// swap targeting the form's error container, or "" when there is no error.
// containerID is the id of the element rendered by SaveErrorContainer.
func (s *Session) RenderSaveErrorOOB(containerID string) string {
	msg := s.SaveErrorMessage()
	if msg == "" {
		return ""
	}

	var sb strings.Builder
	sb.WriteString(`<div id="`)
	sb.WriteString(html.EscapeString(containerID))
	sb.WriteString(`" hx-swap-oob="innerHTML">`)
	sb.WriteString(`<div class="save-error" role="alert">`)
	sb.WriteString(html.EscapeString(msg))
	sb.WriteString(`</div></div>`)
	return sb.String()
}

// SaveErrorContainer returns a templ component for the error container.
// Place it inside the form markup; OOB swaps from RenderSaveErrorOOB fill
// and empty it as commits fail and recover.
func SaveErrorContainer(id string) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		_, err := io.WriteString(w,
			`<div id="`+html.EscapeString(id)+`" class="save-error-container"></div>`)
		return err
	})
}
