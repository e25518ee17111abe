package util

import (
	"errors"
	"strings"
	"testing"
)

func TestFetchErrorMessage(t *testing.T) {
	cases := []struct {
		err  *FetchError
		want string
	}{
		{&FetchError{Op: "load questions", URL: "http://x/q", StatusCode: 500}, "unexpected status 500"},
		{&FetchError{Op: "load lessons", Err: errors.New("boom")}, "load lessons: boom"},
		{&FetchError{Op: "load lessons", URL: "file://l.yaml", Err: errors.New("missing")}, "file://l.yaml: missing"},
	}
	for _, tc := range cases {
		if got := tc.err.Error(); !strings.Contains(got, tc.want) {
			t.Errorf("Error() = %q, want it to contain %q", got, tc.want)
		}
	}
}

func TestErrorsUnwrap(t *testing.T) {
	fe := &FetchError{Op: "load questions", Err: ErrInvalidQuestion}
	if !errors.Is(fe, ErrInvalidQuestion) {
		t.Error("FetchError does not unwrap")
	}

	cause := errors.New("503")
	pe := &PersistError{LessonID: "intro", Err: cause}
	if !errors.Is(pe, cause) || !strings.Contains(pe.Error(), "intro") {
		t.Errorf("PersistError = %v", pe)
	}
}
