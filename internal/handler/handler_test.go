package handler

import (
	"bytes"
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"testing"

	"Next_Express/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusFor(t *testing.T) {
	cases := map[error]int{
		&service.Error{Kind: service.ErrValidation, Message: "x"}: http.StatusBadRequest,
		&service.Error{Kind: service.ErrNotFound, Message: "x"}:   http.StatusNotFound,
		&service.Error{Kind: service.ErrConflict, Message: "x"}:   http.StatusConflict,
		&service.DependencyError{Op: "op", Err: errors.New("x")}:  http.StatusInternalServerError,
		errors.New("unknown"): http.StatusInternalServerError,
	}
	for err, want := range cases {
		assert.Equal(t, want, statusFor(err), err.Error())
	}
}

func TestDownloadName(t *testing.T) {
	assert.Equal(t, "report.pdf", downloadName("files/123e4567-e89b-12d3-a456-426614174000-report.pdf"))
	assert.Equal(t, "abc.png", downloadName("profile-pictures/abc.png"))
	assert.Equal(t, "short-name", downloadName("files/short-name"))
}

// emptyPart parses a multipart body holding one zero-byte file.
func emptyPart(t *testing.T) *multipart.FileHeader {
	t.Helper()
	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	_, err := mw.CreateFormFile("file", "empty.txt")
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	form, err := multipart.NewReader(&body, mw.Boundary()).ReadForm(1 << 20)
	require.NoError(t, err)
	t.Cleanup(func() { _ = form.RemoveAll() })
	require.Len(t, form.File["file"], 1)
	return form.File["file"][0]
}

func TestOpenUploadEmptyParts(t *testing.T) {
	up, done, err := openUpload(nil, true)
	assert.NoError(t, err)
	assert.Nil(t, up)
	done()

	fh := emptyPart(t)
	require.Zero(t, fh.Size)

	up, done, err = openUpload(fh, false)
	assert.NoError(t, err)
	assert.Nil(t, up)
	done()

	up, done, err = openUpload(fh, true)
	require.NoError(t, err)
	require.NotNil(t, up)
	defer done()
	assert.Equal(t, "empty.txt", up.Filename)
	assert.Equal(t, "text/plain; charset=utf-8", up.ContentType)
	data, err := io.ReadAll(up.Reader)
	require.NoError(t, err)
	assert.Empty(t, data)
}
