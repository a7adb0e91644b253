package services

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"

	apperrors "chengdumed/pkg/errors"
)

func TestSurfaceFormatsMessage(t *testing.T) {
	err := apperrors.Wrap(apperrors.ErrCodeStorage, "failed to fetch inquiries", errors.New("database is locked"))

	fault := Surface("retrieving", "inquiries", err)
	assert.Equal(t, "Error retrieving inquiries: failed to fetch inquiries: database is locked", fault.Message)
	assert.True(t, fault.Fault)
}

func TestStatusOf(t *testing.T) {
	assert.Equal(t, http.StatusInternalServerError, StatusOf(apperrors.New(apperrors.ErrCodeStorage, "x")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(apperrors.New(apperrors.ErrCodeExport, "x")))
	assert.Equal(t, http.StatusInternalServerError, StatusOf(errors.New("x")))
	assert.Equal(t, http.StatusBadRequest, StatusOf(apperrors.New(apperrors.ErrCodeBadRequest, "x")))
	assert.Equal(t, http.StatusForbidden, StatusOf(apperrors.New(apperrors.ErrCodeForbidden, "x")))
}

func TestAuthorize(t *testing.T) {
	r := httptest.NewRequest(http.MethodGet, "/admin/inquiries", nil)

	assert.NoError(t, Authorize(AllowAll, r))
	assert.NoError(t, Authorize(nil, r))

	deny := AuthorizerFunc(func(*http.Request) error { return errors.New("no session") })
	err := Authorize(deny, r)
	assert.True(t, apperrors.IsForbidden(err))
	assert.Equal(t, http.StatusForbidden, StatusOf(err))
}
