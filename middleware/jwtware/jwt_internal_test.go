package jwtware

import (
	"testing"

	"github.com/goliatone/go-router"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func TestJWTFromHeaderWithoutScheme(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearer token"
	ctx.On("Header", router.HeaderAuthorization).Return("Bearer token").Maybe()
	ctx.On("Header", mock.Anything).Return("").Maybe()

	raw, err := jwtFromHeader(router.HeaderAuthorization, "")(ctx)
	require.ErrorIs(t, err, ErrJWTMissingOrMalformed)
	require.Empty(t, raw)
}

func TestJWTFromHeaderRequiresSchemeSeparator(t *testing.T) {
	ctx := router.NewMockContext()
	ctx.HeadersM[router.HeaderAuthorization] = "Bearertoken"
	ctx.On("Header", router.HeaderAuthorization).Return("Bearertoken").Maybe()

	raw, err := jwtFromHeader(router.HeaderAuthorization, "Bearer")(ctx)
	require.ErrorIs(t, err, ErrJWTMissingOrMalformed)
	require.Empty(t, raw)
}
