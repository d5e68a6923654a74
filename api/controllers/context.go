package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/kevinvillajim/bcommerceBackEnd-sub000/api/middleware"
	pkgerrors "github.com/kevinvillajim/bcommerceBackEnd-sub000/pkg/errors"
)

// currentUserID extracts the authenticated user from the request context.
func currentUserID(r *http.Request) (uuid.UUID, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	return userID, nil
}
