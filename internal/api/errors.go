package api

import (
	"net/http"

	settings "github.com/mldkyt/go-settings"
)

func statusForReason(reason settings.Reason) int {
	switch reason {
	case settings.ReasonNone:
		return http.StatusOK
	case settings.ReasonUnauthorized:
		return http.StatusForbidden
	case settings.ReasonNotFound:
		return http.StatusNotFound
	case settings.ReasonInvalidChoice, settings.ReasonOutOfRange, settings.ReasonInvalidSign, settings.ReasonInvalidInput:
		return http.StatusUnprocessableEntity
	case settings.ReasonPersistence:
		return http.StatusServiceUnavailable
	case settings.ReasonUnhandled:
		return http.StatusNotImplemented
	default:
		return http.StatusInternalServerError
	}
}
