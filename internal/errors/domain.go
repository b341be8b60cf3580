package errors

import "net/http"

// DomainErrorKind is the business-rule error taxonomy, layered on top of
// the infrastructure ErrorType/Severity pair above so that both
// infrastructure failures (database, network) and business-rule rejections
// (validation, not-found, forbidden) flow through the same structured Error
// type and the same HTTP boundary mapping.
type DomainErrorKind int

const (
	KindNotFound DomainErrorKind = iota
	KindValidation
	KindAlreadyExists
	KindForbidden
	KindForgeFailure
	KindInternal
)

// Domain wraps a DomainErrorKind as a structured *Error, reusing the
// Severity/Context/Cause machinery already defined in errors.go.
func Domain(kind DomainErrorKind, message string) *Error {
	e := New(domainKindToErrorType(kind), domainKindToSeverity(kind), message)
	e.Context["domain_kind"] = domainKindString(kind)
	return e
}

// DomainWrap wraps an underlying error with a DomainErrorKind.
func DomainWrap(kind DomainErrorKind, err error, message string) *Error {
	e := Wrap(err, domainKindToErrorType(kind), domainKindToSeverity(kind), message)
	if e != nil {
		e.Context["domain_kind"] = domainKindString(kind)
	}
	return e
}

// NotFound, Validation, AlreadyExists, Forbidden, ForgeFailure, Internal are
// convenience constructors for each DomainErrorKind.
func NotFound(message string) *Error      { return Domain(KindNotFound, message) }
func Validation(message string) *Error    { return Domain(KindValidation, message) }
func AlreadyExists(message string) *Error { return Domain(KindAlreadyExists, message) }
func Forbidden(message string) *Error     { return Domain(KindForbidden, message) }
func ForgeFailure(err error, message string) *Error {
	return DomainWrap(KindForgeFailure, err, message)
}

// HTTPStatus maps a domain error to the HTTP status code the boundary
// handler returns (internal/httpapi's writeError calls it).
func HTTPStatus(err error) int {
	de, ok := err.(*Error)
	if !ok {
		return http.StatusInternalServerError
	}
	kindVal, _ := de.Context["domain_kind"].(string)
	switch kindVal {
	case "not_found":
		return http.StatusNotFound
	case "validation":
		return http.StatusBadRequest
	case "already_exists":
		return http.StatusConflict
	case "forbidden":
		return http.StatusForbidden
	case "forge_failure":
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func domainKindToErrorType(kind DomainErrorKind) ErrorType {
	switch kind {
	case KindNotFound, KindAlreadyExists, KindForbidden, KindValidation:
		return ErrorTypeValidation
	case KindForgeFailure:
		return ErrorTypeNetwork
	default:
		return ErrorTypeInternal
	}
}

func domainKindToSeverity(kind DomainErrorKind) Severity {
	switch kind {
	case KindNotFound, KindAlreadyExists, KindForbidden, KindValidation:
		return SeverityLow
	case KindForgeFailure:
		return SeverityMedium
	default:
		return SeverityCritical
	}
}

func domainKindString(kind DomainErrorKind) string {
	switch kind {
	case KindNotFound:
		return "not_found"
	case KindValidation:
		return "validation"
	case KindAlreadyExists:
		return "already_exists"
	case KindForbidden:
		return "forbidden"
	case KindForgeFailure:
		return "forge_failure"
	default:
		return "internal"
	}
}

// IsNotFound, IsValidation, IsAlreadyExists, IsForbidden report whether err
// carries the given domain kind.
func IsNotFound(err error) bool      { return hasKind(err, KindNotFound) }
func IsValidation(err error) bool    { return hasKind(err, KindValidation) }
func IsAlreadyExists(err error) bool { return hasKind(err, KindAlreadyExists) }
func IsForbidden(err error) bool     { return hasKind(err, KindForbidden) }

func hasKind(err error, kind DomainErrorKind) bool {
	de, ok := err.(*Error)
	if !ok {
		return false
	}
	return de.Context["domain_kind"] == domainKindString(kind)
}
