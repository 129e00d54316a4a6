package errors

import (
	"net/http"
	"strings"
)

// ErrorCode is a string representation of a specific error condition.
type ErrorCode string

func (c ErrorCode) String() string {
	return string(c)
}

// Common error codes.
const (
	ErrCodeInternal                ErrorCode = "COMMON_001"
	ErrCodeBadRequest              ErrorCode = "COMMON_002"
	ErrCodeNotFound                ErrorCode = "COMMON_003"
	ErrCodeConflict                ErrorCode = "COMMON_004"
	ErrCodeTooManyRequests         ErrorCode = "COMMON_005"
	ErrCodeTimeout                 ErrorCode = "COMMON_006"
	ErrCodeValidation              ErrorCode = "COMMON_007"
	ErrCodeSerialization           ErrorCode = "COMMON_008"
	ErrCodeDatabaseError           ErrorCode = "COMMON_009"
	ErrCodeCacheError              ErrorCode = "COMMON_010"
	ErrCodeCollaboratorUnavailable ErrorCode = "COMMON_011"
	ErrCodeNotImplemented          ErrorCode = "COMMON_012"
)

// Matching module error codes.
const (
	ErrCodeRequirementInvalid  ErrorCode = "MATCH_001"
	ErrCodeSupplierInvalid     ErrorCode = "MATCH_002"
	ErrCodeRequirementNotFound ErrorCode = "MATCH_003"
	ErrCodeSupplierNotFound    ErrorCode = "MATCH_004"
	ErrCodeScoringFailed       ErrorCode = "MATCH_005"
)

// Market-analysis module error codes.
const (
	ErrCodeMarketDataUnavailable ErrorCode = "MARKET_001"
	ErrCodeMarketDataInvalid     ErrorCode = "MARKET_002"
)

// Risk module error codes.
const (
	ErrCodeHistoryUnavailable ErrorCode = "RISK_001"
)

// Negotiation module error codes.
const (
	ErrCodeRFQInvalid            ErrorCode = "NEG_001"
	ErrCodeRFQNotFound           ErrorCode = "NEG_002"
	ErrCodeAnalysisFailed        ErrorCode = "NEG_003"
	ErrCodeReportArchiveFailed   ErrorCode = "NEG_004"
	ErrCodeReportGenerationError ErrorCode = "NEG_005"
)

// Infrastructure source error codes.
const (
	ErrCodeSearchUnavailable ErrorCode = "SRC_001"
	ErrCodeEventPublishError ErrorCode = "SRC_002"
	ErrCodeStorageError      ErrorCode = "SRC_003"
)

// OK is the sentinel code for "no error".
const CodeOK = ErrorCode("OK")

// Unknown is the code assigned to non-AppError errors during chain inspection.
const CodeUnknown = ErrorCode("UNKNOWN")

// ErrorCodeHTTPStatus maps ErrorCodes to HTTP status codes.
var ErrorCodeHTTPStatus = map[ErrorCode]int{
	ErrCodeInternal:                http.StatusInternalServerError,
	ErrCodeBadRequest:              http.StatusBadRequest,
	ErrCodeNotFound:                http.StatusNotFound,
	ErrCodeConflict:                http.StatusConflict,
	ErrCodeTooManyRequests:         http.StatusTooManyRequests,
	ErrCodeTimeout:                 http.StatusGatewayTimeout,
	ErrCodeValidation:              http.StatusUnprocessableEntity,
	ErrCodeSerialization:           http.StatusInternalServerError,
	ErrCodeDatabaseError:           http.StatusInternalServerError,
	ErrCodeCacheError:              http.StatusInternalServerError,
	ErrCodeCollaboratorUnavailable: http.StatusServiceUnavailable,
	ErrCodeNotImplemented:          http.StatusNotImplemented,

	ErrCodeRequirementInvalid:  http.StatusUnprocessableEntity,
	ErrCodeSupplierInvalid:     http.StatusUnprocessableEntity,
	ErrCodeRequirementNotFound: http.StatusNotFound,
	ErrCodeSupplierNotFound:    http.StatusNotFound,
	ErrCodeScoringFailed:       http.StatusInternalServerError,

	ErrCodeMarketDataUnavailable: http.StatusServiceUnavailable,
	ErrCodeMarketDataInvalid:     http.StatusBadGateway,

	ErrCodeHistoryUnavailable: http.StatusServiceUnavailable,

	ErrCodeRFQInvalid:            http.StatusUnprocessableEntity,
	ErrCodeRFQNotFound:           http.StatusNotFound,
	ErrCodeAnalysisFailed:        http.StatusInternalServerError,
	ErrCodeReportArchiveFailed:   http.StatusInternalServerError,
	ErrCodeReportGenerationError: http.StatusInternalServerError,

	ErrCodeSearchUnavailable: http.StatusServiceUnavailable,
	ErrCodeEventPublishError: http.StatusInternalServerError,
	ErrCodeStorageError:      http.StatusInternalServerError,
}

// ErrorCodeMessage maps ErrorCodes to default messages.
var ErrorCodeMessage = map[ErrorCode]string{
	ErrCodeInternal:                "internal server error",
	ErrCodeBadRequest:              "bad request",
	ErrCodeNotFound:                "resource not found",
	ErrCodeConflict:                "resource conflict",
	ErrCodeTooManyRequests:         "too many requests",
	ErrCodeTimeout:                 "request timeout",
	ErrCodeValidation:              "validation failed",
	ErrCodeSerialization:           "serialization failed",
	ErrCodeDatabaseError:           "database error",
	ErrCodeCacheError:              "cache error",
	ErrCodeCollaboratorUnavailable: "collaborator unavailable",
	ErrCodeNotImplemented:          "not implemented",

	ErrCodeRequirementInvalid:  "malformed RFQ requirement",
	ErrCodeSupplierInvalid:     "malformed supplier record",
	ErrCodeRequirementNotFound: "RFQ requirement not found",
	ErrCodeSupplierNotFound:    "supplier not found",
	ErrCodeScoringFailed:       "supplier scoring failed",

	ErrCodeMarketDataUnavailable: "market-data service unavailable",
	ErrCodeMarketDataInvalid:     "market-data response invalid",

	ErrCodeHistoryUnavailable: "supplier history unavailable",

	ErrCodeRFQInvalid:            "malformed complex RFQ",
	ErrCodeRFQNotFound:           "RFQ not found",
	ErrCodeAnalysisFailed:        "RFQ analysis failed",
	ErrCodeReportArchiveFailed:   "failed to archive negotiation report",
	ErrCodeReportGenerationError: "failed to generate negotiation report",

	ErrCodeSearchUnavailable: "supplier search unavailable",
	ErrCodeEventPublishError: "failed to publish event",
	ErrCodeStorageError:      "object storage error",
}

// HTTPStatusForCode returns the HTTP status code for an ErrorCode.
func HTTPStatusForCode(code ErrorCode) int {
	if status, ok := ErrorCodeHTTPStatus[code]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// DefaultMessageForCode returns the default message for an ErrorCode.
func DefaultMessageForCode(code ErrorCode) string {
	if msg, ok := ErrorCodeMessage[code]; ok {
		return msg
	}
	return "unknown error"
}

// IsClientError returns true if the ErrorCode corresponds to a 4xx HTTP status.
func IsClientError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 400 && status < 500
}

// IsServerError returns true if the ErrorCode corresponds to a 5xx HTTP status.
func IsServerError(code ErrorCode) bool {
	status := HTTPStatusForCode(code)
	return status >= 500 && status < 600
}

// ModuleForCode returns the module prefix of an ErrorCode.
func ModuleForCode(code ErrorCode) string {
	parts := strings.Split(string(code), "_")
	if len(parts) > 0 && parts[0] != "" {
		return parts[0]
	}
	return "UNKNOWN"
}
