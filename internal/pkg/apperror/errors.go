package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound     ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden    ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest   ErrorCode = "BAD_REQUEST"
	ErrCodeConflict     ErrorCode = "CONFLICT"
	ErrCodeInternal     ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation   ErrorCode = "VALIDATION_ERROR"
	ErrCodeInvariant    ErrorCode = "INVARIANT_VIOLATION"
	ErrCodeDatabase     ErrorCode = "DATABASE_ERROR"
)

// AppError: ошибка с кодом, понятным сообщением и HTTP статусом.
// Message содержит причину отказа, которую видит вызывающая сторона.
type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is сравнивает ошибки по коду и сообщению, чтобы errors.Is работал
// и с копиями сентинелов, и с обёрнутыми ошибками.
func (e *AppError) Is(target error) bool {
	var t *AppError
	if !errors.As(target, &t) {
		return false
	}
	return e.Code == t.Code && e.Message == t.Message
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

// Reason возвращает сообщение для клиента. Для внутренних ошибок детали скрываются.
func Reason(err error) string {
	var appErr *AppError
	if errors.As(err, &appErr) {
		if appErr.Code == ErrCodeInternal || appErr.Code == ErrCodeDatabase {
			return "internal error"
		}
		return appErr.Message
	}
	return "internal error"
}

// Status возвращает HTTP статус для произвольной ошибки.
func Status(err error) int {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.HTTPStatus
	}
	return http.StatusInternalServerError
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvariant:
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func hasCode(err error, code ErrorCode) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == code
}

func IsNotFound(err error) bool {
	return hasCode(err, ErrCodeNotFound)
}

func IsForbidden(err error) bool {
	return hasCode(err, ErrCodeForbidden)
}

func IsValidation(err error) bool {
	return hasCode(err, ErrCodeValidation)
}

func IsConflict(err error) bool {
	return hasCode(err, ErrCodeConflict)
}

func IsInvariant(err error) bool {
	return hasCode(err, ErrCodeInvariant)
}

// Ошибки авторизации.
var (
	ErrUnauthorized      = New(ErrCodeForbidden, "Unauthorized")
	ErrOnlyClient        = New(ErrCodeForbidden, "Only client can perform this action")
	ErrOnlyClientFund    = New(ErrCodeForbidden, "Only client can fund")
	ErrOnlyFreelancer    = New(ErrCodeForbidden, "Only freelancer can perform this action")
	ErrOnlyDaoMember     = New(ErrCodeForbidden, "Only DAO member can vote")
	ErrOnlyOwner         = New(ErrCodeForbidden, "Only owner can perform this action")
	ErrOnlyDisputeModule = New(ErrCodeForbidden, "Only dispute contract can resolve")
	ErrClientRequest     = New(ErrCodeForbidden, "Client cannot request own job")
	ErrNotParticipant    = New(ErrCodeForbidden, "Only job participants can open a dispute")
	ErrMissingCaller     = New(ErrCodeUnauthorized, "caller is required")
)

// Ошибки состояния и валидации.
var (
	ErrDeadlineNotFuture     = New(ErrCodeValidation, "Deadline must be future")
	ErrInvalidAmount         = New(ErrCodeValidation, "Amount must be a positive integer")
	ErrInvalidBudget         = New(ErrCodeValidation, "Fixed job budget must be a single amount")
	ErrNoMilestones          = New(ErrCodeValidation, "Milestone job needs at least one milestone")
	ErrFundingMismatch       = New(ErrCodeValidation, "Incorrect funding amount")
	ErrAlreadyFunded         = New(ErrCodeConflict, "Job already funded")
	ErrNotFunded             = New(ErrCodeConflict, "Job not funded")
	ErrJobNotOpen            = New(ErrCodeConflict, "Job not open")
	ErrAlreadyRequested      = New(ErrCodeConflict, "Job already requested")
	ErrNotRequested          = New(ErrCodeConflict, "Provider has not requested this job")
	ErrProviderApproved      = New(ErrCodeConflict, "Provider already approved")
	ErrInvalidStatus         = New(ErrCodeConflict, "Invalid job status")
	ErrJobTerminal           = New(ErrCodeConflict, "Job already finalized")
	ErrWrongJobType          = New(ErrCodeConflict, "Operation not supported for this job type")
	ErrMilestoneNotDelivered = New(ErrCodeConflict, "Milestone not delivered")
	ErrMilestoneConfirmed    = New(ErrCodeConflict, "Milestone already confirmed")
	ErrMilestoneDelivered    = New(ErrCodeConflict, "Milestone already delivered")
	ErrNothingToRefund       = New(ErrCodeConflict, "Nothing to refund")
	ErrNothingToWithdraw     = New(ErrCodeConflict, "Nothing to withdraw")
	ErrJobNotDisputable      = New(ErrCodeConflict, "Job not disputable")
	ErrDisputeClosed         = New(ErrCodeConflict, "Dispute already resolved")
	ErrAlreadyVoted          = New(ErrCodeConflict, "Already voted")
	ErrNotAutoResolvable     = New(ErrCodeConflict, "Dispute cannot be auto-resolved")
	ErrNotLate               = New(ErrCodeConflict, "Job deadline has not passed")
	ErrStakeTooLow           = New(ErrCodeValidation, "Insufficient dispute stake")
	ErrInvalidCategory       = New(ErrCodeValidation, "Unknown dispute category")
	ErrInvalidFeeTier        = New(ErrCodeValidation, "Unknown fee tier")
	ErrNotWired              = New(ErrCodeConflict, "Escrow and dispute contracts are not registered")
	ErrAlreadyMember         = New(ErrCodeConflict, "Already a DAO member")
	ErrReentrantCall         = New(ErrCodeConflict, "Reentrant call")
	ErrEmptyBatch            = New(ErrCodeValidation, "Batch is empty")
)

// Ошибки инвариантов.
var (
	ErrInsufficientFunds = New(ErrCodeInvariant, "Insufficient balance")
	ErrOverWithdrawal    = New(ErrCodeInvariant, "Withdrawal exceeds confirmed amount")
	ErrConservation      = New(ErrCodeInvariant, "Escrow accounting mismatch")
)

// Ошибки поиска.
var (
	ErrJobNotFound       = New(ErrCodeNotFound, "Job not found")
	ErrMilestoneNotFound = New(ErrCodeNotFound, "Milestone not found")
	ErrDisputeNotFound   = New(ErrCodeNotFound, "Dispute not found")
	ErrMemberNotFound    = New(ErrCodeNotFound, "DAO member not found")
)
