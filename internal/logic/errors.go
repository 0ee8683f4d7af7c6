package logic

import (
	"errors"
)

// 业务错误类型
var (
	ErrUnauthenticated = errors.New("unauthenticated")
	ErrForbidden       = errors.New("forbidden")
	ErrNotFound        = errors.New("not found")
	ErrRejected        = errors.New("rejected")
	ErrConflict        = errors.New("conflict")
	ErrValidation      = errors.New("validation failed")
)

// BizError 携带错误类型和面向调用方的说明
type BizError struct {
	Kind   error
	Detail string
}

func (e *BizError) Error() string {
	return e.Detail
}

func (e *BizError) Unwrap() error {
	return e.Kind
}

func unauthenticated(detail string) error {
	return &BizError{Kind: ErrUnauthenticated, Detail: detail}
}

func forbidden(detail string) error {
	return &BizError{Kind: ErrForbidden, Detail: detail}
}

func notFound(detail string) error {
	return &BizError{Kind: ErrNotFound, Detail: detail}
}

func rejected(detail string) error {
	return &BizError{Kind: ErrRejected, Detail: detail}
}

func conflict(detail string) error {
	return &BizError{Kind: ErrConflict, Detail: detail}
}

func invalid(detail string) error {
	return &BizError{Kind: ErrValidation, Detail: detail}
}

// 拒绝支持的原因
const (
	DetailProjectNotFound   = "project not found"
	DetailRewardNotFound    = "reward not found"
	DetailNotAccepting      = "project is not accepting pledges"
	DetailFundingEnded      = "funding period has ended"
	DetailRewardUnavailable = "reward unavailable"
	DetailRewardSoldOut     = "reward sold out"
	DetailBelowMinimum      = "amount below reward minimum"
)
