package errs

import (
	"errors"
	"fmt"
)

// 业务错误码（HTTP 层统一返回 {code,msg,detail}）
const (
	CodeServer       = 500
	CodeArgs         = 1001
	CodeTokenExpired = 1501
	CodeTokenInvalid = 1502
	CodeNoAuth       = 1503
	CodeNotFound     = 1404
	CodeRecordExist  = 1405
	CodePassword     = 1506
)

var (
	ErrServer       = NewCodeError(CodeServer, "server error")
	ErrArgs         = NewCodeError(CodeArgs, "bad request args")
	ErrTokenExpired = NewCodeError(CodeTokenExpired, "token expired")
	ErrTokenInvalid = NewCodeError(CodeTokenInvalid, "token invalid")
	ErrNoAuth       = NewCodeError(CodeNoAuth, "no auth")
	ErrNotFound     = NewCodeError(CodeNotFound, "record not found")
	ErrRecordExist  = NewCodeError(CodeRecordExist, "record exists")
	ErrPassword     = NewCodeError(CodePassword, "password mismatch")
)

type CodeError struct {
	Code   int    `json:"code"`
	Msg    string `json:"msg"`
	Detail string `json:"detail,omitempty"`
}

func NewCodeError(code int, msg string) *CodeError {
	return &CodeError{Code: code, Msg: msg}
}

func (e *CodeError) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("[%d] %s", e.Code, e.Msg)
	}
	return fmt.Sprintf("[%d] %s: %s", e.Code, e.Msg, e.Detail)
}

// WithDetail 不修改原错误，克隆一份带明细
func (e *CodeError) WithDetail(detail string) *CodeError {
	d := detail
	if e.Detail != "" {
		d = e.Detail + ", " + detail
	}
	return &CodeError{Code: e.Code, Msg: e.Msg, Detail: d}
}

func (e *CodeError) Is(err error) bool {
	var ce *CodeError
	if !errors.As(err, &ce) {
		return false
	}
	return ce.Code == e.Code
}

// New 简单字符串错误（避免业务层直接 import errors）
func New(msg string) error {
	return errors.New(msg)
}
