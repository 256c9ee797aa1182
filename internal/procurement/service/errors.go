package service

import (
	"errors"
	"fmt"

	"github.com/bitfantasy/designatore/internal/procurement/repository"
)

// 错误分类，调用方用 errors.Is 判断
var (
	ErrValidation           = errors.New("validation error")
	ErrInsufficientStock    = errors.New("insufficient stock")
	ErrInvalidTransition    = errors.New("invalid state transition")
	ErrReferentialIntegrity = errors.New("referential integrity error")
	ErrForbidden            = errors.New("forbidden")
	ErrNotFound             = errors.New("not found")
	ErrPersistence          = errors.New("persistence failure")
)

var classified = []error{
	ErrValidation,
	ErrInsufficientStock,
	ErrInvalidTransition,
	ErrReferentialIntegrity,
	ErrForbidden,
	ErrNotFound,
	ErrPersistence,
}

func newError(kind error, format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", kind, fmt.Sprintf(format, args...))
}

// storeErr 把仓库层错误归类，未识别的一律视为持久化失败
func storeErr(err error, what string) error {
	if err == nil {
		return nil
	}
	for _, kind := range classified {
		if errors.Is(err, kind) {
			return err
		}
	}
	switch {
	case errors.Is(err, repository.ErrNotFound):
		return newError(ErrNotFound, "%s not found", what)
	case errors.Is(err, repository.ErrStaleStatus):
		return newError(ErrInvalidTransition, "%s status changed concurrently", what)
	case errors.Is(err, repository.ErrInsufficientStock):
		return newError(ErrInsufficientStock, "%s", what)
	}
	return fmt.Errorf("%w: %s: %w", ErrPersistence, what, err)
}

func isNotFound(err error) bool {
	return errors.Is(err, repository.ErrNotFound) || errors.Is(err, ErrNotFound)
}

func isInsufficient(err error) bool {
	return errors.Is(err, ErrInsufficientStock) || errors.Is(err, repository.ErrInsufficientStock)
}
