package domain

import "errors"

// Определение бизнес-ошибок
var (
	ErrWorksheetNotFound   = errors.New("worksheet not found")
	ErrItemNotFound        = errors.New("worksheet item not found")
	ErrRecordNotFound      = errors.New("hour record not found")
	ErrMemberNotFound      = errors.New("worker reference not found in catalog")
	ErrProductNotFound     = errors.New("product reference not found in catalog")
	ErrProcessNotFound     = errors.New("process reference not found in catalog")
	ErrDuplicateWorksheet  = errors.New("worksheet already exists for this date and group")
	ErrWorksheetNotActive  = errors.New("worksheet is not in ACTIVE status")
	ErrStatusTransition    = errors.New("status transition is not allowed")
	ErrEmptyMembers        = errors.New("worksheet requires at least one member")
	ErrEmptyBatch          = errors.New("output batch is empty")
	ErrNegativeOutput      = errors.New("actual output cannot be negative")
	ErrUnknownShiftType    = errors.New("unknown shift type")
	ErrUnknownCauseType    = errors.New("unknown cause type")
	ErrUnknownRecordStatus = errors.New("unknown hour record status")
)
