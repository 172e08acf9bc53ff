package db

import "errors"

var (
	ErrKeyNotFound   = errors.New("db: key not found")
	ErrIndexNotFound = errors.New("db: index not found")
	ErrIndexExists   = errors.New("db: index already exists")
	// ErrIndexDrift means a live index no longer covers the collection schema.
	ErrIndexDrift = errors.New("db: index schema drift")
)

// Op names the store command that failed.
type Op string

const (
	OpCreateIndex Op = "FT.CREATE"
	OpDropIndex   Op = "FT.DROPINDEX"
	OpIndexInfo   Op = "FT.INFO"
	OpSearch      Op = "FT.SEARCH"
	OpJSONSet     Op = "JSON.SET"
	OpJSONGet     Op = "JSON.GET"
	OpDel         Op = "DEL"
	OpExists      Op = "EXISTS"
)

// Error is a store failure together with the key or index it addressed.
type Error struct {
	Op     Op
	Target string
	Err    error
}

func (e *Error) Error() string {
	if e.Target == "" {
		return string(e.Op) + ": " + e.Err.Error()
	}
	return string(e.Op) + " " + e.Target + ": " + e.Err.Error()
}

func (e *Error) Unwrap() error { return e.Err }
