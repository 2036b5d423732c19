package main

import (
	"errors"
	"fmt"
)

// Process exit codes.
const (
	exitOK         = 0
	exitUnexpected = 1
	exitFailOn     = 2
	exitInput      = 3
	exitIntegrity  = 4
	exitValidation = 5
)

type exitErr struct {
	code int
	msg  string
}

func (e *exitErr) Error() string { return e.msg }

func exitError(code int, format string, args ...any) error {
	return &exitErr{code: code, msg: fmt.Sprintf(format, args...)}
}

// exitCode reports the process exit code for err.
func exitCode(err error) int {
	if err == nil {
		return exitOK
	}
	var ee *exitErr
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitUnexpected
}
