package errors

import (
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNewError() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.NotNil(err)
	suite.Equal(ErrCodeInvalidParameter, err.Code)
	suite.Equal("invalid parameter", err.Message)
	suite.Nil(err.Cause)
}

func (suite *ErrorTestSuite) TestNewfError() {
	err := Newf(ErrCodeInvalidParameter, "invalid parameter: %s", "test")
	suite.Equal("invalid parameter: test", err.Message)
}

func (suite *ErrorTestSuite) TestWrapfError() {
	cause := errors.New("underlying error")
	err := Wrapf(ErrCodeReadFailed, cause, "failed to read %s", "control.json")
	suite.Equal(ErrCodeReadFailed, err.Code)
	suite.Equal("failed to read control.json", err.Message)
	suite.Equal(cause, err.Cause)
}

func (suite *ErrorTestSuite) TestErrorString() {
	err := New(ErrCodeInvalidParameter, "invalid parameter")
	suite.Equal("[100] invalid parameter", err.Error())
}

func (suite *ErrorTestSuite) TestErrorStringWithCause() {
	cause := errors.New("disk full")
	err := Wrap(ErrCodeWriteFailed, "write failed", cause)
	suite.Equal("[200] write failed: disk full", err.Error())
	suite.Equal(cause, err.Unwrap())
}

func (suite *ErrorTestSuite) TestGetCodeFromWrapped() {
	inner := New(ErrCodeRenameFailed, "rename failed")
	wrapped := fmt.Errorf("context: %w", inner)
	suite.Equal(ErrCodeRenameFailed, GetCode(wrapped))
	suite.True(HasCode(wrapped, ErrCodeRenameFailed))
	suite.False(HasCode(wrapped, ErrCodeWriteFailed))
}

func (suite *ErrorTestSuite) TestGetCodeFromPlainError() {
	suite.Equal(ErrCodeUnknown, GetCode(errors.New("plain")))
}

func (suite *ErrorTestSuite) TestIsTransient() {
	testCases := []struct {
		name     string
		err      error
		expected bool
	}{
		{"nil", nil, false},
		{"plain error", errors.New("boom"), true},
		{"provider unavailable", New(ErrCodeProviderUnavailable, "down"), true},
		{"rate limited", New(ErrCodeProviderRateLimited, "slow down"), true},
		{"invalid response", New(ErrCodeProviderResponseInvalid, "garbage"), false},
		{"invalid provider", New(ErrCodeInvalidProvider, "nope"), false},
		{"invalid configuration", New(ErrCodeInvalidConfiguration, "bad"), false},
		{"net error", &net.DNSError{Err: "no such host", Name: "hq.sinajs.cn"}, true},
		{
			"net error wrapped in invalid response",
			Wrap(ErrCodeProviderResponseInvalid, "read body", &net.DNSError{Err: "timeout", IsTimeout: true}),
			true,
		},
	}

	for _, tc := range testCases {
		suite.Run(tc.name, func() {
			suite.Equal(tc.expected, IsTransient(tc.err))
		})
	}
}
