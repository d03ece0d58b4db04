//go:build unit || !integration

package bacerrors

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/suite"
)

type ErrorTestSuite struct {
	suite.Suite
}

func TestErrorTestSuite(t *testing.T) {
	suite.Run(t, new(ErrorTestSuite))
}

func (suite *ErrorTestSuite) TestNew() {
	err := New("test error")
	suite.Equal("test error", err.Error())
	suite.Equal(UnknownError, err.Code())
	suite.NotEmpty(err.StackTrace())
	suite.Contains(err.StackTrace(), "TestNew")
}

func (suite *ErrorTestSuite) TestErrorWithMessage() {
	message := "TestMessage"
	err := New(message)

	suite.Equal(message, err.Error())
	suite.Empty(err.Hint())
	suite.Empty(err.Component())
	suite.Nil(err.Details())
}

func (suite *ErrorTestSuite) TestErrorWithFormattedMessage() {
	message := "TestMessage %s"
	err := New(message, "withFormat")
	suite.Equal("TestMessage withFormat", err.Error())
}

func (suite *ErrorTestSuite) TestErrorWithHint() {
	err := New("TestMessage").WithHint("retry with %d", 3)

	suite.Equal("TestMessage", err.Error())
	suite.Equal("retry with 3", err.Hint())
}

func (suite *ErrorTestSuite) TestErrorWithDetails() {
	details := map[string]string{"key1": "value1", "key2": "value2"}
	err := New("TestMessage").WithDetails(details).WithDetail("key3", "value3")

	suite.Equal("TestMessage", err.Error())
	suite.Equal(map[string]string{"key1": "value1", "key2": "value2", "key3": "value3"}, err.Details())
	suite.Len(details, 2, "caller's map must not be mutated")
}

func (suite *ErrorTestSuite) TestWrapNonBacerror() {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(originalErr, "wrapped error")

	suite.Equal("wrapped error: original error", wrappedErr.Error())
	suite.Equal("wrapped error: original error", wrappedErr.ErrorWrapped())
	suite.Equal(originalErr, errors.Unwrap(wrappedErr))
	suite.NotEmpty(wrappedErr.StackTrace())
}

func (suite *ErrorTestSuite) TestWrapBacerror() {
	originalErr := New("original error").WithCode(InvalidArgument)
	wrappedErr := Wrap(originalErr, "wrapped error")

	suite.Equal("original error", wrappedErr.Error())
	suite.Equal("wrapped error: original error", wrappedErr.ErrorWrapped())
	suite.Equal(originalErr, errors.Unwrap(wrappedErr))
	suite.Equal(originalErr.StackTrace(), wrappedErr.StackTrace())
	suite.Equal(InvalidArgument, wrappedErr.Code())
}

func (suite *ErrorTestSuite) TestMultipleWraps() {
	err1 := New("error1")
	err2 := Wrap(err1, "error2")
	err3 := Wrap(err2, "error3")

	suite.Equal("error1", err3.Error())
	suite.Equal("error3: error2: error1", err3.ErrorWrapped())

	unwrapped := errors.Unwrap(err3)
	suite.Require().NotNil(unwrapped)
	if bacErr, ok := unwrapped.(Error); ok {
		suite.Equal("error1", bacErr.Error())
		suite.Equal("error2: error1", bacErr.ErrorWrapped())
	} else {
		suite.Fail("Unwrapped error is not of type Error")
	}

	unwrapped = errors.Unwrap(unwrapped)
	if bacErr, ok := unwrapped.(Error); ok {
		suite.Equal("error1", bacErr.ErrorWrapped())
	} else {
		suite.Fail("Unwrapped error is not of type Error")
	}

	suite.Nil(errors.Unwrap(unwrapped))
}

func (suite *ErrorTestSuite) TestWrapWithFormat() {
	originalErr := errors.New("original error")
	wrappedErr := Wrap(originalErr, "wrapped error: %s", "with format")

	suite.Equal("wrapped error: with format: original error", wrappedErr.Error())
}

func (suite *ErrorTestSuite) TestWrapNil() {
	suite.Nil(Wrap(nil, "nothing to wrap"))
}

func (suite *ErrorTestSuite) TestHasCode() {
	err := New("too many").WithCode(OverCompletion)
	suite.True(HasCode(err, OverCompletion))
	suite.False(HasCode(err, InvalidArgument))

	suite.True(HasCode(fmt.Errorf("outer: %w", err), OverCompletion))
	suite.True(HasCode(Wrap(New("inner").WithCode(TimedOut), "outer").WithCode(TaskFailed), TimedOut))
	suite.False(HasCode(errors.New("plain"), UnknownError))
	suite.False(HasCode(nil, UnknownError))
}
