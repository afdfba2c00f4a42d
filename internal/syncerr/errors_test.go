package syncerr

import (
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestClassify_Sentinels(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want Class
	}{
		{"nil", nil, ClassUnknown},
		{"not found", ErrNotFound, ClassNotFound},
		{"wrapped not found", fmt.Errorf("select profile: %w", ErrNotFound), ClassNotFound},
		{"conflict", fmt.Errorf("insert: %w", ErrConflict), ClassConflict},
		{"policy denied", ErrPolicyDenied, ClassPolicyDenied},
		{"identity revoked", fmt.Errorf("push: %w", ErrIdentityRevoked), ClassIdentityRevoked},
		{"transient", fmt.Errorf("dial: %w", ErrTransient), ClassTransient},
		{"validation", ErrValidation, ClassValidation},
		{"deadline", context.DeadlineExceeded, ClassTransient},
		{"plain error", errors.New("boom"), ClassUnknown},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, Classify(tc.err))
		})
	}
}

func TestClassify_NetErrorIsTransient(t *testing.T) {
	opErr := &net.OpError{Op: "dial", Net: "tcp", Err: os.ErrDeadlineExceeded}
	assert.Equal(t, ClassTransient, Classify(opErr))
	assert.Equal(t, ClassTransient, Classify(fmt.Errorf("remote: %w", opErr)))
}

func TestRetryable(t *testing.T) {
	assert.True(t, Retryable(ErrTransient))
	assert.True(t, Retryable(context.DeadlineExceeded))
	assert.False(t, Retryable(ErrConflict))
	assert.False(t, Retryable(ErrIdentityRevoked))
	assert.False(t, Retryable(errors.New("boom")))
}
