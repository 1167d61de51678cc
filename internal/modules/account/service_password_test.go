package account

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func resettableAccount(t *testing.T) *Account {
	a := approvedAccount(t)
	a.ResetCode = ptr("654321")
	a.ResetExpires = ptr(fixedNow.Add(30 * time.Minute))
	return a
}

func TestRequestPasswordReset(t *testing.T) {
	ctx := context.Background()

	t.Run("stores and emails a code", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, "ada@example.com").Return(approvedAccount(t), nil).Once()
		env.repo.On("SetResetCode", mock.Anything, int64(7), "123456", fixedNow.Add(time.Hour)).Return(nil).Once()

		require.NoError(t, env.svc.RequestPasswordReset(ctx, "Ada@Example.com"))
		msg := env.notifier.last()
		assert.Equal(t, "Password Reset Code", msg.Subject)
		assert.Contains(t, msg.TextBody, "123456")
		assert.Contains(t, msg.TextBody, "1 hour")
	})

	t.Run("unknown email looks like success", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, "ghost@example.com").Return(nil, ErrNotFound).Once()

		require.NoError(t, env.svc.RequestPasswordReset(ctx, "ghost@example.com"))
		env.repo.AssertNotCalled(t, "SetResetCode", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Zero(t, env.notifier.count())
	})

	t.Run("delivery failure is swallowed", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifier.err = errSMTPDown
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(approvedAccount(t), nil).Once()
		env.repo.On("SetResetCode", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(nil).Once()

		assert.NoError(t, env.svc.RequestPasswordReset(ctx, "ada@example.com"))
	})

	t.Run("storage failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(approvedAccount(t), nil).Once()
		env.repo.On("SetResetCode", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(errors.New("timeout")).Once()

		assert.ErrorIs(t, env.svc.RequestPasswordReset(ctx, "ada@example.com"), ErrInternal)
	})
}

func TestConfirmReset(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		account func(*Account)
		code    string
		want    error
	}{
		{name: "valid code", code: "654321"},
		{name: "surrounding spaces are ignored", code: " 654321 "},
		{name: "wrong code", code: "111111", want: ErrInvalidResetCode},
		{name: "empty code", code: "", want: ErrInvalidResetCode},
		{
			name:    "expired code",
			account: func(a *Account) { a.ResetExpires = ptr(fixedNow.Add(-time.Second)) },
			code:    "654321",
			want:    ErrInvalidResetCode,
		},
		{
			name:    "no code issued",
			account: func(a *Account) { a.ResetCode, a.ResetExpires = nil, nil },
			code:    "654321",
			want:    ErrInvalidResetCode,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			a := resettableAccount(t)
			if tt.account != nil {
				tt.account(a)
			}
			env.repo.On("FindApprovedByEmail", mock.Anything, "ada@example.com").Return(a, nil).Once()

			err := env.svc.ConfirmReset(ctx, "ada@example.com", tt.code)
			if tt.want == nil {
				assert.NoError(t, err)
				return
			}
			assert.ErrorIs(t, err, tt.want)
		})
	}

	t.Run("unknown email", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(nil, ErrNotFound).Once()

		assert.ErrorIs(t, env.svc.ConfirmReset(ctx, "ghost@example.com", "654321"), ErrInvalidResetCode)
	})
}

func TestResetPassword(t *testing.T) {
	ctx := context.Background()
	const newPassword = "n3w-passw0rd"

	t.Run("replaces the password", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, "ada@example.com").Return(resettableAccount(t), nil).Once()
		env.repo.On("UpdatePassword", mock.Anything, int64(7), mock.MatchedBy(func(hash string) bool {
			return checkPasswordHash(newPassword, hash)
		})).Return(nil).Once()

		require.NoError(t, env.svc.ResetPassword(ctx, "ada@example.com", "654321", newPassword, newPassword))
	})

	t.Run("mismatch is checked first", func(t *testing.T) {
		env := newTestEnv(t)

		err := env.svc.ResetPassword(ctx, "ada@example.com", "654321", newPassword, "other")
		assert.ErrorIs(t, err, ErrPasswordMismatch)
	})

	t.Run("wrong code leaves the password alone", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(resettableAccount(t), nil).Once()

		err := env.svc.ResetPassword(ctx, "ada@example.com", "000000", newPassword, newPassword)
		assert.ErrorIs(t, err, ErrInvalidResetCode)
		env.repo.AssertNotCalled(t, "UpdatePassword", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("storage failure", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(resettableAccount(t), nil).Once()
		env.repo.On("UpdatePassword", mock.Anything, int64(7), mock.Anything).Return(errors.New("timeout")).Once()

		err := env.svc.ResetPassword(ctx, "ada@example.com", "654321", newPassword, newPassword)
		assert.ErrorIs(t, err, ErrInternal)
	})
}

func TestResendActivation(t *testing.T) {
	ctx := context.Background()

	t.Run("replaces the code and emails it", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, "ada@example.com").Return(approvedAccount(t), nil).Once()
		env.repo.On("SetActivationCode", mock.Anything, int64(7), "123456", fixedNow.Add(48*time.Hour)).Return(nil).Once()

		require.NoError(t, env.svc.ResendActivation(ctx, "ADA@example.com"))
		assert.Equal(t, []string{"ada@example.com"}, env.limiter.keys)
		msg := env.notifier.last()
		assert.Equal(t, "New Activation Code", msg.Subject)
		assert.Contains(t, msg.TextBody, "123456")
	})

	t.Run("unknown or unapproved email", func(t *testing.T) {
		env := newTestEnv(t)
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(nil, ErrNotFound).Once()

		err := env.svc.ResendActivation(ctx, "ghost@example.com")
		require.ErrorIs(t, err, ErrNotFound)
		var derr *DomainError
		require.ErrorAs(t, err, &derr)
		assert.Equal(t, "Email not found or account not approved", derr.Message)
	})

	t.Run("inside the cooldown window", func(t *testing.T) {
		env := newTestEnv(t)
		env.limiter.allow = false
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(approvedAccount(t), nil).Once()

		assert.ErrorIs(t, env.svc.ResendActivation(ctx, "ada@example.com"), ErrResendTooSoon)
		assert.Zero(t, env.notifier.count())
	})

	t.Run("cooldown store failure does not block the resend", func(t *testing.T) {
		env := newTestEnv(t)
		env.limiter.err = errors.New("redis down")
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(approvedAccount(t), nil).Once()
		env.repo.On("SetActivationCode", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(nil).Once()

		assert.NoError(t, env.svc.ResendActivation(ctx, "ada@example.com"))
	})

	t.Run("delivery failure is reported", func(t *testing.T) {
		env := newTestEnv(t)
		env.notifier.err = errSMTPDown
		env.repo.On("FindApprovedByEmail", mock.Anything, mock.Anything).Return(approvedAccount(t), nil).Once()
		env.repo.On("SetActivationCode", mock.Anything, int64(7), mock.Anything, mock.Anything).Return(nil).Once()

		assert.ErrorIs(t, env.svc.ResendActivation(ctx, "ada@example.com"), ErrInternal)
	})
}
