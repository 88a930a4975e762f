package chat

import (
	"devconnect/errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValidatePair(t *testing.T) {
	developer := NewAddress(Developer, "7")
	entrepreneur := NewAddress(Entrepreneur, "3")

	tests := []struct {
		name     string
		sender   Address
		receiver Address
		wantErr  bool
	}{
		{"valid pair", developer, entrepreneur, false},
		{"same kinds different ids", developer, NewAddress(Developer, "8"), false},
		{"self messaging", developer, developer, true},
		{"unknown kind", NewAddress("admin", "1"), entrepreneur, true},
		{"empty id", NewAddress(Developer, ""), entrepreneur, true},
		{"separator in id", NewAddress(Developer, "7|x"), entrepreneur, true},
		{"slash in id", NewAddress(Developer, "7/x"), entrepreneur, true},
		{"id too long", NewAddress(Developer, strings.Repeat("a", 65)), entrepreneur, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidatePair(tt.sender, tt.receiver)
			if tt.wantErr {
				require.ErrorIs(t, err, errors.ErrValidation)
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateBody(t *testing.T) {
	req := require.New(t)

	req.NoError(ValidateBody("hello", 0))
	req.ErrorIs(ValidateBody("", 0), errors.ErrValidation)
	req.ErrorIs(ValidateBody("   \n", 0), errors.ErrValidation)
	req.ErrorIs(ValidateBody("héllo", 4), errors.ErrValidation)
	req.NoError(ValidateBody("héllo", 5))
}

func TestCreateNotificationCommand_Validate(t *testing.T) {
	req := require.New(t)
	target := NewAddress(Entrepreneur, "3")

	req.NoError(CreateNotificationCommand{Target: target, Kind: "proposal_accepted"}.Validate())
	req.ErrorIs(CreateNotificationCommand{Target: target}.Validate(), errors.ErrValidation)
	req.ErrorIs(CreateNotificationCommand{Target: Address{}, Kind: "x"}.Validate(), errors.ErrValidation)
}

func TestCounterpartiesCommand_Validate(t *testing.T) {
	req := require.New(t)
	receiver := NewAddress(Developer, "7")

	req.NoError(CounterpartiesCommand{Receiver: receiver, Kind: Entrepreneur}.Validate())
	req.ErrorIs(CounterpartiesCommand{Receiver: receiver, Kind: "admin"}.Validate(), errors.ErrValidation)
}
