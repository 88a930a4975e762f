package chat

import (
	"devconnect/errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// ValidateAddress checks the kind tag and the id charset of a single address.
func ValidateAddress(a Address) error {
	if err := validate.Struct(a); err != nil {
		return fmt.Errorf("%w: address %q: %s", errors.ErrValidation, a.String(), err.Error())
	}
	return nil
}

// ValidatePair rejects malformed addresses and self messaging.
func ValidatePair(sender, receiver Address) error {
	if err := ValidateAddress(sender); err != nil {
		return err
	}
	if err := ValidateAddress(receiver); err != nil {
		return err
	}
	if sender == receiver {
		return fmt.Errorf("%w: sender and receiver are both %s", errors.ErrValidation, sender)
	}
	return nil
}

// ValidateBody rejects blank bodies and, when maxLength > 0, bodies longer
// than maxLength runes.
func ValidateBody(body string, maxLength int) error {
	if strings.TrimSpace(body) == "" {
		return fmt.Errorf("%w: message body is empty", errors.ErrValidation)
	}
	if maxLength > 0 && utf8.RuneCountInString(body) > maxLength {
		return fmt.Errorf("%w: message body exceeds %d characters", errors.ErrValidation, maxLength)
	}
	return nil
}

func (c PostMessageCommand) Validate(maxLength int) error {
	if err := ValidatePair(c.Sender, c.Receiver); err != nil {
		return err
	}
	return ValidateBody(c.Body, maxLength)
}

func (c GetHistoryCommand) Validate() error {
	if err := ValidatePair(c.First, c.Second); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrValidation, err.Error())
	}
	return nil
}

func (c CounterpartiesCommand) Validate() error {
	if err := ValidateAddress(c.Receiver); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrValidation, err.Error())
	}
	return nil
}

func (c CreateNotificationCommand) Validate() error {
	if err := ValidateAddress(c.Target); err != nil {
		return err
	}
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("%w: %s", errors.ErrValidation, err.Error())
	}
	return nil
}
