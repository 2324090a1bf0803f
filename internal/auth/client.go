// Package auth owns the session lifecycle: Cognito email/password
// sign-in and registration, the encrypted session cookie, and role
// resolution against the profile collection.
package auth

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ctypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/sirupsen/logrus"
)

const minPasswordLength = 6

type CognitoAPI interface {
	InitiateAuth(ctx context.Context, params *cognitoidentityprovider.InitiateAuthInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.InitiateAuthOutput, error)
	SignUp(ctx context.Context, params *cognitoidentityprovider.SignUpInput, optFns ...func(*cognitoidentityprovider.Options)) (*cognitoidentityprovider.SignUpOutput, error)
}

type Client struct {
	logger   *logrus.Logger
	cognito  CognitoAPI
	clientID string
	resolver *Resolver
}

func NewClient(logger *logrus.Logger, cognito CognitoAPI, clientID string, resolver *Resolver) *Client {
	return &Client{
		logger:   logger,
		cognito:  cognito,
		clientID: clientID,
		resolver: resolver,
	}
}

// Session is the outcome of a successful sign-in.
type Session struct {
	AccessToken  string
	ExpiresInSec int32
}

// AuthError carries the curated user-facing message for a failed auth
// call. The raw cause stays wrapped for diagnostics.
type AuthError struct {
	Message string
	Err     error
}

func (e *AuthError) Error() string {
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Login signs the user in with email and password. Failures come back
// as *AuthError with a message safe to show in the UI.
func (c *Client) Login(ctx context.Context, email, password string) (*Session, error) {

	input := &cognitoidentityprovider.InitiateAuthInput{
		AuthFlow: ctypes.AuthFlowTypeUserPasswordAuth,
		ClientId: aws.String(c.clientID),
		AuthParameters: map[string]string{
			"USERNAME": email,
			"PASSWORD": password,
		},
	}

	resp, err := c.cognito.InitiateAuth(ctx, input)
	if err != nil {
		c.logger.WithError(err).WithField("email", email).Info("sign-in rejected")
		return nil, &AuthError{Message: mapSignInError(err), Err: err}
	}

	if resp.AuthenticationResult == nil || resp.AuthenticationResult.AccessToken == nil {
		return nil, &AuthError{Message: "Unable to sign in right now. Please try again.", Err: errors.New("empty authentication result")}
	}

	return &Session{
		AccessToken:  aws.ToString(resp.AuthenticationResult.AccessToken),
		ExpiresInSec: resp.AuthenticationResult.ExpiresIn,
	}, nil
}

// Register creates the Cognito account and provisions the profile row
// with the deployment's default role.
func (c *Client) Register(ctx context.Context, name, email, password string) error {

	input := &cognitoidentityprovider.SignUpInput{
		ClientId: aws.String(c.clientID),
		Username: aws.String(email), // use email as username
		Password: aws.String(password),
		UserAttributes: []ctypes.AttributeType{
			{Name: aws.String("email"), Value: aws.String(email)},
			{Name: aws.String("name"), Value: aws.String(name)},
		},
	}

	resp, err := c.cognito.SignUp(ctx, input)
	if err != nil {
		c.logger.WithError(err).WithField("email", email).Info("sign-up rejected")
		return &AuthError{Message: mapSignUpError(err), Err: err}
	}

	uid := aws.ToString(resp.UserSub)
	if err := c.resolver.Provision(ctx, uid, name); err != nil {
		// The account exists; the profile will be auto-provisioned on
		// first login instead.
		c.logger.WithError(err).WithField("uid", uid).Warn("failed to provision profile at registration")
	}

	return nil
}

func mapSignInError(err error) string {

	var userNotFound *ctypes.UserNotFoundException
	if errors.As(err, &userNotFound) {
		return "No account found with this email."
	}

	var notAuthorized *ctypes.NotAuthorizedException
	if errors.As(err, &notAuthorized) {
		return "Incorrect email or password."
	}

	var notConfirmed *ctypes.UserNotConfirmedException
	if errors.As(err, &notConfirmed) {
		return "Confirm your account before signing in."
	}

	var tooMany *ctypes.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return "Too many attempts. Try again later."
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return "Enter a valid email address."
	}

	return "Unable to sign in right now. Please try again."
}

func mapSignUpError(err error) string {

	var userExists *ctypes.UsernameExistsException
	if errors.As(err, &userExists) {
		return "An account with this email already exists."
	}

	var invalidPw *ctypes.InvalidPasswordException
	if errors.As(err, &invalidPw) {
		return fmt.Sprintf("Password must be at least %d characters.", minPasswordLength)
	}

	var tooMany *ctypes.TooManyRequestsException
	if errors.As(err, &tooMany) {
		return "Too many attempts. Try again later."
	}

	var invalidParam *ctypes.InvalidParameterException
	if errors.As(err, &invalidParam) {
		return "Some details are invalid. Please review and try again."
	}

	return "Unable to create account right now. Please try again."
}

// ValidateRegisterInput checks the registration form before any
// backend call. Returned map keys are form field names.
func ValidateRegisterInput(name, email, password, confirmPassword string) map[string]string {
	errs := map[string]string{}

	if strings.TrimSpace(name) == "" {
		errs["name"] = "Name is required."
	}

	email = strings.TrimSpace(email)
	if email == "" {
		errs["email"] = "Email is required."
	} else if _, err := mail.ParseAddress(email); err != nil {
		errs["email"] = "Enter a valid email address."
	}

	if len(password) < minPasswordLength {
		errs["password"] = fmt.Sprintf("Password must be at least %d characters.", minPasswordLength)
	}

	if password != confirmPassword {
		errs["confirm_password"] = "Passwords do not match."
	}

	return errs
}
