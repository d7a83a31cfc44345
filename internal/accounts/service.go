package accounts

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"fmt"

	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/imrishuroy/route-orders-api/internal/aws"
)

// Service registers and authenticates users against a Cognito user pool.
type Service struct {
	client       aws.CognitoAPI
	clientID     string
	clientSecret string
}

// NewService binds the service to an app client. clientSecret is empty for
// public app clients.
func NewService(client aws.CognitoAPI, clientID, clientSecret string) *Service {
	return &Service{
		client:       client,
		clientID:     clientID,
		clientSecret: clientSecret,
	}
}

// SignUpResult reports the new user and whether confirmation is pending.
type SignUpResult struct {
	UserSub       string
	UserConfirmed bool
}

// Tokens is the token bundle returned by a successful login.
type Tokens struct {
	AccessToken  string `json:"AccessToken"`
	IdToken      string `json:"IdToken"`
	RefreshToken string `json:"RefreshToken,omitempty"`
	ExpiresIn    int32  `json:"ExpiresIn"`
	TokenType    string `json:"TokenType"`
}

// ConfirmResult is the provider's confirm-sign-up response as it goes back to
// the caller.
type ConfirmResult struct {
	Session          string `json:"Session,omitempty"`
	ResponseMetadata struct {
		RequestID string `json:"RequestId,omitempty"`
	} `json:"ResponseMetadata"`
}

// SignUp creates a user with email as username.
func (s *Service) SignUp(ctx context.Context, email, password, name string) (*SignUpResult, error) {
	input := &cip.SignUpInput{
		ClientId: &s.clientID,
		Username: &email,
		Password: &password,
		UserAttributes: []ciptypes.AttributeType{
			{Name: strPtr("email"), Value: strPtr(email)},
			{Name: strPtr("name"), Value: strPtr(name)},
		},
		SecretHash: s.secretHash(email),
	}
	out, err := s.client.SignUp(ctx, input)
	if err != nil {
		return nil, classify("sign up", err)
	}
	res := &SignUpResult{UserConfirmed: out.UserConfirmed}
	if out.UserSub != nil {
		res.UserSub = *out.UserSub
	}
	return res, nil
}

// Login runs USER_PASSWORD_AUTH and returns the issued tokens.
func (s *Service) Login(ctx context.Context, email, password string) (*Tokens, error) {
	params := map[string]string{
		"USERNAME": email,
		"PASSWORD": password,
	}
	if h := s.secretHash(email); h != nil {
		params["SECRET_HASH"] = *h
	}
	out, err := s.client.InitiateAuth(ctx, &cip.InitiateAuthInput{
		ClientId:       &s.clientID,
		AuthFlow:       ciptypes.AuthFlowTypeUserPasswordAuth,
		AuthParameters: params,
	})
	if err != nil {
		return nil, classify("login", err)
	}
	if out.AuthenticationResult == nil {
		return nil, fmt.Errorf("%w: %s", ErrChallengeRequired, out.ChallengeName)
	}
	r := out.AuthenticationResult
	return &Tokens{
		AccessToken:  deref(r.AccessToken),
		IdToken:      deref(r.IdToken),
		RefreshToken: deref(r.RefreshToken),
		ExpiresIn:    r.ExpiresIn,
		TokenType:    deref(r.TokenType),
	}, nil
}

// Confirm submits the emailed confirmation code. The returned session, when
// present, can continue an auth flow.
func (s *Service) Confirm(ctx context.Context, email, code string) (*ConfirmResult, error) {
	out, err := s.client.ConfirmSignUp(ctx, &cip.ConfirmSignUpInput{
		ClientId:         &s.clientID,
		Username:         &email,
		ConfirmationCode: &code,
		SecretHash:       s.secretHash(email),
	})
	if err != nil {
		return nil, classify("confirm sign up", err)
	}
	res := &ConfirmResult{Session: deref(out.Session)}
	res.ResponseMetadata.RequestID, _ = awsmiddleware.GetRequestIDMetadata(out.ResultMetadata)
	return res, nil
}

// secretHash is Base64(HMAC_SHA256(secret, username + clientID)), required
// by app clients that have a secret.
func (s *Service) secretHash(username string) *string {
	if s.clientSecret == "" {
		return nil
	}
	mac := hmac.New(sha256.New, []byte(s.clientSecret))
	mac.Write([]byte(username + s.clientID))
	h := base64.StdEncoding.EncodeToString(mac.Sum(nil))
	return &h
}

func classify(op string, err error) error {
	var (
		exists      *ciptypes.UsernameExistsException
		badPassword *ciptypes.InvalidPasswordException
		badParam    *ciptypes.InvalidParameterException
		notAuth     *ciptypes.NotAuthorizedException
		notFound    *ciptypes.UserNotFoundException
		unconfirmed *ciptypes.UserNotConfirmedException
		mismatch    *ciptypes.CodeMismatchException
		expired     *ciptypes.ExpiredCodeException
	)
	switch {
	case errors.As(err, &exists):
		return fmt.Errorf("%s: %w", op, ErrUserExists)
	case errors.As(err, &badPassword):
		return &PasswordError{Reason: badPassword.ErrorMessage()}
	case errors.As(err, &badParam):
		return fmt.Errorf("%s: %w: %s", op, ErrInvalidParameter, badParam.ErrorMessage())
	case errors.As(err, &notAuth):
		return fmt.Errorf("%s: %w", op, ErrNotAuthorized)
	case errors.As(err, &notFound):
		return fmt.Errorf("%s: %w", op, ErrUserNotFound)
	case errors.As(err, &unconfirmed):
		return fmt.Errorf("%s: %w", op, ErrUserNotConfirmed)
	case errors.As(err, &mismatch), errors.As(err, &expired):
		return fmt.Errorf("%s: %w", op, ErrInvalidCode)
	default:
		return fmt.Errorf("%s: %w", op, err)
	}
}

func strPtr(s string) *string { return &s }

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
