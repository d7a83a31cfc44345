package accounts

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"errors"
	"testing"

	awsmiddleware "github.com/aws/aws-sdk-go-v2/aws/middleware"
	cip "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider"
	ciptypes "github.com/aws/aws-sdk-go-v2/service/cognitoidentityprovider/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCognito struct {
	signUpIn  *cip.SignUpInput
	authIn    *cip.InitiateAuthInput
	confirmIn *cip.ConfirmSignUpInput

	signUpOut  *cip.SignUpOutput
	authOut    *cip.InitiateAuthOutput
	confirmOut *cip.ConfirmSignUpOutput
	err        error
}

func (f *fakeCognito) SignUp(_ context.Context, in *cip.SignUpInput, _ ...func(*cip.Options)) (*cip.SignUpOutput, error) {
	f.signUpIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.signUpOut, nil
}

func (f *fakeCognito) InitiateAuth(_ context.Context, in *cip.InitiateAuthInput, _ ...func(*cip.Options)) (*cip.InitiateAuthOutput, error) {
	f.authIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.authOut, nil
}

func (f *fakeCognito) ConfirmSignUp(_ context.Context, in *cip.ConfirmSignUpInput, _ ...func(*cip.Options)) (*cip.ConfirmSignUpOutput, error) {
	f.confirmIn = in
	if f.err != nil {
		return nil, f.err
	}
	return f.confirmOut, nil
}

func TestSignUp(t *testing.T) {
	fake := &fakeCognito{signUpOut: &cip.SignUpOutput{UserSub: strPtr("sub-1"), UserConfirmed: false}}
	svc := NewService(fake, "client-1", "")

	res, err := svc.SignUp(context.Background(), "a@example.com", "Secret123!", "Ann")
	require.NoError(t, err)
	assert.Equal(t, "sub-1", res.UserSub)
	assert.False(t, res.UserConfirmed)

	assert.Equal(t, "client-1", *fake.signUpIn.ClientId)
	assert.Equal(t, "a@example.com", *fake.signUpIn.Username)
	assert.Nil(t, fake.signUpIn.SecretHash)
	require.Len(t, fake.signUpIn.UserAttributes, 2)
	assert.Equal(t, "email", *fake.signUpIn.UserAttributes[0].Name)
	assert.Equal(t, "Ann", *fake.signUpIn.UserAttributes[1].Value)
}

func TestSecretHash(t *testing.T) {
	fake := &fakeCognito{
		signUpOut: &cip.SignUpOutput{UserSub: strPtr("sub-1")},
		authOut: &cip.InitiateAuthOutput{AuthenticationResult: &ciptypes.AuthenticationResultType{
			AccessToken: strPtr("a"), IdToken: strPtr("i"),
		}},
	}
	svc := NewService(fake, "client-1", "s3cr3t")

	mac := hmac.New(sha256.New, []byte("s3cr3t"))
	mac.Write([]byte("a@example.com" + "client-1"))
	want := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	_, err := svc.SignUp(context.Background(), "a@example.com", "pw", "")
	require.NoError(t, err)
	require.NotNil(t, fake.signUpIn.SecretHash)
	assert.Equal(t, want, *fake.signUpIn.SecretHash)

	_, err = svc.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, want, fake.authIn.AuthParameters["SECRET_HASH"])
}

func TestLogin(t *testing.T) {
	fake := &fakeCognito{authOut: &cip.InitiateAuthOutput{AuthenticationResult: &ciptypes.AuthenticationResultType{
		AccessToken:  strPtr("access"),
		IdToken:      strPtr("id"),
		RefreshToken: strPtr("refresh"),
		ExpiresIn:    3600,
		TokenType:    strPtr("Bearer"),
	}}}
	svc := NewService(fake, "client-1", "")

	tok, err := svc.Login(context.Background(), "a@example.com", "pw")
	require.NoError(t, err)
	assert.Equal(t, &Tokens{AccessToken: "access", IdToken: "id", RefreshToken: "refresh", ExpiresIn: 3600, TokenType: "Bearer"}, tok)
	assert.Equal(t, ciptypes.AuthFlowTypeUserPasswordAuth, fake.authIn.AuthFlow)
	assert.Equal(t, "a@example.com", fake.authIn.AuthParameters["USERNAME"])
	_, hasHash := fake.authIn.AuthParameters["SECRET_HASH"]
	assert.False(t, hasHash)
}

func TestLogin_Challenge(t *testing.T) {
	fake := &fakeCognito{authOut: &cip.InitiateAuthOutput{ChallengeName: ciptypes.ChallengeNameTypeNewPasswordRequired}}
	_, err := NewService(fake, "c", "").Login(context.Background(), "a@example.com", "pw")
	assert.ErrorIs(t, err, ErrChallengeRequired)
}

func TestConfirm(t *testing.T) {
	out := &cip.ConfirmSignUpOutput{Session: strPtr("sess")}
	awsmiddleware.SetRequestIDMetadata(&out.ResultMetadata, "req-1")
	fake := &fakeCognito{confirmOut: out}

	res, err := NewService(fake, "c", "").Confirm(context.Background(), "a@example.com", "123456")
	require.NoError(t, err)
	assert.Equal(t, "sess", res.Session)
	assert.Equal(t, "req-1", res.ResponseMetadata.RequestID)
	assert.Equal(t, "123456", *fake.confirmIn.ConfirmationCode)
}

func TestErrorClassification(t *testing.T) {
	cases := []struct {
		name string
		err  error
		want error
	}{
		{"exists", &ciptypes.UsernameExistsException{Message: strPtr("exists")}, ErrUserExists},
		{"not authorized", &ciptypes.NotAuthorizedException{Message: strPtr("no")}, ErrNotAuthorized},
		{"not found", &ciptypes.UserNotFoundException{Message: strPtr("no")}, ErrUserNotFound},
		{"unconfirmed", &ciptypes.UserNotConfirmedException{Message: strPtr("no")}, ErrUserNotConfirmed},
		{"code mismatch", &ciptypes.CodeMismatchException{Message: strPtr("no")}, ErrInvalidCode},
		{"code expired", &ciptypes.ExpiredCodeException{Message: strPtr("no")}, ErrInvalidCode},
		{"bad param", &ciptypes.InvalidParameterException{Message: strPtr("bad email")}, ErrInvalidParameter},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewService(&fakeCognito{err: tc.err}, "c", "")
			_, err := svc.SignUp(context.Background(), "a@example.com", "pw", "")
			assert.ErrorIs(t, err, tc.want)
			_, err = svc.Login(context.Background(), "a@example.com", "pw")
			assert.ErrorIs(t, err, tc.want)
			_, err = svc.Confirm(context.Background(), "a@example.com", "1")
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestErrorClassification_Password(t *testing.T) {
	svc := NewService(&fakeCognito{err: &ciptypes.InvalidPasswordException{
		Message: strPtr("Password did not conform with policy: Password not long enough"),
	}}, "c", "")

	_, err := svc.SignUp(context.Background(), "a@example.com", "pw", "")
	var pe *PasswordError
	require.True(t, errors.As(err, &pe))
	assert.Equal(t, "Invalid password. Password not long enough", pe.Error())
}

func TestErrorClassification_Unknown(t *testing.T) {
	boom := errors.New("boom")
	_, err := NewService(&fakeCognito{err: boom}, "c", "").SignUp(context.Background(), "a", "b", "")
	assert.ErrorIs(t, err, boom)
}
