package main

import (
	"context"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

var (
	errInvalidCredentials = errors.New("invalid username or password")
	errUsernameTaken      = errors.New("username already exists")
)

// validationError is a rejected registration. Its message is safe to show to
// the user.
type validationError struct {
	msg string
}

func (e *validationError) Error() string { return e.msg }

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	registerValidations(v)
	return v
}

// registerValidations adds the custom tags used by request and registration
// structs to v.
func registerValidations(v *validator.Validate) {
	if err := v.RegisterValidation("nonul", noNUL); err != nil {
		panic(err)
	}
}

// noNUL rejects U+0000, which Postgres text and jsonb values cannot hold.
func noNUL(fl validator.FieldLevel) bool {
	return !strings.ContainsRune(fl.Field().String(), 0)
}

// registration is the input to Register.
type registration struct {
	Username        string `json:"username" validate:"min=3,nonul"`
	Password        string `json:"password" validate:"min=4,nonul"`
	ConfirmPassword string `json:"confirmPassword" validate:"eqfield=Password"`
}

// registrationMessages maps validator failures to user-facing text.
var registrationMessages = map[string]string{
	"Username.min":            "username must be at least 3 characters",
	"Password.min":            "password must be at least 4 characters",
	"Username.nonul":          "username must not contain NUL characters",
	"Password.nonul":          "password must not contain NUL characters",
	"ConfirmPassword.eqfield": "passwords do not match",
}

func validateRegistration(reg registration) error {
	err := validate.Struct(reg)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return err
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		if m, ok := registrationMessages[fe.StructField()+"."+fe.Tag()]; ok {
			msgs = append(msgs, m)
		} else {
			msgs = append(msgs, fmt.Sprintf("%s is invalid", strings.ToLower(fe.Field())))
		}
	}
	return &validationError{msg: strings.Join(msgs, "; ")}
}

// Register adds a credential. Nothing is written when validation fails or the
// username exists. Passwords are stored as given.
func (r *Repository) Register(ctx context.Context, reg registration) error {
	reg.Username = strings.TrimSpace(reg.Username)
	if err := validateRegistration(reg); err != nil {
		return err
	}

	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	if _, exists := doc.Users[reg.Username]; exists {
		return errUsernameTaken
	}
	doc.Users[reg.Username] = reg.Password
	if _, err := r.store.Save(ctx, doc); err != nil {
		return fmt.Errorf("save registration for %q: %w", reg.Username, err)
	}
	r.logger.Info("registered user", zap.String("user", reg.Username))
	return nil
}

// Authenticate checks password against the stored credential for username.
// Stored values are either plaintext or, for users created by
// cmd/create-user, bcrypt hashes.
func (r *Repository) Authenticate(ctx context.Context, username, password string) error {
	doc, _, err := r.store.Load(ctx)
	if err != nil {
		return err
	}
	stored, ok := doc.Users[username]
	if !ok || !credentialMatches(stored, password) {
		return errInvalidCredentials
	}
	return nil
}

func credentialMatches(stored, password string) bool {
	if isBcryptHash(stored) {
		return bcrypt.CompareHashAndPassword([]byte(stored), []byte(password)) == nil
	}
	return subtle.ConstantTimeCompare([]byte(stored), []byte(password)) == 1
}

func isBcryptHash(s string) bool {
	if _, err := bcrypt.Cost([]byte(s)); err != nil {
		return false
	}
	return strings.HasPrefix(s, "$2")
}
