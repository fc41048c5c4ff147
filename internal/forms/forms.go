// Package forms holds the field rules for every user-entered payload. The
// CLI checks input with them before calling the core, and the development
// backend applies the same rules server-side.
package forms

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"sync"
	"unicode"

	"github.com/go-playground/validator/v10"

	"github.com/storerate/rating-client/internal/core/domain"
)

const passwordSpecials = `!@#$%^&*(),.?":{}|<>`

type Signup struct {
	Name     string `json:"name"     validate:"min=20,max=60"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"password"`
	Address  string `json:"address"  validate:"required,max=400"`
}

func (s Signup) Profile() domain.SignupProfile {
	return domain.SignupProfile{Name: s.Name, Email: s.Email, Password: s.Password, Address: s.Address}
}

type NewUser struct {
	Name     string `json:"name"     validate:"min=20,max=60"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"password"`
	Address  string `json:"address"  validate:"required,max=400"`
	Role     string `json:"role"     validate:"required,oneof=admin user owner"`
}

func (u NewUser) Profile() domain.NewUserProfile {
	return domain.NewUserProfile{
		Name: u.Name, Email: u.Email, Password: u.Password, Address: u.Address, Role: domain.Role(u.Role),
	}
}

type NewStore struct {
	Name    string `json:"name"    validate:"min=20,max=60"`
	Email   string `json:"email"   validate:"required,email"`
	Address string `json:"address" validate:"required,max=400"`
	OwnerID *int64 `json:"ownerId" validate:"omitempty,gt=0"`
}

func (s NewStore) Profile() domain.NewStoreProfile {
	return domain.NewStoreProfile{Name: s.Name, Email: s.Email, Address: s.Address, OwnerID: s.OwnerID}
}

type Rating struct {
	StoreID int64 `json:"storeId" validate:"gt=0"`
	Rating  int   `json:"rating"  validate:"min=1,max=5"`
}

type PasswordChange struct {
	OldPassword     string `json:"oldPassword" validate:"required"`
	NewPassword     string `json:"newPassword" validate:"password"`
	ConfirmPassword string `json:"-"           validate:"eqfield=NewPassword"`
}

type Login struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// Errors maps a JSON field name to its first failing rule's message.
type Errors map[string]string

func (e Errors) Error() string {
	fields := make([]string, 0, len(e))
	for f := range e {
		fields = append(fields, f)
	}
	sort.Strings(fields)

	msgs := make([]string, 0, len(fields))
	for _, f := range fields {
		msgs = append(msgs, e[f])
	}
	return strings.Join(msgs, "; ")
}

var (
	once     sync.Once
	validate *validator.Validate
)

// Validator returns the shared validator with the custom rules registered.
func Validator() *validator.Validate {
	once.Do(func() {
		v := validator.New()
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("json"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		if err := v.RegisterValidation("password", func(fl validator.FieldLevel) bool {
			return PasswordProblem(fl.Field().String()) == ""
		}); err != nil {
			panic(err)
		}
		validate = v
	})
	return validate
}

// Check validates a form struct. It returns Errors or nil.
func Check(form any) error {
	err := Validator().Struct(form)
	if err == nil {
		return nil
	}
	ve, ok := err.(validator.ValidationErrors)
	if !ok {
		return err
	}
	out := make(Errors, len(ve))
	for _, fe := range ve {
		if _, seen := out[fe.Field()]; !seen {
			out[fe.Field()] = Message(fe)
		}
	}
	return out
}

// PasswordProblem describes the first password rule s breaks, or "".
func PasswordProblem(s string) string {
	n := len([]rune(s))
	switch {
	case n < 8 || n > 16:
		return "Password must be between 8 and 16 characters"
	case !strings.ContainsFunc(s, unicode.IsUpper):
		return "Password must contain at least one uppercase letter"
	case !strings.ContainsAny(s, passwordSpecials):
		return "Password must contain at least one special character"
	default:
		return ""
	}
}

// Message renders a field error the way the forms display it.
func Message(fe validator.FieldError) string {
	switch fe.Tag() {
	case "password":
		return PasswordProblem(fe.Value().(string))
	case "eqfield":
		return "New passwords do not match"
	}

	switch fe.Field() {
	case "name":
		return "Name must be between 20 and 60 characters"
	case "email":
		return "Please provide a valid email address"
	case "address":
		return "Address is required and must not exceed 400 characters"
	case "role":
		return "Role must be one of: admin, user, owner"
	case "rating":
		return "Rating must be a number between 1 and 5"
	case "storeId":
		return "Store is required"
	case "ownerId":
		return "Owner must be a valid user id"
	}

	field := strings.ToLower(fe.Field())
	switch fe.Tag() {
	case "required":
		return field + " is required"
	default:
		return fmt.Sprintf("%s failed validation (%s)", field, fe.Tag())
	}
}
