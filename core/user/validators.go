package user

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/mahudhurio/core"
)

var (
	roleTag  = "role"
	roleText = "invalid role"
)

// Password policy. The API has the final say on passwords; CheckPassword only advises.
var (
	pwdMinLen    = 8
	pwdMaxSim    = .7
	specialRegex = regexp.MustCompile("[^A-Za-z0-9]")

	ErrPasswordTooShort = fmt.Errorf("password should contain at least %d characters", pwdMinLen)
	ErrPasswordSpace    = errors.New("password should not contain whitespace")
	ErrPasswordNumeric  = errors.New("password should not be entirely numeric")
	ErrPasswordSimple   = errors.New("password should contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character")
	ErrPasswordSimilar  = errors.New("password should not be similar to the user's attributes")
)

// InitValidators registers the user validations & their translations.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(roleTag, roleValidation)
	core.RegisterCustomTranslation(validate, translator, roleTag, roleText)
}

// Custom Validators

// roleValidation checks that the field holds one of AllRoles
func roleValidation(fl validator.FieldLevel) bool {
	return Role(fl.Field().String()).Valid()
}

// CheckPassword applies the password policy to nu and returns the first rule broken:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no user attrs similarity
func CheckPassword(nu NewUser) error {
	pwd := nu.Password
	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return ErrPasswordTooShort
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return ErrPasswordSpace
		}
		if unicode.IsDigit(char) {
			digitCount++
		}
		if !hasUpper && unicode.IsUpper(char) {
			hasUpper = true
		}
		if !hasLower && unicode.IsLower(char) {
			hasLower = true
		}
	}

	if digitCount == pwdLen {
		return ErrPasswordNumeric
	}

	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return ErrPasswordSimple
	}

	getRatio := func(pass, usrAttr string) float64 {
		if usrAttr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(strings.ToLower(pass), ""), strings.Split(strings.ToLower(usrAttr), "")).QuickRatio()
	}
	if getRatio(pwd, nu.FullName) >= pwdMaxSim ||
		getRatio(pwd, nu.Username) >= pwdMaxSim ||
		getRatio(pwd, nu.Email) >= pwdMaxSim {
		return ErrPasswordSimilar
	}
	return nil
}
