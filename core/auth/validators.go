package auth

import (
	"fmt"
	"regexp"
	"strings"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/schoolhub/core"
)

var (
	otpLen   = 4
	otpTag   = "otp"
	otpText  = fmt.Sprintf("please enter a valid %d-digit OTP", otpLen)
	otpRegex = regexp.MustCompile(fmt.Sprintf(`^[0-9]{%d}$`, otpLen))

	// password policy
	pwdMinLen     = 6
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must be at least %d characters", pwdMinLen)

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to your name or email"
)

// InitValidators registers the validators of this package.
func InitValidators(validate *validator.Validate, translator ut.Translator) {
	_ = validate.RegisterValidation(otpTag, otpValidation)
	core.RegisterCustomTranslation(validate, translator, otpTag, otpText)

	validate.RegisterStructValidation(passwordStructValidation, Registration{}, PasswordReset{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
}

// Custom Validators

// otpValidation only allows one-time passwords made of exactly otpLen digits.
func otpValidation(fl validator.FieldLevel) bool {
	return otpRegex.MatchString(fl.Field().String())
}

// passwordStructValidation applies the password policy to Registration and PasswordReset.
func passwordStructValidation(sl validator.StructLevel) {
	switch v := sl.Current().Interface().(type) {
	case Registration:
		validatePassword(v.Password, sl, v.Name, v.Email)
	case PasswordReset:
		validatePassword(v.Password, sl, v.Email)
	}
}

// validatePassword applies the password policy:
// - minLen: 6
// - no user attrs similarity
func validatePassword(pwd string, sl validator.StructLevel, attrs ...string) {
	if pwd == "" { // reported by `required`
		return
	}
	reportErr := func(tag string) {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}

	if len([]rune(pwd)) < pwdMinLen {
		reportErr(pwdMinLenTag)
		return
	}

	for _, attr := range attrs {
		if passwordSimilarity(pwd, attr) >= pwdMaxSim {
			reportErr(pwdAttrSimTag)
			return
		}
	}
}

// passwordSimilarity compares pwd with a user attribute; emails are compared by their local part too.
func passwordSimilarity(pwd, attr string) float64 {
	if attr == "" {
		return 0
	}
	ratio := func(a, b string) float64 {
		return difflib.NewMatcher(strings.Split(strings.ToLower(a), ""), strings.Split(strings.ToLower(b), "")).Ratio()
	}
	max := ratio(pwd, attr)
	if i := strings.IndexByte(attr, '@'); i > 0 {
		if r := ratio(pwd, attr[:i]); r > max {
			max = r
		}
	}
	return max
}
