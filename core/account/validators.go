package account

import (
	"bufio"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strings"
	"sync"
	"unicode"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/pmezard/go-difflib/difflib"

	"github.com/trezcool/homeschool/core"
)

var (
	// password policy
	pwdMinLen     = 8
	pwdMinLenTag  = "pwdminlen"
	pwdMinLenText = fmt.Sprintf("password must contain at least %d characters", pwdMinLen)

	pwdNoSpaceTag  = "pwdnospace"
	pwdNoSpaceText = "password must not contain whitespace"

	pwdNotAllNumTag  = "pwdnotallnum"
	pwdNotAllNumText = "password cannot be entirely numeric"

	pwdComplexityTag  = "pwdcplx"
	pwdComplexityText = "password must contain at least 1 uppercase character, 1 lowercase character, 1 digit and 1 special character"
	specialRegex      = regexp.MustCompile("[^A-Za-z0-9]")

	pwdMaxSim      = .7
	pwdAttrSimTag  = "pwdtoosim"
	pwdAttrSimText = "password cannot be similar to account attributes"

	pwdNoCommonTag  = "pwdnocommon"
	pwdNoCommonText = "password is too common"

	commonPasswords   []string
	commonPasswordsMu sync.RWMutex
)

// InitValidators registers the account validators. `commonPwds` lists one common password per line.
func InitValidators(validate *validator.Validate, translator ut.Translator, commonPwds io.Reader) {
	if commonPwds != nil {
		loadCommonPasswords(commonPwds)
	}

	validate.RegisterStructValidation(accountStructValidation, NewAccount{})
	core.RegisterCustomTranslation(validate, translator, pwdMinLenTag, pwdMinLenText)
	core.RegisterCustomTranslation(validate, translator, pwdNoSpaceTag, pwdNoSpaceText)
	core.RegisterCustomTranslation(validate, translator, pwdNotAllNumTag, pwdNotAllNumText)
	core.RegisterCustomTranslation(validate, translator, pwdComplexityTag, pwdComplexityText)
	core.RegisterCustomTranslation(validate, translator, pwdAttrSimTag, pwdAttrSimText)
	core.RegisterCustomTranslation(validate, translator, pwdNoCommonTag, pwdNoCommonText)
}

func loadCommonPasswords(r io.Reader) {
	pwds := make([]string, 0, 128)
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		if pwd := strings.ToLower(strings.TrimSpace(scanner.Text())); pwd != "" {
			pwds = append(pwds, pwd)
		}
	}
	sort.Strings(pwds)

	commonPasswordsMu.Lock()
	commonPasswords = pwds
	commonPasswordsMu.Unlock()
}

func isCommonPassword(pwd string) bool {
	commonPasswordsMu.RLock()
	defer commonPasswordsMu.RUnlock()

	lpwd := strings.ToLower(pwd)
	idx := sort.SearchStrings(commonPasswords, lpwd)
	return idx < len(commonPasswords) && commonPasswords[idx] == lpwd
}

// accountStructValidation does struct level validation on NewAccount.
func accountStructValidation(sl validator.StructLevel) {
	if acc, ok := sl.Current().Interface().(NewAccount); ok && acc.Password != "" {
		validatePassword(acc.Password, acc.Name, acc.Email, sl)
	}
}

// validatePassword applies the password policy to provided password:
// - minLen: 8
// - no whitespace
// - no all numeric
// - complexity: 1 upper, 1 lower, 1 digit, 1 special
// - no account attrs similarity
// - no common password
func validatePassword(pwd, name, email string, sl validator.StructLevel) {
	if tag := passwordPolicyViolation(pwd, name, email); tag != "" {
		sl.ReportError(pwd, "password", "Password", tag, "")
	}
}

// passwordPolicyViolation returns the tag of the first violated rule, or "".
func passwordPolicyViolation(pwd, name, email string) string {
	var (
		digitCount                             int
		hasUpper, hasLower, hasDig, hasSpecial bool
	)

	pwdLen := len([]rune(pwd))
	if pwdLen < pwdMinLen {
		return pwdMinLenTag
	}
	for _, char := range pwd {
		if unicode.IsSpace(char) {
			return pwdNoSpaceTag
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
		return pwdNotAllNumTag
	}

	hasDig = digitCount > 0
	hasSpecial = specialRegex.MatchString(pwd)
	if !(hasUpper && hasLower && hasDig && hasSpecial) {
		return pwdComplexityTag
	}

	getRatio := func(pass, attr string) float64 {
		if attr == "" {
			return 0
		}
		return difflib.NewMatcher(strings.Split(pass, ""), strings.Split(attr, "")).QuickRatio()
	}
	if getRatio(pwd, name) >= pwdMaxSim || getRatio(pwd, email) >= pwdMaxSim {
		return pwdAttrSimTag
	}

	if isCommonPassword(pwd) {
		return pwdNoCommonTag
	}
	return ""
}

// CheckPasswordPolicy validates a password outside of a struct (e.g. from the admin CLI).
func CheckPasswordPolicy(pwd, name, email string) error {
	if tag := passwordPolicyViolation(pwd, name, email); tag != "" {
		return core.NewValidationError(nil, core.FieldError{Field: "password", Error: passwordPolicyTexts[tag]})
	}
	return nil
}

var passwordPolicyTexts = map[string]string{
	pwdMinLenTag:     pwdMinLenText,
	pwdNoSpaceTag:    pwdNoSpaceText,
	pwdNotAllNumTag:  pwdNotAllNumText,
	pwdComplexityTag: pwdComplexityText,
	pwdAttrSimTag:    pwdAttrSimText,
	pwdNoCommonTag:   pwdNoCommonText,
}
