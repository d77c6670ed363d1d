package validator

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/go-playground/validator/v10"
)

// Portal validation tags.
const (
	TagPassword     = "password"     // at least 8 chars with a letter and a digit
	TagStrongPwd    = "strongpwd"    // upper, lower, digit and symbol
	TagTrimmed      = "trimmed"      // no leading or trailing spaces
	TagSlug         = "slug"         // lowercase words joined by hyphens
	TagCourseCode   = "coursecode"   // e.g. CS101, MATH2040A
	TagISBN         = "isbn"         // ISBN-10 or ISBN-13 with checksum
	TagAcademicYear = "academicyear" // e.g. 2024/2025 or 2024-2025
	TagOTP          = "otp"          // six-digit one-time code
	TagLetterGrade  = "lettergrade"  // A+ .. F
)

var (
	slugRegex       = regexp.MustCompile(`^[a-z0-9]+(-[a-z0-9]+)*$`)
	courseCodeRegex = regexp.MustCompile(`^[A-Z]{2,4}\d{3,4}[A-Z]?$`)
	yearRegex       = regexp.MustCompile(`^(\d{4})[/-](\d{4})$`)
	otpRegex        = regexp.MustCompile(`^\d{6}$`)

	letterGrades = map[string]struct{}{
		"A+": {}, "A": {}, "A-": {},
		"B+": {}, "B": {}, "B-": {},
		"C+": {}, "C": {}, "C-": {},
		"D+": {}, "D": {}, "F": {},
	}
)

func (v *Validator) registerRules() {
	rules := map[string]validator.Func{
		TagPassword:     validatePassword,
		TagStrongPwd:    validateStrongPassword,
		TagTrimmed:      validateTrimmed,
		TagSlug:         regexRule(slugRegex),
		TagCourseCode:   regexRule(courseCodeRegex),
		TagISBN:         validateISBN,
		TagAcademicYear: validateAcademicYear,
		TagOTP:          regexRule(otpRegex),
		TagLetterGrade:  validateLetterGrade,
	}
	for tag, fn := range rules {
		_ = v.validate.RegisterValidation(tag, fn)
	}
}

// Empty values pass every rule below; "required" decides presence.

func regexRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		value := fl.Field().String()
		return value == "" || re.MatchString(value)
	}
}

func validatePassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if len(value) < 8 {
		return false
	}
	var hasLetter, hasNumber bool
	for _, r := range value {
		switch {
		case unicode.IsLetter(r):
			hasLetter = true
		case unicode.IsDigit(r):
			hasNumber = true
		}
	}
	return hasLetter && hasNumber
}

func validateStrongPassword(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	if len(value) < 8 {
		return false
	}
	var upper, lower, digit, special bool
	for _, r := range value {
		switch {
		case unicode.IsUpper(r):
			upper = true
		case unicode.IsLower(r):
			lower = true
		case unicode.IsDigit(r):
			digit = true
		case unicode.IsPunct(r) || unicode.IsSymbol(r):
			special = true
		}
	}
	return upper && lower && digit && special
}

func validateTrimmed(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	return value == strings.TrimSpace(value)
}

func validateLetterGrade(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	_, ok := letterGrades[value]
	return ok
}

// validateAcademicYear accepts two consecutive years.
func validateAcademicYear(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	m := yearRegex.FindStringSubmatch(value)
	if m == nil {
		return false
	}
	start, _ := strconv.Atoi(m[1])
	end, _ := strconv.Atoi(m[2])
	return end == start+1
}

func validateISBN(fl validator.FieldLevel) bool {
	value := fl.Field().String()
	if value == "" {
		return true
	}
	return IsISBN(value)
}

// IsISBN checks an ISBN-10 or ISBN-13, ignoring hyphens and spaces.
func IsISBN(s string) bool {
	digits := strings.Map(func(r rune) rune {
		if r == '-' || r == ' ' {
			return -1
		}
		return r
	}, s)

	switch len(digits) {
	case 10:
		sum := 0
		for i, r := range digits {
			var d int
			switch {
			case r >= '0' && r <= '9':
				d = int(r - '0')
			case (r == 'X' || r == 'x') && i == 9:
				d = 10
			default:
				return false
			}
			sum += d * (10 - i)
		}
		return sum%11 == 0
	case 13:
		sum := 0
		for i, r := range digits {
			if r < '0' || r > '9' {
				return false
			}
			d := int(r - '0')
			if i%2 == 1 {
				d *= 3
			}
			sum += d
		}
		return sum%10 == 0
	default:
		return false
	}
}
