package validator

import (
	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
)

var ruleMessages = map[string]map[string]string{
	LangEN: {
		TagPassword:     "{0} must be at least 8 characters and contain at least one letter and one number",
		TagStrongPwd:    "{0} must be at least 8 characters and contain uppercase, lowercase, number, and special character",
		TagTrimmed:      "{0} must not have leading or trailing spaces",
		TagSlug:         "{0} must be a valid URL slug (lowercase letters, numbers, and hyphens)",
		TagCourseCode:   "{0} must be a course code such as CS101",
		TagISBN:         "{0} must be a valid ISBN-10 or ISBN-13",
		TagAcademicYear: "{0} must be two consecutive years such as 2024/2025",
		TagOTP:          "{0} must be a 6-digit code",
		TagLetterGrade:  "{0} must be a letter grade from A+ to F",
	},
	LangZH: {
		TagPassword:     "{0}必须至少8个字符，且包含至少一个字母和一个数字",
		TagStrongPwd:    "{0}必须至少8个字符，且包含大写字母、小写字母、数字和特殊字符",
		TagTrimmed:      "{0}不能有前导或尾随空格",
		TagSlug:         "{0}必须是有效的URL别名（小写字母、数字和连字符）",
		TagCourseCode:   "{0}必须是课程代码，例如CS101",
		TagISBN:         "{0}必须是有效的ISBN-10或ISBN-13",
		TagAcademicYear: "{0}必须是连续的两个年份，例如2024/2025",
		TagOTP:          "{0}必须是6位数字验证码",
		TagLetterGrade:  "{0}必须是A+到F之间的等级",
	},
}

func (v *Validator) registerTranslations() {
	for lang, messages := range ruleMessages {
		trans := v.translator(lang)
		for tag, message := range messages {
			registerTranslation(v.validate, trans, tag, message)
		}
	}
}

func registerTranslation(validate *validator.Validate, trans ut.Translator, tag, message string) {
	_ = validate.RegisterTranslation(tag, trans,
		func(ut ut.Translator) error {
			return ut.Add(tag, message, true)
		},
		func(ut ut.Translator, fe validator.FieldError) string {
			t, _ := ut.T(tag, fe.Field())
			return t
		},
	)
}
