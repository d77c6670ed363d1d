package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type courseForm struct {
	Code     string `json:"code" validate:"required,coursecode"`
	Name     string `json:"name" validate:"required,trimmed,max=120"`
	Credits  int    `json:"credits" validate:"gte=1,lte=10"`
	Year     string `json:"academicYear" validate:"omitempty,academicyear"`
	Internal string `json:"-" validate:"omitempty,slug"`
}

type gradeSheet struct {
	Records []gradeRecord `json:"records" validate:"required,min=1,dive"`
}

type gradeRecord struct {
	StudentID string `json:"studentId" validate:"required"`
	Grade     string `json:"grade" validate:"required,lettergrade"`
}

func TestValidate_Valid(t *testing.T) {
	err := New().Validate(courseForm{Code: "CS101", Name: "Intro", Credits: 3, Year: "2024/2025"})
	assert.NoError(t, err)
}

func TestValidate_FieldNames(t *testing.T) {
	v := New()
	err := v.ValidateWithLang(courseForm{Code: "cs-101", Name: " Intro", Credits: 0, Year: "2024/2026"}, LangEN)
	require.NotNil(t, err)

	fields := map[string]string{}
	for _, fe := range err.Errors {
		fields[fe.Field] = fe.Tag
	}
	assert.Equal(t, map[string]string{
		"code":         "coursecode",
		"name":         "trimmed",
		"credits":      "gte",
		"academicYear": "academicyear",
	}, fields)
	assert.Equal(t, []string{"code must be a course code such as CS101"}, err.ForField("code"))
}

func TestValidate_NestedPath(t *testing.T) {
	err := New().ValidateWithLang(gradeSheet{Records: []gradeRecord{{StudentID: "s1", Grade: "A"}, {StudentID: "s2", Grade: "E"}}}, LangEN)
	require.NotNil(t, err)
	require.Len(t, err.Errors, 1)
	assert.Equal(t, "records[1].grade", err.Errors[0].Field)

	fe := err.FieldErrors()
	require.Len(t, fe, 1)
	assert.Equal(t, "records[1].grade", fe[0].Path)
}

func TestValidate_Chinese(t *testing.T) {
	err := New().ValidateWithLang(courseForm{Code: "CS101", Name: "Intro", Credits: 3, Year: "2024"}, LangZH)
	require.NotNil(t, err)
	assert.Equal(t, "academicYear必须是连续的两个年份，例如2024/2025", err.First())
}

func TestRules(t *testing.T) {
	v := New()
	tests := []struct {
		tag   string
		value string
		ok    bool
	}{
		{"password", "abcdefg1", true},
		{"password", "abcdefgh", false},
		{"strongpwd", "Abcdef1!", true},
		{"strongpwd", "abcdef1!", false},
		{"slug", "computer-science", true},
		{"slug", "Computer Science", false},
		{"coursecode", "MATH2040A", true},
		{"coursecode", "math204", false},
		{"isbn", "978-0-306-40615-7", true},
		{"isbn", "0-306-40615-2", true},
		{"isbn", "080442957X", true},
		{"isbn", "978-0-306-40615-8", false},
		{"academicyear", "2024-2025", true},
		{"academicyear", "2025/2024", false},
		{"otp", "042917", true},
		{"otp", "42917", false},
		{"lettergrade", "B+", true},
		{"lettergrade", "E", false},
		{"coursecode", "", true},
	}

	for _, tt := range tests {
		err := v.Var(tt.value, tt.tag)
		if tt.ok {
			assert.NoError(t, err, "%s=%q", tt.tag, tt.value)
		} else {
			assert.Error(t, err, "%s=%q", tt.tag, tt.value)
		}
	}
}

func TestStruct_Global(t *testing.T) {
	assert.Same(t, Global(), Global())
	assert.Error(t, Struct(gradeSheet{}))
}
