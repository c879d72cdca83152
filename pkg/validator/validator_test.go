package validator

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type askRequest struct {
	Question string `json:"question" validate:"required,notblank"`
}

func TestValidateWithLang(t *testing.T) {
	v := New()

	tests := []struct {
		name     string
		question string
		wantTag  string
	}{
		{name: "valid", question: "What is Pranam's degree?"},
		{name: "empty", question: "", wantTag: "required"},
		{name: "whitespace", question: " \t\n", wantTag: TagNotBlank},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			errs := v.ValidateWithLang(&askRequest{Question: tt.question}, LangEN)
			if tt.wantTag == "" {
				assert.Nil(t, errs)
				return
			}
			require.True(t, errs.HasErrors())
			assert.Equal(t, "question", errs.FirstField())
			assert.Equal(t, tt.wantTag, errs.Errors[0].Tag)
		})
	}
}

func TestNotBlankTranslations(t *testing.T) {
	v := New()
	req := &askRequest{Question: "   "}

	assert.Equal(t, "question must not be blank", v.ValidateWithLang(req, LangEN).First())
	assert.Equal(t, "question不能为空白", v.ValidateWithLang(req, "zh-CN,zh;q=0.9").First())
	assert.Equal(t, "question must not be blank", v.ValidateWithLang(req, "fr").First())
}

func TestValidationErrors_Error(t *testing.T) {
	var nilErrs *ValidationErrors
	assert.Equal(t, "", nilErrs.Error())
	assert.Equal(t, 0, nilErrs.Count())

	errs := NewValidationError("question", "required", "question is a required field")
	errs.Append("conv_history", "dive", "conv_history is invalid")
	assert.Equal(t, 2, errs.Count())
	assert.Equal(t, "validation failed: question is a required field; conv_history is invalid", errs.Error())
	assert.Equal(t, []string{"question is a required field", "conv_history is invalid"}, errs.Messages())
}
