package handler

import (
	"errors"
	"fmt"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"chirp-go/internal/api/response"

	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
)

var (
	usernamePattern = regexp.MustCompile(`^[A-Za-z0-9_]+$`)
	registerOnce    sync.Once
)

// RegisterValidators 注册自定义校验规则，并让错误信息使用表单字段名
func RegisterValidators() {
	registerOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			return
		}
		v.RegisterTagNameFunc(func(f reflect.StructField) string {
			name := strings.SplitN(f.Tag.Get("form"), ",", 2)[0]
			if name == "" || name == "-" {
				return f.Name
			}
			return name
		})
		_ = v.RegisterValidation("username", func(fl validator.FieldLevel) bool {
			return usernamePattern.MatchString(fl.Field().String())
		})
	})
}

// bindErrors 把绑定错误转换为字段错误
func bindErrors(err error) response.FieldErrors {
	errs := response.FieldErrors{}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		errs.Add("form", "Invalid form submission.")
		return errs
	}

	for _, fe := range verrs {
		errs.Add(fe.Field(), fieldMessage(fe))
	}
	return errs
}

func fieldMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "This field is required."
	case "email":
		return "Invalid email address."
	case "username":
		return "Username should be one word, letters, numbers, and underscores only."
	case "eqfield":
		return "Passwords must match."
	case "min":
		return fmt.Sprintf("Field must be at least %s characters long.", fe.Param())
	case "max":
		return fmt.Sprintf("Field cannot be longer than %s characters.", fe.Param())
	default:
		return "Invalid value."
	}
}
