package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"reflect"
	"regexp"
	"strings"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"

	"github.com/yungbote/octal-backend/internal/http/response"
	"github.com/yungbote/octal-backend/internal/platform/apierr"
)

// Concept keys travel in URL paths, so they may not contain whitespace or
// slashes.
var conceptKeyPattern = regexp.MustCompile(`^[^\s/]{1,200}$`)

var (
	validatorsOnce sync.Once
	validatorsErr  error
)

// RegisterValidators installs the custom binding rules on gin's validator.
func RegisterValidators() error {
	validatorsOnce.Do(func() {
		v, ok := binding.Validator.Engine().(*validator.Validate)
		if !ok {
			validatorsErr = errors.New("unexpected binding validator engine")
			return
		}
		v.RegisterTagNameFunc(fieldName)
		validatorsErr = v.RegisterValidation("concept_key", func(fl validator.FieldLevel) bool {
			return conceptKeyPattern.MatchString(fl.Field().String())
		})
	})
	return validatorsErr
}

// fieldName reports json/uri/form names so errors point at wire fields.
func fieldName(f reflect.StructField) string {
	for _, tag := range []string{"json", "uri", "form"} {
		name := strings.SplitN(f.Tag.Get(tag), ",", 2)[0]
		if name == "-" {
			return ""
		}
		if name != "" {
			return name
		}
	}
	return f.Name
}

// respondBindError turns a binding failure into a 400 naming the first bad
// field.
func respondBindError(c *gin.Context, err error) {
	var ves validator.ValidationErrors
	if errors.As(err, &ves) && len(ves) > 0 {
		fe := ves[0]
		response.RespondAPIError(c, apierr.OnField(http.StatusBadRequest, "invalid_request", fe.Field(),
			fmt.Errorf("%s failed %q validation", fe.Field(), fe.Tag())))
		return
	}
	response.RespondError(c, http.StatusBadRequest, "invalid_request", err)
}
