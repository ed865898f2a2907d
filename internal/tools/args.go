// Package tools provides MCP tool implementations
package tools

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"reflect"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"

	"github.com/oyin-bo/autothread/pkg/errors"
)

// CreateDraftArgs defines arguments for bluesky_create_draft
type CreateDraftArgs struct {
	Content string `json:"content" jsonschema:"required,description=Long-form text to split into a thread" validate:"notblank" short:"c" long:"content"`
	Title   string `json:"title,omitempty" jsonschema:"description=Optional title for your own reference (never posted)" validate:"max=200" short:"t" long:"title"`
}

// ListDraftsArgs defines arguments for bluesky_list_drafts
type ListDraftsArgs struct {
	Limit *int `json:"limit,omitempty" jsonschema:"description=Maximum number of drafts to list (1-50),minimum=1,maximum=50,default=10" validate:"omitnil,min=1,max=50"`
}

// GetDraftArgs defines arguments for bluesky_get_draft
type GetDraftArgs struct {
	DraftID string `json:"draftId" jsonschema:"required,description=Draft identifier returned by bluesky_create_draft" validate:"notblank"`
}

// PublishDraftArgs defines arguments for bluesky_publish_draft
type PublishDraftArgs struct {
	DraftID string `json:"draftId" jsonschema:"required,description=Draft identifier to publish as a thread" validate:"notblank"`
}

// DeleteDraftArgs defines arguments for bluesky_delete_draft
type DeleteDraftArgs struct {
	DraftID string `json:"draftId" jsonschema:"required,description=Draft identifier to discard" validate:"notblank"`
}

// PostArgs defines arguments for bluesky_post
type PostArgs struct {
	Text    string `json:"text" jsonschema:"required,description=Text content of the post (300 characters max)" validate:"notblank" short:"t" long:"text"`
	ReplyTo string `json:"replyTo,omitempty" jsonschema:"description=Post URI (at://...) or URL (https://bsky.app/...) to reply to" short:"r" long:"reply-to"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func argValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
		validate.RegisterTagNameFunc(func(fld reflect.StructField) string {
			name, _, _ := strings.Cut(fld.Tag.Get("json"), ",")
			if name == "-" {
				return ""
			}
			return name
		})
		_ = validate.RegisterValidation("notblank", func(fl validator.FieldLevel) bool {
			return strings.TrimSpace(fl.Field().String()) != ""
		})
	})
	return validate
}

// decodeArgs converts the raw argument bag into dst and validates it. Every
// failing field is listed in the returned InvalidInput error.
func decodeArgs(args map[string]interface{}, dst interface{}) error {
	data, err := json.Marshal(args)
	if err != nil {
		return errors.Wrap(err, errors.InvalidInput, "Invalid arguments")
	}

	if err := json.Unmarshal(data, dst); err != nil {
		var typeErr *json.UnmarshalTypeError
		if stderrors.As(err, &typeErr) && typeErr.Field != "" {
			return invalidArgs([]string{fmt.Sprintf("%s: must be %s", typeErr.Field, describeKind(typeErr.Type.Kind()))})
		}
		return errors.Wrap(err, errors.InvalidInput, "Invalid arguments")
	}

	if err := argValidator().Struct(dst); err != nil {
		var fieldErrs validator.ValidationErrors
		if !stderrors.As(err, &fieldErrs) {
			return errors.Wrap(err, errors.InvalidInput, "Invalid arguments")
		}
		problems := make([]string, 0, len(fieldErrs))
		for _, fe := range fieldErrs {
			problems = append(problems, fmt.Sprintf("%s: %s", fe.Field(), describeFieldError(fe)))
		}
		return invalidArgs(problems)
	}
	return nil
}

func invalidArgs(problems []string) error {
	return errors.NewMCPErrorWithData(errors.InvalidInput,
		"Invalid arguments:\n- "+strings.Join(problems, "\n- "),
		map[string]interface{}{"fields": problems})
}

func describeFieldError(fe validator.FieldError) string {
	isString := fe.Kind() == reflect.String
	switch fe.Tag() {
	case "required", "notblank":
		return "is required"
	case "min":
		if isString {
			return fmt.Sprintf("must be at least %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at least %s", fe.Param())
	case "max":
		if isString {
			return fmt.Sprintf("must be at most %s characters", fe.Param())
		}
		return fmt.Sprintf("must be at most %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}

func describeKind(kind reflect.Kind) string {
	switch kind {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	default:
		return "a " + kind.String()
	}
}
