package proxy

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

const (
	minAPIKeyLength = 10
	maxTagName      = 64
	minPhoneLength  = 8
)

var (
	apiKeyRules = []validation.Rule{validation.Required, validation.RuneLength(minAPIKeyLength, 0)}
	tagNameRules = []validation.Rule{
		validation.Required,
		validation.RuneLength(1, maxTagName),
		validation.NewStringRule(func(s string) bool { return strings.TrimSpace(s) != "" }, "must not be blank"),
	}
	phoneRules = []validation.Rule{validation.Required, validation.RuneLength(minPhoneLength, 0)}
	idRules    = []validation.Rule{validation.Required, validation.Min(1)}
)

type testKeyRequest struct {
	APIKey string `json:"apiKey"`
}

func (r testKeyRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, apiKeyRules...),
	)
}

type tagRequest struct {
	APIKey string `json:"apiKey"`
	Name   string `json:"name"`
}

func (r tagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, apiKeyRules...),
		validation.Field(&r.Name, tagNameRules...),
	)
}

type phoneRequest struct {
	APIKey string `json:"apiKey"`
	Phone  string `json:"phone"`
}

func (r phoneRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, apiKeyRules...),
		validation.Field(&r.Phone, phoneRules...),
	)
}

type attachTagRequest struct {
	APIKey       string `json:"apiKey"`
	SubscriberID int64  `json:"subscriberId"`
	TagID        int64  `json:"tagId"`
}

func (r attachTagRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, apiKeyRules...),
		validation.Field(&r.SubscriberID, idRules...),
		validation.Field(&r.TagID, idRules...),
	)
}

type bulkAttachRequest struct {
	APIKey  string   `json:"apiKey"`
	TagName string   `json:"tagName"`
	Phones  []string `json:"phones"`
}

func (r bulkAttachRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.APIKey, apiKeyRules...),
		validation.Field(&r.TagName, tagNameRules...),
		validation.Field(&r.Phones, validation.NotNil),
	)
}
