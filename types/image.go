package types

import "net/url"

// Image is either an input image (for vision models) or a generated one.
//
// Input images carry exactly one source. Generated images may carry a URL,
// inline data, or both, plus the prompt as revised by the provider.
type Image struct {
	URL           *url.URL `json:"url,omitempty"`
	Base64Data    string   `json:"base64_data,omitempty"`
	MimeType      string   `json:"mime_type,omitempty"`
	RevisedPrompt string   `json:"revised_prompt,omitempty"`
}

// ValidateSource checks that exactly one of URL and Base64Data is set.
func (i Image) ValidateSource() error {
	hasURL := i.URL != nil && i.URL.String() != ""
	hasData := i.Base64Data != ""
	switch {
	case hasURL && hasData:
		return NewContractError("image must have either a url or base64 data, not both")
	case !hasURL && !hasData:
		return NewContractError("image must have a url or base64 data")
	}
	return nil
}
