package types

import (
	"net/url"
)

// ContentType discriminates the Content variants.
type ContentType string

const (
	ContentTypeText  ContentType = "TEXT"
	ContentTypeImage ContentType = "IMAGE"
)

// Content is a closed sum type over *TextContent and *ImageContent.
type Content interface {
	ContentType() ContentType
	isContent()
}

// TextContent is a plain text part of a user message.
type TextContent struct {
	text string
}

// NewTextContent creates a text part.
func NewTextContent(text string) *TextContent {
	return &TextContent{text: text}
}

func (c *TextContent) ContentType() ContentType { return ContentTypeText }
func (c *TextContent) Text() string             { return c.text }
func (*TextContent) isContent()                 {}

// ImageDetail hints how much resolution the model should spend on an image.
type ImageDetail string

const (
	ImageDetailLow  ImageDetail = "low"
	ImageDetailHigh ImageDetail = "high"
	ImageDetailAuto ImageDetail = "auto"
)

// ImageContent is an image part of a user message.
type ImageContent struct {
	image  Image
	detail ImageDetail
}

// NewImageContent creates an image part. The image must carry exactly one
// source, inline base64 data or a URI. Detail defaults to low.
func NewImageContent(img Image, detail ImageDetail) (*ImageContent, error) {
	if err := img.ValidateSource(); err != nil {
		return nil, err
	}
	if detail == "" {
		detail = ImageDetailLow
	}
	return &ImageContent{image: img, detail: detail}, nil
}

// NewImageContentFromURL parses rawURL and creates an image part with low detail.
func NewImageContentFromURL(rawURL string) (*ImageContent, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, NewContractError("invalid image url %q: %v", rawURL, err)
	}
	return NewImageContent(Image{URL: u}, ImageDetailLow)
}

// NewImageContentFromBase64 creates an image part from inline data.
func NewImageContentFromBase64(data, mimeType string) (*ImageContent, error) {
	return NewImageContent(Image{Base64Data: data, MimeType: mimeType}, ImageDetailLow)
}

func (c *ImageContent) ContentType() ContentType { return ContentTypeImage }
func (*ImageContent) isContent()                 {}

// Image returns the image source.
func (c *ImageContent) Image() Image { return c.image }

// Detail returns the detail level.
func (c *ImageContent) Detail() ImageDetail { return c.detail }
