package schemas

import "github.com/tidwall/gjson"

// ContentBlockType discriminates the block variants of structured content.
type ContentBlockType string

const (
	ContentBlockTypeText     ContentBlockType = "text"
	ContentBlockTypeImageURL ContentBlockType = "image_url"
)

// ImageURL is the image reference carried by an image_url content block.
type ImageURL struct {
	URL string `json:"url"`
}

// ContentBlock is one element of a structured message body. Type selects the
// variant; exactly the matching payload field is set.
type ContentBlock struct {
	Type     ContentBlockType `json:"type"`
	Text     *string          `json:"text,omitempty"`      // For text content
	ImageURL *ImageURL        `json:"image_url,omitempty"` // For image_url content
}

// MarshalJSON implements custom JSON marshalling for ContentBlock.
// It rejects blocks whose payload does not match the discriminator.
func (b ContentBlock) MarshalJSON() ([]byte, error) {
	switch b.Type {
	case ContentBlockTypeText:
		if b.Text == nil || b.ImageURL != nil {
			return nil, errTypeMismatch("type", "text block with only the text field set", "mismatched payload")
		}
	case ContentBlockTypeImageURL:
		if b.ImageURL == nil || b.Text != nil {
			return nil, errTypeMismatch("type", "image_url block with only the image_url field set", "mismatched payload")
		}
	default:
		return nil, errTypeMismatch("type", `"text" or "image_url"`, string(b.Type))
	}
	type alias ContentBlock
	return Marshal(alias(b))
}

// ChatContent represents message content that is either a plain string or an
// array of typed content blocks. Exactly one field is set; the wire form is
// never an object and never null.
type ChatContent struct {
	ContentStr    *string
	ContentBlocks *[]ContentBlock
}

// MarshalJSON implements custom JSON marshalling for ChatContent.
// It marshals either ContentStr or ContentBlocks directly without wrapping.
// An empty block slice encodes as an empty array, not null.
func (c ChatContent) MarshalJSON() ([]byte, error) {
	if c.ContentStr != nil && c.ContentBlocks != nil {
		return nil, errTypeMismatch("content", "exactly one of ContentStr or ContentBlocks set", "both set")
	}
	if c.ContentStr != nil {
		return Marshal(*c.ContentStr)
	}
	if c.ContentBlocks != nil {
		return Marshal(*c.ContentBlocks)
	}
	return nil, errTypeMismatch("content", "exactly one of ContentStr or ContentBlocks set", "neither set")
}

// UnmarshalJSON implements custom JSON unmarshalling for ChatContent.
// A JSON string becomes ContentStr; a JSON array becomes ContentBlocks with
// the elements in original order. Any other shape is rejected.
func (c *ChatContent) UnmarshalJSON(data []byte) error {
	v := gjson.ParseBytes(data)
	switch {
	case v.Type == gjson.String:
		var s string
		if err := Unmarshal(data, &s); err != nil {
			return err
		}
		c.ContentStr = &s
		c.ContentBlocks = nil
		return nil
	case v.IsArray():
		elems := v.Array()
		blocks := make([]ContentBlock, 0, len(elems))
		for i, el := range elems {
			block, err := decodeContentBlock(indexPath("content", i), el)
			if err != nil {
				return err
			}
			blocks = append(blocks, block)
		}
		c.ContentStr = nil
		c.ContentBlocks = &blocks
		return nil
	default:
		return errUnexpectedShape("content", "string or array", jsonKind(v))
	}
}

func decodeContentBlock(path string, v gjson.Result) (ContentBlock, error) {
	if !v.IsObject() {
		return ContentBlock{}, errUnexpectedShape(path, "object", jsonKind(v))
	}
	tag := v.Get("type")
	if !tag.Exists() {
		return ContentBlock{}, errMissingField(joinPath(path, "type"))
	}
	if tag.Type != gjson.String {
		return ContentBlock{}, errTypeMismatch(joinPath(path, "type"), "string", jsonKind(tag))
	}
	switch ContentBlockType(tag.Str) {
	case ContentBlockTypeText:
		text := v.Get("text")
		if !text.Exists() {
			return ContentBlock{}, errMissingField(joinPath(path, "text"))
		}
		if text.Type != gjson.String {
			return ContentBlock{}, errTypeMismatch(joinPath(path, "text"), "string", jsonKind(text))
		}
		return ContentBlock{Type: ContentBlockTypeText, Text: Ptr(text.Str)}, nil
	case ContentBlockTypeImageURL:
		img := v.Get("image_url")
		if !img.Exists() {
			return ContentBlock{}, errMissingField(joinPath(path, "image_url"))
		}
		if !img.IsObject() {
			return ContentBlock{}, errTypeMismatch(joinPath(path, "image_url"), "object", jsonKind(img))
		}
		url := img.Get("url")
		if !url.Exists() {
			return ContentBlock{}, errMissingField(joinPath(path, "image_url.url"))
		}
		if url.Type != gjson.String {
			return ContentBlock{}, errTypeMismatch(joinPath(path, "image_url.url"), "string", jsonKind(url))
		}
		return ContentBlock{Type: ContentBlockTypeImageURL, ImageURL: &ImageURL{URL: url.Str}}, nil
	default:
		return ContentBlock{}, errUnknownVariant(joinPath(path, "type"), `"text" or "image_url"`, tag.Str)
	}
}
