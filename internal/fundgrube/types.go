package fundgrube

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Posting represents a single entry of the postings API response.
type Posting struct {
	PostingID         FlexString `json:"posting_id"`
	PimID             FlexString `json:"pim_id"`
	Name              string     `json:"name"`
	OriginalURL       FlexURL    `json:"original_url"`
	PostingText       string     `json:"posting_text"`
	Price             FlexFloat  `json:"price"`
	ShippingCost      FlexFloat  `json:"shipping_cost"`
	DiscountInPercent FlexFloat  `json:"discount_in_percent"`
	Outlet            *Outlet    `json:"outlet,omitempty"`
}

// Outlet is the physical store that offers a posting.
type Outlet struct {
	ID   FlexString `json:"id"`
	Name string     `json:"name"`
}

type postingsAPIResponse struct {
	Postings              []Posting `json:"postings"`
	MorePostingsAvailable *bool     `json:"morePostingsAvailable,omitempty"`
}

var null = []byte("null")

// FlexString decodes a JSON string or number into a string. The API is not
// consistent about identifier types.
type FlexString string

// UnmarshalJSON implements json.Unmarshaler.
func (s *FlexString) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*s = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		*s = FlexString(v)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("expected string or number, got %s", b)
	}
	*s = FlexString(n.String())
	return nil
}

// FlexFloat decodes a JSON number or a numeric string ("29.99", "29,99")
// into a float64. Null and empty strings decode to zero.
type FlexFloat float64

// UnmarshalJSON implements json.Unmarshaler.
func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*f = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var v string
		if err := json.Unmarshal(b, &v); err != nil {
			return err
		}
		v = strings.TrimSpace(strings.ReplaceAll(v, ",", "."))
		if v == "" {
			*f = 0
			return nil
		}
		p, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", v, err)
		}
		*f = FlexFloat(p)
		return nil
	}
	var p float64
	if err := json.Unmarshal(b, &p); err != nil {
		return fmt.Errorf("invalid amount %s: %w", b, err)
	}
	*f = FlexFloat(p)
	return nil
}

// FlexURL decodes either a URL string or a list of URLs (first wins).
type FlexURL string

// UnmarshalJSON implements json.Unmarshaler.
func (u *FlexURL) UnmarshalJSON(b []byte) error {
	if bytes.Equal(b, null) {
		*u = ""
		return nil
	}
	if len(b) > 0 && b[0] == '[' {
		var list []string
		if err := json.Unmarshal(b, &list); err != nil {
			return err
		}
		*u = ""
		if len(list) > 0 {
			*u = FlexURL(list[0])
		}
		return nil
	}
	var v string
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	*u = FlexURL(v)
	return nil
}
