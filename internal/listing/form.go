package listing

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	apperrors "github.com/slavuta-ads/adsbot/internal/errors"
	"github.com/slavuta-ads/adsbot/internal/stats"
	"github.com/slavuta-ads/adsbot/internal/utils/text"
)

const notSpecified = "Не вказано"

// Form is a decoded web form submission. Field names follow the form's JSON keys.
type Form struct {
	Type   stats.FormType
	fields map[string]any
}

// Parse decodes a web form payload. Unknown or missing form types are rejected.
func Parse(payload string) (Form, error) {
	fields := map[string]any{}
	if err := json.Unmarshal([]byte(payload), &fields); err != nil {
		return Form{}, fmt.Errorf("%w: decode form payload: %v", apperrors.ErrValidation, err)
	}
	rawType, _ := fields["formType"].(string)
	formType := stats.FormType(rawType)
	if !formType.Valid() {
		return Form{}, fmt.Errorf("%w: unknown form type %q", apperrors.ErrValidation, rawType)
	}
	return Form{Type: formType, fields: fields}, nil
}

// String returns the field as text, or def when it is absent or blank.
// Line returns a single-line field with whitespace runs collapsed, or def when it is blank.
func (f Form) Line(key, def string) string {
	if v := text.Squash(f.String(key, "")); v != "" {
		return v
	}
	return def
}

func (f Form) String(key, def string) string {
	v, ok := f.fields[key]
	if !ok || v == nil {
		return def
	}
	var s string
	switch t := v.(type) {
	case string:
		s = t
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case bool:
		s = strconv.FormatBool(t)
	default:
		s = fmt.Sprint(t)
	}
	if strings.TrimSpace(s) == "" {
		return def
	}
	return s
}

// Bool reports whether the field holds a truthy value.
func (f Form) Bool(key string) bool {
	switch t := f.fields[key].(type) {
	case bool:
		return t
	case string:
		return t != "" && t != "false" && t != "0"
	case float64:
		return t != 0
	default:
		return false
	}
}

// Summary joins the free-text fields of the form, used for advisory screening.
func (f Form) Summary() string {
	var keys []string
	switch f.Type {
	case stats.FormAdvertising:
		keys = []string{"companyName", "adDescription", "adContact"}
	case stats.FormBuying:
		keys = []string{"productName", "buyerDescription", "buyerContact"}
	case stats.FormSelling:
		keys = []string{"itemName", "sellerDescription", "sellerContact"}
	default:
		keys = []string{"description", "contact"}
	}
	parts := make([]string, 0, len(keys))
	for _, key := range keys {
		if v := text.Squash(f.String(key, "")); v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, "\n")
}
