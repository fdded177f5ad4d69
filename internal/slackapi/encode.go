package slackapi

import (
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/pkg/errors"
)

// encodeForm turns arguments into a form body. Nil values are dropped,
// booleans become 1/0, and nested maps or slices are sent as JSON, which is
// how the Web API expects fields such as attachments.
func encodeForm(args Arguments) (url.Values, error) {
	form := url.Values{}
	for key, val := range args {
		switch v := val.(type) {
		case nil:
			continue
		case string:
			form.Set(key, v)
		case bool:
			if v {
				form.Set(key, "1")
			} else {
				form.Set(key, "0")
			}
		case fmt.Stringer:
			form.Set(key, v.String())
		case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64, float32, float64:
			form.Set(key, fmt.Sprint(v))
		default:
			raw, err := json.Marshal(v)
			if err != nil {
				return nil, errors.Wrapf(err, "failed to encode argument %q", key)
			}
			form.Set(key, string(raw))
		}
	}
	return form, nil
}
