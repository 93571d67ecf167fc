package shortener

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
)

var (
	errEmptyBody    = errors.New("empty response")
	errNoShortURL   = errors.New("no short url in response")
	errInvalidShort = errors.New("response is not a url")
)

// apiResponse covers the field names used by the providers we know about.
type apiResponse struct {
	ShortURL      string `json:"shorturl"`
	ShortURLSnake string `json:"short_url"`
	ShortURLCamel string `json:"shortUrl"`
	Link          string `json:"link"`
	ErrorCode     int    `json:"errorcode"`
	ErrorMessage  string `json:"errormessage"`
	Error         string `json:"error"`
}

func (r apiResponse) short() string {
	for _, s := range []string{r.ShortURL, r.ShortURLSnake, r.ShortURLCamel, r.Link} {
		if s != "" {
			return s
		}
	}
	return ""
}

// parseBody accepts either a JSON object with a short url field or a bare
// text body holding the short url.
func parseBody(body []byte) (string, error) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 {
		return "", errEmptyBody
	}

	if body[0] == '{' {
		var r apiResponse
		if err := json.Unmarshal(body, &r); err != nil {
			return "", fmt.Errorf("malformed json: %w", err)
		}
		if r.ErrorMessage != "" {
			return "", fmt.Errorf("provider error %d: %s", r.ErrorCode, r.ErrorMessage)
		}
		if r.Error != "" {
			return "", fmt.Errorf("provider error: %s", r.Error)
		}
		s := r.short()
		if s == "" {
			return "", errNoShortURL
		}
		return validate(s)
	}

	return validate(string(body))
}

func validate(s string) (string, error) {
	u, err := url.Parse(s)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return "", errInvalidShort
	}
	return s, nil
}
