package payload_extractor

import (
	"net/http"
	"encoding/json"
)

func NewJSONValueArgsExtractor(r *http.Request) ValueArgsExtractor {
	return &_JSONExtractor{r}
}

type _JSONExtractor struct {
	*http.Request
}

func (r *_JSONExtractor) Extract() (interface{}, interface{}, error) {
	body := make(map[string]interface{})
	dec := json.NewDecoder(r.Request.Body)
	if err := dec.Decode(&body); err != nil {
		return nil, nil, err
	}

	// a missing key yields nil, not an error. the args payload is passed
	// through as the decoded JSON value.
	return body["value"], body["args"], nil
}
