package payload_extractor

import (
	"net/http"

	"github.com/gorilla/schema"
)

var formDecoder = newFormDecoder()

func newFormDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	return d
}

type valueArgsForm struct {
	Value string `schema:"value"`
	Args  string `schema:"args"`
}

type formExtractor struct {
	*http.Request
}

func NewFormValueArgsExtractor(r *http.Request) ValueArgsExtractor {
	return &formExtractor{r}
}

func (r *formExtractor) Extract() (interface{}, interface{}, error) {
	err := r.Request.ParseForm()
	if err != nil {
		return nil, nil, err
	}

	form := new(valueArgsForm)
	if err := formDecoder.Decode(form, r.Request.Form); err != nil {
		return nil, nil, err
	}

	// keep the missing-key-yields-nil contract of the JSON shape.
	var value, args interface{}
	if _, ok := r.Request.Form["value"]; ok {
		value = form.Value
	}
	if _, ok := r.Request.Form["args"]; ok {
		args = form.Args
	}

	return value, args, nil
}
