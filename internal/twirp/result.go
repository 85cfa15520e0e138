package twirp

import "github.com/tidwall/gjson"

// Result is the raw JSON body of a successful call.
type Result struct {
	StatusCode int
	Body       []byte
}

// Get reads a gjson path from the body.
func (r Result) Get(path string) gjson.Result {
	return gjson.GetBytes(r.Body, path)
}
