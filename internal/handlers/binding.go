package handlers

import (
	"bytes"
	"encoding/json"
	"io"

	"github.com/gin-gonic/gin"
)

// BindNestedOrFlat decodes the request body into obj. Clients may send the JSON:API
// envelope {"data": {...}} or the bare attributes object; when key is present at the
// top level its value is decoded, otherwise the whole body is.
func BindNestedOrFlat(c *gin.Context, key string, obj interface{}) error {
	var body []byte
	if c.Request.Body != nil {
		body, _ = io.ReadAll(c.Request.Body)
	}
	c.Request.Body = io.NopCloser(bytes.NewBuffer(body))

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(body, &envelope); err == nil {
		if inner, ok := envelope[key]; ok {
			// a present but malformed envelope is an error, not a reason to fall back
			return json.Unmarshal(inner, obj)
		}
	}

	return json.Unmarshal(body, obj)
}
