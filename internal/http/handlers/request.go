package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/xapi-mis-backend/internal/platform/apierr"
)

// maxBodyBytes caps statement and learner bodies.
const maxBodyBytes = 1 << 20

var errEmptyBody = errors.New("request body is empty")

func readBody(c *gin.Context) ([]byte, error) {
	raw, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxBodyBytes))
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return raw, nil
}

// decodeJSON decodes a JSON object body into dst. Wrong-typed fields come back
// as field errors; a body that is not JSON at all is an error.
func decodeJSON(c *gin.Context, dst interface{}) (apierr.FieldErrors, error) {
	raw, err := readBody(c)
	if err != nil {
		return nil, err
	}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return nil, errEmptyBody
	}
	err = json.Unmarshal(raw, dst)
	if err == nil {
		return nil, nil
	}
	var typeErr *json.UnmarshalTypeError
	if errors.As(err, &typeErr) && typeErr.Field != "" {
		fields := apierr.FieldErrors{}
		label := strings.ReplaceAll(typeErr.Field, "_", " ")
		fields.Add(typeErr.Field, fmt.Sprintf("The %s field must be a string.", label))
		return fields, nil
	}
	return nil, err
}

func pageParam(c *gin.Context) int {
	if v := strings.TrimSpace(c.Query("page")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return 1
}

// requestPath is the absolute URL of the request without its query, used for
// paginator links.
func requestPath(c *gin.Context) string {
	scheme := "http"
	if c.Request.TLS != nil {
		scheme = "https"
	}
	if p := strings.TrimSpace(c.GetHeader("X-Forwarded-Proto")); p != "" {
		scheme = p
	}
	return scheme + "://" + c.Request.Host + c.Request.URL.Path
}
