package handlers

import (
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/irfndi/wayfare-go/internal/utils"
)

const maxLimit = 100

func queryInt(c *gin.Context, name string, min, max int) (int, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return 0, nil
	}
	v, err := strconv.Atoi(raw)
	if err != nil || v < min || (max > 0 && v > max) {
		if max > 0 {
			return 0, utils.NewValidationErrorf("invalid %s parameter: expected an integer between %d and %d", name, min, max)
		}
		return 0, utils.NewValidationErrorf("invalid %s parameter: expected an integer of at least %d", name, min)
	}
	return v, nil
}

func queryBool(c *gin.Context, name string) (bool, error) {
	raw := strings.TrimSpace(c.Query(name))
	if raw == "" {
		return false, nil
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return false, utils.NewValidationErrorf("invalid %s parameter: expected true or false", name)
	}
	return v, nil
}

// queryList splits a comma separated parameter, dropping blanks
func queryList(c *gin.Context, name string) []string {
	raw := c.Query(name)
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
