package hateoas

import (
	"net/url"
	"strings"
)

// Href builds an address from a route template such as /employees/{id},
// substituting path values and appending the query; query keys are sorted
// and empty values are dropped so the same inputs always give the same href
func Href(base, template string, pathValues map[string]string, query url.Values) string {
	href := template
	for name, value := range pathValues {
		href = strings.ReplaceAll(href, "{"+name+"}", url.PathEscape(value))
	}
	params := make(url.Values)
	for key, values := range query {
		for _, value := range values {
			if value != "" {
				params.Add(key, value)
			}
		}
	}
	if encoded := params.Encode(); encoded != "" {
		href += "?" + encoded
	}
	return strings.TrimSuffix(base, "/") + href
}
