package config

import (
	"sort"
	"strings"
)

var _ CorsConfig = (*settings)(nil)

type AllowedOrigins map[string]struct{}
type nullValue = struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	var origins []string
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

// ParseAllowedOrigins splits a comma separated origin list.
func ParseAllowedOrigins(list string) AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range strings.Split(list, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins[o] = nullValue{}
		}
	}
	return origins
}

func (s *settings) GetAllowedOrigins() AllowedOrigins {
	return ParseAllowedOrigins(s.AllowedOrigins)
}

func (s *settings) GetAllowedMethods() string {
	return "GET, POST, OPTIONS"
}

func (s *settings) GetAllowedHeaders() string {
	return "Content-Type, Authorization"
}
