package config

import (
	"sort"
	"strings"
)

type AllowedOrigins map[string]struct{}

func (a AllowedOrigins) IsAllowedOrigin(origin string) bool {
	_, ok := a[origin]
	return ok
}

func (a AllowedOrigins) String() string {
	origins := make([]string, 0, len(a))
	for k := range a {
		origins = append(origins, k)
	}
	sort.Strings(origins)
	return strings.Join(origins, ", ")
}

func (c *koanfConfig) GetAllowedOrigins() AllowedOrigins {
	origins := AllowedOrigins{}
	for _, o := range c.stringsAt("cors.allowedOrigins") {
		origins[o] = struct{}{}
	}
	return origins
}

func (c *koanfConfig) GetAllowedMethods() string {
	return c.k.String("cors.allowedMethods")
}

func (c *koanfConfig) GetAllowedHeaders() string {
	return c.k.String("cors.allowedHeaders")
}
