package router

import (
	"net/http"
	"sort"
	"strings"

	"github.com/go-openapi/spec"
)

// DocRoute is one documented endpoint with its full path
type DocRoute struct {
	Method  string
	Path    string
	Summary string
	Tag     string
}

// DocInfo is the title block of the API document
type DocInfo struct {
	Title       string
	Description string
	Version     string
}

// BuildAPIDoc renders routes as a Swagger 2.0 document. gin path
// parameters (":id") become templated segments ("{id}").
func BuildAPIDoc(info DocInfo, routes []DocRoute) *spec.Swagger {
	doc := &spec.Swagger{
		SwaggerProps: spec.SwaggerProps{
			Swagger:  "2.0",
			BasePath: "/",
			Consumes: []string{"application/json", "multipart/form-data"},
			Produces: []string{"application/json"},
			Info: &spec.Info{InfoProps: spec.InfoProps{
				Title:       info.Title,
				Description: info.Description,
				Version:     info.Version,
			}},
			Paths: &spec.Paths{Paths: make(map[string]spec.PathItem)},
		},
	}

	tags := make(map[string]bool)
	for _, route := range routes {
		path, params := templatePath(route.Path)
		op := spec.NewOperation(operationID(route.Method, path)).
			WithSummary(route.Summary).
			RespondsWith(http.StatusOK, spec.NewResponse().WithDescription("Success envelope")).
			WithDefaultResponse(spec.NewResponse().WithDescription("Error envelope"))
		if route.Tag != "" {
			op.WithTags(route.Tag)
			tags[route.Tag] = true
		}
		for _, name := range params {
			op.AddParam(spec.PathParam(name).Typed("string", ""))
		}

		item := doc.Paths.Paths[path]
		switch route.Method {
		case http.MethodGet:
			item.Get = op
		case http.MethodPost:
			item.Post = op
		case http.MethodPut:
			item.Put = op
		case http.MethodDelete:
			item.Delete = op
		case http.MethodPatch:
			item.Patch = op
		default:
			continue
		}
		doc.Paths.Paths[path] = item
	}

	names := make([]string, 0, len(tags))
	for name := range tags {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		doc.Tags = append(doc.Tags, spec.NewTag(name, "", nil))
	}
	return doc
}

func templatePath(path string) (string, []string) {
	segments := strings.Split(path, "/")
	var params []string
	for i, s := range segments {
		if strings.HasPrefix(s, ":") || strings.HasPrefix(s, "*") {
			name := s[1:]
			params = append(params, name)
			segments[i] = "{" + name + "}"
		}
	}
	return strings.Join(segments, "/"), params
}

func operationID(method, path string) string {
	replacer := strings.NewReplacer("/", "_", "{", "", "}", "", "-", "_")
	return strings.ToLower(method) + strings.TrimRight(replacer.Replace(path), "_")
}
