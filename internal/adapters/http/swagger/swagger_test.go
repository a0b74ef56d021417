package swagger_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	. "github.com/smartystreets/goconvey/convey"
	"gopkg.in/yaml.v3"

	"github.com/cesarion161/clawgic/internal/adapters/http/swagger"
)

type document struct {
	OpenAPI string                    `yaml:"openapi"`
	Paths   map[string]map[string]any `yaml:"paths"`
}

func TestRegister(t *testing.T) {
	Convey("Given a mux with the OpenAPI route", t, func() {
		mux := http.NewServeMux()
		swagger.Register(mux)

		Convey("When the document is fetched", func() {
			w := httptest.NewRecorder()
			mux.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/openapi.yaml", nil))

			Convey("Then it is served as YAML", func() {
				So(w.Code, ShouldEqual, http.StatusOK)
				So(w.Header().Get("Content-Type"), ShouldStartWith, "application/yaml")
				So(w.Body.Bytes(), ShouldResemble, swagger.OpenAPI)
			})
		})

		Convey("Then a nil mux panics", func() {
			So(func() { swagger.Register(nil) }, ShouldPanic)
		})
	})
}

func TestOpenAPIDocument(t *testing.T) {
	Convey("Given the embedded document", t, func() {
		var doc document
		err := yaml.Unmarshal(swagger.OpenAPI, &doc)

		Convey("Then it parses and describes every route", func() {
			So(err, ShouldBeNil)
			So(doc.OpenAPI, ShouldStartWith, "3.")
			routes := map[string]string{
				"/healthz":                 "get",
				"/metrics":                 "get",
				"/stats":                   "get",
				"/rounds":                  "post",
				"/rounds/{id}":             "get",
				"/requests/{id}":           "get",
				"/leaderboard":             "get",
				"/rank/{post_id}":          "get",
				"/curators":                "post",
				"/curators/{id}":           "get",
				"/curators/{id}/reinstate": "post",
				"/posts":                   "post",
				"/golden":                  "post",
			}
			for path, method := range routes {
				So(doc.Paths, ShouldContainKey, path)
				So(doc.Paths[path], ShouldContainKey, method)
			}
			So(doc.Paths["/curators"], ShouldContainKey, "get")
		})
	})
}
